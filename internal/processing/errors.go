package processing

import (
	"errors"
	"fmt"
)

// Stage names used in timeout classification and logging.
const (
	StageOCR         = "ocr"
	StageTranslation = "translation"
)

// ErrNoTextDetected reports that OCR completed but found no text. It is a
// client-class failure, never a successful empty result.
var ErrNoTextDetected = errors.New("no text detected in image")

// ValidationError reports malformed or missing client input. Reason is the
// client-facing message.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// OCRError reports a failure inside the OCR engine.
type OCRError struct {
	Err error
}

func (e *OCRError) Error() string { return fmt.Sprintf("ocr failed: %v", e.Err) }
func (e *OCRError) Unwrap() error { return e.Err }

// TranslationError reports a failure inside the translation engine.
type TranslationError struct {
	Err error
}

func (e *TranslationError) Error() string { return fmt.Sprintf("translation failed: %v", e.Err) }
func (e *TranslationError) Unwrap() error { return e.Err }

// TimeoutError reports that an external engine call exceeded its deadline.
type TimeoutError struct {
	Stage string
}

func (e *TimeoutError) Error() string { return fmt.Sprintf("%s timed out", e.Stage) }
