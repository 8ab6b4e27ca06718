// Package processing orchestrates the per-request pipeline:
// save upload to scratch, OCR, delete scratch file, translate.
package processing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Mrdrey/ocr/internal/logger"
	"github.com/Mrdrey/ocr/internal/ocr"
	"github.com/Mrdrey/ocr/internal/scratch"
	"github.com/Mrdrey/ocr/internal/translation"
)

// Upload is one client-submitted image plus its translation target.
type Upload struct {
	Filename       string
	Data           io.Reader
	TargetLanguage string
}

// Result is the successful outcome of processing one upload.
type Result struct {
	ExtractedText  string
	TranslatedText string
	SourceLanguage string
	TargetLanguage string
}

type Processor struct {
	engine             ocr.Engine
	translator         translation.Translator
	scratchDir         *scratch.Dir
	ocrTimeout         time.Duration
	translationTimeout time.Duration
}

func NewProcessor(engine ocr.Engine, translator translation.Translator, scratchDir *scratch.Dir, ocrTimeout, translationTimeout time.Duration) *Processor {
	return &Processor{
		engine:             engine,
		translator:         translator,
		scratchDir:         scratchDir,
		ocrTimeout:         ocrTimeout,
		translationTimeout: translationTimeout,
	}
}

// Process runs the pipeline for one upload. The scratch file is removed on
// every exit path from the OCR step, before translation ever starts.
func (p *Processor) Process(ctx context.Context, up Upload) (Result, error) {
	path, cleanup, err := p.scratchDir.Save(up.Filename, up.Data)
	if err != nil {
		return Result{}, err
	}
	logger.Debug(ctx, "upload saved to scratch", logger.Fields{"path": path})

	extracted, err := p.extractText(ctx, path, cleanup)
	if err != nil {
		return Result{}, err
	}
	logger.Info(ctx, "text extracted", logger.Fields{"chars": len(extracted)})

	translated, err := p.translate(ctx, extracted, up.TargetLanguage)
	if err != nil {
		return Result{}, err
	}

	return Result{
		ExtractedText:  extracted,
		TranslatedText: translated.Text,
		SourceLanguage: translated.SourceLanguage,
		TargetLanguage: up.TargetLanguage,
	}, nil
}

// extractText owns the scratch file for the duration of the OCR step and
// guarantees its removal whether OCR succeeds, fails, or times out.
func (p *Processor) extractText(ctx context.Context, path string, cleanup func()) (string, error) {
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, p.ocrTimeout)
	defer cancel()

	type detection struct {
		fragments []ocr.Fragment
		err       error
	}
	ch := make(chan detection, 1)
	go func() {
		// A panicking engine must not take the process down; it is
		// reported like any other engine failure.
		defer func() {
			if rec := recover(); rec != nil {
				ch <- detection{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		fragments, err := p.engine.Detect(ctx, path)
		ch <- detection{fragments: fragments, err: err}
	}()

	var fragments []ocr.Fragment
	select {
	case <-ctx.Done():
		return "", &TimeoutError{Stage: StageOCR}
	case d := <-ch:
		if d.err != nil {
			if errors.Is(d.err, context.DeadlineExceeded) {
				return "", &TimeoutError{Stage: StageOCR}
			}
			return "", &OCRError{Err: d.err}
		}
		fragments = d.fragments
	}

	extracted := ocr.JoinFragments(fragments)
	if extracted == "" {
		return "", ErrNoTextDetected
	}
	return extracted, nil
}

func (p *Processor) translate(ctx context.Context, text, targetLanguage string) (translation.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.translationTimeout)
	defer cancel()

	res, err := p.translator.Translate(ctx, text, targetLanguage)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return translation.Result{}, &TimeoutError{Stage: StageTranslation}
		}
		return translation.Result{}, &TranslationError{Err: err}
	}
	return res, nil
}
