package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/Mrdrey/ocr/internal/config"
	"github.com/Mrdrey/ocr/internal/logger"
	"github.com/Mrdrey/ocr/internal/middleware"
	"github.com/Mrdrey/ocr/internal/processing"
)

const defaultTargetLanguage = "en"

// Server holds dependencies for handling HTTP requests.
type Server struct {
	cfg       config.Config
	processor *processing.Processor
}

func NewServer(cfg config.Config, processor *processing.Processor) *Server {
	return &Server{cfg: cfg, processor: processor}
}

// NewHandler builds the top-level HTTP handler: routes wrapped with the
// shared middleware chain (recovery boundary outermost).
func NewHandler(cfg config.Config, processor *processing.Processor) http.Handler {
	s := NewServer(cfg, processor)

	mux := http.NewServeMux()
	mux.HandleFunc("/test", s.TestHandler)
	mux.HandleFunc("/process", s.ProcessHandler)

	var handler http.Handler = mux
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.CORSMiddleware(cfg.CORSAllowedOrigins, handler)
	handler = middleware.RecoverMiddleware(handler)
	return handler
}

type processResponse struct {
	ExtractedText  string `json:"extracted_text"`
	TranslatedText string `json:"translated_text"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

// TestHandler responds to reachability checks from client applications.
func (s *Server) TestHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Server is running"})
}

// ProcessHandler accepts a multipart image upload, runs OCR and translation,
// and returns both texts as JSON.
func (s *Server) ProcessHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	logger.Info(ctx, "received image processing request")

	maxBytes := int64(s.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := s.imageFile(r, maxBytes)
	if err != nil {
		logger.Warn(ctx, "upload validation failed", logger.Fields{"reason": err.Error()})
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer file.Close()

	targetLanguage := strings.TrimSpace(r.FormValue("language"))
	if targetLanguage == "" {
		targetLanguage = defaultTargetLanguage
	}
	logger.Info(ctx, "processing image", logger.Fields{
		"filename":        header.Filename,
		"target_language": targetLanguage,
	})

	result, err := s.processor.Process(ctx, processing.Upload{
		Filename:       header.Filename,
		Data:           file,
		TargetLanguage: targetLanguage,
	})
	if err != nil {
		s.writeProcessError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, processResponse{
		ExtractedText:  result.ExtractedText,
		TranslatedText: result.TranslatedText,
		SourceLanguage: result.SourceLanguage,
		TargetLanguage: result.TargetLanguage,
	})
}

// imageFile extracts the uploaded image from the multipart form, enforcing
// the two validation preconditions in order: field present, filename
// non-empty. A part named "image" with an empty filename lands in the form
// values rather than the file map, so that case is distinguished explicitly.
func (s *Server) imageFile(r *http.Request, maxBytes int64) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, nil, &processing.ValidationError{Reason: "No image provided"}
	}

	files := r.MultipartForm.File["image"]
	if len(files) == 0 {
		if _, present := r.MultipartForm.Value["image"]; present {
			return nil, nil, &processing.ValidationError{Reason: "Invalid image file"}
		}
		return nil, nil, &processing.ValidationError{Reason: "No image provided"}
	}

	header := files[0]
	if strings.TrimSpace(header.Filename) == "" {
		return nil, nil, &processing.ValidationError{Reason: "Invalid image file"}
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, &processing.ValidationError{Reason: "Invalid image file"}
	}
	return file, header, nil
}

// writeProcessError maps pipeline errors onto the HTTP error contract.
// Engine failure detail is surfaced verbatim; this service runs behind a
// trusted boundary.
func (s *Server) writeProcessError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var validationErr *processing.ValidationError
	var timeoutErr *processing.TimeoutError
	var ocrErr *processing.OCRError
	var translationErr *processing.TranslationError

	switch {
	case errors.As(err, &validationErr):
		logger.Warn(ctx, "validation failure", logger.Fields{"reason": validationErr.Reason})
		writeError(w, http.StatusBadRequest, validationErr.Reason)
	case errors.Is(err, processing.ErrNoTextDetected):
		logger.Warn(ctx, "no text detected in image")
		writeError(w, http.StatusBadRequest, "No text detected in image")
	case errors.As(err, &timeoutErr):
		logger.Error(ctx, "engine call timed out", err, logger.Fields{"stage": timeoutErr.Stage})
		switch timeoutErr.Stage {
		case processing.StageOCR:
			writeError(w, http.StatusGatewayTimeout, "OCR timed out")
		default:
			writeError(w, http.StatusGatewayTimeout, "Translation timed out")
		}
	case errors.As(err, &ocrErr):
		logger.Error(ctx, "ocr engine failure", ocrErr.Err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("OCR failed: %v", ocrErr.Err))
	case errors.As(err, &translationErr):
		logger.Error(ctx, "translation engine failure", translationErr.Err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Translation failed: %v", translationErr.Err))
	default:
		logger.Error(ctx, "unexpected processing failure", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Server error: %v", err))
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
