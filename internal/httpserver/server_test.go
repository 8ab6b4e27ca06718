package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Mrdrey/ocr/internal/config"
	"github.com/Mrdrey/ocr/internal/ocr"
	"github.com/Mrdrey/ocr/internal/processing"
	"github.com/Mrdrey/ocr/internal/scratch"
	"github.com/Mrdrey/ocr/internal/translation"
)

type stubEngine struct {
	fragments []ocr.Fragment
	err       error
	panicMsg  string
	calls     int
}

func (s *stubEngine) Detect(ctx context.Context, imagePath string) ([]ocr.Fragment, error) {
	s.calls++
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	return s.fragments, s.err
}

type stubTranslator struct {
	result translation.Result
	err    error
	calls  int
}

func (s *stubTranslator) Translate(ctx context.Context, text, targetLanguage string) (translation.Result, error) {
	s.calls++
	if s.err != nil {
		return translation.Result{}, s.err
	}
	return s.result, nil
}

type testServer struct {
	handler    http.Handler
	engine     *stubEngine
	translator *stubTranslator
	scratchDir *scratch.Dir
}

func newTestServer(t *testing.T, engine *stubEngine, translator *stubTranslator) *testServer {
	t.Helper()
	dir, err := scratch.New(filepath.Join(t.TempDir(), "scratch"))
	if err != nil {
		t.Fatalf("scratch.New: %v", err)
	}
	cfg := config.Config{
		CORSAllowedOrigins: []string{"*"},
		MaxUploadMB:        10,
	}
	processor := processing.NewProcessor(engine, translator, dir, time.Second, time.Second)
	return &testServer{
		handler:    NewHandler(cfg, processor),
		engine:     engine,
		translator: translator,
		scratchDir: dir,
	}
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) scratchFileCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(ts.scratchDir.Path())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	return len(entries)
}

func multipartImageRequest(t *testing.T, filename string, language string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte("fake image bytes")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if language != "" {
		if err := mw.WriteField("language", language); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return payload
}

func TestTestEndpoint(t *testing.T) {
	ts := newTestServer(t, &stubEngine{}, &stubTranslator{})

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/test", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	payload := decodeJSON(t, rec)
	if payload["status"] != "Server is running" {
		t.Errorf("status payload = %q, want %q", payload["status"], "Server is running")
	}
}

func TestProcessSuccess(t *testing.T) {
	engine := &stubEngine{fragments: []ocr.Fragment{{Text: "Bonjour"}}}
	translator := &stubTranslator{result: translation.Result{Text: "Hello", SourceLanguage: "fr"}}
	ts := newTestServer(t, engine, translator)

	rec := ts.do(t, multipartImageRequest(t, "photo.png", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	payload := decodeJSON(t, rec)
	if payload["extracted_text"] != "Bonjour" {
		t.Errorf("extracted_text = %q", payload["extracted_text"])
	}
	if payload["translated_text"] != "Hello" {
		t.Errorf("translated_text = %q", payload["translated_text"])
	}
	if payload["source_language"] != "fr" {
		t.Errorf("source_language = %q", payload["source_language"])
	}
	if payload["target_language"] != "en" {
		t.Errorf("target_language = %q, want default en", payload["target_language"])
	}
	if n := ts.scratchFileCount(t); n != 0 {
		t.Errorf("%d scratch files remain after response, want 0", n)
	}
}

func TestProcessExplicitTargetLanguage(t *testing.T) {
	engine := &stubEngine{fragments: []ocr.Fragment{{Text: "Hello"}, {Text: "World"}}}
	translator := &stubTranslator{result: translation.Result{Text: "Hola Mundo", SourceLanguage: "en"}}
	ts := newTestServer(t, engine, translator)

	rec := ts.do(t, multipartImageRequest(t, "photo.png", "es"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}

	payload := decodeJSON(t, rec)
	if payload["extracted_text"] != "Hello World" {
		t.Errorf("extracted_text = %q, want space-joined fragments", payload["extracted_text"])
	}
	if payload["target_language"] != "es" {
		t.Errorf("target_language = %q, want es", payload["target_language"])
	}
}

func TestProcessMissingImageField(t *testing.T) {
	ts := newTestServer(t, &stubEngine{}, &stubTranslator{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("language", "en"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := ts.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if payload := decodeJSON(t, rec); payload["error"] != "No image provided" {
		t.Errorf("error = %q, want %q", payload["error"], "No image provided")
	}
	if ts.engine.calls != 0 {
		t.Error("OCR engine was invoked for a request with no image")
	}
}

func TestProcessNonMultipartBody(t *testing.T) {
	ts := newTestServer(t, &stubEngine{}, &stubTranslator{})

	req := httptest.NewRequest(http.MethodPost, "/process", bytes.NewReader([]byte("not multipart")))
	req.Header.Set("Content-Type", "application/json")

	rec := ts.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if payload := decodeJSON(t, rec); payload["error"] != "No image provided" {
		t.Errorf("error = %q, want %q", payload["error"], "No image provided")
	}
}

func TestProcessEmptyFilename(t *testing.T) {
	ts := newTestServer(t, &stubEngine{}, &stubTranslator{})

	// CreateFormFile refuses empty filenames, so build the part by hand the
	// way a browser submits a file input with nothing selected.
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename=""`)
	h.Set("Content-Type", "application/octet-stream")
	pw, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := pw.Write([]byte("bytes")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/process", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := ts.do(t, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 (%s)", rec.Code, rec.Body.String())
	}
	if payload := decodeJSON(t, rec); payload["error"] != "Invalid image file" {
		t.Errorf("error = %q, want %q", payload["error"], "Invalid image file")
	}
	if ts.engine.calls != 0 {
		t.Error("OCR engine was invoked for an invalid image file")
	}
}

func TestProcessNoTextDetected(t *testing.T) {
	ts := newTestServer(t, &stubEngine{fragments: nil}, &stubTranslator{})

	rec := ts.do(t, multipartImageRequest(t, "blank.png", ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if payload := decodeJSON(t, rec); payload["error"] != "No text detected in image" {
		t.Errorf("error = %q, want %q", payload["error"], "No text detected in image")
	}
	if ts.translator.calls != 0 {
		t.Error("translator was invoked after empty OCR result")
	}
	if n := ts.scratchFileCount(t); n != 0 {
		t.Errorf("%d scratch files remain after response, want 0", n)
	}
}

func TestProcessOCRFailure(t *testing.T) {
	engine := &stubEngine{err: errors.New("tesseract not found")}
	ts := newTestServer(t, engine, &stubTranslator{})

	rec := ts.do(t, multipartImageRequest(t, "photo.png", ""))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if payload := decodeJSON(t, rec); payload["error"] != "OCR failed: tesseract not found" {
		t.Errorf("error = %q, want verbatim engine detail", payload["error"])
	}
	if ts.translator.calls != 0 {
		t.Error("translator was invoked after OCR failure")
	}
	if n := ts.scratchFileCount(t); n != 0 {
		t.Errorf("%d scratch files remain after response, want 0", n)
	}
}

func TestProcessTranslationFailure(t *testing.T) {
	engine := &stubEngine{fragments: []ocr.Fragment{{Text: "Bonjour"}}}
	translator := &stubTranslator{err: errors.New("service unavailable")}
	ts := newTestServer(t, engine, translator)

	rec := ts.do(t, multipartImageRequest(t, "photo.png", ""))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if payload := decodeJSON(t, rec); payload["error"] != "Translation failed: service unavailable" {
		t.Errorf("error = %q, want verbatim engine detail", payload["error"])
	}
	if n := ts.scratchFileCount(t); n != 0 {
		t.Errorf("%d scratch files remain after response, want 0", n)
	}
}

func TestProcessPanickingEngineIsContained(t *testing.T) {
	ts := newTestServer(t, &stubEngine{panicMsg: "engine blew up"}, &stubTranslator{})

	rec := ts.do(t, multipartImageRequest(t, "photo.png", ""))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	payload := decodeJSON(t, rec)
	if payload["error"] != "OCR failed: panic: engine blew up" {
		t.Errorf("error = %q, want contained engine panic detail", payload["error"])
	}
	if n := ts.scratchFileCount(t); n != 0 {
		t.Errorf("%d scratch files remain after response, want 0", n)
	}
}

func TestProcessMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, &stubEngine{}, &stubTranslator{})

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/process", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestCORSHeadersApplied(t *testing.T) {
	ts := newTestServer(t, &stubEngine{}, &stubTranslator{})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := ts.do(t, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, &stubEngine{}, &stubTranslator{})

	req := httptest.NewRequest(http.MethodOptions, "/process", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := ts.do(t, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("missing Access-Control-Allow-Methods on preflight response")
	}
}
