package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Mrdrey/ocr/internal/config"
	"github.com/Mrdrey/ocr/internal/httpserver"
	"github.com/Mrdrey/ocr/internal/logger"
	"github.com/Mrdrey/ocr/internal/ocr"
	"github.com/Mrdrey/ocr/internal/processing"
	"github.com/Mrdrey/ocr/internal/scratch"
	"github.com/Mrdrey/ocr/internal/translation"
)

func main() {
	cfg := config.Load()

	// Initialize the centralized logger
	logger.Init("ocr-server")
	ctx := context.Background()

	logger.Info(ctx, "starting ocr-server", logger.Fields{
		"port":                 cfg.Port,
		"translation_provider": cfg.TranslationProvider,
		"scratch_dir":          cfg.ScratchDir,
		"ocr_languages":        cfg.OCRLanguages,
	})

	scratchDir, err := scratch.New(cfg.ScratchDir)
	if err != nil {
		logger.Error(ctx, "failed to init scratch dir", err)
		log.Fatalf("failed to init scratch dir: %v", err)
	}

	translator, err := newTranslator(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "failed to init translator", err)
		log.Fatalf("failed to init translator: %v", err)
	}

	// The engine value is shared across requests; it creates a short-lived
	// Tesseract client per invocation.
	engine := ocr.NewTesseractEngine(cfg.OCRLanguages...)

	processor := processing.NewProcessor(
		engine,
		translator,
		scratchDir,
		time.Duration(cfg.OCRTimeoutSeconds)*time.Second,
		time.Duration(cfg.TranslationTimeoutSeconds)*time.Second,
	)

	startScratchJanitor(ctx, cfg, scratchDir)

	handler := httpserver.NewHandler(cfg, processor)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Info(ctx, "server starting", logger.Fields{"address": srv.Addr})
	if err := srv.ListenAndServe(); err != nil {
		logger.Error(ctx, "server error", err)
		log.Fatalf("server error: %v", err)
	}
}

func newTranslator(ctx context.Context, cfg config.Config) (translation.Translator, error) {
	if cfg.TranslationProvider == config.ProviderGemini {
		return translation.NewGeminiTranslator(cfg.GeminiAPIKey, cfg.GeminiModel), nil
	}
	return translation.NewGoogleTranslator(ctx, cfg.GoogleTranslateAPIKey)
}

// startScratchJanitor schedules removal of scratch files orphaned by a crash
// between save and per-request cleanup.
func startScratchJanitor(ctx context.Context, cfg config.Config, dir *scratch.Dir) {
	ttl := time.Duration(cfg.ScratchTTLMinutes) * time.Minute

	c := cron.New()
	_, err := c.AddFunc(cfg.ScratchSweepSpec, func() {
		if removed := dir.Sweep(ttl); removed > 0 {
			logger.Info(ctx, "scratch janitor removed orphaned files", logger.Fields{
				"removed": removed,
			})
		}
	})
	if err != nil {
		logger.Error(ctx, "invalid scratch sweep schedule", err, logger.Fields{
			"schedule": cfg.ScratchSweepSpec,
		})
		log.Fatalf("invalid scratch sweep schedule: %v", err)
	}
	c.Start()
}
