package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ProviderGoogle and ProviderGemini are the accepted TRANSLATION_PROVIDER values.
const (
	ProviderGoogle = "google"
	ProviderGemini = "gemini"
)

type Config struct {
	Port string
	// Scratch storage for in-flight uploads
	ScratchDir        string
	ScratchSweepSpec  string
	ScratchTTLMinutes int
	// OCR
	OCRLanguages      []string
	OCRTimeoutSeconds int
	// Translation
	TranslationProvider       string
	GoogleTranslateAPIKey     string
	GeminiAPIKey              string
	GeminiModel               string
	TranslationTimeoutSeconds int
	// HTTP
	CORSAllowedOrigins []string
	MaxUploadMB        int
}

// Environment variable names used by the service
const (
	EnvPort                      = "PORT"
	EnvScratchDir                = "SCRATCH_DIR"
	EnvScratchSweepSchedule      = "SCRATCH_SWEEP_SCHEDULE"
	EnvScratchTTLMinutes         = "SCRATCH_TTL_MINUTES"
	EnvOCRLanguages              = "OCR_LANGUAGES"
	EnvOCRTimeoutSeconds         = "OCR_TIMEOUT_SECONDS"
	EnvTranslationProvider       = "TRANSLATION_PROVIDER"
	EnvGoogleTranslateAPIKey     = "GOOGLE_TRANSLATE_API_KEY"
	EnvGeminiAPIKey              = "GEMINI_API_KEY"
	EnvGeminiModel               = "GEMINI_MODEL"
	EnvTranslationTimeoutSeconds = "TRANSLATION_TIMEOUT_SECONDS"
	EnvCORSAllowedOrigins        = "CORS_ALLOWED_ORIGINS"
	EnvMaxUploadMB               = "MAX_UPLOAD_MB"
)

// collectOptional reads optional env vars and applies defaults when empty/whitespace.
func collectOptional(defaults map[string]string) map[string]string {
	values := make(map[string]string, len(defaults))
	for k, def := range defaults {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			v = def
		}
		values[k] = v
	}
	return values
}

func mustInt(values map[string]string, key string) int {
	n, err := strconv.Atoi(values[key])
	if err != nil {
		panic(fmt.Sprintf("invalid %s: must be an integer", key))
	}
	return n
}

// splitList splits a comma separated env value into trimmed, non-empty entries.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func Load() Config {
	optionalEnvVars := collectOptional(map[string]string{
		EnvPort:                      "8080",
		EnvScratchDir:                "temp",
		EnvScratchSweepSchedule:      "@every 15m",
		EnvScratchTTLMinutes:         "60",
		EnvOCRLanguages:              "eng",
		EnvOCRTimeoutSeconds:         "30",
		EnvTranslationProvider:       ProviderGoogle,
		EnvGeminiModel:               "gemini-1.5-flash",
		EnvTranslationTimeoutSeconds: "15",
		EnvCORSAllowedOrigins:        "*",
		EnvMaxUploadMB:               "10",
	})

	provider := strings.ToLower(optionalEnvVars[EnvTranslationProvider])
	if provider != ProviderGoogle && provider != ProviderGemini {
		panic(fmt.Sprintf("invalid %s: must be %q or %q", EnvTranslationProvider, ProviderGoogle, ProviderGemini))
	}

	googleKey := strings.TrimSpace(os.Getenv(EnvGoogleTranslateAPIKey))
	geminiKey := strings.TrimSpace(os.Getenv(EnvGeminiAPIKey))
	switch provider {
	case ProviderGoogle:
		if googleKey == "" {
			panic(fmt.Sprintf("missing required env var: %s", EnvGoogleTranslateAPIKey))
		}
	case ProviderGemini:
		if geminiKey == "" {
			panic(fmt.Sprintf("missing required env var: %s", EnvGeminiAPIKey))
		}
	}

	return Config{
		Port:                      optionalEnvVars[EnvPort],
		ScratchDir:                optionalEnvVars[EnvScratchDir],
		ScratchSweepSpec:          optionalEnvVars[EnvScratchSweepSchedule],
		ScratchTTLMinutes:         mustInt(optionalEnvVars, EnvScratchTTLMinutes),
		OCRLanguages:              splitList(optionalEnvVars[EnvOCRLanguages]),
		OCRTimeoutSeconds:         mustInt(optionalEnvVars, EnvOCRTimeoutSeconds),
		TranslationProvider:       provider,
		GoogleTranslateAPIKey:     googleKey,
		GeminiAPIKey:              geminiKey,
		GeminiModel:               optionalEnvVars[EnvGeminiModel],
		TranslationTimeoutSeconds: mustInt(optionalEnvVars, EnvTranslationTimeoutSeconds),
		CORSAllowedOrigins:        splitList(optionalEnvVars[EnvCORSAllowedOrigins]),
		MaxUploadMB:               mustInt(optionalEnvVars, EnvMaxUploadMB),
	}
}
