// Package translation defines the translation contract used by the processing
// pipeline and its Google Translate and Gemini implementations.
package translation

import "context"

// Result is the outcome of translating one piece of text.
type Result struct {
	// Text is the translated text in the target language.
	Text string
	// SourceLanguage is the language the engine detected the input to be
	// written in (ISO 639-1 where the engine provides it). It is always
	// engine-detected, never guessed locally.
	SourceLanguage string
}

// Translator translates text into the given target language code.
// Implementations must be safe for concurrent use.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (Result, error)
}
