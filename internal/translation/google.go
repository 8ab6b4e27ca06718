package translation

import (
	"context"
	"fmt"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleTranslator implements Translator using the Cloud Translation API.
// The client is constructed once and is safe for concurrent use.
type GoogleTranslator struct {
	client *translate.Client
}

func NewGoogleTranslator(ctx context.Context, apiKey string) (*GoogleTranslator, error) {
	client, err := translate.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create translate client: %w", err)
	}
	return &GoogleTranslator{client: client}, nil
}

func (g *GoogleTranslator) Translate(ctx context.Context, text, targetLanguage string) (Result, error) {
	target, err := language.Parse(targetLanguage)
	if err != nil {
		return Result{}, fmt.Errorf("invalid target language %q: %w", targetLanguage, err)
	}

	translations, err := g.client.Translate(ctx, []string{text}, target, &translate.Options{
		Format: translate.Text,
	})
	if err != nil {
		return Result{}, err
	}
	if len(translations) == 0 {
		return Result{}, fmt.Errorf("empty translation response")
	}

	return Result{
		Text:           translations[0].Text,
		SourceLanguage: translations[0].Source.String(),
	}, nil
}

func (g *GoogleTranslator) Close() error {
	return g.client.Close()
}
