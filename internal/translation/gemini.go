package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiTranslator implements Translator using the Gemini API. The model is
// instructed to answer with strict JSON carrying the translation and the
// detected source language.
type GeminiTranslator struct {
	apiKey string
	model  string
}

func NewGeminiTranslator(apiKey, model string) *GeminiTranslator {
	return &GeminiTranslator{
		apiKey: strings.TrimSpace(apiKey),
		model:  strings.TrimSpace(model),
	}
}

const geminiSystemPrompt = `You are a translation engine. Translate the user-provided text into the requested target language.
Respond with ONLY a JSON object of the form {"translated_text": "...", "source_language": "xx"}
where source_language is the ISO 639-1 code of the language you detected the input to be written in.
Do not add commentary, markdown fences, or any text outside the JSON object.`

func (g *GeminiTranslator) Translate(ctx context.Context, text, targetLanguage string) (Result, error) {
	if g.apiKey == "" {
		return Result{}, errors.New("gemini api key is empty")
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return Result{}, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(geminiSystemPrompt)},
	}

	prompt := fmt.Sprintf("Target language: %s\n\nText:\n%s", targetLanguage, text)
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Result{}, err
	}

	raw, err := firstTextPart(resp)
	if err != nil {
		return Result{}, err
	}
	return parseGeminiResult(raw)
}

func firstTextPart(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: empty response")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			return string(txt), nil
		}
	}
	return "", errors.New("gemini: no text part in response")
}

// parseGeminiResult decodes the model's JSON answer. Fenced code blocks are
// tolerated because some models wrap JSON output despite instructions.
func parseGeminiResult(raw string) (Result, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var payload struct {
		TranslatedText string `json:"translated_text"`
		SourceLanguage string `json:"source_language"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return Result{}, fmt.Errorf("gemini: malformed translation payload: %w", err)
	}
	if payload.TranslatedText == "" {
		return Result{}, errors.New("gemini: translation payload missing translated_text")
	}
	return Result{
		Text:           payload.TranslatedText,
		SourceLanguage: strings.ToLower(strings.TrimSpace(payload.SourceLanguage)),
	}, nil
}

func ptrFloat32(v float32) *float32 { return &v }
