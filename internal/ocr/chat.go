package ocr

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ChatCompleter is the subset of the OpenAI client used for page OCR.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatConfig configures an OpenAI-compatible vision chat endpoint.
type ChatConfig struct {
	APIKey string

	// BaseURL overrides the API base for OpenAI-compatible providers.
	BaseURL string

	// Model must accept image input.
	Model string

	// MaxTokens caps the transcription length per page.
	MaxTokens int
}

// ChatRecognizer implements Recognizer by asking a vision-capable chat model
// to transcribe the page image verbatim.
type ChatRecognizer struct {
	client ChatCompleter
	config ChatConfig
}

// NewChatRecognizer creates a chat recognizer from config.
func NewChatRecognizer(config ChatConfig) (*ChatRecognizer, error) {
	const op = "NewChatRecognizer"

	if config.APIKey == "" {
		return nil, WrapOCRError(op, ErrMissingCredentials, "OPENAI_API_KEY is not set")
	}
	if config.Model == "" {
		return nil, WrapOCRError(op, ErrInvalidConfiguration, "model is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return NewChatRecognizerWithClient(config, openai.NewClientWithConfig(clientConfig)), nil
}

// NewChatRecognizerWithClient creates a chat recognizer with an explicit client (for testing).
func NewChatRecognizerWithClient(config ChatConfig, client ChatCompleter) *ChatRecognizer {
	if config.MaxTokens <= 0 {
		config.MaxTokens = 4096
	}
	return &ChatRecognizer{client: client, config: config}
}

// Name implements Recognizer.
func (c *ChatRecognizer) Name() string { return "openai" }

// Recognize transcribes one page image.
func (c *ChatRecognizer) Recognize(ctx context.Context, image []byte, language string) (string, error) {
	const op = "ChatRecognize"

	if err := validateImage(op, image); err != nil {
		return "", err
	}
	hints, err := LanguageHints(language)
	if err != nil {
		return "", WrapOCRError(op, err, "")
	}

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.config.Model,
		Temperature: 0,
		MaxTokens:   c.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: transcriptionPrompt(hints),
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: "Transcribe this page.",
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", apiFailure(op, err, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", WrapOCRError(op, ErrOCRFailed, "no response choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func transcriptionPrompt(hints []string) string {
	return "You are an OCR engine. Return exactly the text visible on the page image, " +
		"in reading order, preserving line breaks. Do not translate, summarize or " +
		"add commentary. Return an empty response for a blank page. " +
		"Expected languages (BCP-47): " + strings.Join(hints, ", ") + "."
}
