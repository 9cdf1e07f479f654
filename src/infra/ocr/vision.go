package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/contre95/dropzone/src/features/config"
	"github.com/contre95/dropzone/src/infra/llm"
	"github.com/sashabaranov/go-openai"
)

// VisionEngine transcribes images with a vision capable chat model behind an OpenAI
// compatible API, such as a local Ollama.
type VisionEngine struct {
	client *openai.Client
	model  string
	prompt string
}

// NewVisionEngine creates a vision engine from the OCR config.
func NewVisionEngine(cfg config.OCR) *VisionEngine {
	return &VisionEngine{
		client: llm.NewClient(cfg.APIKey, cfg.BaseURL),
		model:  cfg.Model,
		prompt: cfg.Prompt,
	}
}

func (e *VisionEngine) Name() string { return config.EngineVision }

func (e *VisionEngine) Recognize(ctx context.Context, img Image) (string, error) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: e.prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    img.DataURL(),
					Detail: openai.ImageURLDetailHigh,
				}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoText
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}
