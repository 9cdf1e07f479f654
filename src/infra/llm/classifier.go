package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/contre95/dropzone/src/features/config"
	"github.com/contre95/dropzone/src/features/watching"
	"github.com/contre95/dropzone/src/infra/files"
	"github.com/sashabaranov/go-openai"
)

var (
	ErrEmptyResponse   = errors.New("empty response from model")
	ErrUnknownCategory = errors.New("model replied with an unknown category")
	ErrEmptyNote       = errors.New("note has no content")
)

var _ watching.Processor = (*Classifier)(nil)

// Classifier asks a chat completion model to pick one of the configured categories for a
// markdown note, then files the note under <output>/<category>.
type Classifier struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	categories  []string
	outputPath  string
	maxChars    int
}

// NewClassifier creates a classifier for the given watcher.
func NewClassifier(cfg config.LLM, w config.Watcher) *Classifier {
	return &Classifier{
		client:      NewClient(cfg.APIKey, cfg.BaseURL),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		categories:  w.Categories,
		outputPath:  w.OutputPath,
		maxChars:    w.MaxChars,
	}
}

// NewClient builds an OpenAI compatible client. An empty baseURL means the hosted OpenAI API.
func NewClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return openai.NewClientWithConfig(cfg)
}

func (c *Classifier) Name() string { return config.KindClassify }

// Process classifies the note and moves it into its category folder.
func (c *Classifier) Process(ctx context.Context, path string) (watching.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return watching.Result{}, fmt.Errorf("failed to read note: %w", err)
	}
	content := truncate(string(data), c.maxChars)
	if strings.TrimSpace(content) == "" {
		return watching.Result{}, ErrEmptyNote
	}

	category, err := c.Classify(ctx, filepath.Base(path), content)
	if err != nil {
		return watching.Result{}, err
	}

	moved, err := files.MoveFile(path, filepath.Join(c.outputPath, files.Sanitize(category)))
	if err != nil {
		return watching.Result{}, err
	}
	return watching.Result{Summary: "category: " + category, OutputPath: moved}, nil
}

// Classify returns the category the model picked for the note.
func (c *Classifier) Classify(ctx context.Context, name, content string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(c.categories)},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("File name: %s\n\n%s", name, content)},
		},
	}
	if c.maxTokens > 0 {
		req.MaxTokens = c.maxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	reply := resp.Choices[0].Message.Content
	category := MatchCategory(reply, c.categories)
	if category == "" {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, reply)
	}
	return category, nil
}

func systemPrompt(categories []string) string {
	var sb strings.Builder
	sb.WriteString("You sort markdown notes into folders. Read the note and reply with exactly one category from this list, and nothing else:\n")
	for _, c := range categories {
		sb.WriteString("- ")
		sb.WriteString(c)
		sb.WriteString("\n")
	}
	return sb.String()
}

// MatchCategory maps a model reply to one of the categories, case-insensitively.
// The first line is tried as an exact answer first; otherwise the reply must mention exactly one
// category as whole words.
func MatchCategory(reply string, categories []string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(reply), "\n")
	first = strings.TrimSpace(first)
	if label, rest, ok := strings.Cut(first, ":"); ok && strings.EqualFold(strings.TrimSpace(label), "category") {
		first = rest
	}
	first = strings.Trim(first, " \t\"'`*.!")
	for _, c := range categories {
		if strings.EqualFold(first, c) {
			return c
		}
	}

	words := splitWords(reply)
	found := ""
	for _, c := range categories {
		if containsWords(words, splitWords(c)) {
			if found != "" {
				return ""
			}
			found = c
		}
	}
	return found
}

func splitWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsWords reports whether want appears as a run of whole words in words.
func containsWords(words, want []string) bool {
	if len(want) == 0 {
		return false
	}
	for i := 0; i+len(want) <= len(words); i++ {
		if slices.Equal(words[i:i+len(want)], want) {
			return true
		}
	}
	return false
}

func truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars])
}
