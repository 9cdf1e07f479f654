package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/contre95/dropzone/src/features/config"
)

// Umi-OCR status codes
const (
	umiCodeOK     = 100
	umiCodeNoText = 101
)

type umiRequest struct {
	Base64 string `json:"base64"`
}

type umiResult struct {
	Text  string      `json:"text"`
	Score float64     `json:"score"`
	Box   [][]float64 `json:"box"`
}

type umiResponse struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"msg"`
}

// UmiEngine talks to an Umi-OCR (PaddleOCR) HTTP server.
type UmiEngine struct {
	client  *http.Client
	baseURL string
}

// NewUmiEngine creates an engine for the server at cfg.BaseURL.
func NewUmiEngine(cfg config.OCR) *UmiEngine {
	return &UmiEngine{
		client:  &http.Client{},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

func (e *UmiEngine) Name() string { return config.EngineUmi }

func (e *UmiEngine) Recognize(ctx context.Context, img Image) (string, error) {
	body, err := json.Marshal(umiRequest{Base64: img.Base64()})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/ocr", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Dropzone/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OCR request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var ocrResp umiResponse
	if err := json.Unmarshal(raw, &ocrResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	switch ocrResp.Code {
	case umiCodeOK:
	case umiCodeNoText:
		return "", ErrNoText
	default:
		return "", fmt.Errorf("OCR failed: %s (code: %d)", ocrResp.Message, ocrResp.Code)
	}

	// data is a list of results on success and a plain message otherwise
	var results []umiResult
	if err := json.Unmarshal(ocrResp.Data, &results); err != nil {
		return "", fmt.Errorf("failed to decode OCR results: %w", err)
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		if t := strings.TrimSpace(r.Text); t != "" {
			lines = append(lines, t)
		}
	}
	if len(lines) == 0 {
		return "", ErrNoText
	}
	return strings.Join(lines, "\n"), nil
}
