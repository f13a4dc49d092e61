// Package ai provides HTTP handlers for AI-assisted resume suggestions.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-1.5-flash"
)

// GeminiClient is a minimal REST client for the Gemini generateContent endpoint.
type GeminiClient struct {
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// NewGeminiClient creates a new instance of GeminiClient
func NewGeminiClient() *GeminiClient {
	return &GeminiClient{
		BaseURL:    defaultGeminiBaseURL,
		Model:      defaultGeminiModel,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// ProviderError is an error response from the AI provider. Key-related
// statuses make the caller retry with another stored key.
type ProviderError struct {
	HTTPStatus int
	Status     string
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned %s (%d): %s", e.Status, e.HTTPStatus, e.Message)
}

// KeyRelated reports whether the failure points at the credential rather
// than the request.
func (e *ProviderError) KeyRelated() bool {
	return e.Status == "PERMISSION_DENIED" || e.Status == "INVALID_ARGUMENT" || e.Status == "UNAUTHENTICATED"
}

// GenerateContent sends the prompt and returns the first candidate's text.
func (g *GeminiClient) GenerateContent(ctx context.Context, apiKey, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.BaseURL, g.Model, apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode provider response: %w", err)
	}

	if decoded.Error != nil {
		return "", &ProviderError{
			HTTPStatus: resp.StatusCode,
			Status:     decoded.Error.Status,
			Message:    decoded.Error.Message,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{
			HTTPStatus: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Message:    string(body),
		}
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("provider returned no candidates")
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
