package composer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/apperrors"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
)

// Client is the minimal text-generation surface the composer needs.
type Client interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeminiConfig holds connection settings for the Gemini REST API.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	cfg    GeminiConfig
	client *http.Client
}

// NewGeminiClient creates a Gemini REST client.
func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	return &GeminiClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateText implements Client. Transient HTTP failures are retried with
// exponential backoff before giving up.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("%w: gemini api key not configured", apperrors.ErrComposition)
	}

	operation := func() (string, error) {
		text, err := c.generateOnce(ctx, prompt)
		if err != nil {
			if isRetryableStatus(err) {
				return "", err
			}
			return "", backoff.Permanent(err)
		}
		return text, nil
	}

	notify := func(err error, d time.Duration) {
		logger.FromContext(ctx).Warn("Retrying Gemini request",
			zap.Error(err),
			zap.Duration("after", d),
		)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.RetryNotifyWithData(operation, backoff.WithContext(b, ctx), notify)
}

func (c *GeminiClient) generateOnce(ctx context.Context, prompt string) (string, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal request: %w", apperrors.ErrComposition, err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.cfg.BaseURL, c.cfg.Model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %w", apperrors.ErrComposition, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request failed (status 0): %w", apperrors.ErrComposition, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: request failed (status %d)", apperrors.ErrComposition, resp.StatusCode)
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("%w: failed to parse response: %w", apperrors.ErrComposition, err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("%w: api error %d: %s", apperrors.ErrComposition, result.Error.Code, result.Error.Message)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", apperrors.ErrComposition)
	}

	return strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text), nil
}

// isRetryableStatus treats network failures and 429/5xx responses as transient.
func isRetryableStatus(err error) bool {
	msg := err.Error()
	if strings.Contains(msg, "status 0") {
		return true
	}
	for _, code := range []string{"status 429", "status 500", "status 502", "status 503", "status 504"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}
