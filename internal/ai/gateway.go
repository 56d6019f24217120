package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Gateway sends one completion request and returns the model's text.
type Gateway interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// HTTPGatewayConfig configures an OpenAI-compatible chat completions endpoint.
type HTTPGatewayConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// HTTPGateway calls an OpenAI-compatible chat/completions endpoint. It makes
// exactly one request per call: no retry and no backoff.
type HTTPGateway struct {
	endpoint    string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      *slog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewHTTPGateway creates a gateway for the configured endpoint.
func NewHTTPGateway(cfg HTTPGatewayConfig, logger *slog.Logger) *HTTPGateway {
	endpoint := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasSuffix(endpoint, "/chat/completions") {
		endpoint += "/chat/completions"
	}
	return &HTTPGateway{
		endpoint:    endpoint,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		logger:      logger,
	}
}

// Complete posts the prompt and returns the first choice's content.
func (g *HTTPGateway) Complete(ctx context.Context, p Prompt) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", &GatewayError{Err: fmt.Errorf("%w: %v", ErrAnalysisFailed, err)}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", &GatewayError{Status: resp.StatusCode, Err: fmt.Errorf("%w: reading response: %v", ErrAnalysisFailed, err)}
	}

	if g.logger != nil {
		g.logger.Debug("gateway call", "kind", p.Kind, "status", resp.StatusCode, "duration", time.Since(start), "bytes", len(payload))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", statusError(resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", &GatewayError{Status: resp.StatusCode, Err: fmt.Errorf("%w: malformed completion envelope: %v", ErrAnalysisFailed, err)}
	}
	if len(parsed.Choices) == 0 {
		return "", &GatewayError{Status: resp.StatusCode, Err: fmt.Errorf("%w: no completion returned", ErrAnalysisFailed)}
	}
	return parsed.Choices[0].Message.Content, nil
}

// statusError maps a non-2xx status to the gateway error taxonomy.
func statusError(status int) *GatewayError {
	switch status {
	case http.StatusTooManyRequests:
		return &GatewayError{Status: status, Err: ErrRateLimited}
	case http.StatusPaymentRequired:
		return &GatewayError{Status: status, Err: ErrQuotaExceeded}
	default:
		return &GatewayError{Status: status, Err: ErrAnalysisFailed}
	}
}
