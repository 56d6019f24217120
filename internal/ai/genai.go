package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

// GenAIGateway sends completions through the Google GenAI SDK.
type GenAIGateway struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	logger      *slog.Logger
}

// NewGenAIGateway creates a Gemini-backed gateway.
func NewGenAIGateway(ctx context.Context, cfg HTTPGatewayConfig, logger *slog.Logger) (*GenAIGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIGateway{
		client:      client,
		model:       model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
		logger:      logger,
	}, nil
}

// Complete sends the prompt as one GenerateContent call.
func (g *GenAIGateway) Complete(ctx context.Context, p Prompt) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.System, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
		ResponseMIMEType:  "application/json",
	}
	if g.maxTokens > 0 {
		config.MaxOutputTokens = g.maxTokens
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(p.User), config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", statusError(apiErr.Code)
		}
		var apiErrPtr *genai.APIError
		if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
			return "", statusError(apiErrPtr.Code)
		}
		return "", &GatewayError{Err: fmt.Errorf("%w: %v", ErrAnalysisFailed, err)}
	}

	if g.logger != nil {
		g.logger.Debug("gateway call", "kind", p.Kind, "provider", "gemini", "duration", time.Since(start))
	}

	text := resp.Text()
	if text == "" {
		return "", &GatewayError{Status: 200, Err: fmt.Errorf("%w: no completion returned", ErrAnalysisFailed)}
	}
	return text, nil
}
