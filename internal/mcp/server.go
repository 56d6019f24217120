package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Config contains server configuration.
type Config struct {
	Services      Services
	Resolver      TenantResolver
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	DefaultTenant string
	Version       string
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	defaultTenant := cfg.DefaultTenant
	if defaultTenant == "" {
		defaultTenant = "default"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "atlas",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Stdio mode: always disable auth (local use only)
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled {
		server.AddReceivingMiddleware(noAuthMiddleware(defaultTenant))
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	}
	server.AddReceivingMiddleware(userMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, NewHandler(cfg.Services), cfg.Logger)

	return server
}

// registerTools exposes every catalog entry as a tool backed by the handler.
func registerTools(server *sdkmcp.Server, handler *Handler, logger *slog.Logger) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := handler.Handle(ctx, getTenantID(ctx), getUserID(ctx), name, args)
			if err != nil {
				return toolError(name, err, logger), nil
			}
			return toolResult(result)
		})
	}
}

func toolResult(result any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil
}

// toolError reports a failed call as tool output so the model can read the
// code and recovery hint. Unmapped errors are logged and hidden.
func toolError(tool string, err error, logger *slog.Logger) *sdkmcp.CallToolResult {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		if logger != nil {
			logger.Error("tool failed", "tool", tool, "error", err)
		}
		apiErr = &APIError{Code: "INTERNAL", Message: "internal error"}
	}
	data, _ := json.Marshal(apiErr)
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
