package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxLoggedPayload caps logged params and results; uploads and exports carry
// base64 files.
const maxLoggedPayload = 4096

// trafficLoggingMiddleware logs every request and response at debug level.
// Domain failures come back as tool results with IsError set rather than as
// Go errors, so they are flagged separately as tool_error.
func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			reqLog := logger.With(
				"direction", direction,
				"method", method,
				"tool", toolName(req),
				"session_id", safeSessionID(req),
				"tenant_id", getTenantID(ctx),
			)
			reqLog.Debug("mcp traffic", "stage", "request", "params", formatPayload(safeParams(req)))

			start := time.Now()
			result, err := next(ctx, method, req)
			if strings.HasPrefix(method, "notifications/") {
				return result, err
			}

			attrs := []any{"stage", "response", "elapsed", time.Since(start), "result", formatPayload(result)}
			if call, ok := result.(*sdkmcp.CallToolResult); ok && call != nil && call.IsError {
				attrs = append(attrs, "tool_error", true)
			}
			if err != nil {
				attrs = append(attrs, "error", err)
			}
			reqLog.Debug("mcp traffic", attrs...)
			return result, err
		}
	}
}

// The SDK's request accessors can panic on partially built requests, so the
// helpers below recover and report empty values instead.

func safeSessionID(req sdkmcp.Request) (id string) {
	if req == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	if session := req.GetSession(); session != nil {
		return session.ID()
	}
	return ""
}

func safeParams(req sdkmcp.Request) (params any) {
	if req == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			params = nil
		}
	}()
	return req.GetParams()
}

// toolName returns the called tool for tools/call requests.
func toolName(req sdkmcp.Request) string {
	if call, ok := req.(*sdkmcp.CallToolRequest); ok && call.Params != nil {
		return call.Params.Name
	}
	return ""
}

func formatPayload(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%T", payload)
	}
	if len(data) > maxLoggedPayload {
		return fmt.Sprintf("%s...(%d bytes)", truncateUTF8(string(data), maxLoggedPayload), len(data))
	}
	return string(data)
}
