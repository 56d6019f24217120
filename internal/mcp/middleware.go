package mcp

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const (
	tenantIDKey contextKey = iota
	userIDKey
)

// UserHeader names the acting user on HTTP requests.
const UserHeader = "X-Atlas-User"

// getTenantID extracts tenant ID from context.
func getTenantID(ctx context.Context) string {
	v, _ := ctx.Value(tenantIDKey).(string)
	return v
}

// getUserID extracts the acting user from context.
func getUserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// TenantResolver resolves a tenant ID from a bearer token.
type TenantResolver interface {
	ResolveTenant(ctx context.Context, token string) (string, error)
}

// authMiddleware implements bearer token authentication as MCP middleware.
func authMiddleware(resolver TenantResolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Skip auth for protocol handshake and notifications
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return nil, fmt.Errorf("unauthorized: missing headers")
			}

			auth := extra.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				return nil, fmt.Errorf("unauthorized: missing bearer token")
			}

			tenantID, err := resolver.ResolveTenant(ctx, token)
			if err != nil {
				return nil, fmt.Errorf("unauthorized: %w", err)
			}
			if tenantID == "" {
				return nil, fmt.Errorf("unauthorized: invalid bearer token")
			}

			ctx = context.WithValue(ctx, tenantIDKey, tenantID)
			return next(ctx, method, req)
		}
	}
}

// noAuthMiddleware injects a default tenant when auth is disabled.
func noAuthMiddleware(defaultTenant string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx = context.WithValue(ctx, tenantIDKey, defaultTenant)
			return next(ctx, method, req)
		}
	}
}

// userMiddleware extracts the acting user from the X-Atlas-User header (HTTP)
// or _meta.user (stdio). The user is optional.
func userMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			var userID string

			extra := req.GetExtra()
			if extra != nil && extra.Header != nil {
				userID = strings.TrimSpace(extra.Header.Get(UserHeader))
			}

			// Some notifications (like "initialized") have nil params.
			if userID == "" {
				if params := req.GetParams(); params != nil {
					// GetMeta panics on a nil underlying value
					func() {
						defer func() { recover() }()
						if meta := params.GetMeta(); meta != nil {
							if u, ok := meta["user"].(string); ok {
								userID = strings.TrimSpace(u)
							}
						}
					}()
				}
			}

			if userID != "" {
				ctx = context.WithValue(ctx, userIDKey, userID)
			}

			return next(ctx, method, req)
		}
	}
}
