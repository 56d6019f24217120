// Package testserver runs the full HTTP stack on an in-memory database with
// a scripted AI gateway.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/atlas/internal/ai"
	"github.com/rpggio/atlas/internal/app"
	"github.com/rpggio/atlas/internal/mcp"
	"github.com/rpggio/atlas/internal/sqlite"
	"github.com/rpggio/atlas/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	App      *app.App
	Gateway  *Gateway
	Token    string
	TenantID string
}

// New serves JSON-RPC on /rpc and MCP on /mcp with bearer auth enabled.
func New(t *testing.T, token, tenantID string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	gateway := NewGateway()
	a := app.New(db, gateway, nil)

	mcpServer := mcp.NewServer(mcp.Config{
		Services:      a.Services(),
		Resolver:      a.APIKeys,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		nil,
	)

	router := transport.NewServer(transport.Options{
		Handler: a.Handler,
		Auth:    transport.AuthMiddleware(a.APIKeys),
	})
	router.Handle("/mcp", mcpHandler)
	server := httptest.NewServer(router)

	ts := &TestServer{
		Server:   server,
		DB:       db,
		App:      a,
		Gateway:  gateway,
		Token:    token,
		TenantID: tenantID,
	}

	require.NoError(t, ts.AddAPIKey(token, tenantID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

func (ts *TestServer) AddAPIKey(token, tenantID string) error {
	return ts.App.APIKeys.Add(context.Background(), token, tenantID, "test")
}

// Gateway answers each request kind with a scripted reply or error.
type Gateway struct {
	mu      sync.Mutex
	replies map[ai.Kind]string
	errs    map[ai.Kind]error
	prompts []ai.Prompt
}

func NewGateway() *Gateway {
	return &Gateway{replies: map[ai.Kind]string{}, errs: map[ai.Kind]error{}}
}

// Reply scripts the completion text for a kind.
func (g *Gateway) Reply(kind ai.Kind, text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies[kind] = text
	delete(g.errs, kind)
}

// Fail scripts an error for a kind.
func (g *Gateway) Fail(kind ai.Kind, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.errs[kind] = err
}

// Prompts returns every prompt received so far.
func (g *Gateway) Prompts() []ai.Prompt {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]ai.Prompt(nil), g.prompts...)
}

func (g *Gateway) Complete(_ context.Context, p ai.Prompt) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, p)
	if err := g.errs[p.Kind]; err != nil {
		return "", err
	}
	reply, ok := g.replies[p.Kind]
	if !ok {
		return "", &ai.GatewayError{Status: 500, Err: ai.ErrAnalysisFailed}
	}
	return reply, nil
}
