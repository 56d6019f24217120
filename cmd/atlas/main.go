package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/atlas/internal/app"
	"github.com/rpggio/atlas/internal/config"
	"github.com/rpggio/atlas/internal/mcp"
	"github.com/rpggio/atlas/internal/sqlite"
	"github.com/rpggio/atlas/internal/transport"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "atlas",
	Short: "AI-assisted advisory workflows over MCP and JSON-RPC",
	Long: `atlas runs consulting, audit, branding and tax/legal workflows for
one company per tenant. With no subcommand it serves, like "atlas serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP (stdio or HTTP) and the JSON-RPC API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "schema applied to %s\n", cfg.DB.Path)
		return nil
	},
}

func init() {
	rootCmd.Version = version
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(apikeyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport.Mode == "stdio" {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, file, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer file.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	db, err := openDB(cfg)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway, err := app.NewGateway(ctx, cfg.Gateway, logger)
	if err != nil {
		logger.Error("failed to create AI gateway", "error", err)
		return err
	}
	if cfg.Gateway.APIKey == "" {
		logger.Warn("no AI gateway key configured; analysis steps will fail", "provider", cfg.Gateway.Provider)
	}

	a := app.New(db, gateway, logger)
	mcpServer := mcp.NewServer(mcp.Config{
		Services:      a.Services(),
		Resolver:      a.APIKeys,
		AuthEnabled:   cfg.Auth.Enabled,
		TransportMode: cfg.Transport.Mode,
		DefaultTenant: cfg.Auth.DefaultTenant,
		Version:       version,
		Logger:        logger,
	})

	if cfg.Transport.Mode == "stdio" {
		return runStdioMode(ctx, logger, mcpServer)
	}
	return runHTTPMode(ctx, logger, cfg, a, mcpServer)
}

func runStdioMode(ctx context.Context, logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport", "auth", "disabled")

	// Run blocks until stdin closes or context is canceled
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("stdio server error", "error", err)
		return err
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(ctx context.Context, logger *slog.Logger, cfg config.Config, a *app.App, mcpServer *sdkmcp.Server) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	opts := transport.Options{
		Handler:       a.Handler,
		DefaultTenant: cfg.Auth.DefaultTenant,
		Logger:        logger,
	}
	if cfg.Auth.Enabled {
		opts.Auth = transport.AuthMiddleware(a.APIKeys)
	}
	router := transport.NewServer(opts)
	// The MCP server authenticates its own requests.
	router.Handle("/mcp", mcpHandler)
	router.Handle("/mcp/*", mcpHandler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr, "auth", cfg.Auth.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}

// openDB opens the configured database and applies the schema.
func openDB(cfg config.Config) (*sqlite.DB, error) {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
