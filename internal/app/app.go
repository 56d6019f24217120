// Package app wires the storage, domain services and workflow engine into
// the handler served over MCP and JSON-RPC.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rpggio/atlas/internal/ai"
	"github.com/rpggio/atlas/internal/config"
	"github.com/rpggio/atlas/internal/domain/activity"
	"github.com/rpggio/atlas/internal/domain/company"
	"github.com/rpggio/atlas/internal/domain/dataset"
	"github.com/rpggio/atlas/internal/domain/finding"
	"github.com/rpggio/atlas/internal/domain/milestone"
	"github.com/rpggio/atlas/internal/domain/session"
	"github.com/rpggio/atlas/internal/mcp"
	"github.com/rpggio/atlas/internal/report"
	"github.com/rpggio/atlas/internal/sqlite"
	"github.com/rpggio/atlas/internal/workflow"
)

// App holds the wired services.
type App struct {
	Companies  *company.Service
	Datasets   *dataset.Service
	Sessions   *session.Service
	Findings   *finding.Service
	Milestones *milestone.Service
	Activity   *activity.Service
	Engine     *workflow.Engine
	Reports    *report.Service
	APIKeys    *sqlite.APIKeyRepository
	Handler    *mcp.Handler
}

// New wires every service on top of db. The gateway backs all AI steps.
func New(db *sqlite.DB, gateway ai.Gateway, logger *slog.Logger) *App {
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)

	a := &App{
		Companies:  company.NewService(sqlite.NewCompanyRepository(db), logger),
		Datasets:   dataset.NewService(sqlite.NewDatasetRepository(db), activitySvc, logger),
		Sessions:   session.NewService(sqlite.NewSessionRepository(db), activitySvc, logger),
		Findings:   finding.NewService(sqlite.NewFindingRepository(db), activitySvc, logger),
		Milestones: milestone.NewService(sqlite.NewMilestoneRepository(db), activitySvc, logger),
		Activity:   activitySvc,
		APIKeys:    sqlite.NewAPIKeyRepository(db),
	}
	a.Engine = workflow.NewEngine(workflow.Config{
		Sessions:   a.Sessions,
		Companies:  a.Companies,
		Datasets:   a.Datasets,
		Findings:   a.Findings,
		Milestones: a.Milestones,
		Analyzer:   ai.NewAnalyzer(gateway, logger),
		Activities: activitySvc,
		Logger:     logger,
	})
	a.Reports = report.NewService(a.Sessions, a.Companies, a.Findings, a.Datasets, activitySvc, logger)
	a.Handler = mcp.NewHandler(a.Services())
	return a
}

// Services exposes the app to the MCP server.
func (a *App) Services() mcp.Services {
	return mcp.Services{
		Companies:  a.Companies,
		Datasets:   a.Datasets,
		Sessions:   a.Sessions,
		Workflow:   a.Engine,
		Findings:   a.Findings,
		Milestones: a.Milestones,
		Activity:   a.Activity,
		Reports:    a.Reports,
	}
}

// NewGateway builds the configured AI backend.
func NewGateway(ctx context.Context, cfg config.GatewayConfig, logger *slog.Logger) (ai.Gateway, error) {
	gwCfg := ai.HTTPGatewayConfig{
		BaseURL:     cfg.URL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}
	switch cfg.Provider {
	case "", "http":
		return ai.NewHTTPGateway(gwCfg, logger), nil
	case "gemini":
		gw, err := ai.NewGenAIGateway(ctx, gwCfg, logger)
		if err != nil {
			return nil, err
		}
		return gw, nil
	default:
		return nil, fmt.Errorf("unknown gateway provider %q", cfg.Provider)
	}
}
