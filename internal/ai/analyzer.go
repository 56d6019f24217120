package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Analyzer builds prompts, calls the gateway and normalizes the answer into
// the typed result for each request kind.
type Analyzer struct {
	gateway Gateway
	logger  *slog.Logger
}

// NewAnalyzer creates an analyzer over a gateway.
func NewAnalyzer(gateway Gateway, logger *slog.Logger) *Analyzer {
	return &Analyzer{gateway: gateway, logger: logger}
}

// Diagnose runs a diagnose request.
func (a *Analyzer) Diagnose(ctx context.Context, req Request) (*DiagnosisResult, error) {
	req.Kind = KindDiagnose
	raw, err := a.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := Parse[DiagnosisResult](req.Kind, raw)
	return finish(a.logger, req.Kind, res, err)
}

// Scenarios runs a scenarios request.
func (a *Analyzer) Scenarios(ctx context.Context, req Request) (*ScenariosResult, error) {
	req.Kind = KindScenarios
	raw, err := a.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := Parse[ScenariosResult](req.Kind, raw)
	return finish(a.logger, req.Kind, res, err)
}

// ExecutionPlan runs an execution_plan request.
func (a *Analyzer) ExecutionPlan(ctx context.Context, req Request) (*ExecutionPlanResult, error) {
	req.Kind = KindExecutionPlan
	raw, err := a.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := Parse[ExecutionPlanResult](req.Kind, raw)
	return finish(a.logger, req.Kind, res, err)
}

// AuditAnalysis runs an audit_analysis request.
func (a *Analyzer) AuditAnalysis(ctx context.Context, req Request) (*AuditAnalysisResult, error) {
	req.Kind = KindAuditAnalysis
	raw, err := a.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := Parse[AuditAnalysisResult](req.Kind, raw)
	return finish(a.logger, req.Kind, res, err)
}

// Branding runs a branding_strategy request. Gateway errors still fail;
// only an unparseable answer falls back to the default platform.
func (a *Analyzer) Branding(ctx context.Context, req Request, businessName string) (*BrandingResult, error) {
	req.Kind = KindBrandingStrategy
	raw, err := a.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := ParseBranding(raw, businessName)
	if err == nil && res.Fallback && a.logger != nil {
		a.logger.Warn("branding response unparseable, using default", "raw_bytes", len(raw))
	}
	return finish(a.logger, req.Kind, res, err)
}

// TaxLegal runs a tax_legal_analysis request.
func (a *Analyzer) TaxLegal(ctx context.Context, req Request) (*TaxLegalResult, error) {
	req.Kind = KindTaxLegal
	raw, err := a.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	res, err := Parse[TaxLegalResult](req.Kind, raw)
	return finish(a.logger, req.Kind, res, err)
}

func (a *Analyzer) complete(ctx context.Context, req Request) (string, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return "", err
	}
	if a.gateway == nil {
		return "", &GatewayError{Err: fmt.Errorf("%w: no gateway configured", ErrAnalysisFailed)}
	}

	start := time.Now()
	raw, err := a.gateway.Complete(ctx, prompt)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("analysis request failed", "kind", req.Kind, "error", err)
		}
		return "", err
	}
	if a.logger != nil {
		a.logger.Info("analysis request completed", "kind", req.Kind, "duration", time.Since(start), "prompt_bytes", len(prompt.User))
	}
	return raw, nil
}

// finish logs normalization failures and passes the result through.
func finish[T any](logger *slog.Logger, kind Kind, res T, err error) (T, error) {
	if err == nil || logger == nil {
		return res, err
	}
	var perr *ParseError
	switch {
	case errors.As(err, &perr):
		logger.Warn("ai response is not JSON", "kind", kind, "raw_bytes", len(perr.Raw))
	case errors.Is(err, ErrSchemaMismatch):
		logger.Warn("ai response has unexpected shape", "kind", kind, "error", err)
	}
	return res, err
}
