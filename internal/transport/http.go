package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RPCHandler handles method dispatch.
type RPCHandler interface {
	Handle(ctx context.Context, tenantID, userID, method string, params json.RawMessage) (any, error)
}

// ReportExporter renders a session report and returns its content type.
type ReportExporter interface {
	ExportReport(ctx context.Context, tenantID, sessionID, format string, w io.Writer) (string, error)
}

// Options configures the HTTP router.
type Options struct {
	Handler ReportHandler
	// Auth guards every route except /health. Nil disables auth and all
	// requests run as DefaultTenant.
	Auth          func(http.Handler) http.Handler
	DefaultTenant string
	Logger        *slog.Logger
}

// ReportHandler combines JSON-RPC dispatch with report downloads.
type ReportHandler interface {
	RPCHandler
	ReportExporter
}

// Server wires HTTP handlers.
type Server struct {
	handler ReportHandler
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(opts Options) *chi.Mux {
	r := chi.NewRouter()
	srv := &Server{handler: opts.Handler, logger: opts.Logger}

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		} else {
			r.Use(StaticTenant(opts.DefaultTenant))
		}
		r.Use(UserMiddleware)

		r.Post("/rpc", srv.handleRPC)
		r.Get("/sessions/{id}/report.pdf", srv.handleReport("pdf"))
		r.Get("/sessions/{id}/report.xlsx", srv.handleReport("xlsx"))
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		// The id is only echoed once the envelope itself decoded.
		WriteError(w, req.ID, parseErrorCode(err), err.Error(), nil)
		return
	}

	tenantID, ok := TenantFromContext(r.Context())
	if !ok || tenantID == "" {
		http.Error(w, "missing tenant", http.StatusUnauthorized)
		return
	}
	userID, _ := UserFromContext(r.Context())

	result, err := s.handler.Handle(r.Context(), tenantID, userID, req.Method, req.Params)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		code, message, data := s.rpcError(err, req.Method)
		WriteError(w, req.ID, code, message, data)
		return
	}

	WriteResult(w, req.ID, result)
}

func (s *Server) handleReport(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := TenantFromContext(r.Context())
		if !ok || tenantID == "" {
			http.Error(w, "missing tenant", http.StatusUnauthorized)
			return
		}
		sessionID := chi.URLParam(r, "id")

		var buf bytes.Buffer
		contentType, err := s.handler.ExportReport(r.Context(), tenantID, sessionID, format, &buf)
		if err != nil {
			status, message := s.httpError(err, "export_report")
			http.Error(w, message, status)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "audit-"+sessionID+"."+format))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	}
}

// codedError is implemented by mapped application errors.
type codedError interface {
	error
	CodeValue() string
	MessageValue() string
	DetailsValue() any
	RecoveryHintValue() string
}

// ErrorData is the data member of application error responses.
type ErrorData struct {
	Code         string `json:"code"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (s *Server) rpcError(err error, method string) (int, string, any) {
	var coded codedError
	if !errors.As(err, &coded) {
		s.logError(err, method)
		return ErrInternal, "internal error", nil
	}
	data := ErrorData{Code: coded.CodeValue(), Details: coded.DetailsValue(), RecoveryHint: coded.RecoveryHintValue()}
	switch coded.CodeValue() {
	case "METHOD_NOT_FOUND":
		return ErrMethodNotFound, coded.MessageValue(), data
	case "VALIDATION_FAILED":
		return ErrInvalidParams, coded.MessageValue(), data
	default:
		return ErrApplication, coded.MessageValue(), data
	}
}

func (s *Server) httpError(err error, method string) (int, string) {
	var coded codedError
	if !errors.As(err, &coded) {
		s.logError(err, method)
		return http.StatusInternalServerError, "internal error"
	}
	switch coded.CodeValue() {
	case "SESSION_NOT_FOUND", "NOT_FOUND":
		return http.StatusNotFound, coded.MessageValue()
	case "REPORT_UNAVAILABLE":
		return http.StatusConflict, coded.MessageValue()
	case "VALIDATION_FAILED":
		return http.StatusBadRequest, coded.MessageValue()
	case "UNAUTHENTICATED":
		return http.StatusUnauthorized, coded.MessageValue()
	default:
		return http.StatusInternalServerError, coded.MessageValue()
	}
}

func (s *Server) logError(err error, method string) {
	if s.logger != nil {
		s.logger.Error("request failed", "method", method, "error", err)
	}
}
