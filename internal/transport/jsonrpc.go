package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
	// ErrApplication carries mapped domain errors; data holds the code.
	ErrApplication = -32000
)

// maxRequestBytes bounds a single /rpc body. Dataset uploads arrive base64
// encoded inside params, so this is sized for spreadsheets, not commands.
const maxRequestBytes = 32 << 20

var (
	// ErrMalformedJSON means the body was not valid JSON.
	ErrMalformedJSON = errors.New("parse error")
	// ErrBadEnvelope means the body was JSON but not a JSON-RPC 2.0 call.
	ErrBadEnvelope = errors.New("invalid request")
	// ErrPositionalParams means params was an array. Every ATLAS method
	// takes named arguments.
	ErrPositionalParams = errors.New("params must be an object")
)

// Request is a JSON-RPC 2.0 call. Method names match the MCP tool names.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response is a JSON-RPC 2.0 reply carrying either a result or an error.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error is the JSON-RPC error object. Data holds the APIError fields for
// application errors.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ParseRequest decodes one JSON-RPC call. The returned error wraps one of
// ErrMalformedJSON, ErrBadEnvelope or ErrPositionalParams; see parseErrorCode.
func ParseRequest(body io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(io.LimitReader(body, maxRequestBytes)).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Request{}, fmt.Errorf("%w: %v", ErrBadEnvelope, err)
		}
		return Request{}, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return Request{}, ErrBadEnvelope
	}
	if trimmed := bytes.TrimSpace(req.Params); len(trimmed) > 0 && trimmed[0] == '[' {
		return req, ErrPositionalParams
	}
	return req, nil
}

// parseErrorCode maps a ParseRequest error to its JSON-RPC code.
func parseErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrMalformedJSON):
		return ErrParseCode
	case errors.Is(err, ErrPositionalParams):
		return ErrInvalidParams
	default:
		return ErrInvalidReq
	}
}

// WriteResult writes a JSON-RPC success response.
func WriteResult(w http.ResponseWriter, id any, result any) {
	writeJSON(w, http.StatusOK, Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	})
}

// WriteError writes a JSON-RPC error response. Errors are reported in the
// body with HTTP 200, as JSON-RPC over HTTP expects.
func WriteError(w http.ResponseWriter, id any, code int, message string, data any) {
	writeJSON(w, http.StatusOK, Response{
		JSONRPC: "2.0",
		Error:   &Error{Code: code, Message: message, Data: data},
		ID:      id,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
