package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// StripFences removes a Markdown code fence around the payload. When prose
// surrounds a fenced block, the first block is returned.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		start := strings.Index(s, "```")
		if start < 0 {
			return s
		}
		s = s[start:]
	}

	s = strings.TrimPrefix(s, "```")
	// Drop the info string (json, JSON, javascript...) up to the first newline.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "json"), "JSON")
	}
	if end := strings.Index(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

type validatingResult[T any] interface {
	*T
	Validate() error
}

// Parse strips fences, parses strict JSON and validates the result shape.
// Text that is not JSON yields a *ParseError carrying the raw text. JSON of
// the wrong shape yields ErrSchemaMismatch.
func Parse[T any, P validatingResult[T]](kind Kind, raw string) (P, error) {
	text := StripFences(raw)
	if !json.Valid([]byte(text)) {
		return nil, &ParseError{Kind: kind, Raw: raw, Err: errors.New("response is not valid JSON")}
	}

	var out T
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaMismatch, kind, err)
	}
	p := P(&out)
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaMismatch, kind, err)
	}
	return p, nil
}

// ParseBranding parses a branding completion. Unparseable text falls back to
// the default brand platform for businessName instead of failing; a JSON
// payload of the wrong shape still fails with ErrSchemaMismatch.
func ParseBranding(raw, businessName string) (*BrandingResult, error) {
	res, err := Parse[BrandingResult](KindBrandingStrategy, raw)
	var perr *ParseError
	if errors.As(err, &perr) {
		return BrandingFallback(businessName), nil
	}
	if err != nil {
		return nil, err
	}
	res.Fallback = false
	return res, nil
}
