package company

import "errors"

var (
	// ErrCompanyNotFound indicates the tenant has not onboarded yet.
	ErrCompanyNotFound = errors.New("company not found")
	// ErrAlreadyOnboarded indicates the tenant already has a profile.
	ErrAlreadyOnboarded = errors.New("company already onboarded")
	// ErrInvalidInput indicates invalid company input.
	ErrInvalidInput = errors.New("invalid company input")
)
