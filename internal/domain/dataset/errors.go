package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrDatasetNotFound indicates the dataset doesn't exist.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrInvalidInput indicates invalid dataset input.
	ErrInvalidInput = errors.New("invalid dataset input")
	// ErrUnsupportedFormat indicates a file extension the parser does not read.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrMalformed indicates file content the parser could not read.
	ErrMalformed = errors.New("malformed file content")
)

// ParseError reports why an upload could not be parsed.
type ParseError struct {
	FileName string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.FileName, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
