package storage

import "errors"

// Source errors.
var (
	// ErrUnavailable wraps transport or upstream-protocol failures that
	// survived the retry budget. A refresh cycle that sees it leaves the
	// cache and watermark untouched; it never reaches end users.
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
