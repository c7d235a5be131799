package services

import "errors"

// Sentinel errors the handlers translate into structured responses. Anything
// else wrapped with %w is a storage-level failure and surfaces as a 500.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)
