package repository

import "errors"

var (
	// ErrNotFound is returned when a requested key or entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a backend rejects its arguments
	ErrInvalidInput = errors.New("invalid input")
)
