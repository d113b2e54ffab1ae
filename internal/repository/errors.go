package repository

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrInvalidInput is returned for nil or empty arguments
	ErrInvalidInput = errors.New("invalid input")
)
