package integration

import "errors"

// Sentinel errors for the integration service layer.
var (
	ErrNotFound     = errors.New("integration not found")
	ErrInvalidInput = errors.New("invalid integration input")
	ErrNoToken      = errors.New("integration has no oauth token")
)
