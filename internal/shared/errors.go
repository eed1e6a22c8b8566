package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Search errors
	ErrQuotaExceeded        = fmt.Errorf("quota exceeded")
	ErrExhaustedCredentials = fmt.Errorf("all credentials exhausted")
	ErrUpstream             = fmt.Errorf("upstream request failed")
	ErrTimeout              = fmt.Errorf("operation timed out")

	// Store errors
	ErrNotFound    = fmt.Errorf("not found")
	ErrPersistence = fmt.Errorf("persistence failed")

	// Input validation errors
	ErrValidation      = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
