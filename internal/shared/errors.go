package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Content errors
	ErrTransientFetch     = fmt.Errorf("transient fetch failure")
	ErrNotFound           = fmt.Errorf("content not found")
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrCacheMiss          = fmt.Errorf("cache miss")

	// Playback errors
	ErrAdapterNotReady  = fmt.Errorf("player adapter not ready")
	ErrUnplayable       = fmt.Errorf("track unplayable")
	ErrInvalidIndex     = fmt.Errorf("queue index out of range")
	ErrEmptyQueue       = fmt.Errorf("queue is empty")
	ErrTimeout          = fmt.Errorf("operation timed out")
	ErrDiscoveryTimeout = fmt.Errorf("%w: native playlist members not discovered", ErrTimeout)
	ErrLoaderFailed     = fmt.Errorf("player script failed to load")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
