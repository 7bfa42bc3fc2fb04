package host

import "errors"

var (
	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid host config")

	// ErrShutdown is returned by Run once Shutdown has been called.
	ErrShutdown = errors.New("host is shut down")
)
