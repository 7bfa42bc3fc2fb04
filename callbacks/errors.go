package callbacks

import "errors"

// Sentinel errors for the dynamic Add/Remove surface. The typed Add*/Remove*
// methods never fail.
var (
	ErrUnknownCategory    = errors.New("unknown listener category")
	ErrCapabilityMismatch = errors.New("listener does not implement category capability")
	ErrNilListener        = errors.New("listener is nil")
)
