//go:build !rtcallbacks_debug

package guard

// DebugChecks enables usage-contract assertions. Build with the
// rtcallbacks_debug tag to turn them on.
const DebugChecks = false
