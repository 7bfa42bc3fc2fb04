package host

import "github.com/tailored-agentic-units/rtcallbacks/observability"

// Host event types emitted while driving the runtime lifecycle.
const (
	EventRunStart    observability.EventType = "host.run.start"
	EventRunComplete observability.EventType = "host.run.complete"
	EventPhase       observability.EventType = "host.phase"
	EventThreadDone  observability.EventType = "host.thread.done"
	EventShutdown    observability.EventType = "host.shutdown"
	EventError       observability.EventType = "host.error"
)
