package callbacks

import (
	"context"
	"log/slog"

	"github.com/tailored-agentic-units/rtcallbacks/observability"
)

// AddDdmListener registers l for DDM chunk publication.
func (r *Registry) AddDdmListener(l DdmListener) {
	addListener(r, &r.ddms, CategoryDdm, l)
}

// RemoveDdmListener removes the first occurrence of l.
func (r *Registry) RemoveDdmListener(l DdmListener) {
	removeListener(r, &r.ddms, CategoryDdm, l)
}

// DdmPublishChunk hands a DDM chunk to every listener. Listeners must not
// retain data after returning.
func (r *Registry) DdmPublishChunk(chunkType uint32, data []byte) {
	fanOut(r, &r.ddms, CategoryDdm, func(l DdmListener) {
		l.DdmPublishChunk(chunkType, data)
	})
}

// AddDebuggerControlListener registers l for debugger start, stop and configuration queries.
func (r *Registry) AddDebuggerControlListener(l DebuggerControlListener) {
	addListener(r, &r.debuggers, CategoryDebuggerControl, l)
}

// RemoveDebuggerControlListener removes the first occurrence of l.
func (r *Registry) RemoveDebuggerControlListener(l DebuggerControlListener) {
	removeListener(r, &r.debuggers, CategoryDebuggerControl, l)
}

// StartDebugger tells every debugger-control listener to start.
func (r *Registry) StartDebugger() {
	fanOut(r, &r.debuggers, CategoryDebuggerControl, func(l DebuggerControlListener) {
		l.StartDebugger()
	})
}

// IsDebuggerConfigured reports whether any debugger-control listener is
// configured, stopping at the first that is.
func (r *Registry) IsDebuggerConfigured() bool {
	return anyTrue(r, &r.debuggers, CategoryDebuggerControl, func(l DebuggerControlListener) bool {
		return l.IsDebuggerConfigured()
	})
}

// StopDebuggerUnchecked tells debugger-control listeners to shut down
// without acquiring the guard. It is meant for process teardown, when the
// guard may no longer be acquirable.
//
// It iterates the last list published by Add/Remove, so it never observes a
// half-applied mutation; but a registration racing with it may or may not be
// seen, and a listener removed concurrently may still be called. Callers
// accept that race.
func (r *Registry) StopDebuggerUnchecked() {
	r.stats.uncheckedStops.Add(1)

	var n int
	r.guard.Unchecked(func() {
		listeners := r.debuggers.unchecked()
		n = len(listeners)
		for _, l := range listeners {
			l.StopDebugger()
		}
	})

	r.logger.Debug("debugger stopped without guard",
		slog.String("registry", r.id),
		slog.Int("listeners", n),
	)
	observability.Emit(context.Background(), r.observer, EventStopUnchecked, observability.LevelInfo, "callbacks.Registry",
		map[string]any{"listeners": n})
}
