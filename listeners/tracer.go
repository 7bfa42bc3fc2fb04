// Package listeners provides stock callback listeners: a Tracer that
// forwards runtime events to an observability.Observer, a Counter that tallies
// them, and a Flag that answers the short-circuit queries with a fixed value.
package listeners

import (
	"context"

	"github.com/tailored-agentic-units/rtcallbacks/callbacks"
	"github.com/tailored-agentic-units/rtcallbacks/observability"
	"github.com/tailored-agentic-units/rtcallbacks/vm"
)

// Tracer event types.
const (
	EventThreadStart      observability.EventType = "listeners.thread.start"
	EventThreadDeath      observability.EventType = "listeners.thread.death"
	EventClassBegin       observability.EventType = "listeners.class.begin"
	EventClassEnd         observability.EventType = "listeners.class.end"
	EventClassPreDefine   observability.EventType = "listeners.class.predefine"
	EventClassLoad        observability.EventType = "listeners.class.load"
	EventClassPrepare     observability.EventType = "listeners.class.prepare"
	EventSigQuit          observability.EventType = "listeners.sigquit"
	EventPhase            observability.EventType = "listeners.phase"
	EventNativeRegistered observability.EventType = "listeners.method.native"
	EventMonitorLocking   observability.EventType = "listeners.monitor.locking"
	EventMonitorLocked    observability.EventType = "listeners.monitor.locked"
	EventWaitStart        observability.EventType = "listeners.monitor.wait_start"
	EventWaitFinished     observability.EventType = "listeners.monitor.wait_finished"
	EventParkStart        observability.EventType = "listeners.park.start"
	EventParkFinished     observability.EventType = "listeners.park.finished"
	EventLocalsQueried    observability.EventType = "listeners.inspection.locals"
	EventDdmChunk         observability.EventType = "listeners.ddm.chunk"
	EventDebuggerStart    observability.EventType = "listeners.debugger.start"
	EventDebuggerStop     observability.EventType = "listeners.debugger.stop"
	EventDebuggerQueried  observability.EventType = "listeners.debugger.configured"
	EventReflectiveVisit  observability.EventType = "listeners.reflective.visit"
)

const tracerSource = "listeners.Tracer"

// Tracer implements every capability interface and reports each call as an
// event. It never rewrites definitions or native bindings and answers false
// to the short-circuit queries.
type Tracer struct {
	observer observability.Observer
	level    observability.Level
}

// NewTracer creates a Tracer emitting at LevelVerbose. A nil observer
// discards events.
func NewTracer(observer observability.Observer) *Tracer {
	if observer == nil {
		observer = observability.NoOpObserver{}
	}
	return &Tracer{observer: observer, level: observability.LevelVerbose}
}

// WithLevel returns t after setting the level events are emitted at.
func (t *Tracer) WithLevel(level observability.Level) *Tracer {
	t.level = level
	return t
}

func (t *Tracer) emit(typ observability.EventType, data map[string]any) {
	observability.Emit(context.Background(), t.observer, typ, t.level, tracerSource, data)
}

func (t *Tracer) ThreadStart(thread *vm.Thread) {
	t.emit(EventThreadStart, threadData(thread))
}

func (t *Tracer) ThreadDeath(thread *vm.Thread) {
	t.emit(EventThreadDeath, threadData(thread))
}

func (t *Tracer) BeginDefineClass() { t.emit(EventClassBegin, nil) }
func (t *Tracer) EndDefineClass()   { t.emit(EventClassEnd, nil) }

func (t *Tracer) ClassPreDefine(descriptor string, temp *vm.Class, loader *vm.ClassLoader, current callbacks.Definition) callbacks.Definition {
	data := map[string]any{"descriptor": descriptor, "loader": loaderName(loader)}
	if current.Dex != nil {
		data["dex"] = current.Dex.Location
	}
	t.emit(EventClassPreDefine, data)
	return current
}

func (t *Tracer) ClassLoad(klass *vm.Class) {
	t.emit(EventClassLoad, map[string]any{"descriptor": descriptor(klass)})
}

func (t *Tracer) ClassPrepare(temp, klass *vm.Class) {
	t.emit(EventClassPrepare, map[string]any{"descriptor": descriptor(klass)})
}

func (t *Tracer) SigQuit() { t.emit(EventSigQuit, nil) }

func (t *Tracer) NextRuntimePhase(phase vm.RuntimePhase) {
	t.emit(EventPhase, map[string]any{"phase": phase.String()})
}

func (t *Tracer) RegisterNativeMethod(method *vm.Method, cur vm.NativeCode) vm.NativeCode {
	t.emit(EventNativeRegistered, map[string]any{"method": method.Name, "code": uintptr(cur)})
	return 0
}

func (t *Tracer) MonitorContendedLocking(m *vm.Monitor) { t.emit(EventMonitorLocking, monitorData(m)) }
func (t *Tracer) MonitorContendedLocked(m *vm.Monitor)  { t.emit(EventMonitorLocked, monitorData(m)) }

func (t *Tracer) ObjectWaitStart(obj *vm.Object, timeoutMs int64) {
	t.emit(EventWaitStart, map[string]any{"timeout_ms": timeoutMs})
}

func (t *Tracer) MonitorWaitFinished(m *vm.Monitor, timedOut bool) {
	data := monitorData(m)
	data["timed_out"] = timedOut
	t.emit(EventWaitFinished, data)
}

func (t *Tracer) ThreadParkStart(isAbsolute bool, timeout int64) {
	t.emit(EventParkStart, map[string]any{"absolute": isAbsolute, "timeout": timeout})
}

func (t *Tracer) ThreadParkFinished(timedOut bool) {
	t.emit(EventParkFinished, map[string]any{"timed_out": timedOut})
}

func (t *Tracer) HaveLocalsChanged() bool {
	t.emit(EventLocalsQueried, nil)
	return false
}

func (t *Tracer) DdmPublishChunk(chunkType uint32, data []byte) {
	t.emit(EventDdmChunk, map[string]any{"type": chunkType, "bytes": len(data)})
}

func (t *Tracer) StartDebugger() { t.emit(EventDebuggerStart, nil) }
func (t *Tracer) StopDebugger()  { t.emit(EventDebuggerStop, nil) }

func (t *Tracer) IsDebuggerConfigured() bool {
	t.emit(EventDebuggerQueried, nil)
	return false
}

func (t *Tracer) VisitReflectiveTargets(visitor vm.ReflectiveValueVisitor) {
	t.emit(EventReflectiveVisit, nil)
}

func threadData(thread *vm.Thread) map[string]any {
	if thread == nil {
		return map[string]any{}
	}
	return map[string]any{"thread": thread.Name, "thread_id": thread.ID, "daemon": thread.Daemon}
}

func monitorData(m *vm.Monitor) map[string]any {
	data := map[string]any{}
	if m != nil && m.Owner != nil {
		data["owner"] = m.Owner.Name
	}
	return data
}

func descriptor(klass *vm.Class) string {
	if klass == nil {
		return ""
	}
	return klass.Descriptor
}

func loaderName(loader *vm.ClassLoader) string {
	if loader == nil {
		return "boot"
	}
	return loader.Name
}
