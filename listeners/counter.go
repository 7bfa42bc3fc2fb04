package listeners

import (
	"sync/atomic"

	"github.com/tailored-agentic-units/rtcallbacks/callbacks"
	"github.com/tailored-agentic-units/rtcallbacks/vm"
)

// Counted event names, as keys of Counter.Counts.
const (
	CountThreadStart   = "thread-start"
	CountThreadDeath   = "thread-death"
	CountClassBegin    = "class-begin"
	CountClassEnd      = "class-end"
	CountPreDefine     = "class-predefine"
	CountClassLoad     = "class-load"
	CountClassPrepare  = "class-prepare"
	CountSigQuit       = "sigquit"
	CountPhase         = "phase"
	CountNative        = "native-register"
	CountLocking       = "monitor-locking"
	CountLocked        = "monitor-locked"
	CountWaitStart     = "wait-start"
	CountWaitFinished  = "wait-finished"
	CountParkStart     = "park-start"
	CountParkFinished  = "park-finished"
	CountLocalsQuery   = "locals-query"
	CountDdmChunk      = "ddm-chunk"
	CountDebugStart    = "debugger-start"
	CountDebugStop     = "debugger-stop"
	CountDebugQuery    = "debugger-query"
	CountReflectVisits = "reflective-visit"
)

var counterNames = [...]string{
	CountThreadStart, CountThreadDeath,
	CountClassBegin, CountClassEnd, CountPreDefine, CountClassLoad, CountClassPrepare,
	CountSigQuit, CountPhase, CountNative,
	CountLocking, CountLocked, CountWaitStart, CountWaitFinished,
	CountParkStart, CountParkFinished,
	CountLocalsQuery, CountDdmChunk,
	CountDebugStart, CountDebugStop, CountDebugQuery,
	CountReflectVisits,
}

const (
	idxThreadStart = iota
	idxThreadDeath
	idxClassBegin
	idxClassEnd
	idxPreDefine
	idxClassLoad
	idxClassPrepare
	idxSigQuit
	idxPhase
	idxNative
	idxLocking
	idxLocked
	idxWaitStart
	idxWaitFinished
	idxParkStart
	idxParkFinished
	idxLocalsQuery
	idxDdmChunk
	idxDebugStart
	idxDebugStop
	idxDebugQuery
	idxReflectVisits
	numCounters
)

// Counter tallies every callback it receives. It is safe for concurrent
// dispatch and, like Tracer, never alters chained values.
type Counter struct {
	counts [numCounters]atomic.Uint64
}

// NewCounter creates a zeroed Counter.
func NewCounter() *Counter {
	return &Counter{}
}

// Count returns the tally for one event name, or zero for unknown names.
func (c *Counter) Count(name string) uint64 {
	for i, n := range counterNames {
		if n == name {
			return c.counts[i].Load()
		}
	}
	return 0
}

// Counts returns every tally keyed by event name.
func (c *Counter) Counts() map[string]uint64 {
	out := make(map[string]uint64, numCounters)
	for i, n := range counterNames {
		out[n] = c.counts[i].Load()
	}
	return out
}

// Total returns the sum of all tallies.
func (c *Counter) Total() uint64 {
	var total uint64
	for i := range c.counts {
		total += c.counts[i].Load()
	}
	return total
}

func (c *Counter) inc(i int) { c.counts[i].Add(1) }

func (c *Counter) ThreadStart(*vm.Thread) { c.inc(idxThreadStart) }
func (c *Counter) ThreadDeath(*vm.Thread) { c.inc(idxThreadDeath) }

func (c *Counter) BeginDefineClass() { c.inc(idxClassBegin) }
func (c *Counter) EndDefineClass()   { c.inc(idxClassEnd) }

func (c *Counter) ClassPreDefine(_ string, _ *vm.Class, _ *vm.ClassLoader, current callbacks.Definition) callbacks.Definition {
	c.inc(idxPreDefine)
	return current
}

func (c *Counter) ClassLoad(*vm.Class)              { c.inc(idxClassLoad) }
func (c *Counter) ClassPrepare(_, _ *vm.Class)      { c.inc(idxClassPrepare) }
func (c *Counter) SigQuit()                         { c.inc(idxSigQuit) }
func (c *Counter) NextRuntimePhase(vm.RuntimePhase) { c.inc(idxPhase) }

func (c *Counter) RegisterNativeMethod(*vm.Method, vm.NativeCode) vm.NativeCode {
	c.inc(idxNative)
	return 0
}

func (c *Counter) MonitorContendedLocking(*vm.Monitor)   { c.inc(idxLocking) }
func (c *Counter) MonitorContendedLocked(*vm.Monitor)    { c.inc(idxLocked) }
func (c *Counter) ObjectWaitStart(*vm.Object, int64)     { c.inc(idxWaitStart) }
func (c *Counter) MonitorWaitFinished(*vm.Monitor, bool) { c.inc(idxWaitFinished) }
func (c *Counter) ThreadParkStart(bool, int64)           { c.inc(idxParkStart) }
func (c *Counter) ThreadParkFinished(bool)               { c.inc(idxParkFinished) }

func (c *Counter) HaveLocalsChanged() bool {
	c.inc(idxLocalsQuery)
	return false
}

func (c *Counter) DdmPublishChunk(uint32, []byte) { c.inc(idxDdmChunk) }
func (c *Counter) StartDebugger()                 { c.inc(idxDebugStart) }
func (c *Counter) StopDebugger()                  { c.inc(idxDebugStop) }

func (c *Counter) IsDebuggerConfigured() bool {
	c.inc(idxDebugQuery)
	return false
}

func (c *Counter) VisitReflectiveTargets(vm.ReflectiveValueVisitor) { c.inc(idxReflectVisits) }
