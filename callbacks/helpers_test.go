package callbacks_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/tailored-agentic-units/rtcallbacks/callbacks"
	"github.com/tailored-agentic-units/rtcallbacks/observability"
	"github.com/tailored-agentic-units/rtcallbacks/vm"
)

// journal records listener calls in the order they happen.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) record(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) calls() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

func (j *journal) count(entry string) int {
	n := 0
	for _, e := range j.calls() {
		if e == entry {
			n++
		}
	}
	return n
}

// recorder implements every capability interface and records each call.
type recorder struct {
	name string
	log  *journal

	localsChanged bool
	configured    bool
	rewrite       func(current callbacks.Definition) callbacks.Definition
	native        vm.NativeCode
	seen          []callbacks.Definition
	seenNative    []vm.NativeCode
}

func newRecorder(name string, log *journal) *recorder {
	return &recorder{name: name, log: log}
}

func (p *recorder) ThreadStart(t *vm.Thread) { p.log.record("%s:thread-start:%s", p.name, t.Name) }
func (p *recorder) ThreadDeath(t *vm.Thread) { p.log.record("%s:thread-death:%s", p.name, t.Name) }

func (p *recorder) BeginDefineClass() { p.log.record("%s:begin-define", p.name) }
func (p *recorder) EndDefineClass()   { p.log.record("%s:end-define", p.name) }

func (p *recorder) ClassPreDefine(descriptor string, temp *vm.Class, loader *vm.ClassLoader, current callbacks.Definition) callbacks.Definition {
	p.log.record("%s:pre-define:%s", p.name, descriptor)
	p.seen = append(p.seen, current)
	if p.rewrite == nil {
		return current
	}
	return p.rewrite(current)
}

func (p *recorder) ClassLoad(klass *vm.Class) { p.log.record("%s:class-load:%s", p.name, klass.Descriptor) }
func (p *recorder) ClassPrepare(temp, klass *vm.Class) {
	p.log.record("%s:class-prepare:%s", p.name, klass.Descriptor)
}

func (p *recorder) SigQuit() { p.log.record("%s:sigquit", p.name) }

func (p *recorder) NextRuntimePhase(phase vm.RuntimePhase) {
	p.log.record("%s:phase:%s", p.name, phase)
}

func (p *recorder) RegisterNativeMethod(method *vm.Method, cur vm.NativeCode) vm.NativeCode {
	p.log.record("%s:native:%s", p.name, method.Name)
	p.seenNative = append(p.seenNative, cur)
	return p.native
}

func (p *recorder) MonitorContendedLocking(m *vm.Monitor) { p.log.record("%s:contended-locking", p.name) }
func (p *recorder) MonitorContendedLocked(m *vm.Monitor)  { p.log.record("%s:contended-locked", p.name) }
func (p *recorder) ObjectWaitStart(obj *vm.Object, timeoutMs int64) {
	p.log.record("%s:wait-start:%d", p.name, timeoutMs)
}
func (p *recorder) MonitorWaitFinished(m *vm.Monitor, timedOut bool) {
	p.log.record("%s:wait-finished:%t", p.name, timedOut)
}

func (p *recorder) ThreadParkStart(isAbsolute bool, timeout int64) {
	p.log.record("%s:park-start:%t:%d", p.name, isAbsolute, timeout)
}
func (p *recorder) ThreadParkFinished(timedOut bool) {
	p.log.record("%s:park-finished:%t", p.name, timedOut)
}

func (p *recorder) HaveLocalsChanged() bool {
	p.log.record("%s:locals-changed", p.name)
	return p.localsChanged
}

func (p *recorder) DdmPublishChunk(chunkType uint32, data []byte) {
	p.log.record("%s:ddm:%d:%s", p.name, chunkType, data)
}

func (p *recorder) StartDebugger() { p.log.record("%s:start-debugger", p.name) }
func (p *recorder) StopDebugger()  { p.log.record("%s:stop-debugger", p.name) }
func (p *recorder) IsDebuggerConfigured() bool {
	p.log.record("%s:debugger-configured", p.name)
	return p.configured
}

func (p *recorder) VisitReflectiveTargets(visitor vm.ReflectiveValueVisitor) {
	p.log.record("%s:visit-reflective", p.name)
}

// parkOnly implements a single capability.
type parkOnly struct{ log *journal }

func (p *parkOnly) ThreadParkStart(isAbsolute bool, timeout int64) { p.log.record("park-only:start") }
func (p *parkOnly) ThreadParkFinished(timedOut bool)              { p.log.record("park-only:finished") }

// blocker parks inside ThreadStart until released.
type blocker struct {
	entered chan struct{}
	release chan struct{}
}

func newBlocker() *blocker {
	return &blocker{entered: make(chan struct{}), release: make(chan struct{})}
}

func (b *blocker) ThreadStart(t *vm.Thread) {
	close(b.entered)
	<-b.release
}

func (b *blocker) ThreadDeath(t *vm.Thread) {}

type captureObserver struct {
	mu     sync.Mutex
	events []observability.Event
}

func (c *captureObserver) OnEvent(ctx context.Context, event observability.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
}

func (c *captureObserver) types() []observability.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]observability.EventType, len(c.events))
	for i, e := range c.events {
		out[i] = e.Type
	}
	return out
}
