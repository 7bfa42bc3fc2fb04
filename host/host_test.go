package host_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/rtcallbacks/callbacks"
	"github.com/tailored-agentic-units/rtcallbacks/host"
	"github.com/tailored-agentic-units/rtcallbacks/listeners"
	"github.com/tailored-agentic-units/rtcallbacks/observability"
	"github.com/tailored-agentic-units/rtcallbacks/vm"
)

// --- Test helpers ---

type recordingObserver struct {
	mu     sync.Mutex
	events []observability.Event
}

func (o *recordingObserver) OnEvent(ctx context.Context, e observability.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *recordingObserver) count(typ observability.EventType) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, e := range o.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (o *recordingObserver) phases() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []string
	for _, e := range o.events {
		if e.Type == host.EventPhase {
			out = append(out, e.Data["phase"].(string))
		}
	}
	return out
}

// redefiner substitutes every class definition and rebinds every native.
type redefiner struct {
	dex *vm.DexFile
}

func (r *redefiner) BeginDefineClass() {}
func (r *redefiner) EndDefineClass()   {}
func (r *redefiner) ClassPreDefine(descriptor string, temp *vm.Class, loader *vm.ClassLoader, current callbacks.Definition) callbacks.Definition {
	return callbacks.Definition{Dex: r.dex, Def: &vm.ClassDef{Descriptor: descriptor}}
}
func (r *redefiner) ClassLoad(klass *vm.Class)          {}
func (r *redefiner) ClassPrepare(temp, klass *vm.Class) {}

func (r *redefiner) RegisterNativeMethod(method *vm.Method, cur vm.NativeCode) vm.NativeCode {
	return cur + 1
}

// countingLock wraps a sync.RWMutex and counts exclusive acquisitions.
type countingLock struct {
	sync.RWMutex
	exclusive atomic.Int32
}

func (l *countingLock) Lock() {
	l.exclusive.Add(1)
	l.RWMutex.Lock()
}

func newTestConfig(threads, classes int) *host.Config {
	cfg := host.DefaultConfig()
	cfg.Observer = "noop"
	cfg.Threads = threads
	cfg.ClassesPerThread = classes
	return &cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

// --- Tests ---

func TestNew_InvalidConfig(t *testing.T) {
	cfg := newTestConfig(1, 1)
	cfg.Observer = "missing"

	_, err := host.New(cfg)
	assert.ErrorIs(t, err, host.ErrInvalidConfig)
}

func TestRun_DrivesFullLifecycle(t *testing.T) {
	obs := &recordingObserver{}
	h, err := host.New(newTestConfig(3, 4), host.WithObserver(obs), host.WithLogger(quietLogger()))
	require.NoError(t, err)

	counter := listeners.NewCounter()
	h.Registry().AddAll(counter)

	result, err := h.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Threads)
	assert.Equal(t, 12, result.ClassesDefined)
	assert.Zero(t, result.NativeRebinds)
	assert.Zero(t, result.LocalsChanged)
	assert.False(t, result.DebuggerConfigured)

	assert.Equal(t, uint64(3), counter.Count(listeners.CountThreadStart))
	assert.Equal(t, uint64(3), counter.Count(listeners.CountThreadDeath))
	assert.Equal(t, uint64(12), counter.Count(listeners.CountPreDefine))
	assert.Equal(t, uint64(12), counter.Count(listeners.CountClassBegin))
	assert.Equal(t, uint64(12), counter.Count(listeners.CountClassEnd))
	assert.Equal(t, uint64(12), counter.Count(listeners.CountNative))
	assert.Equal(t, uint64(12), counter.Count(listeners.CountParkStart))
	assert.Equal(t, uint64(12), counter.Count(listeners.CountLocalsQuery))
	assert.Equal(t, uint64(3), counter.Count(listeners.CountPhase))
	assert.Equal(t, uint64(1), counter.Count(listeners.CountSigQuit))
	assert.Equal(t, uint64(1), counter.Count(listeners.CountDdmChunk))
	assert.Equal(t, uint64(1), counter.Count(listeners.CountReflectVisits))
	assert.Zero(t, counter.Count(listeners.CountDebugStart))

	assert.Equal(t, []string{"initial-agents", "start", "init"}, obs.phases())
	assert.Equal(t, 1, obs.count(host.EventRunStart))
	assert.Equal(t, 1, obs.count(host.EventRunComplete))
	assert.Equal(t, 3, obs.count(host.EventThreadDone))
}

func TestRun_ListenersRewriteDefinitions(t *testing.T) {
	h, err := host.New(newTestConfig(2, 3), host.WithLogger(quietLogger()))
	require.NoError(t, err)

	agent := &redefiner{dex: &vm.DexFile{Location: "agent.dex"}}
	h.Registry().AddClassLoadListener(agent)
	h.Registry().AddMethodListener(agent)

	result, err := h.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, result.ClassesDefined)
	assert.Equal(t, 6, result.NativeRebinds)
	assert.Zero(t, h.Registry().Stats().Violations)
}

func TestRun_LocalsChanged(t *testing.T) {
	h, err := host.New(newTestConfig(2, 2), host.WithLogger(quietLogger()))
	require.NoError(t, err)

	h.Registry().AddMethodInspectionListener(listeners.NewFlag(true, false))

	result, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, result.LocalsChanged)
}

func TestRun_DebuggerConfigured(t *testing.T) {
	cfg := newTestConfig(1, 1)
	cfg.DebuggerConfigured = true

	h, err := host.New(cfg, host.WithLogger(quietLogger()))
	require.NoError(t, err)

	result, err := h.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.DebuggerConfigured)
	assert.True(t, h.Debugger().Running())

	h.Shutdown()
	assert.False(t, h.Debugger().Running())
}

func TestRun_CancelledContext(t *testing.T) {
	obs := &recordingObserver{}
	h, err := host.New(newTestConfig(2, 2), host.WithObserver(obs), host.WithLogger(quietLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, obs.count(host.EventError))
	assert.Zero(t, obs.count(host.EventRunComplete))
}

func TestShutdown(t *testing.T) {
	obs := &recordingObserver{}
	h, err := host.New(newTestConfig(1, 1), host.WithObserver(obs), host.WithLogger(quietLogger()))
	require.NoError(t, err)

	counter := listeners.NewCounter()
	h.Registry().AddDebuggerControlListener(counter)
	h.Registry().AddRuntimePhaseListener(counter)

	h.Shutdown()
	h.Shutdown()

	assert.Equal(t, uint64(1), counter.Count(listeners.CountDebugStop))
	assert.Equal(t, uint64(1), counter.Count(listeners.CountPhase))
	assert.Equal(t, []string{"death"}, obs.phases())
	assert.Equal(t, 1, obs.count(host.EventShutdown))
	assert.Equal(t, uint64(1), h.Registry().Stats().UncheckedStops)

	_, err = h.Run(context.Background())
	assert.ErrorIs(t, err, host.ErrShutdown)
}

func TestWithLock(t *testing.T) {
	lock := &countingLock{}
	h, err := host.New(newTestConfig(1, 1), host.WithLock(lock), host.WithLogger(quietLogger()))
	require.NoError(t, err)

	// New registers the built-in debugger listener through the injected lock.
	assert.Equal(t, int32(1), lock.exclusive.Load())

	h.Registry().AddSigQuitListener(listeners.NewCounter())
	assert.Equal(t, int32(2), lock.exclusive.Load())
}

func TestWithRegistry(t *testing.T) {
	reg := callbacks.New()
	h, err := host.New(newTestConfig(1, 1), host.WithRegistry(reg), host.WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Same(t, reg, h.Registry())
	assert.Equal(t, 1, reg.ListenerCount(callbacks.CategoryDebuggerControl))
}

// accessChecker records the guard state seen from inside callbacks.
type accessChecker struct {
	host       *host.Host
	sharedSeen atomic.Bool
	exclusive  atomic.Bool
}

func (c *accessChecker) ThreadStart(*vm.Thread) {
	if c.host.Registry().Guard().SharedHolders() > 0 {
		c.sharedSeen.Store(true)
	}
}

func (c *accessChecker) ThreadDeath(*vm.Thread) {}

func (c *accessChecker) VisitReflectiveTargets(vm.ReflectiveValueVisitor) {
	c.exclusive.Store(c.host.Registry().Guard().ExclusiveHeld())
}

func TestRun_HoldsRegistryGuard(t *testing.T) {
	h, err := host.New(newTestConfig(2, 1), host.WithLogger(quietLogger()))
	require.NoError(t, err)
	require.True(t, h.Registry().Guard().CallerHeld())

	checker := &accessChecker{host: h}
	h.Registry().AddThreadLifecycleListener(checker)
	h.Registry().AddReflectiveValueVisitListener(checker)

	_, err = h.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, checker.sharedSeen.Load())
	assert.True(t, checker.exclusive.Load())
}

// lateRegistrar starts a registration from inside its first ThreadStart and
// returns once that registration is waiting for exclusive access.
type lateRegistrar struct {
	reg     *callbacks.Registry
	lock    *writerSignalLock
	once    sync.Once
	added   chan struct{}
	counter *listeners.Counter
}

func (l *lateRegistrar) ThreadStart(*vm.Thread) {
	l.once.Do(func() {
		go func() {
			l.reg.AddSigQuitListener(l.counter)
			close(l.added)
		}()
		<-l.lock.writerWaiting
		time.Sleep(20 * time.Millisecond)
	})
}

func (l *lateRegistrar) ThreadDeath(*vm.Thread) {}

// writerSignalLock closes writerWaiting on the first Lock after arm.
type writerSignalLock struct {
	sync.RWMutex
	armed         atomic.Bool
	once          sync.Once
	writerWaiting chan struct{}
}

func (l *writerSignalLock) Lock() {
	if l.armed.Load() {
		l.once.Do(func() { close(l.writerWaiting) })
	}
	l.RWMutex.Lock()
}

func TestRun_CompletesWithRegistrationPending(t *testing.T) {
	lock := &writerSignalLock{writerWaiting: make(chan struct{})}
	h, err := host.New(newTestConfig(3, 2), host.WithLock(lock), host.WithLogger(quietLogger()))
	require.NoError(t, err)

	registrar := &lateRegistrar{
		reg:     h.Registry(),
		lock:    lock,
		added:   make(chan struct{}),
		counter: listeners.NewCounter(),
	}
	h.Registry().AddThreadLifecycleListener(registrar)
	lock.armed.Store(true)

	done := make(chan error, 1)
	go func() {
		_, err := h.Run(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run deadlocked behind a pending registration")
	}

	<-registrar.added
	assert.Equal(t, uint64(1), registrar.counter.Count(listeners.CountSigQuit))
}
