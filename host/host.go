// Package host implements a simulated managed runtime that owns a callback
// registry and drives it through a full lifecycle: phase transitions, thread
// start and death, class definition, native binding, monitor and park
// contention, SIGQUIT, DDM publication, a reflective visit with all threads
// suspended, and finally the unchecked debugger stop at teardown.
//
// The host initializes from configuration via New. Functional options allow
// tests to replace the registry, logger, observer, or the guard's lock.
//
//	h, err := host.New(&cfg)
//	h.Registry().AddAll(listeners.NewTracer(obs))
//	result, err := h.Run(ctx)
//	h.Shutdown()
package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/rtcallbacks/callbacks"
	"github.com/tailored-agentic-units/rtcallbacks/guard"
	"github.com/tailored-agentic-units/rtcallbacks/listeners"
	"github.com/tailored-agentic-units/rtcallbacks/observability"
	"github.com/tailored-agentic-units/rtcallbacks/vm"
)

const source = "host.Host"

// ddmHello is the DDM "HELO" chunk type announced after startup.
const ddmHello uint32 = 0x48454c4f

// Result holds the outcome of a Run.
type Result struct {
	Threads            int // Threads started and finished.
	ClassesDefined     int // Classes that completed definition.
	NativeRebinds      int // Native registrations a listener redirected.
	LocalsChanged      int // HaveLocalsChanged queries answered true.
	DebuggerConfigured bool
}

// Option configures a Host after config-driven initialization.
type Option func(*Host)

// WithRegistry overrides the config-created registry. The registry's own
// guard is used and WithLock has no effect. Unless that guard was built
// WithCallerHeldLock, the host dispatches without holding it.
func WithRegistry(r *callbacks.Registry) Option {
	return func(h *Host) { h.registry = r }
}

// WithLogger overrides slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) { h.logger = logger }
}

// WithObserver overrides the observer named in the config.
func WithObserver(o observability.Observer) Option {
	return func(h *Host) { h.observer = o }
}

// WithLock supplies the lock behind the registry guard.
func WithLock(l guard.SharedExclusiveLock) Option {
	return func(h *Host) { h.lock = l }
}

// Host is a simulated runtime driving a callbacks.Registry.
type Host struct {
	cfg      Config
	registry *callbacks.Registry
	logger   *slog.Logger
	observer observability.Observer
	lock     guard.SharedExclusiveLock
	debugger *listeners.Flag
	boot     *vm.DexFile

	shutdown     atomic.Bool
	shutdownOnce sync.Once
}

// New creates a Host from configuration.
func New(cfg *Config, opts ...Option) (*Host, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &Host{
		cfg:    *cfg,
		logger: slog.Default(),
		boot:   &vm.DexFile{Location: "/system/framework/boot.dex", Checksum: 0x5eed},
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.observer == nil {
		obs, err := h.resolveObserver()
		if err != nil {
			return nil, err
		}
		h.observer = obs
	}

	if h.registry == nil {
		gopts := []guard.Option{
			guard.WithCallerHeldLock(),
			guard.WithLogger(h.logger),
			guard.WithStallWarning(cfg.StallWarningDuration()),
		}
		if h.lock != nil {
			gopts = append(gopts, guard.WithLock(h.lock))
		}
		h.registry = callbacks.New(
			callbacks.WithGuard(guard.New(gopts...)),
			callbacks.WithLogger(h.logger),
			callbacks.WithObserver(h.observer),
		)
	}

	h.debugger = listeners.NewFlag(false, cfg.DebuggerConfigured)
	h.registry.AddDebuggerControlListener(h.debugger)

	return h, nil
}

func (h *Host) resolveObserver() (observability.Observer, error) {
	if h.cfg.Observer == "slog" {
		return observability.NewSlogObserver(h.logger), nil
	}
	obs, err := observability.GetObserver(h.cfg.Observer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve observer: %w", err)
	}
	return obs, nil
}

// Registry returns the host's callback registry.
func (h *Host) Registry() *callbacks.Registry {
	return h.registry
}

// Debugger returns the host's built-in debugger-control listener.
func (h *Host) Debugger() *listeners.Flag {
	return h.debugger
}

// Run walks the runtime from InitialAgents to Init, runs the configured
// threads concurrently, then publishes the post-startup events. Context
// cancellation is honoured between steps; a dispatch in progress always
// completes.
func (h *Host) Run(ctx context.Context) (*Result, error) {
	if h.shutdown.Load() {
		return nil, ErrShutdown
	}

	result := &Result{}

	h.emit(ctx, EventRunStart, observability.LevelInfo, map[string]any{
		"registry":           h.registry.ID(),
		"threads":            h.cfg.Threads,
		"classes_per_thread": h.cfg.ClassesPerThread,
	})

	for _, phase := range []vm.RuntimePhase{vm.PhaseInitialAgents, vm.PhaseStart} {
		if err := ctx.Err(); err != nil {
			return result, h.fail(ctx, err)
		}
		h.phase(ctx, phase)
	}

	h.running(func() {
		result.DebuggerConfigured = h.registry.IsDebuggerConfigured()
		if result.DebuggerConfigured {
			h.registry.StartDebugger()
		}
	})

	if err := ctx.Err(); err != nil {
		return result, h.fail(ctx, err)
	}
	h.phase(ctx, vm.PhaseInit)

	var (
		classes  atomic.Int64
		rebinds  atomic.Int64
		changed  atomic.Int64
		finished atomic.Int64
	)

	g, gctx := errgroup.WithContext(ctx)
	for i := range h.cfg.Threads {
		thread := vm.NewThread(fmt.Sprintf("worker-%d", i))
		thread.Daemon = i%2 == 1
		g.Go(func() error {
			stats, err := h.runThread(gctx, thread)
			classes.Add(int64(stats.classes))
			rebinds.Add(int64(stats.rebinds))
			changed.Add(int64(stats.changed))
			if err == nil {
				finished.Add(1)
			}
			return err
		})
	}
	err := g.Wait()

	result.Threads = int(finished.Load())
	result.ClassesDefined = int(classes.Load())
	result.NativeRebinds = int(rebinds.Load())
	result.LocalsChanged = int(changed.Load())

	if err != nil {
		return result, h.fail(ctx, err)
	}

	h.running(func() {
		h.registry.SigQuit()
		h.registry.DdmPublishChunk(ddmHello, []byte("rtcallbacks"))
	})
	h.visitReflective()

	h.emit(ctx, EventRunComplete, observability.LevelInfo, map[string]any{
		"threads":         result.Threads,
		"classes":         result.ClassesDefined,
		"native_rebinds":  result.NativeRebinds,
		"locals_changed":  result.LocalsChanged,
		"debugger":        result.DebuggerConfigured,
		"dispatches":      h.registry.Stats().Total(),
		"contract_errors": h.registry.Stats().Violations,
	})

	return result, nil
}

// Shutdown moves the runtime to the Death phase and stops debuggers without
// the guard. It is safe to call more than once; only the first call acts.
func (h *Host) Shutdown() {
	h.shutdownOnce.Do(func() {
		h.shutdown.Store(true)
		h.phase(context.Background(), vm.PhaseDeath)
		h.registry.StopDebuggerUnchecked()
		h.emit(context.Background(), EventShutdown, observability.LevelInfo, map[string]any{
			"registry": h.registry.ID(),
		})
	})
}

type threadStats struct {
	classes int
	rebinds int
	changed int
}

func (h *Host) runThread(ctx context.Context, thread *vm.Thread) (threadStats, error) {
	var stats threadStats
	loader := &vm.ClassLoader{Name: "app"}

	h.running(func() { h.registry.ThreadStart(thread) })

	defer func() {
		h.running(func() { h.registry.ThreadDeath(thread) })

		h.emit(ctx, EventThreadDone, observability.LevelVerbose, map[string]any{
			"thread":  thread.Name,
			"classes": stats.classes,
		})
	}()

	for j := range h.cfg.ClassesPerThread {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		h.running(func() {
			klass := h.defineClass(thread, loader, j)
			stats.classes++

			method := &vm.Method{Class: klass, Name: fmt.Sprintf("native%d", j), Native: true}
			original := vm.NativeCode(0x1000 + uintptr(j)*0x10)
			if h.registry.RegisterNativeMethod(method, original) != original {
				stats.rebinds++
			}

			h.contend(thread, klass)

			if h.registry.HaveLocalsChanged() {
				stats.changed++
			}
		})
	}

	return stats, nil
}

func (h *Host) defineClass(thread *vm.Thread, loader *vm.ClassLoader, j int) *vm.Class {
	descriptor := fmt.Sprintf("L%s/Class%d;", thread.Name, j)

	h.registry.BeginDefineClass()
	defer h.registry.EndDefineClass()

	temp := &vm.Class{Descriptor: descriptor, Loader: loader}
	def := h.registry.ClassPreDefine(descriptor, temp, loader, callbacks.Definition{
		Dex: h.boot,
		Def: &vm.ClassDef{Index: uint32(j), Descriptor: descriptor},
	})
	temp.Dex, temp.Def = def.Dex, def.Def

	h.registry.ClassLoad(temp)
	klass := &vm.Class{Descriptor: descriptor, Loader: loader, Dex: def.Dex, Def: def.Def}
	h.registry.ClassPrepare(temp, klass)
	return klass
}

func (h *Host) contend(thread *vm.Thread, klass *vm.Class) {
	obj := &vm.Object{Class: klass}
	mon := &vm.Monitor{Object: obj, Owner: thread}

	h.registry.MonitorContendedLocking(mon)
	h.registry.MonitorContendedLocked(mon)
	h.registry.ObjectWaitStart(obj, 10)
	h.registry.MonitorWaitFinished(mon, true)

	h.registry.ThreadParkStart(false, 1_000_000)
	h.registry.ThreadParkFinished(true)
}

// running executes fn as a mutator thread: under shared access when the host
// owns the registry lock.
func (h *Host) running(fn func()) {
	g := h.registry.Guard()
	if !g.CallerHeld() {
		fn()
		return
	}
	g.Shared(fn)
}

// visitReflective suspends every thread and lets listeners update their
// reflective targets.
func (h *Host) visitReflective() {
	g := h.registry.Guard()
	if !g.CallerHeld() {
		h.registry.VisitReflectiveTargets(identityVisitor{})
		return
	}
	g.Exclusive(func() {
		h.registry.VisitReflectiveTargets(identityVisitor{})
	})
}

type identityVisitor struct{}

func (identityVisitor) VisitMethod(m *vm.Method) *vm.Method { return m }

func (h *Host) phase(ctx context.Context, phase vm.RuntimePhase) {
	h.running(func() { h.registry.NextRuntimePhase(phase) })
	h.logger.Debug("runtime phase", slog.String("phase", phase.String()))
	h.emit(ctx, EventPhase, observability.LevelInfo, map[string]any{"phase": phase.String()})
}

func (h *Host) fail(ctx context.Context, err error) error {
	h.emit(ctx, EventError, observability.LevelWarning, map[string]any{"error": err.Error()})
	return err
}

func (h *Host) emit(ctx context.Context, typ observability.EventType, level observability.Level, data map[string]any) {
	observability.Emit(ctx, h.observer, typ, level, source, data)
}
