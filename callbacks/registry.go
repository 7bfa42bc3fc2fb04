package callbacks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/rtcallbacks/guard"
	"github.com/tailored-agentic-units/rtcallbacks/observability"
)

// Registry event types.
const (
	EventListenerAdded    observability.EventType = "callbacks.listener.added"
	EventListenerRemoved  observability.EventType = "callbacks.listener.removed"
	EventListenerAbsent   observability.EventType = "callbacks.listener.absent"
	EventStopUnchecked    observability.EventType = "callbacks.debugger.stop_unchecked"
	EventContractViolated observability.EventType = "callbacks.contract.violated"
)

// Option configures a Registry.
type Option func(*Registry)

// WithGuard replaces the default guard, e.g. to share the host's lock.
func WithGuard(g *guard.Guard) Option {
	return func(r *Registry) { r.guard = g }
}

// WithLogger sets the logger used for registration messages.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithObserver sets the observer that receives registration events.
func WithObserver(o observability.Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// Registry holds one listener collection per Category behind a single
// guard. It is created once per runtime and never torn down.
type Registry struct {
	id       string
	guard    *guard.Guard
	logger   *slog.Logger
	observer observability.Observer
	stats    stats

	threads     collection[ThreadLifecycleListener]
	classes     collection[ClassLoadListener]
	sigquits    collection[SigQuitListener]
	phases      collection[RuntimePhaseListener]
	methods     collection[MethodListener]
	monitors    collection[MonitorListener]
	parks       collection[ParkListener]
	inspections collection[MethodInspectionListener]
	ddms        collection[DdmListener]
	debuggers   collection[DebuggerControlListener]
	reflectives collection[ReflectiveValueVisitListener]
}

// New creates an empty Registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		id:       uuid.Must(uuid.NewV7()).String(),
		logger:   slog.Default(),
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.guard == nil {
		r.guard = guard.New(guard.WithLogger(r.logger))
	}
	return r
}

// ID returns the registry's unique identifier.
func (r *Registry) ID() string {
	return r.id
}

// Guard returns the guard protecting the listener collections.
func (r *Registry) Guard() *guard.Guard {
	return r.guard
}

// ListenerCount returns the number of entries in the category's collection,
// counting duplicates.
func (r *Registry) ListenerCount(c Category) int {
	var n int
	r.guard.Shared(func() { n = r.lenOf(c) })
	return n
}

// Snapshot returns the listener count of every category, taken atomically
// with respect to registration.
func (r *Registry) Snapshot() map[Category]int {
	counts := make(map[Category]int, numCategories)
	r.guard.Shared(func() {
		for _, c := range Categories() {
			counts[c] = r.lenOf(c)
		}
	})
	return counts
}

func (r *Registry) lenOf(c Category) int {
	switch c {
	case CategoryThreadLifecycle:
		return r.threads.len()
	case CategoryClassLoad:
		return r.classes.len()
	case CategorySigQuit:
		return r.sigquits.len()
	case CategoryRuntimePhase:
		return r.phases.len()
	case CategoryMethod:
		return r.methods.len()
	case CategoryMonitor:
		return r.monitors.len()
	case CategoryPark:
		return r.parks.len()
	case CategoryMethodInspection:
		return r.inspections.len()
	case CategoryDdm:
		return r.ddms.len()
	case CategoryDebuggerControl:
		return r.debuggers.len()
	case CategoryReflectiveValueVisit:
		return r.reflectives.len()
	default:
		return 0
	}
}

func addListener[T comparable](r *Registry, c *collection[T], cat Category, l T) {
	if any(l) == nil {
		r.violation("nil listener added", cat)
		return
	}
	if !matchable(l) {
		r.violation("listener "+typeName(l)+" is not comparable", cat)
		return
	}

	var n int
	r.guard.Exclusive(func() {
		r.guard.AssertExclusive()
		n = c.add(l)
	})

	r.logger.Debug("listener added",
		slog.String("registry", r.id),
		slog.String("category", cat.String()),
		slog.String("listener", typeName(l)),
		slog.Int("count", n),
	)
	observability.Emit(context.Background(), r.observer, EventListenerAdded, observability.LevelVerbose, "callbacks.Registry",
		map[string]any{"category": cat.String(), "listener": typeName(l), "count": n})
}

func removeListener[T comparable](r *Registry, c *collection[T], cat Category, l T) {
	if any(l) == nil {
		return
	}
	if !matchable(l) {
		r.violation("listener "+typeName(l)+" is not comparable", cat)
		return
	}

	var (
		n       int
		removed bool
	)
	r.guard.Exclusive(func() {
		r.guard.AssertExclusive()
		n, removed = c.remove(l)
	})

	typ := EventListenerRemoved
	if !removed {
		typ = EventListenerAbsent
	}
	r.logger.Debug("listener removed",
		slog.String("registry", r.id),
		slog.String("category", cat.String()),
		slog.String("listener", typeName(l)),
		slog.Bool("present", removed),
		slog.Int("count", n),
	)
	observability.Emit(context.Background(), r.observer, typ, observability.LevelVerbose, "callbacks.Registry",
		map[string]any{"category": cat.String(), "listener": typeName(l), "count": n})
}

// fanOut calls every listener in registration order under shared access.
func fanOut[T comparable](r *Registry, c *collection[T], cat Category, call func(T)) {
	r.stats.record(cat)
	r.guard.Dispatch(func() {
		r.guard.AssertShared()
		for _, l := range c.items {
			call(l)
		}
	})
}

// anyTrue calls listeners in order until one returns true.
func anyTrue[T comparable](r *Registry, c *collection[T], cat Category, pred func(T) bool) bool {
	r.stats.record(cat)
	found := false
	r.guard.Dispatch(func() {
		r.guard.AssertShared()
		for _, l := range c.items {
			if pred(l) {
				found = true
				return
			}
		}
	})
	return found
}

// violation reports a usage-contract violation. Debug builds panic; release
// builds log it and carry on.
func (r *Registry) violation(msg string, cat Category) {
	r.stats.violations.Add(1)
	if guard.DebugChecks {
		panic(fmt.Sprintf("callbacks: %s (%s)", msg, cat))
	}
	r.logger.Warn("callback contract violated",
		slog.String("registry", r.id),
		slog.String("category", cat.String()),
		slog.String("violation", msg),
	)
	observability.Emit(context.Background(), r.observer, EventContractViolated, observability.LevelWarning, "callbacks.Registry",
		map[string]any{"category": cat.String(), "violation": msg})
}
