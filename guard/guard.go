// Package guard provides the shared/exclusive access discipline used by the
// callback registry.
//
// A Guard wraps a single reader/writer lock. Dispatch runs under shared
// access so any number of dispatches proceed together, and listeners are free
// to block or suspend other threads. Structural changes to listener
// collections run under exclusive access and therefore wait for every
// in-flight dispatch to finish.
//
//	g := guard.New(guard.WithLogger(logger))
//	g.Exclusive(func() { listeners = append(listeners, l) })
//	g.Shared(func() { for _, l := range listeners { l.Notify() } })
//
// The lock is injected rather than owned: a host runtime may pass the lock it
// already uses to protect the state listeners observe. When the host itself
// holds that lock around event points, build the guard WithCallerHeldLock:
// Dispatch then only checks that access is held instead of acquiring it
// again, since a nested RLock blocks behind a pending writer.
package guard

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// SharedExclusiveLock is the reader/writer lock abstraction consumed by a
// Guard. *sync.RWMutex satisfies it.
type SharedExclusiveLock interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

// Option configures a Guard.
type Option func(*Guard)

// WithLock replaces the default *sync.RWMutex.
func WithLock(lock SharedExclusiveLock) Option {
	return func(g *Guard) { g.lock = lock }
}

// WithLogger sets the logger used for stall warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) { g.logger = logger }
}

// WithCallerHeldLock makes Dispatch rely on the caller already holding shared
// or exclusive access, taken through Shared or Exclusive on this guard.
func WithCallerHeldLock() Option {
	return func(g *Guard) { g.callerHeld = true }
}

// WithStallWarning logs a warning when exclusive acquisition waits longer
// than d. Zero disables the warning.
func WithStallWarning(d time.Duration) Option {
	return func(g *Guard) { g.stallWarning = d }
}

// Guard enforces shared access for dispatch and exclusive access for
// mutation over one lock.
type Guard struct {
	lock         SharedExclusiveLock
	logger       *slog.Logger
	stallWarning time.Duration
	callerHeld   bool

	shared    atomic.Int64
	exclusive atomic.Bool
}

// New creates a Guard. Without WithLock it guards a fresh *sync.RWMutex.
func New(opts ...Option) *Guard {
	g := &Guard{
		lock:   &sync.RWMutex{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Shared runs fn while holding shared access. fn may block indefinitely;
// any Exclusive caller waits until it returns.
func (g *Guard) Shared(fn func()) {
	g.lock.RLock()
	g.shared.Add(1)
	defer func() {
		g.shared.Add(-1)
		g.lock.RUnlock()
	}()

	fn()
}

// Dispatch runs fn with at least shared access. Without WithCallerHeldLock it
// is Shared. With it, fn runs directly under the access the caller already
// holds; debug builds panic if none is held.
func (g *Guard) Dispatch(fn func()) {
	if !g.callerHeld {
		g.Shared(fn)
		return
	}
	g.AssertShared()
	fn()
}

// CallerHeld reports whether the guard was built WithCallerHeldLock.
func (g *Guard) CallerHeld() bool {
	return g.callerHeld
}

// Exclusive runs fn while holding exclusive access. It must not be called
// from inside a Shared section on the same goroutine: the lock is not
// reentrant and the call deadlocks.
func (g *Guard) Exclusive(fn func()) {
	g.acquireExclusive()
	defer func() {
		g.exclusive.Store(false)
		g.lock.Unlock()
	}()

	fn()
}

// Unchecked runs fn without acquiring the lock. It exists for the shutdown
// path, where the lock may no longer be acquirable; fn must only read data
// that is safe to read concurrently with writers.
func (g *Guard) Unchecked(fn func()) {
	fn()
}

// SharedHolders reports how many Shared sections are currently running.
func (g *Guard) SharedHolders() int64 {
	return g.shared.Load()
}

// ExclusiveHeld reports whether an Exclusive section is currently running.
func (g *Guard) ExclusiveHeld() bool {
	return g.exclusive.Load()
}

// AssertShared panics in debug builds when neither shared nor exclusive
// access is held by anyone.
func (g *Guard) AssertShared() {
	if DebugChecks && g.shared.Load() == 0 && !g.exclusive.Load() {
		panic("guard: shared access required")
	}
}

// AssertExclusive panics in debug builds when exclusive access is not held.
func (g *Guard) AssertExclusive() {
	if DebugChecks && !g.exclusive.Load() {
		panic("guard: exclusive access required")
	}
}

func (g *Guard) acquireExclusive() {
	if g.stallWarning > 0 {
		start := time.Now()
		timer := time.AfterFunc(g.stallWarning, func() {
			g.logger.Warn(
				"exclusive access waiting on in-flight dispatch",
				slog.Duration("waited", time.Since(start)),
				slog.Int64("shared_holders", g.shared.Load()),
			)
		})
		defer timer.Stop()
	}

	g.lock.Lock()
	g.exclusive.Store(true)
}
