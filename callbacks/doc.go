// Package callbacks lets independently owned runtime subsystems (debugger,
// profiler, class-loading machinery, monitor and park implementations,
// reflection support) observe runtime events without the runtime depending on
// them.
//
// A Registry holds one ordered listener collection per Category. The host
// runtime calls a dispatch method at each event point (ThreadStart,
// ClassPreDefine, MonitorContendedLocking, ...) and the registry calls every
// listener registered for that category in registration order.
//
// # Locking
//
// All collections share one guard. Add and Remove take exclusive access;
// every dispatch takes shared access. Dispatches of any categories therefore
// run concurrently with each other, and a listener may block, wait on
// external resources, or suspend other threads from inside its callback.
// A registration issued while dispatches are in flight waits until they have
// all returned, so a dispatch always iterates a stable list.
//
// A host that already holds the lock around its event points shares it
// through guard.WithCallerHeldLock. Dispatch then runs under the host's
// access without locking again, and an event that needs every thread
// suspended (VisitReflectiveTargets) can be raised inside guard.Exclusive.
//
// StopDebuggerUnchecked is the single exception: it runs during teardown
// without the guard.
//
// # Dispatch shapes
//
//   - Fan-out: every listener is called with the same arguments.
//   - Short-circuit: HaveLocalsChanged and IsDebuggerConfigured stop at the
//     first listener returning true. Later listeners are not called.
//   - Chained rewrite: ClassPreDefine and RegisterNativeMethod thread a value
//     through the listeners; each sees the previous listener's output.
//
// # Listener contract
//
// The registry stores listeners by reference and never owns them. Owners must
// follow these rules; the registry does not check them outside debug builds
// (build tag rtcallbacks_debug):
//
//   - Register a listener only once it can handle calls.
//   - A listener must never add or remove listeners from inside a callback.
//     The guard is not reentrant and the call deadlocks.
//   - Keep a listener usable for as long as it is registered, including while
//     a dispatch that started before Remove is still running.
//   - Listeners are compared by identity (Go interface equality). Use pointer
//     receivers.
//
// Duplicates are allowed: a listener added twice is called twice, and Remove
// drops one occurrence. Removing an unregistered listener does nothing.
//
// Listener failures are the listener's business. Plain fan-out has no return
// channel and the registry never retries; a panicking listener unwinds
// through the dispatch call to the host.
//
//	reg := callbacks.New(callbacks.WithLogger(logger))
//	reg.AddThreadLifecycleListener(profiler)
//	reg.ThreadStart(thread)
package callbacks
