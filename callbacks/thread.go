package callbacks

import "github.com/tailored-agentic-units/rtcallbacks/vm"

// AddThreadLifecycleListener appends l to the thread-lifecycle collection.
func (r *Registry) AddThreadLifecycleListener(l ThreadLifecycleListener) {
	addListener(r, &r.threads, CategoryThreadLifecycle, l)
}

// RemoveThreadLifecycleListener removes the first occurrence of l.
func (r *Registry) RemoveThreadLifecycleListener(l ThreadLifecycleListener) {
	removeListener(r, &r.threads, CategoryThreadLifecycle, l)
}

// ThreadStart notifies listeners that t has started.
func (r *Registry) ThreadStart(t *vm.Thread) {
	fanOut(r, &r.threads, CategoryThreadLifecycle, func(l ThreadLifecycleListener) {
		l.ThreadStart(t)
	})
}

// ThreadDeath notifies listeners that t is about to die.
func (r *Registry) ThreadDeath(t *vm.Thread) {
	fanOut(r, &r.threads, CategoryThreadLifecycle, func(l ThreadLifecycleListener) {
		l.ThreadDeath(t)
	})
}
