package listeners

import "sync/atomic"

// Flag answers HaveLocalsChanged and IsDebuggerConfigured with values the
// owner can flip at any time. It also implements the debugger start/stop
// callbacks, recording whether the debugger is running.
type Flag struct {
	localsChanged atomic.Bool
	configured    atomic.Bool
	running       atomic.Bool
}

// NewFlag creates a Flag with the given initial answers.
func NewFlag(localsChanged, configured bool) *Flag {
	f := &Flag{}
	f.localsChanged.Store(localsChanged)
	f.configured.Store(configured)
	return f
}

// SetLocalsChanged changes the HaveLocalsChanged answer.
func (f *Flag) SetLocalsChanged(v bool) { f.localsChanged.Store(v) }

// SetConfigured changes the IsDebuggerConfigured answer.
func (f *Flag) SetConfigured(v bool) { f.configured.Store(v) }

// Running reports whether StartDebugger was called more recently than
// StopDebugger.
func (f *Flag) Running() bool { return f.running.Load() }

func (f *Flag) HaveLocalsChanged() bool    { return f.localsChanged.Load() }
func (f *Flag) IsDebuggerConfigured() bool { return f.configured.Load() }
func (f *Flag) StartDebugger()             { f.running.Store(true) }
func (f *Flag) StopDebugger()              { f.running.Store(false) }
