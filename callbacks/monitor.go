package callbacks

import "github.com/tailored-agentic-units/rtcallbacks/vm"

// AddMonitorListener registers l for monitor contention and wait events.
func (r *Registry) AddMonitorListener(l MonitorListener) {
	addListener(r, &r.monitors, CategoryMonitor, l)
}

// RemoveMonitorListener removes the first occurrence of l.
func (r *Registry) RemoveMonitorListener(l MonitorListener) {
	removeListener(r, &r.monitors, CategoryMonitor, l)
}

// MonitorContendedLocking is raised before a thread blocks on a contended monitor.
func (r *Registry) MonitorContendedLocking(m *vm.Monitor) {
	fanOut(r, &r.monitors, CategoryMonitor, func(l MonitorListener) {
		l.MonitorContendedLocking(m)
	})
}

// MonitorContendedLocked is raised once a contended monitor has been acquired.
func (r *Registry) MonitorContendedLocked(m *vm.Monitor) {
	fanOut(r, &r.monitors, CategoryMonitor, func(l MonitorListener) {
		l.MonitorContendedLocked(m)
	})
}

// ObjectWaitStart is raised on entry to Object.wait.
func (r *Registry) ObjectWaitStart(obj *vm.Object, timeoutMs int64) {
	fanOut(r, &r.monitors, CategoryMonitor, func(l MonitorListener) {
		l.ObjectWaitStart(obj, timeoutMs)
	})
}

// MonitorWaitFinished is raised after a thread wakes from Object.wait.
func (r *Registry) MonitorWaitFinished(m *vm.Monitor, timedOut bool) {
	fanOut(r, &r.monitors, CategoryMonitor, func(l MonitorListener) {
		l.MonitorWaitFinished(m, timedOut)
	})
}

// AddParkListener registers l for thread park events.
func (r *Registry) AddParkListener(l ParkListener) {
	addListener(r, &r.parks, CategoryPark, l)
}

// RemoveParkListener removes the first occurrence of l.
func (r *Registry) RemoveParkListener(l ParkListener) {
	removeListener(r, &r.parks, CategoryPark, l)
}

// ThreadParkStart is raised before a thread parks.
func (r *Registry) ThreadParkStart(isAbsolute bool, timeout int64) {
	fanOut(r, &r.parks, CategoryPark, func(l ParkListener) {
		l.ThreadParkStart(isAbsolute, timeout)
	})
}

// ThreadParkFinished is raised after a parked thread resumes.
func (r *Registry) ThreadParkFinished(timedOut bool) {
	fanOut(r, &r.parks, CategoryPark, func(l ParkListener) {
		l.ThreadParkFinished(timedOut)
	})
}
