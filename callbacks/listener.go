package callbacks

import "github.com/tailored-agentic-units/rtcallbacks/vm"

// ThreadLifecycleListener observes managed threads starting and dying.
type ThreadLifecycleListener interface {
	ThreadStart(t *vm.Thread)
	ThreadDeath(t *vm.Thread)
}

// ClassLoadListener observes class definition.
type ClassLoadListener interface {
	// BeginDefineClass and EndDefineClass bracket a class definition so a
	// listener may defer work until the class is usable.
	BeginDefineClass()
	EndDefineClass()

	// ClassPreDefine is offered the current definition before the class is
	// created and returns the definition to continue with. Returning the
	// input (or a zero Definition) leaves it unchanged.
	ClassPreDefine(descriptor string, temp *vm.Class, loader *vm.ClassLoader, current Definition) Definition

	ClassLoad(klass *vm.Class)
	// ClassPrepare is called when klass replaces the temporary class temp.
	ClassPrepare(temp, klass *vm.Class)
}

// SigQuitListener is called when the runtime receives SIGQUIT.
type SigQuitListener interface {
	SigQuit()
}

// RuntimePhaseListener is called on each runtime phase transition.
type RuntimePhaseListener interface {
	NextRuntimePhase(phase vm.RuntimePhase)
}

// MethodListener is offered native method bindings. It returns the
// implementation to bind instead of cur, or zero to keep cur.
type MethodListener interface {
	RegisterNativeMethod(method *vm.Method, cur vm.NativeCode) vm.NativeCode
}

// MonitorListener observes monitor contention and Object.wait.
type MonitorListener interface {
	// MonitorContendedLocking is called just before the thread sleeps waiting
	// for the monitor to be released.
	MonitorContendedLocking(m *vm.Monitor)
	// MonitorContendedLocked is called just after a contended monitor has
	// been acquired.
	MonitorContendedLocked(m *vm.Monitor)
	// ObjectWaitStart is called on entry to Object.wait, whether or not the
	// call is valid.
	ObjectWaitStart(obj *vm.Object, timeoutMs int64)
	// MonitorWaitFinished is called after waking from wait. The thread does
	// not hold the monitor at this point.
	MonitorWaitFinished(m *vm.Monitor, timedOut bool)
}

// ParkListener observes Unsafe.park.
type ParkListener interface {
	ThreadParkStart(isAbsolute bool, timeout int64)
	ThreadParkFinished(timedOut bool)
}

// MethodInspectionListener lets a subsystem flag that it relies on a method's
// frames staying as they are. Listeners are not guaranteed to be called: the
// registry stops at the first one that returns true.
type MethodInspectionListener interface {
	HaveLocalsChanged() bool
}

// DdmListener receives chunks published to the DDM channel.
type DdmListener interface {
	DdmPublishChunk(chunkType uint32, data []byte)
}

// DebuggerControlListener starts and stops a debugger with the runtime.
type DebuggerControlListener interface {
	StartDebugger()
	// StopDebugger is advisory and is called during shutdown without any
	// registry locking.
	StopDebugger()
	IsDebuggerConfigured() bool
}

// ReflectiveValueVisitListener is asked to pass its recorded reflective
// targets through a visitor.
type ReflectiveValueVisitListener interface {
	VisitReflectiveTargets(visitor vm.ReflectiveValueVisitor)
}

// Definition is the (dex file, class def) pair a class is defined from.
type Definition struct {
	Dex *vm.DexFile
	Def *vm.ClassDef
}

// Complete reports whether both halves of the pair are set.
func (d Definition) Complete() bool {
	return d.Dex != nil && d.Def != nil
}

func (d Definition) empty() bool {
	return d.Dex == nil && d.Def == nil
}
