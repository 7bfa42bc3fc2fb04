package callbacks

import "github.com/tailored-agentic-units/rtcallbacks/vm"

// AddSigQuitListener registers l for SIGQUIT.
func (r *Registry) AddSigQuitListener(l SigQuitListener) {
	addListener(r, &r.sigquits, CategorySigQuit, l)
}

// RemoveSigQuitListener removes the first occurrence of l.
func (r *Registry) RemoveSigQuitListener(l SigQuitListener) {
	removeListener(r, &r.sigquits, CategorySigQuit, l)
}

// SigQuit notifies listeners that the runtime received SIGQUIT.
func (r *Registry) SigQuit() {
	fanOut(r, &r.sigquits, CategorySigQuit, func(l SigQuitListener) {
		l.SigQuit()
	})
}

// AddRuntimePhaseListener registers l for runtime phase transitions.
func (r *Registry) AddRuntimePhaseListener(l RuntimePhaseListener) {
	addListener(r, &r.phases, CategoryRuntimePhase, l)
}

// RemoveRuntimePhaseListener removes the first occurrence of l.
func (r *Registry) RemoveRuntimePhaseListener(l RuntimePhaseListener) {
	removeListener(r, &r.phases, CategoryRuntimePhase, l)
}

// NextRuntimePhase notifies listeners that the runtime entered phase.
func (r *Registry) NextRuntimePhase(phase vm.RuntimePhase) {
	fanOut(r, &r.phases, CategoryRuntimePhase, func(l RuntimePhaseListener) {
		l.NextRuntimePhase(phase)
	})
}
