package callbacks

import "github.com/tailored-agentic-units/rtcallbacks/vm"

// AddReflectiveValueVisitListener registers l for reflective target visits.
func (r *Registry) AddReflectiveValueVisitListener(l ReflectiveValueVisitListener) {
	addListener(r, &r.reflectives, CategoryReflectiveValueVisit, l)
}

// RemoveReflectiveValueVisitListener removes the first occurrence of l.
func (r *Registry) RemoveReflectiveValueVisitListener(l ReflectiveValueVisitListener) {
	removeListener(r, &r.reflectives, CategoryReflectiveValueVisit, l)
}

// VisitReflectiveTargets asks every listener to update the reflective
// targets it holds through visitor. The host calls this with all mutator
// threads suspended.
func (r *Registry) VisitReflectiveTargets(visitor vm.ReflectiveValueVisitor) {
	fanOut(r, &r.reflectives, CategoryReflectiveValueVisit, func(l ReflectiveValueVisitListener) {
		l.VisitReflectiveTargets(visitor)
	})
}
