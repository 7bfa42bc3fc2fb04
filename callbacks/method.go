package callbacks

import "github.com/tailored-agentic-units/rtcallbacks/vm"

// AddMethodListener registers l for native method registration.
func (r *Registry) AddMethodListener(l MethodListener) {
	addListener(r, &r.methods, CategoryMethod, l)
}

// RemoveMethodListener removes the first occurrence of l.
func (r *Registry) RemoveMethodListener(l MethodListener) {
	removeListener(r, &r.methods, CategoryMethod, l)
}

// RegisterNativeMethod returns the implementation to bind for method. Each
// listener is offered the result of the previous one, starting from original;
// a listener returning zero keeps the current implementation.
func (r *Registry) RegisterNativeMethod(method *vm.Method, original vm.NativeCode) vm.NativeCode {
	current := original
	fanOut(r, &r.methods, CategoryMethod, func(l MethodListener) {
		if next := l.RegisterNativeMethod(method, current); next != 0 {
			current = next
		}
	})
	return current
}

// AddMethodInspectionListener registers l for method inspection queries.
func (r *Registry) AddMethodInspectionListener(l MethodInspectionListener) {
	addListener(r, &r.inspections, CategoryMethodInspection, l)
}

// RemoveMethodInspectionListener removes the first occurrence of l.
func (r *Registry) RemoveMethodInspectionListener(l MethodInspectionListener) {
	removeListener(r, &r.inspections, CategoryMethodInspection, l)
}

// HaveLocalsChanged reports whether any listener has changed locals, in which
// case frames must not be on-stack replaced. Listeners after the first one
// returning true are not called.
func (r *Registry) HaveLocalsChanged() bool {
	return anyTrue(r, &r.inspections, CategoryMethodInspection, func(l MethodInspectionListener) bool {
		return l.HaveLocalsChanged()
	})
}
