package callbacks

import "fmt"

// Add registers l for category c. It fails when c is unknown or l does not
// implement the category's capability interface.
func (r *Registry) Add(c Category, l any) error {
	return r.mutate(c, l, true)
}

// Remove removes the first occurrence of l from category c. Removing a
// listener that is not registered succeeds and does nothing.
func (r *Registry) Remove(c Category, l any) error {
	return r.mutate(c, l, false)
}

// AddAll registers l for every category whose capability it implements and
// returns those categories.
func (r *Registry) AddAll(l any) []Category {
	var added []Category
	for _, c := range Categories() {
		if implements(c, l) {
			_ = r.mutate(c, l, true)
			added = append(added, c)
		}
	}
	return added
}

// RemoveAll removes one occurrence of l from every category whose
// capability it implements.
func (r *Registry) RemoveAll(l any) {
	for _, c := range Categories() {
		if implements(c, l) {
			_ = r.mutate(c, l, false)
		}
	}
}

func (r *Registry) mutate(c Category, l any, add bool) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	if l == nil {
		return ErrNilListener
	}
	if !implements(c, l) {
		return fmt.Errorf("%w: %s does not implement %s", ErrCapabilityMismatch, typeName(l), c)
	}

	switch c {
	case CategoryThreadLifecycle:
		apply(r, &r.threads, c, l.(ThreadLifecycleListener), add)
	case CategoryClassLoad:
		apply(r, &r.classes, c, l.(ClassLoadListener), add)
	case CategorySigQuit:
		apply(r, &r.sigquits, c, l.(SigQuitListener), add)
	case CategoryRuntimePhase:
		apply(r, &r.phases, c, l.(RuntimePhaseListener), add)
	case CategoryMethod:
		apply(r, &r.methods, c, l.(MethodListener), add)
	case CategoryMonitor:
		apply(r, &r.monitors, c, l.(MonitorListener), add)
	case CategoryPark:
		apply(r, &r.parks, c, l.(ParkListener), add)
	case CategoryMethodInspection:
		apply(r, &r.inspections, c, l.(MethodInspectionListener), add)
	case CategoryDdm:
		apply(r, &r.ddms, c, l.(DdmListener), add)
	case CategoryDebuggerControl:
		apply(r, &r.debuggers, c, l.(DebuggerControlListener), add)
	case CategoryReflectiveValueVisit:
		apply(r, &r.reflectives, c, l.(ReflectiveValueVisitListener), add)
	}
	return nil
}

func apply[T comparable](r *Registry, c *collection[T], cat Category, l T, add bool) {
	if add {
		addListener(r, c, cat, l)
	} else {
		removeListener(r, c, cat, l)
	}
}

func implements(c Category, l any) bool {
	var ok bool
	switch c {
	case CategoryThreadLifecycle:
		_, ok = l.(ThreadLifecycleListener)
	case CategoryClassLoad:
		_, ok = l.(ClassLoadListener)
	case CategorySigQuit:
		_, ok = l.(SigQuitListener)
	case CategoryRuntimePhase:
		_, ok = l.(RuntimePhaseListener)
	case CategoryMethod:
		_, ok = l.(MethodListener)
	case CategoryMonitor:
		_, ok = l.(MonitorListener)
	case CategoryPark:
		_, ok = l.(ParkListener)
	case CategoryMethodInspection:
		_, ok = l.(MethodInspectionListener)
	case CategoryDdm:
		_, ok = l.(DdmListener)
	case CategoryDebuggerControl:
		_, ok = l.(DebuggerControlListener)
	case CategoryReflectiveValueVisit:
		_, ok = l.(ReflectiveValueVisitListener)
	}
	return ok
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
