package callbacks

import "github.com/tailored-agentic-units/rtcallbacks/vm"

// AddClassLoadListener registers l for class definition events.
func (r *Registry) AddClassLoadListener(l ClassLoadListener) {
	addListener(r, &r.classes, CategoryClassLoad, l)
}

// RemoveClassLoadListener removes the first occurrence of l.
func (r *Registry) RemoveClassLoadListener(l ClassLoadListener) {
	removeListener(r, &r.classes, CategoryClassLoad, l)
}

// BeginDefineClass tells class-load listeners a class definition is starting.
func (r *Registry) BeginDefineClass() {
	fanOut(r, &r.classes, CategoryClassLoad, func(l ClassLoadListener) {
		l.BeginDefineClass()
	})
}

// EndDefineClass tells class-load listeners the current class definition has finished.
func (r *Registry) EndDefineClass() {
	fanOut(r, &r.classes, CategoryClassLoad, func(l ClassLoadListener) {
		l.EndDefineClass()
	})
}

// ClassLoad reports that klass has been loaded.
func (r *Registry) ClassLoad(klass *vm.Class) {
	fanOut(r, &r.classes, CategoryClassLoad, func(l ClassLoadListener) {
		l.ClassLoad(klass)
	})
}

// ClassPrepare reports that klass has been prepared in place of the temporary class temp.
func (r *Registry) ClassPrepare(temp, klass *vm.Class) {
	fanOut(r, &r.classes, CategoryClassLoad, func(l ClassLoadListener) {
		l.ClassPrepare(temp, klass)
	})
}

// ClassPreDefine passes the definition a class is about to be created from
// through every class-load listener in registration order and returns the
// definition to use.
//
// Each listener sees the output of the one before it. The first-registered
// listener gets the first chance to substitute a definition, but any later
// listener may substitute again, so with several rewriting listeners the last
// substitution wins. A listener that returns its input, or a zero Definition,
// leaves the current definition in place. A half-filled Definition is a
// contract violation and is ignored.
func (r *Registry) ClassPreDefine(descriptor string, temp *vm.Class, loader *vm.ClassLoader, initial Definition) Definition {
	current := initial
	fanOut(r, &r.classes, CategoryClassLoad, func(l ClassLoadListener) {
		next := l.ClassPreDefine(descriptor, temp, loader, current)
		switch {
		case next == current, next.empty():
		case next.Complete():
			current = next
		default:
			r.violation("partial class definition returned by "+typeName(l), CategoryClassLoad)
		}
	})
	return current
}
