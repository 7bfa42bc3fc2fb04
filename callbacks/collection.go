package callbacks

import (
	"reflect"
	"slices"
	"sync/atomic"
)

// collection is an ordered, duplicate-tolerant list of listeners. items is
// only touched under the registry guard; every mutation builds a fresh slice
// and publishes it so the unchecked shutdown path can read a consistent view
// without the lock.
type collection[T comparable] struct {
	items     []T
	published atomic.Pointer[[]T]
}

func (c *collection[T]) add(l T) int {
	next := make([]T, len(c.items), len(c.items)+1)
	copy(next, c.items)
	next = append(next, l)
	c.publish(next)
	return len(next)
}

// remove drops the first entry equal to l. It reports false when l is absent.
func (c *collection[T]) remove(l T) (int, bool) {
	i := slices.Index(c.items, l)
	if i < 0 {
		return len(c.items), false
	}

	next := slices.Delete(slices.Clone(c.items), i, i+1)
	c.publish(next)
	return len(next), true
}

func (c *collection[T]) publish(next []T) {
	c.items = next
	c.published.Store(&next)
}

func (c *collection[T]) len() int {
	return len(c.items)
}

// unchecked returns the last published list without any locking.
func (c *collection[T]) unchecked() []T {
	if p := c.published.Load(); p != nil {
		return *p
	}
	return nil
}

// matchable reports whether l can be matched by Remove. Interface equality
// panics at runtime on dynamic types such as funcs, maps and slices.
func matchable(l any) bool {
	typ := reflect.TypeOf(l)
	return typ == nil || typ.Comparable()
}
