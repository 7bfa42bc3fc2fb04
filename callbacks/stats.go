package callbacks

import "sync/atomic"

// Stats is a point-in-time copy of the registry's dispatch counters.
type Stats struct {
	Dispatched     map[Category]uint64
	UncheckedStops uint64
	Violations     uint64
}

// Total returns the number of dispatches across all categories.
func (s Stats) Total() uint64 {
	var total uint64
	for _, n := range s.Dispatched {
		total += n
	}
	return total
}

type stats struct {
	dispatched     [numCategories]atomic.Uint64
	uncheckedStops atomic.Uint64
	violations     atomic.Uint64
}

func (s *stats) record(c Category) {
	s.dispatched[c].Add(1)
}

// Stats returns the dispatch counters. Counters are read individually, so
// the copy may straddle concurrent dispatches.
func (r *Registry) Stats() Stats {
	out := Stats{
		Dispatched:     make(map[Category]uint64, numCategories),
		UncheckedStops: r.stats.uncheckedStops.Load(),
		Violations:     r.stats.violations.Load(),
	}
	for _, c := range Categories() {
		out.Dispatched[c] = r.stats.dispatched[c].Load()
	}
	return out
}
