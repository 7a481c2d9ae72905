package ptflow

// metrics.go: lock-free monitoring and statistics for the solver and the
// data model, following the same atomic-counter shape as the constraint
// solver this package's search machinery was modeled on.

import "sync/atomic"

// Distribution is a minimal running-summary sink for a stream of sample
// values (e.g. the size a Variable reached each time a binding was
// added). It does not retain samples; it tracks count, sum, and max,
// which is enough for the engine's own diagnostics and cheap enough to
// update on every call.
type Distribution struct {
	count atomic.Int64
	sum   atomic.Int64
	max   atomic.Int64
}

// Add records one sample.
func (d *Distribution) Add(value int64) {
	if d == nil {
		return
	}
	d.count.Add(1)
	d.sum.Add(value)
	for {
		old := d.max.Load()
		if value <= old {
			break
		}
		if d.max.CompareAndSwap(old, value) {
			break
		}
	}
}

// Count, Sum and Max return a snapshot of the distribution's running
// summary. Safe to call concurrently with Add.
func (d *Distribution) Count() int64 { return d.count.Load() }
func (d *Distribution) Sum() int64   { return d.sum.Load() }
func (d *Distribution) Max() int64   { return d.max.Load() }

// MapCounter is a small set of named counters, used for the solver's
// cache hit/miss tally.
type MapCounter struct {
	hit  atomic.Int64
	miss atomic.Int64
}

// Inc increments the named counter. Unrecognized names are ignored
// rather than panicking, since this is a diagnostics sink, not part of
// the engine's correctness surface.
func (c *MapCounter) Inc(name string) {
	if c == nil {
		return
	}
	switch name {
	case "hit":
		c.hit.Add(1)
	case "miss":
		c.miss.Add(1)
	}
}

// Hit and Miss return the current counts.
func (c *MapCounter) Hit() int64  { return c.hit.Load() }
func (c *MapCounter) Miss() int64 { return c.miss.Load() }

// Metrics bundles the three sinks the engine writes to. It is injected
// capability rather than package-level global state, so multiple
// Programs in the same process (e.g. in tests) never share counters.
//
// The three names mirror the metrics interface named in the engine's
// specification:
//   - VariableSize ("variable_size"): distribution of Variable sizes,
//     sampled each time a genuinely new binding is appended.
//   - GoalsPerFind ("cfg_solver_goals_per_find"): distribution of
//     goal-set sizes seen by the solver's FindSolution.
//   - SolverCache ("cfg_solver_cache"): hit/miss counts for the solver's
//     memoization table.
type Metrics struct {
	VariableSize Distribution
	GoalsPerFind Distribution
	SolverCache  MapCounter
}

// NewMetrics returns a fresh, zeroed Metrics capability.
func NewMetrics() *Metrics {
	return &Metrics{}
}
