package reactor

import (
	"errors"

	mapset "github.com/deckarep/golang-set/v2"
)

// ErrReadOnly is returned when a caller tries to write to a derived cell.
var ErrReadOnly = errors.New("reactor: derived cells are computed, not assigned")

// derived is the recomputation engine shared by Computed and ComputedList.
// The equality function decides whether a forced recompute changed the
// value and therefore whether listeners fire.
type derived[T any] struct {
	rctx       *ReactiveContext
	fn         func() T
	value      T
	dirty      bool
	eager      bool
	deps       mapset.Set[Observable]
	dependents dependentSet
	listeners  listeners[T]
	equal      func(a, b T) bool
}

func newDerived[T any](rctx *ReactiveContext, fn func() T, eager bool, equal func(a, b T) bool) *derived[T] {
	d := &derived[T]{
		rctx:  rctx,
		fn:    fn,
		dirty: true,
		eager: eager,
		equal: equal,
	}
	// first evaluation materializes the initial dependency edges
	d.recompute()
	return d
}

// recompute runs the derivation inside a tracked evaluation and swaps in
// the freshly discovered dependency set, dropping only edges that were not
// re-read this run. If the derivation panics nothing is swapped: the cell
// stays dirty with its previous cache and edges, and any edge the aborted
// run registered beyond those is unlinked again before the panic
// propagates. A later read or invalidation retries.
func (d *derived[T]) recompute() {
	reads := mapset.NewThreadUnsafeSet[Observable]()
	committed := false
	defer func() {
		if committed {
			return
		}
		for _, o := range reads.ToSlice() {
			if d.deps == nil || !d.deps.Contains(o) {
				o.removeDependent(d)
			}
		}
	}()

	var next T
	d.rctx.track(d, reads, func() {
		next = d.fn()
	})
	committed = true

	if d.deps != nil {
		for _, old := range d.deps.ToSlice() {
			if !reads.Contains(old) {
				old.removeDependent(d)
			}
		}
	}
	d.deps = reads
	d.value = next
	d.dirty = false
}

// invalidate marks the cell dirty and propagates depth-first to its own
// dependents. An already-dirty cell does not re-propagate, which caps
// propagation at one pass per node per write, but it still takes the
// recompute branch below so an eager or observed cell that was left dirty
// (listener added after the mark, or a recompute that panicked) catches
// up on the next invalidation. Listeners fire only when the value changed.
func (d *derived[T]) invalidate() {
	prev := d.value
	if !d.dirty {
		d.dirty = true
		d.dependents.invalidateAll()
	}
	if d.eager || !d.listeners.empty() {
		if d.dirty {
			// a dependent may already have forced the recompute while
			// handling its own invalidation
			d.recompute()
		}
		if !d.equal(prev, d.value) {
			d.listeners.fire(d.value)
		}
	}
}

func (d *derived[T]) peek() T {
	if d.dirty {
		d.recompute()
	}
	return d.value
}

func (d *derived[T]) read() T {
	d.rctx.trackDependency(d)
	if d.dirty {
		d.recompute()
	}
	return d.value
}

// stop unlinks the cell from all of its sources so it is never invalidated
// again and becomes collectable.
func (d *derived[T]) stop() {
	for _, o := range d.deps.ToSlice() {
		o.removeDependent(d)
	}
	d.deps.Clear()
}

func (d *derived[T]) addDependent(dep Dependent)    { d.dependents.add(dep) }
func (d *derived[T]) removeDependent(dep Dependent) { d.dependents.remove(dep) }

// Computed is a memoized pure function of other cells. It recomputes
// lazily when read while dirty, or immediately upon invalidation when
// eager or observed.
type Computed[T comparable] struct {
	*derived[T]
}

// NewComputed creates a lazily recomputed derived cell. The derivation
// runs once immediately to discover its initial dependencies.
func NewComputed[T comparable](rctx *ReactiveContext, fn func() T) *Computed[T] {
	return &Computed[T]{newDerived(rctx, fn, false, equalValues[T])}
}

// NewEagerComputed creates a derived cell that recomputes as soon as any
// dependency changes rather than waiting for the next read.
func NewEagerComputed[T comparable](rctx *ReactiveContext, fn func() T) *Computed[T] {
	return &Computed[T]{newDerived(rctx, fn, true, equalValues[T])}
}

func equalValues[T comparable](a, b T) bool { return a == b }

// Peek returns the current value, recomputing first if dirty, without
// registering a dependency edge.
func (c *Computed[T]) Peek() T {
	return c.peek()
}

// Value returns the current value, recomputing first if dirty; inside a
// derivation it registers this cell as a dependency.
func (c *Computed[T]) Value() T {
	return c.read()
}

// Set always fails with ErrReadOnly. Derived values are computed from
// their sources, never assigned; the rejected call leaves graph state
// unchanged.
func (c *Computed[T]) Set(T) error {
	return ErrReadOnly
}

// OnChange registers fn to be called with each new value. Registering a
// listener makes the cell recompute eagerly on invalidation.
func (c *Computed[T]) OnChange(fn func(T)) (remove func()) {
	return c.listeners.add(fn)
}

// PeekAny implements the type-erased Node surface.
func (c *Computed[T]) PeekAny() any {
	return c.peek()
}

// OnChangeAny implements the type-erased Node surface.
func (c *Computed[T]) OnChangeAny(fn func(any)) (remove func()) {
	return c.listeners.add(func(v T) { fn(v) })
}

func (c *Computed[T]) context() *ReactiveContext { return c.rctx }

// Map builds a derived cell applying f to each value of cell.
func Map[T, R comparable](cell Reader[T], f func(T) R) *Computed[R] {
	return NewComputed(cell.context(), func() R {
		return f(cell.Value())
	})
}

// Effect runs fn once immediately and again whenever any cell it read
// changes. The returned stop func unlinks it from all of its sources.
func Effect(rctx *ReactiveContext, fn func()) (stop func()) {
	d := newDerived(rctx, func() struct{} {
		fn()
		return struct{}{}
	}, true, func(a, b struct{}) bool { return true })
	return d.stop
}
