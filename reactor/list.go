package reactor

import "slices"

type elemEvent[T any] struct {
	value T
	index int
}

// List is a mutable ordered sequence with the same observable contract as
// a source cell plus per-element add/remove notifications. Dependency
// granularity is the whole collection: any structural change invalidates
// every reader.
type List[T comparable] struct {
	rctx             *ReactiveContext
	items            []T
	dependents       dependentSet
	changeListeners  listeners[[]T]
	addedListeners   elemListeners[T]
	removedListeners elemListeners[T]
}

// NewList creates a reactive list holding the given items.
func NewList[T comparable](rctx *ReactiveContext, items ...T) *List[T] {
	return &List[T]{rctx: rctx, items: slices.Clone(items)}
}

func (l *List[T]) snapshot() []T {
	return slices.Clone(l.items)
}

// changed performs the one-per-call notification pass: dependents first,
// then element events with the index captured at the moment of the
// structural change, then whole-list listeners.
func (l *List[T]) changed(removed, added []elemEvent[T]) {
	l.dependents.invalidateAll()
	for _, e := range removed {
		l.removedListeners.fire(e.value, e.index)
	}
	for _, e := range added {
		l.addedListeners.fire(e.value, e.index)
	}
	l.changeListeners.fire(l.snapshot())
}

// Peek returns a copy of the backing sequence without registering a
// dependency edge.
func (l *List[T]) Peek() []T {
	return l.snapshot()
}

// Value returns a copy of the backing sequence; inside a derivation it
// registers the whole list as a dependency.
func (l *List[T]) Value() []T {
	l.rctx.trackDependency(l)
	return l.snapshot()
}

// Len reports the number of elements, registering a dependency on the
// whole list.
func (l *List[T]) Len() int {
	l.rctx.trackDependency(l)
	return len(l.items)
}

// At returns the element at index i, registering a dependency on the whole
// list. ok is false when i is out of range.
func (l *List[T]) At(i int) (v T, ok bool) {
	l.rctx.trackDependency(l)
	if i < 0 || i >= len(l.items) {
		return v, false
	}
	return l.items[i], true
}

// Find returns the first element satisfying pred, registering a dependency
// on the whole list.
func (l *List[T]) Find(pred func(T) bool) (v T, ok bool) {
	l.rctx.trackDependency(l)
	for _, item := range l.items {
		if pred(item) {
			return item, true
		}
	}
	return v, false
}

// Append adds v at the end of the list.
func (l *List[T]) Append(v T) {
	l.items = append(l.items, v)
	l.changed(nil, []elemEvent[T]{{value: v, index: len(l.items) - 1}})
}

// Insert places v at index i, clamped to [0, Len].
func (l *List[T]) Insert(i int, v T) {
	if i < 0 {
		i = 0
	}
	if i > len(l.items) {
		i = len(l.items)
	}
	l.items = slices.Insert(l.items, i, v)
	l.changed(nil, []elemEvent[T]{{value: v, index: i}})
}

// Remove deletes the first occurrence of v. Absent values are a no-op.
func (l *List[T]) Remove(v T) {
	i := slices.Index(l.items, v)
	if i == -1 {
		return
	}
	l.items = slices.Delete(l.items, i, i+1)
	l.changed([]elemEvent[T]{{value: v, index: i}}, nil)
}

// RemoveAt deletes the element at index i. Out-of-range indices are a
// no-op.
func (l *List[T]) RemoveAt(i int) {
	if i < 0 || i >= len(l.items) {
		return
	}
	v := l.items[i]
	l.items = slices.Delete(l.items, i, i+1)
	l.changed([]elemEvent[T]{{value: v, index: i}}, nil)
}

// Update replaces the element at index i with v. Out-of-range indices and
// value-equal replacements are no-ops.
func (l *List[T]) Update(i int, v T) {
	if i < 0 || i >= len(l.items) || l.items[i] == v {
		return
	}
	prev := l.items[i]
	l.items[i] = v
	l.changed([]elemEvent[T]{{value: prev, index: i}}, []elemEvent[T]{{value: v, index: i}})
}

// Clear removes every element, emitting removals last-to-first. Clearing
// an empty list is a no-op.
func (l *List[T]) Clear() {
	if len(l.items) == 0 {
		return
	}
	removed := make([]elemEvent[T], 0, len(l.items))
	for i := len(l.items) - 1; i >= 0; i-- {
		removed = append(removed, elemEvent[T]{value: l.items[i], index: i})
	}
	l.items = l.items[:0]
	l.changed(removed, nil)
}

// Replace swaps the whole sequence for items, emitting removals
// last-to-first (so each index is valid at the moment it is reported) and
// additions first-to-last. Replacing with an equal sequence is a no-op.
func (l *List[T]) Replace(items []T) {
	if slices.Equal(l.items, items) {
		return
	}
	removed := make([]elemEvent[T], 0, len(l.items))
	for i := len(l.items) - 1; i >= 0; i-- {
		removed = append(removed, elemEvent[T]{value: l.items[i], index: i})
	}
	added := make([]elemEvent[T], 0, len(items))
	for i, v := range items {
		added = append(added, elemEvent[T]{value: v, index: i})
	}
	l.items = slices.Clone(items)
	l.changed(removed, added)
}

// OnChange registers fn to receive a copy of the list after every
// structural change. The returned func removes the listener.
func (l *List[T]) OnChange(fn func([]T)) (remove func()) {
	return l.changeListeners.add(fn)
}

// OnAdd registers fn to receive each added element and its index at the
// time of the addition.
func (l *List[T]) OnAdd(fn func(v T, index int)) (remove func()) {
	return l.addedListeners.add(fn)
}

// OnRemove registers fn to receive each removed element and its index at
// the time of the removal.
func (l *List[T]) OnRemove(fn func(v T, index int)) (remove func()) {
	return l.removedListeners.add(fn)
}

// PeekAny implements the type-erased Node surface.
func (l *List[T]) PeekAny() any {
	return l.snapshot()
}

// OnChangeAny implements the type-erased Node surface.
func (l *List[T]) OnChangeAny(fn func(any)) (remove func()) {
	return l.changeListeners.add(func(v []T) { fn(v) })
}

func (l *List[T]) context() *ReactiveContext { return l.rctx }

func (l *List[T]) addDependent(d Dependent)    { l.dependents.add(d) }
func (l *List[T]) removeDependent(d Dependent) { l.dependents.remove(d) }

// ComputedList is the collection-derived node type: a memoized derivation
// whose value is an ordered sequence. Keeping it distinct from Computed
// makes element-wise transforms a static capability instead of a runtime
// type test.
type ComputedList[T comparable] struct {
	*derived[[]T]
}

// NewComputedList creates a lazily recomputed collection-derived cell.
func NewComputedList[T comparable](rctx *ReactiveContext, fn func() []T) *ComputedList[T] {
	return &ComputedList[T]{newDerived(rctx, fn, false, slices.Equal[[]T])}
}

// Peek returns a copy of the current sequence, recomputing first if dirty,
// without registering a dependency edge.
func (c *ComputedList[T]) Peek() []T {
	return slices.Clone(c.peek())
}

// Value returns a copy of the current sequence, recomputing first if
// dirty; inside a derivation it registers this cell as a dependency.
func (c *ComputedList[T]) Value() []T {
	return slices.Clone(c.read())
}

// Set always fails with ErrReadOnly.
func (c *ComputedList[T]) Set([]T) error {
	return ErrReadOnly
}

// OnChange registers fn to receive a copy of each new sequence.
func (c *ComputedList[T]) OnChange(fn func([]T)) (remove func()) {
	return c.listeners.add(func(v []T) { fn(slices.Clone(v)) })
}

// PeekAny implements the type-erased Node surface.
func (c *ComputedList[T]) PeekAny() any {
	return slices.Clone(c.peek())
}

// OnChangeAny implements the type-erased Node surface.
func (c *ComputedList[T]) OnChangeAny(fn func(any)) (remove func()) {
	return c.listeners.add(func(v []T) { fn(slices.Clone(v)) })
}

func (c *ComputedList[T]) context() *ReactiveContext { return c.rctx }

// MapList builds a collection-derived cell applying f to every element of
// src. Chained transforms run through the derived-cell recomputation
// machinery, not an incremental diff.
func MapList[T, R comparable](src Reader[[]T], f func(T) R) *ComputedList[R] {
	return NewComputedList(src.context(), func() []R {
		items := src.Value()
		out := make([]R, len(items))
		for i, v := range items {
			out[i] = f(v)
		}
		return out
	})
}

// FilterList builds a collection-derived cell keeping the elements of src
// that satisfy pred.
func FilterList[T comparable](src Reader[[]T], pred func(T) bool) *ComputedList[T] {
	return NewComputedList(src.context(), func() []T {
		items := src.Value()
		out := make([]T, 0, len(items))
		for _, v := range items {
			if pred(v) {
				out = append(out, v)
			}
		}
		return out
	})
}
