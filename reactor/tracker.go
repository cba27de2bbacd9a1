package reactor

import "slices"

// dependentSet keeps dependents unique and in registration order, which
// fixes the invalidation order seen for a single write.
type dependentSet struct {
	dependents []Dependent
}

func (s *dependentSet) add(d Dependent) {
	if !slices.Contains(s.dependents, d) {
		s.dependents = append(s.dependents, d)
	}
}

func (s *dependentSet) remove(d Dependent) {
	if i := slices.Index(s.dependents, d); i != -1 {
		s.dependents = slices.Delete(s.dependents, i, i+1)
	}
}

func (s *dependentSet) invalidateAll() {
	// cloning to avoid mutation during iteration: an eager dependent
	// recomputes inside invalidate and re-registers its edges
	for _, d := range slices.Clone(s.dependents) {
		d.invalidate()
	}
}

type listener[T any] struct {
	fn func(T)
}

// listeners is a change-listener registry. Handles are pointers so removal
// works on identity even when the same func is registered twice.
type listeners[T any] struct {
	entries []*listener[T]
}

func (l *listeners[T]) add(fn func(T)) (remove func()) {
	entry := &listener[T]{fn: fn}
	l.entries = append(l.entries, entry)
	return func() {
		if i := slices.Index(l.entries, entry); i != -1 {
			l.entries = slices.Delete(l.entries, i, i+1)
		}
	}
}

func (l *listeners[T]) fire(v T) {
	for _, entry := range slices.Clone(l.entries) {
		entry.fn(v)
	}
}

func (l *listeners[T]) empty() bool {
	return len(l.entries) == 0
}

type elemListener[T any] struct {
	fn func(v T, index int)
}

// elemListeners is the registry for the list's per-element add/remove
// events.
type elemListeners[T any] struct {
	entries []*elemListener[T]
}

func (l *elemListeners[T]) add(fn func(v T, index int)) (remove func()) {
	entry := &elemListener[T]{fn: fn}
	l.entries = append(l.entries, entry)
	return func() {
		if i := slices.Index(l.entries, entry); i != -1 {
			l.entries = slices.Delete(l.entries, i, i+1)
		}
	}
}

func (l *elemListeners[T]) fire(v T, index int) {
	for _, entry := range slices.Clone(l.entries) {
		entry.fn(v, index)
	}
}
