package reactor

// State is a mutable holder of one value, the only node type a caller
// writes directly.
type State[T comparable] struct {
	rctx       *ReactiveContext
	value      T
	dependents dependentSet
	listeners  listeners[T]
}

// NewState creates a source cell with the given initial value.
func NewState[T comparable](rctx *ReactiveContext, value T) *State[T] {
	return &State[T]{rctx: rctx, value: value}
}

// Peek reads the current value without registering a dependency edge.
func (s *State[T]) Peek() T {
	return s.value
}

// Value reads the current value; inside a derivation it registers this
// cell as a dependency of the evaluating derived cell.
func (s *State[T]) Value() T {
	s.rctx.trackDependency(s)
	return s.value
}

// Set stores a new value. A write that is equal to the current value does
// nothing. Otherwise every dependent derivation is invalidated, in
// registration order, before any change listener fires; listeners thus
// observe an already-consistent derived state.
func (s *State[T]) Set(value T) {
	if value == s.value {
		return
	}
	s.value = value
	s.dependents.invalidateAll()
	s.listeners.fire(value)
}

// Update applies fn to the current value and writes the result.
func (s *State[T]) Update(fn func(T) T) {
	s.Set(fn(s.value))
}

// OnChange registers fn to be called with each new value. The returned
// func removes the listener.
func (s *State[T]) OnChange(fn func(T)) (remove func()) {
	return s.listeners.add(fn)
}

// PeekAny implements the type-erased Node surface.
func (s *State[T]) PeekAny() any {
	return s.value
}

// OnChangeAny implements the type-erased Node surface.
func (s *State[T]) OnChangeAny(fn func(any)) (remove func()) {
	return s.listeners.add(func(v T) { fn(v) })
}

func (s *State[T]) context() *ReactiveContext { return s.rctx }

func (s *State[T]) addDependent(d Dependent)    { s.dependents.add(d) }
func (s *State[T]) removeDependent(d Dependent) { s.dependents.remove(d) }
