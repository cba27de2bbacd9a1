// Package reactor is a small synchronous reactive-computation runtime.
// Callers declare mutable state cells and pure derivations over them;
// the runtime discovers the dependency graph by intercepting tracked
// reads and keeps every derivation consistent with its sources.
package reactor

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Observable is a node that dependents can register with. Every cell and
// the reactive list implement it.
type Observable interface {
	addDependent(d Dependent)
	removeDependent(d Dependent)
}

// Dependent is a node that can be told one of its dependencies changed.
// Only derived cells are dependents.
type Dependent interface {
	invalidate()
}

// Reader is the typed read surface shared by every reactive cell.
type Reader[T any] interface {
	// Value reads the current value and, inside a tracked evaluation,
	// registers a dependency edge.
	Value() T
	// Peek reads the current value without ever registering an edge.
	Peek() T
	// OnChange registers a change listener and returns its removal func.
	OnChange(fn func(T)) (remove func())

	context() *ReactiveContext
}

// Node is the type-erased read surface, used by consumers that hold a
// heterogeneous set of cells (see the bind package).
type Node interface {
	// PeekAny is an untracked read of the current value.
	PeekAny() any
	// OnChangeAny registers a change listener and returns its removal func.
	OnChangeAny(fn func(any)) (remove func())
}

type frame struct {
	dep   Dependent
	reads mapset.Set[Observable]
}

// ReactiveContext coordinates dependency tracking for one reactive graph.
// It holds the stack of currently evaluating dependents; each stack frame
// accumulates the set of observables read during that evaluation. A single
// context is single-threaded, but distinct contexts are fully independent
// so a concurrent host can run one per goroutine.
type ReactiveContext struct {
	frames []*frame
}

// NewReactiveContext returns an empty context.
func NewReactiveContext() *ReactiveContext {
	return &ReactiveContext{}
}

// track evaluates fn with dep as the current dependent, accumulating the
// observables read into reads. The caller owns the accumulator so it can
// inspect what a panicking fn read before the panic. The frame is popped
// on every exit path, so a panic inside fn unwinds past a consistent
// stack.
func (rc *ReactiveContext) track(dep Dependent, reads mapset.Set[Observable], fn func()) {
	f := &frame{dep: dep, reads: reads}
	rc.frames = append(rc.frames, f)
	defer func() {
		rc.frames = rc.frames[:len(rc.frames)-1]
	}()
	fn()
}

// trackDependency records a read of o by the evaluation in progress, if
// any. Reads outside a tracked evaluation establish no edges.
func (rc *ReactiveContext) trackDependency(o Observable) {
	if len(rc.frames) == 0 {
		return
	}
	top := rc.frames[len(rc.frames)-1]
	top.reads.Add(o)
	o.addDependent(top.dep)
}

// Untracked runs fn with dependency tracking suspended. Tracked reads made
// inside fn behave like reads outside any evaluation.
func (rc *ReactiveContext) Untracked(fn func()) {
	suspended := rc.frames
	rc.frames = nil
	defer func() {
		rc.frames = suspended
	}()
	fn()
}
