package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
	a  b
	| /
	c
*/
func TestComputedMemoizes(t *testing.T) {
	rctx := NewReactiveContext()

	a := NewState(rctx, 7)
	b := NewState(rctx, 1)
	callCount := 0
	c := NewComputed(rctx, func() int {
		callCount++
		return a.Value() * b.Value()
	})

	// constructor runs the derivation once
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 7, c.Peek())
	assert.Equal(t, 7, c.Peek())
	assert.Equal(t, 1, callCount)

	a.Set(2)
	assert.Equal(t, 2, c.Peek())
	b.Set(3)
	assert.Equal(t, 6, c.Peek())
	assert.Equal(t, 3, callCount)
}

// a lazily-consumed chain recomputes at most once per write even when
// invalidated repeatedly before being read
func TestComputedLazyRecomputeOncePerRead(t *testing.T) {
	rctx := NewReactiveContext()

	a := NewState(rctx, 1)
	callCount := 0
	c := NewComputed(rctx, func() int {
		callCount++
		return a.Value() * 10
	})
	assert.Equal(t, 1, callCount)

	a.Set(2)
	a.Set(3)
	a.Set(4)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 40, c.Peek())
	assert.Equal(t, 2, callCount)
}

/*
	a
	|
	b
	|
	c
*/
func TestComputedChainRunsOncePerWrite(t *testing.T) {
	rctx := NewReactiveContext()

	a := NewState(rctx, 1)
	bRuns, cRuns := 0, 0
	b := NewComputed(rctx, func() int {
		bRuns++
		return a.Value() + 1
	})
	c := NewComputed(rctx, func() int {
		cRuns++
		return b.Value() + 1
	})
	assert.Equal(t, 3, c.Peek())
	bRuns, cRuns = 0, 0

	a.Set(5)
	assert.Equal(t, 7, c.Peek())
	assert.Equal(t, 1, bRuns)
	assert.Equal(t, 1, cRuns)
}

// should switch dependencies when the execution path changes
func TestComputedDynamicDependencies(t *testing.T) {
	rctx := NewReactiveContext()

	cond := NewState(rctx, true)
	a := NewState(rctx, 1)
	b := NewState(rctx, 100)

	callCount := 0
	d := NewComputed(rctx, func() int {
		callCount++
		if cond.Value() {
			return a.Value()
		}
		return b.Value()
	})
	assert.Equal(t, 1, d.Peek())

	b.Set(200)
	assert.Equal(t, 1, d.Peek(), "write to unread branch must not invalidate")
	assert.Equal(t, 1, callCount)

	cond.Set(false)
	assert.Equal(t, 200, d.Peek())
	assert.Equal(t, 2, callCount)

	// after the switch, a is no longer a dependency
	a.Set(2)
	assert.Equal(t, 200, d.Peek())
	assert.Equal(t, 2, callCount)

	b.Set(300)
	assert.Equal(t, 300, d.Peek())
	assert.Equal(t, 3, callCount)
}

func TestComputedEagerRecomputesOnWrite(t *testing.T) {
	rctx := NewReactiveContext()

	a := NewState(rctx, 1)
	callCount := 0
	d := NewEagerComputed(rctx, func() int {
		callCount++
		return a.Value() * 2
	})
	assert.Equal(t, 1, callCount)

	a.Set(2)
	assert.Equal(t, 2, callCount)
	assert.Equal(t, 4, d.Peek())
	assert.Equal(t, 2, callCount)
}

// listeners fire only when the derived value actually changed
func TestComputedListenerOnlyOnChange(t *testing.T) {
	rctx := NewReactiveContext()

	a := NewState(rctx, 1)
	d := NewComputed(rctx, func() int {
		return a.Value() / 2
	})

	seen := []int{}
	d.OnChange(func(v int) { seen = append(seen, v) })

	a.Set(3) // 0 -> 1, fires
	a.Set(2) // still 1, silent
	a.Set(5) // 1 -> 2, fires
	assert.Equal(t, []int{1, 2}, seen)
}

func TestComputedWriteRejected(t *testing.T) {
	rctx := NewReactiveContext()

	a := NewState(rctx, 1)
	d := NewComputed(rctx, func() int { return a.Value() })

	err := d.Set(42)
	require.ErrorIs(t, err, ErrReadOnly)
	assert.Equal(t, 1, d.Peek(), "rejected write leaves graph state unchanged")
}

// a panicking derivation leaves the cell dirty so a later read retries,
// and the tracker stack stays usable
func TestComputedPanicLeavesCellRetryable(t *testing.T) {
	rctx := NewReactiveContext()

	a := NewState(rctx, 1)
	boom := false
	callCount := 0
	d := NewComputed(rctx, func() int {
		callCount++
		if boom {
			panic("derivation fault")
		}
		return a.Value() * 2
	})
	assert.Equal(t, 2, d.Peek())

	boom = true
	a.Set(5)
	assert.PanicsWithValue(t, "derivation fault", func() { d.Peek() })

	// previous cache and edges survive, the next read retries
	boom = false
	assert.Equal(t, 10, d.Peek())
	assert.Equal(t, 3, callCount)

	// the graph still tracks normally after the fault
	other := NewComputed(rctx, func() int { return d.Value() + 1 })
	a.Set(10)
	assert.Equal(t, 21, other.Peek())
}

// a listener added while the cell is dirty fires from the next write on
func TestComputedListenerAddedWhileDirty(t *testing.T) {
	rctx := NewReactiveContext()

	a := NewState(rctx, 1)
	d := NewComputed(rctx, func() int {
		return a.Value() * 2
	})

	a.Set(2) // d is dirty and unread
	seen := []int{}
	d.OnChange(func(v int) { seen = append(seen, v) })

	a.Set(3)
	assert.Equal(t, []int{6}, seen)
	a.Set(4)
	assert.Equal(t, []int{6, 8}, seen)
}

// an eager cell whose recompute panicked retries on the next invalidation
// instead of staying dirty forever
func TestEagerRecoversAfterPanic(t *testing.T) {
	rctx := NewReactiveContext()

	a := NewState(rctx, 1)
	boom := false
	runs := 0
	d := NewEagerComputed(rctx, func() int {
		runs++
		if boom {
			panic("derivation fault")
		}
		return a.Value() * 2
	})
	assert.Equal(t, 1, runs)

	boom = true
	assert.PanicsWithValue(t, "derivation fault", func() { a.Set(2) })
	assert.Equal(t, 2, runs)

	boom = false
	a.Set(3)
	assert.Equal(t, 3, runs)
	assert.Equal(t, 6, d.Peek())
}

// a source read only by an aborted run must not keep the cell as a
// dependent once a later run succeeds without it
func TestPanicUnlinksEdgesFromAbortedRun(t *testing.T) {
	rctx := NewReactiveContext()

	a := NewState(rctx, 1)
	x := NewState(rctx, 0)
	boom := false
	calls := 0
	d := NewComputed(rctx, func() int {
		calls++
		if boom {
			x.Value()
			panic("derivation fault")
		}
		return a.Value()
	})
	assert.Equal(t, 1, d.Peek())

	boom = true
	a.Set(2)
	assert.PanicsWithValue(t, "derivation fault", func() { d.Peek() })

	boom = false
	assert.Equal(t, 2, d.Peek())
	assert.Equal(t, 3, calls)

	// x is not a dependency of the successful run
	x.Set(99)
	assert.Equal(t, 2, d.Peek())
	assert.Equal(t, 3, calls)
}

func TestMapConvenience(t *testing.T) {
	rctx := NewReactiveContext()

	a := NewState(rctx, 2)
	sq := Map[int](a, func(v int) int { return v * v })
	assert.Equal(t, 4, sq.Peek())

	a.Set(3)
	assert.Equal(t, 9, sq.Peek())

	// map chains through the ordinary derivation machinery
	label := Map[int](sq, func(v int) string {
		if v > 5 {
			return "big"
		}
		return "small"
	})
	assert.Equal(t, "big", label.Peek())
	a.Set(1)
	assert.Equal(t, "small", label.Peek())
}

func TestEffect(t *testing.T) {
	rctx := NewReactiveContext()

	a := NewState(rctx, 1)
	seen := []int{}
	stop := Effect(rctx, func() {
		seen = append(seen, a.Value())
	})
	assert.Equal(t, []int{1}, seen)

	a.Set(2)
	assert.Equal(t, []int{1, 2}, seen)

	stop()
	a.Set(3)
	assert.Equal(t, []int{1, 2}, seen)
}

// nested derivations: transitively-read sources belong to the inner cell
func TestNestedTrackingDoesNotLeak(t *testing.T) {
	rctx := NewReactiveContext()

	a := NewState(rctx, 1)
	inner := NewComputed(rctx, func() int { return a.Value() * 2 })

	outerRuns := 0
	outer := NewComputed(rctx, func() int {
		outerRuns++
		return inner.Value() + 1
	})
	assert.Equal(t, 3, outer.Peek())
	outerRuns = 0

	// outer depends on inner, not on a directly; invalidation still
	// flows through inner
	a.Set(2)
	assert.Equal(t, 5, outer.Peek())
	assert.Equal(t, 1, outerRuns)
}
