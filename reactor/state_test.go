package reactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateReadWrite(t *testing.T) {
	rctx := NewReactiveContext()

	s := NewState(rctx, 7)
	assert.Equal(t, 7, s.Peek())
	assert.Equal(t, 7, s.Value())

	s.Set(9)
	assert.Equal(t, 9, s.Peek())

	s.Update(func(v int) int { return v * 2 })
	assert.Equal(t, 18, s.Peek())
}

// should not notify on a value-equal write
func TestStateEqualWriteIsSilent(t *testing.T) {
	rctx := NewReactiveContext()

	s := NewState(rctx, 5)
	callCount := 0
	s.OnChange(func(int) { callCount++ })

	recomputes := 0
	d := NewComputed(rctx, func() int {
		recomputes++
		return s.Value() * 2
	})
	assert.Equal(t, 1, recomputes)

	s.Set(5)
	assert.Equal(t, 0, callCount)
	assert.Equal(t, 10, d.Peek())
	assert.Equal(t, 1, recomputes)

	s.Set(6)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 12, d.Peek())
	assert.Equal(t, 2, recomputes)
}

// should inform dependents before external listeners
func TestStateDependentsBeforeListeners(t *testing.T) {
	rctx := NewReactiveContext()

	s := NewState(rctx, 1)
	d := NewEagerComputed(rctx, func() int {
		return s.Value() * 2
	})

	s.OnChange(func(v int) {
		// derived state is already consistent by the time listeners run
		assert.Equal(t, v*2, d.Peek())
	})
	s.Set(3)
	s.Set(4)
}

func TestStateListenerRemoval(t *testing.T) {
	rctx := NewReactiveContext()

	s := NewState(rctx, 0)
	calls := []int{}
	remove := s.OnChange(func(v int) { calls = append(calls, v) })

	s.Set(1)
	remove()
	s.Set(2)
	assert.Equal(t, []int{1}, calls)

	// removing twice is harmless
	remove()
	s.Set(3)
	assert.Equal(t, []int{1}, calls)
}

// should process reentrant writes synchronously, last call wins
func TestStateReentrantWrite(t *testing.T) {
	rctx := NewReactiveContext()

	s := NewState(rctx, 0)
	seen := []int{}
	nested := false
	s.OnChange(func(v int) {
		seen = append(seen, v)
		if !nested {
			nested = true
			s.Set(100)
		}
	})

	s.Set(1)
	assert.Equal(t, []int{1, 100}, seen)
	assert.Equal(t, 100, s.Peek())
}

// reads outside a derivation establish no edges
func TestUntrackedReadsRegisterNothing(t *testing.T) {
	rctx := NewReactiveContext()

	s := NewState(rctx, 1)
	_ = s.Value()

	recomputes := 0
	d := NewComputed(rctx, func() int {
		recomputes++
		return s.Peek() // peek never tracks
	})
	assert.Equal(t, 1, d.Peek())

	s.Set(2)
	assert.Equal(t, 1, d.Peek(), "peek inside the derivation must not register an edge")
	assert.Equal(t, 1, recomputes)
}

func TestUntrackedScope(t *testing.T) {
	rctx := NewReactiveContext()

	a := NewState(rctx, 1)
	b := NewState(rctx, 10)

	recomputes := 0
	d := NewComputed(rctx, func() int {
		recomputes++
		av := a.Value()
		bv := 0
		rctx.Untracked(func() {
			bv = b.Value()
		})
		return av + bv
	})
	assert.Equal(t, 11, d.Peek())

	b.Set(20)
	assert.Equal(t, 11, d.Peek(), "untracked read must not create an edge")
	assert.Equal(t, 1, recomputes)

	a.Set(2)
	assert.Equal(t, 22, d.Peek())
	assert.Equal(t, 2, recomputes)
}
