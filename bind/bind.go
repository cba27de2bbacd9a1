// Package bind copies reactive values onto plain object fields and keeps
// them updated, consuming only the reactor package's public surface.
package bind

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/daireb/reactor-js/reactor"
)

var (
	// ErrTarget is returned when the binding target has the wrong shape.
	ErrTarget = errors.New("bind: target must be a non-nil pointer to a struct")
	// ErrUnknownField is returned for table keys with no matching field.
	ErrUnknownField = errors.New("bind: no such field")
	// ErrUnassignable is returned when a value cannot be stored in its field.
	ErrUnassignable = errors.New("bind: value not assignable to field")
)

// Fields binds table entries onto the fields of the struct that target
// points to. Entries that are reactive nodes are seeded with one untracked
// read and kept updated through the watch surface; plain values are
// assigned once. The returned dispose tears down every subscription
// created. On error no subscriptions are left behind.
func Fields(target any, table map[string]any) (dispose func(), err error) {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return nil, ErrTarget
	}
	elem := rv.Elem()

	var subs []*reactor.Subscription
	disposeAll := func() {
		for _, s := range subs {
			s.Dispose()
		}
	}

	for name, value := range table {
		name := name
		field := elem.FieldByName(name)
		if !field.IsValid() || !field.CanSet() {
			disposeAll()
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, name)
		}

		assign := func(v any) error {
			val := reflect.ValueOf(v)
			if !val.IsValid() {
				field.SetZero()
				return nil
			}
			if !val.Type().AssignableTo(field.Type()) {
				return fmt.Errorf("%w: %s (%s to %s)", ErrUnassignable, name, val.Type(), field.Type())
			}
			field.Set(val)
			return nil
		}

		node, ok := value.(reactor.Node)
		if !ok {
			if err := assign(value); err != nil {
				disposeAll()
				return nil, err
			}
			continue
		}

		// validate against the current value before subscribing; later
		// values of a cell share its type
		if seed := reflect.ValueOf(node.PeekAny()); seed.IsValid() && !seed.Type().AssignableTo(field.Type()) {
			disposeAll()
			return nil, fmt.Errorf("%w: %s (%s to %s)", ErrUnassignable, name, seed.Type(), field.Type())
		}
		// the watch surface seeds the field immediately, then keeps it
		// updated
		subs = append(subs, reactor.WatchAny(node, func(v any) {
			_ = assign(v)
		}))
	}

	return disposeAll, nil
}

// Map binds table entries onto keys of target. Reactive entries are
// seeded and kept updated; plain values are assigned once. The returned
// dispose tears down every subscription created.
func Map(target map[string]any, table map[string]any) (dispose func()) {
	var subs []*reactor.Subscription
	for name, value := range table {
		name := name
		node, ok := value.(reactor.Node)
		if !ok {
			target[name] = value
			continue
		}
		subs = append(subs, reactor.WatchAny(node, func(v any) {
			target[name] = v
		}))
	}
	return func() {
		for _, s := range subs {
			s.Dispose()
		}
	}
}
