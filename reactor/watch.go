package reactor

// Subscription binds one external callback to a cell's change
// notifications.
type Subscription struct {
	remove func()
}

// Dispose removes the listener. After disposal the callback never fires
// again and the handle holds no references; repeated calls are no-ops.
func (s *Subscription) Dispose() {
	if s.remove != nil {
		s.remove()
		s.remove = nil
	}
}

// Watch invokes cb once immediately with the cell's current untracked
// value, then again with the latest value on every subsequent change.
func Watch[T any](cell Reader[T], cb func(T)) *Subscription {
	cb(cell.Peek())
	return &Subscription{remove: cell.OnChange(cb)}
}

// WatchAny is Watch over the type-erased Node surface.
func WatchAny(node Node, cb func(any)) *Subscription {
	cb(node.PeekAny())
	return &Subscription{remove: node.OnChangeAny(cb)}
}
