// ABOUTME: Membership of currently open listeners
// ABOUTME: Idempotent add/remove and fan-out with lazy pruning
package relay

import "errors"

// Registry tracks registered listeners by ID. It is pure bookkeeping and
// not safe for concurrent use; the Engine serializes every call.
type Registry struct {
	listeners map[string]Listener
}

// BroadcastResult summarizes one fan-out
type BroadcastResult struct {
	Delivered int
	Busy      int
	Pruned    int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{listeners: make(map[string]Listener)}
}

// Add registers l. Adding a member again is a no-op; it reports whether l was new.
func (r *Registry) Add(l Listener) bool {
	if _, ok := r.listeners[l.ID()]; ok {
		return false
	}
	r.listeners[l.ID()] = l
	return true
}

// Remove unregisters l. Removing a non-member is a no-op; it reports whether l was present.
func (r *Registry) Remove(l Listener) bool {
	if _, ok := r.listeners[l.ID()]; !ok {
		return false
	}
	delete(r.listeners, l.ID())
	return true
}

// Contains reports whether l is registered
func (r *Registry) Contains(l Listener) bool {
	_, ok := r.listeners[l.ID()]
	return ok
}

// Len returns the number of registered listeners
func (r *Registry) Len() int {
	return len(r.listeners)
}

// Broadcast offers chunk to every listener registered at call time.
// Listeners that are not open, or fail with anything but ErrListenerBusy,
// are pruned. No error is ever propagated to the caller.
func (r *Registry) Broadcast(chunk []byte) BroadcastResult {
	members := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		members = append(members, l)
	}

	var res BroadcastResult
	for _, l := range members {
		if !l.IsOpen() {
			delete(r.listeners, l.ID())
			res.Pruned++
			continue
		}

		err := l.TrySend(chunk)
		switch {
		case err == nil:
			res.Delivered++
		case errors.Is(err, ErrListenerBusy):
			res.Busy++
		default:
			delete(r.listeners, l.ID())
			res.Pruned++
		}
	}

	return res
}
