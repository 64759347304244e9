// ABOUTME: Listener abstraction for live outbound audio channels
// ABOUTME: Transport details stay behind TrySend/IsOpen
package relay

import "errors"

var (
	// ErrListenerClosed means the listener's channel is gone and it should be pruned
	ErrListenerClosed = errors.New("listener closed")

	// ErrListenerBusy means the listener could not take this chunk right now;
	// the chunk is dropped for that listener but it stays registered
	ErrListenerBusy = errors.New("listener busy")
)

// Listener is one live outbound channel. TrySend must not block on the
// network: it either queues the chunk, reports ErrListenerBusy, or reports
// ErrListenerClosed. Any other error is treated like ErrListenerClosed.
//
// Chunks passed to TrySend are shared between listeners and must be
// treated as read-only.
type Listener interface {
	ID() string
	TrySend(chunk []byte) error
	IsOpen() bool
}
