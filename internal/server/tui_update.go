// ABOUTME: TUI update helpers for the relay
// ABOUTME: Builds relay status snapshots for the TUI
package server

import (
	"sort"
	"time"
)

// status collects the current relay state for display
func (s *Server) status() RelayStatus {
	st := s.engine.Stats()

	s.connsMu.Lock()
	listeners := make([]ListenerInfo, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, ListenerInfo{
			Remote:    l.remote,
			Connected: time.Since(l.connectedAt),
			Sent:      l.sent.Load(),
			Dropped:   l.dropped.Load(),
		})
	}
	s.connsMu.Unlock()

	sort.Slice(listeners, func(i, j int) bool {
		return listeners[i].Connected > listeners[j].Connected
	})

	return RelayStatus{
		Name:      s.config.Discovery.Name,
		Addr:      s.config.Addr(),
		Format:    st.Format.String(),
		Buffered:  st.Buffered,
		Window:    s.config.Relay.Window(),
		Producer:  st.ProducerRemote,
		Since:     st.ProducerSince,
		Chunks:    st.ChunksRelayed,
		Bytes:     st.BytesRelayed,
		Snapshots: st.SnapshotsWritten,
		LastSaved: st.LastSnapshot,
		SaveError: st.LastSnapshotErr,
		Listeners: listeners,
	}
}

// updateTUI sends current relay state to TUI
func (s *Server) updateTUI() {
	if s.tui == nil {
		return
	}
	s.tui.Update(s.status())
}
