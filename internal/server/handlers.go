// ABOUTME: HTTP and websocket handlers for the relay
// ABOUTME: Producer ingest, monitor fan-out, snapshot download and status endpoints
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/Resonate-Protocol/pcm-relay/internal/relay"
	"github.com/Resonate-Protocol/pcm-relay/internal/snapshot"
	"github.com/Resonate-Protocol/pcm-relay/internal/version"
	"github.com/gorilla/websocket"
)

// maxChunkSize bounds a single producer message
const maxChunkSize = 4 << 20

// handleRoot accepts the producer websocket on "/" and answers every other
// plain request with a liveness response.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" && websocket.IsWebSocketUpgrade(r) {
		s.handleProducer(w, r)
		return
	}
	s.liveness(w, r)
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

// handleProducer runs one producer session until its connection ends
func (s *Server) handleProducer(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	if !s.track(conn) {
		log.Printf("Rejecting producer during shutdown")
		closeConn(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer s.untrack(conn)

	producer, err := s.engine.ProducerConnect(r.RemoteAddr)
	if err != nil {
		if errors.Is(err, relay.ErrProducerActive) {
			closeConn(conn, websocket.CloseTryAgainLater, "producer already connected")
			return
		}
		log.Printf("Producer %s refused: %v", r.RemoteAddr, err)
		closeConn(conn, websocket.CloseInternalServerErr, "relay unavailable")
		return
	}
	s.updateTUI()

	defer func() {
		if err := producer.Disconnect(); err != nil {
			log.Printf("Error saving snapshot for producer %s: %v", r.RemoteAddr, err)
		}
		s.updateTUI()
	}()

	conn.SetReadLimit(maxChunkSize)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				log.Printf("Producer %s connection error: %v", r.RemoteAddr, err)
			}
			return
		}

		if msgType != websocket.BinaryMessage {
			if s.config.Logging.Debug {
				log.Printf("[DEBUG] Ignoring %d-byte non-binary message from producer %s", len(data), r.RemoteAddr)
			}
			s.metrics.RecordIgnored()
			continue
		}

		if err := producer.Push(data); err != nil {
			log.Printf("Producer %s push failed: %v", r.RemoteAddr, err)
			return
		}
	}
}

// handleMonitor registers a live listener. It gets only audio pushed after
// it connects.
func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		s.liveness(w, r)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	if !s.track(conn) {
		log.Printf("Rejecting listener during shutdown")
		closeConn(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer s.untrack(conn)

	l := newWSListener(conn, r.RemoteAddr, s.config.Relay, s.config.Logging.Debug)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		l.writeLoop()
	}()

	s.addListener(l)
	s.engine.ListenerConnect(l)
	s.updateTUI()

	defer func() {
		s.engine.ListenerDisconnect(l)
		s.removeListener(l)
		l.close(websocket.CloseNormalClosure, "")
		if s.config.Logging.Debug {
			log.Printf("[DEBUG] Listener %s sent %d chunks, dropped %d", r.RemoteAddr, l.sent.Load(), l.dropped.Load())
		}
		s.updateTUI()
	}()

	// Listeners have nothing to say; reading only surfaces close and pong frames.
	for {
		if _, _, err := conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) && l.IsOpen() {
				log.Printf("Listener %s connection error: %v", r.RemoteAddr, err)
			}
			return
		}
	}
}

// handleSnapshot serves the most recently persisted window
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	f, info, err := s.store.Open()
	if err != nil {
		if errors.Is(err, snapshot.ErrNoSnapshot) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, "no audio yet")
			return
		}
		log.Printf("Error opening snapshot: %v", err)
		http.Error(w, "snapshot unavailable", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, s.snapshotName, info.ModTime, f)
}

// healthResponse is the /healthz body
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
	})
}

// statusResponse is the /status body
type statusResponse struct {
	Name           string    `json:"name"`
	Version        string    `json:"version"`
	Format         string    `json:"format"`
	BufferedBytes  int       `json:"buffered_bytes"`
	CapacityBytes  int       `json:"capacity_bytes"`
	BufferedMs     int64     `json:"buffered_ms"`
	Listeners      int       `json:"listeners"`
	ProducerActive bool      `json:"producer_active"`
	ProducerRemote string    `json:"producer_remote,omitempty"`
	ChunksRelayed  uint64    `json:"chunks_relayed"`
	BytesRelayed   uint64    `json:"bytes_relayed"`
	Snapshots      uint64    `json:"snapshots_written"`
	LastSnapshot   time.Time `json:"last_snapshot,omitzero"`
	SnapshotError  string    `json:"snapshot_error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.engine.Stats()
	writeJSON(w, http.StatusOK, statusResponse{
		Name:           s.config.Discovery.Name,
		Version:        version.Version,
		Format:         st.Format.String(),
		BufferedBytes:  st.BufferedBytes,
		CapacityBytes:  st.CapacityBytes,
		BufferedMs:     st.Buffered.Milliseconds(),
		Listeners:      st.Listeners,
		ProducerActive: st.ProducerActive,
		ProducerRemote: st.ProducerRemote,
		ChunksRelayed:  st.ChunksRelayed,
		BytesRelayed:   st.BytesRelayed,
		Snapshots:      st.SnapshotsWritten,
		LastSnapshot:   st.LastSnapshot,
		SnapshotError:  st.LastSnapshotErr,
	})
}

// writeJSON encodes v as JSON and writes it with the given status code
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// closeConn sends a close frame with code and reason
func closeConn(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
