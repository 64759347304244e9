// ABOUTME: Websocket-backed relay listener
// ABOUTME: Bounded per-listener queue drained by a dedicated writer goroutine
package server

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/pcm-relay/internal/config"
	"github.com/Resonate-Protocol/pcm-relay/internal/relay"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// wsListener adapts one /monitor websocket to relay.Listener. TrySend only
// queues; the network write happens on the writer goroutine.
type wsListener struct {
	id     string
	remote string
	conn   *websocket.Conn

	sendChan     chan []byte
	dropWhenFull bool
	writeTimeout time.Duration
	pingInterval time.Duration
	debug        bool

	closed      atomic.Bool
	closeOnce   sync.Once
	done        chan struct{}
	closeCode   int
	closeReason string
	sent        atomic.Uint64
	dropped     atomic.Uint64
	connectedAt time.Time
}

func newWSListener(conn *websocket.Conn, remote string, cfg config.RelayConfig, debug bool) *wsListener {
	return &wsListener{
		id:           uuid.New().String(),
		remote:       remote,
		conn:         conn,
		sendChan:     make(chan []byte, cfg.ListenerQueue),
		dropWhenFull: cfg.SlowListener == config.PolicyDrop,
		writeTimeout: cfg.WriteTimeout(),
		pingInterval: cfg.PingInterval(),
		debug:        debug,
		done:         make(chan struct{}),
		connectedAt:  time.Now(),
	}
}

func (l *wsListener) ID() string { return l.id }

func (l *wsListener) IsOpen() bool { return !l.closed.Load() }

// TrySend queues chunk for the writer. A full queue either drops the chunk
// or closes the listener, depending on the slow listener policy.
func (l *wsListener) TrySend(chunk []byte) error {
	if l.closed.Load() {
		return relay.ErrListenerClosed
	}

	select {
	case l.sendChan <- chunk:
		return nil
	default:
	}

	if l.dropWhenFull {
		if n := l.dropped.Add(1); l.debug && n%50 == 1 {
			log.Printf("[DEBUG] Listener %s queue full, dropped %d chunks so far", l.remote, n)
		}
		return relay.ErrListenerBusy
	}

	log.Printf("Listener %s too slow (%d chunks queued), closing", l.remote, cap(l.sendChan))
	l.close(websocket.ClosePolicyViolation, "listener too slow")
	return relay.ErrListenerClosed
}

// close marks the listener closed and asks the writer to send a close
// frame with code. Only the first call has an effect.
func (l *wsListener) close(code int, reason string) {
	l.closeOnce.Do(func() {
		l.closeCode = code
		l.closeReason = reason
		l.closed.Store(true)
		close(l.done)
	})
}

// writeLoop sends queued chunks and keepalive pings until the listener is
// closed or a write fails. It owns every data write on the connection.
func (l *wsListener) writeLoop() {
	ticker := time.NewTicker(l.pingInterval)
	defer ticker.Stop()
	defer l.conn.Close()

	for {
		select {
		case chunk := <-l.sendChan:
			l.conn.SetWriteDeadline(time.Now().Add(l.writeTimeout))
			if err := l.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				if l.debug {
					log.Printf("[DEBUG] Error writing to listener %s: %v", l.remote, err)
				}
				l.closed.Store(true)
				return
			}
			l.sent.Add(1)

		case <-ticker.C:
			if err := l.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(l.writeTimeout)); err != nil {
				l.closed.Store(true)
				return
			}

		case <-l.done:
			msg := websocket.FormatCloseMessage(l.closeCode, l.closeReason)
			l.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}
	}
}
