// ABOUTME: Relay server wiring HTTP routes, websocket sessions and the relay engine
// ABOUTME: Owns lifecycle: mDNS advertisement, TUI, graceful shutdown
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/Resonate-Protocol/pcm-relay/internal/config"
	"github.com/Resonate-Protocol/pcm-relay/internal/discovery"
	"github.com/Resonate-Protocol/pcm-relay/internal/metrics"
	"github.com/Resonate-Protocol/pcm-relay/internal/relay"
	"github.com/Resonate-Protocol/pcm-relay/internal/snapshot"
	"github.com/Resonate-Protocol/pcm-relay/internal/version"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	// Route paths
	ProducerRoute = "/"
	MonitorRoute  = "/monitor"
	SnapshotRoute = "/latest.wav"

	// How long sessions get to close after shutdown begins
	sessionGrace = 3 * time.Second
)

// Config holds server configuration
type Config struct {
	config.Config

	UseTUI   bool
	Registry *prometheus.Registry // Metrics registry (default: new registry with Go and process collectors)
}

// Server is the PCM relay
type Server struct {
	config Config

	upgrader   websocket.Upgrader
	httpServer *http.Server
	mux        *http.ServeMux
	liveness   http.HandlerFunc

	engine       *relay.Engine
	store        *snapshot.FileStore
	snapshotName string
	metrics      *metrics.Metrics
	registry     *prometheus.Registry

	// Live websocket sessions, closed on shutdown
	conns     map[*websocket.Conn]struct{}
	listeners map[string]*wsListener
	connsMu   sync.Mutex

	mdnsManager *discovery.Manager
	tui         *RelayTUI
	startTime   time.Time

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// New creates a relay server. Nothing listens until Start or Serve.
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m := metrics.New(reg)

	store, err := snapshot.NewFileStore(cfg.Snapshot.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}

	engine, err := relay.New(relay.Config{
		Format:  cfg.Audio,
		Window:  cfg.Relay.Window(),
		Store:   store,
		Metrics: m,
		Debug:   cfg.Logging.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create relay engine: %w", err)
	}

	s := &Server{
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			// Producers and monitors are tools, not browser pages on other origins
			CheckOrigin: func(r *http.Request) bool {
				if origin := r.Header.Get("Origin"); origin != "" && cfg.Logging.Debug {
					log.Printf("[DEBUG] Accepting WebSocket from origin: %s", origin)
				}
				return true
			},
		},
		mux:          http.NewServeMux(),
		engine:       engine,
		store:        store,
		snapshotName: filepath.Base(store.Path()),
		metrics:      m,
		registry:     reg,
		conns:        make(map[*websocket.Conn]struct{}),
		listeners:    make(map[string]*wsListener),
		startTime:    time.Now(),
		stopChan:     make(chan struct{}),
	}
	s.liveness = s.withMetrics("/", s.handleLiveness)
	s.routes()

	return s, nil
}

func (s *Server) routes() {
	// Websocket routes stay unwrapped so the upgrade can hijack the connection
	s.mux.HandleFunc(ProducerRoute, s.handleRoot)
	s.mux.HandleFunc(MonitorRoute, s.handleMonitor)

	s.mux.HandleFunc(SnapshotRoute, s.withMetrics(SnapshotRoute, s.handleSnapshot))
	s.mux.HandleFunc("/healthz", s.withMetrics("/healthz", s.handleHealth))
	s.mux.HandleFunc("/status", s.withMetrics("/status", s.handleStatus))
	s.mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))
}

// Handler returns the HTTP handler serving every relay route
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Engine returns the relay engine
func (s *Server) Engine() *relay.Engine {
	return s.engine
}

// Start listens on the configured address and serves until Stop is
// called, the TUI quits or the listener fails.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ln)
}

// Serve serves on ln until Stop is called, the TUI quits or ln fails
func (s *Server) Serve(ln net.Listener) error {
	if s.config.UseTUI {
		s.tui = NewRelayTUI()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.tui.Start(s.status()); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()

		// Give TUI time to initialize
		time.Sleep(100 * time.Millisecond)
	}

	log.Printf("Relay starting: %s (%s, window %v, snapshot %s)",
		s.config.Discovery.Name, s.config.Audio, s.config.Relay.Window(), s.store.Path())

	if s.config.Discovery.Enabled {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Discovery.Name,
			Port:        portOf(ln.Addr(), s.config.Listen.Port),
			Info: map[string]string{
				"producer": ProducerRoute,
				"monitor":  MonitorRoute,
				"snapshot": SnapshotRoute,
				"format":   s.config.Audio.String(),
				"version":  version.Version,
			},
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	s.httpServer = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Relay listening on %s (producer %s, monitor %s, snapshot %s)",
		ln.Addr(), ProducerRoute, MonitorRoute, SnapshotRoute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		var tuiQuitChan <-chan struct{}
		if s.tui != nil {
			tuiQuitChan = s.tui.QuitChan()
		}

		select {
		case <-s.stopChan:
			log.Printf("Relay shutting down...")
		case <-tuiQuitChan:
			log.Printf("TUI quit requested, shutting down...")
		case <-ctx.Done():
		}

		s.shutdown()
		cancel()
		return nil
	})

	if s.tui != nil {
		g.Go(func() error {
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					s.updateTUI()
				}
			}
		})
	}

	err := g.Wait()
	if err == nil {
		log.Printf("Relay stopped cleanly")
	}
	return err
}

// Stop asks a running server to shut down
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// shutdown rejects new sessions, closes live ones and waits for their
// handlers, so a connected producer's final snapshot is on disk before it returns.
func (s *Server) shutdown() {
	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	// Stop TUI first so it can display shutdown message
	if s.tui != nil {
		s.tui.Stop()
	}

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
		cancel()
	}

	s.closeSessions(func(conn *websocket.Conn) {
		closeConn(conn, websocket.CloseGoingAway, "server shutting down")
	})

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(sessionGrace):
		log.Printf("Sessions did not close within %v, forcing", sessionGrace)
		s.closeSessions(func(conn *websocket.Conn) { conn.Close() })
		<-done
	}
}

// track registers a live websocket session. It returns false once
// shutdown has started.
func (s *Server) track(conn *websocket.Conn) bool {
	s.shutdownMu.RLock()
	defer s.shutdownMu.RUnlock()
	if s.isShutdown {
		return false
	}

	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()
	s.wg.Done()
}

func (s *Server) addListener(l *wsListener) {
	s.connsMu.Lock()
	s.listeners[l.id] = l
	s.connsMu.Unlock()
}

func (s *Server) removeListener(l *wsListener) {
	s.connsMu.Lock()
	delete(s.listeners, l.id)
	s.connsMu.Unlock()
}

func (s *Server) closeSessions(fn func(*websocket.Conn)) {
	s.connsMu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.connsMu.Unlock()

	for _, c := range conns {
		fn(c)
	}
}

// portOf returns the TCP port of addr, or fallback when it has none
func portOf(addr net.Addr, fallback int) int {
	if tcp, ok := addr.(*net.TCPAddr); ok && tcp.Port != 0 {
		return tcp.Port
	}
	return fallback
}
