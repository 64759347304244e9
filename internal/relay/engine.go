// ABOUTME: Relay engine coordinating one producer session and many listeners
// ABOUTME: Appends to the rolling window, fans out chunks and persists snapshots
package relay

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/pcm-relay/internal/metrics"
	"github.com/Resonate-Protocol/pcm-relay/internal/ring"
	"github.com/Resonate-Protocol/pcm-relay/pkg/audio"
	"github.com/Resonate-Protocol/pcm-relay/pkg/audio/encode"
	"github.com/google/uuid"
)

const (
	// DefaultWindow is how much audio the rolling buffer keeps
	DefaultWindow = 60 * time.Second
)

var (
	// ErrProducerActive is returned when a second producer tries to connect
	ErrProducerActive = errors.New("producer already connected")

	// ErrSessionClosed is returned when pushing to a disconnected producer session
	ErrSessionClosed = errors.New("producer session closed")
)

// Store persists encoded snapshots. Save replaces whatever was saved before.
type Store interface {
	Save(data []byte) error
}

// Config holds engine configuration
type Config struct {
	Format  audio.Format
	Window  time.Duration // Length of the rolling window (default: 60s)
	Store   Store         // Snapshot destination (required)
	Metrics *metrics.Metrics
	Debug   bool
}

// Engine is the single owner of the rolling buffer and listener registry.
// Every handler runs under one mutex, so a chunk is appended and offered
// to every registered listener before the next chunk is looked at.
type Engine struct {
	format  audio.Format
	store   Store
	metrics *metrics.Metrics
	debug   bool

	mu        sync.Mutex
	buffer    *ring.Buffer
	listeners *Registry
	producer  *Producer
	chunks    uint64
	bytes     uint64

	// Held from the moment a disconnect copies the window until the
	// snapshot is on disk, so snapshots land in disconnect order.
	persistMu sync.Mutex

	snapshots    atomic.Uint64
	lastSnapshot atomic.Pointer[time.Time]
	lastErr      atomic.Pointer[string]
}

// Producer is one live producer session
type Producer struct {
	ID          string
	Remote      string
	ConnectedAt time.Time

	engine *Engine
	closed bool // guarded by engine.mu
}

// Stats is a point-in-time view of the engine
type Stats struct {
	Format           audio.Format
	BufferedBytes    int
	CapacityBytes    int
	Buffered         time.Duration
	Listeners        int
	ProducerActive   bool
	ProducerRemote   string
	ProducerSince    time.Time
	ChunksRelayed    uint64
	BytesRelayed     uint64
	SnapshotsWritten uint64
	LastSnapshot     time.Time
	LastSnapshotErr  string
}

// New creates an engine with a rolling window sized from cfg.Format and cfg.Window
func New(cfg Config) (*Engine, error) {
	if err := cfg.Format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audio format: %w", err)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Window < 0 {
		return nil, fmt.Errorf("window must be positive, got %v", cfg.Window)
	}

	capacity := cfg.Format.BytesFor(cfg.Window)
	if capacity <= 0 {
		return nil, fmt.Errorf("window %v holds no complete frame at %s", cfg.Window, cfg.Format)
	}

	return newEngine(cfg, capacity), nil
}

// NewWithCapacity creates an engine whose rolling window holds exactly capacity bytes
func NewWithCapacity(cfg Config, capacity int) (*Engine, error) {
	if err := cfg.Format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid audio format: %w", err)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d", capacity)
	}
	return newEngine(cfg, capacity), nil
}

func newEngine(cfg Config, capacity int) *Engine {
	log.Printf("Relay engine: %s, window %d bytes (%v)", cfg.Format, capacity, cfg.Format.Duration(capacity))

	return &Engine{
		format:    cfg.Format,
		store:     cfg.Store,
		metrics:   cfg.Metrics,
		debug:     cfg.Debug,
		buffer:    ring.New(capacity),
		listeners: NewRegistry(),
	}
}

// Format returns the configured audio format
func (e *Engine) Format() audio.Format {
	return e.format
}

// ProducerConnect opens a producer session. Only one session may be live at
// a time; a second one gets ErrProducerActive and touches no state. The
// rolling window is kept from earlier sessions.
func (e *Engine) ProducerConnect(remote string) (*Producer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.producer != nil {
		e.metrics.RecordProducerConnect(false)
		log.Printf("Rejecting producer %s: %s already streaming", remote, e.producer.Remote)
		return nil, ErrProducerActive
	}

	p := &Producer{
		ID:          uuid.New().String(),
		Remote:      remote,
		ConnectedAt: time.Now(),
		engine:      e,
	}
	e.producer = p
	e.metrics.RecordProducerConnect(true)

	log.Printf("Producer connected: %s (session %s, window holds %d bytes)", remote, p.ID, e.buffer.Len())
	return p, nil
}

// Push appends chunk to the rolling window and offers it to every listener.
// Empty chunks are ignored. chunk must not be modified after the call.
func (p *Producer) Push(chunk []byte) error {
	e := p.engine

	if len(chunk) == 0 {
		e.metrics.RecordIgnored()
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if p.closed {
		return ErrSessionClosed
	}

	e.buffer.Write(chunk)
	res := e.listeners.Broadcast(chunk)
	e.chunks++
	e.bytes += uint64(len(chunk))

	e.metrics.RecordChunk(len(chunk), e.buffer.Len())
	e.metrics.RecordBroadcast(res.Busy, res.Pruned, e.listeners.Len())

	if e.debug && (res.Busy > 0 || res.Pruned > 0) {
		log.Printf("[DEBUG] Chunk %d (%d bytes): delivered=%d busy=%d pruned=%d",
			e.chunks, len(chunk), res.Delivered, res.Busy, res.Pruned)
	}

	return nil
}

// Disconnect ends the session. If the rolling window is non-empty it is
// encoded and persisted before Disconnect returns. A persistence failure is
// returned but leaves the window intact. Calling Disconnect again is a no-op.
func (p *Producer) Disconnect() error {
	e := p.engine

	e.mu.Lock()
	if p.closed {
		e.mu.Unlock()
		return nil
	}
	p.closed = true
	if e.producer == p {
		e.producer = nil
	}
	e.metrics.RecordProducerDisconnect()

	var raw []byte
	if e.buffer.Len() > 0 {
		raw = e.buffer.Snapshot()
	}

	e.persistMu.Lock()
	e.mu.Unlock()
	defer e.persistMu.Unlock()

	log.Printf("Producer disconnected: %s (session %s, %v)", p.Remote, p.ID, time.Since(p.ConnectedAt).Round(time.Millisecond))

	if len(raw) == 0 {
		log.Printf("Rolling window empty, no snapshot written")
		return nil
	}

	return e.persist(raw)
}

func (e *Engine) persist(raw []byte) error {
	start := time.Now()

	data, err := encode.WAV(raw, e.format)
	if err == nil {
		err = e.store.Save(data)
	}
	e.metrics.RecordSnapshot(len(data), time.Since(start), err)

	if err != nil {
		msg := err.Error()
		e.lastErr.Store(&msg)
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}

	now := time.Now()
	e.lastSnapshot.Store(&now)
	e.lastErr.Store(nil)
	e.snapshots.Add(1)

	log.Printf("Snapshot written: %d bytes of audio (%v)", len(raw), e.format.Duration(len(raw)).Round(time.Millisecond))
	return nil
}

// ListenerConnect registers l. It only receives chunks pushed after this call.
func (e *Engine) ListenerConnect(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners.Add(l) {
		log.Printf("Listener connected: %s (%d total)", l.ID(), e.listeners.Len())
	}
	e.metrics.SetListeners(e.listeners.Len())
}

// ListenerDisconnect unregisters l. Unknown listeners are ignored.
func (e *Engine) ListenerDisconnect(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.listeners.Remove(l) {
		log.Printf("Listener disconnected: %s (%d remaining)", l.ID(), e.listeners.Len())
	}
	e.metrics.SetListeners(e.listeners.Len())
}

// Stats returns a consistent view of the engine state
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	s := Stats{
		Format:        e.format,
		BufferedBytes: e.buffer.Len(),
		CapacityBytes: e.buffer.Cap(),
		Listeners:     e.listeners.Len(),
		ChunksRelayed: e.chunks,
		BytesRelayed:  e.bytes,
	}
	if e.producer != nil {
		s.ProducerActive = true
		s.ProducerRemote = e.producer.Remote
		s.ProducerSince = e.producer.ConnectedAt
	}
	e.mu.Unlock()

	s.Buffered = e.format.Duration(s.BufferedBytes)
	s.SnapshotsWritten = e.snapshots.Load()
	if t := e.lastSnapshot.Load(); t != nil {
		s.LastSnapshot = *t
	}
	if msg := e.lastErr.Load(); msg != nil {
		s.LastSnapshotErr = *msg
	}
	return s
}
