package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordProducerConnect(true)
	m.RecordChunk(10, 10)
	m.RecordBroadcast(1, 1, 0)
	m.RecordSnapshot(44, time.Millisecond, nil)
	m.RecordHTTPRequest("GET", "/", "200", 0.01)
}

func TestRecordProducerConnect(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordProducerConnect(true)
	m.RecordProducerConnect(false)

	if got := testutil.ToFloat64(m.ProducerSessions); got != 1 {
		t.Errorf("producer sessions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ProducerRejected); got != 1 {
		t.Errorf("producer rejected = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ProducerActive); got != 1 {
		t.Errorf("producer active = %v, want 1", got)
	}

	m.RecordProducerDisconnect()
	if got := testutil.ToFloat64(m.ProducerActive); got != 0 {
		t.Errorf("producer active after disconnect = %v, want 0", got)
	}
}

func TestRecordChunkAndBroadcast(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordChunk(1600, 1600)
	m.RecordChunk(1600, 3200)
	m.RecordBroadcast(1, 2, 3)

	if got := testutil.ToFloat64(m.BytesReceived); got != 3200 {
		t.Errorf("bytes received = %v, want 3200", got)
	}
	if got := testutil.ToFloat64(m.BufferedBytes); got != 3200 {
		t.Errorf("buffered bytes = %v, want 3200", got)
	}
	if got := testutil.ToFloat64(m.ListenersPruned); got != 2 {
		t.Errorf("pruned = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Listeners); got != 3 {
		t.Errorf("listeners = %v, want 3", got)
	}
}

func TestRecordSnapshot(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordSnapshot(4844, 2*time.Millisecond, nil)
	m.RecordSnapshot(0, time.Millisecond, errors.New("disk full"))

	if got := testutil.ToFloat64(m.SnapshotsWritten); got != 1 {
		t.Errorf("snapshots written = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SnapshotErrors); got != 1 {
		t.Errorf("snapshot errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SnapshotBytes); got != 4844 {
		t.Errorf("snapshot bytes = %v, want 4844", got)
	}
}
