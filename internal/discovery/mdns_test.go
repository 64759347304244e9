// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager setup and TXT record handling
package discovery

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestNewManager(t *testing.T) {
	mgr := NewManager(Config{
		ServiceName: "Test Relay",
		Port:        10000,
	})
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	if mgr.config.Interval != 3*time.Second {
		t.Errorf("expected default interval 3s, got %v", mgr.config.Interval)
	}
	mgr.Stop()
}

func TestTXTRoundTrip(t *testing.T) {
	info := map[string]string{
		"producer": "/",
		"monitor":  "/monitor",
		"format":   "16000Hz/16bit/1ch",
	}

	txt := encodeTXT(info)
	want := []string{"format=16000Hz/16bit/1ch", "monitor=/monitor", "producer=/"}
	if !reflect.DeepEqual(txt, want) {
		t.Errorf("encodeTXT() = %v, want %v", txt, want)
	}

	if got := decodeTXT(txt); !reflect.DeepEqual(got, info) {
		t.Errorf("decodeTXT() = %v, want %v", got, info)
	}
}

func TestDecodeTXT(t *testing.T) {
	got := decodeTXT([]string{"flag", "=orphan", "k=v=w"})
	want := map[string]string{"flag": "", "k": "v=w"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("decodeTXT() = %v, want %v", got, want)
	}
}

func TestServerInfoAddr(t *testing.T) {
	s := &ServerInfo{Host: "192.168.1.20", Port: 10000}
	if s.Addr() != "192.168.1.20:10000" {
		t.Errorf("Addr() = %s", s.Addr())
	}
}

func TestFindFirst_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := FindFirst(ctx); err == nil {
		t.Error("expected error when context is already done")
	}
}
