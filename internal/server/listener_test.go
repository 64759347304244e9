// ABOUTME: Tests for the websocket listener queue policy
// ABOUTME: Covers drop and close behavior when a listener falls behind
package server

import (
	"errors"
	"testing"

	"github.com/Resonate-Protocol/pcm-relay/internal/config"
	"github.com/Resonate-Protocol/pcm-relay/internal/relay"
)

func testRelayConfig(policy string, queue int) config.RelayConfig {
	cfg := config.Default().Relay
	cfg.SlowListener = policy
	cfg.ListenerQueue = queue
	return cfg
}

func TestWSListener_SlowListenerPolicy(t *testing.T) {
	tests := []struct {
		name     string
		policy   string
		wantErr  error
		wantOpen bool
	}{
		{name: "drop keeps listener", policy: config.PolicyDrop, wantErr: relay.ErrListenerBusy, wantOpen: true},
		{name: "close prunes listener", policy: config.PolicyClose, wantErr: relay.ErrListenerClosed, wantOpen: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newWSListener(nil, "test", testRelayConfig(tt.policy, 2), false)

			for i := 0; i < 2; i++ {
				if err := l.TrySend([]byte{byte(i)}); err != nil {
					t.Fatalf("TrySend(%d) failed: %v", i, err)
				}
			}

			err := l.TrySend([]byte{2})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("TrySend on full queue = %v, want %v", err, tt.wantErr)
			}
			if l.IsOpen() != tt.wantOpen {
				t.Errorf("IsOpen() = %v, want %v", l.IsOpen(), tt.wantOpen)
			}
		})
	}
}

func TestWSListener_ClosedRejectsSend(t *testing.T) {
	l := newWSListener(nil, "test", testRelayConfig(config.PolicyClose, 4), false)
	l.close(1000, "")
	l.close(1001, "again")

	if err := l.TrySend([]byte{1}); !errors.Is(err, relay.ErrListenerClosed) {
		t.Errorf("TrySend after close = %v, want ErrListenerClosed", err)
	}
	if l.closeCode != 1000 {
		t.Errorf("close code = %d, want first close to win", l.closeCode)
	}
}

func TestWSListener_UniqueIDs(t *testing.T) {
	a := newWSListener(nil, "a", testRelayConfig(config.PolicyClose, 1), false)
	b := newWSListener(nil, "b", testRelayConfig(config.PolicyClose, 1), false)
	if a.ID() == b.ID() {
		t.Error("listeners should get distinct ids")
	}
}
