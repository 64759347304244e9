// ABOUTME: Tests for the chunk pump
// ABOUTME: Verifies chunk sizing, format conversion and end of stream
package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Resonate-Protocol/pcm-relay/pkg/audio"
)

var speech = audio.Format{Codec: audio.CodecPCM, SampleRate: 16000, Channels: 1, BitDepth: 16}

func TestPump_ChunkSize(t *testing.T) {
	tests := []struct {
		name   string
		format audio.Format
		chunk  time.Duration
		want   int
	}{
		{"100ms speech", speech, 100 * time.Millisecond, 3200},
		{"20ms stereo 24-bit", audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 24}, 20 * time.Millisecond, 5760},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPump(NewTone(440, 44100, 2), tt.format, tt.chunk)
			if err != nil {
				t.Fatalf("NewPump failed: %v", err)
			}
			for i := 0; i < 3; i++ {
				chunk, err := p.Next()
				if err != nil {
					t.Fatalf("Next failed: %v", err)
				}
				if len(chunk) != tt.want {
					t.Errorf("chunk %d = %d bytes, want %d", i, len(chunk), tt.want)
				}
			}
		})
	}
}

func TestPump_Errors(t *testing.T) {
	if _, err := NewPump(NewTone(0, 0, 0), audio.Format{SampleRate: 16000, Channels: 1, BitDepth: 8}, time.Second); err == nil {
		t.Error("expected error for 8-bit output")
	}
	if _, err := NewPump(NewTone(0, 0, 0), speech, time.Microsecond); err == nil {
		t.Error("expected error for sub-frame chunk")
	}
}

func TestPump_RunStopsAtEOF(t *testing.T) {
	// 250ms of audio in 10ms chunks
	samples := make([]int32, 4000)
	path := writeTestWAV(t, speech, samples)
	src, err := NewWAV(path, false)
	if err != nil {
		t.Fatalf("NewWAV failed: %v", err)
	}

	p, err := NewPump(src, speech, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewPump failed: %v", err)
	}

	total := 0
	err = p.Run(context.Background(), func(chunk []byte) error {
		total += len(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if total != 8000 {
		t.Errorf("sent %d bytes, want 8000", total)
	}
}

func TestPump_RunStopsOnSendError(t *testing.T) {
	p, err := NewPump(NewTone(440, 16000, 1), speech, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewPump failed: %v", err)
	}

	errClosed := errors.New("closed")
	sent := 0
	err = p.Run(context.Background(), func(chunk []byte) error {
		sent++
		if sent == 3 {
			return errClosed
		}
		return nil
	})
	if !errors.Is(err, errClosed) {
		t.Errorf("Run() = %v, want send error", err)
	}
}

func TestPump_RunHonorsContext(t *testing.T) {
	p, err := NewPump(NewTone(440, 16000, 1), speech, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("NewPump failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Run(ctx, func([]byte) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
}
