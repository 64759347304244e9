// ABOUTME: Tests for the WAV parser
// ABOUTME: Round-trips snapshots through encode.WAV and rejects malformed headers
package decode

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Resonate-Protocol/pcm-relay/pkg/audio"
	"github.com/Resonate-Protocol/pcm-relay/pkg/audio/encode"
)

func TestWAVRoundTrip(t *testing.T) {
	formats := []audio.Format{
		{SampleRate: 16000, Channels: 1, BitDepth: 16},
		{SampleRate: 44100, Channels: 2, BitDepth: 16},
		{SampleRate: 48000, Channels: 2, BitDepth: 24},
		{SampleRate: 8000, Channels: 1, BitDepth: 8},
	}
	payloads := [][]byte{
		{0x7F},
		bytes.Repeat([]byte{0xAB, 0xCD, 0xEF}, 1001),
		make([]byte, 4800),
	}

	for _, format := range formats {
		for _, payload := range payloads {
			t.Run(format.String(), func(t *testing.T) {
				file, err := encode.WAV(payload, format)
				if err != nil {
					t.Fatalf("encode failed: %v", err)
				}

				got, pcm, err := WAV(file)
				if err != nil {
					t.Fatalf("decode failed: %v", err)
				}
				if !bytes.Equal(pcm, payload) {
					t.Errorf("payload mismatch: got %d bytes, want %d", len(pcm), len(payload))
				}
				if got.SampleRate != format.SampleRate || got.Channels != format.Channels || got.BitDepth != format.BitDepth {
					t.Errorf("format = %v, want %v", got, format)
				}

				h, err := ParseHeader(file)
				if err != nil {
					t.Fatalf("ParseHeader failed: %v", err)
				}
				if int(h.Subchunk2Size) != len(payload) {
					t.Errorf("Subchunk2Size = %d, want %d", h.Subchunk2Size, len(payload))
				}
				if int(h.ChunkSize) != 36+len(payload) {
					t.Errorf("ChunkSize = %d, want %d", h.ChunkSize, 36+len(payload))
				}
			})
		}
	}
}

func TestWAVRejectsMalformed(t *testing.T) {
	valid, err := encode.WAV([]byte{1, 2, 3, 4}, audio.Format{SampleRate: 8000, Channels: 1, BitDepth: 16})
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	corrupt := func(off int, tag string) []byte {
		b := append([]byte(nil), valid...)
		copy(b[off:], tag)
		return b
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"too short", valid[:20]},
		{"bad riff", corrupt(0, "RIFX")},
		{"bad wave", corrupt(8, "AVI ")},
		{"bad fmt", corrupt(12, "junk")},
		{"bad data", corrupt(36, "LIST")},
		{"float format", corrupt(20, "\x03\x00")},
		{"truncated payload", valid[:len(valid)-1]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := WAV(tt.data)
			if !errors.Is(err, ErrInvalidWAV) {
				t.Errorf("WAV() error = %v, want ErrInvalidWAV", err)
			}
		})
	}
}
