// ABOUTME: Unit tests for the WAV snapshot encoder
// ABOUTME: Checks every header field offset against the canonical layout
package encode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/Resonate-Protocol/pcm-relay/pkg/audio"
)

func TestWAV_HeaderLayout(t *testing.T) {
	format := audio.Format{SampleRate: 16000, Channels: 1, BitDepth: 16}
	pcm := bytes.Repeat([]byte{0x01, 0x02}, 2400) // 4800 bytes

	out, err := WAV(pcm, format)
	if err != nil {
		t.Fatalf("WAV() failed: %v", err)
	}
	if len(out) != HeaderSize+len(pcm) {
		t.Fatalf("len = %d, want %d", len(out), HeaderSize+len(pcm))
	}

	le := binary.LittleEndian
	checks := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"ChunkSize", le.Uint32(out[4:8]), 36 + 4800},
		{"Subchunk1Size", le.Uint32(out[16:20]), 16},
		{"AudioFormat", uint32(le.Uint16(out[20:22])), 1},
		{"NumChannels", uint32(le.Uint16(out[22:24])), 1},
		{"SampleRate", le.Uint32(out[24:28]), 16000},
		{"ByteRate", le.Uint32(out[28:32]), 32000},
		{"BlockAlign", uint32(le.Uint16(out[32:34])), 2},
		{"BitsPerSample", uint32(le.Uint16(out[34:36])), 16},
		{"Subchunk2Size", le.Uint32(out[40:44]), 4800},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	tags := map[int]string{0: "RIFF", 8: "WAVE", 12: "fmt ", 36: "data"}
	for off, tag := range tags {
		if got := string(out[off : off+4]); got != tag {
			t.Errorf("tag at %d = %q, want %q", off, got, tag)
		}
	}

	if !bytes.Equal(out[HeaderSize:], pcm) {
		t.Error("payload differs from input")
	}
}

func TestWAV_StereoByteRate(t *testing.T) {
	format := audio.Format{SampleRate: 48000, Channels: 2, BitDepth: 24}

	out, err := WAV(make([]byte, 600), format)
	if err != nil {
		t.Fatalf("WAV() failed: %v", err)
	}

	if got := binary.LittleEndian.Uint32(out[28:32]); got != 48000*2*3 {
		t.Errorf("ByteRate = %d, want %d", got, 48000*2*3)
	}
	if got := binary.LittleEndian.Uint16(out[32:34]); got != 6 {
		t.Errorf("BlockAlign = %d, want 6", got)
	}
}

func TestWAV_Empty(t *testing.T) {
	_, err := WAV(nil, audio.Format{SampleRate: 16000, Channels: 1, BitDepth: 16})
	if !errors.Is(err, ErrEmptyPCM) {
		t.Errorf("WAV(nil) error = %v, want ErrEmptyPCM", err)
	}
}

func TestWAV_DoesNotAliasInput(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	out, err := WAV(pcm, audio.Format{SampleRate: 8000, Channels: 1, BitDepth: 16})
	if err != nil {
		t.Fatalf("WAV() failed: %v", err)
	}

	pcm[0] = 99
	if out[HeaderSize] != 1 {
		t.Error("encoded output changed after mutating input")
	}
}

func TestHeader_MarshalBinary(t *testing.T) {
	h := NewHeader(100, audio.Format{SampleRate: 8000, Channels: 1, BitDepth: 8})

	b, err := h.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() failed: %v", err)
	}
	if len(b) != HeaderSize {
		t.Fatalf("len = %d, want %d", len(b), HeaderSize)
	}
	if got := binary.LittleEndian.Uint32(b[4:8]); got != 136 {
		t.Errorf("ChunkSize = %d, want 136", got)
	}
}
