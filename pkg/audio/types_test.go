// ABOUTME: Tests for audio types
// ABOUTME: Tests format arithmetic, validation and sample conversion
package audio

import (
	"testing"
	"time"
)

func TestFormatArithmetic(t *testing.T) {
	f := Format{Codec: CodecPCM, SampleRate: 16000, Channels: 1, BitDepth: 16}

	if got := f.BytesPerSample(); got != 2 {
		t.Errorf("BytesPerSample() = %d, want 2", got)
	}
	if got := f.BlockAlign(); got != 2 {
		t.Errorf("BlockAlign() = %d, want 2", got)
	}
	if got := f.ByteRate(); got != 32000 {
		t.Errorf("ByteRate() = %d, want 32000", got)
	}
	if got := f.BytesFor(100 * time.Millisecond); got != 3200 {
		t.Errorf("BytesFor(100ms) = %d, want 3200", got)
	}
	if got := f.BytesFor(60 * time.Second); got != 1920000 {
		t.Errorf("BytesFor(60s) = %d, want 1920000", got)
	}
	if got := f.Duration(4800); got != 150*time.Millisecond {
		t.Errorf("Duration(4800) = %v, want 150ms", got)
	}
	if got := f.String(); got != "16000Hz/16bit/1ch" {
		t.Errorf("String() = %q", got)
	}
}

func TestFormatBytesForWholeFrames(t *testing.T) {
	f := Format{SampleRate: 44100, Channels: 2, BitDepth: 24}

	n := f.BytesFor(333 * time.Millisecond)
	if n%f.BlockAlign() != 0 {
		t.Errorf("BytesFor returned %d, not a multiple of block align %d", n, f.BlockAlign())
	}
}

func TestFormatValidate(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		wantErr bool
	}{
		{"mono 16-bit", Format{SampleRate: 16000, Channels: 1, BitDepth: 16}, false},
		{"stereo 24-bit pcm", Format{Codec: "pcm", SampleRate: 48000, Channels: 2, BitDepth: 24}, false},
		{"opus codec", Format{Codec: "opus", SampleRate: 48000, Channels: 2, BitDepth: 16}, true},
		{"zero rate", Format{SampleRate: 0, Channels: 1, BitDepth: 16}, true},
		{"no channels", Format{SampleRate: 16000, Channels: 0, BitDepth: 16}, true},
		{"odd depth", Format{SampleRate: 16000, Channels: 1, BitDepth: 12}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.format.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSampleInt16Conversion(t *testing.T) {
	tests := []struct {
		name    string
		input   int16
		widened int32
	}{
		{"zero", 0, 0},
		{"positive", 100, 100 << 8},
		{"negative", -100, -100 << 8},
		{"max", 32767, 32767 << 8},
		{"min", -32768, -32768 << 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SampleFromInt16(tt.input); got != tt.widened {
				t.Errorf("SampleFromInt16(%d) = %d, want %d", tt.input, got, tt.widened)
			}
			if got := SampleToInt16(tt.widened); got != tt.input {
				t.Errorf("SampleToInt16(%d) = %d, want %d", tt.widened, got, tt.input)
			}
		})
	}
}

func TestSample24BitConversion(t *testing.T) {
	tests := []struct {
		name   string
		sample int32
		packed [3]byte
	}{
		{"zero", 0, [3]byte{0, 0, 0}},
		{"positive", 0x123456, [3]byte{0x56, 0x34, 0x12}},
		{"negative", -256, [3]byte{0x00, 0xFF, 0xFF}},
		{"max", Max24Bit, [3]byte{0xFF, 0xFF, 0x7F}},
		{"min", Min24Bit, [3]byte{0x00, 0x00, 0x80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SampleTo24Bit(tt.sample); got != tt.packed {
				t.Errorf("SampleTo24Bit(%d) = %v, want %v", tt.sample, got, tt.packed)
			}
			if got := SampleFrom24Bit(tt.packed); got != tt.sample {
				t.Errorf("SampleFrom24Bit(%v) = %d, want %d", tt.packed, got, tt.sample)
			}
		})
	}
}

func TestClamp24(t *testing.T) {
	if got := Clamp24(Max24Bit + 10); got != Max24Bit {
		t.Errorf("Clamp24 above range = %d", got)
	}
	if got := Clamp24(Min24Bit - 10); got != Min24Bit {
		t.Errorf("Clamp24 below range = %d", got)
	}
	if got := Clamp24(42); got != 42 {
		t.Errorf("Clamp24(42) = %d", got)
	}
}
