// ABOUTME: Audio output tests
// ABOUTME: Verifies volume handling, fan-out and WAV recording
package output

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Resonate-Protocol/pcm-relay/pkg/audio"
	"github.com/Resonate-Protocol/pcm-relay/pkg/audio/decode"
)

var (
	_ Output = (*Oto)(nil)
	_ Output = (*Recorder)(nil)
	_ Output = Multi(nil)
)

func TestApplyVolume(t *testing.T) {
	tests := []struct {
		name   string
		volume int
		muted  bool
		in     []int32
		want   []int32
	}{
		{"full volume", 100, false, []int32{1000, -1000}, []int32{1000, -1000}},
		{"half volume", 50, false, []int32{1000, -1000}, []int32{500, -500}},
		{"muted", 100, true, []int32{1000, -1000}, []int32{0, 0}},
		{"clamped", 100, false, []int32{audio.Max24Bit + 10, audio.Min24Bit - 10}, []int32{audio.Max24Bit, audio.Min24Bit}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyVolume(tt.in, tt.volume, tt.muted)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("applyVolume() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOtoVolumeBounds(t *testing.T) {
	o := NewOto()
	o.SetVolume(150)
	if o.GetVolume() != 100 {
		t.Errorf("volume = %d, want 100", o.GetVolume())
	}
	o.SetVolume(-5)
	if o.GetVolume() != 0 {
		t.Errorf("volume = %d, want 0", o.GetVolume())
	}
	if err := o.Write([]int32{1}); err == nil {
		t.Error("expected error writing to unopened output")
	}
}

func TestToInt16LE(t *testing.T) {
	got := toInt16LE([]int32{256, -256})
	want := []byte{0x01, 0x00, 0xFF, 0xFF}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("toInt16LE() = %v, want %v", got, want)
	}
}

func TestRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.wav")
	format := audio.Format{Codec: audio.CodecPCM, SampleRate: 16000, Channels: 1, BitDepth: 16}

	r := NewRecorder(path)
	if err := r.Open(format); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	r.Write([]int32{256, 512})
	r.Write([]int32{-256})
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if r.Written() != 6 {
		t.Errorf("written = %d, want 6", r.Written())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	gotFormat, pcm, err := decode.WAV(data)
	if err != nil {
		t.Fatalf("recording is not a WAV: %v", err)
	}
	if gotFormat != format {
		t.Errorf("format = %+v, want %+v", gotFormat, format)
	}
	if !reflect.DeepEqual(pcm, []byte{0x01, 0x00, 0x02, 0x00, 0xFF, 0xFF}) {
		t.Errorf("pcm = %v", pcm)
	}
}

func TestRecorder_NotOpen(t *testing.T) {
	r := NewRecorder(filepath.Join(t.TempDir(), "rec.wav"))
	if err := r.Write([]int32{1}); err == nil {
		t.Error("expected error writing before Open")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on unopened recorder = %v", err)
	}
}

type failingOutput struct{ err error }

func (f failingOutput) Open(audio.Format) error { return f.err }
func (f failingOutput) Write([]int32) error     { return f.err }
func (f failingOutput) Close() error            { return f.err }

func TestMulti(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.wav")
	rec := NewRecorder(path)
	boom := errors.New("device lost")

	m := Multi{rec, failingOutput{boom}}
	if err := m.Open(audio.Format{SampleRate: 8000, Channels: 1, BitDepth: 16}); !errors.Is(err, boom) {
		t.Errorf("Open() = %v, want device error", err)
	}
	if err := m.Close(); !errors.Is(err, boom) {
		t.Errorf("Close() = %v, want device error", err)
	}
}
