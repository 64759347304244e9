// ABOUTME: Test tone generator
// ABOUTME: Generates a sine wave at a fixed frequency
package source

import (
	"fmt"
	"math"

	"github.com/Resonate-Protocol/pcm-relay/pkg/audio"
)

// Tone generates an endless sine wave at half volume
type Tone struct {
	frameIndex uint64
	frequency  float64
	sampleRate int
	channels   int
}

// NewTone creates a tone generator. Zero arguments fall back to 440Hz,
// 48kHz and stereo.
func NewTone(frequency float64, sampleRate, channels int) *Tone {
	if frequency <= 0 {
		frequency = 440.0 // A4 note
	}
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	if channels <= 0 {
		channels = 2
	}
	return &Tone{frequency: frequency, sampleRate: sampleRate, channels: channels}
}

func (s *Tone) Read(samples []int32) (int, error) {
	numFrames := len(samples) / s.channels

	for i := 0; i < numFrames; i++ {
		t := float64(s.frameIndex+uint64(i)) / float64(s.sampleRate)
		value := int32(math.Sin(2*math.Pi*s.frequency*t) * audio.Max24Bit * 0.5)

		for ch := 0; ch < s.channels; ch++ {
			samples[i*s.channels+ch] = value
		}
	}

	s.frameIndex += uint64(numFrames)
	return numFrames * s.channels, nil
}

func (s *Tone) SampleRate() int { return s.sampleRate }
func (s *Tone) Channels() int   { return s.channels }
func (s *Tone) Metadata() (string, string, string) {
	return fmt.Sprintf("Test Tone (%gHz)", s.frequency), "PCM Relay", ""
}
func (s *Tone) Close() error { return nil }
