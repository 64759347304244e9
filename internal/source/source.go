// ABOUTME: Audio source abstraction for feeding the relay
// ABOUTME: Opens test tones, local WAV/MP3/FLAC files and HTTP MP3 streams
package source

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Source provides interleaved PCM samples scaled to the 24-bit range
type Source interface {
	// Read fills samples and returns how many were written. It returns
	// io.EOF once a non-looping source is exhausted.
	Read(samples []int32) (int, error)
	SampleRate() int
	Channels() int
	// Metadata returns title, artist, album
	Metadata() (title, artist, album string)
	Close() error
}

// Options control how a source is opened
type Options struct {
	Loop          bool    // Restart files at EOF
	ToneFrequency float64 // Test tone frequency when no path is given (default: 440)
	ToneRate      int     // Test tone sample rate (default: 48000)
	ToneChannels  int     // Test tone channels (default: 2)
}

// Open creates a source from a file path or HTTP URL. An empty path yields
// a test tone.
func Open(pathOrURL string, opts Options) (Source, error) {
	if pathOrURL == "" {
		return NewTone(opts.ToneFrequency, opts.ToneRate, opts.ToneChannels), nil
	}

	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		log.Printf("Streaming from HTTP URL: %s", pathOrURL)
		return NewHTTPMP3(pathOrURL)
	}

	if _, err := os.Stat(pathOrURL); err != nil {
		return nil, fmt.Errorf("audio file not found: %s", pathOrURL)
	}

	ext := strings.ToLower(filepath.Ext(pathOrURL))
	switch ext {
	case ".mp3":
		return NewMP3(pathOrURL, opts.Loop)
	case ".flac":
		return NewFLAC(pathOrURL, opts.Loop)
	case ".wav":
		return NewWAV(pathOrURL, opts.Loop)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .wav, .mp3, .flac)", ext)
	}
}

// titleFromPath derives a display title from a file name
func titleFromPath(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
