// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for playback and recording sinks
package output

import "github.com/Resonate-Protocol/pcm-relay/pkg/audio"

// Output is a sink for decoded relay audio
type Output interface {
	// Open prepares the sink for audio in format
	Open(format audio.Format) error

	// Write outputs interleaved samples in the 24-bit range (blocks until written)
	Write(samples []int32) error

	// Close releases output resources
	Close() error
}

// Multi fans samples out to several outputs. The first error wins.
type Multi []Output

func (m Multi) Open(format audio.Format) error {
	for _, o := range m {
		if err := o.Open(format); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Write(samples []int32) error {
	for _, o := range m {
		if err := o.Write(samples); err != nil {
			return err
		}
	}
	return nil
}

func (m Multi) Close() error {
	var first error
	for _, o := range m {
		if err := o.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
