// ABOUTME: WAV file recorder output
// ABOUTME: Streams PCM to disk and patches the header length on Close
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/Resonate-Protocol/pcm-relay/pkg/audio"
	"github.com/Resonate-Protocol/pcm-relay/pkg/audio/encode"
)

// Recorder writes received audio to a WAV file
type Recorder struct {
	path    string
	file    *os.File
	format  audio.Format
	encoder encode.Encoder
	written int
}

// NewRecorder creates a recorder writing to path
func NewRecorder(path string) *Recorder {
	return &Recorder{path: path}
}

// Open creates the file and reserves room for the header
func (r *Recorder) Open(format audio.Format) error {
	if r.file != nil {
		return fmt.Errorf("recorder already open")
	}

	enc, err := encode.NewPCM(format)
	if err != nil {
		return err
	}

	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("failed to create recording: %w", err)
	}

	header, _ := encode.NewHeader(0, format).MarshalBinary()
	if _, err := f.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}

	r.file = f
	r.format = format
	r.encoder = enc
	return nil
}

// Write appends samples to the recording
func (r *Recorder) Write(samples []int32) error {
	if r.file == nil {
		return fmt.Errorf("recorder not open")
	}

	data, err := r.encoder.Encode(samples)
	if err != nil {
		return err
	}
	n, err := r.file.Write(data)
	r.written += n
	if err != nil {
		return fmt.Errorf("failed to write recording: %w", err)
	}
	return nil
}

// Close finalizes the header and closes the file
func (r *Recorder) Close() error {
	if r.file == nil {
		return nil
	}
	f := r.file
	r.file = nil

	header, _ := encode.NewHeader(r.written, r.format).MarshalBinary()
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return fmt.Errorf("failed to rewind recording: %w", err)
	}
	if _, err := f.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("failed to finalize header: %w", err)
	}
	return f.Close()
}

// Written returns how many bytes of audio have been recorded
func (r *Recorder) Written() int {
	return r.written
}
