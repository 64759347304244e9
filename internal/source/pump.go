// ABOUTME: Paces a source into PCM chunks for a producer connection
// ABOUTME: Encodes to the relay format and sends in real time
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Resonate-Protocol/pcm-relay/pkg/audio"
	"github.com/Resonate-Protocol/pcm-relay/pkg/audio/encode"
)

// Pump turns a Source into fixed-duration PCM chunks in a target format
type Pump struct {
	source   Source
	encoder  encode.Encoder
	format   audio.Format
	interval time.Duration
	buf      []int32
}

// NewPump converts src to format and slices it into chunks of length chunk
func NewPump(src Source, format audio.Format, chunk time.Duration) (*Pump, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	enc, err := encode.NewPCM(format)
	if err != nil {
		return nil, err
	}

	frames := format.BytesFor(chunk) / format.BlockAlign()
	if frames <= 0 {
		return nil, fmt.Errorf("chunk %v holds no complete frame at %s", chunk, format)
	}

	return &Pump{
		source:   Convert(src, format.SampleRate, format.Channels),
		encoder:  enc,
		format:   format,
		interval: chunk,
		buf:      make([]int32, frames*format.Channels),
	}, nil
}

// maxEmptyReads bounds how often a source may return nothing before Next gives up
const maxEmptyReads = 100

// Next returns the next encoded chunk. It returns io.EOF when the source ends.
func (p *Pump) Next() ([]byte, error) {
	for i := 0; i < maxEmptyReads; i++ {
		n, err := p.source.Read(p.buf)
		if n > 0 {
			return p.encoder.Encode(p.buf[:n])
		}
		if err != nil {
			return nil, err
		}
	}
	return nil, io.ErrNoProgress
}

// Run sends one chunk per interval until ctx ends, the source ends or send
// fails. The end of the source is not an error.
func (p *Pump) Run(ctx context.Context, send func([]byte) error) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		chunk, err := p.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read audio: %w", err)
		}

		if err := send(chunk); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Format returns the chunk format
func (p *Pump) Format() audio.Format {
	return p.format
}
