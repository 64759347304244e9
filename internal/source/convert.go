// ABOUTME: Converts a source to a target sample rate and channel count
// ABOUTME: Channel mapping happens before resampling
package source

import (
	"github.com/Resonate-Protocol/pcm-relay/pkg/audio"
	"github.com/Resonate-Protocol/pcm-relay/pkg/audio/resample"
)

// Converted wraps a Source and presents it at another rate and channel count
type Converted struct {
	source    Source
	resampler *resample.Resampler // nil when rates match
	rate      int
	inCh      int
	outCh     int

	in      []int32
	mapped  []int32
	out     []int32
	pending []int32
}

// Convert returns src unchanged when it already matches rate and channels,
// otherwise a wrapper performing the conversion.
func Convert(src Source, rate, channels int) Source {
	if src.SampleRate() == rate && src.Channels() == channels {
		return src
	}

	c := &Converted{
		source: src,
		rate:   rate,
		inCh:   src.Channels(),
		outCh:  channels,
		// 20ms of input per underlying read
		in: make([]int32, max(src.SampleRate()/50, 1)*src.Channels()),
	}
	if src.SampleRate() != rate {
		c.resampler = resample.New(src.SampleRate(), rate, channels)
	}
	return c
}

func (c *Converted) Read(samples []int32) (int, error) {
	want := len(samples) / c.outCh * c.outCh

	for len(c.pending) < want {
		n, err := c.source.Read(c.in)
		if n > 0 {
			c.push(c.in[:n/c.inCh*c.inCh])
		}
		if err != nil {
			if len(c.pending) == 0 {
				return 0, err
			}
			break
		}
		if n == 0 {
			break
		}
	}

	if len(c.pending) == 0 {
		return 0, nil
	}

	n := copy(samples[:want], c.pending)
	c.pending = c.pending[:copy(c.pending, c.pending[n:])]
	return n, nil
}

// push converts one block of input and queues the result
func (c *Converted) push(in []int32) {
	frames := len(in) / c.inCh
	if cap(c.mapped) < frames*c.outCh {
		c.mapped = make([]int32, frames*c.outCh)
	}
	mapped := c.mapped[:frames*c.outCh]
	MapChannels(in, c.inCh, mapped, c.outCh)

	if c.resampler == nil {
		c.pending = append(c.pending, mapped...)
		return
	}

	need := c.resampler.OutputSamplesNeeded(len(mapped))
	if cap(c.out) < need {
		c.out = make([]int32, need)
	}
	n := c.resampler.Resample(mapped, c.out[:need])
	c.pending = append(c.pending, c.out[:n]...)
}

func (c *Converted) SampleRate() int { return c.rate }
func (c *Converted) Channels() int   { return c.outCh }
func (c *Converted) Metadata() (string, string, string) {
	return c.source.Metadata()
}
func (c *Converted) Close() error {
	return c.source.Close()
}

// MapChannels converts interleaved frames from inCh to outCh channels. Mono
// is duplicated to every output channel; mixing down to mono averages the
// input channels; otherwise channels are copied in order and extra output
// channels repeat the last input channel. out must hold len(in)/inCh*outCh samples.
func MapChannels(in []int32, inCh int, out []int32, outCh int) {
	frames := len(in) / inCh

	for f := 0; f < frames; f++ {
		src := in[f*inCh : (f+1)*inCh]
		dst := out[f*outCh : (f+1)*outCh]

		switch {
		case inCh == outCh:
			copy(dst, src)
		case outCh == 1:
			var sum int64
			for _, s := range src {
				sum += int64(s)
			}
			dst[0] = audio.Clamp24(sum / int64(inCh))
		default:
			for ch := range dst {
				if ch < inCh {
					dst[ch] = src[ch]
				} else {
					dst[ch] = src[inCh-1]
				}
			}
		}
	}
}
