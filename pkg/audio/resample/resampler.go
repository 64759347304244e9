// ABOUTME: Linear resampler for converting audio sample rates
// ABOUTME: Streams across calls, interpolating over chunk boundaries
package resample

import "math"

// Resampler performs linear interpolation to convert between sample rates.
// It keeps the last input frame so consecutive chunks interpolate seamlessly.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64 // next output position in input frames; -1 is lastSample
	lastSample []int32 // one sample per channel
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		lastSample: make([]int32, channels),
	}
}

// Resample converts interleaved input at inputRate into interleaved output
// at outputRate. It returns the number of output samples written, which
// never exceeds len(output).
func (r *Resampler) Resample(input []int32, output []int32) int {
	ch := r.channels
	inputFrames := len(input) / ch
	if inputFrames == 0 {
		return 0
	}
	outputFrames := len(output) / ch

	frame := func(i, c int) int32 {
		if i < 0 {
			return r.lastSample[c]
		}
		return input[i*ch+c]
	}

	outIdx := 0
	for outIdx < outputFrames {
		base := math.Floor(r.position)
		idx := int(base)
		if idx+1 > inputFrames-1 {
			break
		}
		frac := r.position - base

		for c := 0; c < ch; c++ {
			a := float64(frame(idx, c))
			b := float64(frame(idx+1, c))
			output[outIdx*ch+c] = int32(a + (b-a)*frac)
		}

		outIdx++
		r.position += r.ratio
	}

	// Rebase onto the next chunk, where this chunk's last frame becomes index -1
	r.position -= float64(inputFrames)
	if r.position < -1 {
		r.position = -1
	}
	copy(r.lastSample, input[(inputFrames-1)*ch:inputFrames*ch])

	return outIdx * ch
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0
	for i := range r.lastSample {
		r.lastSample[i] = 0
	}
}

// Ratio returns input frames consumed per output frame
func (r *Resampler) Ratio() float64 {
	return r.ratio
}

// OutputSamplesNeeded returns a buffer size large enough for resampling inputSamples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(math.Ceil(float64(inputFrames+1)/r.ratio)) + 1
	return outputFrames * r.channels
}

// InputSamplesNeeded calculates how many input samples produce roughly outputSamples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(math.Ceil(float64(outputFrames) * r.ratio))
	return inputFrames * r.channels
}
