// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts feeder audio to the relay's sample rate
// Package resample provides streaming sample rate conversion.
//
// The resampler is stateful: feed consecutive chunks of one stream through
// the same Resampler and interpolation continues across chunk boundaries.
//
// Example:
//
//	r := resample.New(44100, 16000, 1)
//	out := make([]int32, r.OutputSamplesNeeded(len(in)))
//	n := r.Resample(in, out)
package resample
