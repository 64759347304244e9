// ABOUTME: Audio fundamentals package providing the PCM format type
// ABOUTME: Defines Format and sample conversion helpers
// Package audio describes the raw PCM stream carried by the relay.
//
// Format is fixed at startup and drives both the rolling window capacity
// and the WAV header written for every snapshot:
//
//	format := audio.Format{
//	    Codec:      "pcm",
//	    SampleRate: 16000,
//	    Channels:   1,
//	    BitDepth:   16,
//	}
//
//	window := format.BytesFor(60 * time.Second) // 1,920,000 bytes
//
// Samples inside the client tools are carried as int32 left-justified in
// the 24-bit range; SampleFromInt16 and SampleToInt16 convert at the edges.
package audio
