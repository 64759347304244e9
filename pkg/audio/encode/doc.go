// ABOUTME: Audio encoder package for PCM sample packing and WAV containers
// ABOUTME: Provides the Encoder interface, the PCM encoder and the WAV snapshot encoder
// Package encode turns audio into bytes.
//
// Two kinds of encoding live here:
//   - PCM: packs int32 samples (24-bit range) into 16-bit or 24-bit
//     little-endian wire bytes, used by the feeder before it pushes chunks.
//   - WAV: wraps raw PCM bytes in the canonical 44-byte RIFF header so that
//     a rolling window can be persisted as a playable file.
//
// Example:
//
//	file, err := encode.WAV(window, format)
package encode
