// ABOUTME: Audio decoder package for PCM bytes and WAV containers
// ABOUTME: Provides the Decoder interface, the PCM decoder and the WAV parser
// Package decode turns bytes back into audio.
//
// The PCM decoder unpacks 16-bit or 24-bit little-endian wire bytes into
// int32 samples in 24-bit range, which is what the monitor hands to the
// output device. The WAV parser reads a snapshot produced by encode.WAV
// and returns its format and payload.
//
// Example:
//
//	format, pcm, err := decode.WAV(fileBytes)
//	decoder, err := decode.NewPCM(format)
//	samples, err := decoder.Decode(pcm)
package decode
