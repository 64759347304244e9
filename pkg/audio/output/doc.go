// ABOUTME: Audio output package for the monitor client
// ABOUTME: Provides the Output interface with oto playback and WAV recording
// Package output provides audio sinks for relayed PCM.
//
// Oto plays through the system audio device. Recorder writes a WAV file
// whose header is patched with the final length on Close.
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(format)
//	err = out.Write(samples)
package output
