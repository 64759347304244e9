// ABOUTME: WAV container parser
// ABOUTME: Reads the canonical 44-byte header back into a Format and payload
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/pcm-relay/pkg/audio"
	"github.com/Resonate-Protocol/pcm-relay/pkg/audio/encode"
)

// ErrInvalidWAV is returned for data that is not a canonical PCM WAV file
var ErrInvalidWAV = errors.New("invalid WAV data")

// ParseHeader reads the 44-byte header at the start of data
func ParseHeader(data []byte) (encode.Header, error) {
	var h encode.Header
	if len(data) < encode.HeaderSize {
		return h, fmt.Errorf("%w: need at least %d bytes, got %d", ErrInvalidWAV, encode.HeaderSize, len(data))
	}

	le := binary.LittleEndian
	copy(h.ChunkID[:], data[0:4])
	h.ChunkSize = le.Uint32(data[4:8])
	copy(h.Format[:], data[8:12])
	copy(h.Subchunk1ID[:], data[12:16])
	h.Subchunk1Size = le.Uint32(data[16:20])
	h.AudioFormat = le.Uint16(data[20:22])
	h.NumChannels = le.Uint16(data[22:24])
	h.SampleRate = le.Uint32(data[24:28])
	h.ByteRate = le.Uint32(data[28:32])
	h.BlockAlign = le.Uint16(data[32:34])
	h.BitsPerSample = le.Uint16(data[34:36])
	copy(h.Subchunk2ID[:], data[36:40])
	h.Subchunk2Size = le.Uint32(data[40:44])

	switch {
	case string(h.ChunkID[:]) != "RIFF":
		return h, fmt.Errorf("%w: missing RIFF header", ErrInvalidWAV)
	case string(h.Format[:]) != "WAVE":
		return h, fmt.Errorf("%w: missing WAVE format", ErrInvalidWAV)
	case string(h.Subchunk1ID[:]) != "fmt ":
		return h, fmt.Errorf("%w: missing fmt chunk", ErrInvalidWAV)
	case string(h.Subchunk2ID[:]) != "data":
		return h, fmt.Errorf("%w: missing data chunk", ErrInvalidWAV)
	case h.AudioFormat != 1:
		return h, fmt.Errorf("%w: unsupported audio format %d (only PCM)", ErrInvalidWAV, h.AudioFormat)
	}

	return h, nil
}

// WAV parses a canonical PCM WAV file and returns its format and raw payload.
// The payload aliases data.
func WAV(data []byte) (audio.Format, []byte, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return audio.Format{}, nil, err
	}

	end := encode.HeaderSize + int(h.Subchunk2Size)
	if end > len(data) {
		return audio.Format{}, nil, fmt.Errorf("%w: data chunk claims %d bytes, only %d present",
			ErrInvalidWAV, h.Subchunk2Size, len(data)-encode.HeaderSize)
	}

	format := audio.Format{
		Codec:      audio.CodecPCM,
		SampleRate: int(h.SampleRate),
		Channels:   int(h.NumChannels),
		BitDepth:   int(h.BitsPerSample),
	}
	return format, data[encode.HeaderSize:end], nil
}
