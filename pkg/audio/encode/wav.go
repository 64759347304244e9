// ABOUTME: WAV container encoder for relay snapshots
// ABOUTME: Prepends the canonical 44-byte RIFF/WAVE header to raw PCM bytes
package encode

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/pcm-relay/pkg/audio"
)

// HeaderSize is the length of the canonical PCM WAV header
const HeaderSize = 44

// ErrEmptyPCM is returned when asked to wrap zero bytes of audio
var ErrEmptyPCM = errors.New("cannot encode empty PCM data")

// Header is the on-disk layout of a canonical PCM WAV header, little-endian.
type Header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // 36 + data length
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32 // SampleRate * NumChannels * BytesPerSample
	BlockAlign    uint16 // NumChannels * BytesPerSample
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // data length
}

// NewHeader builds the header describing dataLen bytes of audio in format
func NewHeader(dataLen int, format audio.Format) Header {
	return Header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + dataLen),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   uint16(format.Channels),
		SampleRate:    uint32(format.SampleRate),
		ByteRate:      uint32(format.ByteRate()),
		BlockAlign:    uint16(format.BlockAlign()),
		BitsPerSample: uint16(format.BitDepth),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(dataLen),
	}
}

// MarshalBinary renders the header as its 44 wire bytes
func (h Header) MarshalBinary() ([]byte, error) {
	out := make([]byte, HeaderSize)
	h.put(out)
	return out, nil
}

func (h Header) put(b []byte) {
	le := binary.LittleEndian
	copy(b[0:4], h.ChunkID[:])
	le.PutUint32(b[4:8], h.ChunkSize)
	copy(b[8:12], h.Format[:])
	copy(b[12:16], h.Subchunk1ID[:])
	le.PutUint32(b[16:20], h.Subchunk1Size)
	le.PutUint16(b[20:22], h.AudioFormat)
	le.PutUint16(b[22:24], h.NumChannels)
	le.PutUint32(b[24:28], h.SampleRate)
	le.PutUint32(b[28:32], h.ByteRate)
	le.PutUint16(b[32:34], h.BlockAlign)
	le.PutUint16(b[34:36], h.BitsPerSample)
	copy(b[36:40], h.Subchunk2ID[:])
	le.PutUint32(b[40:44], h.Subchunk2Size)
}

// WAV wraps raw PCM bytes in a WAV container. Every length field is derived
// from len(pcm). The input slice is copied, never retained.
func WAV(pcm []byte, format audio.Format) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, ErrEmptyPCM
	}
	if uint64(len(pcm)) > uint64(^uint32(0))-36 {
		return nil, fmt.Errorf("PCM data too large for WAV container: %d bytes", len(pcm))
	}

	out := make([]byte, HeaderSize+len(pcm))
	NewHeader(len(pcm), format).put(out)
	copy(out[HeaderSize:], pcm)
	return out, nil
}
