// ABOUTME: File and HTTP audio sources
// ABOUTME: Decodes WAV, MP3 and FLAC with optional looping
package source

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/Resonate-Protocol/pcm-relay/pkg/audio"
	"github.com/Resonate-Protocol/pcm-relay/pkg/audio/decode"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
)

// MP3 reads from an MP3 file
type MP3 struct {
	file       *os.File
	decoder    *mp3.Decoder
	loop       bool
	sampleRate int
	title      string
	buf        []byte
}

// NewMP3 creates a new MP3 source
func NewMP3(filePath string, loop bool) (*MP3, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	title := titleFromPath(filePath)
	log.Printf("Loaded MP3: %s (sample rate: %d Hz)", title, decoder.SampleRate())

	return &MP3{
		file:       f,
		decoder:    decoder,
		loop:       loop,
		sampleRate: decoder.SampleRate(),
		title:      title,
	}, nil
}

func (s *MP3) Read(samples []int32) (int, error) {
	n, err := readInt16LE(s.decoder, samples, &s.buf)
	if err == io.EOF && s.loop {
		if _, seekErr := s.file.Seek(0, io.SeekStart); seekErr != nil {
			return n, fmt.Errorf("failed to seek to start: %w", seekErr)
		}
		decoder, decErr := mp3.NewDecoder(s.file)
		if decErr != nil {
			return n, fmt.Errorf("failed to create new decoder: %w", decErr)
		}
		s.decoder = decoder
		return n, nil
	}
	if err == io.EOF && n > 0 {
		return n, nil
	}
	return n, err
}

func (s *MP3) SampleRate() int { return s.sampleRate }

// Channels is always 2: go-mp3 decodes to stereo
func (s *MP3) Channels() int { return 2 }
func (s *MP3) Metadata() (string, string, string) {
	return s.title, "", ""
}
func (s *MP3) Close() error {
	return s.file.Close()
}

// FLAC reads from a FLAC file
type FLAC struct {
	file       *os.File
	stream     *flac.Stream
	loop       bool
	sampleRate int
	channels   int
	bitDepth   int
	title      string

	// Decoded samples not yet returned, interleaved
	pending []int32
}

// NewFLAC creates a new FLAC source
func NewFLAC(filePath string, loop bool) (*FLAC, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	stream, err := flac.New(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	title := titleFromPath(filePath)

	log.Printf("Loaded FLAC: %s (sample rate: %d Hz, channels: %d, bit depth: %d)",
		title, info.SampleRate, info.NChannels, info.BitsPerSample)

	return &FLAC{
		file:       f,
		stream:     stream,
		loop:       loop,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
		title:      title,
	}, nil
}

func (s *FLAC) Read(samples []int32) (int, error) {
	for len(s.pending) < len(samples) {
		frame, err := s.stream.ParseNext()
		if err != nil {
			if err != io.EOF {
				return 0, err
			}
			if !s.loop {
				if len(s.pending) == 0 {
					return 0, io.EOF
				}
				break
			}
			if _, seekErr := s.file.Seek(0, io.SeekStart); seekErr != nil {
				return 0, fmt.Errorf("failed to seek to start: %w", seekErr)
			}
			stream, decErr := flac.New(s.file)
			if decErr != nil {
				return 0, fmt.Errorf("failed to create new stream: %w", decErr)
			}
			s.stream = stream
			continue
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			for ch := 0; ch < s.channels; ch++ {
				s.pending = append(s.pending, scaleTo24(frame.Subframes[ch].Samples[i], s.bitDepth))
			}
		}
	}

	n := copy(samples, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *FLAC) SampleRate() int { return s.sampleRate }
func (s *FLAC) Channels() int   { return s.channels }
func (s *FLAC) Metadata() (string, string, string) {
	return s.title, "", ""
}
func (s *FLAC) Close() error {
	return s.file.Close()
}

// scaleTo24 moves a sample of the given bit depth into the 24-bit range
func scaleTo24(sample int32, bitDepth int) int32 {
	shift := bitDepth - 24
	if shift > 0 {
		return sample >> shift
	}
	return sample << -shift
}

// WAV plays a PCM WAV file held in memory
type WAV struct {
	samples    []int32
	pos        int
	loop       bool
	sampleRate int
	channels   int
	title      string
}

// NewWAV loads a 16 or 24-bit PCM WAV file
func NewWAV(filePath string, loop bool) (*WAV, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV file: %w", err)
	}

	format, pcm, err := decode.WAV(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse WAV file: %w", err)
	}

	return newWAV(titleFromPath(filePath), format, pcm, loop)
}

func newWAV(title string, format audio.Format, pcm []byte, loop bool) (*WAV, error) {
	dec, err := decode.NewPCM(format)
	if err != nil {
		return nil, err
	}
	samples, err := dec.Decode(pcm)
	if err != nil {
		return nil, fmt.Errorf("failed to decode PCM: %w", err)
	}
	if len(samples) == 0 {
		return nil, errors.New("WAV file holds no audio")
	}

	log.Printf("Loaded WAV: %s (%s, %v)", title, format, format.Duration(len(pcm)))

	return &WAV{
		samples:    samples,
		loop:       loop,
		sampleRate: format.SampleRate,
		channels:   format.Channels,
		title:      title,
	}, nil
}

func (s *WAV) Read(samples []int32) (int, error) {
	n := 0
	for n < len(samples) {
		if s.pos == len(s.samples) {
			if !s.loop {
				break
			}
			s.pos = 0
		}
		c := copy(samples[n:], s.samples[s.pos:])
		s.pos += c
		n += c
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (s *WAV) SampleRate() int { return s.sampleRate }
func (s *WAV) Channels() int   { return s.channels }
func (s *WAV) Metadata() (string, string, string) {
	return s.title, "", ""
}
func (s *WAV) Close() error { return nil }

// HTTPMP3 streams MP3 from an HTTP URL. It never loops.
type HTTPMP3 struct {
	url        string
	response   *http.Response
	decoder    *mp3.Decoder
	sampleRate int
	buf        []byte
}

// NewHTTPMP3 creates a new HTTP MP3 streaming source
func NewHTTPMP3(url string) (*HTTPMP3, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HTTP stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	decoder, err := mp3.NewDecoder(resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to decode MP3 stream: %w", err)
	}

	log.Printf("Streaming MP3 from HTTP: %s (sample rate: %d Hz)", url, decoder.SampleRate())

	return &HTTPMP3{
		url:        url,
		response:   resp,
		decoder:    decoder,
		sampleRate: decoder.SampleRate(),
	}, nil
}

func (s *HTTPMP3) Read(samples []int32) (int, error) {
	n, err := readInt16LE(s.decoder, samples, &s.buf)
	if err == io.EOF && n > 0 {
		return n, nil
	}
	return n, err
}

func (s *HTTPMP3) SampleRate() int { return s.sampleRate }
func (s *HTTPMP3) Channels() int   { return 2 }
func (s *HTTPMP3) Metadata() (string, string, string) {
	return s.url, "HTTP Stream", ""
}
func (s *HTTPMP3) Close() error {
	return s.response.Body.Close()
}

// readInt16LE fills samples from a 16-bit little-endian PCM reader, scaled
// to the 24-bit range. buf is reused between calls.
func readInt16LE(r io.Reader, samples []int32, buf *[]byte) (int, error) {
	need := len(samples) * 2
	if cap(*buf) < need {
		*buf = make([]byte, need)
	}
	b := (*buf)[:need]

	n, err := io.ReadFull(r, b)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}

	numSamples := n / 2
	for i := 0; i < numSamples; i++ {
		samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(b[i*2:])))
	}
	return numSamples, err
}
