// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/rtmix/audio"
	"github.com/ik5/rtmix/utils"
)

// go-mp3 always produces interleaved stereo 16-bit little-endian PCM.
const channels = 2

// mp3Reader is the part of gomp3.Decoder a source reads from.
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
	keep       int // bytes of a split frame carried to the next read
	eof        bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / 2 }

const frameBytes = 2 * channels

func (s *source) ReadSamples(dst []float32) (int, error) {
	if s.eof {
		return 0, io.EOF
	}

	want := (len(dst) - len(dst)%channels) * 2
	if want == 0 {
		return 0, nil
	}
	if cap(s.buf) < want {
		buf := make([]byte, want)
		copy(buf, s.buf[:s.keep])
		s.buf = buf
	}
	s.buf = s.buf[:want]

	n, err := io.ReadAtLeast(s.dec, s.buf[s.keep:], frameBytes-s.keep)
	n += s.keep
	whole := n - n%frameBytes

	for i := range whole / 2 {
		dst[i] = utils.Int16ToFloat32(int16(binary.LittleEndian.Uint16(s.buf[2*i:])))
	}
	s.keep = copy(s.buf, s.buf[whole:n])

	switch {
	case err == nil:
		return whole / 2, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		s.eof = true
		return whole / 2, io.EOF
	default:
		return whole / 2, fmt.Errorf("decoding mp3: %w", err)
	}
}

// Decoder reads MPEG-1/2 layer III streams with github.com/hajimehoshi/go-mp3.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotMP3, err)
	}

	return newSource(dec), nil
}

func newSource(dec mp3Reader) *source {
	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}
}
