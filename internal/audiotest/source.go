// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides signal generators and a capture device for
// tests. Source satisfies audio.Source without importing it.
package audiotest

import (
	"encoding/binary"
	"io"
	"math"
)

// Waveform returns the value of channel ch at frame n.
type Waveform func(n, ch int) float32

// Source generates a fixed number of frames from a Waveform.
type Source struct {
	sampleRate int
	channels   int
	frames     int
	pos        int
	wave       Waveform
	closed     bool
}

func NewSource(sampleRate, channels, frames int, wave Waveform) *Source {
	return &Source{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		wave:       wave,
	}
}

func NewSilentSource(sampleRate, channels, frames int) *Source {
	return NewConstantSource(sampleRate, channels, frames, 0)
}

func NewConstantSource(sampleRate, channels, frames int, value float32) *Source {
	return NewSource(sampleRate, channels, frames, func(int, int) float32 { return value })
}

// NewSineSource plays freq Hz at full scale on every channel.
func NewSineSource(sampleRate, channels, frames int, freq float64) *Source {
	return NewSource(sampleRate, channels, frames, Sine(sampleRate, freq, 1))
}

// Sine is a Waveform of freq Hz at amplitude amp.
func Sine(sampleRate int, freq float64, amp float32) Waveform {
	return func(n, _ int) float32 {
		return amp * float32(math.Sin(2*math.Pi*freq*float64(n)/float64(sampleRate)))
	}
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) BufSize() int    { return 4096 }
func (s *Source) Closed() bool    { return s.closed }

func (s *Source) Close() error {
	s.closed = true
	return nil
}

// Reset rewinds to the first frame.
func (s *Source) Reset() { s.pos = 0 }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if s.pos >= s.frames {
		return 0, io.EOF
	}

	n := min(len(dst)/s.channels, s.frames-s.pos)
	for f := range n {
		for ch := range s.channels {
			dst[f*s.channels+ch] = s.wave(s.pos+f, ch)
		}
	}
	s.pos += n

	if s.pos >= s.frames {
		return n * s.channels, io.EOF
	}
	return n * s.channels, nil
}

// PCM16 renders frames of wave as interleaved little-endian int16.
func PCM16(channels, frames int, wave Waveform) []byte {
	b := make([]byte, frames*channels*2)
	for f := range frames {
		for ch := range channels {
			v := max(-1, min(1, wave(f, ch)))
			binary.LittleEndian.PutUint16(b[(f*channels+ch)*2:], uint16(int16(v*32767)))
		}
	}
	return b
}

// SinePCM16 is PCM16 of a mono sine of freq Hz at amplitude amp.
func SinePCM16(sampleRate, frames int, freq float64, amp float32) []byte {
	return PCM16(1, frames, Sine(sampleRate, freq, amp))
}

// ConstantPCM16 is PCM16 holding value on every channel.
func ConstantPCM16(channels, frames int, value float32) []byte {
	return PCM16(channels, frames, func(int, int) float32 { return value })
}
