// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// mockReader stands in for oggvorbis.Reader. Like the real one it counts
// values, not frames.
type mockReader struct {
	sampleRate int
	channels   int
	samples    []float32
	offset     int
	chunk      int // most values per Read, 0 for no limit
	err        error
}

func (m *mockReader) SampleRate() int { return m.sampleRate }
func (m *mockReader) Channels() int   { return m.channels }

func (m *mockReader) Read(p []float32) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.offset >= len(m.samples) {
		return 0, io.EOF
	}

	n := min(len(p), len(m.samples)-m.offset)
	if m.chunk > 0 {
		n = min(n, m.chunk)
	}
	n -= n % m.channels

	copy(p, m.samples[m.offset:m.offset+n])
	m.offset += n
	return n, nil
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{nil, []byte("This is not Ogg Vorbis data")} {
		if _, err := (Decoder{}).Decode(bytes.NewReader(data)); !errors.Is(err, ErrNotVorbis) {
			t.Errorf("Decode(%q) error = %v, want ErrNotVorbis", data, err)
		}
	}
}

func TestSource_ReadsValues(t *testing.T) {
	t.Parallel()

	samples := []float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3, 0.4, -0.4}
	src := newSource(&mockReader{sampleRate: 44100, channels: 2, samples: samples, chunk: 4})

	if src.SampleRate() != 44100 || src.Channels() != 2 {
		t.Fatalf("stream = %d Hz %d ch, want 44100 Hz 2 ch", src.SampleRate(), src.Channels())
	}

	var got []float32
	buf := make([]float32, 6)
	for {
		n, err := src.ReadSamples(buf)
		got = append(got, buf[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}

	if len(got) != len(samples) {
		t.Fatalf("got %d values, want %d", len(got), len(samples))
	}
	for i := range got {
		if got[i] != samples[i] {
			t.Errorf("value %d = %v, want %v", i, got[i], samples[i])
		}
	}

	if n, err := src.ReadSamples(buf); n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples() after EOF = %d, %v, want 0, io.EOF", n, err)
	}
}

func TestSource_OddBufferTrimmed(t *testing.T) {
	t.Parallel()

	src := newSource(&mockReader{sampleRate: 8000, channels: 2, samples: make([]float32, 10)})

	n, err := src.ReadSamples(make([]float32, 5))
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 4 {
		t.Errorf("ReadSamples() = %d, want 4", n)
	}

	if n, err := src.ReadSamples(make([]float32, 1)); n != 0 || err != nil {
		t.Errorf("ReadSamples(1) = %d, %v, want 0, nil", n, err)
	}
}

func TestSource_DecodeError(t *testing.T) {
	t.Parallel()

	src := newSource(&mockReader{sampleRate: 8000, channels: 1, err: io.ErrUnexpectedEOF})

	_, err := src.ReadSamples(make([]float32, 16))
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadSamples() error = %v, want io.ErrUnexpectedEOF", err)
	}
	if errors.Is(err, io.EOF) {
		t.Error("a corrupt stream must not look like a clean end")
	}
}
