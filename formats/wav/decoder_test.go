// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/ik5/rtmix/audio"
	"github.com/ik5/rtmix/internal/audiotest"
)

// wavBytes builds a canonical 44-byte header WAV around data.
func wavBytes(sampleRate, channels, bits, format int, data []byte) []byte {
	buf := new(bytes.Buffer)
	le := binary.LittleEndian
	blockAlign := channels * bits / 8

	buf.WriteString("RIFF")
	_ = binary.Write(buf, le, uint32(36+len(data)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, le, uint32(16))
	_ = binary.Write(buf, le, uint16(format))
	_ = binary.Write(buf, le, uint16(channels))
	_ = binary.Write(buf, le, uint32(sampleRate))
	_ = binary.Write(buf, le, uint32(sampleRate*blockAlign))
	_ = binary.Write(buf, le, uint16(blockAlign))
	_ = binary.Write(buf, le, uint16(bits))

	buf.WriteString("data")
	_ = binary.Write(buf, le, uint32(len(data)))
	buf.Write(data)

	return buf.Bytes()
}

func pcm16(samples ...int16) []byte {
	b := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(s))
	}
	return b
}

func readAll(t *testing.T, src audio.Source) []float32 {
	t.Helper()

	var out []float32
	buf := make([]float32, 64*src.Channels())
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("ReadSamples() error = %v", err)
		}
	}
}

func TestDecoder_BitDepths(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		bits int
		data []byte
		want []float32
	}{
		{name: "16 bit", bits: 16, data: pcm16(0, 16384, -16384, -32768), want: []float32{0, 0.5, -0.5, -1}},
		{name: "8 bit unsigned", bits: 8, data: []byte{128, 192, 64, 0}, want: []float32{0, 0.5, -0.5, -1}},
		{name: "24 bit", bits: 24, data: []byte{0, 0, 0, 0, 0, 0x40, 0, 0, 0xc0, 0, 0, 0x80}, want: []float32{0, 0.5, -0.5, -1}},
		{name: "32 bit", bits: 32, data: []byte{0, 0, 0, 0, 0, 0, 0, 0x40, 0, 0, 0, 0xc0, 0, 0, 0, 0x80}, want: []float32{0, 0.5, -0.5, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src, err := Decoder{}.Decode(bytes.NewReader(wavBytes(8000, 1, tt.bits, formatPCM, tt.data)))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if src.SampleRate() != 8000 || src.Channels() != 1 {
				t.Errorf("stream = %d Hz %d ch, want 8000 Hz 1 ch", src.SampleRate(), src.Channels())
			}

			got := readAll(t, src)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d samples, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(float64(got[i]-tt.want[i])) > 1e-6 {
					t.Errorf("sample %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecoder_Stereo(t *testing.T) {
	t.Parallel()

	data := pcm16(100, -100, 200, -200, 300, -300)
	src, err := Decoder{}.Decode(bytes.NewReader(wavBytes(44100, 2, 16, formatPCM, data)))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if src.Channels() != 2 {
		t.Fatalf("Channels() = %d, want 2", src.Channels())
	}

	got := readAll(t, src)
	if len(got) != 6 {
		t.Fatalf("got %d samples, want 6", len(got))
	}
	for f := 0; f < len(got); f += 2 {
		if got[f] != -got[f+1] {
			t.Errorf("frame %d = (%v, %v), want mirrored channels", f/2, got[f], got[f+1])
		}
	}
}

func TestDecoder_NonSeekableInput(t *testing.T) {
	t.Parallel()

	data := wavBytes(8000, 1, 16, formatPCM, pcm16(1, 2, 3))
	src, err := Decoder{}.Decode(io.MultiReader(bytes.NewReader(data)))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got := len(readAll(t, src)); got != 3 {
		t.Errorf("got %d samples, want 3", got)
	}
}

func TestDecoder_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{name: "not riff", data: []byte("this is not a wav file at all, it is text."), want: ErrNotWavFile},
		{name: "empty", data: nil, want: ErrNotWavFile},
		{name: "float", data: wavBytes(8000, 1, 32, 3, make([]byte, 16)), want: ErrUnsupportedEncoding},
		{name: "12 bit", data: wavBytes(8000, 1, 12, formatPCM, make([]byte, 16)), want: ErrUnsupportedBitDepth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := (Decoder{}).Decode(bytes.NewReader(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSource_EOFIsSticky(t *testing.T) {
	t.Parallel()

	src, err := Decoder{}.Decode(bytes.NewReader(wavBytes(8000, 1, 16, formatPCM, pcm16(1, 2))))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	buf := make([]float32, 16)
	n, err := src.ReadSamples(buf)
	if n != 2 || !errors.Is(err, io.EOF) {
		t.Fatalf("ReadSamples() = %d, %v, want 2, io.EOF", n, err)
	}
	n, err = src.ReadSamples(buf)
	if n != 0 || !errors.Is(err, io.EOF) {
		t.Errorf("ReadSamples() after EOF = %d, %v, want 0, io.EOF", n, err)
	}
}

func TestWrite16_RoundTrip(t *testing.T) {
	t.Parallel()

	samples := make([]int16, 2*1000)
	for i := range samples {
		samples[i] = int16(i*37 - 20000)
	}

	out := &audiotest.Buffer{}
	if err := Write16(out, 22050, 2, samples); err != nil {
		t.Fatalf("Write16() error = %v", err)
	}

	src, err := Decoder{}.Decode(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if src.SampleRate() != 22050 || src.Channels() != 2 {
		t.Errorf("stream = %d Hz %d ch, want 22050 Hz 2 ch", src.SampleRate(), src.Channels())
	}

	got := readAll(t, src)
	if len(got) != len(samples) {
		t.Fatalf("got %d samples, want %d", len(got), len(samples))
	}
	for i, v := range got {
		if want := float32(samples[i]) / 32768; v != want {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
}

func TestWrite16_BadLayout(t *testing.T) {
	t.Parallel()

	if err := Write16(&audiotest.Buffer{}, 8000, 2, []int16{1, 2, 3}); !errors.Is(err, audio.ErrChannelLayout) {
		t.Errorf("Write16() error = %v, want ErrChannelLayout", err)
	}
}

func BenchmarkSource_ReadSamples(b *testing.B) {
	data := wavBytes(48000, 2, 16, formatPCM, make([]byte, 48000*4))
	buf := make([]float32, 4096)

	b.ReportAllocs()
	for range b.N {
		src, err := Decoder{}.Decode(bytes.NewReader(data))
		if err != nil {
			b.Fatal(err)
		}
		for {
			if _, err := src.ReadSamples(buf); err != nil {
				break
			}
		}
	}
}
