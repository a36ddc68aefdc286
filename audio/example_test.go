// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ik5/rtmix/audio"
	"github.com/ik5/rtmix/internal/audiotest"
)

// Example_resampler converts a 44.1 kHz stream to the 48 kHz a session
// usually runs at.
func Example_resampler() {
	src := audiotest.NewSineSource(44100, 2, 4410, 440)
	r := audio.NewResampler(src, 48000)

	fmt.Printf("%d Hz, %d channels\n", r.SampleRate(), r.Channels())
	// Output: 48000 Hz, 2 channels
}

// Example_downmixer folds a stereo stream to mono by averaging.
func Example_downmixer() {
	src := audiotest.NewSource(48000, 2, 4, func(_, ch int) float32 {
		if ch == 0 {
			return 0.5
		}
		return 0.25
	})

	mono, err := audio.NewDownmixer(src, 1)
	if err != nil {
		fmt.Println(err)
		return
	}

	buf := make([]float32, 4)
	n, _ := mono.ReadSamples(buf)
	fmt.Println(buf[:n])
	// Output: [0.375 0.375 0.375 0.375]
}

type silence struct{}

func (silence) Decode(io.Reader) (audio.Source, error) {
	return audiotest.NewSilentSource(22050, 1, 10), nil
}

// Example_registry looks decoders up by file extension.
func Example_registry() {
	reg := audio.NewRegistry()
	reg.Register("raw", silence{})

	src, err := reg.Decode(audio.FormatOf("clip.RAW"), bytes.NewReader(nil))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(src.SampleRate(), reg.Formats())

	_, err = reg.Decode(audio.FormatOf("clip.flac"), bytes.NewReader(nil))
	fmt.Println(errors.Is(err, audio.ErrUnknownFormat))
	// Output:
	// 22050 [raw]
	// true
}
