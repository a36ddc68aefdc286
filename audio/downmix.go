// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// Downmixer folds a stream into mono or stereo. Mono is the average of all
// channels; stereo from more than two channels averages the even channels
// into the left and the odd ones into the right. Mono to stereo duplicates.
type Downmixer struct {
	src      Source
	channels int
	tmp      []float32
}

func NewDownmixer(src Source, channels int) (*Downmixer, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("%w: %d output channels", ErrChannelLayout, channels)
	}
	if src.Channels() < 1 {
		return nil, fmt.Errorf("%w: %d input channels", ErrChannelLayout, src.Channels())
	}

	return &Downmixer{
		src:      src,
		channels: channels,
		tmp:      make([]float32, 4096),
	}, nil
}

func (m *Downmixer) SampleRate() int { return m.src.SampleRate() }
func (m *Downmixer) Channels() int   { return m.channels }
func (m *Downmixer) BufSize() int    { return m.src.BufSize() }

func (m *Downmixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (m *Downmixer) ReadSamples(dst []float32) (int, error) {
	if len(dst)%m.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if len(dst) == 0 {
		return 0, nil
	}

	in := m.src.Channels()
	if in == m.channels {
		return m.src.ReadSamples(dst)
	}

	need := len(dst) / m.channels * in
	if cap(m.tmp) < need {
		m.tmp = make([]float32, max(need, 8192))
	}
	m.tmp = m.tmp[:need]

	n, err := m.src.ReadSamples(m.tmp)
	frames := n / in
	if frames == 0 {
		return 0, err
	}
	src := m.tmp[:frames*in]

	switch {
	case m.channels == 2 && in == 1:
		for f, v := range src {
			dst[2*f], dst[2*f+1] = v, v
		}
	case m.channels == 1 && in == 2:
		for f := range frames {
			dst[f] = (src[2*f] + src[2*f+1]) * 0.5
		}
	case m.channels == 1:
		inv := 1 / float32(in)
		for f := range frames {
			var sum float32
			for _, v := range src[f*in : (f+1)*in] {
				sum += v
			}
			dst[f] = sum * inv
		}
	default:
		left := float32(1) / float32((in+1)/2)
		right := float32(1) / float32(in/2)
		for f := range frames {
			var l, r float32
			for c, v := range src[f*in : (f+1)*in] {
				if c%2 == 0 {
					l += v
				} else {
					r += v
				}
			}
			dst[2*f], dst[2*f+1] = l*left, r*right
		}
	}

	return frames * m.channels, err
}
