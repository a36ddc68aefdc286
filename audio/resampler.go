// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ik5/rtmix/utils"
)

// antiAliasCutoff is the share of the destination rate kept when
// downsampling.
const antiAliasCutoff = 0.45

// Resampler streams src at another sample rate using cubic interpolation.
// It works on interleaved samples and keeps the channel count. When
// downsampling a one-pole low-pass runs ahead of the interpolator.
type Resampler struct {
	src      Source
	dstRate  int
	ratio    float64 // source frames per output frame
	channels int

	// four frames around the read position: t-1, t0, t+1, t+2
	frames [4][]float32
	have   [4]bool
	primed bool
	done   bool
	pos    float64

	srcBuf []float32
	off, n int
	eof    bool

	alpha   float32
	lowpass []float32
	warm    bool
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	ratio := float64(src.SampleRate()) / float64(dstRate)

	size := max(src.BufSize(), 4096)
	size -= size % channels

	r := &Resampler{
		src:      src,
		dstRate:  dstRate,
		ratio:    ratio,
		channels: channels,
		srcBuf:   make([]float32, size),
		lowpass:  make([]float32, channels),
	}

	if ratio > 1 {
		fc := antiAliasCutoff * float64(dstRate)
		r.alpha = float32(1 - math.Exp(-2*math.Pi*fc/float64(src.SampleRate())))
	}

	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// next copies the following source frame into f. It reports false once
// the source is drained.
func (r *Resampler) next(f []float32) (bool, error) {
	for r.off >= r.n {
		if r.eof {
			return false, nil
		}

		n, err := r.src.ReadSamples(r.srcBuf)
		r.n, r.off = n-n%r.channels, 0

		switch {
		case errors.Is(err, io.EOF):
			r.eof = true
		case err != nil:
			return false, fmt.Errorf("%w", err)
		case n == 0:
			return false, io.ErrNoProgress
		}
	}

	copy(f, r.srcBuf[r.off:r.off+r.channels])
	r.off += r.channels

	if r.alpha > 0 {
		if !r.warm {
			copy(r.lowpass, f)
			r.warm = true
		}
		for c := range f {
			r.lowpass[c] += r.alpha * (f[c] - r.lowpass[c])
			f[c] = r.lowpass[c]
		}
	}

	return true, nil
}

func (r *Resampler) prime() error {
	ok, err := r.next(r.frames[1])
	if err != nil {
		return err
	}
	if !ok {
		r.done = true
		return nil
	}

	copy(r.frames[0], r.frames[1])
	r.have[0], r.have[1] = true, true

	for i := 2; i < 4; i++ {
		if r.have[i], err = r.next(r.frames[i]); err != nil {
			return err
		}
		if !r.have[i] {
			copy(r.frames[i], r.frames[i-1])
		}
	}

	r.primed = true
	return nil
}

// advance slides the window one source frame forward. Past the end the
// last frame is repeated.
func (r *Resampler) advance() error {
	f := r.frames[0]
	r.frames[0], r.frames[1], r.frames[2], r.frames[3] = r.frames[1], r.frames[2], r.frames[3], f
	r.have[0], r.have[1], r.have[2] = r.have[1], r.have[2], r.have[3]

	var err error
	r.have[3] = false
	if r.have[2] {
		if r.have[3], err = r.next(r.frames[3]); err != nil {
			return err
		}
	}
	if !r.have[3] {
		copy(r.frames[3], r.frames[2])
	}

	return nil
}

// ReadSamples produces samples at the destination rate. len(dst) must be a
// multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if r.ratio == 1 {
		return r.src.ReadSamples(dst)
	}

	if !r.primed && !r.done {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	want := len(dst) / r.channels

	for written < want && !r.done {
		for r.pos >= 1 {
			r.pos--
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
		}

		// The last real frame is only emitted when it is hit exactly.
		if !r.have[1] || (!r.have[2] && r.pos > 0) {
			r.done = true
			break
		}

		t := float32(r.pos)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range out {
			out[c] = utils.CubicInterpolate(r.frames[0][c], r.frames[1][c], r.frames[2][c], r.frames[3][c], t)
		}

		written++
		r.pos += r.ratio
	}

	if r.done {
		if written == 0 {
			return 0, io.EOF
		}
		return written * r.channels, io.EOF
	}

	return written * r.channels, nil
}
