// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"fmt"

	"github.com/ik5/rtmix/arena"
	"github.com/ik5/rtmix/utils"
)

var (
	combDelays    = [8]int{1557, 1617, 1491, 1422, 1277, 1356, 1188, 1116}
	allpassDelays = [4]int{225, 341, 441, 556}
)

const (
	allpassFeedback = 0.5
	combScale       = 0.125
	maxRoomFeedback = 0.98
	denormal        = 1e-15

	DefaultRoomSize = 0.5
	DefaultDamping  = 0.5
	DefaultWet      = 0.3
	DefaultDry      = 0.7
	DefaultWidth    = 1.0
)

type comb struct {
	buf   []float32
	idx   int
	store float32
}

// allpass delay lines are interleaved stereo.
type allpass struct {
	buf []float32
	idx int
}

// Reverb is a Freeverb-style network: eight damped combs in parallel on the
// mono sum, even combs to the left and odd combs to the right, then four
// stereo allpasses in series.
type Reverb struct {
	combs     [len(combDelays)]comb
	allpasses [len(allpassDelays)]allpass

	feedback     float32
	damp1, damp2 float32
	wet, dry     float32
	width        float32
}

// ReverbSamples is the number of float32 values a Reverb carves.
func ReverbSamples() int {
	n := 0
	for _, d := range combDelays {
		n += d
	}
	for _, d := range allpassDelays {
		n += 2 * d
	}
	return n
}

// Allocate carves the delay lines from mem. Calling it again is a no-op.
func (r *Reverb) Allocate(mem *arena.Arena) error {
	if r.combs[0].buf != nil {
		return nil
	}

	buf, err := mem.Float32s(ReverbSamples())
	if err != nil {
		return fmt.Errorf("reverb: %w", err)
	}

	for i, d := range combDelays {
		r.combs[i].buf, buf = buf[:d:d], buf[d:]
	}
	for i, d := range allpassDelays {
		r.allpasses[i].buf, buf = buf[:2*d:2*d], buf[2*d:]
	}

	r.SetRoom(DefaultRoomSize, DefaultDamping)
	r.SetMix(DefaultWet, DefaultDry, DefaultWidth)

	return nil
}

// Allocated reports whether the delay lines exist.
func (r *Reverb) Allocated() bool { return r.combs[0].buf != nil }

// SetRoom sets the decay (roomSize) and high-frequency damping, both in [0, 1].
func (r *Reverb) SetRoom(roomSize, damping float32) {
	r.feedback = utils.Clamp(roomSize, 0, 1) * maxRoomFeedback
	r.damp1 = utils.Clamp(damping, 0, 1)
	r.damp2 = 1 - r.damp1
}

// SetMix sets the output gains and stereo width, all in [0, 1].
func (r *Reverb) SetMix(wet, dry, width float32) {
	r.wet = utils.Clamp(wet, 0, 1)
	r.dry = utils.Clamp(dry, 0, 1)
	r.width = utils.Clamp(width, 0, 1)
}

// Reset silences every delay line.
func (r *Reverb) Reset() {
	for i := range r.combs {
		clear(r.combs[i].buf)
		r.combs[i].idx = 0
		r.combs[i].store = 0
	}
	for i := range r.allpasses {
		clear(r.allpasses[i].buf)
		r.allpasses[i].idx = 0
	}
}

func flush(x float32) float32 {
	if (x < denormal && x > -denormal) || !utils.Finite(x) {
		return 0
	}
	return x
}

// Process runs the reverb over interleaved stereo buf in place.
func (r *Reverb) Process(buf []float32) {
	if !r.Allocated() {
		return
	}

	cross := 1 - r.width

	for i := 0; i+1 < len(buf); i += 2 {
		inL, inR := buf[i], buf[i+1]
		in := (inL + inR) * 0.5

		var outL, outR float32
		for c := range r.combs {
			cb := &r.combs[c]
			delayed := cb.buf[cb.idx]
			cb.store = flush(delayed*r.damp2 + cb.store*r.damp1)
			cb.buf[cb.idx] = in + cb.store*r.feedback

			if c&1 == 0 {
				outL += delayed
			} else {
				outR += delayed
			}

			cb.idx++
			if cb.idx == len(cb.buf) {
				cb.idx = 0
			}
		}
		outL *= combScale
		outR *= combScale

		for a := range r.allpasses {
			ap := &r.allpasses[a]
			j := ap.idx * 2

			dl := ap.buf[j]
			ap.buf[j] = flush(outL + dl*allpassFeedback)
			outL = dl - outL*allpassFeedback

			dr := ap.buf[j+1]
			ap.buf[j+1] = flush(outR + dr*allpassFeedback)
			outR = dr - outR*allpassFeedback

			ap.idx++
			if ap.idx*2 == len(ap.buf) {
				ap.idx = 0
			}
		}

		wet1 := outL * r.width
		wet2 := outR * r.width
		buf[i] = inL*r.dry + (wet1+wet2*cross)*r.wet
		buf[i+1] = inR*r.dry + (wet2+wet1*cross)*r.wet
	}
}
