// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"math"

	"github.com/ik5/rtmix/utils"
)

const (
	DefaultThreshold = 0.7
	DefaultRatio     = 4
	DefaultAttackMs  = 10
	DefaultReleaseMs = 100

	MinThreshold = 0.01
	MaxRatio     = 20
)

// Compressor is a feed-forward peak compressor on linked stereo.
type Compressor struct {
	threshold float32
	ratio     float32
	attack    float32
	release   float32
	makeup    float32
	envelope  float32
}

// NewCompressor returns a compressor with default settings for sampleRate.
func NewCompressor(sampleRate int) *Compressor {
	c := &Compressor{}
	c.Set(DefaultThreshold, DefaultRatio, DefaultAttackMs, DefaultReleaseMs, sampleRate)
	return c
}

func timeCoeff(ms float32, sampleRate int) float32 {
	if !(ms > 0) {
		return 0
	}
	return float32(math.Exp(-1 / (float64(ms) * float64(sampleRate) * 0.001)))
}

// Set configures the compressor. threshold is a linear level in
// [MinThreshold, 1] and ratio is clamped to [1, MaxRatio].
func (c *Compressor) Set(threshold, ratio, attackMs, releaseMs float32, sampleRate int) {
	c.threshold = utils.Clamp(threshold, MinThreshold, 1)
	c.ratio = utils.Clamp(ratio, 1, MaxRatio)
	c.attack = timeCoeff(attackMs, sampleRate)
	c.release = timeCoeff(releaseMs, sampleRate)

	// Full scale in, full scale out.
	c.makeup = 1 / (c.threshold + (1-c.threshold)/c.ratio)
}

// Makeup is the static output gain.
func (c *Compressor) Makeup() float32 { return c.makeup }

func (c *Compressor) Reset() { c.envelope = 0 }

// Process compresses interleaved stereo buf in place.
func (c *Compressor) Process(buf []float32) {
	for i := 0; i+1 < len(buf); i += 2 {
		l, r := buf[i], buf[i+1]
		peak := max(abs32(l), abs32(r))

		coeff := c.release
		if peak > c.envelope {
			coeff = c.attack
		}
		c.envelope = flush(peak + (c.envelope-peak)*coeff)

		gain := c.makeup
		if c.envelope > c.threshold {
			over := c.envelope - c.threshold
			gain *= 1 - (over-over/c.ratio)/c.envelope
		}

		buf[i] = l * gain
		buf[i+1] = r * gain
	}
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
