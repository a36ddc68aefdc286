// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"math"

	"github.com/ik5/rtmix/utils"
)

const (
	MinCutoff    = 20
	MaxCutoff    = 20000
	MinResonance = 0.5
	MaxResonance = 20

	DefaultResonance = 0.707
)

// Coefficients of a normalized biquad: B are feedforward, A feedback, with
// a0 divided out.
type Coefficients struct {
	B0, B1, B2 float32
	A1, A2     float32
}

// Passthrough leaves the signal unchanged.
var Passthrough = Coefficients{B0: 1}

func rbj(cutoff, resonance float32, sampleRate int) (cosw, alpha float64) {
	cutoff = utils.Clamp(cutoff, MinCutoff, MaxCutoff)
	resonance = utils.Clamp(resonance, MinResonance, MaxResonance)

	// Keep the corner below Nyquist for low sample rates.
	nyq := float32(sampleRate) * 0.49
	if cutoff > nyq {
		cutoff = nyq
	}

	omega := 2 * math.Pi * float64(cutoff) / float64(sampleRate)
	return math.Cos(omega), math.Sin(omega) / (2 * float64(resonance))
}

// LowPassCoefficients designs an RBJ low-pass section.
func LowPassCoefficients(cutoff, resonance float32, sampleRate int) Coefficients {
	cosw, alpha := rbj(cutoff, resonance, sampleRate)
	a0 := 1 + alpha

	return Coefficients{
		B0: float32((1 - cosw) / 2 / a0),
		B1: float32((1 - cosw) / a0),
		B2: float32((1 - cosw) / 2 / a0),
		A1: float32(-2 * cosw / a0),
		A2: float32((1 - alpha) / a0),
	}
}

// HighPassCoefficients designs an RBJ high-pass section.
func HighPassCoefficients(cutoff, resonance float32, sampleRate int) Coefficients {
	cosw, alpha := rbj(cutoff, resonance, sampleRate)
	a0 := 1 + alpha

	return Coefficients{
		B0: float32((1 + cosw) / 2 / a0),
		B1: float32(-(1 + cosw) / a0),
		B2: float32((1 + cosw) / 2 / a0),
		A1: float32(-2 * cosw / a0),
		A2: float32((1 - alpha) / a0),
	}
}

// Biquad filters interleaved stereo in transposed direct form II. The delay
// state survives coefficient changes.
type Biquad struct {
	c      Coefficients
	z1, z2 [2]float32
}

func NewBiquad(c Coefficients) *Biquad {
	return &Biquad{c: c}
}

func (b *Biquad) Coefficients() Coefficients     { return b.c }
func (b *Biquad) SetCoefficients(c Coefficients) { b.c = c }

// Reset clears the delay state.
func (b *Biquad) Reset() {
	b.z1 = [2]float32{}
	b.z2 = [2]float32{}
}

// Process filters buf in place. buf holds interleaved stereo frames.
func (b *Biquad) Process(buf []float32) {
	c := b.c
	for i := 0; i+1 < len(buf); i += 2 {
		for ch := range 2 {
			x := buf[i+ch]
			y := c.B0*x + b.z1[ch]
			b.z1[ch] = flush(c.B1*x - c.A1*y + b.z2[ch])
			b.z2[ch] = flush(c.B2*x - c.A2*y)
			buf[i+ch] = y
		}
	}
}
