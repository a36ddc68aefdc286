// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"math"
	"testing"
)

func dcGain(c Coefficients) float64 {
	return float64(c.B0+c.B1+c.B2) / float64(1+c.A1+c.A2)
}

func TestLowPassCoefficients_UnityAtDC(t *testing.T) {
	t.Parallel()

	c := LowPassCoefficients(5000, 1.0, 48000)

	// Feedforward sum equals 1 + feedback sum, the normalized a0.
	sumB := float64(c.B0 + c.B1 + c.B2)
	sumA := float64(1 + c.A1 + c.A2)
	if math.Abs(sumB-sumA) > 1e-5 {
		t.Errorf("b0+b1+b2 = %v, 1+a1+a2 = %v", sumB, sumA)
	}
	if math.Abs(dcGain(c)-1) > 1e-4 {
		t.Errorf("DC gain = %v, want 1", dcGain(c))
	}
}

func TestHighPassCoefficients_ZeroAtDC(t *testing.T) {
	t.Parallel()

	c := HighPassCoefficients(200, 0.707, 48000)
	if sum := c.B0 + c.B1 + c.B2; math.Abs(float64(sum)) > 1e-6 {
		t.Errorf("b0+b1+b2 = %v, want 0", sum)
	}
}

func TestCoefficients_Clamped(t *testing.T) {
	t.Parallel()

	if LowPassCoefficients(1e6, 0.707, 48000) != LowPassCoefficients(MaxCutoff, 0.707, 48000) {
		t.Error("cutoff above range not clamped")
	}
	if LowPassCoefficients(1000, 0.01, 48000) != LowPassCoefficients(1000, MinResonance, 48000) {
		t.Error("resonance below range not clamped")
	}
	if HighPassCoefficients(1, 0.707, 48000) != HighPassCoefficients(MinCutoff, 0.707, 48000) {
		t.Error("cutoff below range not clamped")
	}
}

func TestBiquad_LowPassPassesDC(t *testing.T) {
	t.Parallel()

	b := NewBiquad(LowPassCoefficients(1000, 0.707, 48000))
	buf := make([]float32, 2*4800)

	for range 4 {
		for i := range buf {
			buf[i] = 0.5
		}
		b.Process(buf)
	}

	for ch := range 2 {
		if got := buf[len(buf)-2+ch]; math.Abs(float64(got)-0.5) > 1e-3 {
			t.Errorf("channel %d settled at %v, want 0.5", ch, got)
		}
	}
}

func TestBiquad_HighPassBlocksDC(t *testing.T) {
	t.Parallel()

	b := NewBiquad(HighPassCoefficients(500, 0.707, 48000))
	buf := make([]float32, 2*4800)

	for range 4 {
		for i := range buf {
			buf[i] = 0.5
		}
		b.Process(buf)
	}

	if got := buf[len(buf)-1]; math.Abs(float64(got)) > 1e-3 {
		t.Errorf("high-pass settled at %v, want 0", got)
	}
}

func TestBiquad_Passthrough(t *testing.T) {
	t.Parallel()

	b := NewBiquad(Passthrough)
	buf := []float32{0.1, -0.2, 0.3, -0.4}
	want := append([]float32(nil), buf...)

	b.Process(buf)
	for i := range buf {
		if buf[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, buf[i], want[i])
		}
	}
}
