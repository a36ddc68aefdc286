// SPDX-License-Identifier: EPL-2.0

package dsp

import "github.com/ik5/rtmix/utils"

const (
	DefaultDrive = 5
	MaxDrive     = 100
)

// Distortion soft-clips with a rational tanh approximation.
type Distortion struct {
	drive float32
	mix   float32
}

func NewDistortion() *Distortion {
	return &Distortion{drive: DefaultDrive, mix: 1}
}

// SetDrive sets the input gain ahead of the clipper, clamped to [1, MaxDrive].
func (d *Distortion) SetDrive(drive float32) {
	d.drive = utils.Clamp(drive, 1, MaxDrive)
}

// SetMix sets the blend of clipped and dry signal.
func (d *Distortion) SetMix(mix float32) {
	d.mix = utils.Clamp(mix, 0, 1)
}

// SoftClip approximates tanh(x). It reaches exactly ±1 at |x| = 3.
func SoftClip(x float32) float32 {
	x = utils.Clamp(x, -3, 3)
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

// Process distorts buf in place.
func (d *Distortion) Process(buf []float32) {
	for i, x := range buf {
		buf[i] = utils.Lerp(x, SoftClip(x*d.drive), d.mix)
	}
}
