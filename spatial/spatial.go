// SPDX-License-Identifier: EPL-2.0

// Package spatial computes the per-period gains and pitch of a 3D voice
// relative to a listener. Everything here is a pure function.
package spatial

import "github.com/ik5/rtmix/utils"

const (
	// SpeedOfSound in world units per second.
	SpeedOfSound = 343.0

	DefaultMinDistance = 1.0
	DefaultMaxDistance = 100.0

	MinDoppler = 0.5
	MaxDoppler = 2.0

	epsilon = 1e-6
)

// Listener is where the mix is heard from.
type Listener struct {
	Position Vec3
	Forward  Vec3
	Up       Vec3
	Velocity Vec3
}

// DefaultListener sits at the origin looking down -Z with +Y up.
func DefaultListener() Listener {
	return Listener{
		Forward: Vec3{Z: -1},
		Up:      Vec3{Y: 1},
	}
}

// Source is a positioned emitter.
type Source struct {
	Position    Vec3
	Velocity    Vec3
	MinDistance float32
	MaxDistance float32
}

// Result holds the gains and pitch multiplier for one period.
type Result struct {
	Left, Right float32
	Pitch       float32
}

// Attenuation is 1 at or inside min, 0 at or beyond max and linear between.
func Attenuation(dist, minDist, maxDist float32) float32 {
	if dist <= minDist {
		return 1
	}
	if dist >= maxDist {
		return 0
	}
	return 1 - (dist-minDist)/(maxDist-minDist)
}

// Right is the listener's right-hand axis, forward x up normalized. A
// degenerate orientation falls back to +X.
func Right(forward, up Vec3) Vec3 {
	r := forward.Cross(up).Normalize()
	if r == (Vec3{}) {
		return Vec3{X: 1}
	}
	return r
}

// Pan is the cosine between the direction to src and the right axis.
// A source on top of the listener is centered.
func Pan(listener, right, src Vec3) float32 {
	dir := src.Sub(listener).Normalize()
	p := dir.Dot(right)
	if !utils.Finite(p) {
		return 0
	}
	if p > 1 {
		return 1
	}
	if p < -1 {
		return -1
	}
	return p
}

// PanGains splits volume between the channels for pan in [-1, 1].
func PanGains(volume, pan float32) (left, right float32) {
	if !utils.Finite(pan) {
		pan = 0
	}
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	return volume * (1 - pan) * 0.5, volume * (1 + pan) * 0.5
}

// Doppler is the pitch multiplier for the closing speed of src and the
// listener, clamped to [MinDoppler, MaxDoppler]. Input that yields no finite
// shift leaves the pitch alone.
func Doppler(listenerPos, listenerVel, srcPos, srcVel Vec3) float32 {
	toListener := listenerPos.Sub(srcPos).Normalize()
	if toListener == (Vec3{}) {
		return 1
	}

	closing := srcVel.Sub(listenerVel).Dot(toListener)
	d := 1 + closing/SpeedOfSound
	if !utils.Finite(d) {
		return 1
	}
	if d < MinDoppler {
		return MinDoppler
	}
	if d > MaxDoppler {
		return MaxDoppler
	}
	return d
}

// Compute combines attenuation, pan and Doppler for src at volume. A
// source whose gains come out non-finite is silent.
func Compute(l Listener, src Source, volume float32) Result {
	att := Attenuation(l.Position.Distance(src.Position), src.MinDistance, src.MaxDistance)
	pan := Pan(l.Position, Right(l.Forward, l.Up), src.Position)
	left, right := PanGains(volume*att, pan)
	if !utils.Finite(left) || !utils.Finite(right) {
		left, right = 0, 0
	}

	return Result{
		Left:  left,
		Right: right,
		Pitch: Doppler(l.Position, l.Velocity, src.Position, src.Velocity),
	}
}
