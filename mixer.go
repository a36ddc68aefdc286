// SPDX-License-Identifier: EPL-2.0

package rtmix

import (
	"math"

	"github.com/ik5/rtmix/asset"
	"github.com/ik5/rtmix/spatial"
	"github.com/ik5/rtmix/utils"
)

// bus gains for one voice and one period
type gains struct {
	fxL, fxR         float32
	directL, directR float32
}

// mix renders every playing voice into the effect bus and the direct bus.
// It runs on the realtime goroutine only.
func (s *Session) mix() {
	clear(s.fx)
	clear(s.direct)

	master := s.master.Load()
	soundBus := s.soundVolume.Load() * master
	musicBus := s.musicVolume.Load() * master

	listener := spatial.Listener{
		Position: s.listener.position.Load(),
		Forward:  s.listener.forward.Load(),
		Up:       s.listener.up.Load(),
		Velocity: s.listener.velocity.Load(),
	}

	for i := range s.voices {
		v := &s.voices[i]

		st := v.status.Load()
		if st&activeBit == 0 {
			continue
		}
		if gen := st >> 1; gen != v.playing {
			v.playing = gen
			v.cursor = 0
		}
		if v.paused.Load() {
			continue
		}

		a := s.assets.Get(asset.Handle(v.asset.Load()))
		if a == nil {
			v.status.CompareAndSwap(st, st&^activeBit)
			continue
		}

		volume := v.volume.Load() * soundBus
		if v.music.Load() {
			volume = v.volume.Load() * musicBus
		}

		pitch := v.pitch.Load()
		var left, right float32
		if v.spatial.Load() {
			res := spatial.Compute(listener, spatial.Source{
				Position:    v.position.Load(),
				Velocity:    v.velocity.Load(),
				MinDistance: v.minDistance.Load(),
				MaxDistance: v.maxDistance.Load(),
			}, volume)
			left, right = res.Left, res.Right
			pitch *= res.Pitch
		} else {
			left, right = spatial.PanGains(volume, v.pan.Load())
		}

		send := v.send.Load()
		g := gains{
			fxL:     left * send,
			fxR:     right * send,
			directL: left * (1 - send),
			directR: right * (1 - send),
		}
		step := float64(pitch) * float64(a.SampleRate()) / float64(s.cfg.SampleRate)
		if !(step > 0) || math.IsInf(step, 0) {
			step = 1
		}

		if s.render(v, a, g, step) {
			v.status.CompareAndSwap(st, st&^activeBit)
		}
	}
}

// render accumulates one period of v into the buses and reports whether
// a non-looping voice ran off the end of its asset.
func (s *Session) render(v *voice, a *asset.Asset, g gains, step float64) bool {
	samples := s.assets.Samples(a)
	frames := a.Frames()
	end := float64(frames)
	loop := v.loop.Load()

	pos := v.cursor
	if pos < 0 || pos >= end {
		pos = 0
	}

	stereo := a.Channels() == 2
	for f := 0; f < len(s.fx); f += 2 {
		i := int(pos)
		j := i + 1
		if j >= frames {
			if loop {
				j = 0
			} else {
				j = i
			}
		}
		t := float32(pos - float64(i))

		var l, r float32
		if stereo {
			l = utils.Lerp(utils.Int16ToFloat32(samples[2*i]), utils.Int16ToFloat32(samples[2*j]), t)
			r = utils.Lerp(utils.Int16ToFloat32(samples[2*i+1]), utils.Int16ToFloat32(samples[2*j+1]), t)
		} else {
			l = utils.Lerp(utils.Int16ToFloat32(samples[i]), utils.Int16ToFloat32(samples[j]), t)
			r = l
		}

		s.fx[f] += l * g.fxL
		s.fx[f+1] += r * g.fxR
		s.direct[f] += l * g.directL
		s.direct[f+1] += r * g.directR

		pos += step
		if pos >= end {
			if !loop {
				v.cursor = end
				return true
			}
			for pos >= end {
				pos -= end
			}
		}
	}

	v.cursor = pos
	return false
}
