// SPDX-License-Identifier: EPL-2.0

package rtmix

import (
	"fmt"

	"github.com/ik5/rtmix/asset"
	"github.com/ik5/rtmix/utils"
)

// MaxMusicLayers is the number of independent music layers.
const MaxMusicLayers = 8

// musicLayer is control-path state only. The realtime goroutine sees a
// layer through its voice's volume.
type musicLayer struct {
	voice  VoiceHandle
	asset  asset.Handle
	gain   float32
	target float32
	rate   float32 // gain per second, signed
	active bool
}

func (s *Session) layer(i int) *musicLayer {
	if i < 0 || i >= MaxMusicLayers {
		return nil
	}
	return &s.music[i]
}

// applyLayer pushes the layer's gain, scaled by the intensity, to its voice.
func (s *Session) applyLayer(l *musicLayer) {
	s.SetVolume(l.voice, l.gain*s.intensity)
}

// PlayMusicLayer starts a looping, high priority voice for a on the music
// bus and binds it to layer, replacing whatever the layer played before.
func (s *Session) PlayMusicLayer(layer int, a asset.Handle, volume float32) VoiceHandle {
	l := s.layer(layer)
	if l == nil {
		return NoVoice
	}
	if l.active {
		s.Stop(l.voice)
	}

	volume = utils.Clamp(volume, 0, 1)
	h := s.play(playArgs{
		asset:    a,
		volume:   volume * s.intensity,
		priority: PriorityHigh,
		loop:     true,
		music:    true,
	})
	if h == NoVoice {
		*l = musicLayer{}
		return NoVoice
	}

	*l = musicLayer{
		voice:  h,
		asset:  a,
		gain:   volume,
		target: volume,
		active: true,
	}

	return h
}

// StopMusicLayer stops the layer's voice. An idle layer is left alone.
func (s *Session) StopMusicLayer(layer int) {
	l := s.layer(layer)
	if l == nil || !l.active {
		return
	}
	s.Stop(l.voice)
	*l = musicLayer{}
}

// MusicLayerGain is the layer's current gain before intensity, or 0 when
// the layer is idle.
func (s *Session) MusicLayerGain(layer int) float32 {
	l := s.layer(layer)
	if l == nil || !l.active {
		return 0
	}
	return l.gain
}

// MusicLayerInfo describes one music layer.
type MusicLayerInfo struct {
	Voice  VoiceHandle
	Asset  asset.Handle
	Gain   float32
	Target float32
	Active bool
}

// MusicLayer reports the state of layer. An index outside
// [0, MaxMusicLayers) fails with ErrInvalidLayer.
func (s *Session) MusicLayer(layer int) (MusicLayerInfo, error) {
	l := s.layer(layer)
	if l == nil {
		return MusicLayerInfo{}, fmt.Errorf("%w: %d", ErrInvalidLayer, layer)
	}

	return MusicLayerInfo{
		Voice:  l.voice,
		Asset:  l.asset,
		Gain:   l.gain,
		Target: l.target,
		Active: l.active,
	}, nil
}

// MusicIntensity is the current intensity.
func (s *Session) MusicIntensity() float32 { return s.intensity }

// SetMusicIntensity scales every layer at once, in [0, 1].
func (s *Session) SetMusicIntensity(intensity float32) {
	s.intensity = utils.Clamp(intensity, 0, 1)
	for i := range s.music {
		if l := &s.music[i]; l.active {
			s.applyLayer(l)
		}
	}
}

// FadeMusicLayer moves the layer's gain to target over seconds. A layer
// that fades to silence is stopped. seconds <= 0, or a duration that is
// not a finite number, applies target at once.
func (s *Session) FadeMusicLayer(layer int, target, seconds float32) {
	l := s.layer(layer)
	if l == nil || !l.active {
		return
	}

	l.target = utils.Clamp(target, 0, 1)
	if !(seconds > 0) || !utils.Finite(seconds) {
		l.gain = l.target
		l.rate = 0
		s.settle(layer, l)
		return
	}
	l.rate = (l.target - l.gain) / seconds
}

// CrossfadeMusic fades from out and to up to full gain over seconds.
func (s *Session) CrossfadeMusic(from, to int, seconds float32) {
	s.FadeMusicLayer(from, 0, seconds)
	s.FadeMusicLayer(to, 1, seconds)
}

// settle applies a layer's gain and retires it once it is silent and not
// on its way back up.
func (s *Session) settle(i int, l *musicLayer) {
	if l.gain <= 0 && l.target <= 0 {
		s.StopMusicLayer(i)
		return
	}
	s.applyLayer(l)
}

// Update advances music fades by dt seconds. Call it once per frame from
// the control side.
func (s *Session) Update(dt float32) {
	if !(dt > 0) || !utils.Finite(dt) {
		return
	}

	for i := range s.music {
		l := &s.music[i]
		if !l.active {
			continue
		}

		// The voice may have been stolen or stopped directly.
		if !s.Valid(l.voice) {
			*l = musicLayer{}
			continue
		}
		if l.rate == 0 {
			continue
		}

		l.gain += l.rate * dt
		if (l.rate > 0 && l.gain >= l.target) || (l.rate < 0 && l.gain <= l.target) {
			l.gain = l.target
			l.rate = 0
		}
		l.gain = utils.Clamp(l.gain, 0, 1)
		s.settle(i, l)
	}
}
