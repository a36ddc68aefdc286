// SPDX-License-Identifier: EPL-2.0

package rtmix

import (
	"errors"
	"math"
	"testing"

	"github.com/ik5/rtmix/device"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-5 }

func TestMusicLayer_Fade(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, device.Config{})
	a := loadSine(t, s, 1)

	h := s.PlayMusicLayer(0, a, 1)
	if h == NoVoice {
		t.Fatal("PlayMusicLayer() = NoVoice")
	}
	info, err := s.Voice(h)
	if err != nil {
		t.Fatalf("Voice() error = %v", err)
	}
	if !info.Music || !info.Looping || info.Priority != PriorityHigh {
		t.Errorf("music voice = %+v, want a looping high priority music voice", info)
	}

	s.FadeMusicLayer(0, 0, 1)
	s.Update(0.5)

	if got := s.MusicLayerGain(0); !near(got, 0.5) {
		t.Errorf("MusicLayerGain() = %v, want 0.5", got)
	}
	if info, _ := s.Voice(h); !near(info.Volume, 0.5) {
		t.Errorf("voice volume = %v, want 0.5", info.Volume)
	}

	s.Update(0.75)

	if s.Valid(h) {
		t.Error("layer faded to silence still playing")
	}
	if l, _ := s.MusicLayer(0); l.Active {
		t.Error("layer faded to silence still active")
	}
}

func TestMusicLayer_FadeUp(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, device.Config{})
	a := loadSine(t, s, 1)

	h := s.PlayMusicLayer(3, a, 0.2)
	s.FadeMusicLayer(3, 0.8, 2)

	for range 4 {
		s.Update(0.25)
	}
	if got := s.MusicLayerGain(3); !near(got, 0.5) {
		t.Errorf("MusicLayerGain() = %v, want 0.5", got)
	}

	s.Update(5)
	if got := s.MusicLayerGain(3); !near(got, 0.8) {
		t.Errorf("MusicLayerGain() = %v, want 0.8", got)
	}
	if !s.Valid(h) {
		t.Error("layer stopped after fading up")
	}
}

func TestMusicLayer_FadeImmediate(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, device.Config{})
	a := loadSine(t, s, 1)

	h := s.PlayMusicLayer(1, a, 1)
	s.FadeMusicLayer(1, 0.3, 0)
	if info, _ := s.Voice(h); !near(info.Volume, 0.3) {
		t.Errorf("voice volume = %v, want 0.3", info.Volume)
	}

	s.FadeMusicLayer(1, 0, 0)
	if s.Valid(h) {
		t.Error("layer cut to silence still playing")
	}
}

func TestMusicLayer_NonFiniteFade(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, device.Config{})
	a := loadSine(t, s, 1)

	h := s.PlayMusicLayer(2, a, 1)
	s.FadeMusicLayer(2, 0.4, float32(math.NaN()))
	if got := s.MusicLayerGain(2); !near(got, 0.4) {
		t.Errorf("MusicLayerGain() = %v, want 0.4 applied at once", got)
	}

	s.FadeMusicLayer(2, 0.8, 1)
	s.Update(float32(math.NaN()))
	s.Update(float32(math.Inf(1)))
	if got := s.MusicLayerGain(2); !near(got, 0.4) {
		t.Errorf("MusicLayerGain() = %v after non-finite Update, want 0.4", got)
	}

	s.Update(0.5)
	if info, _ := s.Voice(h); !near(info.Volume, 0.6) {
		t.Errorf("voice volume = %v, want 0.6", info.Volume)
	}
}

func TestCrossfadeMusic(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, device.Config{})
	a := loadSine(t, s, 1)
	b := loadSine(t, s, 1)

	from := s.PlayMusicLayer(0, a, 1)
	to := s.PlayMusicLayer(1, b, 0)

	s.CrossfadeMusic(0, 1, 2)
	s.Update(1)

	if got := s.MusicLayerGain(0); !near(got, 0.5) {
		t.Errorf("outgoing gain = %v, want 0.5", got)
	}
	if got := s.MusicLayerGain(1); !near(got, 0.5) {
		t.Errorf("incoming gain = %v, want 0.5", got)
	}

	s.Update(1)

	if s.Valid(from) {
		t.Error("outgoing layer still playing")
	}
	if !s.Valid(to) {
		t.Fatal("incoming layer stopped")
	}
	if got := s.MusicLayerGain(1); !near(got, 1) {
		t.Errorf("incoming gain = %v, want 1", got)
	}
}

func TestMusicIntensity(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, device.Config{})
	a := loadSine(t, s, 1)

	if got := s.MusicIntensity(); got != 1 {
		t.Errorf("MusicIntensity() = %v, want 1", got)
	}

	h0 := s.PlayMusicLayer(0, a, 0.8)
	h1 := s.PlayMusicLayer(1, a, 0.4)

	s.SetMusicIntensity(0.5)
	if info, _ := s.Voice(h0); !near(info.Volume, 0.4) {
		t.Errorf("layer 0 volume = %v, want 0.4", info.Volume)
	}
	if info, _ := s.Voice(h1); !near(info.Volume, 0.2) {
		t.Errorf("layer 1 volume = %v, want 0.2", info.Volume)
	}
	if got := s.MusicLayerGain(0); !near(got, 0.8) {
		t.Errorf("MusicLayerGain() = %v, want 0.8 before intensity", got)
	}

	s.SetMusicIntensity(3)
	if got := s.MusicIntensity(); got != 1 {
		t.Errorf("MusicIntensity() = %v, want it clamped to 1", got)
	}
}

func TestMusicLayer_Replace(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, device.Config{})
	a := loadSine(t, s, 1)

	first := s.PlayMusicLayer(2, a, 1)
	second := s.PlayMusicLayer(2, a, 1)

	if s.Valid(first) {
		t.Error("replaced layer voice still playing")
	}
	if !s.Valid(second) {
		t.Error("new layer voice not playing")
	}
	if got := s.ActiveVoices(); got != 1 {
		t.Errorf("ActiveVoices() = %d, want 1", got)
	}
}

func TestMusicLayer_OutOfRange(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, device.Config{})
	a := loadSine(t, s, 1)

	for _, layer := range []int{-1, MaxMusicLayers} {
		if h := s.PlayMusicLayer(layer, a, 1); h != NoVoice {
			t.Errorf("PlayMusicLayer(%d) = %v, want NoVoice", layer, h)
		}
		if _, err := s.MusicLayer(layer); !errors.Is(err, ErrInvalidLayer) {
			t.Errorf("MusicLayer(%d) error = %v, want ErrInvalidLayer", layer, err)
		}

		s.StopMusicLayer(layer)
		s.FadeMusicLayer(layer, 1, 1)
	}

	if got := s.ActiveVoices(); got != 0 {
		t.Errorf("ActiveVoices() = %d, want 0", got)
	}
}

func TestMusicLayer_StolenVoice(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, device.Config{})
	a := loadSine(t, s, 1)

	h := s.PlayMusicLayer(0, a, 1)
	s.Stop(h)
	s.Update(0.1)

	if l, _ := s.MusicLayer(0); l.Active {
		t.Error("layer still active after its voice was stopped")
	}
}
