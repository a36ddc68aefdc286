// SPDX-License-Identifier: EPL-2.0

package rtmix

import (
	"errors"
	"math"
	"testing"

	"github.com/ik5/rtmix/device"
	"github.com/ik5/rtmix/spatial"
)

func TestPlay_StealsWhenFull(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, device.Config{})
	a := loadSine(t, s, 1)

	handles := make([]VoiceHandle, 0, MaxVoices*2)
	for i := range MaxVoices * 2 {
		h := s.Play(a, 0.1, 0)
		if h == NoVoice || !s.Valid(h) {
			t.Fatalf("Play() #%d = %v, want a playing voice", i, h)
		}
		if got := s.ActiveVoices(); got > MaxVoices {
			t.Fatalf("ActiveVoices() = %d, want <= %d", got, MaxVoices)
		}
		handles = append(handles, h)
	}

	if got := s.ActiveVoices(); got != MaxVoices {
		t.Errorf("ActiveVoices() = %d, want %d", got, MaxVoices)
	}

	// Equal priorities always give up the lowest slot.
	if s.Valid(handles[0]) {
		t.Error("first voice survived being stolen")
	}
	for i, h := range handles[1:MaxVoices] {
		if !s.Valid(h) {
			t.Errorf("voice %d was stolen, want only slot 0 reused", i+1)
		}
	}
	if last := handles[len(handles)-1]; last.Slot != 0 || !s.Valid(last) {
		t.Errorf("last handle = %+v, want a valid handle on slot 0", last)
	}
}

func TestPlay_StealsLowestPriority(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, device.Config{})
	a := loadSine(t, s, 1)

	handles := make([]VoiceHandle, MaxVoices)
	for i := range MaxVoices {
		p := PriorityHigh
		if i == 40 || i == 90 {
			p = PriorityLow
		}
		handles[i] = s.PlayWithPriority(a, 0.1, 0, p)
	}

	// Ties go to the lowest slot.
	h := s.PlayWithPriority(a, 0.1, 0, PriorityCritical)
	if h.Slot != handles[40].Slot {
		t.Fatalf("stole slot %d, want %d", h.Slot, handles[40].Slot)
	}
	if h.Generation == handles[40].Generation {
		t.Error("stolen slot kept its generation")
	}

	h = s.Play(a, 0.1, 0)
	if h.Slot != handles[90].Slot {
		t.Fatalf("stole slot %d, want %d", h.Slot, handles[90].Slot)
	}

	// Now slot 90 is Normal and every other slot High or Critical.
	s.SetPriority(handles[10], PriorityLow)
	h = s.Play(a, 0.1, 0)
	if h.Slot != handles[10].Slot {
		t.Errorf("stole slot %d, want %d", h.Slot, handles[10].Slot)
	}
}

func TestHandleIdentity(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, device.Config{})
	a := loadSine(t, s, 1)

	old := s.Play(a, 0.5, 0)
	s.Stop(old)
	if s.Valid(old) {
		t.Fatal("Valid() = true after Stop")
	}

	h := s.Play(a, 0.25, 0)
	if h.Slot != old.Slot {
		t.Fatalf("Play() used slot %d, want the freed slot %d", h.Slot, old.Slot)
	}
	if h.Generation == old.Generation {
		t.Fatalf("generation %d reused", h.Generation)
	}

	s.SetVolume(old, 0.9)
	s.SetPan(old, 1)
	s.SetPitch(old, 2)
	s.Pause(old, true)
	s.Stop(old)

	if !s.Valid(h) {
		t.Fatal("old handle stopped the new voice")
	}
	info, err := s.Voice(h)
	if err != nil {
		t.Fatalf("Voice() error = %v", err)
	}
	if info.Volume != 0.25 || info.Pan != 0 || info.Pitch != 1 || info.Paused {
		t.Errorf("old handle changed the new voice: %+v", info)
	}

	if _, err := s.Voice(old); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Voice(old) error = %v, want ErrInvalidHandle", err)
	}
	if _, err := s.Voice(NoVoice); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Voice(NoVoice) error = %v, want ErrInvalidHandle", err)
	}
	if _, err := s.Voice(VoiceHandle{Slot: MaxVoices, Generation: 1}); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Voice(out of range) error = %v, want ErrInvalidHandle", err)
	}
}

func TestVoiceSetters(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, device.Config{})
	a := loadSine(t, s, 1)
	h := s.Play(a, 0.5, 0)

	s.SetVolume(h, -1)
	s.SetPan(h, -3)
	s.SetPitch(h, 100)
	s.SetEffectSend(h, 2)
	s.SetLooping(h, true)
	s.Pause(h, true)
	s.SetPosition3D(h, spatial.Vec3{X: 2})

	info, err := s.Voice(h)
	if err != nil {
		t.Fatalf("Voice() error = %v", err)
	}

	want := VoiceInfo{
		Asset:    a,
		Priority: PriorityNormal,
		Volume:   0,
		Pan:      -1,
		Pitch:    MaxPitch,
		Send:     1,
		Looping:  true,
		Paused:   true,
		Spatial:  true,
		Position: spatial.Vec3{X: 2},
	}
	if info != want {
		t.Errorf("Voice() = %+v, want %+v", info, want)
	}

	s.SetPitch(h, 0)
	if info, _ := s.Voice(h); info.Pitch != MinPitch {
		t.Errorf("Pitch = %v, want %v", info.Pitch, MinPitch)
	}
}

func TestVoiceSetters_NonFinite(t *testing.T) {
	t.Parallel()

	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	s, _ := newTestSession(t, device.Config{})
	a := loadSine(t, s, 1)
	h := s.Play3D(a, spatial.Vec3{X: 2}, 0.5)

	s.SetVolume(h, inf)
	s.SetPitch(h, nan)
	s.SetEffectSend(h, nan)
	s.SetPosition3D(h, spatial.Vec3{X: nan})
	s.SetVelocity(h, spatial.Vec3{Z: inf})

	info, err := s.Voice(h)
	if err != nil {
		t.Fatalf("Voice() error = %v", err)
	}
	if info.Volume != 0 {
		t.Errorf("Volume = %v, want 0 for an infinite volume", info.Volume)
	}
	if info.Pitch != MinPitch {
		t.Errorf("Pitch = %v, want %v", info.Pitch, MinPitch)
	}
	if info.Send != 0 {
		t.Errorf("Send = %v, want 0", info.Send)
	}
	if info.Position != (spatial.Vec3{X: 2}) {
		t.Errorf("Position = %+v, want the last finite position", info.Position)
	}

	p := s.Play3D(a, spatial.Vec3{Y: -inf}, nan)
	if info, _ := s.Voice(p); info.Position != (spatial.Vec3{}) || info.Volume != 0 {
		t.Errorf("Play3D() with non-finite input = %+v, want origin and silence", info)
	}
}

func TestPause_HoldsPosition(t *testing.T) {
	t.Parallel()

	s, dev := newTestSession(t, device.Config{})
	a := loadSine(t, s, 1)

	h := s.Play(a, 1, 0)
	s.Pause(h, true)
	dev.Step(3)

	for i, v := range lastPeriod(t, dev) {
		if v != 0 {
			t.Fatalf("sample %d = %v from a paused voice", i, v)
		}
	}
	if !s.Valid(h) {
		t.Fatal("paused voice was retired")
	}
	if got := s.ActiveVoices(); got != 1 {
		t.Errorf("ActiveVoices() = %d, want 1", got)
	}

	s.Pause(h, false)
	dev.Step(2)

	heard := false
	for _, v := range lastPeriod(t, dev) {
		if v != 0 {
			heard = true
		}
	}
	if !heard {
		t.Error("resumed voice is silent")
	}
}

func TestLooping_KeepsPlaying(t *testing.T) {
	t.Parallel()

	s, dev := newTestSession(t, device.Config{})

	// 1000 frames run out inside four periods of 256.
	rate := s.Config().SampleRate
	a, err := s.LoadFromMemory(make([]byte, 2000), 1, rate)
	if err != nil {
		t.Fatalf("LoadFromMemory() error = %v", err)
	}

	once := s.Play(a, 1, 0)
	loop := s.Play(a, 1, 0)
	s.SetLooping(loop, true)

	dev.Step(10)

	if s.Valid(once) {
		t.Error("one-shot voice still playing")
	}
	if !s.Valid(loop) {
		t.Error("looping voice stopped")
	}
}

func TestPan_RoutesChannels(t *testing.T) {
	t.Parallel()

	s, dev := newTestSession(t, device.Config{Format: device.FormatF32LE})

	a := loadSine(t, s, 1)
	s.Play(a, 1, -1)
	dev.Step(2)

	var left, right float32
	for i, v := range lastPeriod(t, dev) {
		if i%2 == 0 {
			left = max(left, v)
		} else {
			right = max(right, v)
		}
	}
	if left == 0 {
		t.Error("hard left voice is silent on the left")
	}
	if right != 0 {
		t.Errorf("hard left voice leaks %v into the right", right)
	}
}

func TestStopAll(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t, device.Config{})
	a := loadSine(t, s, 1)

	for range 10 {
		s.Play(a, 0.1, 0)
	}
	s.PlayMusicLayer(0, a, 1)

	s.StopAll()

	if got := s.ActiveVoices(); got != 0 {
		t.Errorf("ActiveVoices() = %d, want 0", got)
	}
	if info, _ := s.MusicLayer(0); info.Active {
		t.Error("music layer still active after StopAll")
	}
}

func TestPriority_String(t *testing.T) {
	t.Parallel()

	tests := map[Priority]string{
		PriorityLow:      "low",
		PriorityNormal:   "normal",
		PriorityHigh:     "high",
		PriorityCritical: "critical",
		Priority(9):      "Priority(9)",
	}
	for p, want := range tests {
		if got := p.String(); got != want {
			t.Errorf("Priority(%d).String() = %q, want %q", uint32(p), got, want)
		}
	}
}
