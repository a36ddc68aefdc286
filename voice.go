// SPDX-License-Identifier: EPL-2.0

package rtmix

import (
	"fmt"
	"sync/atomic"

	"github.com/ik5/rtmix/asset"
	"github.com/ik5/rtmix/spatial"
	"github.com/ik5/rtmix/utils"
)

// MaxVoices is the size of the voice pool.
const MaxVoices = 128

const (
	MinPitch = 0.01
	MaxPitch = 16
)

// Priority decides which voice is stolen when the pool is full.
type Priority uint32

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return fmt.Sprintf("Priority(%d)", uint32(p))
	}
}

// VoiceHandle names one play of a voice slot. It stops working as soon as
// the slot is reused.
type VoiceHandle struct {
	Slot       uint32
	Generation uint64
}

// NoVoice is returned when nothing could be played.
var NoVoice = VoiceHandle{}

const activeBit = 1

// voice is one pool slot. It holds no pointers so the pool can live in
// arena memory. status packs generation<<1 | active; every other field
// above the marker is written by the control path and read each period.
type voice struct {
	status   atomic.Uint64
	asset    atomic.Uint32
	priority atomic.Uint32

	volume utils.AtomicFloat32
	pan    utils.AtomicFloat32
	pitch  utils.AtomicFloat32
	send   utils.AtomicFloat32

	loop    atomic.Bool
	paused  atomic.Bool
	spatial atomic.Bool
	music   atomic.Bool

	position    atomicVec3
	velocity    atomicVec3
	minDistance utils.AtomicFloat32
	maxDistance utils.AtomicFloat32

	// realtime
	cursor  float64
	playing uint64
}

type playArgs struct {
	asset    asset.Handle
	volume   float32
	pan      float32
	priority Priority
	loop     bool
	music    bool
	spatial  bool
	position spatial.Vec3
}

// claim picks an idle slot, or steals the lowest priority active one with
// ties going to the lowest index.
func (s *Session) claim() int {
	victim := -1
	lowest := Priority(^uint32(0))

	for i := range s.voices {
		st := s.voices[i].status.Load()
		if st&activeBit == 0 {
			return i
		}
		if p := Priority(s.voices[i].priority.Load()); p < lowest {
			lowest, victim = p, i
		}
	}

	return victim
}

func (s *Session) play(a playArgs) VoiceHandle {
	if s.assets.Get(a.asset) == nil {
		return NoVoice
	}

	i := s.claim()
	v := &s.voices[i]

	v.asset.Store(uint32(a.asset))
	v.priority.Store(uint32(a.priority))
	v.volume.Store(voiceVolume(a.volume))
	v.pan.Store(utils.Clamp(a.pan, -1, 1))
	v.pitch.Store(1)
	v.send.Store(1)
	v.loop.Store(a.loop)
	v.paused.Store(false)
	v.music.Store(a.music)
	v.spatial.Store(a.spatial)
	if a.position.Finite() {
		v.position.Store(a.position)
	} else {
		v.position.Store(spatial.Vec3{})
	}
	v.velocity.Store(spatial.Vec3{})
	v.minDistance.Store(spatial.DefaultMinDistance)
	v.maxDistance.Store(spatial.DefaultMaxDistance)

	gen := v.status.Load()>>1 + 1
	v.status.Store(gen<<1 | activeBit)

	return VoiceHandle{Slot: uint32(i), Generation: gen}
}

// voice returns the slot h refers to, or nil when h is stale.
func (s *Session) voice(h VoiceHandle) *voice {
	if h.Generation == 0 || h.Slot >= uint32(len(s.voices)) {
		return nil
	}

	v := &s.voices[h.Slot]
	if v.status.Load()>>1 != h.Generation {
		return nil
	}

	return v
}

// Play starts a at volume and pan with normal priority. It only returns
// NoVoice when a is not a loaded asset; a full pool steals a voice.
func (s *Session) Play(a asset.Handle, volume, pan float32) VoiceHandle {
	return s.PlayWithPriority(a, volume, pan, PriorityNormal)
}

func (s *Session) PlayWithPriority(a asset.Handle, volume, pan float32, p Priority) VoiceHandle {
	return s.play(playArgs{asset: a, volume: volume, pan: pan, priority: p})
}

// Play3D starts a positioned voice with the default distance range.
func (s *Session) Play3D(a asset.Handle, pos spatial.Vec3, volume float32) VoiceHandle {
	return s.play(playArgs{
		asset:    a,
		volume:   volume,
		priority: PriorityNormal,
		spatial:  true,
		position: pos,
	})
}

// Valid reports whether h still refers to a playing voice.
func (s *Session) Valid(h VoiceHandle) bool {
	v := s.voice(h)
	return v != nil && v.status.Load()&activeBit != 0
}

// Stop ends the voice. A stale handle is ignored.
func (s *Session) Stop(h VoiceHandle) {
	if v := s.voice(h); v != nil {
		st := v.status.Load()
		v.status.CompareAndSwap(st, st&^activeBit)
	}
}

// StopAll ends every voice, music included.
func (s *Session) StopAll() {
	for i := range s.voices {
		v := &s.voices[i]
		st := v.status.Load()
		v.status.CompareAndSwap(st, st&^activeBit)
	}
	for i := range s.music {
		s.music[i] = musicLayer{}
	}
}

func (s *Session) Pause(h VoiceHandle, paused bool) {
	if v := s.voice(h); v != nil {
		v.paused.Store(paused)
	}
}

// voiceVolume maps a caller's volume to a stored one: negative and non-finite
// values are silence.
func voiceVolume(volume float32) float32 {
	if !utils.Finite(volume) || volume < 0 {
		return 0
	}
	return volume
}

func (s *Session) SetVolume(h VoiceHandle, volume float32) {
	if v := s.voice(h); v != nil {
		v.volume.Store(voiceVolume(volume))
	}
}

// SetPan takes -1 (left) to 1 (right).
func (s *Session) SetPan(h VoiceHandle, pan float32) {
	if v := s.voice(h); v != nil {
		v.pan.Store(utils.Clamp(pan, -1, 1))
	}
}

// SetPitch sets the playback rate multiplier, clamped to [MinPitch, MaxPitch].
func (s *Session) SetPitch(h VoiceHandle, pitch float32) {
	if v := s.voice(h); v != nil {
		v.pitch.Store(utils.Clamp(pitch, MinPitch, MaxPitch))
	}
}

// SetPosition3D moves the voice and makes it positional. Non-finite
// coordinates are ignored.
func (s *Session) SetPosition3D(h VoiceHandle, pos spatial.Vec3) {
	if !pos.Finite() {
		return
	}
	if v := s.voice(h); v != nil {
		v.position.Store(pos)
		v.spatial.Store(true)
	}
}

func (s *Session) SetVelocity(h VoiceHandle, vel spatial.Vec3) {
	if !vel.Finite() {
		return
	}
	if v := s.voice(h); v != nil {
		v.velocity.Store(vel)
	}
}

func (s *Session) SetLooping(h VoiceHandle, loop bool) {
	if v := s.voice(h); v != nil {
		v.loop.Store(loop)
	}
}

func (s *Session) SetPriority(h VoiceHandle, p Priority) {
	if v := s.voice(h); v != nil {
		v.priority.Store(uint32(p))
	}
}

// SetDistance sets the range over which a positional voice fades out.
func (s *Session) SetDistance(h VoiceHandle, minDist, maxDist float32) {
	if v := s.voice(h); v != nil {
		if !(minDist >= 0) {
			minDist = 0
		}
		if !(maxDist >= minDist) {
			maxDist = minDist
		}
		v.minDistance.Store(minDist)
		v.maxDistance.Store(maxDist)
	}
}

// SetEffectSend sets how much of the voice goes through the effects rack.
// The rest bypasses it.
func (s *Session) SetEffectSend(h VoiceHandle, send float32) {
	if v := s.voice(h); v != nil {
		v.send.Store(utils.Clamp(send, 0, 1))
	}
}

// ActiveVoices counts playing slots, paused ones included.
func (s *Session) ActiveVoices() int {
	n := 0
	for i := range s.voices {
		if s.voices[i].status.Load()&activeBit != 0 {
			n++
		}
	}
	return n
}

// VoiceInfo is a snapshot of one voice's control state.
type VoiceInfo struct {
	Asset    asset.Handle
	Priority Priority
	Volume   float32
	Pan      float32
	Pitch    float32
	Send     float32
	Looping  bool
	Paused   bool
	Spatial  bool
	Music    bool
	Position spatial.Vec3
}

// Voice describes the voice h refers to. It fails with ErrInvalidHandle
// once the voice has finished or its slot was reused.
func (s *Session) Voice(h VoiceHandle) (VoiceInfo, error) {
	v := s.voice(h)
	if v == nil || v.status.Load()&activeBit == 0 {
		return VoiceInfo{}, fmt.Errorf("%w: slot %d generation %d", ErrInvalidHandle, h.Slot, h.Generation)
	}

	return VoiceInfo{
		Asset:    asset.Handle(v.asset.Load()),
		Priority: Priority(v.priority.Load()),
		Volume:   v.volume.Load(),
		Pan:      v.pan.Load(),
		Pitch:    v.pitch.Load(),
		Send:     v.send.Load(),
		Looping:  v.loop.Load(),
		Paused:   v.paused.Load(),
		Spatial:  v.spatial.Load(),
		Music:    v.music.Load(),
		Position: v.position.Load(),
	}, nil
}
