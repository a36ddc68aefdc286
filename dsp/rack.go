// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"fmt"
	"sync/atomic"

	"github.com/ik5/rtmix/arena"
	"github.com/ik5/rtmix/utils"
)

// MaxEffects is the number of slots in a Rack.
const MaxEffects = 8

type params struct {
	room, damping    utils.AtomicFloat32
	wet, dry, width  utils.AtomicFloat32
	cutoff, q        utils.AtomicFloat32
	delayMs          utils.AtomicFloat32
	feedback         utils.AtomicFloat32
	echoMix          utils.AtomicFloat32
	threshold, ratio utils.AtomicFloat32
	attack, release  utils.AtomicFloat32
	drive            utils.AtomicFloat32
}

func (p *params) defaults(k Kind) {
	switch k {
	case KindReverb:
		p.room.Store(DefaultRoomSize)
		p.damping.Store(DefaultDamping)
		p.wet.Store(DefaultWet)
		p.dry.Store(DefaultDry)
		p.width.Store(DefaultWidth)
	case KindLowPass:
		p.cutoff.Store(MaxCutoff)
		p.q.Store(DefaultResonance)
	case KindHighPass:
		p.cutoff.Store(MinCutoff)
		p.q.Store(DefaultResonance)
	case KindEcho:
		p.delayMs.Store(DefaultEchoDelayMs)
		p.feedback.Store(DefaultEchoFeedback)
		p.echoMix.Store(DefaultEchoMix)
	case KindCompressor:
		p.threshold.Store(DefaultThreshold)
		p.ratio.Store(DefaultRatio)
		p.attack.Store(DefaultAttackMs)
		p.release.Store(DefaultReleaseMs)
	case KindDistortion:
		p.drive.Store(DefaultDrive)
	}
}

// slot fields above the marker are written by the control path; the rest
// belong to the goroutine calling Process.
type slot struct {
	kind    atomic.Uint32
	enabled atomic.Bool
	mix     utils.AtomicFloat32
	epoch   atomic.Uint32
	version atomic.Uint32
	p       params

	// realtime
	seenEpoch   uint32
	seenVersion uint32
	active      Kind

	reverb Reverb
	filter Biquad
	echo   Echo
	comp   Compressor
	dist   Distortion
}

// Rack is an ordered chain of effect slots. Enable, Disable and the
// setters are control-path calls that never block; Process runs on the
// realtime goroutine and picks changes up at the start of each call.
type Rack struct {
	slots      [MaxEffects]slot
	sampleRate int
	scratch    []float32
	aborts     atomic.Uint64
}

// NewRack carves a dry scratch buffer of maxFrames stereo frames from mem.
func NewRack(mem *arena.Arena, sampleRate, maxFrames int) (*Rack, error) {
	scratch, err := mem.Float32s(maxFrames * 2)
	if err != nil {
		return nil, fmt.Errorf("rack scratch: %w", err)
	}

	return &Rack{
		sampleRate: sampleRate,
		scratch:    scratch,
	}, nil
}

func (r *Rack) slot(i int) (*slot, error) {
	if i < 0 || i >= MaxEffects {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlot, i)
	}
	return &r.slots[i], nil
}

// Enable puts a fresh unit of kind k in slot i with default parameters and
// a fully wet mix. Delay lines are carved from mem the first time a slot
// runs a kind that needs them and reused after that.
func (r *Rack) Enable(mem *arena.Arena, i int, k Kind) error {
	s, err := r.slot(i)
	if err != nil {
		return err
	}
	if !k.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidKind, uint32(k))
	}

	switch k {
	case KindReverb:
		err = s.reverb.Allocate(mem)
	case KindEcho:
		err = s.echo.Allocate(mem, r.sampleRate)
	}
	if err != nil {
		return err
	}

	s.p.defaults(k)
	s.mix.Store(1)
	s.kind.Store(uint32(k))
	s.version.Add(1)
	s.epoch.Add(1)
	s.enabled.Store(true)

	return nil
}

// Disable bypasses slot i. Its memory stays carved for a later Enable.
func (r *Rack) Disable(i int) error {
	s, err := r.slot(i)
	if err != nil {
		return err
	}
	s.enabled.Store(false)
	return nil
}

// Enabled reports whether slot i is running.
func (r *Rack) Enabled(i int) bool {
	s, err := r.slot(i)
	return err == nil && s.enabled.Load()
}

// Kind is the unit last enabled in slot i.
func (r *Rack) Kind(i int) Kind {
	s, err := r.slot(i)
	if err != nil {
		return KindNone
	}
	return Kind(s.kind.Load())
}

// Aborts counts slot periods skipped because the buffer outgrew the scratch.
func (r *Rack) Aborts() uint64 { return r.aborts.Load() }

func (r *Rack) set(i int, fn func(p *params)) error {
	s, err := r.slot(i)
	if err != nil {
		return err
	}
	fn(&s.p)
	s.version.Add(1)
	return nil
}

// SetMix sets the dry/wet blend of slot i in [0, 1].
func (r *Rack) SetMix(i int, mix float32) error {
	s, err := r.slot(i)
	if err != nil {
		return err
	}
	s.mix.Store(utils.Clamp(mix, 0, 1))
	return nil
}

func (r *Rack) SetReverb(i int, roomSize, damping float32) error {
	return r.set(i, func(p *params) {
		p.room.Store(roomSize)
		p.damping.Store(damping)
	})
}

func (r *Rack) SetReverbMix(i int, wet, dry, width float32) error {
	return r.set(i, func(p *params) {
		p.wet.Store(wet)
		p.dry.Store(dry)
		p.width.Store(width)
	})
}

// SetFilter applies to both low-pass and high-pass slots.
func (r *Rack) SetFilter(i int, cutoff, resonance float32) error {
	return r.set(i, func(p *params) {
		p.cutoff.Store(cutoff)
		p.q.Store(resonance)
	})
}

func (r *Rack) SetEcho(i int, delayMs, feedback float32) error {
	return r.set(i, func(p *params) {
		p.delayMs.Store(delayMs)
		p.feedback.Store(feedback)
	})
}

func (r *Rack) SetEchoMix(i int, mix float32) error {
	return r.set(i, func(p *params) {
		p.echoMix.Store(mix)
	})
}

func (r *Rack) SetCompressor(i int, threshold, ratio, attackMs, releaseMs float32) error {
	return r.set(i, func(p *params) {
		p.threshold.Store(threshold)
		p.ratio.Store(ratio)
		p.attack.Store(attackMs)
		p.release.Store(releaseMs)
	})
}

func (r *Rack) SetDistortion(i int, drive float32) error {
	return r.set(i, func(p *params) {
		p.drive.Store(drive)
	})
}

// sync picks up a new Enable (epoch) and new parameters (version).
func (r *Rack) sync(s *slot) {
	if e := s.epoch.Load(); e != s.seenEpoch {
		s.seenEpoch = e
		s.active = Kind(s.kind.Load())
		s.seenVersion = s.version.Load() - 1
		s.reset()
	}

	v := s.version.Load()
	if v == s.seenVersion {
		return
	}
	s.seenVersion = v

	p := &s.p
	switch s.active {
	case KindReverb:
		s.reverb.SetRoom(p.room.Load(), p.damping.Load())
		s.reverb.SetMix(p.wet.Load(), p.dry.Load(), p.width.Load())
	case KindLowPass:
		s.filter.SetCoefficients(LowPassCoefficients(p.cutoff.Load(), p.q.Load(), r.sampleRate))
	case KindHighPass:
		s.filter.SetCoefficients(HighPassCoefficients(p.cutoff.Load(), p.q.Load(), r.sampleRate))
	case KindEcho:
		s.echo.SetDelay(p.delayMs.Load(), p.feedback.Load())
		s.echo.SetMix(p.echoMix.Load())
	case KindCompressor:
		s.comp.Set(p.threshold.Load(), p.ratio.Load(), p.attack.Load(), p.release.Load(), r.sampleRate)
	case KindDistortion:
		s.dist.SetDrive(p.drive.Load())
	}
}

func (s *slot) reset() {
	switch s.active {
	case KindReverb:
		s.reverb.Reset()
	case KindLowPass, KindHighPass:
		s.filter.Reset()
	case KindEcho:
		s.echo.Reset()
	case KindCompressor:
		s.comp.Reset()
	}
}

func (s *slot) process(buf []float32) {
	switch s.active {
	case KindReverb:
		s.reverb.Process(buf)
	case KindLowPass, KindHighPass:
		s.filter.Process(buf)
	case KindEcho:
		s.echo.Process(buf)
	case KindCompressor:
		s.comp.Process(buf)
	case KindDistortion:
		s.dist.Process(buf)
	}
}

// Process runs every enabled slot over interleaved stereo buf in slot
// order. Non-finite input samples are zeroed first so no unit carries them
// into its state. A slot whose dry copy would not fit the scratch buffer is
// skipped for this call and counted in Aborts.
func (r *Rack) Process(buf []float32) {
	for j, x := range buf {
		if !utils.Finite(x) {
			buf[j] = 0
		}
	}

	for i := range r.slots {
		s := &r.slots[i]
		if !s.enabled.Load() {
			continue
		}

		r.sync(s)
		if s.active == KindNone {
			continue
		}

		mix := s.mix.Load()
		if s.active == KindDistortion {
			s.dist.SetMix(mix)
			s.dist.Process(buf)
			continue
		}
		if mix >= 1 {
			s.process(buf)
			continue
		}

		if len(buf) > len(r.scratch) {
			r.aborts.Add(1)
			continue
		}

		dry := r.scratch[:len(buf)]
		copy(dry, buf)
		s.process(buf)
		for j := range buf {
			buf[j] = utils.Lerp(dry[j], buf[j], mix)
		}
	}
}
