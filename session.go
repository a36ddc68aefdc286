// SPDX-License-Identifier: EPL-2.0

package rtmix

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ik5/rtmix/arena"
	"github.com/ik5/rtmix/asset"
	"github.com/ik5/rtmix/device"
	"github.com/ik5/rtmix/dsp"
	"github.com/ik5/rtmix/spatial"
	"github.com/ik5/rtmix/utils"
)

type listenerState struct {
	position atomicVec3
	forward  atomicVec3
	up       atomicVec3
	velocity atomicVec3
}

// Session owns a device, the fixed tables carved from the caller's memory
// region and the realtime goroutine that mixes into the device.
//
// Control methods are meant to be called from one goroutine at a time,
// typically the game loop. They never block on the realtime goroutine.
type Session struct {
	log  *zap.Logger
	opts options
	dev  device.Device
	cfg  device.Config
	mem  *arena.Arena

	assets *asset.Store
	voices []voice
	rack   *dsp.Rack

	fx     []float32
	direct []float32
	out    []byte

	master      utils.AtomicFloat32
	soundVolume utils.AtomicFloat32
	musicVolume utils.AtomicFloat32
	listener    listenerState

	music     [MaxMusicLayers]musicLayer
	intensity float32

	state        atomic.Uint32
	done         chan struct{}
	shutdownOnce sync.Once

	stats stats
}

type stats struct {
	cpu           utils.AtomicFloat32
	periods       atomic.Uint64
	framesWritten atomic.Uint64
	underruns     atomic.Uint64
	writeErrors   atomic.Uint64
}

// New opens the device described by cfg, carves every engine table from
// region and starts the realtime goroutine. region must stay alive and
// untouched until Shutdown returns.
func New(region []byte, cfg device.Config, opts ...Option) (*Session, error) {
	o := options{
		log:      zap.NewNop(),
		priority: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	dev := o.dev
	if dev == nil {
		reg := o.registry
		if reg == nil {
			reg = DefaultRegistry()
		}

		var err error
		dev, err = reg.Open(cfg, o.log)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)
		}
	}

	s, err := newSession(region, dev, o)
	if err != nil {
		if cerr := dev.Close(); cerr != nil {
			o.log.Warn("closing device after failed start", zap.Error(cerr))
		}
		return nil, err
	}

	s.state.Store(uint32(StateRunning))
	go s.run()

	s.log.Info("session started",
		zap.String("driver", s.cfg.Driver),
		zap.Int("sample_rate", s.cfg.SampleRate),
		zap.Int("period_frames", s.cfg.PeriodFrames),
		zap.Int("periods", s.cfg.Periods),
		zap.Stringer("format", s.cfg.Format),
		zap.Int("arena_used", s.mem.Used()),
		zap.Int("arena_cap", s.mem.Cap()))

	return s, nil
}

func newSession(region []byte, dev device.Device, o options) (*Session, error) {
	cfg := dev.Config()
	if cfg.Channels != 2 {
		return nil, fmt.Errorf("%w: need stereo, device has %d channels",
			ErrDeviceUnavailable, cfg.Channels)
	}
	if cfg.SampleRate <= 0 || cfg.PeriodFrames <= 0 {
		return nil, fmt.Errorf("%w: invalid stream %d Hz, %d frames",
			ErrDeviceUnavailable, cfg.SampleRate, cfg.PeriodFrames)
	}
	if cfg.Format != device.FormatS16LE && cfg.Format != device.FormatF32LE {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, cfg.Format)
	}

	s := &Session{
		log:       o.log,
		opts:      o,
		dev:       dev,
		cfg:       cfg,
		mem:       arena.New(region),
		intensity: 1,
		done:      make(chan struct{}),
	}

	if err := s.carve(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocationExhausted, err)
	}

	s.master.Store(1)
	s.soundVolume.Store(1)
	s.musicVolume.Store(1)

	l := spatial.DefaultListener()
	s.listener.forward.Store(l.Forward)
	s.listener.up.Store(l.Up)

	return s, nil
}

func (s *Session) carve() error {
	var err error

	if s.voices, err = arena.Slice[voice](s.mem, MaxVoices); err != nil {
		return fmt.Errorf("voices: %w", err)
	}
	if s.assets, err = asset.NewStore(s.mem); err != nil {
		return err
	}

	samples := s.cfg.PeriodFrames * 2
	if s.fx, err = s.mem.Float32s(samples); err != nil {
		return fmt.Errorf("effect bus: %w", err)
	}
	if s.direct, err = s.mem.Float32s(samples); err != nil {
		return fmt.Errorf("direct bus: %w", err)
	}
	if s.out, err = s.mem.Bytes(s.cfg.PeriodBytes()); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if s.rack, err = dsp.NewRack(s.mem, s.cfg.SampleRate, s.cfg.PeriodFrames); err != nil {
		return err
	}

	return nil
}

// Shutdown stops the realtime goroutine at the next period boundary, waits
// for it and closes the device. It is safe to call more than once.
func (s *Session) Shutdown() error {
	var err error

	s.shutdownOnce.Do(func() {
		s.state.CompareAndSwap(uint32(StateRunning), uint32(StateStopping))
		<-s.done
		s.state.Store(uint32(StateStopped))

		if cerr := s.dev.Close(); cerr != nil {
			err = fmt.Errorf("closing device: %w", cerr)
		}

		st := s.Stats()
		s.log.Info("session stopped",
			zap.Uint64("periods", st.Periods),
			zap.Uint64("underruns", st.Underruns),
			zap.Uint64("write_errors", st.WriteErrors),
			zap.Uint64("effect_aborts", st.EffectAborts))
	})

	return err
}

// Config is the stream the device negotiated.
func (s *Session) Config() device.Config { return s.cfg }

// LoadFromMemory copies interleaved little-endian 16-bit PCM into the
// session. The payload can be discarded once this returns.
func (s *Session) LoadFromMemory(pcm []byte, channels, sampleRate int) (asset.Handle, error) {
	h, err := s.assets.Load(pcm, channels, sampleRate)
	if err != nil {
		s.log.Warn("asset rejected",
			zap.Int("bytes", len(pcm)),
			zap.Int("channels", channels),
			zap.Int("sample_rate", sampleRate),
			zap.Error(err))

		if errors.Is(err, arena.ErrExhausted) {
			return asset.NoAsset, fmt.Errorf("%w: %w", ErrAllocationExhausted, err)
		}
		return asset.NoAsset, fmt.Errorf("%w: %w", ErrInvalidAsset, err)
	}

	s.log.Debug("asset loaded",
		zap.Uint32("handle", uint32(h)),
		zap.Int("channels", channels),
		zap.Int("sample_rate", sampleRate),
		zap.Int("bytes", len(pcm)))

	return h, nil
}

// Asset returns the loaded asset h, or nil.
func (s *Session) Asset(h asset.Handle) *asset.Asset { return s.assets.Get(h) }

// UnloadAsset retires h and stops every voice playing it.
func (s *Session) UnloadAsset(h asset.Handle) bool {
	if !s.assets.Unload(h) {
		return false
	}

	for i := range s.voices {
		v := &s.voices[i]
		st := v.status.Load()
		if st&activeBit != 0 && asset.Handle(v.asset.Load()) == h {
			v.status.CompareAndSwap(st, st&^activeBit)
		}
	}
	for i := range s.music {
		if s.music[i].asset == h {
			s.music[i] = musicLayer{}
		}
	}

	return true
}

// SetListenerPosition moves the listener. Non-finite coordinates are ignored,
// as they are by the other listener and voice setters.
func (s *Session) SetListenerPosition(pos spatial.Vec3) {
	if pos.Finite() {
		s.listener.position.Store(pos)
	}
}

func (s *Session) SetListenerVelocity(vel spatial.Vec3) {
	if vel.Finite() {
		s.listener.velocity.Store(vel)
	}
}

// SetListenerOrientation sets where the listener faces and which way is up.
func (s *Session) SetListenerOrientation(forward, up spatial.Vec3) {
	if !forward.Finite() || !up.Finite() {
		return
	}
	s.listener.forward.Store(forward)
	s.listener.up.Store(up)
}

func (s *Session) SetMasterVolume(v float32) { s.master.Store(utils.Clamp(v, 0, 1)) }
func (s *Session) SetSoundVolume(v float32)  { s.soundVolume.Store(utils.Clamp(v, 0, 1)) }
func (s *Session) SetMusicVolume(v float32)  { s.musicVolume.Store(utils.Clamp(v, 0, 1)) }

func (s *Session) MasterVolume() float32 { return s.master.Load() }
func (s *Session) SoundVolume() float32  { return s.soundVolume.Load() }
func (s *Session) MusicVolume() float32  { return s.musicVolume.Load() }

// EnableEffect puts a fresh unit of kind k in slot. The first time a slot
// runs a reverb or echo its delay lines are carved from the session memory.
func (s *Session) EnableEffect(slot int, k dsp.Kind) error {
	if err := s.rack.Enable(s.mem, slot, k); err != nil {
		if errors.Is(err, arena.ErrExhausted) {
			return fmt.Errorf("%w: %w", ErrAllocationExhausted, err)
		}
		return err
	}

	s.log.Debug("effect enabled", zap.Int("slot", slot), zap.Stringer("kind", k))
	return nil
}

func (s *Session) DisableEffect(slot int) error { return s.rack.Disable(slot) }

// Effect reports the kind in slot and whether it is running.
func (s *Session) Effect(slot int) (dsp.Kind, bool) {
	return s.rack.Kind(slot), s.rack.Enabled(slot)
}

func (s *Session) SetEffectMix(slot int, mix float32) error {
	return s.rack.SetMix(slot, mix)
}

func (s *Session) SetReverbParams(slot int, roomSize, damping float32) error {
	return s.rack.SetReverb(slot, roomSize, damping)
}

func (s *Session) SetReverbMix(slot int, wet, dry, width float32) error {
	return s.rack.SetReverbMix(slot, wet, dry, width)
}

func (s *Session) SetFilterParams(slot int, cutoff, resonance float32) error {
	return s.rack.SetFilter(slot, cutoff, resonance)
}

func (s *Session) SetEchoParams(slot int, delayMs, feedback float32) error {
	return s.rack.SetEcho(slot, delayMs, feedback)
}

func (s *Session) SetEchoMix(slot int, mix float32) error {
	return s.rack.SetEchoMix(slot, mix)
}

func (s *Session) SetCompressorParams(slot int, threshold, ratio, attackMs, releaseMs float32) error {
	return s.rack.SetCompressor(slot, threshold, ratio, attackMs, releaseMs)
}

func (s *Session) SetDistortionParams(slot int, drive float32) error {
	return s.rack.SetDistortion(slot, drive)
}

// Stats is a snapshot of the session counters.
type Stats struct {
	State         State
	CPUUsage      float32
	ActiveVoices  int
	Periods       uint64
	FramesWritten uint64
	Underruns     uint64
	WriteErrors   uint64
	EffectAborts  uint64
	ArenaUsed     int
	ArenaCap      int
	Assets        int
}

func (s *Session) Stats() Stats {
	return Stats{
		State:         s.State(),
		CPUUsage:      s.CPUUsage(),
		ActiveVoices:  s.ActiveVoices(),
		Periods:       s.stats.periods.Load(),
		FramesWritten: s.stats.framesWritten.Load(),
		Underruns:     s.stats.underruns.Load(),
		WriteErrors:   s.stats.writeErrors.Load(),
		EffectAborts:  s.rack.Aborts(),
		ArenaUsed:     s.mem.Used(),
		ArenaCap:      s.mem.Cap(),
		Assets:        s.assets.Loaded(),
	}
}

// CPUUsage is the share of each period spent mixing, averaged over the
// last cpuWindow periods.
func (s *Session) CPUUsage() float32 { return s.stats.cpu.Load() }

func (s *Session) UnderrunCount() uint64 { return s.stats.underruns.Load() }
