// SPDX-License-Identifier: EPL-2.0

// Package device is the boundary between the mixing engine and whatever
// plays, stores or discards its output.
//
// A Device accepts exactly one period of interleaved PCM per Write. Write
// blocks until the device has room, which is what paces the realtime
// goroutine. Drivers are looked up by name in a Registry.
package device

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultSampleRate   = 48000
	DefaultChannels     = 2
	DefaultPeriodFrames = 256
	DefaultPeriods      = 4
	DefaultDriver       = "null"
)

// Config describes the stream a device should be opened with. A driver may
// negotiate different values; Device.Config reports what it settled on.
type Config struct {
	Driver       string `mapstructure:"driver" yaml:"driver"`
	SampleRate   int    `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels     int    `mapstructure:"channels" yaml:"channels"`
	PeriodFrames int    `mapstructure:"period_frames" yaml:"period_frames"`
	Periods      int    `mapstructure:"periods" yaml:"periods"`
	Format       Format `mapstructure:"-" yaml:"-"`
	// Path is the output file for file-backed drivers.
	Path string `mapstructure:"path" yaml:"path"`
}

// Normalize fills zero fields with defaults.
func (c Config) Normalize() Config {
	if c.Driver == "" {
		c.Driver = DefaultDriver
	}
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Channels <= 0 {
		c.Channels = DefaultChannels
	}
	if c.PeriodFrames <= 0 {
		c.PeriodFrames = DefaultPeriodFrames
	}
	if c.Periods <= 0 {
		c.Periods = DefaultPeriods
	}
	return c
}

// PeriodBytes is the size of one Write.
func (c Config) PeriodBytes() int {
	return c.PeriodFrames * c.Channels * c.Format.BytesPerSample()
}

// PeriodDuration is the playback time of one period.
func (c Config) PeriodDuration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.PeriodFrames) * time.Second / time.Duration(c.SampleRate)
}

// Device is an open output stream.
type Device interface {
	// Config is the negotiated stream configuration.
	Config() Config
	// Write hands one period of PCM to the device, blocking until it fits.
	Write(period []byte) error
	// Prepare recovers the stream after ErrUnderrun.
	Prepare() error
	Close() error
}

// Driver opens a device for cfg. cfg has already been normalized.
type Driver func(cfg Config, log *zap.Logger) (Device, error)

// Registry maps driver names to constructors.
type Registry struct {
	drivers map[string]Driver
	mtx     sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]Driver)}
}

func (r *Registry) Register(name string, d Driver) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.drivers[name] = d
}

func (r *Registry) Get(name string) (Driver, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.drivers[name]
	return d, ok
}

// Names lists the registered drivers in order.
func (r *Registry) Names() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	names := make([]string, 0, len(r.drivers))
	for n := range r.drivers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Open normalizes cfg and opens it with the named driver.
func (r *Registry) Open(cfg Config, log *zap.Logger) (Device, error) {
	cfg = cfg.Normalize()
	if log == nil {
		log = zap.NewNop()
	}

	d, ok := r.Get(cfg.Driver)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}

	dev, err := d(cfg, log.With(zap.String("driver", cfg.Driver)))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", cfg.Driver, err)
	}

	return dev, nil
}
