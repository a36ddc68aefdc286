// SPDX-License-Identifier: EPL-2.0

// Package nulldev is a silent output that consumes periods at the rate a
// sound card would. It keeps a virtual buffer of Periods periods, blocks
// writers while that buffer is full and reports an underrun when a writer
// lets it drain.
package nulldev

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ik5/rtmix/device"
)

// Name is the registry key of this driver.
const Name = "null"

type Device struct {
	cfg    device.Config
	log    *zap.Logger
	period time.Duration
	depth  time.Duration

	timer *time.Timer
	// drained is when the virtual buffer runs empty. Zero before the first
	// write and after Prepare.
	drained time.Time
	written uint64

	done      chan struct{}
	closeOnce sync.Once
}

// Open implements device.Driver.
func Open(cfg device.Config, log *zap.Logger) (device.Device, error) {
	return New(cfg, log), nil
}

func New(cfg device.Config, log *zap.Logger) *Device {
	cfg = cfg.Normalize()
	if log == nil {
		log = zap.NewNop()
	}

	period := cfg.PeriodDuration()
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	log.Debug("null device opened",
		zap.Int("sample_rate", cfg.SampleRate),
		zap.Int("period_frames", cfg.PeriodFrames),
		zap.Duration("period", period))

	return &Device{
		cfg:    cfg,
		log:    log,
		period: period,
		depth:  period * time.Duration(cfg.Periods),
		timer:  timer,
		done:   make(chan struct{}),
	}
}

func (d *Device) Config() device.Config { return d.cfg }

// Written is the number of periods accepted so far.
func (d *Device) Written() uint64 { return d.written }

func (d *Device) Write(period []byte) error {
	if len(period) != d.cfg.PeriodBytes() {
		return device.ErrShortWrite
	}

	select {
	case <-d.done:
		return device.ErrClosed
	default:
	}

	now := time.Now()
	if d.drained.IsZero() {
		d.drained = now
	} else if now.After(d.drained) {
		return device.ErrUnderrun
	}

	// Wait while the buffer already holds a full set of periods.
	if wait := d.drained.Sub(now) + d.period - d.depth; wait > 0 {
		d.timer.Reset(wait)
		select {
		case <-d.timer.C:
		case <-d.done:
			d.timer.Stop()
			return device.ErrClosed
		}
	}

	d.drained = d.drained.Add(d.period)
	d.written++

	return nil
}

func (d *Device) Prepare() error {
	d.drained = time.Time{}
	return nil
}

func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		close(d.done)
		d.log.Debug("null device closed", zap.Uint64("periods", d.written))
	})
	return nil
}
