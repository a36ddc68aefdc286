// SPDX-License-Identifier: EPL-2.0

//go:build !headless

// Package otodev plays the mix through the system sound card using
// ebitengine/oto.
//
// oto pulls audio from an io.Reader on its own goroutine. The device keeps
// a ring of Periods periods between that reader and the engine's writes;
// Write blocks while the ring is full and the ring running dry is reported
// as device.ErrUnderrun on the next Write.
package otodev

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/ik5/rtmix/device"
)

// Name is the registry key of this driver.
const Name = "oto"

// oto allows a single context per process.
var (
	ctxMtx sync.Mutex
	ctx    *oto.Context
	ctxCfg device.Config
)

func sharedContext(cfg device.Config) (*oto.Context, error) {
	ctxMtx.Lock()
	defer ctxMtx.Unlock()

	if ctx != nil {
		if ctxCfg.SampleRate != cfg.SampleRate || ctxCfg.Channels != cfg.Channels ||
			ctxCfg.Format != cfg.Format {
			return nil, fmt.Errorf("%w: oto context already open at %d Hz, %d ch, %v",
				device.ErrUnavailable, ctxCfg.SampleRate, ctxCfg.Channels, ctxCfg.Format)
		}
		return ctx, nil
	}

	format := oto.FormatSignedInt16LE
	if cfg.Format == device.FormatF32LE {
		format = oto.FormatFloat32LE
	}

	c, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       format,
		BufferSize:   cfg.PeriodDuration() * 2,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", device.ErrUnavailable, err)
	}
	<-ready

	ctx, ctxCfg = c, cfg
	return ctx, nil
}

type Device struct {
	cfg    device.Config
	log    *zap.Logger
	ctx    *oto.Context
	ring   *ring
	player *oto.Player

	closeOnce sync.Once
	closeErr  error
}

// Open implements device.Driver.
func Open(cfg device.Config, log *zap.Logger) (device.Device, error) {
	return New(cfg, log)
}

func New(cfg device.Config, log *zap.Logger) (*Device, error) {
	cfg = cfg.Normalize()
	if log == nil {
		log = zap.NewNop()
	}

	c, err := sharedContext(cfg)
	if err != nil {
		return nil, err
	}

	d := &Device{
		cfg:  cfg,
		log:  log,
		ctx:  c,
		ring: newRing(cfg.PeriodBytes() * cfg.Periods),
	}
	d.player = c.NewPlayer(d.ring)
	d.player.SetBufferSize(cfg.PeriodBytes())
	d.player.Play()

	log.Debug("oto device opened",
		zap.Int("sample_rate", cfg.SampleRate),
		zap.Int("channels", cfg.Channels),
		zap.Stringer("format", cfg.Format),
		zap.Int("periods", cfg.Periods),
		zap.Int("period_frames", cfg.PeriodFrames))

	return d, nil
}

func (d *Device) Config() device.Config { return d.cfg }

func (d *Device) Write(period []byte) error {
	if len(period) != d.cfg.PeriodBytes() {
		return device.ErrShortWrite
	}
	if d.ring.underrun.Load() {
		return device.ErrUnderrun
	}
	if !d.ring.write(period) {
		return device.ErrClosed
	}
	return nil
}

func (d *Device) Prepare() error {
	d.ring.reset()
	if err := d.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", device.ErrUnavailable, err)
	}
	return nil
}

func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.ring.close()
		if err := d.player.Close(); err != nil {
			d.closeErr = fmt.Errorf("otodev: %w", err)
		}
		d.log.Debug("oto device closed")
	})
	return d.closeErr
}
