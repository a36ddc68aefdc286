// SPDX-License-Identifier: EPL-2.0

// Package wavdev renders the mix into a 16-bit PCM WAV file instead of a
// sound card. Writes never block on a clock, so a session driving this
// device runs as fast as the mixer can. Once the frame limit is recorded
// each further Write waits one period and discards its input.
package wavdev

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/ik5/rtmix/device"
)

// Name is the registry key of this driver.
const Name = "wav"

const (
	bitDepth  = 16
	pcmFormat = 1
)

var ErrNoPath = errors.New("wavdev: no output path")

type Device struct {
	cfg    device.Config
	log    *zap.Logger
	closer io.Closer
	enc    *wav.Encoder
	buf    *goaudio.IntBuffer

	limit  uint64
	frames atomic.Uint64
	done   chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Open implements device.Driver. It creates cfg.Path.
func Open(cfg device.Config, log *zap.Logger) (device.Device, error) {
	return Create(cfg.Path, cfg, 0, log)
}

// Create renders into a new file at path. A positive limit stops recording
// after that many frames; see Done.
func Create(path string, cfg device.Config, limit int, log *zap.Logger) (*Device, error) {
	if path == "" {
		return nil, ErrNoPath
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", device.ErrUnavailable, err)
	}

	d := New(f, cfg, limit, log)
	d.closer = f
	return d, nil
}

// New renders into w. The caller keeps ownership of w.
func New(w io.WriteSeeker, cfg device.Config, limit int, log *zap.Logger) *Device {
	cfg = cfg.Normalize()
	cfg.Format = device.FormatS16LE
	if log == nil {
		log = zap.NewNop()
	}

	samples := cfg.PeriodFrames * cfg.Channels
	d := &Device{
		cfg: cfg,
		log: log,
		enc: wav.NewEncoder(w, cfg.SampleRate, bitDepth, cfg.Channels, pcmFormat),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: cfg.Channels, SampleRate: cfg.SampleRate},
			Data:           make([]int, samples),
			SourceBitDepth: bitDepth,
		},
		done: make(chan struct{}),
	}
	if limit > 0 {
		d.limit = uint64(limit)
	}

	log.Debug("wav device opened",
		zap.Int("sample_rate", cfg.SampleRate),
		zap.Int("channels", cfg.Channels),
		zap.Int("limit_frames", limit))

	return d
}

// Config always reports FormatS16LE.
func (d *Device) Config() device.Config { return d.cfg }

// Frames is the number of frames recorded so far.
func (d *Device) Frames() uint64 { return d.frames.Load() }

// Done is closed once the frame limit has been recorded.
func (d *Device) Done() <-chan struct{} { return d.done }

func (d *Device) Write(period []byte) error {
	if len(period) != d.cfg.PeriodBytes() {
		return device.ErrShortWrite
	}

	recorded := d.frames.Load()
	if d.limit > 0 && recorded >= d.limit {
		time.Sleep(d.cfg.PeriodDuration())
		return nil
	}

	frames := uint64(d.cfg.PeriodFrames)
	if d.limit > 0 && recorded+frames > d.limit {
		frames = d.limit - recorded
	}

	n := int(frames) * d.cfg.Channels
	d.buf.Data = d.buf.Data[:n]
	for i := range n {
		d.buf.Data[i] = int(int16(binary.LittleEndian.Uint16(period[i*2:])))
	}

	if err := d.enc.Write(d.buf); err != nil {
		return fmt.Errorf("wavdev: %w", err)
	}

	if d.frames.Add(frames) == d.limit {
		close(d.done)
	}

	return nil
}

// Prepare is a no-op; a file never underruns.
func (d *Device) Prepare() error { return nil }

// Close finalizes the WAV header and closes the file Create opened.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		if err := d.enc.Close(); err != nil {
			d.closeErr = fmt.Errorf("wavdev: finalizing: %w", err)
		}
		if d.closer != nil {
			if err := d.closer.Close(); err != nil && d.closeErr == nil {
				d.closeErr = fmt.Errorf("wavdev: %w", err)
			}
		}
		d.log.Debug("wav device closed", zap.Uint64("frames", d.frames.Load()))
	})

	return d.closeErr
}
