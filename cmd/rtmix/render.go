// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ik5/rtmix"
	"github.com/ik5/rtmix/device"
	"github.com/ik5/rtmix/device/wavdev"
)

var errNoDuration = errors.New("nothing to render: give --duration or non-empty files")

type renderOptions struct {
	duration time.Duration
	volume   float32
	loop     bool
	force    bool
}

func newRenderCmd(a *app) *cobra.Command {
	var o renderOptions

	cmd := &cobra.Command{
		Use:   "render <out.wav> <file>...",
		Short: "Mix sound files into a WAV file",
		Long: `Render mixes the files through the configured effects into a 16-bit WAV
file. The output is as long as the longest input unless --duration is set.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.render(cmd.Context(), args[0], args[1:], o)
		},
	}

	flags := cmd.Flags()
	flags.DurationVarP(&o.duration, "duration", "d", 0, "length of the output")
	flags.Float32VarP(&o.volume, "volume", "v", 1, "voice volume 0..1")
	flags.BoolVarP(&o.loop, "loop", "l", false, "loop every sound")
	flags.BoolVarP(&o.force, "force", "f", false, "overwrite the output file")

	return cmd
}

// held keeps the realtime loop parked on its first write until open is
// called, so nothing is recorded before the voices start.
type held struct {
	device.Device
	ready chan struct{}
	once  sync.Once
}

func hold(dev device.Device) *held {
	return &held{Device: dev, ready: make(chan struct{})}
}

func (h *held) open() { h.once.Do(func() { close(h.ready) }) }

func (h *held) Write(period []byte) error {
	<-h.ready
	return h.Device.Write(period)
}

func (h *held) Close() error {
	h.open()
	return h.Device.Close()
}

// longest is the duration of the longest file.
func longest(files []string) (time.Duration, error) {
	var d time.Duration

	for _, path := range files {
		info, err := probe(path)
		if err != nil {
			return 0, err
		}

		d = max(d, time.Duration(info.Frames)*time.Second/time.Duration(info.SampleRate))
	}

	return d, nil
}

func (a *app) render(ctx context.Context, out string, files []string, o renderOptions) error {
	if !o.force && exists(out) {
		return fmt.Errorf("%s exists, use --force to overwrite", out)
	}

	length := o.duration
	if length == 0 {
		var err error
		if length, err = longest(files); err != nil {
			return err
		}
	}
	if length <= 0 {
		return errNoDuration
	}

	stream, err := a.cfg.Stream()
	if err != nil {
		return err
	}
	stream.Driver = wavdev.Name
	stream.Path = out

	// The first period is mixed before any voice starts.
	limit := int(length*time.Duration(stream.SampleRate)/time.Second) + stream.PeriodFrames

	wav, err := wavdev.Create(out, stream, limit, a.log)
	if err != nil {
		return err
	}
	dev := hold(wav)

	s, err := a.start(stream, rtmix.WithDevice(dev), rtmix.WithoutPriority())
	if err != nil {
		return err
	}
	defer a.stop(s)
	defer dev.open()

	if err := a.applyPreset(s); err != nil {
		return err
	}

	handles, err := a.load(s, files)
	if err != nil {
		return err
	}
	for i, h := range handles {
		v := s.Play(h, o.volume, spread(i, len(handles)))
		s.SetLooping(v, o.loop)
	}
	dev.open()

	select {
	case <-wav.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	a.log.Info("rendered",
		zap.String("path", out),
		zap.Uint64("frames", wav.Frames()),
		zap.Duration("length", length))
	return nil
}
