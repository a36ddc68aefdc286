// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ik5/rtmix"
	"github.com/ik5/rtmix/asset"
	"github.com/ik5/rtmix/device/otodev"
	"github.com/ik5/rtmix/spatial"
)

const tick = 16 * time.Millisecond

type playOptions struct {
	driver    string
	duration  time.Duration
	volume    float32
	loop      bool
	orbit     float32
	music     bool
	crossfade float32
}

func newPlayCmd(a *app) *cobra.Command {
	var o playOptions

	cmd := &cobra.Command{
		Use:   "play <file>...",
		Short: "Play sound files",
		Long: `Play mixes every file at once until they end, the duration passes or the
process is interrupted. With --orbit the sounds circle the listener; with
--music each file becomes a music layer and the layers crossfade in turn.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.play(cmd.Context(), args, o)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.driver, "driver", otodev.Name, "output driver")
	flags.DurationVarP(&o.duration, "duration", "d", 0, "stop after this long (0 waits for the sounds)")
	flags.Float32VarP(&o.volume, "volume", "v", 1, "voice volume 0..1")
	flags.BoolVarP(&o.loop, "loop", "l", false, "loop every sound")
	flags.Float32Var(&o.orbit, "orbit", 0, "orbit radius in meters for 3D playback")
	flags.BoolVar(&o.music, "music", false, "play the files as music layers")
	flags.Float32Var(&o.crossfade, "crossfade", 4, "seconds between music layer crossfades")

	return cmd
}

func (a *app) play(ctx context.Context, files []string, o playOptions) error {
	stream, err := a.cfg.Stream()
	if err != nil {
		return err
	}
	stream.Driver = o.driver

	s, err := a.start(stream)
	if err != nil {
		return err
	}
	defer a.stop(s)

	if err := a.applyPreset(s); err != nil {
		return err
	}

	handles, err := a.load(s, files)
	if err != nil {
		return err
	}

	voices := a.startVoices(s, handles, o)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	start := time.Now()
	last := start
	layer, sinceFade := 0, float32(0)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("interrupted")
			return nil
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			s.Update(dt)

			if o.orbit > 0 {
				angle := float64(now.Sub(start).Seconds()) * 0.5
				for i, v := range voices {
					phase := angle + 2*math.Pi*float64(i)/float64(len(voices))
					s.SetPosition3D(v, orbitPoint(o.orbit, phase))
				}
			}

			if o.music && len(handles) > 1 {
				sinceFade += dt
				if sinceFade >= o.crossfade {
					next := (layer + 1) % min(len(handles), rtmix.MaxMusicLayers)
					s.CrossfadeMusic(layer, next, o.crossfade/2)
					a.log.Debug("crossfade", zap.Int("from", layer), zap.Int("to", next))
					layer, sinceFade = next, 0
				}
			}

			if o.duration > 0 && now.Sub(start) >= o.duration {
				return nil
			}
			if o.duration == 0 && s.ActiveVoices() == 0 {
				return nil
			}
		}
	}
}

func (a *app) startVoices(s *rtmix.Session, handles []asset.Handle, o playOptions) []rtmix.VoiceHandle {
	var voices []rtmix.VoiceHandle

	for i, h := range handles {
		var v rtmix.VoiceHandle
		switch {
		case o.music:
			if i >= rtmix.MaxMusicLayers {
				a.log.Warn("no music layer left", zap.Int("file", i))
				continue
			}
			v = s.PlayMusicLayer(i, h, o.volume)
			if i > 0 {
				s.FadeMusicLayer(i, 0, 0)
			}
		case o.orbit > 0:
			v = s.Play3D(h, orbitPoint(o.orbit, 0), o.volume)
		default:
			v = s.Play(h, o.volume, spread(i, len(handles)))
		}

		if o.loop && !o.music {
			s.SetLooping(v, true)
		}
		voices = append(voices, v)
	}

	return voices
}

func orbitPoint(radius float32, phase float64) spatial.Vec3 {
	return spatial.Vec3{
		X: radius * float32(math.Sin(phase)),
		Z: -radius * float32(math.Cos(phase)),
	}
}
