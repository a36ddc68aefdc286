// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ik5/rtmix"
	"github.com/ik5/rtmix/asset"
	"github.com/ik5/rtmix/config"
	"github.com/ik5/rtmix/device"
	"github.com/ik5/rtmix/device/otodev"
	"github.com/ik5/rtmix/ingest"
	"github.com/ik5/rtmix/preset"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// app is the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	presetName string

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "rtmix",
		Short:         "Realtime audio mixer",
		Long:          `rtmix mixes sound files through a fixed latency engine with an effects rack, either to a sound card or to a WAV file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file path")
	flags.StringVar(&a.logLevel, "log-level", "", "override log.level")
	flags.StringVarP(&a.presetName, "preset", "p", "", "effects preset name or file (overrides config)")

	root.AddCommand(
		newPlayCmd(a),
		newRenderCmd(a),
		newInfoCmd(a),
		newPresetsCmd(),
		newVersionCmd(),
	)

	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.presetName != "" {
		cfg.Preset = a.presetName
	}

	log, err := cfg.Log.Logger()
	if err != nil {
		return err
	}

	a.cfg, a.log = cfg, log
	return nil
}

// registry adds the sound card driver to the built-in ones.
func registry() *device.Registry {
	r := rtmix.DefaultRegistry()
	r.Register(otodev.Name, otodev.Open)
	return r
}

// start opens a session on stream.
func (a *app) start(stream device.Config, opts ...rtmix.Option) (*rtmix.Session, error) {
	opts = append([]rtmix.Option{
		rtmix.WithLogger(a.log),
		rtmix.WithRegistry(registry()),
	}, opts...)

	return rtmix.New(make([]byte, a.cfg.RegionBytes()), stream, opts...)
}

// applyPreset lays out the configured preset, if any.
func (a *app) applyPreset(s *rtmix.Session) error {
	if a.cfg.Preset == "" {
		return nil
	}

	p, err := preset.Find(a.cfg.Preset)
	if err == nil {
		err = p.Apply(s)
	}
	if err != nil {
		return fmt.Errorf("preset %s: %w", a.cfg.Preset, err)
	}

	a.log.Info("preset applied", zap.String("preset", p.Name), zap.Int("effects", len(p.Effects)))
	return nil
}

func (a *app) stop(s *rtmix.Session) {
	st := s.Stats()
	if err := s.Shutdown(); err != nil {
		a.log.Warn("shutdown", zap.Error(err))
	}

	a.log.Info("mix statistics",
		zap.Uint64("periods", st.Periods),
		zap.Uint64("frames", st.FramesWritten),
		zap.Uint64("underruns", st.Underruns),
		zap.Uint64("write_errors", st.WriteErrors),
		zap.Float32("cpu", st.CPUUsage))
}

// load ingests every file into s.
func (a *app) load(s *rtmix.Session, files []string) ([]asset.Handle, error) {
	handles := make([]asset.Handle, 0, len(files))
	for _, path := range files {
		h, err := ingest.LoadFile(s, path, ingest.WithLogger(a.log))
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// spread places n voices evenly across the stereo field.
func spread(i, n int) float32 {
	if n < 2 {
		return 0
	}
	return -1 + 2*float32(i)/float32(n-1)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
