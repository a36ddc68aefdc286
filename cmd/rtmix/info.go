// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/rtmix/audio"
	"github.com/ik5/rtmix/device"
	"github.com/ik5/rtmix/ingest"
	"github.com/ik5/rtmix/preset"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>...",
		Short: "Describe sound files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, path := range args {
				info, err := probe(path)
				if err != nil {
					return err
				}

				length := time.Duration(info.Frames) * time.Second / time.Duration(info.SampleRate)
				fmt.Fprintf(w, "%s: %s, %d Hz, %d channels, %d frames, %s\n",
					path, info.Format, info.SampleRate, info.Channels, info.Frames, length)
			}

			stream, err := a.cfg.Stream()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "output: %s, %d Hz, %s, %d frames x %d periods (%s)\n",
				stream.Driver, stream.SampleRate, stream.Format,
				stream.PeriodFrames, stream.Periods, stream.PeriodDuration())
			fmt.Fprintf(w, "drivers: %v\n", registry().Names())
			return nil
		},
	}
}

func probe(path string) (ingest.Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return ingest.Info{}, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	info, err := ingest.Probe(f, audio.FormatOf(path))
	if err != nil {
		return ingest.Info{}, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [name]",
		Short: "List built-in effect presets or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, name := range preset.Builtins() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			p, err := preset.Builtin(args[0])
			if err != nil {
				return err
			}
			return p.Encode(cmd.OutOrStdout())
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "rtmix %s\n", version)
			fmt.Fprintf(w, "Commit: %s\n", commit)
			fmt.Fprintf(w, "Built: %s\n", buildDate)
			fmt.Fprintf(w, "Default output: %d Hz, %d channels\n", device.DefaultSampleRate, device.DefaultChannels)
		},
	}
}
