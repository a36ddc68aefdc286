// SPDX-License-Identifier: EPL-2.0

// Package config loads rtmix settings from a YAML file and RTMIX_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ik5/rtmix/device"
)

const (
	// Name is the config file name without extension.
	Name      = "rtmix"
	EnvPrefix = "RTMIX"

	DefaultMemoryMB = 8
)

// Config holds everything the CLI needs to start a session.
type Config struct {
	Device   Device `mapstructure:"device"`
	MemoryMB int    `mapstructure:"memory_mb"`
	Log      Log    `mapstructure:"log"`
	// Preset is a built-in preset name or the path of a preset file.
	Preset string `mapstructure:"preset"`
}

type Device struct {
	Driver       string `mapstructure:"driver"`
	SampleRate   int    `mapstructure:"sample_rate"`
	PeriodFrames int    `mapstructure:"period_frames"`
	Periods      int    `mapstructure:"periods"`
	Format       string `mapstructure:"format"`
	Path         string `mapstructure:"path"`
}

type Log struct {
	Level string `mapstructure:"level"`
	// Format is "json" or "console".
	Format string `mapstructure:"format"`
}

// Default is the configuration used when no file or variable says
// otherwise.
func Default() *Config {
	return &Config{
		Device: Device{
			Driver:       device.DefaultDriver,
			SampleRate:   device.DefaultSampleRate,
			PeriodFrames: device.DefaultPeriodFrames,
			Periods:      device.DefaultPeriods,
			Format:       device.FormatS16LE.String(),
		},
		MemoryMB: DefaultMemoryMB,
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("device.driver", c.Device.Driver)
	v.SetDefault("device.sample_rate", c.Device.SampleRate)
	v.SetDefault("device.period_frames", c.Device.PeriodFrames)
	v.SetDefault("device.periods", c.Device.Periods)
	v.SetDefault("device.format", c.Device.Format)
	v.SetDefault("device.path", c.Device.Path)
	v.SetDefault("memory_mb", c.MemoryMB)
	v.SetDefault("log.level", c.Log.Level)
	v.SetDefault("log.format", c.Log.Format)
	v.SetDefault("preset", c.Preset)
}

// Dir is the per-user config directory.
func Dir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, Name)
	}
	return filepath.Join(os.Getenv("HOME"), ".config", Name)
}

// Load reads path, or rtmix.yaml from Dir and the working directory when
// path is empty. A missing default file is not an error. Environment
// variables such as RTMIX_DEVICE_DRIVER override the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(Dir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var ErrInvalid = errors.New("invalid config")

// Validate reports every bad value at once.
func (c *Config) Validate() error {
	var errs []error

	if c.MemoryMB <= 0 {
		errs = append(errs, fmt.Errorf("memory_mb %d must be positive", c.MemoryMB))
	}
	if c.Device.SampleRate < 0 || c.Device.PeriodFrames < 0 || c.Device.Periods < 0 {
		errs = append(errs, errors.New("device sizes must not be negative"))
	}
	if _, err := device.ParseFormat(c.Device.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
}

// Stream is the device configuration a session is opened with.
func (c *Config) Stream() (device.Config, error) {
	format, err := device.ParseFormat(c.Device.Format)
	if err != nil {
		return device.Config{}, err
	}

	return device.Config{
		Driver:       c.Device.Driver,
		SampleRate:   c.Device.SampleRate,
		Channels:     device.DefaultChannels,
		PeriodFrames: c.Device.PeriodFrames,
		Periods:      c.Device.Periods,
		Format:       format,
		Path:         c.Device.Path,
	}.Normalize(), nil
}

// RegionBytes is the size of the memory region handed to the session.
func (c *Config) RegionBytes() int { return c.MemoryMB << 20 }

// Logger builds a zap logger writing to stderr.
func (l Log) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(l.Level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	var zc zap.Config
	if l.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}
