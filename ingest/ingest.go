// SPDX-License-Identifier: EPL-2.0

package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ik5/rtmix/asset"
	"github.com/ik5/rtmix/audio"
	"github.com/ik5/rtmix/device"
	"github.com/ik5/rtmix/formats/aiff"
	"github.com/ik5/rtmix/formats/mp3"
	"github.com/ik5/rtmix/formats/vorbis"
	"github.com/ik5/rtmix/formats/wav"
	"github.com/ik5/rtmix/utils"
)

// MaxChannels is the widest layout the asset store accepts.
const MaxChannels = 2

const readSize = 8192

// Loader is the part of a session assets are loaded into.
type Loader interface {
	Config() device.Config
	LoadFromMemory(pcm []byte, channels, sampleRate int) (asset.Handle, error)
}

type options struct {
	registry *audio.Registry
	log      *zap.Logger
}

type Option func(*options)

// WithRegistry replaces the decoders returned by Formats.
func WithRegistry(r *audio.Registry) Option {
	return func(o *options) { o.registry = r }
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = Formats()
	}
	return o
}

// Formats is a registry with every bundled decoder.
func Formats() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("wave", wav.Decoder{})
	r.Register("aif", aiff.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	r.Register("oga", vorbis.Decoder{})
	return r
}

// PCM16 drains src into interleaved little-endian 16-bit PCM at rate,
// folding it down to at most maxChannels. It returns the payload and its
// channel count. src is not closed.
func PCM16(src audio.Source, rate, maxChannels int) ([]byte, int, error) {
	if rate <= 0 {
		return nil, 0, fmt.Errorf("%w: sample rate %d", audio.ErrChannelLayout, rate)
	}
	if maxChannels < 1 || maxChannels > MaxChannels {
		return nil, 0, fmt.Errorf("%w: %d output channels", audio.ErrChannelLayout, maxChannels)
	}

	channels := min(src.Channels(), maxChannels)

	var stream audio.Source = src
	if src.SampleRate() != rate {
		stream = audio.NewResampler(stream, rate)
	}

	mix, err := audio.NewDownmixer(stream, channels)
	if err != nil {
		return nil, 0, err
	}

	buf := make([]float32, readSize-readSize%channels)
	pcm := make([]byte, 0, readSize*2)

	for {
		n, err := mix.ReadSamples(buf)
		if n > 0 {
			start := len(pcm)
			pcm = append(pcm, make([]byte, n*2)...)
			utils.PutS16LE(pcm[start:], buf[:n])
		}

		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("reading samples: %w", err)
		}
		if n == 0 {
			return nil, 0, io.ErrNoProgress
		}
	}

	return pcm, channels, nil
}

// Load decodes r as format, converts it to the session's sample rate and
// hands the PCM to l.
func Load(l Loader, r io.Reader, format string, opts ...Option) (asset.Handle, error) {
	o := buildOptions(opts)

	src, err := o.registry.Decode(format, r)
	if err != nil {
		return asset.NoAsset, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			o.log.Warn("closing decoder", zap.String("format", format), zap.Error(cerr))
		}
	}()

	rate := l.Config().SampleRate
	pcm, channels, err := PCM16(src, rate, MaxChannels)
	if err != nil {
		return asset.NoAsset, fmt.Errorf("converting %s: %w", format, err)
	}

	h, err := l.LoadFromMemory(pcm, channels, rate)
	if err != nil {
		return asset.NoAsset, err
	}

	o.log.Debug("asset ingested",
		zap.String("format", format),
		zap.Int("source_rate", src.SampleRate()),
		zap.Int("source_channels", src.Channels()),
		zap.Int("channels", channels),
		zap.Int("frames", len(pcm)/2/channels))

	return h, nil
}

// LoadFile is Load for a file whose extension names its format.
func LoadFile(l Loader, path string, opts ...Option) (asset.Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return asset.NoAsset, fmt.Errorf("opening asset: %w", err)
	}
	defer f.Close()

	h, err := Load(l, f, audio.FormatOf(path), opts...)
	if err != nil {
		return asset.NoAsset, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

// Info describes a decoded stream.
type Info struct {
	Format     string
	SampleRate int
	Channels   int
	Frames     int
}

// Probe decodes the whole of r and reports its layout and length.
func Probe(r io.Reader, format string, opts ...Option) (Info, error) {
	o := buildOptions(opts)

	src, err := o.registry.Decode(format, r)
	if err != nil {
		return Info{}, err
	}
	defer src.Close()

	info := Info{
		Format:     format,
		SampleRate: src.SampleRate(),
		Channels:   src.Channels(),
	}

	buf := make([]float32, readSize-readSize%info.Channels)
	samples := 0
	for {
		n, err := src.ReadSamples(buf)
		samples += n
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Info{}, fmt.Errorf("reading samples: %w", err)
		}
		if n == 0 {
			return Info{}, io.ErrNoProgress
		}
	}

	info.Frames = samples / info.Channels
	return info, nil
}
