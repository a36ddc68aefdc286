// SPDX-License-Identifier: EPL-2.0

package preset

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ik5/rtmix/dsp"
)

//go:embed presets/*.yaml
var builtins embed.FS

// Rack is the effects surface of a session.
type Rack interface {
	EnableEffect(slot int, k dsp.Kind) error
	DisableEffect(slot int) error
	SetEffectMix(slot int, mix float32) error
	SetReverbParams(slot int, roomSize, damping float32) error
	SetReverbMix(slot int, wet, dry, width float32) error
	SetFilterParams(slot int, cutoff, resonance float32) error
	SetEchoParams(slot int, delayMs, feedback float32) error
	SetEchoMix(slot int, mix float32) error
	SetCompressorParams(slot int, threshold, ratio, attackMs, releaseMs float32) error
	SetDistortionParams(slot int, drive float32) error
}

// Preset is a complete rack layout. Slots it does not name are disabled
// when it is applied.
type Preset struct {
	Name    string   `yaml:"name"`
	Effects []Effect `yaml:"effects"`
}

// Effect configures one slot. Unset parameters keep the unit's defaults.
type Effect struct {
	Slot int    `yaml:"slot"`
	Type string `yaml:"type"`
	// Mix is the slot's dry/wet balance.
	Mix *float32 `yaml:"mix,omitempty"`

	RoomSize *float32 `yaml:"room_size,omitempty"`
	Damping  *float32 `yaml:"damping,omitempty"`
	Wet      *float32 `yaml:"wet,omitempty"`
	Dry      *float32 `yaml:"dry,omitempty"`
	Width    *float32 `yaml:"width,omitempty"`

	Cutoff    *float32 `yaml:"cutoff,omitempty"`
	Resonance *float32 `yaml:"resonance,omitempty"`

	DelayMs  *float32 `yaml:"delay_ms,omitempty"`
	Feedback *float32 `yaml:"feedback,omitempty"`

	Threshold *float32 `yaml:"threshold,omitempty"`
	Ratio     *float32 `yaml:"ratio,omitempty"`
	AttackMs  *float32 `yaml:"attack_ms,omitempty"`
	ReleaseMs *float32 `yaml:"release_ms,omitempty"`

	Drive *float32 `yaml:"drive,omitempty"`

	kind dsp.Kind
}

var kindParams = map[dsp.Kind][]string{
	dsp.KindReverb:     {"room_size", "damping", "wet", "dry", "width"},
	dsp.KindLowPass:    {"cutoff", "resonance"},
	dsp.KindHighPass:   {"cutoff", "resonance"},
	dsp.KindEcho:       {"delay_ms", "feedback", "wet"},
	dsp.KindCompressor: {"threshold", "ratio", "attack_ms", "release_ms"},
	dsp.KindDistortion: {"drive"},
}

func (e *Effect) params() map[string]*float32 {
	return map[string]*float32{
		"room_size":  e.RoomSize,
		"damping":    e.Damping,
		"wet":        e.Wet,
		"dry":        e.Dry,
		"width":      e.Width,
		"cutoff":     e.Cutoff,
		"resonance":  e.Resonance,
		"delay_ms":   e.DelayMs,
		"feedback":   e.Feedback,
		"threshold":  e.Threshold,
		"ratio":      e.Ratio,
		"attack_ms":  e.AttackMs,
		"release_ms": e.ReleaseMs,
		"drive":      e.Drive,
	}
}

// Kind is the parsed Type, valid after Validate.
func (e *Effect) Kind() dsp.Kind { return e.kind }

// Validate checks slot numbers, effect types and that every parameter
// belongs to its effect.
func (p *Preset) Validate() error {
	var seen [dsp.MaxEffects]bool

	for i := range p.Effects {
		e := &p.Effects[i]

		if e.Slot < 0 || e.Slot >= dsp.MaxEffects {
			return fmt.Errorf("%w: slot %d out of range", ErrInvalidPreset, e.Slot)
		}
		if seen[e.Slot] {
			return fmt.Errorf("%w: slot %d used twice", ErrInvalidPreset, e.Slot)
		}
		seen[e.Slot] = true

		k, err := dsp.ParseKind(e.Type)
		if err != nil {
			return fmt.Errorf("%w: slot %d: %w", ErrInvalidPreset, e.Slot, err)
		}
		e.kind = k

		for name, v := range e.params() {
			if v != nil && !slices.Contains(kindParams[k], name) {
				return fmt.Errorf("%w: slot %d: %s does not apply to %s", ErrInvalidPreset, e.Slot, name, k)
			}
		}
	}

	return nil
}

// Read decodes a YAML preset. Unknown keys are rejected.
func Read(r io.Reader) (*Preset, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Preset
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidPreset)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidPreset, err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func Parse(data []byte) (*Preset, error) {
	return Read(bytes.NewReader(data))
}

// Load reads the preset file at path.
func Load(path string) (*Preset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening preset: %w", err)
	}
	defer f.Close()

	p, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Builtin returns one of the presets shipped with the package.
func Builtin(name string) (*Preset, error) {
	data, err := builtins.ReadFile(path.Join("presets", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return Parse(data)
}

// Builtins lists the names Builtin accepts.
func Builtins() []string {
	entries, err := builtins.ReadDir("presets")
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return names
}

// Find resolves a built-in name first and a file path second.
func Find(nameOrPath string) (*Preset, error) {
	if p, err := Builtin(nameOrPath); err == nil {
		return p, nil
	}
	return Load(nameOrPath)
}

// Encode writes p as YAML.
func (p *Preset) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encoding preset: %w", err)
	}
	return enc.Close()
}

func or(v *float32, def float32) float32 {
	if v == nil {
		return def
	}
	return *v
}

// Apply lays p out on r. Every slot p does not name is disabled.
func (p *Preset) Apply(r Rack) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var used [dsp.MaxEffects]bool
	for i := range p.Effects {
		e := &p.Effects[i]
		used[e.Slot] = true

		if err := e.apply(r); err != nil {
			return fmt.Errorf("slot %d (%s): %w", e.Slot, e.kind, err)
		}
	}

	for slot, ok := range used {
		if ok {
			continue
		}
		if err := r.DisableEffect(slot); err != nil {
			return fmt.Errorf("slot %d: %w", slot, err)
		}
	}

	return nil
}

func (e *Effect) apply(r Rack) error {
	if err := r.EnableEffect(e.Slot, e.kind); err != nil {
		return err
	}

	var err error
	switch e.kind {
	case dsp.KindReverb:
		err = errors.Join(
			r.SetReverbParams(e.Slot, or(e.RoomSize, dsp.DefaultRoomSize), or(e.Damping, dsp.DefaultDamping)),
			r.SetReverbMix(e.Slot, or(e.Wet, dsp.DefaultWet), or(e.Dry, dsp.DefaultDry), or(e.Width, dsp.DefaultWidth)),
		)
	case dsp.KindLowPass:
		err = r.SetFilterParams(e.Slot, or(e.Cutoff, dsp.MaxCutoff), or(e.Resonance, dsp.DefaultResonance))
	case dsp.KindHighPass:
		err = r.SetFilterParams(e.Slot, or(e.Cutoff, dsp.MinCutoff), or(e.Resonance, dsp.DefaultResonance))
	case dsp.KindEcho:
		err = errors.Join(
			r.SetEchoParams(e.Slot, or(e.DelayMs, dsp.DefaultEchoDelayMs), or(e.Feedback, dsp.DefaultEchoFeedback)),
			r.SetEchoMix(e.Slot, or(e.Wet, dsp.DefaultEchoMix)),
		)
	case dsp.KindCompressor:
		err = r.SetCompressorParams(e.Slot,
			or(e.Threshold, dsp.DefaultThreshold),
			or(e.Ratio, dsp.DefaultRatio),
			or(e.AttackMs, dsp.DefaultAttackMs),
			or(e.ReleaseMs, dsp.DefaultReleaseMs))
	case dsp.KindDistortion:
		err = r.SetDistortionParams(e.Slot, or(e.Drive, dsp.DefaultDrive))
	}
	if err != nil {
		return err
	}

	if e.Mix != nil {
		return r.SetEffectMix(e.Slot, *e.Mix)
	}
	return nil
}
