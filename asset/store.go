// SPDX-License-Identifier: EPL-2.0

// Package asset keeps the immutable PCM buffers voices play from.
//
// Samples are copied once into arena memory as interleaved int16 and never
// move again. An entry is published with an atomic store, after which the
// realtime goroutine may read it without further synchronization.
package asset

import (
	"fmt"
	"sync/atomic"

	"github.com/ik5/rtmix/arena"
	"github.com/ik5/rtmix/utils"
)

// MaxAssets is the capacity of a Store.
const MaxAssets = 256

// Handle refers to a loaded asset. The zero value is NoAsset.
type Handle uint32

// NoAsset is returned when a load fails.
const NoAsset Handle = 0

// Asset is one immutable PCM buffer. It holds no pointers so the table
// of assets can live in arena memory; samples are resolved through the
// owning Store.
type Asset struct {
	samples    arena.Span
	frames     int
	channels   int
	sampleRate int
	loaded     atomic.Bool
}

func (a *Asset) Frames() int     { return a.frames }
func (a *Asset) Channels() int   { return a.channels }
func (a *Asset) SampleRate() int { return a.sampleRate }
func (a *Asset) Loaded() bool    { return a.loaded.Load() }

// SizeBytes is the size of the original little-endian payload.
func (a *Asset) SizeBytes() int { return a.samples.Len * 2 }

// Store is a fixed table of assets. Load and Unload belong to the control
// path; Get may be called from any goroutine.
type Store struct {
	mem     *arena.Arena
	entries []Asset
	count   atomic.Uint32
}

// NewStore carves the asset table from mem. Sample data for later loads
// comes from the same arena.
func NewStore(mem *arena.Arena) (*Store, error) {
	entries, err := arena.Slice[Asset](mem, MaxAssets)
	if err != nil {
		return nil, fmt.Errorf("asset: table: %w", err)
	}

	return &Store{mem: mem, entries: entries}, nil
}

// Load validates pcm (interleaved little-endian int16), copies it into
// arena memory and publishes a new entry.
func (s *Store) Load(pcm []byte, channels, sampleRate int) (Handle, error) {
	if channels != 1 && channels != 2 {
		return NoAsset, fmt.Errorf("%w: %d channels", ErrInvalidAsset, channels)
	}
	if sampleRate <= 0 {
		return NoAsset, fmt.Errorf("%w: sample rate %d", ErrInvalidAsset, sampleRate)
	}

	frameBytes := 2 * channels
	if len(pcm) == 0 || len(pcm)%frameBytes != 0 {
		return NoAsset, fmt.Errorf("%w: %d bytes is not a whole number of %d-byte frames",
			ErrInvalidAsset, len(pcm), frameBytes)
	}

	idx := s.count.Load()
	if idx >= MaxAssets {
		return NoAsset, ErrStoreFull
	}

	samples, span, err := arena.SliceSpan[int16](s.mem, len(pcm)/2)
	if err != nil {
		return NoAsset, fmt.Errorf("asset: %w", err)
	}
	utils.DecodeS16LE(samples, pcm)

	e := &s.entries[idx]
	e.samples = span
	e.frames = len(samples) / channels
	e.channels = channels
	e.sampleRate = sampleRate
	e.loaded.Store(true)
	s.count.Store(idx + 1)

	return Handle(idx + 1), nil
}

// Get returns the asset for h, or nil when h was never published or has
// been unloaded.
func (s *Store) Get(h Handle) *Asset {
	if h == NoAsset || uint32(h) > s.count.Load() {
		return nil
	}

	e := &s.entries[h-1]
	if !e.loaded.Load() {
		return nil
	}

	return e
}

// Samples returns the interleaved samples of a, which must belong to s.
func (s *Store) Samples(a *Asset) []int16 { return arena.View[int16](s.mem, a.samples) }

// Unload marks h unavailable. The memory stays carved and the handle is
// never handed out again.
func (s *Store) Unload(h Handle) bool {
	if h == NoAsset || uint32(h) > s.count.Load() {
		return false
	}

	return s.entries[h-1].loaded.Swap(false)
}

// Len is the number of entries ever published.
func (s *Store) Len() int { return int(s.count.Load()) }

// Loaded is the number of entries still available.
func (s *Store) Loaded() int {
	n := 0
	for i := range s.Len() {
		if s.entries[i].loaded.Load() {
			n++
		}
	}
	return n
}
