// SPDX-License-Identifier: EPL-2.0

package asset

import (
	"encoding/binary"
	"errors"
	"testing"
	"unsafe"

	"github.com/ik5/rtmix/arena"
)

// tableBytes is what NewStore carves before any sample data.
const tableBytes = MaxAssets*int(unsafe.Sizeof(Asset{})) + arena.Align

func newStore(t *testing.T, sampleBytes int) *Store {
	t.Helper()

	s, err := NewStore(arena.New(make([]byte, tableBytes+sampleBytes)))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return s
}

func pcm16(samples ...int16) []byte {
	b := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return b
}

func TestStore_Load(t *testing.T) {
	t.Parallel()

	s := newStore(t, 1<<16)

	h, err := s.Load(pcm16(1, -2, 3, -4), 2, 44100)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if h == NoAsset {
		t.Fatal("Load() returned NoAsset")
	}

	a := s.Get(h)
	if a == nil {
		t.Fatal("Get() = nil")
	}
	if a.Frames() != 2 || a.Channels() != 2 || a.SampleRate() != 44100 {
		t.Errorf("asset = %d frames, %d ch, %d Hz", a.Frames(), a.Channels(), a.SampleRate())
	}
	if a.SizeBytes() != 8 {
		t.Errorf("SizeBytes() = %d, want 8", a.SizeBytes())
	}

	want := []int16{1, -2, 3, -4}
	for i, v := range s.Samples(a) {
		if v != want[i] {
			t.Errorf("sample %d = %d, want %d", i, v, want[i])
		}
	}
}

func TestStore_LoadInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pcm      []byte
		channels int
		rate     int
	}{
		{name: "empty", pcm: nil, channels: 1, rate: 48000},
		{name: "odd bytes", pcm: []byte{1, 2, 3}, channels: 1, rate: 48000},
		{name: "partial stereo frame", pcm: pcm16(1, 2, 3), channels: 2, rate: 48000},
		{name: "zero channels", pcm: pcm16(1), channels: 0, rate: 48000},
		{name: "three channels", pcm: pcm16(1, 2, 3), channels: 3, rate: 48000},
		{name: "zero rate", pcm: pcm16(1), channels: 1, rate: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newStore(t, 1024)

			h, err := s.Load(tt.pcm, tt.channels, tt.rate)
			if !errors.Is(err, ErrInvalidAsset) {
				t.Errorf("error = %v, want ErrInvalidAsset", err)
			}
			if h != NoAsset {
				t.Errorf("handle = %d, want NoAsset", h)
			}
			if s.Len() != 0 {
				t.Errorf("Len() = %d after failed load", s.Len())
			}
		})
	}
}

func TestStore_Full(t *testing.T) {
	t.Parallel()

	s := newStore(t, MaxAssets*64)
	payload := pcm16(7)

	for i := range MaxAssets {
		if _, err := s.Load(payload, 1, 8000); err != nil {
			t.Fatalf("load %d error = %v", i, err)
		}
	}

	if _, err := s.Load(payload, 1, 8000); !errors.Is(err, ErrStoreFull) {
		t.Errorf("error = %v, want ErrStoreFull", err)
	}
}

func TestStore_ArenaExhausted(t *testing.T) {
	t.Parallel()

	s := newStore(t, 16)

	_, err := s.Load(make([]byte, 64), 1, 8000)
	if !errors.Is(err, arena.ErrExhausted) {
		t.Errorf("error = %v, want arena.ErrExhausted", err)
	}
}

func TestStore_Unload(t *testing.T) {
	t.Parallel()

	s := newStore(t, 1024)

	h, err := s.Load(pcm16(1, 2), 1, 8000)
	if err != nil {
		t.Fatal(err)
	}

	if !s.Unload(h) {
		t.Fatal("Unload() = false on loaded asset")
	}
	if s.Get(h) != nil {
		t.Error("Get() after Unload != nil")
	}
	if s.Unload(h) {
		t.Error("second Unload() = true")
	}
	if s.Loaded() != 0 || s.Len() != 1 {
		t.Errorf("Loaded() = %d, Len() = %d", s.Loaded(), s.Len())
	}

	h2, err := s.Load(pcm16(3), 1, 8000)
	if err != nil {
		t.Fatal(err)
	}
	if h2 == h {
		t.Error("unloaded handle was reused")
	}
}

func TestStore_GetUnknown(t *testing.T) {
	t.Parallel()

	s := newStore(t, 0)
	for _, h := range []Handle{NoAsset, 1, MaxAssets + 5} {
		if s.Get(h) != nil {
			t.Errorf("Get(%d) != nil on empty store", h)
		}
	}
}

func TestNewStore_TableInArena(t *testing.T) {
	t.Parallel()

	mem := arena.New(make([]byte, tableBytes+1024))
	s, err := NewStore(mem)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if got, want := mem.Used(), MaxAssets*int(unsafe.Sizeof(Asset{})); got < want {
		t.Errorf("arena Used() = %d after NewStore, want >= %d", got, want)
	}

	h, err := s.Load(pcm16(5, 6), 1, 8000)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Samples(s.Get(h)); len(got) != 2 || got[1] != 6 {
		t.Errorf("Samples() = %v, want [5 6]", got)
	}

	if _, err := NewStore(arena.New(make([]byte, 64))); !errors.Is(err, arena.ErrExhausted) {
		t.Errorf("NewStore() on a small arena error = %v, want arena.ErrExhausted", err)
	}
}
