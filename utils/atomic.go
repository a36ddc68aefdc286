// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"math"
	"sync/atomic"
)

// AtomicFloat32 is a float32 that can be shared between the control path and
// the realtime goroutine. The value is bit-cast into an atomic uint32.
type AtomicFloat32 struct {
	bits atomic.Uint32
}

// NewAtomicFloat32 returns an AtomicFloat32 holding val.
func NewAtomicFloat32(val float32) *AtomicFloat32 {
	f := &AtomicFloat32{}
	f.Store(val)
	return f
}

func (f *AtomicFloat32) Load() float32 {
	return math.Float32frombits(f.bits.Load())
}

func (f *AtomicFloat32) Store(val float32) {
	f.bits.Store(math.Float32bits(val))
}
