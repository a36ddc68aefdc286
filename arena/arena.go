// SPDX-License-Identifier: EPL-2.0

// Package arena implements a bump allocator over a caller-owned byte region.
//
// Every fixed table of the mixing engine is carved from an Arena once, on
// the control path. Nothing is ever freed: the region lives as long as its
// owner keeps it, and the engine never returns memory to it.
//
// Only pointer-free element types may be carved. The garbage collector does
// not scan a []byte backing array, so a slice of pointers placed in one would
// be invisible to it.
package arena

import (
	"fmt"
	"unsafe"
)

// Align is the byte alignment of every carved slice.
const Align = 32

// Arena hands out zeroed, aligned sub-slices of a region.
// It is not safe for concurrent use; callers serialize control-path access.
type Arena struct {
	region []byte
	base   uintptr
	off    int
}

// New wraps region. The arena does not copy it; the caller keeps it alive.
func New(region []byte) *Arena {
	a := &Arena{region: region}
	if len(region) > 0 {
		a.base = uintptr(unsafe.Pointer(unsafe.SliceData(region)))
	}
	return a
}

// Cap is the size of the region in bytes.
func (a *Arena) Cap() int { return len(a.region) }

// Used is the number of bytes consumed so far, alignment padding included.
func (a *Arena) Used() int { return a.off }

// Remaining is Cap minus Used.
func (a *Arena) Remaining() int { return len(a.region) - a.off }

// alloc reserves size bytes aligned to Align and returns them zeroed.
// A failed request leaves the arena untouched.
func (a *Arena) alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSize, size)
	}

	pad := int((Align - (a.base+uintptr(a.off))%Align) % Align)
	start := a.off + pad
	if start > len(a.region) || size > len(a.region)-start {
		return nil, fmt.Errorf("%w: need %d bytes, %d remaining",
			ErrExhausted, size, a.Remaining())
	}

	b := a.region[start : start+size : start+size]
	clear(b)
	a.off = start + size

	return b, nil
}

// Slice carves n zeroed elements of T from a. T must not contain pointers.
func Slice[T any](a *Arena, n int) ([]T, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d elements", ErrInvalidSize, n)
	}

	var zero T
	size := int(unsafe.Sizeof(zero))
	if n > 0 && size > 0 && n > (len(a.region))/size+1 {
		return nil, fmt.Errorf("%w: need %d elements of %d bytes, %d remaining",
			ErrExhausted, n, size, a.Remaining())
	}

	b, err := a.alloc(n * size)
	if err != nil {
		return nil, err
	}
	if n == 0 || size == 0 {
		return make([]T, n), nil
	}

	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n), nil
}

// Span locates a carved run of elements by byte offset into the region.
// A table that refers to other carved memory through Spans stays free of
// pointers and may itself be carved.
type Span struct {
	Off int
	Len int
}

// SliceSpan is Slice that also reports where the elements were placed.
func SliceSpan[T any](a *Arena, n int) ([]T, Span, error) {
	s, err := Slice[T](a, n)
	if err != nil || n == 0 {
		return s, Span{}, err
	}

	var zero T
	return s, Span{Off: a.off - n*int(unsafe.Sizeof(zero)), Len: n}, nil
}

// View returns the elements sp refers to. sp must have been returned by
// SliceSpan on a for the same T.
func View[T any](a *Arena, sp Span) []T {
	if sp.Len == 0 {
		return nil
	}

	b := a.region[sp.Off:]
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), sp.Len)
}

// Float32s carves n zeroed float32 values.
func (a *Arena) Float32s(n int) ([]float32, error) { return Slice[float32](a, n) }

// Int16s carves n zeroed int16 values.
func (a *Arena) Int16s(n int) ([]int16, error) { return Slice[int16](a, n) }

// Bytes carves n zeroed bytes.
func (a *Arena) Bytes(n int) ([]byte, error) { return a.alloc(n) }
