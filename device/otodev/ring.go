// SPDX-License-Identifier: EPL-2.0

package otodev

import (
	"sync"
	"sync/atomic"
)

// ring moves PCM from the engine's push-style writes to oto's pull-style
// reads. Writers block while it is full; a read that finds it short after
// the first write pads with silence and flags an underrun.
type ring struct {
	mtx    sync.Mutex
	space  *sync.Cond
	buf    []byte
	head   int
	size   int
	primed bool
	closed bool

	underrun atomic.Bool
}

func newRing(capacity int) *ring {
	r := &ring{buf: make([]byte, capacity)}
	r.space = sync.NewCond(&r.mtx)
	return r
}

// write blocks until p fits. It reports false if the ring was closed.
func (r *ring) write(p []byte) bool {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for !r.closed && len(r.buf)-r.size < len(p) {
		r.space.Wait()
	}
	if r.closed {
		return false
	}

	tail := (r.head + r.size) % len(r.buf)
	n := copy(r.buf[tail:], p)
	copy(r.buf, p[n:])
	r.size += len(p)
	r.primed = true

	return true
}

// Read implements io.Reader for the oto player.
func (r *ring) Read(p []byte) (int, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	n := min(len(p), r.size)
	first := copy(p[:n], r.buf[r.head:])
	copy(p[first:n], r.buf)
	r.head = (r.head + n) % len(r.buf)
	r.size -= n

	if n < len(p) {
		clear(p[n:])
		if r.primed && !r.closed {
			r.underrun.Store(true)
		}
	}

	r.space.Broadcast()
	return len(p), nil
}

// reset drops buffered audio and the underrun flag.
func (r *ring) reset() {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.head, r.size = 0, 0
	r.primed = false
	r.underrun.Store(false)
	r.space.Broadcast()
}

func (r *ring) close() {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.closed = true
	r.space.Broadcast()
}
