// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/ik5/rtmix/device"
)

// Device is a gated capture device. Every Write blocks until the test lets
// it through with Step, so a test decides exactly how many periods the
// realtime loop renders and can change engine state between them.
type Device struct {
	cfg device.Config

	arrive   chan struct{}
	gate     chan struct{}
	released chan struct{}
	closed   chan struct{}
	pending  bool

	mtx      sync.Mutex
	periods  [][]byte
	failNext []error
	prepares int

	releaseOnce sync.Once
	closeOnce   sync.Once
}

func NewDevice(cfg device.Config) *Device {
	return &Device{
		cfg:      cfg.Normalize(),
		arrive:   make(chan struct{}),
		gate:     make(chan struct{}),
		released: make(chan struct{}),
		closed:   make(chan struct{}),
	}
}

func (d *Device) Config() device.Config { return d.cfg }

func (d *Device) Write(period []byte) error {
	select {
	case d.arrive <- struct{}{}:
	case <-d.released:
		return d.record(period)
	case <-d.closed:
		return device.ErrClosed
	}

	select {
	case <-d.gate:
	case <-d.released:
	case <-d.closed:
		return device.ErrClosed
	}

	return d.record(period)
}

func (d *Device) record(period []byte) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	if len(d.failNext) > 0 {
		err := d.failNext[0]
		d.failNext = d.failNext[1:]
		return err
	}

	select {
	case <-d.released:
		return nil
	default:
	}

	d.periods = append(d.periods, append([]byte(nil), period...))
	return nil
}

// Wait blocks until the realtime loop has rendered a period and is
// waiting to write it.
func (d *Device) Wait() {
	if !d.pending {
		<-d.arrive
		d.pending = true
	}
}

// Step lets n writes through. When it returns, the n periods have been
// handled and the next one is rendered and held back, so state changed
// after Step is heard from the period after that.
func (d *Device) Step(n int) {
	d.Wait()
	for range n {
		d.gate <- struct{}{}
		<-d.arrive
	}
}

// Release opens the gate for good. Later writes are accepted and dropped.
// Call it before shutting a session down.
func (d *Device) Release() {
	d.releaseOnce.Do(func() { close(d.released) })
}

// FailNext makes upcoming writes return errs in order.
func (d *Device) FailNext(errs ...error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	d.failNext = append(d.failNext, errs...)
}

func (d *Device) Prepare() error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	d.prepares++
	return nil
}

func (d *Device) Prepares() int {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	return d.prepares
}

func (d *Device) Close() error {
	d.closeOnce.Do(func() { close(d.closed) })
	return nil
}

// Periods returns the recorded periods.
func (d *Device) Periods() [][]byte {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	return append([][]byte(nil), d.periods...)
}

// Samples decodes every recorded period as interleaved float32.
func (d *Device) Samples() []float32 {
	var out []float32
	for _, p := range d.Periods() {
		if d.cfg.Format == device.FormatF32LE {
			for i := 0; i+3 < len(p); i += 4 {
				out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(p[i:])))
			}
			continue
		}
		for i := 0; i+1 < len(p); i += 2 {
			out = append(out, float32(int16(binary.LittleEndian.Uint16(p[i:])))/32768)
		}
	}
	return out
}
