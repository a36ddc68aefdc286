// SPDX-License-Identifier: EPL-2.0

package rtmix

import (
	"go.uber.org/zap"

	"github.com/ik5/rtmix/device"
	"github.com/ik5/rtmix/device/nulldev"
	"github.com/ik5/rtmix/device/wavdev"
)

type options struct {
	log      *zap.Logger
	dev      device.Device
	registry *device.Registry
	priority bool
}

// Option configures a Session.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithDevice makes the session drive an already open device instead of
// opening one from the registry. The session closes it on Shutdown.
func WithDevice(dev device.Device) Option {
	return func(o *options) { o.dev = dev }
}

// WithRegistry sets where drivers are looked up. The default is
// DefaultRegistry.
func WithRegistry(r *device.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithoutPriority keeps the realtime goroutine at normal scheduling
// priority.
func WithoutPriority() Option {
	return func(o *options) { o.priority = false }
}

// DefaultRegistry knows the drivers that need no system audio stack: the
// paced null sink and the WAV file renderer.
func DefaultRegistry() *device.Registry {
	r := device.NewRegistry()
	r.Register(nulldev.Name, nulldev.Open)
	r.Register(wavdev.Name, wavdev.Open)
	return r
}
