// SPDX-License-Identifier: EPL-2.0

package device

import "errors"

var (
	// ErrUnderrun reports that the device ran dry before a write. The period
	// passed to the failing Write was dropped; call Prepare and continue.
	ErrUnderrun = errors.New("device: buffer underrun")

	ErrUnavailable   = errors.New("device: unavailable")
	ErrUnknownDriver = errors.New("device: unknown driver")
	ErrUnknownFormat = errors.New("device: unknown sample format")
	ErrShortWrite    = errors.New("device: write is not one period")
	ErrClosed        = errors.New("device: closed")
)
