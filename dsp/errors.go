// SPDX-License-Identifier: EPL-2.0

package dsp

import "errors"

var (
	ErrBufferBoundsExceeded = errors.New("dsp: buffer exceeds effect scratch")
	ErrInvalidSlot          = errors.New("dsp: effect slot out of range")
	ErrInvalidKind          = errors.New("dsp: unknown effect kind")
)
