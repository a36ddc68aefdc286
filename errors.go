// SPDX-License-Identifier: EPL-2.0

package rtmix

import "errors"

var (
	// ErrAllocationExhausted means the memory region handed to New is too
	// small for the engine's tables, or for an asset or effect carved later.
	ErrAllocationExhausted = errors.New("rtmix: allocation exhausted")
	// ErrDeviceUnavailable means the output device could not be opened or
	// negotiated a stream the engine cannot drive.
	ErrDeviceUnavailable = errors.New("rtmix: device unavailable")
	ErrInvalidAsset      = errors.New("rtmix: invalid asset")
	ErrInvalidHandle     = errors.New("rtmix: invalid handle")
	ErrInvalidLayer      = errors.New("rtmix: music layer out of range")
)
