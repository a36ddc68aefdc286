// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")
	// ErrUnknownFormat means no decoder is registered for a format key.
	ErrUnknownFormat = errors.New("unknown audio format")
	// ErrChannelLayout means a stream cannot be folded into the requested
	// number of channels.
	ErrChannelLayout = errors.New("unsupported channel layout")
)
