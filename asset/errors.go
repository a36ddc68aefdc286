// SPDX-License-Identifier: EPL-2.0

package asset

import "errors"

var (
	ErrInvalidAsset = errors.New("asset: invalid PCM payload")
	ErrStoreFull    = errors.New("asset: store is full")
)
