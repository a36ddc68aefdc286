// SPDX-License-Identifier: EPL-2.0

package arena

import "errors"

var (
	ErrExhausted   = errors.New("arena: region exhausted")
	ErrInvalidSize = errors.New("arena: invalid allocation size")
)
