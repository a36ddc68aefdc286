// SPDX-License-Identifier: EPL-2.0

package preset

import "errors"

var (
	ErrInvalidPreset = errors.New("invalid preset")
	ErrUnknownPreset = errors.New("unknown preset")
)
