// SPDX-License-Identifier: EPL-2.0

package device

import (
	"fmt"
	"strings"
)

// Format is the sample encoding a device consumes. Both formats are
// interleaved little-endian.
type Format int

const (
	FormatS16LE Format = iota
	FormatF32LE
)

// BytesPerSample is the size of one channel sample.
func (f Format) BytesPerSample() int {
	if f == FormatF32LE {
		return 4
	}
	return 2
}

func (f Format) String() string {
	switch f {
	case FormatS16LE:
		return "s16le"
	case FormatF32LE:
		return "f32le"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat accepts "s16le", "s16", "f32le" and "f32", any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s16le", "s16", "":
		return FormatS16LE, nil
	case "f32le", "f32", "float":
		return FormatF32LE, nil
	default:
		return FormatS16LE, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}
