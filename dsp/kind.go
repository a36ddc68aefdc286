// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"fmt"
	"strings"
)

// Kind selects the unit a rack slot runs.
type Kind uint32

const (
	KindNone Kind = iota
	KindReverb
	KindLowPass
	KindHighPass
	KindEcho
	KindCompressor
	KindDistortion

	kindCount
)

var kindNames = [kindCount]string{
	KindNone:       "none",
	KindReverb:     "reverb",
	KindLowPass:    "lowpass",
	KindHighPass:   "highpass",
	KindEcho:       "echo",
	KindCompressor: "compressor",
	KindDistortion: "distortion",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint32(k))
}

// Valid reports whether k names a real unit.
func (k Kind) Valid() bool { return k > KindNone && k < kindCount }

// ParseKind is the inverse of Kind.String. It is case insensitive.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if Kind(k).Valid() && name == s {
			return Kind(k), nil
		}
	}
	return KindNone, fmt.Errorf("%w: %q", ErrInvalidKind, s)
}
