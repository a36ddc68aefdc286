// SPDX-License-Identifier: EPL-2.0

package utils

import (
	"encoding/binary"
	"math"
)

const int16Scale = 1.0 / 32768.0

// Float32ToInt16 clamps x to [-1, 1] and scales it to the int16 range.
func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// Use 32767 for positive max to avoid overflow
	return int16(x * 32767.0)
}

// Int16ToFloat32 maps an int16 sample into [-1, 1).
func Int16ToFloat32(v int16) float32 {
	return float32(v) * int16Scale
}

// PutS16LE converts src into little-endian int16 PCM in dst and returns the
// number of bytes written. dst must hold at least 2*len(src) bytes.
func PutS16LE(dst []byte, src []float32) int {
	n := len(src)
	if len(dst) < n*2 {
		n = len(dst) / 2
	}

	for i := range n {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(Float32ToInt16(src[i])))
	}

	return n * 2
}

// PutF32LE writes src clamped to [-1, 1] as little-endian float32 into dst and
// returns the number of bytes written.
func PutF32LE(dst []byte, src []float32) int {
	n := len(src)
	if len(dst) < n*4 {
		n = len(dst) / 4
	}

	for i := range n {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(Clamp(src[i], -1, 1)))
	}

	return n * 4
}

// DecodeS16LE fills dst with the int16 samples found in little-endian src and
// returns the number of samples decoded.
func DecodeS16LE(dst []int16, src []byte) int {
	n := min(len(dst), len(src)/2)
	for i := range n {
		dst[i] = int16(binary.LittleEndian.Uint16(src[i*2:]))
	}

	return n
}

// IntScale is the factor that maps a signed integer sample of bitDepth bits
// into [-1, 1).
func IntScale(bitDepth int) float32 {
	if bitDepth < 1 || bitDepth > 32 {
		bitDepth = 16
	}
	return 1 / float32(uint64(1)<<(bitDepth-1))
}
