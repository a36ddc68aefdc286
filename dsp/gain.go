// SPDX-License-Identifier: EPL-2.0

package dsp

import "math"

// SilenceDb is what LinearToDb reports for inaudible levels.
const SilenceDb = -100

// DbToLinear converts decibels to an amplitude factor.
func DbToLinear(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

// LinearToDb converts an amplitude factor to decibels. Values below 1e-5
// report SilenceDb.
func LinearToDb(linear float32) float32 {
	if linear < 1e-5 {
		return SilenceDb
	}
	return float32(20 * math.Log10(float64(linear)))
}
