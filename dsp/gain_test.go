// SPDX-License-Identifier: EPL-2.0

package dsp

import (
	"math"
	"testing"
)

func TestDbToLinear(t *testing.T) {
	t.Parallel()

	if got := DbToLinear(0); got != 1 {
		t.Errorf("DbToLinear(0) = %v, want 1", got)
	}
	if got := DbToLinear(-6); math.Abs(float64(got)-0.5012) > 1e-4 {
		t.Errorf("DbToLinear(-6) = %v, want 0.5012", got)
	}
	if got := DbToLinear(20); math.Abs(float64(got)-10) > 1e-4 {
		t.Errorf("DbToLinear(20) = %v, want 10", got)
	}
}

func TestGainRoundTrip(t *testing.T) {
	t.Parallel()

	for db := float32(-60); db <= 0; db += 0.5 {
		got := LinearToDb(DbToLinear(db))
		if math.Abs(float64(got-db)) > 1e-3 {
			t.Errorf("LinearToDb(DbToLinear(%v)) = %v", db, got)
		}
	}
}

func TestLinearToDb_Silence(t *testing.T) {
	t.Parallel()

	for _, v := range []float32{0, 1e-6, -1} {
		if got := LinearToDb(v); got != SilenceDb {
			t.Errorf("LinearToDb(%v) = %v, want %v", v, got, SilenceDb)
		}
	}
}
