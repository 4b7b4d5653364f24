package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEpochDriftNeverNegative(t *testing.T) {
	assert.Equal(t, uint32(0), EpochDrift(3, 10))
	assert.Equal(t, uint32(7), EpochDrift(10, 3))
	assert.Equal(t, uint32(0), EpochDrift(5, 5))
}

func TestNProbeWidenBelowHalf(t *testing.T) {
	mult, recompute := NProbeWiden(10, 64)
	assert.Equal(t, 1.0, mult)
	assert.False(t, recompute)
}

func TestNProbeWidenLinearRegion(t *testing.T) {
	mult, recompute := NProbeWiden(48, 64)
	assert.False(t, recompute)
	assert.Greater(t, mult, 1.0)
	assert.Less(t, mult, 2.0)
}

func TestNProbeWidenAtMax(t *testing.T) {
	mult, recompute := NProbeWiden(64, 64)
	assert.Equal(t, 2.0, mult)
	assert.False(t, recompute)
}

func TestNProbeWidenBeyondMax(t *testing.T) {
	mult, recompute := NProbeWiden(100, 64)
	assert.Equal(t, 2.0, mult)
	assert.True(t, recompute)
}

func TestNProbeWidenZeroTolerance(t *testing.T) {
	mult, recompute := NProbeWiden(0, 0)
	assert.Equal(t, 1.0, mult)
	assert.False(t, recompute)

	mult, recompute = NProbeWiden(1, 0)
	assert.Equal(t, 2.0, mult)
	assert.True(t, recompute)
}
