package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateHaversineDistance(t *testing.T) {
	assert.InDelta(t, 0, CalculateHaversineDistance(-6.2, 106.8, -6.2, 106.8), 1e-9)

	// One degree of latitude is roughly 111.2 km.
	assert.InDelta(t, 111195, CalculateHaversineDistance(0, 0, 1, 0), 50)

	// Symmetric.
	a := CalculateHaversineDistance(-6.175, 106.827, -6.914, 107.609)
	b := CalculateHaversineDistance(-6.914, 107.609, -6.175, 106.827)
	assert.InDelta(t, a, b, 1e-6)
}
