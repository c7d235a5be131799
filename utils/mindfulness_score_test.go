package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateMindfulnessScore(t *testing.T) {
	assert.Equal(t, 0.0, CalculateMindfulnessScore(0, 0, 0))

	// 9-day streak: sqrt(9)*10 = 30, plus 100 minutes and one badge.
	assert.Equal(t, 45.0, CalculateMindfulnessScore(9, 100, 1))

	// Rounded to one decimal place.
	assert.Equal(t, 14.1, CalculateMindfulnessScore(2, 0, 0))
}
