package utils

import "math"

// CalculateMindfulnessScore blends streak consistency, cumulative practice
// time and earned badges into a single dashboard number. The streak term is
// dampened with a square root so long streaks stop dominating the score.
func CalculateMindfulnessScore(currentStreak, totalMinutes, badgesEarned int) float64 {
	streakScore := math.Sqrt(float64(currentStreak)) * 10.0
	minutesScore := float64(totalMinutes) * 0.1
	badgeScore := float64(badgesEarned) * 5.0

	return math.Round((streakScore+minutesScore+badgeScore)*10) / 10
}
