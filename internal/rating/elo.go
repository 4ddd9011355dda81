// Package rating implements the pairwise Elo update used for ranked arenas.
package rating

import "math"

// KFactor bounds how far a single match can move a rating.
const KFactor = 32

// Expected returns the logistic expected score of a rated a against b.
func Expected(a, b int64) float64 {
	return 1 / (1 + math.Pow(10, float64(b-a)/400))
}

// UpdateElo returns the new ratings of a and b after a two-party match.
// The change is rounded once and applied with opposite signs so the pair
// always moves by the same magnitude.
func UpdateElo(a, b int64, aWon bool) (int64, int64) {
	expectedA := Expected(a, b)

	actualA := 0.0
	if aWon {
		actualA = 1
	}

	delta := int64(math.Round(KFactor * (actualA - expectedA)))
	return a + delta, b - delta
}
