// Package badge derives lifetime achievement flags from aggregate values.
package badge

import "github.com/dfarena/indexer/pkg/core"

// Thresholds for each achievement.
const (
	StartYourEngineGames = 1
	NiceMoves            = 69
	BasedMoves           = 420
	OuchDuration         = 24 * 60 * 60
)

// Inputs are the aggregate values a badge can be earned from. Nil fields
// are not evaluated.
type Inputs struct {
	Arena        *core.Arena
	ArenaPlayer  *core.ArenaPlayer
	ConfigPlayer *core.ConfigPlayer
}

// Earned returns the flags the inputs qualify for on their own.
func Earned(in Inputs) core.Badge {
	var b core.Badge
	if in.ConfigPlayer != nil && in.ConfigPlayer.GamesFinished == StartYourEngineGames {
		b.StartYourEngine = true
	}
	if in.ArenaPlayer != nil {
		switch in.ArenaPlayer.Moves {
		case NiceMoves:
			b.Nice = true
		case BasedMoves:
			b.Based = true
		}
	}
	if in.Arena != nil && in.Arena.GameOver && in.Arena.Duration > OuchDuration {
		b.Ouch = true
	}
	return b
}

// Apply folds newly earned flags into the current badge. It reports whether
// any flag flipped; flags already set are never cleared.
func Apply(current core.Badge, in Inputs) (core.Badge, bool) {
	next := current.Merge(Earned(in))
	return next, next != current
}
