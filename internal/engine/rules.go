package engine

import "time"

// Rules holds per-room tunables shared by the variants. Zero values
// are never used directly; construct with DefaultRules and override.
type Rules struct {
	// SnapWindow is how long after the first snap call competing calls
	// still count as simultaneous. Earliest call wins the tie-break.
	SnapWindow time.Duration `json:"snapWindow"`

	// SnapHandSize is the number of cards dealt per player in snap.
	SnapHandSize int `json:"snapHandSize"`

	// BluffCardsPerPlay is how many cards a bluff play must contain.
	BluffCardsPerPlay int `json:"bluffCardsPerPlay"`

	// ScatLives is the number of lives each player starts with in scat.
	ScatLives int `json:"scatLives"`

	// SpadesTargetScore ends a spades game once any cumulative score
	// reaches it.
	SpadesTargetScore int `json:"spadesTargetScore"`
}

// DefaultRules returns the standard table rules.
func DefaultRules() Rules {
	return Rules{
		SnapWindow:        100 * time.Millisecond,
		SnapHandSize:      4,
		BluffCardsPerPlay: 1,
		ScatLives:         3,
		SpadesTargetScore: 500,
	}
}
