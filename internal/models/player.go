package models

// Player is one seat at the table. A player belongs to exactly one
// game; hands are ordered because actions address cards by index.
type Player struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Hand    []Card `json:"hand"`
	Score   int    `json:"score"`
	IsReady bool   `json:"is_ready"`
	IsHost  bool   `json:"is_host"`
}

// HasRank reports whether any card in the hand has the given rank.
func (p *Player) HasRank(rank Rank) bool {
	for _, c := range p.Hand {
		if c.Rank == rank {
			return true
		}
	}
	return false
}

// RemoveAt removes and returns the card at the given hand index.
// The caller is responsible for bounds checking.
func (p *Player) RemoveAt(idx int) Card {
	card := p.Hand[idx]
	p.Hand = append(p.Hand[:idx], p.Hand[idx+1:]...)
	return card
}
