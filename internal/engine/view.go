package engine

import (
	"fmt"

	"github.com/parlorhq/parlor/internal/models"
)

// ViewCard is a card as seen by one viewer. Foreign cards stay in the
// document for structure but carry Known=false and no rank or suit.
type ViewCard struct {
	Known bool        `json:"known"`
	Rank  models.Rank `json:"rank,omitempty"`
	Suit  models.Suit `json:"suit,omitempty"`
}

// PlayerView is one seat as seen by the requesting viewer.
type PlayerView struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	HandSize int        `json:"hand_size"`
	Hand     []ViewCard `json:"hand"`
	Score    int        `json:"score"`
	IsReady  bool       `json:"is_ready"`
	IsHost   bool       `json:"is_host"`
}

// GameView is the transport-safe projection of the base game state.
// Variant views embed it and add their own fields. A view is always
// structurally complete; Error is set only on the degraded fallback.
type GameView struct {
	RoomCode         string                `json:"room_code"`
	GameType         Kind                  `json:"game_type"`
	State            GameState             `json:"state"`
	HostID           string                `json:"host_id,omitempty"`
	Players          map[string]PlayerView `json:"players"`
	CurrentPlayer    string                `json:"current_player,omitempty"`
	CurrentPlayerIdx int                   `json:"current_player_idx"`
	Direction        int                   `json:"direction"`
	DeckCount        int                   `json:"deck_count"`
	LastAction       *Event                `json:"last_action,omitempty"`
	Error            string                `json:"error,omitempty"`
}

// openCard projects a face-up card.
func openCard(c models.Card) ViewCard {
	return ViewCard{Known: true, Rank: c.Rank, Suit: c.Suit}
}

// openCards projects a face-up pile.
func openCards(cards []models.Card) []ViewCard {
	out := make([]ViewCard, len(cards))
	for i, c := range cards {
		out[i] = openCard(c)
	}
	return out
}

// handView projects a hand for a viewer: revealed for the owner,
// opaque placeholders for everyone else.
func handView(p *models.Player, revealed bool) []ViewCard {
	out := make([]ViewCard, len(p.Hand))
	for i, c := range p.Hand {
		if revealed {
			out[i] = openCard(c)
		} else {
			out[i] = ViewCard{Known: false}
		}
	}
	return out
}

// checkConsistency reports the first internal inconsistency that would
// make a normal view a lie, if any.
func (g *Game) checkConsistency() error {
	if g.Deck == nil {
		return fmt.Errorf("deck missing")
	}
	if len(g.Players) > 0 && (g.CurrentPlayerIdx < 0 || g.CurrentPlayerIdx >= len(g.Players)) {
		return fmt.Errorf("turn index %d out of range for %d players", g.CurrentPlayerIdx, len(g.Players))
	}
	if g.Direction != 1 && g.Direction != -1 {
		return fmt.Errorf("invalid direction %d", g.Direction)
	}
	return nil
}

// baseView projects the shared fields for a viewer. An empty viewerID
// produces a neutral view with every hand hidden; otherwise only the
// viewer's own hand is revealed. On internal inconsistency a minimal
// well-formed fallback is returned with Error set, never a failure.
func (g *Game) baseView(kind Kind, viewerID string) GameView {
	if err := g.checkConsistency(); err != nil {
		g.logger.WithError(err).Warn("state view degraded")
		return g.fallbackView(kind, err)
	}

	players := make(map[string]PlayerView, len(g.Players))
	hostID := ""
	for _, p := range g.Players {
		if p.IsHost {
			hostID = p.ID
		}
		players[p.ID] = PlayerView{
			ID:       p.ID,
			Name:     p.Name,
			HandSize: len(p.Hand),
			Hand:     handView(p, viewerID != "" && p.ID == viewerID),
			Score:    p.Score,
			IsReady:  p.IsReady,
			IsHost:   p.IsHost,
		}
	}

	currentID := ""
	if cur := g.CurrentPlayer(); cur != nil {
		currentID = cur.ID
	}
	return GameView{
		RoomCode:         g.RoomCode,
		GameType:         kind,
		State:            g.State,
		HostID:           hostID,
		Players:          players,
		CurrentPlayer:    currentID,
		CurrentPlayerIdx: g.CurrentPlayerIdx,
		Direction:        g.Direction,
		DeckCount:        g.Deck.Remaining(),
		LastAction:       g.LastAction,
	}
}

// fallbackView is the minimal valid document returned when projection
// hits inconsistent state. Same shape as a success view.
func (g *Game) fallbackView(kind Kind, err error) GameView {
	deckCount := 0
	if g.Deck != nil {
		deckCount = g.Deck.Remaining()
	}
	direction := g.Direction
	if direction != 1 && direction != -1 {
		direction = 1
	}
	return GameView{
		RoomCode:  g.RoomCode,
		GameType:  kind,
		State:     StateWaiting,
		Players:   map[string]PlayerView{},
		Direction: direction,
		DeckCount: deckCount,
		Error:     err.Error(),
	}
}
