package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/parlorhq/parlor/internal/models"
)

// SnapGame is the fast-matching race variant: players flip cards onto
// a shared center pile and race to call snap on a rank match.
type SnapGame struct {
	Game

	CenterPile []models.Card
	LastCardAt time.Time

	// snapTimes tracks each player's latest snap call for the
	// simultaneous-call window. Not persisted; the window is far
	// shorter than any persistence round trip.
	snapTimes map[string]time.Time
	now       func() time.Time
}

// NewSnapGame builds an empty snap engine for a room.
func NewSnapGame(roomCode string, rules Rules) *SnapGame {
	return &SnapGame{
		Game:      newGame(roomCode, KindSnap, rules),
		snapTimes: make(map[string]time.Time),
		now:       time.Now,
	}
}

func (s *SnapGame) Kind() Kind  { return KindSnap }
func (s *SnapGame) Base() *Game { return &s.Game }

func (s *SnapGame) handSize() int { return s.Rules.SnapHandSize }

// Start deals a fixed hand to each player and enters play.
func (s *SnapGame) Start() error {
	minCards := len(s.Players) * s.handSize()
	return s.begin(2, minCards, func() error {
		return s.Deck.Deal(s.Players, s.handSize())
	})
}

// PlayCard moves the top card of the current player's hand to the
// center pile and advances the turn.
func (s *SnapGame) PlayCard(playerID string) error {
	if err := s.requireState(StatePlaying); err != nil {
		return err
	}
	p, err := s.requireTurn(playerID)
	if err != nil {
		return err
	}
	if len(p.Hand) == 0 {
		return fmt.Errorf("no cards in hand: %w", ErrInvalidMove)
	}

	card := p.RemoveAt(len(p.Hand) - 1)
	s.CenterPile = append(s.CenterPile, card)
	s.LastCardAt = s.now()
	s.record("card_played", playerID, map[string]any{
		"rank": card.Rank,
		"suit": card.Suit,
	})
	s.NextTurn()
	s.checkGameEnd()
	return nil
}

// Snap is callable by any player, not just the current one. On a rank
// match between the top two center cards, the fastest caller within
// the snap window takes the pile and scores one point per pair. On a
// mismatch the caller pays a penalty: cards from their own hand are
// distributed round-robin to the other players.
func (s *SnapGame) Snap(playerID string) error {
	if err := s.requireState(StatePlaying); err != nil {
		return err
	}
	p, err := s.player(playerID)
	if err != nil {
		return err
	}
	if len(s.CenterPile) < 2 {
		return fmt.Errorf("not enough center cards to snap: %w", ErrInvalidMove)
	}

	calledAt := s.now()
	s.snapTimes[playerID] = calledAt

	top := s.CenterPile[len(s.CenterPile)-1]
	second := s.CenterPile[len(s.CenterPile)-2]
	if top.Rank != second.Rank {
		s.applySnapPenalty(p)
		return nil
	}

	// Everyone whose call landed inside the window is in the race;
	// earliest timestamp wins.
	winnerID := playerID
	winnerAt := calledAt
	for pid, at := range s.snapTimes {
		if calledAt.Sub(at) > s.Rules.SnapWindow {
			continue
		}
		if at.Before(winnerAt) {
			winnerID = pid
			winnerAt = at
		}
	}
	winner, err := s.player(winnerID)
	if err != nil {
		winner = p
		winnerID = playerID
	}

	points := len(s.CenterPile) / 2
	won := len(s.CenterPile)
	winner.Score += points
	winner.Hand = append(winner.Hand, s.CenterPile...)
	s.CenterPile = nil
	s.snapTimes = make(map[string]time.Time)
	s.LastCardAt = time.Time{}

	s.record("snap_success", winnerID, map[string]any{
		"cards_won":     won,
		"points_earned": points,
	})
	s.logger.WithField("player", winnerID).Info("snap won")
	s.checkGameEnd()
	return nil
}

// applySnapPenalty hands out up to players-1 cards from the offender's
// hand, round-robin across the other players.
func (s *SnapGame) applySnapPenalty(p *models.Player) {
	var others []*models.Player
	for _, o := range s.Players {
		if o.ID != p.ID {
			others = append(others, o)
		}
	}
	count := len(others)
	if count > len(p.Hand) {
		count = len(p.Hand)
	}
	for i := 0; i < count; i++ {
		card := p.RemoveAt(len(p.Hand) - 1)
		others[i%len(others)].Hand = append(others[i%len(others)].Hand, card)
	}
	s.record("snap_failed", p.ID, map[string]any{"penalty_cards": count})
	s.checkGameEnd()
}

// checkGameEnd ends the game with a bonus point once only one player
// still holds cards.
func (s *SnapGame) checkGameEnd() {
	if s.State != StatePlaying {
		return
	}
	var holders []*models.Player
	for _, p := range s.Players {
		if len(p.Hand) > 0 {
			holders = append(holders, p)
		}
	}
	if len(holders) > 1 {
		return
	}
	s.State = StateGameEnd
	if len(holders) == 1 {
		holders[0].Score++
		s.record("game_end", holders[0].ID, map[string]any{"winner": holders[0].ID})
		s.logger.WithField("winner", holders[0].ID).Info("snap game finished")
	}
}

// HandleAction dispatches a transport action envelope.
func (s *SnapGame) HandleAction(playerID string, act Action) error {
	switch act.Type {
	case "play_card":
		return s.PlayCard(playerID)
	case "snap":
		return s.Snap(playerID)
	default:
		return fmt.Errorf("snap action %q: %w", act.Type, ErrUnknownAction)
	}
}

// SnapView is the snap projection: base fields plus the face-up center
// pile.
type SnapView struct {
	GameView
	CenterPile      []ViewCard `json:"center_pile"`
	CenterPileCount int        `json:"center_pile_count"`
	CanSnap         bool       `json:"can_snap"`
}

func (s *SnapGame) View(viewerID string) any {
	return SnapView{
		GameView:        s.baseView(KindSnap, viewerID),
		CenterPile:      openCards(s.CenterPile),
		CenterPileCount: len(s.CenterPile),
		CanSnap:         len(s.CenterPile) >= 2,
	}
}

type snapState struct {
	CenterPile []models.Card `json:"center_pile"`
}

func (s *SnapGame) Snapshot() ([]byte, error) {
	return s.exportSnapshot(KindSnap, snapState{CenterPile: s.CenterPile})
}

func (s *SnapGame) restoreExtra(doc *snapshotDoc) error {
	if len(doc.Variant) == 0 {
		return nil
	}
	var st snapState
	if err := json.Unmarshal(doc.Variant, &st); err != nil {
		return fmt.Errorf("decode snap state: %w", err)
	}
	if !cardsValid(st.CenterPile) {
		return fmt.Errorf("snap center pile malformed")
	}
	s.CenterPile = st.CenterPile
	return nil
}
