package engine

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/parlorhq/parlor/internal/models"
)

// scatHandSize is the fixed hand size between turns in scat.
const scatHandSize = 3

// ScatGame is the knock/31 variant: players cycle draw/discard chasing
// the best single-suit total, knock to force a final round, and lose
// lives for the lowest hand.
type ScatGame struct {
	Game

	DiscardPile []models.Card
	Lives       map[string]int
	KnockedBy   string
	FinalRound  bool
}

// NewScatGame builds an empty scat engine for a room.
func NewScatGame(roomCode string, rules Rules) *ScatGame {
	return &ScatGame{
		Game:  newGame(roomCode, KindScat, rules),
		Lives: make(map[string]int),
	}
}

func (s *ScatGame) Kind() Kind  { return KindScat }
func (s *ScatGame) Base() *Game { return &s.Game }

func (s *ScatGame) handSize() int { return scatHandSize }

// Start deals three cards each, seeds the discard pile, and gives
// every player their starting lives.
func (s *ScatGame) Start() error {
	minCards := len(s.Players)*scatHandSize + 1
	return s.begin(2, minCards, func() error {
		if err := s.dealRound(); err != nil {
			return err
		}
		s.Lives = make(map[string]int, len(s.Players))
		for _, p := range s.Players {
			s.Lives[p.ID] = s.Rules.ScatLives
		}
		return nil
	})
}

// dealRound deals hands and seeds the discard pile for one round.
func (s *ScatGame) dealRound() error {
	if err := s.Deck.Deal(s.Players, scatHandSize); err != nil {
		return err
	}
	seed, ok := s.Deck.Draw()
	if !ok {
		return fmt.Errorf("no card for discard pile: %w", models.ErrInsufficientCards)
	}
	s.DiscardPile = []models.Card{seed}
	return nil
}

// DrawCard draws from the deck or the discard top. The hand must hold
// exactly three cards; the matching discard restores it to three.
func (s *ScatGame) DrawCard(playerID string, fromDiscard bool) error {
	if err := s.requireState(StatePlaying); err != nil {
		return err
	}
	p, err := s.requireTurn(playerID)
	if err != nil {
		return err
	}
	if len(p.Hand) != scatHandSize {
		return fmt.Errorf("have %d cards, draw requires %d: %w", len(p.Hand), scatHandSize, ErrInvalidMove)
	}

	var card models.Card
	if fromDiscard {
		if len(s.DiscardPile) == 0 {
			return fmt.Errorf("discard pile is empty: %w", ErrInvalidMove)
		}
		card = s.DiscardPile[len(s.DiscardPile)-1]
		s.DiscardPile = s.DiscardPile[:len(s.DiscardPile)-1]
	} else {
		card, err = s.drawWithReshuffle()
		if err != nil {
			return err
		}
	}

	p.Hand = append(p.Hand, card)
	s.record("card_drawn", playerID, map[string]any{"from_discard": fromDiscard})
	return nil
}

// drawWithReshuffle draws from the deck, folding all but the top
// discard back in when the deck runs dry.
func (s *ScatGame) drawWithReshuffle() (models.Card, error) {
	if card, ok := s.Deck.Draw(); ok {
		return card, nil
	}
	if len(s.DiscardPile) <= 1 {
		return models.Card{}, fmt.Errorf("no cards left to draw: %w", models.ErrInsufficientCards)
	}
	top := s.DiscardPile[len(s.DiscardPile)-1]
	s.Deck.Cards = append(s.Deck.Cards, s.DiscardPile[:len(s.DiscardPile)-1]...)
	s.Deck.Shuffle()
	s.DiscardPile = []models.Card{top}
	s.logger.WithField("cards", s.Deck.Remaining()).Info("reshuffled discard pile into deck")
	card, _ := s.Deck.Draw()
	return card, nil
}

// DiscardCard returns the hand to three cards. The knocker's own final
// discard resolves the round.
func (s *ScatGame) DiscardCard(playerID string, cardIdx int) error {
	if err := s.requireState(StatePlaying); err != nil {
		return err
	}
	p, err := s.requireTurn(playerID)
	if err != nil {
		return err
	}
	if len(p.Hand) != scatHandSize+1 {
		return fmt.Errorf("draw before discarding: %w", ErrInvalidMove)
	}
	if err := requireIndex(p, cardIdx); err != nil {
		return err
	}

	card := p.RemoveAt(cardIdx)
	s.DiscardPile = append(s.DiscardPile, card)
	s.record("card_discarded", playerID, map[string]any{
		"rank": card.Rank,
		"suit": card.Suit,
	})

	if s.FinalRound && playerID == s.KnockedBy {
		s.endRound()
		return nil
	}
	s.NextTurn()
	return nil
}

// Knock locks in the knocker's hand and starts one final turn for
// everyone else.
func (s *ScatGame) Knock(playerID string) error {
	if err := s.requireState(StatePlaying); err != nil {
		return err
	}
	if s.FinalRound {
		return fmt.Errorf("round is already ending: %w", ErrInvalidMove)
	}
	p, err := s.requireTurn(playerID)
	if err != nil {
		return err
	}
	if len(p.Hand) != scatHandSize {
		return fmt.Errorf("must hold exactly %d cards to knock: %w", scatHandSize, ErrInvalidMove)
	}

	s.KnockedBy = playerID
	s.FinalRound = true
	s.record("player_knocked", playerID, nil)
	s.logger.WithField("player", playerID).Info("player knocked")
	s.NextTurn()
	return nil
}

// scatHandValue is the best single-suit point total, capped at 31.
// Ace counts 11, face cards 10.
func scatHandValue(hand []models.Card) int {
	totals := make(map[models.Suit]int)
	best := 0
	for _, c := range hand {
		totals[c.Suit] += c.Value()
		if totals[c.Suit] > best {
			best = totals[c.Suit]
		}
	}
	if best > 31 {
		best = 31
	}
	return best
}

// endRound scores every hand, takes a life from the lowest, and either
// finishes the game or re-deals for the next round.
func (s *ScatGame) endRound() {
	scores := make(map[string]int, len(s.Players))
	minScore := 32
	for _, p := range s.Players {
		scores[p.ID] = scatHandValue(p.Hand)
		if scores[p.ID] < minScore {
			minScore = scores[p.ID]
		}
	}

	var losers []string
	for pid, score := range scores {
		if score == minScore {
			losers = append(losers, pid)
			if s.Lives[pid] > 0 {
				s.Lives[pid]--
			}
		}
	}

	var alive []string
	for _, p := range s.Players {
		if s.Lives[p.ID] > 0 {
			alive = append(alive, p.ID)
		}
	}

	payload := map[string]any{
		"scores": scores,
		"losers": losers,
		"lives":  s.Lives,
	}

	if len(alive) <= 1 {
		s.State = StateGameEnd
		if len(alive) == 1 {
			winner, err := s.player(alive[0])
			if err == nil {
				winner.Score++
			}
			payload["winner"] = alive[0]
			s.logger.WithField("winner", alive[0]).Info("scat game finished")
		}
		s.record("round_end", "", payload)
		return
	}

	// Next round: everything back in the deck, fresh hands, same lives.
	s.State = StateRoundEnd
	s.FinalRound = false
	s.KnockedBy = ""
	s.Deck.Reset()
	for _, p := range s.Players {
		p.Hand = nil
	}
	if err := s.dealRound(); err != nil {
		// A full deck always covers 6 players at 3 cards plus a seed.
		s.logger.WithError(err).Error("round re-deal failed")
		return
	}
	s.CurrentPlayerIdx = 0
	s.State = StatePlaying
	s.record("round_end", "", payload)
}

// HandleAction dispatches a transport action envelope.
func (s *ScatGame) HandleAction(playerID string, act Action) error {
	switch act.Type {
	case "draw_card":
		fromDiscard, err := payloadBool(act.Payload, "from_discard")
		if err != nil {
			return err
		}
		return s.DrawCard(playerID, fromDiscard)
	case "discard_card":
		idx, err := payloadInt(act.Payload, "card_index")
		if err != nil {
			return err
		}
		return s.DiscardCard(playerID, idx)
	case "knock":
		return s.Knock(playerID)
	default:
		return fmt.Errorf("scat action %q: %w", act.Type, ErrUnknownAction)
	}
}

// ScatView adds the discard top, lives, and knock state to the base
// projection.
type ScatView struct {
	GameView
	DiscardTop    *ViewCard      `json:"discard_pile_top,omitempty"`
	FinalRound    bool           `json:"final_round"`
	KnockedPlayer string         `json:"knocked_player,omitempty"`
	Lives         map[string]int `json:"lives"`
}

func (s *ScatGame) View(viewerID string) any {
	var top *ViewCard
	if len(s.DiscardPile) > 0 {
		c := openCard(s.DiscardPile[len(s.DiscardPile)-1])
		top = &c
	}
	return ScatView{
		GameView:      s.baseView(KindScat, viewerID),
		DiscardTop:    top,
		FinalRound:    s.FinalRound,
		KnockedPlayer: s.KnockedBy,
		Lives:         maps.Clone(s.Lives),
	}
}

type scatState struct {
	DiscardPile []models.Card  `json:"discard_pile"`
	Lives       map[string]int `json:"lives"`
	KnockedBy   string         `json:"knocked_player,omitempty"`
	FinalRound  bool           `json:"final_round"`
}

func (s *ScatGame) Snapshot() ([]byte, error) {
	return s.exportSnapshot(KindScat, scatState{
		DiscardPile: s.DiscardPile,
		Lives:       s.Lives,
		KnockedBy:   s.KnockedBy,
		FinalRound:  s.FinalRound,
	})
}

func (s *ScatGame) restoreExtra(doc *snapshotDoc) error {
	s.Lives = make(map[string]int, len(s.Players))
	for _, p := range s.Players {
		s.Lives[p.ID] = s.Rules.ScatLives
	}
	if len(doc.Variant) == 0 {
		return nil
	}
	var st scatState
	if err := json.Unmarshal(doc.Variant, &st); err != nil {
		return fmt.Errorf("decode scat state: %w", err)
	}
	if !cardsValid(st.DiscardPile) {
		return fmt.Errorf("scat discard pile malformed")
	}
	s.DiscardPile = st.DiscardPile
	for pid, lives := range st.Lives {
		if lives >= 0 {
			s.Lives[pid] = lives
		}
	}
	s.KnockedBy = st.KnockedBy
	s.FinalRound = st.FinalRound
	return nil
}
