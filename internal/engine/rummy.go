package engine

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/parlorhq/parlor/internal/models"
)

// rummyHandSize is the initial deal in rummy.
const rummyHandSize = 7

// RummyGame is the meld-building variant: draw from deck or discard,
// lay down sets and runs, win by emptying the hand.
type RummyGame struct {
	Game

	DiscardPile []models.Card

	// Melds maps player ID to the melds they have laid down.
	Melds map[string][][]models.Card
}

// NewRummyGame builds an empty rummy engine for a room.
func NewRummyGame(roomCode string, rules Rules) *RummyGame {
	return &RummyGame{
		Game:  newGame(roomCode, KindRummy, rules),
		Melds: make(map[string][][]models.Card),
	}
}

func (r *RummyGame) Kind() Kind  { return KindRummy }
func (r *RummyGame) Base() *Game { return &r.Game }

func (r *RummyGame) handSize() int { return rummyHandSize }

// Start deals seven cards each and seeds the discard pile.
func (r *RummyGame) Start() error {
	minCards := len(r.Players)*rummyHandSize + 1
	return r.begin(2, minCards, func() error {
		if err := r.Deck.Deal(r.Players, rummyHandSize); err != nil {
			return err
		}
		seed, ok := r.Deck.Draw()
		if !ok {
			return fmt.Errorf("no card for discard pile: %w", models.ErrInsufficientCards)
		}
		r.DiscardPile = []models.Card{seed}
		r.Melds = make(map[string][][]models.Card, len(r.Players))
		for _, p := range r.Players {
			r.Melds[p.ID] = nil
		}
		return nil
	})
}

// isValidRun reports whether the cards form a same-suit run of
// consecutive ranks, Ace low.
func isValidRun(cards []models.Card) bool {
	if len(cards) < 3 {
		return false
	}
	suit := cards[0].Suit
	for _, c := range cards {
		if c.Suit != suit {
			return false
		}
	}
	sorted := append([]models.Card(nil), cards...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Rank.Index() < sorted[j].Rank.Index()
	})
	for i := 0; i < len(sorted)-1; i++ {
		if sorted[i+1].Rank.Index() != sorted[i].Rank.Index()+1 {
			return false
		}
	}
	return true
}

// isValidSet reports whether the cards share a rank across distinct
// suits.
func isValidSet(cards []models.Card) bool {
	if len(cards) < 3 {
		return false
	}
	rank := cards[0].Rank
	suits := make(map[models.Suit]bool, len(cards))
	for _, c := range cards {
		if c.Rank != rank {
			return false
		}
		suits[c.Suit] = true
	}
	return len(suits) == len(cards)
}

// isValidMeld accepts either meld shape.
func isValidMeld(cards []models.Card) bool {
	return isValidRun(cards) || isValidSet(cards)
}

// DrawCard draws from the deck or the discard top, reshuffling the
// discard pile (minus its top card) when the deck runs dry.
func (r *RummyGame) DrawCard(playerID string, fromDiscard bool) error {
	if err := r.requireState(StatePlaying); err != nil {
		return err
	}
	p, err := r.requireTurn(playerID)
	if err != nil {
		return err
	}

	var card models.Card
	if fromDiscard {
		if len(r.DiscardPile) == 0 {
			return fmt.Errorf("discard pile is empty: %w", ErrInvalidMove)
		}
		card = r.DiscardPile[len(r.DiscardPile)-1]
		r.DiscardPile = r.DiscardPile[:len(r.DiscardPile)-1]
	} else {
		var ok bool
		card, ok = r.Deck.Draw()
		if !ok {
			if len(r.DiscardPile) <= 1 {
				return fmt.Errorf("no cards left to draw: %w", models.ErrInsufficientCards)
			}
			top := r.DiscardPile[len(r.DiscardPile)-1]
			r.Deck.Cards = append(r.Deck.Cards, r.DiscardPile[:len(r.DiscardPile)-1]...)
			r.Deck.Shuffle()
			r.DiscardPile = []models.Card{top}
			r.logger.WithField("cards", r.Deck.Remaining()).Info("reshuffled discard pile into deck")
			card, _ = r.Deck.Draw()
		}
	}

	p.Hand = append(p.Hand, card)
	r.record("card_drawn", playerID, map[string]any{"from_discard": fromDiscard})
	return nil
}

// DiscardCard discards a card by index and passes the turn.
func (r *RummyGame) DiscardCard(playerID string, cardIdx int) error {
	if err := r.requireState(StatePlaying); err != nil {
		return err
	}
	p, err := r.requireTurn(playerID)
	if err != nil {
		return err
	}
	if err := requireIndex(p, cardIdx); err != nil {
		return err
	}

	card := p.RemoveAt(cardIdx)
	r.DiscardPile = append(r.DiscardPile, card)
	r.record("card_discarded", playerID, map[string]any{
		"rank": card.Rank,
		"suit": card.Suit,
	})
	r.NextTurn()
	r.checkWin(p)
	return nil
}

// LayMeld lays down at least three cards forming a set or run.
func (r *RummyGame) LayMeld(playerID string, indices []int) error {
	if err := r.requireState(StatePlaying); err != nil {
		return err
	}
	p, err := r.requireTurn(playerID)
	if err != nil {
		return err
	}
	if len(indices) < 3 {
		return fmt.Errorf("meld needs at least 3 cards: %w", ErrInvalidMove)
	}
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if err := requireIndex(p, idx); err != nil {
			return err
		}
		if seen[idx] {
			return fmt.Errorf("duplicate card index %d: %w", idx, ErrInvalidCardIndex)
		}
		seen[idx] = true
	}

	sorted := append([]int(nil), indices...)
	sort.Ints(sorted)
	cards := make([]models.Card, 0, len(sorted))
	for _, idx := range sorted {
		cards = append(cards, p.Hand[idx])
	}
	if !isValidMeld(cards) {
		return fmt.Errorf("cards do not form a set or run: %w", ErrInvalidMove)
	}

	for i := len(sorted) - 1; i >= 0; i-- {
		p.RemoveAt(sorted[i])
	}
	r.Melds[p.ID] = append(r.Melds[p.ID], cards)

	meldType := "set"
	if isValidRun(cards) {
		meldType = "run"
	}
	r.record("meld_laid", playerID, map[string]any{
		"cards":     cards,
		"meld_type": meldType,
	})
	r.checkWin(p)
	return nil
}

// AddToMeld extends one of the player's own melds with one card. The
// meld plus the card is re-validated as a unit before committing.
func (r *RummyGame) AddToMeld(playerID string, cardIdx, meldIdx int) error {
	if err := r.requireState(StatePlaying); err != nil {
		return err
	}
	p, err := r.requireTurn(playerID)
	if err != nil {
		return err
	}
	if err := requireIndex(p, cardIdx); err != nil {
		return err
	}
	melds := r.Melds[p.ID]
	if meldIdx < 0 || meldIdx >= len(melds) {
		return fmt.Errorf("meld %d of %d: %w", meldIdx, len(melds), ErrInvalidMove)
	}

	card := p.Hand[cardIdx]
	test := append(append([]models.Card(nil), melds[meldIdx]...), card)
	if !isValidMeld(test) {
		return fmt.Errorf("card does not extend the meld: %w", ErrInvalidMove)
	}

	p.RemoveAt(cardIdx)
	r.Melds[p.ID][meldIdx] = append(r.Melds[p.ID][meldIdx], card)
	r.record("card_added_to_meld", playerID, map[string]any{
		"rank":       card.Rank,
		"suit":       card.Suit,
		"meld_index": meldIdx,
	})
	r.checkWin(p)
	return nil
}

// checkWin ends the game when a hand empties.
func (r *RummyGame) checkWin(p *models.Player) {
	if r.State != StatePlaying || len(p.Hand) > 0 {
		return
	}
	r.State = StateGameEnd
	p.Score++
	r.record("game_end", p.ID, map[string]any{"winner": p.ID})
	r.logger.WithField("winner", p.ID).Info("rummy game finished")
}

// HandleAction dispatches a transport action envelope.
func (r *RummyGame) HandleAction(playerID string, act Action) error {
	switch act.Type {
	case "draw_card":
		fromDiscard, err := payloadBool(act.Payload, "from_discard")
		if err != nil {
			return err
		}
		return r.DrawCard(playerID, fromDiscard)
	case "discard_card":
		idx, err := payloadInt(act.Payload, "card_index")
		if err != nil {
			return err
		}
		return r.DiscardCard(playerID, idx)
	case "lay_meld":
		indices, err := payloadInts(act.Payload, "card_indices")
		if err != nil {
			return err
		}
		return r.LayMeld(playerID, indices)
	case "add_to_meld":
		cardIdx, err := payloadInt(act.Payload, "card_index")
		if err != nil {
			return err
		}
		meldIdx, err := payloadInt(act.Payload, "meld_index")
		if err != nil {
			return err
		}
		return r.AddToMeld(playerID, cardIdx, meldIdx)
	default:
		return fmt.Errorf("rummy action %q: %w", act.Type, ErrUnknownAction)
	}
}

// RummyView adds the discard top and laid melds to the base
// projection. Melds are public.
type RummyView struct {
	GameView
	DiscardTop *ViewCard               `json:"discard_pile_top,omitempty"`
	Melds      map[string][][]ViewCard `json:"melds"`
}

func (r *RummyGame) View(viewerID string) any {
	var top *ViewCard
	if len(r.DiscardPile) > 0 {
		c := openCard(r.DiscardPile[len(r.DiscardPile)-1])
		top = &c
	}
	melds := make(map[string][][]ViewCard, len(r.Melds))
	for pid, playerMelds := range r.Melds {
		projected := make([][]ViewCard, len(playerMelds))
		for i, meld := range playerMelds {
			projected[i] = openCards(meld)
		}
		melds[pid] = projected
	}
	return RummyView{
		GameView:   r.baseView(KindRummy, viewerID),
		DiscardTop: top,
		Melds:      melds,
	}
}

type rummyState struct {
	DiscardPile []models.Card              `json:"discard_pile"`
	Melds       map[string][][]models.Card `json:"melds"`
}

func (r *RummyGame) Snapshot() ([]byte, error) {
	return r.exportSnapshot(KindRummy, rummyState{
		DiscardPile: r.DiscardPile,
		Melds:       r.Melds,
	})
}

func (r *RummyGame) restoreExtra(doc *snapshotDoc) error {
	r.Melds = make(map[string][][]models.Card, len(r.Players))
	for _, p := range r.Players {
		r.Melds[p.ID] = nil
	}
	if len(doc.Variant) == 0 {
		return nil
	}
	var st rummyState
	if err := json.Unmarshal(doc.Variant, &st); err != nil {
		return fmt.Errorf("decode rummy state: %w", err)
	}
	if !cardsValid(st.DiscardPile) {
		return fmt.Errorf("rummy discard pile malformed")
	}
	for pid, melds := range st.Melds {
		for _, meld := range melds {
			if !cardsValid(meld) {
				return fmt.Errorf("rummy meld malformed for %s", pid)
			}
		}
	}
	r.DiscardPile = st.DiscardPile
	for pid, melds := range st.Melds {
		r.Melds[pid] = melds
	}
	return nil
}
