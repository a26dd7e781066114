package engine

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/parlorhq/parlor/internal/models"
)

const (
	spadesPlayers  = 4
	spadesHandSize = 13
	spadesMaxBags  = 10
	spadesBagFine  = 100
)

// trickPlay is one card committed to the current trick.
type trickPlay struct {
	PlayerID string      `json:"player_id"`
	Card     models.Card `json:"card"`
}

// SpadesGame is the trick-taking variant: four players bid tricks,
// spades always trump, and bags punish chronic overtricking.
type SpadesGame struct {
	Game

	CurrentTrick []trickPlay
	TricksWon    map[string]int
	Bids         map[string]int // -1 means not yet bid
	Scores       map[string]int
	Bags         map[string]int
	SpadesBroken bool
}

// NewSpadesGame builds an empty spades engine for a room.
func NewSpadesGame(roomCode string, rules Rules) *SpadesGame {
	return &SpadesGame{
		Game:      newGame(roomCode, KindSpades, rules),
		TricksWon: make(map[string]int),
		Bids:      make(map[string]int),
		Scores:    make(map[string]int),
		Bags:      make(map[string]int),
	}
}

func (s *SpadesGame) Kind() Kind  { return KindSpades }
func (s *SpadesGame) Base() *Game { return &s.Game }

func (s *SpadesGame) handSize() int { return spadesHandSize }

// Start deals the whole deck to exactly four players and opens the
// bidding phase. The first leader bids first.
func (s *SpadesGame) Start() error {
	if len(s.Players) > spadesPlayers {
		return fmt.Errorf("have %d, need exactly %d: %w", len(s.Players), spadesPlayers, ErrTooManyPlayers)
	}
	err := s.begin(spadesPlayers, models.DeckSize, func() error {
		if err := s.Deck.Deal(s.Players, spadesHandSize); err != nil {
			return err
		}
		for _, p := range s.Players {
			sortHand(p.Hand)
		}
		s.resetHandState()
		return nil
	})
	if err != nil {
		return err
	}
	s.State = StateStarting
	return nil
}

// resetHandState clears per-hand tracking before bidding.
func (s *SpadesGame) resetHandState() {
	s.CurrentTrick = nil
	s.SpadesBroken = false
	s.TricksWon = make(map[string]int, len(s.Players))
	s.Bids = make(map[string]int, len(s.Players))
	for _, p := range s.Players {
		s.TricksWon[p.ID] = 0
		s.Bids[p.ID] = -1
	}
}

// MakeBid records a player's trick bid during the bidding phase. Play
// begins once all four seats have bid.
func (s *SpadesGame) MakeBid(playerID string, bid int) error {
	if err := s.requireState(StateStarting); err != nil {
		return err
	}
	p, err := s.requireTurn(playerID)
	if err != nil {
		return err
	}
	if bid < 0 || bid > spadesHandSize {
		return fmt.Errorf("bid %d out of range: %w", bid, ErrInvalidMove)
	}
	if s.Bids[p.ID] >= 0 {
		return fmt.Errorf("player %s already bid: %w", playerID, ErrInvalidMove)
	}

	s.Bids[p.ID] = bid
	s.record("bid_made", playerID, map[string]any{"bid": bid})
	s.NextTurn()

	for _, other := range s.Players {
		if s.Bids[other.ID] < 0 {
			return nil
		}
	}
	s.State = StatePlaying
	s.logger.Info("bidding complete, hand begins")
	return nil
}

// spadesRankValue orders ranks Ace high for trick comparison.
func spadesRankValue(r models.Rank) int {
	if r == models.Ace {
		return len(models.Ranks)
	}
	return r.Index()
}

// PlayCard commits one card to the current trick. The led suit must be
// followed when held, and spades cannot lead until broken unless the
// hand holds nothing else.
func (s *SpadesGame) PlayCard(playerID string, cardIdx int) error {
	if err := s.requireState(StatePlaying); err != nil {
		return err
	}
	p, err := s.requireTurn(playerID)
	if err != nil {
		return err
	}
	if err := requireIndex(p, cardIdx); err != nil {
		return err
	}

	card := p.Hand[cardIdx]
	if len(s.CurrentTrick) == 0 {
		if card.Suit == models.Spades && !s.SpadesBroken && !allSpades(p.Hand) {
			return fmt.Errorf("spades not yet broken: %w", ErrInvalidMove)
		}
	} else {
		led := s.CurrentTrick[0].Card.Suit
		if card.Suit != led && hasSuit(p.Hand, led) {
			return fmt.Errorf("must follow %s: %w", led, ErrInvalidMove)
		}
	}

	p.RemoveAt(cardIdx)
	s.CurrentTrick = append(s.CurrentTrick, trickPlay{PlayerID: p.ID, Card: card})
	if card.Suit == models.Spades {
		s.SpadesBroken = true
	}
	s.record("card_played", playerID, map[string]any{
		"rank": card.Rank,
		"suit": card.Suit,
	})

	if len(s.CurrentTrick) < spadesPlayers {
		s.NextTurn()
		return nil
	}

	winnerID := s.trickWinner()
	s.TricksWon[winnerID]++
	s.CurrentTrick = nil
	s.CurrentPlayerIdx = s.playerIndex(winnerID)
	s.record("trick_won", winnerID, map[string]any{
		"tricks": s.TricksWon[winnerID],
	})

	for _, other := range s.Players {
		if len(other.Hand) > 0 {
			return nil
		}
	}
	s.scoreHand()
	return nil
}

// trickWinner resolves the completed trick: the highest spade wins,
// otherwise the highest card of the led suit.
func (s *SpadesGame) trickWinner() string {
	best := s.CurrentTrick[0]
	for _, play := range s.CurrentTrick[1:] {
		c, b := play.Card, best.Card
		switch {
		case c.Suit == models.Spades && b.Suit != models.Spades:
			best = play
		case c.Suit == b.Suit && spadesRankValue(c.Rank) > spadesRankValue(b.Rank):
			best = play
		}
	}
	return best.PlayerID
}

// scoreHand settles the finished hand: made bids earn ten points per
// bid plus one per overtrick, failed bids lose ten per bid, and every
// tenth accumulated bag costs a hundred points.
func (s *SpadesGame) scoreHand() {
	s.State = StateRoundEnd
	for _, p := range s.Players {
		bid, tricks := s.Bids[p.ID], s.TricksWon[p.ID]
		if tricks >= bid {
			over := tricks - bid
			s.Scores[p.ID] += 10*bid + over
			s.Bags[p.ID] += over
			if s.Bags[p.ID] >= spadesMaxBags {
				s.Scores[p.ID] -= spadesBagFine
				s.Bags[p.ID] -= spadesMaxBags
			}
		} else {
			s.Scores[p.ID] -= 10 * bid
		}
		p.Score = s.Scores[p.ID]
	}
	s.record("hand_scored", "", map[string]any{"scores": s.Scores})

	var winner *models.Player
	for _, p := range s.Players {
		if s.Scores[p.ID] >= s.Rules.SpadesTargetScore {
			if winner == nil || s.Scores[p.ID] > s.Scores[winner.ID] {
				winner = p
			}
		}
	}
	if winner != nil {
		s.State = StateGameEnd
		s.record("game_end", winner.ID, map[string]any{"winner": winner.ID})
		s.logger.WithField("winner", winner.ID).Info("spades game finished")
		return
	}

	s.Deck.Reset()
	for _, p := range s.Players {
		p.Hand = nil
	}
	if err := s.Deck.Deal(s.Players, spadesHandSize); err != nil {
		// A reset deck always covers 4x13; log and leave the round ended.
		s.logger.WithError(err).Error("re-deal failed")
		return
	}
	for _, p := range s.Players {
		sortHand(p.Hand)
	}
	s.resetHandState()
	s.CurrentPlayerIdx = 0
	s.State = StateStarting
}

func allSpades(hand []models.Card) bool {
	for _, c := range hand {
		if c.Suit != models.Spades {
			return false
		}
	}
	return true
}

func hasSuit(hand []models.Card, suit models.Suit) bool {
	for _, c := range hand {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

// HandleAction dispatches a transport action envelope.
func (s *SpadesGame) HandleAction(playerID string, act Action) error {
	switch act.Type {
	case "make_bid":
		bid, err := payloadInt(act.Payload, "bid")
		if err != nil {
			return err
		}
		return s.MakeBid(playerID, bid)
	case "play_card":
		idx, err := payloadInt(act.Payload, "card_index")
		if err != nil {
			return err
		}
		return s.PlayCard(playerID, idx)
	default:
		return fmt.Errorf("spades action %q: %w", act.Type, ErrUnknownAction)
	}
}

// SpadesView adds bidding and trick state to the base projection. The
// current trick and all committed bids are public.
type SpadesView struct {
	GameView
	CurrentTrick []TrickCardView `json:"current_trick"`
	TricksWon    map[string]int  `json:"tricks_won"`
	Bids         map[string]int  `json:"bids"`
	Scores       map[string]int  `json:"scores"`
	Bags         map[string]int  `json:"bags"`
	SpadesBroken bool            `json:"spades_broken"`
}

// TrickCardView is one face-up trick card tagged with its player.
type TrickCardView struct {
	PlayerID string   `json:"player_id"`
	Card     ViewCard `json:"card"`
}

func (s *SpadesGame) View(viewerID string) any {
	trick := make([]TrickCardView, len(s.CurrentTrick))
	for i, play := range s.CurrentTrick {
		trick[i] = TrickCardView{PlayerID: play.PlayerID, Card: openCard(play.Card)}
	}
	return SpadesView{
		GameView:     s.baseView(KindSpades, viewerID),
		CurrentTrick: trick,
		TricksWon:    maps.Clone(s.TricksWon),
		Bids:         maps.Clone(s.Bids),
		Scores:       maps.Clone(s.Scores),
		Bags:         maps.Clone(s.Bags),
		SpadesBroken: s.SpadesBroken,
	}
}

type spadesState struct {
	CurrentTrick []trickPlay    `json:"current_trick"`
	TricksWon    map[string]int `json:"tricks_won"`
	Bids         map[string]int `json:"bids"`
	Scores       map[string]int `json:"scores"`
	Bags         map[string]int `json:"bags"`
	SpadesBroken bool           `json:"spades_broken"`
}

func (s *SpadesGame) Snapshot() ([]byte, error) {
	return s.exportSnapshot(KindSpades, spadesState{
		CurrentTrick: s.CurrentTrick,
		TricksWon:    s.TricksWon,
		Bids:         s.Bids,
		Scores:       s.Scores,
		Bags:         s.Bags,
		SpadesBroken: s.SpadesBroken,
	})
}

func (s *SpadesGame) restoreExtra(doc *snapshotDoc) error {
	s.resetHandState()
	s.Scores = make(map[string]int, len(s.Players))
	s.Bags = make(map[string]int, len(s.Players))
	if len(doc.Variant) == 0 {
		return nil
	}
	var st spadesState
	if err := json.Unmarshal(doc.Variant, &st); err != nil {
		return fmt.Errorf("decode spades state: %w", err)
	}
	if len(st.CurrentTrick) > spadesPlayers {
		return fmt.Errorf("trick has %d plays", len(st.CurrentTrick))
	}
	for _, play := range st.CurrentTrick {
		if !cardsValid([]models.Card{play.Card}) {
			return fmt.Errorf("trick card malformed")
		}
	}
	s.CurrentTrick = st.CurrentTrick
	s.SpadesBroken = st.SpadesBroken
	for pid, v := range st.TricksWon {
		s.TricksWon[pid] = v
	}
	for pid, v := range st.Bids {
		s.Bids[pid] = v
	}
	for pid, v := range st.Scores {
		s.Scores[pid] = v
	}
	for pid, v := range st.Bags {
		s.Bags[pid] = v
	}
	return nil
}
