package engine

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/parlorhq/parlor/internal/models"
)

// bluffPlay is one face-down play on the center pile together with the
// rank it claimed.
type bluffPlay struct {
	Cards   []models.Card `json:"cards"`
	Claimed models.Rank   `json:"claimed_rank"`
}

// BluffGame is the bluffing/challenge variant: plays are face down
// under a claimed rank that advances Ace through King and wraps, and
// any player may challenge the most recent play.
type BluffGame struct {
	Game

	CenterPile []bluffPlay

	// CurrentRank is the rank the next play must claim; empty means
	// unconstrained (start of game or just after a challenge).
	CurrentRank  models.Rank
	CardsPerPlay int
}

// NewBluffGame builds an empty bluff engine for a room.
func NewBluffGame(roomCode string, rules Rules) *BluffGame {
	return &BluffGame{
		Game:         newGame(roomCode, KindBluff, rules),
		CardsPerPlay: rules.BluffCardsPerPlay,
	}
}

func (b *BluffGame) Kind() Kind  { return KindBluff }
func (b *BluffGame) Base() *Game { return &b.Game }

func (b *BluffGame) handSize() int {
	if len(b.Players) == 0 {
		return 0
	}
	return models.DeckSize / len(b.Players)
}

// Start divides the full deck equally; a remainder stays in the deck.
func (b *BluffGame) Start() error {
	return b.begin(2, models.DeckSize, func() error {
		return b.Deck.Deal(b.Players, b.handSize())
	})
}

// PlayCards plays the selected hand indices face down, claiming they
// are all of the given rank. The claim must match the required rank
// once the sequence is constrained.
func (b *BluffGame) PlayCards(playerID string, indices []int, claimed models.Rank) error {
	if err := b.requireState(StatePlaying); err != nil {
		return err
	}
	p, err := b.requireTurn(playerID)
	if err != nil {
		return err
	}
	if len(indices) != b.CardsPerPlay {
		return fmt.Errorf("must play exactly %d cards: %w", b.CardsPerPlay, ErrInvalidMove)
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
	if !claimed.Valid() {
		return fmt.Errorf("claimed rank %q: %w", claimed, ErrInvalidMove)
	}
	if b.CurrentRank != "" && claimed != b.CurrentRank {
		return fmt.Errorf("must play %s: %w", b.CurrentRank, ErrInvalidMove)
	}

	sorted := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	cards := make([]models.Card, 0, len(sorted))
	for _, idx := range sorted {
		cards = append(cards, p.RemoveAt(idx))
	}
	b.CenterPile = append(b.CenterPile, bluffPlay{Cards: cards, Claimed: claimed})
	b.record("cards_played", playerID, map[string]any{
		"cards_count":  len(cards),
		"claimed_rank": claimed,
	})
	b.NextTurn()
	b.CurrentRank = models.Ranks[(claimed.Index()+1)%len(models.Ranks)]

	if len(p.Hand) == 0 {
		b.State = StateGameEnd
		p.Score++
		b.record("game_end", playerID, map[string]any{"winner": playerID})
		b.logger.WithField("winner", playerID).Info("bluff game finished")
	}
	return nil
}

// Challenge contests the most recent play. The revealed cards decide
// who takes the whole pile: a lying player takes it and the challenger
// scores, a truthful one hands it to the challenger and scores.
func (b *BluffGame) Challenge(challengerID string) error {
	if err := b.requireState(StatePlaying); err != nil {
		return err
	}
	if len(b.CenterPile) == 0 {
		return fmt.Errorf("nothing to challenge: %w", ErrInvalidMove)
	}
	challenger, err := b.player(challengerID)
	if err != nil {
		return err
	}

	n := len(b.Players)
	lastIdx := ((b.CurrentPlayerIdx-b.Direction)%n + n) % n
	accused := b.Players[lastIdx]

	last := b.CenterPile[len(b.CenterPile)-1]
	wasBluffing := false
	for _, c := range last.Cards {
		if c.Rank != last.Claimed {
			wasBluffing = true
			break
		}
	}

	var all []models.Card
	for _, play := range b.CenterPile {
		all = append(all, play.Cards...)
	}
	b.CenterPile = nil

	action := "challenge_failed"
	if wasBluffing {
		accused.Hand = append(accused.Hand, all...)
		sortHand(accused.Hand)
		challenger.Score++
		action = "challenge_success"
	} else {
		challenger.Hand = append(challenger.Hand, all...)
		sortHand(challenger.Hand)
		accused.Score++
	}
	b.record(action, challengerID, map[string]any{
		"challenged_player": accused.ID,
		"cards_count":       len(all),
		"revealed":          last.Cards,
	})

	// The sequence restarts unconstrained after any challenge.
	b.CurrentRank = ""
	b.CardsPerPlay = b.Rules.BluffCardsPerPlay

	for _, p := range []*models.Player{accused, challenger} {
		if len(p.Hand) == 0 {
			b.State = StateGameEnd
			p.Score++
			b.record("game_end", p.ID, map[string]any{"winner": p.ID})
			b.logger.WithField("winner", p.ID).Info("bluff game finished")
			break
		}
	}
	return nil
}

// sortHand orders a hand by rank then suit for readability after a
// pile pickup.
func sortHand(hand []models.Card) {
	sort.Slice(hand, func(i, j int) bool {
		if hand[i].Rank.Index() != hand[j].Rank.Index() {
			return hand[i].Rank.Index() < hand[j].Rank.Index()
		}
		return hand[i].Suit < hand[j].Suit
	})
}

// HandleAction dispatches a transport action envelope.
func (b *BluffGame) HandleAction(playerID string, act Action) error {
	switch act.Type {
	case "play_cards":
		indices, err := payloadInts(act.Payload, "card_indices")
		if err != nil {
			return err
		}
		claimed, err := payloadRank(act.Payload, "claimed_rank")
		if err != nil {
			return err
		}
		return b.PlayCards(playerID, indices, claimed)
	case "challenge":
		return b.Challenge(playerID)
	default:
		return fmt.Errorf("bluff action %q: %w", act.Type, ErrUnknownAction)
	}
}

// BluffLastPlayed summarizes the play currently open to challenge.
type BluffLastPlayed struct {
	CardsCount  int         `json:"cards_count"`
	ClaimedRank models.Rank `json:"claimed_rank"`
}

// BluffView adds pile and claim information to the base projection.
// Face-down pile cards are exposed only as counts.
type BluffView struct {
	GameView
	CenterPileCount int              `json:"center_pile_count"`
	LastPlayed      *BluffLastPlayed `json:"last_played,omitempty"`
	NextRank        models.Rank      `json:"next_rank,omitempty"`
	CardsPerPlay    int              `json:"cards_per_play"`
}

func (b *BluffGame) View(viewerID string) any {
	total := 0
	for _, play := range b.CenterPile {
		total += len(play.Cards)
	}
	var lastPlayed *BluffLastPlayed
	if len(b.CenterPile) > 0 {
		last := b.CenterPile[len(b.CenterPile)-1]
		lastPlayed = &BluffLastPlayed{CardsCount: len(last.Cards), ClaimedRank: last.Claimed}
	}
	return BluffView{
		GameView:        b.baseView(KindBluff, viewerID),
		CenterPileCount: total,
		LastPlayed:      lastPlayed,
		NextRank:        b.CurrentRank,
		CardsPerPlay:    b.CardsPerPlay,
	}
}

type bluffState struct {
	CenterPile   []bluffPlay `json:"center_pile"`
	CurrentRank  models.Rank `json:"current_rank,omitempty"`
	CardsPerPlay int         `json:"cards_per_play"`
}

func (b *BluffGame) Snapshot() ([]byte, error) {
	return b.exportSnapshot(KindBluff, bluffState{
		CenterPile:   b.CenterPile,
		CurrentRank:  b.CurrentRank,
		CardsPerPlay: b.CardsPerPlay,
	})
}

func (b *BluffGame) restoreExtra(doc *snapshotDoc) error {
	b.CardsPerPlay = b.Rules.BluffCardsPerPlay
	if len(doc.Variant) == 0 {
		return nil
	}
	var st bluffState
	if err := json.Unmarshal(doc.Variant, &st); err != nil {
		return fmt.Errorf("decode bluff state: %w", err)
	}
	for _, play := range st.CenterPile {
		if !cardsValid(play.Cards) {
			return fmt.Errorf("bluff pile malformed")
		}
	}
	b.CenterPile = st.CenterPile
	if st.CurrentRank == "" || st.CurrentRank.Valid() {
		b.CurrentRank = st.CurrentRank
	}
	if st.CardsPerPlay > 0 {
		b.CardsPerPlay = st.CardsPerPlay
	}
	return nil
}
