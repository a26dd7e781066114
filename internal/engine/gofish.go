package engine

import (
	"encoding/json"
	"fmt"

	"github.com/parlorhq/parlor/internal/models"
)

// GoFishGame is the set-collection variant: players ask each other for
// ranks and bank completed four-of-a-kind sets.
type GoFishGame struct {
	Game

	// Sets maps player ID to the four-card sets they have completed.
	Sets map[string][][]models.Card
}

// NewGoFishGame builds an empty go-fish engine for a room.
func NewGoFishGame(roomCode string, rules Rules) *GoFishGame {
	return &GoFishGame{
		Game: newGame(roomCode, KindGoFish, rules),
		Sets: make(map[string][][]models.Card),
	}
}

func (g *GoFishGame) Kind() Kind  { return KindGoFish }
func (g *GoFishGame) Base() *Game { return &g.Game }

// handSize is 7 for small tables, 5 once four or more are seated.
func (g *GoFishGame) handSize() int {
	if len(g.Players) <= 3 {
		return 7
	}
	return 5
}

// Start deals the initial hands, keeping one card per player spare in
// the deck for fishing.
func (g *GoFishGame) Start() error {
	minCards := len(g.Players)*g.handSize() + len(g.Players)
	return g.begin(2, minCards, func() error {
		if err := g.Deck.Deal(g.Players, g.handSize()); err != nil {
			return err
		}
		g.Sets = make(map[string][][]models.Card, len(g.Players))
		for _, p := range g.Players {
			g.Sets[p.ID] = nil
		}
		return nil
	})
}

// AskForCards asks another player for every card of a rank. Holding
// cards of that rank and receiving a match keeps the turn; fishing a
// matching card from the deck keeps it too.
func (g *GoFishGame) AskForCards(askerID, targetID string, rank models.Rank) error {
	if err := g.requireState(StatePlaying); err != nil {
		return err
	}
	asker, err := g.requireTurn(askerID)
	if err != nil {
		return err
	}
	target, err := g.player(targetID)
	if err != nil {
		return err
	}
	if asker.ID == target.ID {
		return fmt.Errorf("cannot ask yourself: %w", ErrInvalidMove)
	}
	if !rank.Valid() {
		return fmt.Errorf("rank %q: %w", rank, ErrInvalidMove)
	}

	switch {
	case !asker.HasRank(rank):
		// Asking without holding the rank sends you fishing directly.
		g.goFish(asker, rank)
	case target.HasRank(rank):
		moved := 0
		kept := target.Hand[:0]
		for _, c := range target.Hand {
			if c.Rank == rank {
				asker.Hand = append(asker.Hand, c)
				moved++
			} else {
				kept = append(kept, c)
			}
		}
		target.Hand = kept
		newSets := g.bankSets(asker)
		g.record("cards_received", askerID, map[string]any{
			"target":   targetID,
			"rank":     rank,
			"count":    moved,
			"new_sets": newSets,
		})
	default:
		g.goFish(asker, rank)
	}

	g.checkGameEnd()
	return nil
}

// goFish draws one card from the deck for the asker. A drawn card of
// the requested rank keeps the turn; anything else passes it on.
func (g *GoFishGame) goFish(asker *models.Player, rank models.Rank) {
	card, ok := g.Deck.Draw()
	if !ok {
		g.record("no_cards", asker.ID, map[string]any{"rank": rank})
		g.NextTurn()
		return
	}
	asker.Hand = append(asker.Hand, card)
	g.bankSets(asker)
	if card.Rank == rank {
		g.record("successful_fish", asker.ID, map[string]any{"rank": rank})
		return
	}
	g.record("go_fish", asker.ID, map[string]any{"rank": rank})
	g.NextTurn()
}

// bankSets removes every four-of-a-kind from the player's hand, banks
// it, and scores a point per set. Returns how many sets completed.
func (g *GoFishGame) bankSets(p *models.Player) int {
	byRank := make(map[models.Rank][]models.Card)
	for _, c := range p.Hand {
		byRank[c.Rank] = append(byRank[c.Rank], c)
	}
	banked := 0
	for rank, cards := range byRank {
		if len(cards) != 4 {
			continue
		}
		kept := p.Hand[:0]
		for _, c := range p.Hand {
			if c.Rank != rank {
				kept = append(kept, c)
			}
		}
		p.Hand = kept
		g.Sets[p.ID] = append(g.Sets[p.ID], cards)
		p.Score++
		banked++
	}
	return banked
}

// checkGameEnd ends the game once every card is banked in a set.
func (g *GoFishGame) checkGameEnd() {
	if g.State != StatePlaying {
		return
	}
	total := g.Deck.Remaining()
	for _, p := range g.Players {
		total += len(p.Hand)
	}
	if total == 0 {
		g.State = StateGameEnd
		g.logger.Info("go fish game finished")
	}
}

// HandleAction dispatches a transport action envelope.
func (g *GoFishGame) HandleAction(playerID string, act Action) error {
	switch act.Type {
	case "ask_for_cards":
		target, err := payloadString(act.Payload, "target")
		if err != nil {
			return err
		}
		rank, err := payloadRank(act.Payload, "rank")
		if err != nil {
			return err
		}
		return g.AskForCards(playerID, target, rank)
	default:
		return fmt.Errorf("go fish action %q: %w", act.Type, ErrUnknownAction)
	}
}

// GoFishView adds the public banked sets to the base projection.
type GoFishView struct {
	GameView
	Sets      map[string][][]ViewCard `json:"sets"`
	SetCounts map[string]int          `json:"set_counts"`
}

func (g *GoFishGame) View(viewerID string) any {
	sets := make(map[string][][]ViewCard, len(g.Sets))
	counts := make(map[string]int, len(g.Sets))
	for pid, playerSets := range g.Sets {
		projected := make([][]ViewCard, len(playerSets))
		for i, set := range playerSets {
			projected[i] = openCards(set)
		}
		sets[pid] = projected
		counts[pid] = len(playerSets)
	}
	return GoFishView{
		GameView:  g.baseView(KindGoFish, viewerID),
		Sets:      sets,
		SetCounts: counts,
	}
}

type goFishState struct {
	Sets map[string][][]models.Card `json:"sets"`
}

func (g *GoFishGame) Snapshot() ([]byte, error) {
	return g.exportSnapshot(KindGoFish, goFishState{Sets: g.Sets})
}

func (g *GoFishGame) restoreExtra(doc *snapshotDoc) error {
	g.Sets = make(map[string][][]models.Card, len(g.Players))
	for _, p := range g.Players {
		g.Sets[p.ID] = nil
	}
	if len(doc.Variant) == 0 {
		return nil
	}
	var st goFishState
	if err := json.Unmarshal(doc.Variant, &st); err != nil {
		return fmt.Errorf("decode go fish state: %w", err)
	}
	for pid, sets := range st.Sets {
		for _, set := range sets {
			if !cardsValid(set) {
				return fmt.Errorf("go fish set malformed for %s", pid)
			}
		}
		g.Sets[pid] = sets
	}
	return nil
}
