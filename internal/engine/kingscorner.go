package engine

import (
	"encoding/json"
	"fmt"

	"github.com/parlorhq/parlor/internal/models"
)

const kingsCornerHandSize = 7

// PileKind distinguishes the two families of table piles.
type PileKind string

const (
	PileFoundation PileKind = "foundation"
	PileCorner     PileKind = "corner"
)

// PileRef addresses one of the eight table piles.
type PileRef struct {
	Kind  PileKind `json:"kind"`
	Index int      `json:"index"`
}

// KingsCornerGame is the solitaire-style layout variant: four
// foundation piles built down in alternating colors, four corner piles
// opened only by Kings.
type KingsCornerGame struct {
	Game

	Foundations [4][]models.Card
	Corners     [4][]models.Card
}

// NewKingsCornerGame builds an empty kings corner engine for a room.
func NewKingsCornerGame(roomCode string, rules Rules) *KingsCornerGame {
	return &KingsCornerGame{Game: newGame(roomCode, KindKingsCorner, rules)}
}

func (k *KingsCornerGame) Kind() Kind  { return KindKingsCorner }
func (k *KingsCornerGame) Base() *Game { return &k.Game }

func (k *KingsCornerGame) handSize() int { return kingsCornerHandSize }

// Start deals seven cards each, then seeds the four foundations with
// non-King cards. A King drawn during seeding goes back into the deck
// before the next attempt.
func (k *KingsCornerGame) Start() error {
	minCards := len(k.Players)*kingsCornerHandSize + 4
	return k.begin(2, minCards, func() error {
		if err := k.Deck.Deal(k.Players, kingsCornerHandSize); err != nil {
			return err
		}
		k.Foundations = [4][]models.Card{}
		k.Corners = [4][]models.Card{}
		for i := 0; i < 4; i++ {
			for {
				card, ok := k.Deck.Draw()
				if !ok {
					return fmt.Errorf("no card for foundation %d: %w", i, models.ErrInsufficientCards)
				}
				if card.Rank == models.King {
					k.Deck.Cards = append(k.Deck.Cards, card)
					k.Deck.Shuffle()
					continue
				}
				k.Foundations[i] = []models.Card{card}
				break
			}
		}
		return nil
	})
}

// pile returns the addressed pile, or an error for a bad reference.
func (k *KingsCornerGame) pile(ref PileRef) (*[]models.Card, error) {
	if ref.Index < 0 || ref.Index > 3 {
		return nil, fmt.Errorf("pile index %d: %w", ref.Index, ErrInvalidMove)
	}
	switch ref.Kind {
	case PileFoundation:
		return &k.Foundations[ref.Index], nil
	case PileCorner:
		return &k.Corners[ref.Index], nil
	default:
		return nil, fmt.Errorf("pile kind %q: %w", ref.Kind, ErrInvalidMove)
	}
}

// canPlace reports whether card may land on the addressed pile. Empty
// corners take only Kings, empty foundations take anything, and a
// stacked pile takes only the next rank down in the opposite color.
func (k *KingsCornerGame) canPlace(card models.Card, ref PileRef, pile []models.Card) bool {
	if len(pile) == 0 {
		if ref.Kind == PileCorner {
			return card.Rank == models.King
		}
		return true
	}
	top := pile[len(pile)-1]
	return card.Rank.Index() == top.Rank.Index()-1 && card.IsBlack() != top.IsBlack()
}

// PlayCard places one hand card onto a table pile. Placing does not
// advance the turn.
func (k *KingsCornerGame) PlayCard(playerID string, cardIdx int, ref PileRef) error {
	if err := k.requireState(StatePlaying); err != nil {
		return err
	}
	p, err := k.requireTurn(playerID)
	if err != nil {
		return err
	}
	if err := requireIndex(p, cardIdx); err != nil {
		return err
	}
	pile, err := k.pile(ref)
	if err != nil {
		return err
	}
	card := p.Hand[cardIdx]
	if !k.canPlace(card, ref, *pile) {
		return fmt.Errorf("cannot place %s on %s %d: %w", card, ref.Kind, ref.Index, ErrInvalidMove)
	}

	p.RemoveAt(cardIdx)
	*pile = append(*pile, card)
	k.record("card_played", playerID, map[string]any{
		"rank":       card.Rank,
		"suit":       card.Suit,
		"pile_kind":  ref.Kind,
		"pile_index": ref.Index,
	})
	k.checkWin(p)
	return nil
}

// MovePile moves an entire pile onto another when the moved pile's
// bottom card stacks legally on the target. Moving does not advance
// the turn.
func (k *KingsCornerGame) MovePile(playerID string, src, dst PileRef) error {
	if err := k.requireState(StatePlaying); err != nil {
		return err
	}
	if _, err := k.requireTurn(playerID); err != nil {
		return err
	}
	if src == dst {
		return fmt.Errorf("source and target are the same pile: %w", ErrInvalidMove)
	}
	srcPile, err := k.pile(src)
	if err != nil {
		return err
	}
	dstPile, err := k.pile(dst)
	if err != nil {
		return err
	}
	if len(*srcPile) == 0 {
		return fmt.Errorf("source pile is empty: %w", ErrInvalidMove)
	}
	if !k.canPlace((*srcPile)[0], dst, *dstPile) {
		return fmt.Errorf("pile bottom %s does not stack on %s %d: %w",
			(*srcPile)[0], dst.Kind, dst.Index, ErrInvalidMove)
	}

	*dstPile = append(*dstPile, *srcPile...)
	*srcPile = nil
	k.record("pile_moved", playerID, map[string]any{
		"source_kind":  src.Kind,
		"source_index": src.Index,
		"target_kind":  dst.Kind,
		"target_index": dst.Index,
	})
	return nil
}

// DrawCard draws one card from the deck and ends the turn.
func (k *KingsCornerGame) DrawCard(playerID string) error {
	if err := k.requireState(StatePlaying); err != nil {
		return err
	}
	p, err := k.requireTurn(playerID)
	if err != nil {
		return err
	}
	card, ok := k.Deck.Draw()
	if !ok {
		return fmt.Errorf("deck is exhausted: %w", models.ErrInsufficientCards)
	}
	p.Hand = append(p.Hand, card)
	k.record("card_drawn", playerID, nil)
	k.NextTurn()
	return nil
}

// EndTurn passes the turn without drawing.
func (k *KingsCornerGame) EndTurn(playerID string) error {
	if err := k.requireState(StatePlaying); err != nil {
		return err
	}
	if _, err := k.requireTurn(playerID); err != nil {
		return err
	}
	k.record("turn_ended", playerID, nil)
	k.NextTurn()
	return nil
}

func (k *KingsCornerGame) checkWin(p *models.Player) {
	if k.State != StatePlaying || len(p.Hand) > 0 {
		return
	}
	k.State = StateGameEnd
	p.Score++
	k.record("game_end", p.ID, map[string]any{"winner": p.ID})
	k.logger.WithField("winner", p.ID).Info("kings corner game finished")
}

// HandleAction dispatches a transport action envelope.
func (k *KingsCornerGame) HandleAction(playerID string, act Action) error {
	switch act.Type {
	case "play_card":
		cardIdx, err := payloadInt(act.Payload, "card_index")
		if err != nil {
			return err
		}
		ref, err := payloadPileRef(act.Payload, "pile_kind", "pile_index")
		if err != nil {
			return err
		}
		return k.PlayCard(playerID, cardIdx, ref)
	case "move_pile":
		src, err := payloadPileRef(act.Payload, "source_kind", "source_index")
		if err != nil {
			return err
		}
		dst, err := payloadPileRef(act.Payload, "target_kind", "target_index")
		if err != nil {
			return err
		}
		return k.MovePile(playerID, src, dst)
	case "draw_card":
		return k.DrawCard(playerID)
	case "end_turn":
		return k.EndTurn(playerID)
	default:
		return fmt.Errorf("kings corner action %q: %w", act.Type, ErrUnknownAction)
	}
}

// payloadPileRef decodes a pile reference from two payload keys.
func payloadPileRef(payload map[string]any, kindKey, indexKey string) (PileRef, error) {
	kind, err := payloadString(payload, kindKey)
	if err != nil {
		return PileRef{}, err
	}
	idx, err := payloadInt(payload, indexKey)
	if err != nil {
		return PileRef{}, err
	}
	switch PileKind(kind) {
	case PileFoundation, PileCorner:
		return PileRef{Kind: PileKind(kind), Index: idx}, nil
	default:
		return PileRef{}, fmt.Errorf("pile kind %q: %w", kind, ErrInvalidMove)
	}
}

// KingsCornerView exposes the full table layout. All table piles are
// public.
type KingsCornerView struct {
	GameView
	Foundations [4][]ViewCard `json:"foundations"`
	Corners     [4][]ViewCard `json:"corners"`
}

func (k *KingsCornerGame) View(viewerID string) any {
	view := KingsCornerView{GameView: k.baseView(KindKingsCorner, viewerID)}
	for i := 0; i < 4; i++ {
		view.Foundations[i] = openCards(k.Foundations[i])
		view.Corners[i] = openCards(k.Corners[i])
	}
	return view
}

type kingsCornerState struct {
	Foundations [4][]models.Card `json:"foundations"`
	Corners     [4][]models.Card `json:"corners"`
}

func (k *KingsCornerGame) Snapshot() ([]byte, error) {
	return k.exportSnapshot(KindKingsCorner, kingsCornerState{
		Foundations: k.Foundations,
		Corners:     k.Corners,
	})
}

func (k *KingsCornerGame) restoreExtra(doc *snapshotDoc) error {
	if len(doc.Variant) == 0 {
		return nil
	}
	var st kingsCornerState
	if err := json.Unmarshal(doc.Variant, &st); err != nil {
		return fmt.Errorf("decode kings corner state: %w", err)
	}
	for i := 0; i < 4; i++ {
		if !cardsValid(st.Foundations[i]) || !cardsValid(st.Corners[i]) {
			return fmt.Errorf("kings corner pile %d malformed", i)
		}
	}
	k.Foundations = st.Foundations
	k.Corners = st.Corners
	return nil
}
