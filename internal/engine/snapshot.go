package engine

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/parlorhq/parlor/internal/models"
)

// Seat is one roster entry supplied by the owning collaborator when it
// reconstructs an engine instance from a snapshot.
type Seat struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"is_host"`
}

// playerSnapshot carries one seat's full state, hidden hand included.
// The hand is kept raw so one corrupt hand degrades to a re-deal
// instead of failing the whole restore.
type playerSnapshot struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Hand    json.RawMessage `json:"hand"`
	Score   int             `json:"score"`
	IsReady bool            `json:"is_ready"`
	IsHost  bool            `json:"is_host"`
}

// snapshotDoc is the flat persistence document: the view schema plus
// every hidden field needed for a faithful restore.
type snapshotDoc struct {
	SnapshotID       uuid.UUID        `json:"snapshot_id"`
	GameID           uuid.UUID        `json:"game_id"`
	GameType         Kind             `json:"game_type"`
	RoomCode         string           `json:"room_code"`
	State            GameState        `json:"state"`
	CurrentPlayerIdx int              `json:"current_player_idx"`
	Direction        int              `json:"direction"`
	Deck             []models.Card    `json:"deck"`
	Players          []playerSnapshot `json:"players"`
	LastAction       *Event           `json:"last_action,omitempty"`
	Variant          json.RawMessage  `json:"variant,omitempty"`
}

// exportDoc builds the base snapshot document for a game.
func (g *Game) exportDoc(kind Kind) (*snapshotDoc, error) {
	doc := &snapshotDoc{
		SnapshotID:       uuid.New(),
		GameID:           g.ID,
		GameType:         kind,
		RoomCode:         g.RoomCode,
		State:            g.State,
		CurrentPlayerIdx: g.CurrentPlayerIdx,
		Direction:        g.Direction,
		Deck:             append([]models.Card(nil), g.Deck.Cards...),
		LastAction:       g.LastAction,
	}
	for _, p := range g.Players {
		hand, err := json.Marshal(p.Hand)
		if err != nil {
			return nil, fmt.Errorf("marshal hand for %s: %w", p.ID, err)
		}
		doc.Players = append(doc.Players, playerSnapshot{
			ID:      p.ID,
			Name:    p.Name,
			Hand:    hand,
			Score:   p.Score,
			IsReady: p.IsReady,
			IsHost:  p.IsHost,
		})
	}
	return doc, nil
}

// exportSnapshot marshals the base document plus variant extras.
func (g *Game) exportSnapshot(kind Kind, extra any) ([]byte, error) {
	doc, err := g.exportDoc(kind)
	if err != nil {
		return nil, err
	}
	if extra != nil {
		raw, err := json.Marshal(extra)
		if err != nil {
			return nil, fmt.Errorf("marshal %s state: %w", kind, err)
		}
		doc.Variant = raw
	}
	return json.Marshal(doc)
}

// SnapshotKind peeks at the game type of a snapshot without restoring
// it, so the owning collaborator can route by variant.
func SnapshotKind(data []byte) (Kind, error) {
	var probe struct {
		GameType Kind `json:"game_type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", fmt.Errorf("decode snapshot: %w", err)
	}
	return probe.GameType, nil
}

// Restore reconstructs a variant engine from a snapshot plus the
// room's player roster. It is idempotent and self-healing: corrupt or
// missing hands are re-dealt to the variant's standard hand size, an
// exhausted deck is rebuilt, and the turn pointer is clamped to roster
// bounds. The snapshot is the only source of truth between requests,
// so restore never strands a room in an unplayable state.
func Restore(data []byte, roster []Seat, rules Rules) (Variant, error) {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	v, err := New(doc.GameType, doc.RoomCode, rules)
	if err != nil {
		return nil, err
	}
	g := v.Base()
	for _, seat := range roster {
		if _, err := g.AddPlayer(seat.ID, seat.Name, seat.IsHost); err != nil {
			return nil, fmt.Errorf("seat %s: %w", seat.ID, err)
		}
	}
	if len(g.Players) == 0 {
		return nil, fmt.Errorf("restore with empty roster: %w", ErrNotEnoughPlayers)
	}

	g.restoreBase(&doc, v)

	if err := v.restoreExtra(&doc); err != nil {
		// Variant state beyond repair: fall back to a clean start so the
		// room stays playable.
		g.logger.WithError(err).Warn("variant restore failed, reinitializing game")
		g.State = StateWaiting
		if err := v.Start(); err != nil {
			return nil, fmt.Errorf("reinitialize after failed restore: %w", err)
		}
	}
	return v, nil
}

// restoreBase rebuilds the shared aggregate from the document, healing
// whatever is missing or malformed.
func (g *Game) restoreBase(doc *snapshotDoc, v Variant) {
	if doc.GameID != uuid.Nil {
		g.ID = doc.GameID
	}
	switch doc.State {
	case StateWaiting, StateStarting, StatePlaying, StateRoundEnd, StateGameEnd:
		g.State = doc.State
	default:
		g.State = StatePlaying
	}
	if doc.Direction == 1 || doc.Direction == -1 {
		g.Direction = doc.Direction
	} else {
		g.Direction = 1
	}
	g.LastAction = doc.LastAction

	if len(doc.Deck) > 0 && cardsValid(doc.Deck) {
		g.Deck = &models.Deck{Cards: append([]models.Card(nil), doc.Deck...)}
	} else {
		g.Deck = models.NewDeck()
	}

	byID := make(map[string]*playerSnapshot, len(doc.Players))
	for i := range doc.Players {
		byID[doc.Players[i].ID] = &doc.Players[i]
	}
	for _, p := range g.Players {
		ps, ok := byID[p.ID]
		if ok {
			p.Score = ps.Score
			p.IsReady = ps.IsReady
			p.Hand = decodeHand(ps.Hand)
		}
		// A finished game may legitimately hold empty hands.
		if len(p.Hand) == 0 && g.State != StateWaiting && g.State != StateGameEnd {
			g.healHand(p, v.handSize())
		}
	}

	if doc.CurrentPlayerIdx >= 0 && doc.CurrentPlayerIdx < len(g.Players) {
		g.CurrentPlayerIdx = doc.CurrentPlayerIdx
	} else {
		g.CurrentPlayerIdx = 0
	}
}

// healHand re-deals a standard hand to a player whose restored hand
// was empty or malformed, rebuilding the deck if it cannot cover it.
func (g *Game) healHand(p *models.Player, size int) {
	if g.Deck.Remaining() < size {
		g.Deck.Reset()
	}
	hand, err := g.Deck.DrawN(size)
	if err != nil {
		// size > 52 cannot happen for any variant; guard anyway.
		g.logger.WithError(err).Error("unable to heal hand")
		return
	}
	p.Hand = hand
	g.logger.WithFields(logrus.Fields{
		"player": p.ID,
		"cards":  size,
	}).Warn("restored hand was invalid, re-dealt")
}

// decodeHand parses a raw hand, returning nil when it is malformed so
// the caller re-deals instead of failing.
func decodeHand(raw json.RawMessage) []models.Card {
	if len(raw) == 0 {
		return nil
	}
	var hand []models.Card
	if err := json.Unmarshal(raw, &hand); err != nil {
		return nil
	}
	if !cardsValid(hand) {
		return nil
	}
	return hand
}

// cardsValid reports whether every card carries a known rank and suit.
func cardsValid(cards []models.Card) bool {
	for _, c := range cards {
		if !c.Rank.Valid() || !suitValid(c.Suit) {
			return false
		}
	}
	return true
}

func suitValid(s models.Suit) bool {
	for _, suit := range models.Suits {
		if s == suit {
			return true
		}
	}
	return false
}
