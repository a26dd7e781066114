// Package engine implements the shared card-game lifecycle and the
// eight rule variants built on top of it. One engine instance owns all
// mutable state for one room; the owning collaborator serializes
// actions per room, so the engine does no internal locking.
package engine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/parlorhq/parlor/internal/models"
)

// GameState is the lifecycle phase of a game.
type GameState string

const (
	StateWaiting  GameState = "waiting"
	StateStarting GameState = "starting"
	StatePlaying  GameState = "playing"
	StateRoundEnd GameState = "round_end"
	StateGameEnd  GameState = "game_end"
)

var log = logrus.New()

// SetLogger replaces the package logger. Useful for hosts that already
// carry a configured logrus instance.
func SetLogger(l *logrus.Logger) {
	if l != nil {
		log = l
	}
}

// Game is the base aggregate every variant embeds: roster, deck,
// lifecycle state, and the turn pointer. Seating order is roster slice
// order; the turn pointer is always an index into that slice.
type Game struct {
	ID       uuid.UUID `json:"id"`
	RoomCode string    `json:"room_code"`

	Players []*models.Player `json:"players"`
	Deck    *models.Deck     `json:"deck"`

	State            GameState `json:"state"`
	CurrentPlayerIdx int       `json:"current_player_idx"`
	Direction        int       `json:"direction"`

	Rules      Rules  `json:"rules"`
	LastAction *Event `json:"last_action,omitempty"`

	logger *logrus.Entry
}

// newGame builds the base aggregate for a room with a fresh deck.
func newGame(roomCode string, kind Kind, rules Rules) Game {
	id := uuid.New()
	return Game{
		ID:        id,
		RoomCode:  roomCode,
		Deck:      models.NewDeck(),
		State:     StateWaiting,
		Direction: 1,
		Rules:     rules,
		logger: log.WithFields(logrus.Fields{
			"room": roomCode,
			"game": string(kind),
		}),
	}
}

// AddPlayer seats a new player. Only permitted before the game starts.
func (g *Game) AddPlayer(id, name string, isHost bool) (*models.Player, error) {
	if g.State != StateWaiting {
		return nil, fmt.Errorf("cannot join after start: %w", ErrWrongPhase)
	}
	if _, err := g.player(id); err == nil {
		return nil, fmt.Errorf("player %s already seated: %w", id, ErrInvalidMove)
	}
	p := &models.Player{ID: id, Name: name, IsHost: isHost}
	g.Players = append(g.Players, p)
	g.logger.WithField("player", id).Info("player joined")
	return p, nil
}

// RemovePlayer unseats a player. Only permitted before the game
// starts; a live roster sizes tricks, spoon counts, and seat
// arithmetic, so mid-game departures must go through the variant. The
// turn pointer is still re-validated so it stays a valid roster index.
func (g *Game) RemovePlayer(id string) error {
	if err := g.requireState(StateWaiting); err != nil {
		return fmt.Errorf("cannot leave after start: %w", err)
	}
	for i, p := range g.Players {
		if p.ID != id {
			continue
		}
		g.Players = append(g.Players[:i], g.Players[i+1:]...)
		if len(g.Players) == 0 {
			g.CurrentPlayerIdx = 0
		} else {
			if i < g.CurrentPlayerIdx {
				g.CurrentPlayerIdx--
			}
			g.CurrentPlayerIdx %= len(g.Players)
			if g.CurrentPlayerIdx < 0 {
				g.CurrentPlayerIdx += len(g.Players)
			}
		}
		g.logger.WithField("player", id).Info("player left")
		return nil
	}
	return fmt.Errorf("remove %s: %w", id, ErrPlayerNotFound)
}

// player looks a seat up by ID.
func (g *Game) player(id string) (*models.Player, error) {
	for _, p := range g.Players {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("player %s: %w", id, ErrPlayerNotFound)
}

// playerIndex returns the seat index for a player ID, or -1.
func (g *Game) playerIndex(id string) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// CurrentPlayer returns the player whose turn it is, or nil with an
// empty roster.
func (g *Game) CurrentPlayer() *models.Player {
	if len(g.Players) == 0 || g.CurrentPlayerIdx < 0 || g.CurrentPlayerIdx >= len(g.Players) {
		return nil
	}
	return g.Players[g.CurrentPlayerIdx]
}

// NextTurn advances the turn pointer by the play direction, wrapping
// around the roster. Must not be called with an empty roster.
func (g *Game) NextTurn() {
	n := len(g.Players)
	g.CurrentPlayerIdx = ((g.CurrentPlayerIdx+g.Direction)%n + n) % n
}

// requireState fails with ErrWrongPhase unless the game is in one of
// the given states.
func (g *Game) requireState(states ...GameState) error {
	for _, s := range states {
		if g.State == s {
			return nil
		}
	}
	return fmt.Errorf("in state %s: %w", g.State, ErrWrongPhase)
}

// requireTurn resolves the acting player and fails unless it is their
// turn.
func (g *Game) requireTurn(playerID string) (*models.Player, error) {
	p, err := g.player(playerID)
	if err != nil {
		return nil, err
	}
	cur := g.CurrentPlayer()
	if cur == nil || cur.ID != p.ID {
		return nil, fmt.Errorf("player %s: %w", playerID, ErrNotPlayerTurn)
	}
	return p, nil
}

// requireIndex fails with ErrInvalidCardIndex unless idx addresses a
// card in the player's hand.
func requireIndex(p *models.Player, idx int) error {
	if idx < 0 || idx >= len(p.Hand) {
		return fmt.Errorf("index %d of %d: %w", idx, len(p.Hand), ErrInvalidCardIndex)
	}
	return nil
}

// begin runs the shared start sequence: roster check, fresh validated
// deck, variant minimum-cards check, variant deal. Any failure rolls
// the game back to waiting with a re-initialized deck and empty hands
// so a retry starts clean.
func (g *Game) begin(minPlayers, minCards int, deal func() error) error {
	if err := g.requireState(StateWaiting); err != nil {
		return err
	}
	if len(g.Players) < minPlayers {
		return fmt.Errorf("have %d, need %d: %w", len(g.Players), minPlayers, ErrNotEnoughPlayers)
	}

	g.State = StateStarting
	g.Deck = models.NewDeck()
	if g.Deck.Remaining() != models.DeckSize {
		g.rollbackStart()
		return fmt.Errorf("deck has %d cards: %w", g.Deck.Remaining(), ErrInvalidDeckSize)
	}
	if minCards > g.Deck.Remaining() {
		g.rollbackStart()
		return fmt.Errorf("need %d cards, have %d: %w", minCards, g.Deck.Remaining(), models.ErrInsufficientCards)
	}

	for _, p := range g.Players {
		p.Hand = nil
	}
	if err := deal(); err != nil {
		g.rollbackStart()
		return fmt.Errorf("deal failed: %w", err)
	}

	g.CurrentPlayerIdx = 0
	g.State = StatePlaying
	g.logger.WithFields(logrus.Fields{
		"players":   len(g.Players),
		"deck_left": g.Deck.Remaining(),
	}).Info("game started")
	return nil
}

// rollbackStart restores a clean waiting state after a failed start.
func (g *Game) rollbackStart() {
	g.State = StateWaiting
	g.Deck = models.NewDeck()
	for _, p := range g.Players {
		p.Hand = nil
	}
}

// record stores the last applied action for inclusion in views.
func (g *Game) record(action, playerID string, payload map[string]any) {
	g.LastAction = &Event{Action: action, Player: playerID, Payload: payload}
}
