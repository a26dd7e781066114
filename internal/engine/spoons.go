package engine

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/parlorhq/parlor/internal/models"
)

const spoonsHandSize = 4

// SpoonsGame is the pass-and-grab variant: cards circulate around the
// table, and the first player to assemble four of a kind opens a grab
// race for one spoon fewer than there are players.
type SpoonsGame struct {
	Game

	// Spoons is the number of spoons still on the table.
	Spoons int

	// Grabbed marks players who already took a spoon this round.
	Grabbed map[string]bool

	// CallerID is the player whose four of a kind opened the grab
	// phase. Empty while cards are still circulating.
	CallerID string
}

// NewSpoonsGame builds an empty spoons engine for a room.
func NewSpoonsGame(roomCode string, rules Rules) *SpoonsGame {
	return &SpoonsGame{
		Game:    newGame(roomCode, KindSpoons, rules),
		Grabbed: make(map[string]bool),
	}
}

func (s *SpoonsGame) Kind() Kind  { return KindSpoons }
func (s *SpoonsGame) Base() *Game { return &s.Game }

func (s *SpoonsGame) handSize() int { return spoonsHandSize }

// Start deals four cards each and lays out one spoon fewer than there
// are players.
func (s *SpoonsGame) Start() error {
	return s.begin(3, len(s.Players)*spoonsHandSize, func() error {
		if err := s.Deck.Deal(s.Players, spoonsHandSize); err != nil {
			return err
		}
		s.Spoons = len(s.Players) - 1
		s.Grabbed = make(map[string]bool, len(s.Players))
		s.CallerID = ""
		return nil
	})
}

// hasFourOfAKind reports whether any rank appears four times in the
// hand.
func hasFourOfAKind(hand []models.Card) bool {
	counts := make(map[models.Rank]int, len(hand))
	for _, c := range hand {
		counts[c.Rank]++
		if counts[c.Rank] == 4 {
			return true
		}
	}
	return false
}

// PlayTurn passes one card to the next seat. When the pass completes a
// four of a kind for either player the grab phase opens and the turn
// pointer freezes.
func (s *SpoonsGame) PlayTurn(playerID string, cardIdx int) error {
	if err := s.requireState(StatePlaying); err != nil {
		return err
	}
	if s.CallerID != "" {
		return fmt.Errorf("grab phase in progress: %w", ErrInvalidMove)
	}
	p, err := s.requireTurn(playerID)
	if err != nil {
		return err
	}
	if err := requireIndex(p, cardIdx); err != nil {
		return err
	}

	n := len(s.Players)
	receiver := s.Players[((s.CurrentPlayerIdx+s.Direction)%n+n)%n]
	card := p.RemoveAt(cardIdx)

	// The passer may need a top-up from the deck to stay at four.
	if len(p.Hand) < spoonsHandSize {
		if drawn, ok := s.Deck.Draw(); ok {
			p.Hand = append(p.Hand, drawn)
		}
	}
	receiver.Hand = append(receiver.Hand, card)

	s.record("card_passed", playerID, map[string]any{"to": receiver.ID})

	if hasFourOfAKind(p.Hand) {
		s.openGrab(p.ID)
		return nil
	}
	if hasFourOfAKind(receiver.Hand) {
		s.openGrab(receiver.ID)
		return nil
	}
	s.NextTurn()
	return nil
}

// openGrab freezes play and opens the spoon race.
func (s *SpoonsGame) openGrab(callerID string) {
	s.CallerID = callerID
	s.record("four_of_a_kind", callerID, map[string]any{"spoons": s.Spoons})
	s.logger.WithField("caller", callerID).Info("grab phase opened")
}

// GrabSpoon takes one spoon during the grab phase. When the last spoon
// goes, the one player without a spoon loses the round and everyone
// else scores.
func (s *SpoonsGame) GrabSpoon(playerID string) error {
	if err := s.requireState(StatePlaying); err != nil {
		return err
	}
	if s.CallerID == "" {
		return fmt.Errorf("no four of a kind on the table: %w", ErrInvalidMove)
	}
	p, err := s.player(playerID)
	if err != nil {
		return err
	}
	if s.Grabbed[p.ID] {
		return fmt.Errorf("player %s already holds a spoon: %w", playerID, ErrInvalidMove)
	}

	s.Grabbed[p.ID] = true
	s.Spoons--
	s.record("spoon_grabbed", playerID, map[string]any{"spoons_left": s.Spoons})

	if s.Spoons > 0 {
		return nil
	}

	loserID := ""
	for _, other := range s.Players {
		if !s.Grabbed[other.ID] {
			loserID = other.ID
			continue
		}
		other.Score++
	}
	s.State = StateGameEnd
	s.record("game_end", s.CallerID, map[string]any{"loser": loserID})
	s.logger.WithField("loser", loserID).Info("spoons game finished")
	return nil
}

// HandleAction dispatches a transport action envelope.
func (s *SpoonsGame) HandleAction(playerID string, act Action) error {
	switch act.Type {
	case "play_turn":
		idx, err := payloadInt(act.Payload, "card_index")
		if err != nil {
			return err
		}
		return s.PlayTurn(playerID, idx)
	case "grab_spoon":
		return s.GrabSpoon(playerID)
	default:
		return fmt.Errorf("spoons action %q: %w", act.Type, ErrUnknownAction)
	}
}

// SpoonsView adds spoon and grab state to the base projection. The
// caller's identity is public once the grab phase opens.
type SpoonsView struct {
	GameView
	Spoons    int             `json:"spoons"`
	Grabbed   map[string]bool `json:"grabbed"`
	GrabPhase bool            `json:"grab_phase"`
	CallerID  string          `json:"caller_id,omitempty"`
}

func (s *SpoonsGame) View(viewerID string) any {
	return SpoonsView{
		GameView:  s.baseView(KindSpoons, viewerID),
		Spoons:    s.Spoons,
		Grabbed:   maps.Clone(s.Grabbed),
		GrabPhase: s.CallerID != "",
		CallerID:  s.CallerID,
	}
}

type spoonsState struct {
	Spoons   int             `json:"spoons"`
	Grabbed  map[string]bool `json:"grabbed"`
	CallerID string          `json:"caller_id"`
}

func (s *SpoonsGame) Snapshot() ([]byte, error) {
	return s.exportSnapshot(KindSpoons, spoonsState{
		Spoons:   s.Spoons,
		Grabbed:  s.Grabbed,
		CallerID: s.CallerID,
	})
}

func (s *SpoonsGame) restoreExtra(doc *snapshotDoc) error {
	s.Spoons = len(s.Players) - 1
	s.Grabbed = make(map[string]bool, len(s.Players))
	s.CallerID = ""
	if len(doc.Variant) == 0 {
		return nil
	}
	var st spoonsState
	if err := json.Unmarshal(doc.Variant, &st); err != nil {
		return fmt.Errorf("decode spoons state: %w", err)
	}
	if st.Spoons < 0 || st.Spoons >= len(s.Players) {
		return fmt.Errorf("spoon count %d out of range", st.Spoons)
	}
	s.Spoons = st.Spoons
	s.CallerID = st.CallerID
	for pid, v := range st.Grabbed {
		s.Grabbed[pid] = v
	}
	return nil
}
