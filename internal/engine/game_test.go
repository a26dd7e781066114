package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorhq/parlor/internal/models"
)

// seatPlayers adds n players named p1..pn, with p1 as host.
func seatPlayers(t *testing.T, g *Game, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("p%d", i)
		_, err := g.AddPlayer(id, "Player "+id, i == 1)
		require.NoError(t, err)
	}
}

// totalCards counts every card the engine tracks: deck, hands, and any
// variant table piles.
func totalCards(v Variant) int {
	g := v.Base()
	total := g.Deck.Remaining()
	for _, p := range g.Players {
		total += len(p.Hand)
	}
	switch game := v.(type) {
	case *SnapGame:
		total += len(game.CenterPile)
	case *GoFishGame:
		for _, sets := range game.Sets {
			for _, set := range sets {
				total += len(set)
			}
		}
	case *BluffGame:
		for _, play := range game.CenterPile {
			total += len(play.Cards)
		}
	case *ScatGame:
		total += len(game.DiscardPile)
	case *RummyGame:
		total += len(game.DiscardPile)
		for _, melds := range game.Melds {
			for _, meld := range melds {
				total += len(meld)
			}
		}
	case *KingsCornerGame:
		for i := 0; i < 4; i++ {
			total += len(game.Foundations[i]) + len(game.Corners[i])
		}
	case *SpadesGame:
		total += len(game.CurrentTrick)
	}
	return total
}

func TestAddPlayerOnlyWhileWaiting(t *testing.T) {
	v := NewSnapGame("room1", DefaultRules())
	seatPlayers(t, v.Base(), 2)
	require.NoError(t, v.Start())

	_, err := v.Base().AddPlayer("late", "Latecomer", false)
	assert.ErrorIs(t, err, ErrWrongPhase)
}

func TestAddDuplicatePlayer(t *testing.T) {
	v := NewSnapGame("room1", DefaultRules())
	seatPlayers(t, v.Base(), 2)

	_, err := v.Base().AddPlayer("p1", "Imposter", false)
	assert.ErrorIs(t, err, ErrInvalidMove)
}

func TestStartNeedsEnoughPlayers(t *testing.T) {
	v := NewSnapGame("room1", DefaultRules())
	seatPlayers(t, v.Base(), 1)

	err := v.Start()
	require.ErrorIs(t, err, ErrNotEnoughPlayers)
	assert.Equal(t, StateWaiting, v.Base().State, "failed start must roll back to waiting")
}

func TestStartIsNotReentrant(t *testing.T) {
	v := NewSnapGame("room1", DefaultRules())
	seatPlayers(t, v.Base(), 2)
	require.NoError(t, v.Start())

	assert.ErrorIs(t, v.Start(), ErrWrongPhase)
}

func TestRemovePlayerRevalidatesTurnPointer(t *testing.T) {
	v := NewSnapGame("room1", DefaultRules())
	g := v.Base()
	seatPlayers(t, g, 3)

	g.CurrentPlayerIdx = 2
	require.NoError(t, g.RemovePlayer("p3"))
	assert.Less(t, g.CurrentPlayerIdx, len(g.Players))
	assert.GreaterOrEqual(t, g.CurrentPlayerIdx, 0)

	assert.ErrorIs(t, g.RemovePlayer("p3"), ErrPlayerNotFound)
}

func TestRemovePlayerOnlyWhileWaiting(t *testing.T) {
	v := NewSnapGame("room1", DefaultRules())
	g := v.Base()
	seatPlayers(t, g, 3)
	require.NoError(t, v.Start())

	err := g.RemovePlayer("p3")
	require.ErrorIs(t, err, ErrWrongPhase)
	assert.Len(t, g.Players, 3)
}

// A departure mid-hand would let one seat feed two cards into the same
// trick, so removal is rejected once the hand is live.
func TestSpadesRosterIsFixedDuringTrick(t *testing.T) {
	s := newSpadesTest(t)
	bidAll(t, s, [4]int{3, 3, 3, 4})
	rigHands(s, [4][]models.Card{
		{{Rank: models.Five, Suit: models.Hearts}},
		{{Rank: models.Two, Suit: models.Hearts}},
		{{Rank: models.Three, Suit: models.Hearts}},
		{{Rank: models.Four, Suit: models.Hearts}},
	})

	require.ErrorIs(t, s.RemovePlayer("p4"), ErrWrongPhase)

	require.NoError(t, s.HandleAction("p1", Action{Type: "play_card", Payload: map[string]any{"card_index": 0}}))
	require.ErrorIs(t, s.RemovePlayer("p4"), ErrWrongPhase)
	require.NoError(t, s.HandleAction("p2", Action{Type: "play_card", Payload: map[string]any{"card_index": 0}}))

	seen := map[string]int{}
	for _, tp := range s.CurrentTrick {
		seen[tp.PlayerID]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "seat %s played more than once into the trick", id)
	}
}

func TestNextTurnWrapsBothDirections(t *testing.T) {
	v := NewSnapGame("room1", DefaultRules())
	g := v.Base()
	seatPlayers(t, g, 3)

	g.CurrentPlayerIdx = 2
	g.NextTurn()
	assert.Equal(t, 0, g.CurrentPlayerIdx)

	g.Direction = -1
	g.NextTurn()
	assert.Equal(t, 2, g.CurrentPlayerIdx)
}

func TestEveryVariantConservesDeckOnStart(t *testing.T) {
	for _, info := range Catalog() {
		t.Run(string(info.Kind), func(t *testing.T) {
			v, err := New(info.Kind, "room1", DefaultRules())
			require.NoError(t, err)
			seatPlayers(t, v.Base(), info.MinPlayers)
			require.NoError(t, v.Start())

			assert.Equal(t, models.DeckSize, totalCards(v),
				"cards in hands plus deck must account for the full deck")
			if info.Kind != KindSpades {
				// Spades holds its own bidding phase before play.
				assert.Equal(t, StatePlaying, v.Base().State)
			}
		})
	}
}

func TestViewHidesForeignHands(t *testing.T) {
	v, err := New(KindGoFish, "room1", DefaultRules())
	require.NoError(t, err)
	g := v.Base()
	seatPlayers(t, g, 2)
	require.NoError(t, v.Start())

	view := v.View("p1").(GoFishView)
	own := view.Players["p1"]
	other := view.Players["p2"]

	require.Len(t, own.Hand, own.HandSize)
	for _, c := range own.Hand {
		assert.True(t, c.Known, "viewer must see their own cards")
		assert.True(t, c.Rank.Valid())
	}
	require.Len(t, other.Hand, other.HandSize)
	for _, c := range other.Hand {
		assert.False(t, c.Known, "foreign cards must stay hidden")
		assert.Empty(t, c.Rank)
		assert.Empty(t, c.Suit)
	}
}

func TestNeutralViewHidesAllHands(t *testing.T) {
	v := NewSnapGame("room1", DefaultRules())
	seatPlayers(t, v.Base(), 2)
	require.NoError(t, v.Start())

	view := v.View("").(SnapView)
	for _, pv := range view.Players {
		for _, c := range pv.Hand {
			assert.False(t, c.Known)
		}
	}
}

func TestViewIsIdempotent(t *testing.T) {
	v := NewSnapGame("room1", DefaultRules())
	seatPlayers(t, v.Base(), 2)
	require.NoError(t, v.Start())

	before := totalCards(v)
	first := v.View("p1").(SnapView)
	second := v.View("p1").(SnapView)

	assert.Equal(t, first, second)
	assert.Equal(t, before, totalCards(v), "views must not mutate state")
}

func TestFallbackViewOnInconsistentState(t *testing.T) {
	v := NewSnapGame("room1", DefaultRules())
	g := v.Base()
	seatPlayers(t, g, 2)
	require.NoError(t, v.Start())

	g.CurrentPlayerIdx = 99
	view := v.View("p1").(SnapView)

	assert.NotEmpty(t, view.Error)
	assert.NotNil(t, view.Players, "fallback view must stay structurally complete")
	assert.Equal(t, StateWaiting, view.State)
}

func TestUnknownActionType(t *testing.T) {
	for _, info := range Catalog() {
		v, err := New(info.Kind, "room1", DefaultRules())
		require.NoError(t, err)
		seatPlayers(t, v.Base(), info.MinPlayers)
		require.NoError(t, v.Start())

		err = v.HandleAction("p1", Action{Type: "teleport"})
		assert.ErrorIs(t, err, ErrUnknownAction, "variant %s", info.Kind)
	}
}

func TestUnknownGameType(t *testing.T) {
	_, err := New(Kind("poker"), "room1", DefaultRules())
	assert.Error(t, err)
}

func TestCatalogCoversEveryKind(t *testing.T) {
	kinds := []Kind{
		KindSnap, KindGoFish, KindBluff, KindScat,
		KindRummy, KindKingsCorner, KindSpades, KindSpoons,
	}
	assert.Len(t, Catalog(), len(kinds))
	for _, k := range kinds {
		info, ok := LookupInfo(k)
		require.True(t, ok, "missing catalog entry for %s", k)
		assert.Equal(t, k, info.Kind)
		assert.GreaterOrEqual(t, info.MaxPlayers, info.MinPlayers)
	}
}
