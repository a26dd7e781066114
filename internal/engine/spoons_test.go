package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorhq/parlor/internal/models"
)

func newSpoonsTest(t *testing.T, n int) *SpoonsGame {
	t.Helper()
	s := NewSpoonsGame("room1", DefaultRules())
	seatPlayers(t, s.Base(), n)
	require.NoError(t, s.Start())
	return s
}

func TestSpoonsStartLaysOutSpoons(t *testing.T) {
	s := newSpoonsTest(t, 4)
	assert.Equal(t, 3, s.Spoons)
	for _, p := range s.Players {
		assert.Len(t, p.Hand, spoonsHandSize)
	}
	assert.Empty(t, s.CallerID)
}

func TestSpoonsPassMovesCardToNextSeat(t *testing.T) {
	s := newSpoonsTest(t, 3)
	p1, p2 := s.Players[0], s.Players[1]
	p1.Hand = []models.Card{
		{Rank: models.Two, Suit: models.Hearts},
		{Rank: models.Five, Suit: models.Clubs},
		{Rank: models.Nine, Suit: models.Diamonds},
		{Rank: models.King, Suit: models.Spades},
	}
	p2.Hand = []models.Card{
		{Rank: models.Three, Suit: models.Hearts},
		{Rank: models.Six, Suit: models.Clubs},
		{Rank: models.Ten, Suit: models.Diamonds},
		{Rank: models.Queen, Suit: models.Spades},
	}
	passed := p1.Hand[0]

	require.NoError(t, s.PlayTurn("p1", 0))

	assert.Len(t, p1.Hand, spoonsHandSize, "the passer draws back up to four")
	assert.Equal(t, passed, p2.Hand[len(p2.Hand)-1])
	assert.Equal(t, 1, s.CurrentPlayerIdx)
}

func TestSpoonsGrabWithoutFourOfAKind(t *testing.T) {
	s := newSpoonsTest(t, 3)
	assert.ErrorIs(t, s.GrabSpoon("p1"), ErrInvalidMove)
}

func TestSpoonsFourOfAKindOpensGrabPhase(t *testing.T) {
	s := newSpoonsTest(t, 3)
	p1 := s.Players[0]
	p1.Hand = []models.Card{
		{Rank: models.Seven, Suit: models.Hearts},
		{Rank: models.Seven, Suit: models.Clubs},
		{Rank: models.Seven, Suit: models.Diamonds},
		{Rank: models.Seven, Suit: models.Spades},
		{Rank: models.Two, Suit: models.Hearts},
	}
	// Keep the hand at five so the pass leaves a completed four of a
	// kind without a top-up draw.
	s.Deck.Cards = nil

	require.NoError(t, s.PlayTurn("p1", 4))

	assert.Equal(t, "p1", s.CallerID)
	assert.ErrorIs(t, s.PlayTurn("p2", 0), ErrInvalidMove, "passing stops during the grab phase")
}

func TestSpoonsReceiverCanCompleteFourOfAKind(t *testing.T) {
	s := newSpoonsTest(t, 3)
	p1, p2 := s.Players[0], s.Players[1]
	p1.Hand = []models.Card{
		{Rank: models.Seven, Suit: models.Hearts},
		{Rank: models.Two, Suit: models.Clubs},
		{Rank: models.Three, Suit: models.Diamonds},
		{Rank: models.Four, Suit: models.Spades},
	}
	p2.Hand = []models.Card{
		{Rank: models.Seven, Suit: models.Clubs},
		{Rank: models.Seven, Suit: models.Diamonds},
		{Rank: models.Seven, Suit: models.Spades},
		{Rank: models.Nine, Suit: models.Hearts},
	}
	s.Deck.Cards = []models.Card{{Rank: models.Two, Suit: models.Hearts}}

	require.NoError(t, s.PlayTurn("p1", 0))
	assert.Equal(t, "p2", s.CallerID)
}

func TestSpoonsGrabRaceLoserScoring(t *testing.T) {
	s := newSpoonsTest(t, 3)
	s.CallerID = "p1"

	require.NoError(t, s.GrabSpoon("p1"))
	assert.Equal(t, 1, s.Spoons)
	assert.ErrorIs(t, s.GrabSpoon("p1"), ErrInvalidMove, "one spoon per player")

	require.NoError(t, s.GrabSpoon("p3"))
	assert.Equal(t, StateGameEnd, s.State)
	assert.Equal(t, 1, s.Players[0].Score)
	assert.Equal(t, 0, s.Players[1].Score, "the player without a spoon scores nothing")
	assert.Equal(t, 1, s.Players[2].Score)
}

func TestSpoonsStateSurvivesSnapshot(t *testing.T) {
	s := newSpoonsTest(t, 3)
	s.CallerID = "p2"
	s.Grabbed["p2"] = true
	s.Spoons = 1

	data, err := s.Snapshot()
	require.NoError(t, err)
	restored, err := Restore(data, testRoster(3), DefaultRules())
	require.NoError(t, err)

	rs := restored.(*SpoonsGame)
	assert.Equal(t, "p2", rs.CallerID)
	assert.True(t, rs.Grabbed["p2"])
	assert.Equal(t, 1, rs.Spoons)
}

func TestSpoonsViewCopiesGrabState(t *testing.T) {
	s := newSpoonsTest(t, 3)
	s.CallerID = "p1"
	require.NoError(t, s.GrabSpoon("p1"))

	view := s.View("p2").(SpoonsView)
	view.Grabbed["p2"] = true

	assert.False(t, s.Grabbed["p2"])
	assert.True(t, s.Grabbed["p1"])
}
