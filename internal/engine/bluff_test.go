package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorhq/parlor/internal/models"
)

func newBluffTest(t *testing.T, n int) *BluffGame {
	t.Helper()
	b := NewBluffGame("room1", DefaultRules())
	seatPlayers(t, b.Base(), n)
	require.NoError(t, b.Start())
	return b
}

func TestBluffDealsWholeDeck(t *testing.T) {
	b := newBluffTest(t, 2)
	assert.Len(t, b.Players[0].Hand, 26)
	assert.Len(t, b.Players[1].Hand, 26)
	assert.Zero(t, b.Deck.Remaining())

	odd := newBluffTest(t, 3)
	assert.Len(t, odd.Players[0].Hand, 17)
	assert.Equal(t, 1, odd.Deck.Remaining(), "the remainder stays in the deck")
}

func TestBluffFirstPlayUnconstrained(t *testing.T) {
	b := newBluffTest(t, 2)
	require.NoError(t, b.PlayCards("p1", []int{0}, models.Nine))

	require.Len(t, b.CenterPile, 1)
	assert.Equal(t, models.Nine, b.CenterPile[0].Claimed)
	assert.Equal(t, models.Ten, b.CurrentRank, "the claim advances the required rank")
	assert.Equal(t, 1, b.CurrentPlayerIdx)
}

func TestBluffClaimMustFollowSequence(t *testing.T) {
	b := newBluffTest(t, 2)
	require.NoError(t, b.PlayCards("p1", []int{0}, models.Nine))

	err := b.PlayCards("p2", []int{0}, models.Two)
	assert.ErrorIs(t, err, ErrInvalidMove)
	require.NoError(t, b.PlayCards("p2", []int{0}, models.Ten))
}

func TestBluffRankWrapsAfterKing(t *testing.T) {
	b := newBluffTest(t, 2)
	require.NoError(t, b.PlayCards("p1", []int{0}, models.King))
	assert.Equal(t, models.Ace, b.CurrentRank)
}

func TestBluffPlayCountAndIndices(t *testing.T) {
	b := newBluffTest(t, 2)

	assert.ErrorIs(t, b.PlayCards("p1", []int{0, 1}, models.Nine), ErrInvalidMove)
	assert.ErrorIs(t, b.PlayCards("p1", []int{99}, models.Nine), ErrInvalidCardIndex)
	assert.ErrorIs(t, b.PlayCards("p1", nil, models.Nine), ErrInvalidMove)
}

func TestBluffChallengeCatchesLiar(t *testing.T) {
	b := newBluffTest(t, 2)
	liar := b.Players[0]
	liar.Hand[0] = models.Card{Rank: models.Two, Suit: models.Clubs}
	require.NoError(t, b.PlayCards("p1", []int{0}, models.Nine))

	handBefore := len(liar.Hand)
	require.NoError(t, b.Challenge("p2"))

	assert.Len(t, liar.Hand, handBefore+1, "the liar takes the pile back")
	assert.Equal(t, 1, b.Players[1].Score, "the challenger scores")
	assert.Empty(t, b.CenterPile)
	assert.Empty(t, b.CurrentRank, "the sequence restarts unconstrained")
}

func TestBluffChallengeBackfiresOnTruth(t *testing.T) {
	b := newBluffTest(t, 2)
	honest := b.Players[0]
	honest.Hand[0] = models.Card{Rank: models.Nine, Suit: models.Clubs}
	require.NoError(t, b.PlayCards("p1", []int{0}, models.Nine))

	challenger := b.Players[1]
	handBefore := len(challenger.Hand)
	require.NoError(t, b.Challenge("p2"))

	assert.Len(t, challenger.Hand, handBefore+1, "a wrong challenge takes the pile")
	assert.Equal(t, 1, honest.Score, "the truthful player scores")
	assert.Empty(t, b.CurrentRank)
}

func TestBluffChallengeNeedsAPlay(t *testing.T) {
	b := newBluffTest(t, 2)
	assert.ErrorIs(t, b.Challenge("p2"), ErrInvalidMove)
}

func TestBluffChallengeCollectsWholePile(t *testing.T) {
	b := newBluffTest(t, 2)
	b.Players[0].Hand[0] = models.Card{Rank: models.Nine, Suit: models.Clubs}
	b.Players[1].Hand[0] = models.Card{Rank: models.Two, Suit: models.Hearts}
	require.NoError(t, b.PlayCards("p1", []int{0}, models.Nine))
	require.NoError(t, b.PlayCards("p2", []int{0}, models.Ten))

	liar := b.Players[1]
	handBefore := len(liar.Hand)
	require.NoError(t, b.Challenge("p1"))

	assert.Len(t, liar.Hand, handBefore+2, "both buried plays go to the loser")
}

func TestBluffEmptyHandWins(t *testing.T) {
	b := newBluffTest(t, 2)
	p1 := b.Players[0]
	p1.Hand = []models.Card{{Rank: models.Nine, Suit: models.Clubs}}

	require.NoError(t, b.PlayCards("p1", []int{0}, models.Nine))
	assert.Equal(t, StateGameEnd, b.State)
	assert.Equal(t, 1, p1.Score)
}
