package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorhq/parlor/internal/models"
)

func newRummyTest(t *testing.T, n int) *RummyGame {
	t.Helper()
	r := NewRummyGame("room1", DefaultRules())
	seatPlayers(t, r.Base(), n)
	require.NoError(t, r.Start())
	return r
}

func TestRummyMeldValidation(t *testing.T) {
	cases := []struct {
		name  string
		cards []models.Card
		valid bool
	}{
		{
			name: "set of three distinct suits",
			cards: []models.Card{
				{Rank: models.Seven, Suit: models.Hearts},
				{Rank: models.Seven, Suit: models.Clubs},
				{Rank: models.Seven, Suit: models.Spades},
			},
			valid: true,
		},
		{
			name: "run of three same suit",
			cards: []models.Card{
				{Rank: models.Five, Suit: models.Hearts},
				{Rank: models.Three, Suit: models.Hearts},
				{Rank: models.Four, Suit: models.Hearts},
			},
			valid: true,
		},
		{
			name: "ace low run",
			cards: []models.Card{
				{Rank: models.Ace, Suit: models.Clubs},
				{Rank: models.Two, Suit: models.Clubs},
				{Rank: models.Three, Suit: models.Clubs},
			},
			valid: true,
		},
		{
			name: "run with a gap",
			cards: []models.Card{
				{Rank: models.Three, Suit: models.Hearts},
				{Rank: models.Four, Suit: models.Hearts},
				{Rank: models.Six, Suit: models.Hearts},
			},
			valid: false,
		},
		{
			name: "run across suits",
			cards: []models.Card{
				{Rank: models.Three, Suit: models.Hearts},
				{Rank: models.Four, Suit: models.Clubs},
				{Rank: models.Five, Suit: models.Hearts},
			},
			valid: false,
		},
		{
			name: "face run follows rank order not point value",
			cards: []models.Card{
				{Rank: models.Ten, Suit: models.Hearts},
				{Rank: models.Jack, Suit: models.Hearts},
				{Rank: models.Queen, Suit: models.Hearts},
			},
			valid: true,
		},
		{
			name: "two cards only",
			cards: []models.Card{
				{Rank: models.Seven, Suit: models.Hearts},
				{Rank: models.Seven, Suit: models.Clubs},
			},
			valid: false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, isValidMeld(tc.cards))
		})
	}
}

func TestRummyDrawAndDiscardCycle(t *testing.T) {
	r := newRummyTest(t, 2)
	p1 := r.Players[0]

	require.NoError(t, r.DrawCard("p1", false))
	assert.Len(t, p1.Hand, rummyHandSize+1)

	require.NoError(t, r.DiscardCard("p1", 0))
	assert.Len(t, p1.Hand, rummyHandSize)
	assert.Equal(t, 1, r.CurrentPlayerIdx)
}

func TestRummyDrawFromDiscard(t *testing.T) {
	r := newRummyTest(t, 2)
	top := r.DiscardPile[len(r.DiscardPile)-1]

	require.NoError(t, r.DrawCard("p1", true))
	assert.Equal(t, top, r.Players[0].Hand[rummyHandSize])
	assert.Empty(t, r.DiscardPile)

	assert.ErrorIs(t, r.DrawCard("p1", true), ErrInvalidMove, "empty discard pile")
}

func TestRummyReshufflesDiscardWhenDeckEmpty(t *testing.T) {
	r := newRummyTest(t, 2)
	r.DiscardPile = append(r.DiscardPile, r.Deck.Cards...)
	r.Deck.Cards = nil
	top := r.DiscardPile[len(r.DiscardPile)-1]

	require.NoError(t, r.DrawCard("p1", false))
	assert.Positive(t, r.Deck.Remaining())
	require.Len(t, r.DiscardPile, 1)
	assert.Equal(t, top, r.DiscardPile[0])
}

func TestRummyLayMeld(t *testing.T) {
	r := newRummyTest(t, 2)
	p1 := r.Players[0]
	p1.Hand = []models.Card{
		{Rank: models.Seven, Suit: models.Hearts},
		{Rank: models.Two, Suit: models.Diamonds},
		{Rank: models.Seven, Suit: models.Clubs},
		{Rank: models.Seven, Suit: models.Spades},
		{Rank: models.King, Suit: models.Hearts},
	}

	require.NoError(t, r.LayMeld("p1", []int{0, 2, 3}))
	assert.Len(t, p1.Hand, 2, "melded cards leave the hand")
	require.Len(t, r.Melds["p1"], 1)
	assert.Len(t, r.Melds["p1"][0], 3)
	assert.Equal(t, 0, r.CurrentPlayerIdx, "melding does not pass the turn")
}

func TestRummyLayMeldRejectsInvalid(t *testing.T) {
	r := newRummyTest(t, 2)
	p1 := r.Players[0]
	p1.Hand = []models.Card{
		{Rank: models.Seven, Suit: models.Hearts},
		{Rank: models.Two, Suit: models.Diamonds},
		{Rank: models.King, Suit: models.Clubs},
	}

	assert.ErrorIs(t, r.LayMeld("p1", []int{0, 1, 2}), ErrInvalidMove)
	assert.ErrorIs(t, r.LayMeld("p1", []int{0, 1}), ErrInvalidMove)
	assert.ErrorIs(t, r.LayMeld("p1", []int{0, 0, 1}), ErrInvalidCardIndex)
	assert.Len(t, p1.Hand, 3, "failed melds must not move cards")
}

func TestRummyAddToMeld(t *testing.T) {
	r := newRummyTest(t, 2)
	p1 := r.Players[0]
	r.Melds["p1"] = [][]models.Card{{
		{Rank: models.Three, Suit: models.Hearts},
		{Rank: models.Four, Suit: models.Hearts},
		{Rank: models.Five, Suit: models.Hearts},
	}}
	p1.Hand = []models.Card{
		{Rank: models.Six, Suit: models.Hearts},
		{Rank: models.Nine, Suit: models.Clubs},
	}

	require.NoError(t, r.AddToMeld("p1", 0, 0))
	assert.Len(t, r.Melds["p1"][0], 4)
	assert.Len(t, p1.Hand, 1)

	assert.ErrorIs(t, r.AddToMeld("p1", 0, 0), ErrInvalidMove, "9 of clubs does not extend the run")
	assert.ErrorIs(t, r.AddToMeld("p1", 0, 5), ErrInvalidMove, "no such meld")
}

func TestRummyEmptyHandWins(t *testing.T) {
	r := newRummyTest(t, 2)
	p1 := r.Players[0]
	p1.Hand = []models.Card{
		{Rank: models.Seven, Suit: models.Hearts},
		{Rank: models.Seven, Suit: models.Clubs},
		{Rank: models.Seven, Suit: models.Spades},
	}

	require.NoError(t, r.LayMeld("p1", []int{0, 1, 2}))
	assert.Equal(t, StateGameEnd, r.State)
	assert.Equal(t, 1, p1.Score)
}
