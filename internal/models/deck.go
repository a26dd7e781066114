package models

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrInsufficientCards is returned when a draw or deal asks for more
// cards than the deck holds. No cards move when it is returned.
var ErrInsufficientCards = errors.New("insufficient cards")

// DeckSize is the number of cards in a single standard deck.
const DeckSize = 52

// Deck is an ordered stack of cards owned by exactly one Game.
// The top of the deck is the end of the slice.
type Deck struct {
	Cards []Card
}

// NewDeck builds a shuffled 52-card deck, one card per rank/suit pair.
func NewDeck() *Deck {
	d := &Deck{}
	d.Reset()
	return d
}

// Reset replaces the contents with a fresh shuffled 52-card deck.
func (d *Deck) Reset() {
	d.Cards = make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			d.Cards = append(d.Cards, Card{Rank: rank, Suit: suit})
		}
	}
	d.Shuffle()
}

// Shuffle applies a uniform random permutation to the deck.
func (d *Deck) Shuffle() {
	rand.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}

// Remaining returns the number of cards left in the deck.
func (d *Deck) Remaining() int {
	return len(d.Cards)
}

// Draw removes and returns the top card. ok is false when the deck is
// exhausted.
func (d *Deck) Draw() (card Card, ok bool) {
	if len(d.Cards) == 0 {
		return Card{}, false
	}
	card = d.Cards[len(d.Cards)-1]
	d.Cards = d.Cards[:len(d.Cards)-1]
	return card, true
}

// DrawN removes and returns exactly n cards, or fails without drawing
// any when fewer than n remain.
func (d *Deck) DrawN(n int) ([]Card, error) {
	if n < 0 || n > len(d.Cards) {
		return nil, fmt.Errorf("draw %d of %d: %w", n, len(d.Cards), ErrInsufficientCards)
	}
	drawn := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		card, _ := d.Draw()
		drawn = append(drawn, card)
	}
	return drawn, nil
}

// Deal distributes perPlayer cards to each player round-robin, one card
// per player per pass, so a reshuffle mid-deal cannot skew any hand.
// Fails without dealing anything when the deck cannot cover everyone.
func (d *Deck) Deal(players []*Player, perPlayer int) error {
	need := len(players) * perPlayer
	if need > len(d.Cards) {
		return fmt.Errorf("deal %d to %d players with %d left: %w",
			perPlayer, len(players), len(d.Cards), ErrInsufficientCards)
	}
	for i := 0; i < perPlayer; i++ {
		for _, p := range players {
			card, _ := d.Draw()
			p.Hand = append(p.Hand, card)
		}
	}
	return nil
}
