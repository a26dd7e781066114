package models

// Suit identifies one of the four French suits.
type Suit string

const (
	Hearts   Suit = "hearts"
	Diamonds Suit = "diamonds"
	Clubs    Suit = "clubs"
	Spades   Suit = "spades"
)

// Suits lists every suit in canonical order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Rank identifies a card rank, Ace through King.
type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

// Ranks lists every rank in canonical order (Ace low).
var Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

var rankIndex = func() map[Rank]int {
	m := make(map[Rank]int, len(Ranks))
	for i, r := range Ranks {
		m[r] = i
	}
	return m
}()

// Index returns the rank's position in canonical order, or -1 if the
// rank is not one of the thirteen known ranks.
func (r Rank) Index() int {
	if i, ok := rankIndex[r]; ok {
		return i
	}
	return -1
}

// Valid reports whether r is one of the thirteen known ranks.
func (r Rank) Valid() bool {
	return r.Index() >= 0
}

// ParseRank converts a wire string into a Rank.
func ParseRank(s string) (Rank, bool) {
	r := Rank(s)
	return r, r.Valid()
}

// Card is an immutable rank/suit pair. Two cards are equal iff both
// fields match, so Card works directly as a comparable value.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// Value returns the card's point value: Ace 11, face cards 10,
// otherwise the pip value.
func (c Card) Value() int {
	switch c.Rank {
	case Ace:
		return 11
	case Jack, Queen, King:
		return 10
	default:
		return c.Rank.Index() + 1
	}
}

// IsBlack reports whether the card is clubs or spades.
func (c Card) IsBlack() bool {
	return c.Suit == Clubs || c.Suit == Spades
}

func (c Card) String() string {
	return string(c.Rank) + " of " + string(c.Suit)
}
