package engine

import "fmt"

// Kind is the closed enum of rule variants. Dispatch happens through
// this enum rather than open-ended subtyping.
type Kind string

const (
	KindSnap        Kind = "snap"
	KindGoFish      Kind = "go_fish"
	KindBluff       Kind = "bluff"
	KindScat        Kind = "scat"
	KindRummy       Kind = "rummy"
	KindKingsCorner Kind = "kings_corner"
	KindSpades      Kind = "spades"
	KindSpoons      Kind = "spoons"
)

// Variant is the contract every rule variant fulfils on top of the
// shared Game lifecycle. All methods are synchronous; actions either
// fully apply or fail without mutation.
type Variant interface {
	// Kind identifies the variant.
	Kind() Kind
	// Base exposes the shared aggregate for roster management.
	Base() *Game
	// Start validates the roster and deck, deals, and enters play.
	Start() error
	// HandleAction dispatches a transport-level action envelope.
	HandleAction(playerID string, act Action) error
	// View projects transport-safe state for a viewer ("" = neutral).
	View(viewerID string) any
	// Snapshot exports the full state, hidden fields included.
	Snapshot() ([]byte, error)

	// handSize is the variant's standard per-player hand size given the
	// current roster, used when a restored hand has to be re-dealt.
	handSize() int
	// restoreExtra rebuilds variant-specific state from a snapshot.
	restoreExtra(doc *snapshotDoc) error
}

// Info describes a variant for lobby catalogs.
type Info struct {
	Kind        Kind   `json:"kind"`
	Name        string `json:"name"`
	MinPlayers  int    `json:"min_players"`
	MaxPlayers  int    `json:"max_players"`
	Description string `json:"description"`
}

var catalog = []Info{
	{KindSnap, "Snap", 2, 6, "Race to collect all cards by being the first to spot matching ranks."},
	{KindGoFish, "Go Fish", 2, 6, "Collect sets of four cards by asking other players for specific ranks."},
	{KindBluff, "Bluff", 2, 6, "Shed your cards by playing them face down and claiming their ranks; claims can be challenged."},
	{KindScat, "Scat (31)", 2, 6, "Chase the highest single-suit total up to 31, or knock to end the round."},
	{KindRummy, "Rummy", 2, 6, "Form sets and same-suit runs to empty your hand."},
	{KindKingsCorner, "Kings in the Corner", 2, 4, "Shed cards onto descending alternating-color piles; corners take kings."},
	{KindSpades, "Spades", 4, 4, "Trick-taking with spades as permanent trump; bid the tricks you expect to win."},
	{KindSpoons, "Spoons", 3, 8, "Pass cards to collect four of a kind, then grab a spoon before they run out."},
}

// Catalog lists every playable variant.
func Catalog() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

// LookupInfo returns the catalog entry for a kind.
func LookupInfo(kind Kind) (Info, bool) {
	for _, info := range catalog {
		if info.Kind == kind {
			return info, true
		}
	}
	return Info{}, false
}

// New constructs an empty variant engine for a room.
func New(kind Kind, roomCode string, rules Rules) (Variant, error) {
	switch kind {
	case KindSnap:
		return NewSnapGame(roomCode, rules), nil
	case KindGoFish:
		return NewGoFishGame(roomCode, rules), nil
	case KindBluff:
		return NewBluffGame(roomCode, rules), nil
	case KindScat:
		return NewScatGame(roomCode, rules), nil
	case KindRummy:
		return NewRummyGame(roomCode, rules), nil
	case KindKingsCorner:
		return NewKingsCornerGame(roomCode, rules), nil
	case KindSpades:
		return NewSpadesGame(roomCode, rules), nil
	case KindSpoons:
		return NewSpoonsGame(roomCode, rules), nil
	default:
		return nil, fmt.Errorf("game type %q: %w", kind, ErrUnknownAction)
	}
}
