package engine

import (
	"fmt"
	"math"

	"github.com/parlorhq/parlor/internal/models"
)

// Action is the transport-agnostic envelope the owning collaborator
// hands to a variant. Payload values arrive as decoded JSON, so
// numbers are float64.
type Action struct {
	Type    string         `json:"action_type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Event records the most recent applied action for broadcast in views.
type Event struct {
	Action  string         `json:"action"`
	Player  string         `json:"player,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// payloadInt extracts an integer payload field, tolerating the float64
// that JSON decoding produces. Fractional numbers are rejected rather
// than truncated.
func payloadInt(p map[string]any, key string) (int, error) {
	v, ok := p[key]
	if !ok {
		return 0, fmt.Errorf("missing %q: %w", key, ErrInvalidMove)
	}
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("field %q is not an integer: %w", key, ErrInvalidMove)
		}
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, fmt.Errorf("field %q is not a number: %w", key, ErrInvalidMove)
	}
}

// payloadString extracts a string payload field.
func payloadString(p map[string]any, key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", fmt.Errorf("missing %q: %w", key, ErrInvalidMove)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("field %q is not a string: %w", key, ErrInvalidMove)
	}
	return s, nil
}

// payloadBool extracts an optional boolean payload field, defaulting
// to false when absent.
func payloadBool(p map[string]any, key string) (bool, error) {
	v, ok := p[key]
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("field %q is not a boolean: %w", key, ErrInvalidMove)
	}
	return b, nil
}

// payloadInts extracts an integer-slice payload field.
func payloadInts(p map[string]any, key string) ([]int, error) {
	v, ok := p[key]
	if !ok {
		return nil, fmt.Errorf("missing %q: %w", key, ErrInvalidMove)
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("field %q is not an array: %w", key, ErrInvalidMove)
	}
	out := make([]int, 0, len(raw))
	for _, item := range raw {
		switch n := item.(type) {
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("field %q has a non-integer element: %w", key, ErrInvalidMove)
			}
			out = append(out, int(n))
		case int:
			out = append(out, n)
		default:
			return nil, fmt.Errorf("field %q has a non-numeric element: %w", key, ErrInvalidMove)
		}
	}
	return out, nil
}

// payloadRank extracts and validates a rank payload field.
func payloadRank(p map[string]any, key string) (models.Rank, error) {
	s, err := payloadString(p, key)
	if err != nil {
		return "", err
	}
	rank, ok := models.ParseRank(s)
	if !ok {
		return "", fmt.Errorf("invalid rank %q: %w", s, ErrInvalidMove)
	}
	return rank, nil
}
