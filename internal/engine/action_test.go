package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadIntRejectsFractionalNumbers(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int
		wantErr bool
	}{
		{name: "json number", value: float64(3), want: 3},
		{name: "native int", value: 7, want: 7},
		{name: "fractional number", value: 2.7, wantErr: true},
		{name: "negative fractional", value: -0.5, wantErr: true},
		{name: "non-number", value: "3", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := payloadInt(map[string]any{"card_index": tc.value}, "card_index")
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMove)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPayloadIntsRejectsFractionalElements(t *testing.T) {
	_, err := payloadInts(map[string]any{"card_indices": []any{float64(0), 1.5}}, "card_indices")
	assert.ErrorIs(t, err, ErrInvalidMove)

	got, err := payloadInts(map[string]any{"card_indices": []any{float64(2), float64(0)}}, "card_indices")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, got)
}

func TestFractionalBidIsRejected(t *testing.T) {
	s := newSpadesTest(t)

	err := s.HandleAction("p1", Action{Type: "make_bid", Payload: map[string]any{"bid": 2.5}})
	require.ErrorIs(t, err, ErrInvalidMove)
	assert.Equal(t, -1, s.Bids["p1"], "a rejected bid must not commit")
}
