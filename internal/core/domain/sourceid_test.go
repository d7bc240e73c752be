package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceID_RoundTrip(t *testing.T) {
	field := EncodeSourceID("123456")
	assert.Equal(t, "Pocket\t\t\t123456", field)

	id, err := DecodeSourceID(field)
	require.NoError(t, err)
	assert.Equal(t, "123456", id)
}

func TestDecodeSourceID_Corrupt(t *testing.T) {
	tests := []struct {
		name  string
		field string
	}{
		{"empty", ""},
		{"no separator", "Pocket 123"},
		{"separator without id", "Pocket\t\t\t"},
		{"foreign publisher", "Some Publishing House"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSourceID(tt.field)
			assert.ErrorIs(t, err, ErrCorruptRemoteState)
		})
	}
}
