package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullTimestamptzRoundTrip(t *testing.T) {
	assert.False(t, ToNullTimestamptz(nil).Valid)
	assert.Nil(t, FromNullTimestamptz(ToNullTimestamptz(nil)))

	local := time.Date(2026, 5, 4, 10, 0, 0, 0, time.FixedZone("X", 3600))
	got := FromNullTimestamptz(ToNullTimestamptz(&local))
	require.NotNil(t, got)
	assert.True(t, got.Equal(local))
	assert.Equal(t, time.UTC, got.Location())
}

func TestToUUID(t *testing.T) {
	assert.False(t, ToUUID(uuid.Nil).Valid)

	id := uuid.New()
	got := ToUUID(id)
	assert.True(t, got.Valid)
	assert.Equal(t, [16]byte(id), got.Bytes)
}

func TestNonNilStrings(t *testing.T) {
	assert.Equal(t, []string{}, NonNilStrings(nil))
	assert.Equal(t, []string{"a"}, NonNilStrings([]string{"a"}))
}
