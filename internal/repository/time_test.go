package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeLayouts(t *testing.T) {
	want := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	for _, raw := range []string{"2026-05-04T10:30:00Z", "2026-05-04T12:30:00+02:00", "2026-05-04 10:30:00"} {
		got, err := parseTime(raw)
		require.NoError(t, err, raw)
		assert.True(t, want.Equal(got), raw)
	}

	zero, err := parseTime("")
	require.NoError(t, err)
	assert.True(t, zero.IsZero())

	_, err = parseTime("yesterday")
	assert.Error(t, err)
}

func TestFormatTimeIsFixedWidth(t *testing.T) {
	whole := formatTime(time.Date(2026, 3, 1, 9, 0, 5, 0, time.UTC))
	fraction := formatTime(time.Date(2026, 3, 1, 11, 0, 5, 100_000_000, time.FixedZone("CEST", 2*3600)))

	assert.Equal(t, "2026-03-01T09:00:05.000000000Z", whole)
	assert.Equal(t, "2026-03-01T09:00:05.100000000Z", fraction)
	assert.Less(t, whole, fraction)

	parsed, err := parseTime(fraction)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, parsed.Sub(time.Date(2026, 3, 1, 9, 0, 5, 0, time.UTC)))
}
