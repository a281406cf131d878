package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOfTruncatesToCivilDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	late := time.Date(2026, 3, 14, 23, 59, 0, 0, loc)
	assert.Equal(t, Day("2026-03-14"), DayOf(late))
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2026-01-31")
	require.NoError(t, err)
	assert.Equal(t, Day("2026-01-31"), d)

	_, err = ParseDay("31/01/2026")
	assert.Error(t, err)

	_, err = ParseDay("2026-02-30")
	assert.Error(t, err)
}

func TestYesterdayCrossesBoundaries(t *testing.T) {
	assert.Equal(t, Day("2026-02-28"), Day("2026-03-01").Yesterday())
	assert.Equal(t, Day("2024-02-29"), Day("2024-03-01").Yesterday())
	assert.Equal(t, Day("2025-12-31"), Day("2026-01-01").Yesterday())
}

func TestBefore(t *testing.T) {
	assert.True(t, Day("2026-01-01").Before("2026-01-02"))
	assert.False(t, Day("2026-01-02").Before("2026-01-01"))
	assert.False(t, Day("2026-01-01").Before("2026-01-01"))
	assert.False(t, Day("").Before("2026-01-01"))
	assert.False(t, Day("2026-01-01").Before(""))
}
