package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	for _, s := range []string{"", "all", "day", "week", "month", "year"} {
		_, err := ParsePeriod(s)
		assert.NoError(t, err, "period %q", s)
	}

	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodAll, p)

	_, err = ParsePeriod("decade")
	assert.Error(t, err)
}

func TestPeriod_LowerBound(t *testing.T) {
	// Wednesday
	now := time.Date(2026, 3, 11, 15, 30, 45, 0, time.UTC)

	t.Run("all has no bound", func(t *testing.T) {
		_, ok := PeriodAll.LowerBound(now)
		assert.False(t, ok)
	})

	t.Run("day", func(t *testing.T) {
		got, ok := PeriodDay.LowerBound(now)
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("week starts on the most recent Sunday", func(t *testing.T) {
		got, ok := PeriodWeek.LowerBound(now)
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), got)
		assert.Equal(t, time.Sunday, got.Weekday())
	})

	t.Run("week on a Sunday is that Sunday", func(t *testing.T) {
		sunday := time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC)
		got, ok := PeriodWeek.LowerBound(sunday)
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("month", func(t *testing.T) {
		got, ok := PeriodMonth.LowerBound(now)
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("year", func(t *testing.T) {
		got, ok := PeriodYear.LowerBound(now)
		require.True(t, ok)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), got)
	})
}

func TestComputeDeliveryRate(t *testing.T) {
	assert.Equal(t, float64(0), ComputeDeliveryRate(0, 0))
	assert.Equal(t, float64(100), ComputeDeliveryRate(5, 5))
	assert.Equal(t, float64(50), ComputeDeliveryRate(1, 2))
	assert.Equal(t, 33.33, ComputeDeliveryRate(1, 3))
	assert.Equal(t, 66.67, ComputeDeliveryRate(2, 3))
}
