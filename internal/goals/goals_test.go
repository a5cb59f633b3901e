package goals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sadopc/studyr/internal/store"
)

func newTestAggregator(t *testing.T) *Aggregator {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewAggregator(s, nil)
}

func TestTotalMissingDate(t *testing.T) {
	a := newTestAggregator(t)
	got, err := a.Total(context.Background(), "2026-01-01")
	require.NoError(t, err)
	require.Zero(t, got)
}

func TestAddFocusMinutesIsAdditive(t *testing.T) {
	a := newTestAggregator(t)
	ctx := context.Background()

	sessions := []float64{25, 1.0 / 60, 50, 25}
	var want float64
	for _, m := range sessions {
		require.NoError(t, a.AddFocusMinutes(ctx, "2026-01-01", m))
		want += m
	}
	require.NoError(t, a.AddFocusMinutes(ctx, "2026-01-02", 10))

	got, err := a.Total(ctx, "2026-01-01")
	require.NoError(t, err)
	require.InDelta(t, want, got, 1e-9)

	totals, err := a.Totals(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	require.Equal(t, 10.0, totals["2026-01-02"])
}

func TestAddFocusMinutesIgnoresNonPositive(t *testing.T) {
	a := newTestAggregator(t)
	ctx := context.Background()
	require.NoError(t, a.AddFocusMinutes(ctx, "2026-01-01", 5))
	require.NoError(t, a.AddFocusMinutes(ctx, "2026-01-01", -3))
	got, _ := a.Total(ctx, "2026-01-01")
	require.Equal(t, 5.0, got)
}

func TestProgressToward(t *testing.T) {
	tests := []struct {
		total, goal, want float64
	}{
		{0, 120, 0},
		{60, 120, 50},
		{120, 120, 100},
		{300, 120, 100},
		{-5, 120, 0},
		{60, 0, 0},
		{60, -1, 0},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ProgressToward(tt.total, tt.goal), "total=%v goal=%v", tt.total, tt.goal)
	}
}

func TestRange(t *testing.T) {
	to := time.Date(2026, 3, 2, 18, 30, 0, 0, time.Local)
	totals := Totals{"2026-02-28": 10, "2026-03-02": 30}

	days := Range(totals, to, 4)
	require.Len(t, days, 4)
	require.Equal(t, "2026-02-27", days[0].Date.Format(DateLayout))
	require.Equal(t, 10.0, days[1].Minutes)
	require.Zero(t, days[2].Minutes)
	require.Equal(t, 30.0, days[3].Minutes)

	require.Nil(t, Range(totals, to, 0))
}

func TestStreak(t *testing.T) {
	to := time.Date(2026, 3, 3, 12, 0, 0, 0, time.Local)
	totals := Totals{"2026-03-01": 60, "2026-03-02": 90, "2026-03-03": 10}

	require.Equal(t, 2, Streak(totals, to, 60))
	totals["2026-03-03"] = 60
	require.Equal(t, 3, Streak(totals, to, 60))
	require.Zero(t, Streak(totals, to, 0))
}
