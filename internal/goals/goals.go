// Package goals aggregates focused minutes per calendar day.
package goals

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/sadopc/studyr/internal/store"
)

const DateLayout = "2006-01-02"

// Totals maps a YYYY-MM-DD date to the focused minutes recorded on it.
type Totals map[string]float64

type Aggregator struct {
	kv     store.KV
	logger *slog.Logger
	mu     sync.Mutex
}

func NewAggregator(kv store.KV, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Aggregator{kv: kv, logger: logger}
}

// AddFocusMinutes adds minutes to the bucket for date, creating it at zero.
// Negative values are ignored so a bucket never decreases.
func (a *Aggregator) AddFocusMinutes(ctx context.Context, date string, minutes float64) error {
	if minutes <= 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	totals, err := a.load(ctx)
	if err != nil {
		return err
	}
	totals[date] += minutes
	if err := a.kv.Set(ctx, store.KeyDailyTotals, totals); err != nil {
		return fmt.Errorf("save daily totals: %w", err)
	}
	a.logger.Debug("daily total updated", slog.String("date", date), slog.Float64("total", totals[date]))
	return nil
}

// Total returns the minutes recorded on date, or 0.
func (a *Aggregator) Total(ctx context.Context, date string) (float64, error) {
	totals, err := a.Totals(ctx)
	if err != nil {
		return 0, err
	}
	return totals[date], nil
}

func (a *Aggregator) Totals(ctx context.Context) (Totals, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.load(ctx)
}

func (a *Aggregator) load(ctx context.Context) (Totals, error) {
	var totals Totals
	if _, err := a.kv.Get(ctx, store.KeyDailyTotals, &totals); err != nil {
		return nil, fmt.Errorf("load daily totals: %w", err)
	}
	if totals == nil {
		totals = Totals{}
	}
	return totals, nil
}

// ProgressToward returns total as a percentage of goal in [0, 100].
// A non-positive goal yields 0.
func ProgressToward(total, goal float64) float64 {
	if goal <= 0 || math.IsNaN(total) {
		return 0
	}
	pct := total / goal * 100
	return math.Max(0, math.Min(100, pct))
}

// Day is one bucket of a charted range.
type Day struct {
	Date    time.Time
	Minutes float64
}

// Range returns days consecutive buckets ending on the day of to.
func Range(totals Totals, to time.Time, days int) []Day {
	if days <= 0 {
		return nil
	}
	y, m, d := to.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, to.Location())
	out := make([]Day, days)
	for i := range days {
		day := end.AddDate(0, 0, i-days+1)
		out[i] = Day{Date: day, Minutes: totals[day.Format(DateLayout)]}
	}
	return out
}

// Streak counts consecutive days ending on to with at least goal minutes.
// A day below goal that is today does not break the streak.
func Streak(totals Totals, to time.Time, goal float64) int {
	if goal <= 0 {
		return 0
	}
	y, m, d := to.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, to.Location())
	if totals[day.Format(DateLayout)] < goal {
		day = day.AddDate(0, 0, -1)
	}
	n := 0
	for totals[day.Format(DateLayout)] >= goal {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}
