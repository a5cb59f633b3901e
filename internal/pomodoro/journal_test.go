package pomodoro

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sadopc/studyr/internal/history"
	"github.com/sadopc/studyr/internal/store"
)

type recordingGoals struct {
	fail  bool
	added map[string]float64
}

func (r *recordingGoals) AddFocusMinutes(_ context.Context, date string, minutes float64) error {
	if r.fail {
		return store.ErrWrite
	}
	if r.added == nil {
		r.added = map[string]float64{}
	}
	r.added[date] += minutes
	return nil
}

func TestJournalRecordsInOrder(t *testing.T) {
	app := &failingAppender{}
	g := &recordingGoals{}
	j := NewJournal(app, g, nil)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, history.NewEntry(testNow, history.Focus, "A", 25)))
	require.NoError(t, j.Record(ctx, history.NewEntry(testNow, history.Rest, "A", 5)))
	require.NoError(t, j.Record(ctx, history.NewEntry(testNow, history.Focus, "B", 25)))

	require.Len(t, app.got, 3)
	require.Equal(t, 50.0, g.added["2026-03-04"])
	require.Zero(t, j.Pending())
}

func TestJournalRetriesFailedAppend(t *testing.T) {
	app := &failingAppender{fail: true}
	g := &recordingGoals{}
	j := NewJournal(app, g, nil)
	ctx := context.Background()

	require.Error(t, j.Record(ctx, history.NewEntry(testNow, history.Focus, "A", 25)))
	require.Equal(t, 1, j.Pending())
	require.Empty(t, g.added)

	app.fail = false
	require.NoError(t, j.Record(ctx, history.NewEntry(testNow.Add(time.Hour), history.Focus, "A", 25)))
	require.Len(t, app.got, 2)
	require.Equal(t, "10:30:00", app.got[0].Time, "older entry goes first")
	require.Equal(t, 50.0, g.added["2026-03-04"])
}

func TestJournalDoesNotAppendTwice(t *testing.T) {
	app := &failingAppender{}
	g := &recordingGoals{fail: true}
	j := NewJournal(app, g, nil)
	ctx := context.Background()

	require.Error(t, j.Record(ctx, history.NewEntry(testNow, history.Focus, "A", 25)))
	require.Error(t, j.Flush(ctx))
	require.Equal(t, 1, app.calls)

	g.fail = false
	require.NoError(t, j.Flush(ctx))
	require.Equal(t, 1, app.calls)
	require.Equal(t, 25.0, g.added["2026-03-04"])
	require.Zero(t, j.Pending())
}
