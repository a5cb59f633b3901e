package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sadopc/studyr/internal/store"
)

func newTestLog(t *testing.T) (*Log, *store.Store) {
	t.Helper()
	s, err := store.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return NewLog(s, nil), s
}

func TestNewEntry(t *testing.T) {
	at := time.Date(2026, 3, 4, 9, 5, 7, 0, time.Local)

	e := NewEntry(at, Focus, "CMPT403", 25)
	require.Equal(t, "2026-03-04", e.Date)
	require.Equal(t, "09:05:07", e.Time)
	require.Equal(t, Focus, e.SessionType)
	require.Equal(t, "CMPT403", e.Folder)

	e = NewEntry(at, Rest, "", 5)
	require.Equal(t, NoFolder, e.Folder)
}

func TestLoadAllEmpty(t *testing.T) {
	l, _ := newTestLog(t)
	entries, err := l.LoadAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, entries)
	require.Empty(t, entries)
}

func TestAppendKeepsOrder(t *testing.T) {
	l, _ := newTestLog(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 4, 9, 0, 0, 0, time.Local)

	require.NoError(t, l.Append(ctx, NewEntry(at, Focus, "A", 25)))
	require.NoError(t, l.Append(ctx, NewEntry(at.Add(time.Minute), Rest, "A", 5)))
	require.NoError(t, l.Append(ctx, NewEntry(at.Add(2*time.Minute), Focus, "A", 25)))

	entries, err := l.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, Rest, entries[1].SessionType)
	require.Equal(t, "09:02:00", entries[2].Time)
}

func TestWireFormat(t *testing.T) {
	l, s := newTestLog(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 4, 9, 0, 0, 0, time.Local)

	require.NoError(t, l.Append(ctx, NewEntry(at, Focus, "A", 25)))
	raw, err := s.GetRaw(ctx, store.KeyHistory)
	require.NoError(t, err)
	require.JSONEq(t,
		`[{"date":"2026-03-04","time":"09:00:00","sessionType":"focus","folder":"A","minutes":25}]`,
		string(raw))
}

func TestClear(t *testing.T) {
	l, _ := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, l.Append(ctx, NewEntry(time.Now(), Focus, "A", 1)))
	require.NoError(t, l.Clear(ctx))

	entries, err := l.LoadAll(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestGroupAndSplit(t *testing.T) {
	entries := []Entry{
		{Folder: "B", SessionType: Focus, Minutes: 25},
		{Folder: "A", SessionType: Rest, Minutes: 5},
		{Folder: "B", SessionType: Rest, Minutes: 5},
		{Folder: NoFolder, SessionType: Focus, Minutes: 10},
		{Folder: "B", SessionType: Focus, Minutes: 25},
	}

	groups := GroupByFolder(entries)
	require.Equal(t, []string{"A", "B", NoFolder}, Folders(groups))
	require.Len(t, groups["B"], 3)

	split := SplitByType(groups["B"])
	require.Len(t, split.Focus, 2)
	require.Len(t, split.Rest, 1)

	require.Equal(t, 60.0, FocusMinutes(entries))
}

func TestQueriesTolerateEmpty(t *testing.T) {
	groups := GroupByFolder(nil)
	require.Empty(t, groups)
	require.Empty(t, Folders(groups))
	split := SplitByType(nil)
	require.Empty(t, split.Focus)
	require.Empty(t, split.Rest)
	require.Zero(t, FocusMinutes(nil))
}

func TestOnDate(t *testing.T) {
	entries := []Entry{
		{Date: "2026-03-04", Folder: "A"},
		{Date: "2026-03-05", Folder: "B"},
	}
	got := OnDate(entries, "2026-03-05")
	require.Len(t, got, 1)
	require.Equal(t, "B", got[0].Folder)
}
