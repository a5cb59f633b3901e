// Package history keeps the append-only log of completed timer sessions.
package history

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sadopc/studyr/internal/store"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"

	// NoFolder is recorded when a session finished without a bound folder.
	NoFolder = "No folder"
)

type SessionType string

const (
	Focus SessionType = "focus"
	Rest  SessionType = "rest"
)

// Entry is one completed session. Minutes is the configured length of the
// session, not the wall-clock time it took.
type Entry struct {
	Date        string      `json:"date"`
	Time        string      `json:"time"`
	SessionType SessionType `json:"sessionType"`
	Folder      string      `json:"folder"`
	Minutes     float64     `json:"minutes"`
}

// NewEntry stamps an entry with the local date and time of at.
func NewEntry(at time.Time, kind SessionType, folder string, minutes float64) Entry {
	if folder == "" {
		folder = NoFolder
	}
	return Entry{
		Date:        at.Format(DateLayout),
		Time:        at.Format(TimeLayout),
		SessionType: kind,
		Folder:      folder,
		Minutes:     minutes,
	}
}

type Log struct {
	kv     store.KV
	logger *slog.Logger
	mu     sync.Mutex
}

func NewLog(kv store.KV, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Log{kv: kv, logger: logger}
}

// Append adds entry to the end of the log.
func (l *Log) Append(ctx context.Context, entry Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load(ctx)
	if err != nil {
		return err
	}
	entries = append(entries, entry)
	if err := l.kv.Set(ctx, store.KeyHistory, entries); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	l.logger.Debug("history appended",
		slog.String("type", string(entry.SessionType)),
		slog.String("folder", entry.Folder),
		slog.Float64("minutes", entry.Minutes),
	)
	return nil
}

// LoadAll returns every entry in append order. An empty log is not an error.
func (l *Log) LoadAll(ctx context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// Clear drops the whole log.
func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.kv.Remove(ctx, store.KeyHistory); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func (l *Log) load(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if _, err := l.kv.Get(ctx, store.KeyHistory, &entries); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// ============================================================
// Queries
// ============================================================

// GroupByFolder buckets entries by folder, keeping append order within each.
func GroupByFolder(entries []Entry) map[string][]Entry {
	groups := make(map[string][]Entry)
	for _, e := range entries {
		groups[e.Folder] = append(groups[e.Folder], e)
	}
	return groups
}

// Folders returns the group keys in sorted order.
func Folders(groups map[string][]Entry) []string {
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Split struct {
	Focus []Entry
	Rest  []Entry
}

// SplitByType separates focus entries from rest entries.
func SplitByType(entries []Entry) Split {
	var s Split
	for _, e := range entries {
		switch e.SessionType {
		case Focus:
			s.Focus = append(s.Focus, e)
		case Rest:
			s.Rest = append(s.Rest, e)
		}
	}
	return s
}

// FocusMinutes sums the minutes of focus entries.
func FocusMinutes(entries []Entry) float64 {
	var total float64
	for _, e := range entries {
		if e.SessionType == Focus {
			total += e.Minutes
		}
	}
	return total
}

// OnDate filters entries completed on date.
func OnDate(entries []Entry, date string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out
}
