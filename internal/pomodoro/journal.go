package pomodoro

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/sadopc/studyr/internal/history"
)

type HistoryAppender interface {
	Append(ctx context.Context, entry history.Entry) error
}

type FocusRecorder interface {
	AddFocusMinutes(ctx context.Context, date string, minutes float64) error
}

type pendingEntry struct {
	entry    history.Entry
	appended bool
}

// Journal makes completed sessions durable. Each entry is appended to the
// history log first; the daily total is only updated once that append has
// succeeded. Entries whose steps failed stay queued and are retried in order
// by the next Record or Flush, without appending them twice.
type Journal struct {
	history HistoryAppender
	goals   FocusRecorder
	logger  *slog.Logger
	pending []pendingEntry
}

func NewJournal(h HistoryAppender, g FocusRecorder, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Journal{history: h, goals: g, logger: logger}
}

// Record queues entry and flushes the queue.
func (j *Journal) Record(ctx context.Context, entry history.Entry) error {
	j.pending = append(j.pending, pendingEntry{entry: entry})
	return j.Flush(ctx)
}

// Flush persists queued entries in order, stopping at the first failure.
func (j *Journal) Flush(ctx context.Context) error {
	for len(j.pending) > 0 {
		p := &j.pending[0]
		if !p.appended {
			if err := j.history.Append(ctx, p.entry); err != nil {
				j.logger.Error("session not logged", slog.String("error", err.Error()), slog.Int("pending", len(j.pending)))
				return fmt.Errorf("record session: %w", err)
			}
			p.appended = true
		}
		if p.entry.SessionType == history.Focus {
			if err := j.goals.AddFocusMinutes(ctx, p.entry.Date, p.entry.Minutes); err != nil {
				j.logger.Error("daily total not updated", slog.String("error", err.Error()), slog.String("date", p.entry.Date))
				return fmt.Errorf("record focus minutes: %w", err)
			}
		}
		j.logger.Info("session recorded",
			slog.String("type", string(p.entry.SessionType)),
			slog.String("folder", p.entry.Folder),
			slog.Float64("minutes", p.entry.Minutes),
		)
		j.pending = j.pending[1:]
	}
	return nil
}

// Pending reports how many entries are waiting to be persisted.
func (j *Journal) Pending() int {
	return len(j.pending)
}
