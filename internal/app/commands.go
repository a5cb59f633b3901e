package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sadopc/studyr/internal/calendar"
	"github.com/sadopc/studyr/internal/export"
	"github.com/sadopc/studyr/internal/goals"
	"github.com/sadopc/studyr/internal/history"
	"github.com/sadopc/studyr/internal/store"
)

// PrintStatus writes today's focus total, goal progress and the todos due
// today.
func PrintStatus(ctx context.Context, env *Env, w io.Writer, now time.Time) error {
	date := now.Format(goals.DateLayout)

	totals, err := env.Goals.Totals(ctx)
	if err != nil {
		return fmt.Errorf("load daily totals: %w", err)
	}
	total := totals[date]
	goal := env.Settings.DailyGoal

	fmt.Fprintf(w, "Today (%s): %.1f of %.0f minutes (%.0f%%)\n",
		date, total, goal, goals.ProgressToward(total, goal))
	fmt.Fprintf(w, "Streak: %d day(s)\n", goals.Streak(totals, now, goal))

	var active string
	if ok, err := env.Store.Get(ctx, store.KeyActiveFolder, &active); err == nil && ok {
		fmt.Fprintf(w, "Session in progress for: %s\n", active)
	}

	due := calendar.TodosDue(env.Folders.LoadAll(ctx), date)
	if len(due) == 0 {
		fmt.Fprintln(w, "No todos due today")
		return nil
	}
	fmt.Fprintln(w, "Due today:")
	for _, d := range due {
		box := "[ ]"
		if d.Todo.Checked {
			box = "[x]"
		}
		fmt.Fprintf(w, "  %s %s (%s)\n", box, d.Todo.Name, d.Folder)
	}
	return nil
}

// PrintFolders lists every folder with its todo, note and session counts.
func PrintFolders(ctx context.Context, env *Env, w io.Writer) error {
	entries, err := env.History.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	groups := history.GroupByFolder(entries)

	fs := env.Folders.LoadAll(ctx)
	if len(fs) == 0 {
		fmt.Fprintln(w, "No folders")
		return nil
	}
	fmt.Fprintf(w, "%-28s %7s %6s %6s %10s\n", "FOLDER", "TODOS", "NOTES", "FOCUS", "MINUTES")
	for _, f := range fs {
		split := history.SplitByType(groups[f.Name])
		fmt.Fprintf(w, "%-28s %7s %6d %6d %10.1f\n",
			f.Name,
			fmt.Sprintf("%d/%d", len(f.Open()), len(f.Todos)),
			len(f.Notes),
			len(split.Focus),
			history.FocusMinutes(split.Focus),
		)
	}
	return nil
}

// Export writes the full session history to path as csv or json.
func Export(ctx context.Context, env *Env, format, path string) error {
	entries, err := env.History.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	switch strings.ToLower(format) {
	case "csv":
		return export.ToCSV(entries, path)
	case "json":
		return export.ToJSON(entries, path)
	default:
		return fmt.Errorf("unknown export format %q (want csv or json)", format)
	}
}

// Reset erases all stored data: folders, history, daily totals and saved
// settings.
func Reset(ctx context.Context, env *Env, w io.Writer) error {
	keys, err := env.Store.Keys(ctx)
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	if err := env.Store.Clear(ctx); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	if len(keys) == 0 {
		fmt.Fprintln(w, "Nothing to remove")
		return nil
	}
	fmt.Fprintf(w, "Removed %s\n", strings.Join(keys, ", "))
	return nil
}
