// Package calendar derives the calendar marks and folder menu from the
// persisted folders and history. Nothing here is stored.
package calendar

import (
	"sort"
	"time"

	"github.com/sadopc/studyr/internal/folders"
	"github.com/sadopc/studyr/internal/history"
)

// Mark summarizes what happened or is due on one day.
type Mark struct {
	Todos      int // open todos due
	Done       int // checked todos due
	Notes      int
	FocusCount int
}

func (m Mark) Empty() bool {
	return m == Mark{}
}

// Marks indexes folders and history by YYYY-MM-DD.
func Marks(fs []folders.Folder, entries []history.Entry) map[string]Mark {
	marks := make(map[string]Mark)
	for _, f := range fs {
		for _, t := range f.Todos {
			m := marks[t.Date]
			if t.Checked {
				m.Done++
			} else {
				m.Todos++
			}
			marks[t.Date] = m
		}
		for _, n := range f.Notes {
			m := marks[n.Date]
			m.Notes++
			marks[n.Date] = m
		}
	}
	for _, e := range entries {
		if e.SessionType != history.Focus {
			continue
		}
		m := marks[e.Date]
		m.FocusCount++
		marks[e.Date] = m
	}
	return marks
}

// DueTodo is a todo together with the folder it belongs to.
type DueTodo struct {
	Folder string
	Todo   folders.Todo
}

// TodosDue lists the todos with a deadline on date, open ones first.
func TodosDue(fs []folders.Folder, date string) []DueTodo {
	var out []DueTodo
	for _, f := range fs {
		for _, t := range f.Todos {
			if t.Date == date {
				out = append(out, DueTodo{Folder: f.Name, Todo: t})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return !out[i].Todo.Checked && out[j].Todo.Checked
	})
	return out
}

// FolderMenu returns folder names in their persisted order.
func FolderMenu(fs []folders.Folder) []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// Weeks returns the month containing t as rows of seven days starting on
// Sunday. Days outside the month are zero.
func Weeks(t time.Time) [][7]time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	var weeks [][7]time.Time
	var week [7]time.Time
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		wd := int(d.Weekday())
		week[wd] = d
		if wd == 6 {
			weeks = append(weeks, week)
			week = [7]time.Time{}
		}
	}
	if week != ([7]time.Time{}) {
		weeks = append(weeks, week)
	}
	return weeks
}
