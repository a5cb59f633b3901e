package tui

import (
	"fmt"
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/studyr/internal/pomodoro"
)

// viewState represents the currently active view.
type viewState int

const (
	viewToday viewState = iota
	viewTimer
	viewFolders
	viewCalendar
	viewHistory
	viewReports
	viewSettings
	viewCount
)

var viewNames = []string{"Today", "Timer", "Folders", "Calendar", "History", "Reports", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type engineSignalMsg pomodoro.Signal

// sessionDoneMsg is sent after a completed session has been journaled.
type sessionDoneMsg struct{}

// foldersChangedMsg is sent after any folder mutation.
type foldersChangedMsg struct {
	deleted []string
}

type exportDoneMsg struct {
	path string
}

// ConfigMsg carries reloaded configuration values into the running program.
type ConfigMsg struct {
	Focus     time.Duration
	Rest      time.Duration
	DailyGoal float64
}

func errStatus(prefix string, err error) tea.Msg {
	return statusMsg{text: fmt.Sprintf("%s: %v", prefix, err), isError: true}
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatCountdown renders remaining time as MM:SS, or H:MM:SS past an hour.
func formatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d >= time.Hour {
		return formatDuration(d)
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

// formatMinutes renders fractional minutes compactly, e.g. 25m, 1h05m or 40s.
func formatMinutes(minutes float64) string {
	secs := int(math.Round(minutes * 60))
	if secs < 60 && secs > 0 {
		return fmt.Sprintf("%ds", secs)
	}
	total := secs / 60
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	return fmt.Sprintf("%dh%02dm", total/60, total%60)
}

func today(now time.Time) string {
	return now.Format("2006-01-02")
}
