package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studyr/internal/calendar"
	"github.com/sadopc/studyr/internal/goals"
	"github.com/sadopc/studyr/internal/history"
	"github.com/sadopc/studyr/internal/pomodoro"
)

const recentLimit = 5

// dashboardModel is the Today view: progress toward the daily goal, todos due
// today and the most recent sessions.
type dashboardModel struct {
	svc    Services
	timer  timerModel
	width  int
	height int

	goal    float64
	total   float64
	streak  int
	due     []calendar.DueTodo
	recent  []history.Entry
	loadErr error

	bar progress.Model
}

func newDashboardModel(svc Services, t timerModel, goal float64) dashboardModel {
	return dashboardModel{
		svc:   svc,
		timer: t,
		goal:  goal,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
	d.bar.Width = max(10, w-30)
}

type dashboardDataMsg struct {
	total  float64
	streak int
	due    []calendar.DueTodo
	recent []history.Entry
	err    error
}

func (d dashboardModel) loadData() tea.Cmd {
	ctx := d.timer.ctx
	now := d.svc.now()
	goal := d.goal
	return func() tea.Msg {
		return loadDashboard(ctx, d.svc, now, goal)
	}
}

func loadDashboard(ctx context.Context, svc Services, now time.Time, goal float64) dashboardDataMsg {
	date := today(now)
	msg := dashboardDataMsg{}

	totals, err := svc.Goals.Totals(ctx)
	if err != nil {
		msg.err = err
	}
	msg.total = totals[date]
	msg.streak = goals.Streak(totals, now, goal)

	msg.due = calendar.TodosDue(svc.Folders.LoadAll(ctx), date)

	entries, err := svc.History.LoadAll(ctx)
	if err != nil && msg.err == nil {
		msg.err = err
	}
	n := min(recentLimit, len(entries))
	for i := len(entries) - 1; i >= len(entries)-n; i-- {
		msg.recent = append(msg.recent, entries[i])
	}
	return msg
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.total = msg.total
		d.streak = msg.streak
		d.due = msg.due
		d.recent = msg.recent
		d.loadErr = msg.err
	}
	return d, nil
}

func (d dashboardModel) percent() float64 {
	return goals.ProgressToward(d.total, d.goal)
}

func (d dashboardModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}

	contentWidth := d.width - 4

	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderTimerPanel(contentWidth),
		d.renderGoalPanel(contentWidth),
		d.renderDuePanel(contentWidth),
		d.renderRecentPanel(contentWidth),
	)
}

func (d dashboardModel) renderTimerPanel(w int) string {
	st := d.timer.state()
	if !st.Active() {
		hint := mutedStyle.Render("Press 2 for the timer, then s to start focusing")
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center,
			timerStyle.Width(w-6).Render("--:--"),
			hint,
		))
	}

	style := kindStyle(st.Kind == pomodoro.Focus)
	label := strings.ToUpper(string(st.Kind))
	if st.Paused {
		label += "  " + warningStyle.Render("PAUSED")
	}
	folder := st.Folder
	if folder == "" {
		folder = noFolderLabel
	}
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center,
		style.Width(w-6).Align(lipgloss.Center).Render(formatCountdown(st.Display())),
		style.Render(label),
		highlightStyle.Render(folder),
	))
}

func (d dashboardModel) renderGoalPanel(w int) string {
	title := titleStyle.Render("Today")
	total := highlightStyle.Render(formatMinutes(d.total))
	header := fmt.Sprintf("%s  %s of %s", title, total, formatMinutes(d.goal))

	pct := d.percent()
	var status string
	switch {
	case d.goal <= 0:
		status = mutedStyle.Render("No daily goal set")
	case pct >= 100:
		status = successStyle.Render("Goal reached")
	default:
		status = mutedStyle.Render(fmt.Sprintf("%.0f%%", pct))
	}

	streak := mutedStyle.Render(fmt.Sprintf("Streak: %d day(s)", d.streak))

	rows := []string{header, d.bar.ViewAs(pct/100) + "  " + status, streak}
	if d.loadErr != nil {
		rows = append(rows, errorStyle.Render("Could not load: "+d.loadErr.Error()))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderDuePanel(w int) string {
	title := titleStyle.Render("Due Today")
	if len(d.due) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("Nothing due today"),
		))
	}

	rows := []string{title}
	for _, dt := range d.due {
		box := "[ ]"
		if dt.Todo.Checked {
			box = successStyle.Render("[x]")
		}
		rows = append(rows, fmt.Sprintf("  %s %-24s %s", box, dt.Todo.Name, mutedStyle.Render(dt.Folder)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Sessions")
	if len(d.recent) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No sessions yet"),
		))
	}

	rows := []string{title}
	for _, e := range d.recent {
		kind := kindStyle(e.SessionType == history.Focus).Render(fmt.Sprintf("%-5s", e.SessionType))
		rows = append(rows, fmt.Sprintf("  %s %s  %s  %-20s %s",
			e.Date, e.Time[:min(5, len(e.Time))], kind, e.Folder, formatMinutes(e.Minutes)))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
