package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studyr/internal/calendar"
	"github.com/sadopc/studyr/internal/folders"
	"github.com/sadopc/studyr/internal/history"
)

type calendarModel struct {
	svc    Services
	timer  timerModel
	width  int
	height int

	selected time.Time
	folders  []folders.Folder
	marks    map[string]calendar.Mark
}

func newCalendarModel(svc Services, t timerModel) calendarModel {
	return calendarModel{
		svc:      svc,
		timer:    t,
		selected: dayOf(svc.now()),
		marks:    map[string]calendar.Mark{},
	}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func (c *calendarModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

type calendarDataMsg struct {
	folders []folders.Folder
	entries []history.Entry
}

func (c calendarModel) refresh() tea.Cmd {
	ctx := c.timer.ctx
	return func() tea.Msg {
		// A history read failure leaves the focus marks empty.
		entries, _ := c.svc.History.LoadAll(ctx)
		return calendarDataMsg{folders: c.svc.Folders.LoadAll(ctx), entries: entries}
	}
}

func (c calendarModel) update(msg tea.Msg) (calendarModel, tea.Cmd) {
	switch msg := msg.(type) {
	case calendarDataMsg:
		c.folders = msg.folders
		c.marks = calendar.Marks(msg.folders, msg.entries)
		return c, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			c.selected = c.selected.AddDate(0, 0, -1)
		case key.Matches(msg, keys.Right):
			c.selected = c.selected.AddDate(0, 0, 1)
		case key.Matches(msg, keys.Up):
			c.selected = c.selected.AddDate(0, 0, -7)
		case key.Matches(msg, keys.Down):
			c.selected = c.selected.AddDate(0, 0, 7)
		case msg.String() == "[":
			c.selected = c.selected.AddDate(0, -1, 0)
		case msg.String() == "]":
			c.selected = c.selected.AddDate(0, 1, 0)
		case key.Matches(msg, keys.Back):
			c.selected = dayOf(c.svc.now())
		}
	}
	return c, nil
}

func (c calendarModel) view() string {
	w := c.width - 4

	grid := c.renderMonth()
	detail := c.renderDay()

	nav := mutedStyle.Render("  ←/→: day  ↑/↓: week  [/]: month  esc: today")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left, grid, "", detail, "", nav),
	)
}

func (c calendarModel) renderMonth() string {
	title := titleStyle.Render(c.selected.Format("January 2006"))
	todayStr := today(c.svc.now())

	var rows []string
	rows = append(rows, title, "")

	var head []string
	for _, d := range []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"} {
		head = append(head, mutedStyle.Inherit(dayStyle).Render(d))
	}
	rows = append(rows, strings.Join(head, " "))

	for _, week := range calendar.Weeks(c.selected) {
		var cells []string
		for _, d := range week {
			if d.IsZero() {
				cells = append(cells, dayStyle.Render(""))
				continue
			}
			date := d.Format(folders.DateLayout)
			label := fmt.Sprintf("%s%d", markGlyph(c.marks[date]), d.Day())

			style := dayStyle
			switch {
			case date == c.selected.Format(folders.DateLayout):
				style = selectedDayStyle
			case date == todayStr:
				style = todayCellStyle
			}
			cells = append(cells, style.Render(label))
		}
		rows = append(rows, strings.Join(cells, " "))
	}

	legend := mutedStyle.Render("• todo due  ✓ todos done  ♪ focus session  ▣ note")
	rows = append(rows, "", legend)
	return strings.Join(rows, "\n")
}

// markGlyph picks one symbol per day, most urgent first.
func markGlyph(m calendar.Mark) string {
	switch {
	case m.Todos > 0:
		return "•"
	case m.Done > 0:
		return "✓"
	case m.FocusCount > 0:
		return "♪"
	case m.Notes > 0:
		return "▣"
	}
	return ""
}

func (c calendarModel) renderDay() string {
	date := c.selected.Format(folders.DateLayout)
	m := c.marks[date]

	title := highlightStyle.Render(c.selected.Format("Monday, Jan 02"))
	summary := mutedStyle.Render(fmt.Sprintf("%d focus session(s)  %d note(s)", m.FocusCount, m.Notes))

	rows := []string{title + "  " + summary}
	due := calendar.TodosDue(c.folders, date)
	if len(due) == 0 {
		rows = append(rows, mutedStyle.Render("  No todos due"))
	}
	for _, dt := range due {
		box := "[ ]"
		if dt.Todo.Checked {
			box = successStyle.Render("[x]")
		}
		rows = append(rows, fmt.Sprintf("  %s %-24s %s", box, dt.Todo.Name, mutedStyle.Render(dt.Folder)))
	}
	return strings.Join(rows, "\n")
}
