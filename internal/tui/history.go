package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studyr/internal/history"
)

// historyModel lists sessions grouped by folder; a folder expands into its
// focus and rest sessions.
type historyModel struct {
	svc    Services
	timer  timerModel
	width  int
	height int

	groups   map[string][]history.Entry
	names    []string
	cursor   int
	expanded map[string]bool
	loadErr  error
}

func newHistoryModel(svc Services, t timerModel) historyModel {
	return historyModel{
		svc:      svc,
		timer:    t,
		expanded: map[string]bool{},
	}
}

func (h *historyModel) setSize(w, hgt int) {
	h.width = w
	h.height = hgt
}

type historyDataMsg struct {
	entries []history.Entry
	err     error
}

func (h historyModel) refresh() tea.Cmd {
	ctx := h.timer.ctx
	return func() tea.Msg {
		entries, err := h.svc.History.LoadAll(ctx)
		return historyDataMsg{entries: entries, err: err}
	}
}

func (h historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		h.loadErr = msg.err
		h.groups = history.GroupByFolder(msg.entries)
		h.names = history.Folders(h.groups)
		if h.cursor >= len(h.names) {
			h.cursor = max(0, len(h.names)-1)
		}
		return h, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if h.cursor > 0 {
				h.cursor--
			}
		case key.Matches(msg, keys.Down):
			if h.cursor < len(h.names)-1 {
				h.cursor++
			}
		case key.Matches(msg, keys.Enter):
			if h.cursor < len(h.names) {
				// expanded is shared across copies; clone before writing.
				next := make(map[string]bool, len(h.expanded)+1)
				for k, v := range h.expanded {
					next[k] = v
				}
				name := h.names[h.cursor]
				next[name] = !next[name]
				h.expanded = next
			}
		}
	}
	return h, nil
}

func (h historyModel) view() string {
	w := h.width - 4
	title := titleStyle.Render("History")

	if h.loadErr != nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", errorStyle.Render("Could not load history: "+h.loadErr.Error()),
		))
	}

	if len(h.names) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title, "", mutedStyle.Render("No sessions logged yet."),
		))
	}

	var rows []string
	rows = append(rows, title, "")

	for i, name := range h.names {
		split := history.SplitByType(h.groups[name])
		arrow := "▸"
		if h.expanded[name] {
			arrow = "▾"
		}
		line := fmt.Sprintf("%s %-24s %s  %s", arrow, name,
			focusStyle.Render(fmt.Sprintf("%d focus", len(split.Focus))),
			restStyle.Render(fmt.Sprintf("%d rest", len(split.Rest))),
		)
		if i == h.cursor {
			rows = append(rows, selectedItemStyle.Render("> ")+line)
		} else {
			rows = append(rows, normalItemStyle.Render("  ")+line)
		}

		if h.expanded[name] {
			rows = append(rows, renderSessions("Focus", split.Focus)...)
			rows = append(rows, renderSessions("Rest", split.Rest)...)
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: expand/collapse  e: export"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func renderSessions(label string, entries []history.Entry) []string {
	rows := []string{mutedStyle.Render(fmt.Sprintf("      %s (%d)", label, len(entries)))}
	for _, e := range entries {
		rows = append(rows, fmt.Sprintf("        %s %s  %s", e.Date, e.Time, formatMinutes(e.Minutes)))
	}
	return rows
}
