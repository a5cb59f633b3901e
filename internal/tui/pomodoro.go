package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studyr/internal/folders"
	"github.com/sadopc/studyr/internal/pomodoro"
)

const noFolderLabel = "(no folder)"

type pomodoroModel struct {
	timer   timerModel
	folders *folders.Repository
	width   int
	height  int

	folderNames  []string
	picking      bool
	pickerCursor int

	// Confirmation for switching folders mid-session or starting unbound
	formActive    bool
	form          *huh.Form
	formType      string // "switch", "start"
	confirmed     *bool
	pendingFolder string
}

func newPomodoroModel(t timerModel, repo *folders.Repository) pomodoroModel {
	confirm := false
	return pomodoroModel{
		timer:     t,
		folders:   repo,
		confirmed: &confirm,
	}
}

func (p *pomodoroModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type pomodoroFoldersMsg struct {
	names []string
}

func (p pomodoroModel) refresh() tea.Cmd {
	return func() tea.Msg {
		all := p.folders.LoadAll(p.timer.ctx)
		names := make([]string, len(all))
		for i, f := range all {
			names[i] = f.Name
		}
		return pomodoroFoldersMsg{names: names}
	}
}

func (p pomodoroModel) update(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case pomodoroFoldersMsg:
		p.folderNames = msg.names
		if p.pickerCursor > len(p.folderNames) {
			p.pickerCursor = 0
		}
		return p, nil

	case tea.KeyMsg:
		if p.picking {
			return p.updatePicker(msg)
		}
		switch {
		case key.Matches(msg, keys.Start):
			st := p.timer.state()
			if st.Kind == pomodoro.Idle && st.Selected == "" {
				return p.showStartConfirm()
			}
			return p, p.timer.start()
		case key.Matches(msg, keys.Pause):
			p.timer.toggle()
			return p, nil
		case key.Matches(msg, keys.Skip):
			return p, p.timer.skip()
		case key.Matches(msg, keys.Reset):
			p.timer.reset(p.timer.state().Selected)
			return p, func() tea.Msg { return statusMsg{text: "Timer reset"} }
		case key.Matches(msg, keys.Folder):
			p.picking = true
			p.pickerCursor = 0
			return p, p.refresh()
		}
	}
	return p, nil
}

// pickerOptions lists the choosable folders, with "no folder" first.
func (p pomodoroModel) pickerOptions() []string {
	return append([]string{noFolderLabel}, p.folderNames...)
}

func (p pomodoroModel) updatePicker(msg tea.KeyMsg) (pomodoroModel, tea.Cmd) {
	opts := p.pickerOptions()
	switch {
	case key.Matches(msg, keys.Up):
		if p.pickerCursor > 0 {
			p.pickerCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.pickerCursor < len(opts)-1 {
			p.pickerCursor++
		}
	case key.Matches(msg, keys.Enter):
		p.picking = false
		name := ""
		if p.pickerCursor > 0 {
			name = opts[p.pickerCursor]
		}
		return p.choose(name)
	case key.Matches(msg, keys.Back):
		p.picking = false
	}
	return p, nil
}

func (p pomodoroModel) choose(name string) (pomodoroModel, tea.Cmd) {
	err := p.timer.selectFolder(name)
	if errors.Is(err, pomodoro.ErrSessionActive) {
		return p.showSwitchConfirm(name)
	}
	if err != nil {
		return p, func() tea.Msg { return errStatus("Select folder", err) }
	}
	return p, nil
}

func (p pomodoroModel) showSwitchConfirm(name string) (pomodoroModel, tea.Cmd) {
	*p.confirmed = false
	p.formType = "switch"
	p.pendingFolder = name
	label := name
	if label == "" {
		label = noFolderLabel
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("A session is running for %q", p.timer.state().Folder)).
				Description(fmt.Sprintf("Reset the timer and switch to %s? The current session is not logged.", label)).
				Affirmative("Reset").
				Negative("Keep going").
				Value(p.confirmed),
		),
	).WithShowHelp(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p pomodoroModel) showStartConfirm() (pomodoroModel, tea.Cmd) {
	*p.confirmed = false
	p.formType = "start"

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("No folder selected").
				Description("Start focusing anyway? The session is logged without a folder.").
				Affirmative("Start").
				Negative("Pick a folder").
				Value(p.confirmed),
		),
	).WithShowHelp(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p pomodoroModel) updateForm(msg tea.Msg) (pomodoroModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		p.form = nil
		return p.submit()
	}

	return p, cmd
}

func (p pomodoroModel) submit() (pomodoroModel, tea.Cmd) {
	switch p.formType {
	case "switch":
		if *p.confirmed {
			p.timer.reset(p.pendingFolder)
			return p, func() tea.Msg { return statusMsg{text: "Timer reset"} }
		}
	case "start":
		if *p.confirmed {
			return p, p.timer.start()
		}
		p.picking = true
		p.pickerCursor = 0
		return p, p.refresh()
	}
	return p, nil
}

func (p pomodoroModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		title := "Switch Folder"
		if p.formType == "start" {
			title = "Start Focus"
		}
		return activePanelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", p.form.View()),
		)
	}

	st := p.timer.state()
	focus, rest := p.timer.engine.Durations()
	title := titleStyle.Render("Pomodoro Timer")

	var timeDisplay, phaseLabel, indicator string
	switch st.Kind {
	case pomodoro.Idle:
		timeDisplay = timerStyle.Width(w - 6).Render(formatCountdown(focus))
		phaseLabel = mutedStyle.Render("Ready")
		indicator = mutedStyle.Render("s: focus  >: rest")
	default:
		style := kindStyle(st.Kind == pomodoro.Focus)
		timeDisplay = style.Width(w - 6).Align(lipgloss.Center).Render(formatCountdown(st.Display()))
		phaseLabel = style.Render(strings.ToUpper(string(st.Kind)))
		switch {
		case st.JustFinished:
			indicator = successStyle.Render("✓  FINISHED")
		case st.Paused:
			indicator = warningStyle.Render("⏸  PAUSED")
		default:
			indicator = successStyle.Render("●  RUNNING")
		}
	}

	folderLine := mutedStyle.Render("Folder: ") + highlightStyle.Render(p.folderLabel(st))
	lengths := mutedStyle.Render(fmt.Sprintf("focus %s  rest %s", formatCountdown(focus), formatCountdown(rest)))

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		timeDisplay,
		phaseLabel,
		indicator,
		"",
		folderLine,
		lengths,
	)

	var controls string
	switch {
	case st.Kind == pomodoro.Idle:
		controls = mutedStyle.Render("s: start  >: skip to rest  f: folder")
	case st.Paused:
		controls = mutedStyle.Render("space: resume  >: skip  x: reset  f: folder")
	default:
		controls = mutedStyle.Render("space: pause  >: skip  x: reset  f: folder")
	}

	panel := panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Center, content, "", controls))
	if p.picking {
		return lipgloss.JoinVertical(lipgloss.Left, panel, p.renderPicker(w))
	}
	return panel
}

func (p pomodoroModel) folderLabel(st pomodoro.State) string {
	name := st.Selected
	if st.Active() {
		name = st.Folder
	}
	if name == "" {
		return noFolderLabel
	}
	return name
}

func (p pomodoroModel) renderPicker(w int) string {
	var rows []string
	rows = append(rows, titleStyle.Render("Select Folder"))
	for i, name := range p.pickerOptions() {
		cursor := "  "
		style := normalItemStyle
		if i == p.pickerCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+name))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: select  esc: cancel"))

	return activePanelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
