package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studyr/internal/pomodoro"
)

type settingsModel struct {
	svc    Services
	timer  timerModel
	width  int
	height int

	current    pomodoro.Settings
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	focusH, focusM, focusS *string
	restH, restM, restS    *string
	dailyGoal              *string
}

// settingsSavedMsg carries settings that were persisted and applied.
type settingsSavedMsg struct {
	settings pomodoro.Settings
}

func newSettingsModel(svc Services, t timerModel, current pomodoro.Settings) settingsModel {
	fh, fm, fs, rh, rm, rs, dg := "", "", "", "", "", "", ""
	return settingsModel{
		svc:       svc,
		timer:     t,
		current:   current,
		focusH:    &fh,
		focusM:    &fm,
		focusS:    &fs,
		restH:     &rh,
		restM:     &rm,
		restS:     &rs,
		dailyGoal: &dg,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsSavedMsg:
		s.current = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func intRange(field string, lo, hi int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < lo || n > hi {
			return fmt.Errorf("%s must be %d-%d", field, lo, hi)
		}
		return nil
	}
}

// secondsOf validates the seconds field and rejects a zero total length.
func secondsOf(field string, h, m *string) func(string) error {
	inRange := intRange("seconds", 0, 59)
	return func(v string) error {
		if err := inRange(v); err != nil {
			return err
		}
		if atoi(*h) == 0 && atoi(*m) == 0 && atoi(v) == 0 {
			return fmt.Errorf("%s length must be at least one second", field)
		}
		return nil
	}
}

func validGoal(v string) error {
	n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || n < 0 {
		return fmt.Errorf("goal must be a non-negative number of minutes")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	f, r := s.current.Focus, s.current.Rest
	*s.focusH, *s.focusM, *s.focusS = strconv.Itoa(f.H), strconv.Itoa(f.M), strconv.Itoa(f.S)
	*s.restH, *s.restM, *s.restS = strconv.Itoa(r.H), strconv.Itoa(r.M), strconv.Itoa(r.S)
	*s.dailyGoal = strconv.FormatFloat(s.current.DailyGoal, 'f', -1, 64)

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Hours (0-24)").Value(s.focusH).Validate(intRange("hours", 0, 24)),
			huh.NewInput().Title("Minutes (0-59)").Value(s.focusM).Validate(intRange("minutes", 0, 59)),
			huh.NewInput().Title("Seconds (0-59)").Value(s.focusS).Validate(secondsOf("focus", s.focusH, s.focusM)),
		).Title("Focus"),
		huh.NewGroup(
			huh.NewInput().Title("Hours (0-24)").Value(s.restH).Validate(intRange("hours", 0, 24)),
			huh.NewInput().Title("Minutes (0-59)").Value(s.restM).Validate(intRange("minutes", 0, 59)),
			huh.NewInput().Title("Seconds (0-59)").Value(s.restS).Validate(secondsOf("rest", s.restH, s.restM)),
		).Title("Rest"),
		huh.NewGroup(
			huh.NewInput().Title("Daily goal (minutes)").Value(s.dailyGoal).Validate(validGoal),
		).Title("Goals"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		return s, s.save(s.formSettings())
	}

	return s, cmd
}

func atoi(v string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(v))
	return n
}

func (s settingsModel) formSettings() pomodoro.Settings {
	goal, _ := strconv.ParseFloat(strings.TrimSpace(*s.dailyGoal), 64)
	return pomodoro.Settings{
		Focus:     pomodoro.HMS{H: atoi(*s.focusH), M: atoi(*s.focusM), S: atoi(*s.focusS)},
		Rest:      pomodoro.HMS{H: atoi(*s.restH), M: atoi(*s.restM), S: atoi(*s.restS)},
		DailyGoal: goal,
	}
}

// save persists the settings and applies the durations to the engine. The
// running session keeps its length; new values apply from the next one.
func (s settingsModel) save(next pomodoro.Settings) tea.Cmd {
	if err := pomodoro.SaveSettings(s.timer.ctx, s.svc.KV, next); err != nil {
		return func() tea.Msg { return errStatus("Settings not saved", err) }
	}
	s.timer.engine.SetDurations(next.Focus.Duration(), next.Rest.Duration())
	return tea.Batch(
		func() tea.Msg { return settingsSavedMsg{settings: next} },
		func() tea.Msg { return statusMsg{text: "Settings saved"} },
	)
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	focus, rest := s.timer.engine.Durations()
	label := lipgloss.NewStyle().Width(24)

	rows := []string{
		title,
		"",
		fmt.Sprintf("  %s %s", label.Render("Focus length"), highlightStyle.Render(s.current.Focus.String())),
		fmt.Sprintf("  %s %s", label.Render("Rest length"), highlightStyle.Render(s.current.Rest.String())),
		fmt.Sprintf("  %s %s", label.Render("Daily goal"), highlightStyle.Render(formatMinutes(s.current.DailyGoal))),
		"",
		mutedStyle.Render(fmt.Sprintf("  Engine: focus %s, rest %s", formatDuration(focus), formatDuration(rest))),
		"",
		mutedStyle.Render("Press enter to edit settings"),
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
