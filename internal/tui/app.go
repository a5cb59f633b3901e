package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studyr/internal/export"
	"github.com/sadopc/studyr/internal/folders"
	"github.com/sadopc/studyr/internal/goals"
	"github.com/sadopc/studyr/internal/history"
	"github.com/sadopc/studyr/internal/pomodoro"
	"github.com/sadopc/studyr/internal/store"
)

// Services are the repositories and engine the views read and mutate.
type Services struct {
	Folders *folders.Repository
	History *history.Log
	Goals   *goals.Aggregator
	Engine  *pomodoro.Engine
	KV      store.KV // timer settings
	Clock   pomodoro.Clock

	// ExportDir receives history exports; empty means the home directory.
	ExportDir string
}

func (s Services) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

// App is the root Bubble Tea model.
type App struct {
	svc    Services
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	timer     timerModel
	dashboard dashboardModel
	pomodoro  pomodoroModel
	folders   foldersModel
	calendar  calendarModel
	history   historyModel
	reports   reportsModel
	settings  settingsModel

	help      help.Model
	status    string
	statusErr bool
}

// NewApp builds the root model. settings are the values currently applied to
// the engine and shown in the settings view.
func NewApp(ctx context.Context, svc Services, settings pomodoro.Settings) App {
	h := help.New()
	h.ShowAll = false

	t := newTimerModel(ctx, svc.Engine)
	return App{
		svc:        svc,
		activeView: viewToday,
		timer:      t,
		dashboard:  newDashboardModel(svc, t, settings.DailyGoal),
		pomodoro:   newPomodoroModel(t, svc.Folders),
		folders:    newFoldersModel(ctx, svc.Folders, svc.now),
		calendar:   newCalendarModel(svc, t),
		history:    newHistoryModel(svc, t),
		reports:    newReportsModel(svc, t, settings.DailyGoal),
		settings:   newSettingsModel(svc, t, settings),
		help:       h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.timer.listen(),
		a.dashboard.loadData(),
		a.pomodoro.refresh(),
	)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.pomodoro.setSize(a.width, contentHeight)
		a.folders.setSize(a.width, contentHeight)
		a.calendar.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewToday)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewTimer)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewFolders)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewCalendar)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewHistory)
		case key.Matches(msg, keys.Tab6):
			return a.switchTo(viewReports)
		case key.Matches(msg, keys.Tab7):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewCount)
		}

	case engineSignalMsg:
		return a, a.timer.handle(msg)

	case sessionDoneMsg:
		return a, tea.Batch(
			a.dashboard.loadData(),
			a.history.refresh(),
			a.calendar.refresh(),
			a.reports.refresh(),
		)

	case foldersChangedMsg:
		for _, name := range msg.deleted {
			a.timer.folderDeleted(name)
		}
		return a, tea.Batch(
			a.folders.refresh(),
			a.pomodoro.refresh(),
			a.dashboard.loadData(),
			a.calendar.refresh(),
		)

	case settingsSavedMsg:
		a.settings, cmd = a.settings.update(msg)
		a.applyGoal(msg.settings.DailyGoal)
		return a, tea.Batch(cmd, a.dashboard.loadData())

	case ConfigMsg:
		a.svc.Engine.SetDurations(msg.Focus, msg.Rest)
		a.settings.current = pomodoro.Settings{
			Focus:     pomodoro.HMSOf(msg.Focus),
			Rest:      pomodoro.HMSOf(msg.Rest),
			DailyGoal: msg.DailyGoal,
		}
		a.applyGoal(msg.DailyGoal)
		a.status = "Configuration reloaded"
		a.statusErr = false
		return a, a.dashboard.loadData()

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil

	// Data messages go to their view regardless of which one is showing.
	case dashboardDataMsg:
		a.dashboard, cmd = a.dashboard.update(msg)
		return a, cmd
	case pomodoroFoldersMsg:
		a.pomodoro, cmd = a.pomodoro.update(msg)
		return a, cmd
	case foldersDataMsg:
		a.folders, cmd = a.folders.update(msg)
		return a, cmd
	case calendarDataMsg:
		a.calendar, cmd = a.calendar.update(msg)
		return a, cmd
	case historyDataMsg:
		a.history, cmd = a.history.update(msg)
		return a, cmd
	case reportsDataMsg:
		a.reports, cmd = a.reports.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

func (a *App) applyGoal(goal float64) {
	a.dashboard.goal = goal
	a.reports.goal = goal
	a.reports.buildChart()
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewToday:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewTimer:
		a.pomodoro, cmd = a.pomodoro.update(msg)
	case viewFolders:
		a.folders, cmd = a.folders.update(msg)
	case viewCalendar:
		a.calendar, cmd = a.calendar.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewFolders:
		return a.folders.formActive
	case viewSettings:
		return a.settings.formActive
	case viewTimer:
		return a.pomodoro.formActive || a.pomodoro.picking
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewToday:
		return a.dashboard.loadData()
	case viewTimer:
		return a.pomodoro.refresh()
	case viewFolders:
		return a.folders.refresh()
	case viewCalendar:
		return a.calendar.refresh()
	case viewHistory:
		return a.history.refresh()
	case viewReports:
		return a.reports.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewToday:
		content = a.dashboard.view()
	case viewTimer:
		content = a.pomodoro.view()
	case viewFolders:
		content = a.folders.view()
	case viewCalendar:
		content = a.calendar.view()
	case viewHistory:
		content = a.history.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(1, a.height-headerHeight-footerHeight)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("studyr")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Countdown in footer while a session is live
	timerInfo := ""
	if st := a.timer.state(); st.Active() {
		remaining := formatCountdown(st.Display())
		timerInfo = kindStyle(st.Kind == pomodoro.Focus).Render(" ● " + remaining)
		if st.Paused {
			timerInfo = warningStyle.Render(" ⏸ " + remaining)
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	var rows []string
	rows = append(rows, titleStyle.Render("Export History"))
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) exportDir() string {
	if a.svc.ExportDir != "" {
		return a.svc.ExportDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func (a App) doExport(format int) tea.Cmd {
	ctx := a.timer.ctx
	dir := a.exportDir()
	dateStr := today(a.svc.now())
	return func() tea.Msg {
		entries, err := a.svc.History.LoadAll(ctx)
		if err != nil {
			return errStatus("Export error", err)
		}

		var path string
		if format == 0 {
			path = filepath.Join(dir, fmt.Sprintf("studyr-history-%s.csv", dateStr))
			if err := export.ToCSV(entries, path); err != nil {
				return errStatus("CSV error", err)
			}
		} else {
			path = filepath.Join(dir, fmt.Sprintf("studyr-history-%s.json", dateStr))
			if err := export.ToJSON(entries, path); err != nil {
				return errStatus("JSON error", err)
			}
		}

		return exportDoneMsg{path: path}
	}
}
