package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studyr/internal/goals"
)

type reportMode int

const (
	reportWeek reportMode = iota
	reportMonth
)

func (m reportMode) days() int {
	if m == reportMonth {
		return 30
	}
	return 7
}

type reportsModel struct {
	svc    Services
	timer  timerModel
	width  int
	height int

	mode   reportMode
	offset int // ranges back from today (0 = current)
	goal   float64
	totals goals.Totals
	days   []goals.Day

	chart barchart.Model
}

func newReportsModel(svc Services, t timerModel, goal float64) reportsModel {
	return reportsModel{
		svc:   svc,
		timer: t,
		goal:  goal,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
}

type reportsDataMsg struct {
	totals goals.Totals
	err    error
}

func (r reportsModel) refresh() tea.Cmd {
	ctx := r.timer.ctx
	return func() tea.Msg {
		totals, err := r.svc.Goals.Totals(ctx)
		return reportsDataMsg{totals: totals, err: err}
	}
}

// rangeEnd is the last day of the displayed range.
func (r reportsModel) rangeEnd() time.Time {
	return r.svc.now().AddDate(0, 0, -r.mode.days()*r.offset)
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case reportsDataMsg:
		if msg.err != nil {
			return r, func() tea.Msg { return errStatus("Reports", msg.err) }
		}
		r.totals = msg.totals
		r.buildChart()
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			r.buildChart()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			r.buildChart()
		case key.Matches(msg, keys.Enter):
			if r.mode == reportWeek {
				r.mode = reportMonth
			} else {
				r.mode = reportWeek
			}
			r.offset = 0
			r.buildChart()
		}
	}
	return r, nil
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)
	r.days = goals.Range(r.totals, r.rangeEnd(), r.mode.days())

	var bars []barchart.BarData
	for _, d := range r.days {
		label := d.Date.Format("Mon")
		if r.mode == reportMonth {
			label = d.Date.Format("02")
		}

		color := colorFocus
		if r.goal > 0 && d.Minutes >= r.goal {
			color = colorSuccess
		}
		if d.Minutes == 0 {
			color = colorSubtle
		}

		bars = append(bars, barchart.BarData{
			Label: label,
			Values: []barchart.BarValue{{
				Name:  "focus",
				Value: d.Minutes,
				Style: lipgloss.NewStyle().Foreground(color),
			}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	weekTab := inactiveTabStyle.Render("7 days")
	monthTab := inactiveTabStyle.Render("30 days")
	if r.mode == reportWeek {
		weekTab = activeTabStyle.Render("7 days")
	} else {
		monthTab = activeTabStyle.Render("30 days")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, weekTab, monthTab)

	var dateLabel string
	if len(r.days) > 0 {
		first, last := r.days[0].Date, r.days[len(r.days)-1].Date
		dateLabel = mutedStyle.Render(fmt.Sprintf("%s to %s", first.Format("Jan 02"), last.Format("Jan 02, 2006")))
	}

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Focus Minutes"), "  ", modeTabs, "  ", dateLabel,
	)

	nav := mutedStyle.Render("  ←/→: navigate  enter: switch range")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", r.chart.View(), "", r.renderSummary(), "", nav,
		),
	)
}

func (r reportsModel) renderSummary() string {
	var total float64
	var met, active int
	for _, d := range r.days {
		total += d.Minutes
		if d.Minutes > 0 {
			active++
		}
		if r.goal > 0 && d.Minutes >= r.goal {
			met++
		}
	}
	if active == 0 {
		return mutedStyle.Render("  No focus time in this range")
	}

	rows := []string{
		fmt.Sprintf("  Total   %s", highlightStyle.Render(formatMinutes(total))),
		fmt.Sprintf("  Average %s per active day", highlightStyle.Render(formatMinutes(total/float64(active)))),
	}
	if r.goal > 0 {
		rows = append(rows, fmt.Sprintf("  Goal    %s met on %d of %d days",
			formatMinutes(r.goal), met, len(r.days)))
		rows = append(rows, fmt.Sprintf("  Streak  %d day(s)", goals.Streak(r.totals, r.svc.now(), r.goal)))
	}
	return strings.Join(rows, "\n")
}
