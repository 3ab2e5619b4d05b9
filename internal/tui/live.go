// Package tui renders a live terminal view of a running ensemble forecast.
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/lorenz63/internal/dynamo"
	"github.com/san-kum/lorenz63/internal/model"
	"github.com/san-kum/lorenz63/internal/stats"
)

const historyCapacity = 160

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Live advances the forecast one update per frame and plots the ensemble
// mean of the x coordinate.
type Live struct {
	fc        *model.Model
	ens       dynamo.Ensemble
	interval  float64
	frameRate int

	t       float64
	update  int
	history []float64
	summary stats.Summary
	paused  bool
	err     error
}

func NewLive(fc *model.Model, ens dynamo.Ensemble, interval float64, frameRate int) Live {
	if frameRate <= 0 {
		frameRate = 30
	}
	return Live{
		fc:        fc,
		ens:       ens,
		interval:  interval,
		frameRate: frameRate,
		history:   make([]float64, 0, historyCapacity),
		summary:   stats.Summarize(ens),
	}
}

func (l Live) Init() tea.Cmd { return l.tick() }

func (l Live) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(l.frameRate), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (l Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return l, tea.Quit
		case " ":
			l.paused = !l.paused
		}
		return l, nil
	case TickMsg:
		if !l.paused && l.err == nil {
			l.step()
		}
		return l, l.tick()
	}
	return l, nil
}

func (l *Live) step() {
	out, err := l.fc.Advance(l.ens)
	if err != nil {
		l.err = err
		return
	}
	l.ens = out
	l.t += l.interval
	l.update++
	l.summary = stats.Summarize(l.ens)

	l.history = append(l.history, l.summary.Mean[0])
	if len(l.history) > historyCapacity {
		l.history = l.history[1:]
	}
}

func (l Live) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("lorenz63 ensemble forecast"))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}
	row("time", fmt.Sprintf("%.2f", l.t))
	row("update", fmt.Sprintf("%d", l.update))
	row("members", fmt.Sprintf("%d", l.ens.Len()))
	row("mean", fmt.Sprintf("(%.3f, %.3f, %.3f)", l.summary.Mean[0], l.summary.Mean[1], l.summary.Mean[2]))
	row("spread", fmt.Sprintf("(%.3f, %.3f, %.3f)", l.summary.Std[0], l.summary.Std[1], l.summary.Std[2]))

	if len(l.history) > 1 {
		graph := asciigraph.Plot(l.history,
			asciigraph.Height(12),
			asciigraph.Width(72),
			asciigraph.Caption("ensemble mean x"),
		)
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	if l.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("forecast stopped: %v", l.err)))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("space pause · q quit"))
	b.WriteString("\n")
	return b.String()
}
