package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/asora/internal/asora"
	"github.com/san-kum/asora/internal/viz"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type batchMsg asora.BatchEvent

type doneMsg struct {
	stats asora.Stats
	err   error
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type model struct {
	title   string
	batches int
	sources int

	done    int
	traced  int
	history []float64
	start   time.Time
	frame   int

	finished bool
	stats    asora.Stats
	err      error

	cancel context.CancelFunc
	width  int
}

func newModel(title string, batches, sources int, cancel context.CancelFunc) model {
	return model{
		title:   title,
		batches: batches,
		sources: sources,
		history: make([]float64, 0, batches),
		start:   time.Now(),
		cancel:  cancel,
		width:   60,
	}
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = max(msg.Width-10, 20)
	case batchMsg:
		m.done = msg.Batch + 1
		m.traced = msg.First + msg.Count
		m.history = append(m.history, msg.Elapsed.Seconds()*1000)
	case doneMsg:
		m.finished = true
		m.stats = msg.stats
		m.err = msg.err
		return m, tea.Quit
	case tickMsg:
		if m.finished {
			return m, nil
		}
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("  " + cyan.Render(m.title) + "\n")
	b.WriteString(dimmer.Render("  "+strings.Repeat("─", 40)) + "\n\n")

	frac := 1.0
	if m.batches > 0 {
		frac = float64(m.done) / float64(m.batches)
	}
	status := spinner[m.frame%len(spinner)]
	switch {
	case m.err != nil:
		status = red.Render("✗")
	case m.finished:
		status = green.Render("✓")
	}
	b.WriteString(fmt.Sprintf("  %s %s %s\n\n", status, viz.ProgressBar(frac, m.width), white.Render(fmt.Sprintf("%3.0f%%", frac*100))))

	b.WriteString("  " + dim.Render("batches ") + white.Render(fmt.Sprintf("%d/%d", m.done, m.batches)))
	b.WriteString("   " + dim.Render("sources ") + white.Render(fmt.Sprintf("%d/%d", m.traced, m.sources)))
	b.WriteString("   " + dim.Render("elapsed ") + white.Render(time.Since(m.start).Round(time.Millisecond).String()) + "\n")

	if len(m.history) > 0 {
		b.WriteString("  " + dim.Render("ms/batch ") + viz.Sparkline(m.history, min(m.width, 40)) + "\n")
	}

	if m.err != nil {
		b.WriteString("\n  " + red.Render(m.err.Error()) + "\n")
	} else if m.finished {
		b.WriteString("\n  " + green.Render(fmt.Sprintf("traced %d sources in %s", m.stats.Sources, m.stats.Elapsed.Round(time.Millisecond))) + "\n")
	}

	b.WriteString("\n" + dim.Render("  q cancel") + "\n")
	return b.String()
}

type sender interface {
	Send(msg tea.Msg)
}

// observer forwards batch events into a running program.
type observer struct {
	p sender
}

func (o observer) OnBatch(ev asora.BatchEvent) {
	o.p.Send(batchMsg(ev))
}

// RunFunc performs the traced work, reporting batches to obs.
type RunFunc func(ctx context.Context, obs asora.Observer) (asora.Stats, error)

// RunProgress shows a progress view while run executes. Quitting the view
// cancels ctx passed to run; RunProgress still waits for run to return.
func RunProgress(ctx context.Context, title string, batches, sources int, run RunFunc) (asora.Stats, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(title, batches, sources, cancel))
	result := make(chan doneMsg, 1)

	go func() {
		stats, err := run(ctx, observer{p})
		msg := doneMsg{stats: stats, err: err}
		result <- msg
		p.Send(msg)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-result
		return asora.Stats{}, err
	}
	msg := <-result
	return msg.stats, msg.err
}
