package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fluidsim/internal/sim"
)

const (
	canvasCols      = 80
	canvasRows      = 30
	historyCapacity = 300
	maxStepsPerTick = 32
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(46)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

type TickMsg time.Time

func nextFrame() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a sim.Loop from the Bubble Tea event loop and draws every frame.
type Model struct {
	ctx      context.Context
	loop     *sim.Loop
	name     string
	frame    *Frame
	running  bool
	steps    int
	energy   []float64
	speed    []float64
	err      error
	showHelp bool
}

func NewModel(ctx context.Context, loop *sim.Loop, name string) Model {
	m := Model{
		ctx:     ctx,
		loop:    loop,
		name:    name,
		frame:   NewFrame(canvasCols, canvasRows),
		running: true,
		steps:   1,
		energy:  make([]float64, 0, historyCapacity),
		speed:   make([]float64, 0, historyCapacity),
	}
	m.frame.Draw(loop.Simulation().Snapshot())
	return m
}

func (m Model) Init() tea.Cmd { return nextFrame() }

// Err returns the error that stopped the loop, if any.
func (m Model) Err() error { return m.err }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.loop.Terminate()
			return m, tea.Quit
		case " ":
			m.running = !m.running && m.err == nil
		case "s":
			if !m.running {
				m.advance(1)
			}
		case "+", "=":
			m.steps = min(m.steps*2, maxStepsPerTick)
		case "-", "_":
			m.steps = max(m.steps/2, 1)
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance(m.steps)
		}
		return m, nextFrame()
	}
	return m, nil
}

// advance runs n ticks, stopping at the first error.
func (m *Model) advance(n int) {
	if m.err != nil {
		return
	}
	for i := 0; i < n; i++ {
		if err := m.loop.Step(m.ctx); err != nil {
			m.err = err
			m.running = false
			break
		}
	}
	last := m.loop.Last()
	m.energy = pushBounded(m.energy, last.KineticEnergy)
	m.speed = pushBounded(m.speed, last.MaxSpeed)
	m.frame.Draw(m.loop.Simulation().Snapshot())
}

func pushBounded(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return StatusFailed.Render("STOPPED")
	case m.running:
		return StatusRunning.Render("RUNNING")
	}
	return StatusPaused.Render("PAUSED")
}

func row(label, value string) string {
	return MetricLabel.Render(label) + MetricValue.Render(value) + "\n"
}

func (m Model) View() string {
	s := m.loop.Simulation()
	last := m.loop.Last()
	capacity := s.Particles().Cap()

	var b strings.Builder
	b.WriteString(Title.Render(strings.ToUpper(m.name)) + "  " + m.status() + "\n\n")
	b.WriteString(row("Tick", fmt.Sprintf("%d", s.Ticks())))
	b.WriteString(row("Time", fmt.Sprintf("%.2fs", float64(s.Ticks())*s.Params().Dt)))
	b.WriteString(row("Particles", fmt.Sprintf("%d/%d", s.Active(), capacity)))
	b.WriteString(MetricLabel.Render("") + ProgressBar(float64(s.Active())/float64(capacity), 24) + "\n")
	b.WriteString(row("Kinetic", fmt.Sprintf("%.4g", last.KineticEnergy)))
	b.WriteString(row("Max speed", fmt.Sprintf("%.4g", last.MaxSpeed)))
	b.WriteString(row("Mean rho", fmt.Sprintf("%.4g", last.MeanDensity)))
	b.WriteString(row("Step", fmt.Sprintf("%dµs x%d", last.StepMicros, m.steps)))

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(5), asciigraph.Width(32), asciigraph.Caption("Kinetic energy"))
		b.WriteString(graphStyle.Render(chart) + "\n")
	}
	b.WriteString(MetricLabel.Render("Speed") + SparklineChart(m.speed, 28) + "\n")

	if m.err != nil {
		b.WriteString("\n" + StatusFailed.Render(wrap(m.err.Error(), 40)) + "\n")
	}
	b.WriteString(KeyHint.Render("\nSP:Pause S:Step +/-:Speed\nT:Theme ?:Help Q:Quit"))

	canvasView := canvasStyle.Render(m.frame.Styled(CurrentTheme))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(b.String()))
	if m.showHelp {
		return Panel.Render(strings.Join([]string{
			Title.Render("KEYBOARD SHORTCUTS"),
			"Space  pause/resume",
			"S      single step while paused",
			"+ / -  double or halve ticks per frame",
			"T      cycle themes (" + CurrentTheme.Name + ")",
			"?      toggle this help",
			"Q      quit",
		}, "\n")) + "\n\n" + mainView
	}
	return mainView
}

func wrap(s string, width int) string {
	var lines []string
	for len(s) > width {
		cut := strings.LastIndex(s[:width], " ")
		if cut <= 0 {
			cut = width
		}
		lines = append(lines, s[:cut])
		s = strings.TrimLeft(s[cut:], " ")
	}
	return strings.Join(append(lines, s), "\n")
}
