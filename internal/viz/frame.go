package viz

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/fluidsim/internal/fluid"
	"gonum.org/v1/gonum/spatial/r2"
)

// Cell shading bands. A cell takes the fastest band drawn into it.
const (
	bandNone int8 = iota
	bandWall
	bandSlow
	bandMid
	bandFast
)

// Frame projects the tank onto a braille canvas. The domain is stretched to
// fill the canvas on both axes.
type Frame struct {
	canvas *Canvas
	band   [][]int8
}

func NewFrame(cols, rows int) *Frame {
	f := &Frame{canvas: NewCanvas(cols, rows), band: make([][]int8, rows)}
	for i := range f.band {
		f.band[i] = make([]int8, cols)
	}
	return f
}

func (f *Frame) Canvas() *Canvas { return f.canvas }

// project maps a world position to sub-pixel coordinates.
func (f *Frame) project(p r2.Vec, dom r2.Box) (int, int) {
	w, h := f.canvas.Dots()
	sx := (p.X - dom.Min.X) / (dom.Max.X - dom.Min.X) * float64(w-1)
	sy := (p.Y - dom.Min.Y) / (dom.Max.Y - dom.Min.Y) * float64(h-1)
	return int(math.Round(sx)), int(math.Round(sy))
}

func (f *Frame) mark(x, y int, band int8) {
	if row, col, ok := f.canvas.cell(x, y); ok && band > f.band[row][col] {
		f.band[row][col] = band
	}
}

// Draw replaces the frame contents with snap.
func (f *Frame) Draw(snap fluid.Snapshot) {
	f.canvas.Clear()
	for i := range f.band {
		clear(f.band[i])
	}

	for _, o := range snap.Obstacles {
		x0, y0 := f.project(o.Min, snap.Domain)
		x1, y1 := f.project(o.Max, snap.Domain)
		f.canvas.Rect(x0, y0, x1, y1)
		for y := y0; y <= y1; y += 4 {
			for x := x0; x <= x1; x += 2 {
				f.mark(x, y, bandWall)
			}
		}
		f.mark(x1, y1, bandWall)
	}

	vmax := 0.0
	for i := range snap.Velocities {
		vmax = math.Max(vmax, snap.Speed(i))
	}
	for i, p := range snap.Positions {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}
		x, y := f.project(p, snap.Domain)
		f.canvas.Set(x, y)
		f.mark(x, y, speedBand(snap.Speed(i), vmax))
	}
}

func speedBand(v, vmax float64) int8 {
	if !(vmax > 0) {
		return bandSlow
	}
	switch r := v / vmax; {
	case r > 2.0/3:
		return bandFast
	case r > 1.0/3:
		return bandMid
	}
	return bandSlow
}

// Plain returns the canvas without color.
func (f *Frame) Plain() string { return f.canvas.String() }

// Styled colors every cell by its band using the theme. Runs of equal band
// share one style call.
func (f *Frame) Styled(t Theme) string {
	styles := [...]lipgloss.Style{
		bandNone: lipgloss.NewStyle(),
		bandWall: lipgloss.NewStyle().Foreground(t.Muted),
		bandSlow: lipgloss.NewStyle().Foreground(t.Secondary),
		bandMid:  lipgloss.NewStyle().Foreground(t.Warning),
		bandFast: lipgloss.NewStyle().Foreground(t.Error),
	}

	var b strings.Builder
	for row, cells := range f.canvas.Grid {
		start := 0
		for col := 1; col <= len(cells); col++ {
			if col < len(cells) && f.band[row][col] == f.band[row][start] {
				continue
			}
			b.WriteString(styles[f.band[row][start]].Render(string(cells[start:col])))
			start = col
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Printer is a sim.Renderer that writes every Nth frame to w, homing the
// cursor first so frames overwrite each other on a terminal.
type Printer struct {
	w     io.Writer
	frame *Frame
	every int
}

func NewPrinter(w io.Writer, cols, rows, every int) *Printer {
	return &Printer{w: w, frame: NewFrame(cols, rows), every: max(every, 1)}
}

func (p *Printer) Render(snap fluid.Snapshot) error {
	if snap.Tick%p.every != 0 {
		return nil
	}
	p.frame.Draw(snap)
	_, err := fmt.Fprintf(p.w, "\x1b[H%stick %d  t=%.2f  particles %d/%d\n",
		p.frame.Plain(), snap.Tick, snap.Time, snap.Len(), snap.Capacity)
	return err
}
