package maze

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

var ErrBadLayout = errors.New("maze: bad layout")

// Classic is a fixed 20x20 layout of nested corridors.
var Classic = []string{
	"11111111111111111111",
	"10000000000000000001",
	"10111011111111111101",
	"10101000000000000101",
	"10101111111011110101",
	"10101000000001000101",
	"10101011111010110101",
	"10101010000000100101",
	"10101010111111110101",
	"10101010100000000101",
	"10101010101111110101",
	"10101010101000000101",
	"10101010101011110101",
	"10101010101010000101",
	"10101010101010110101",
	"10101010101010100101",
	"10101010101010101001",
	"10101010101010101001",
	"10101010101010101001",
	"11111111111111111111",
}

// Parse reads one string per row, '1' for wall and '0' for passage. All rows
// must have the same length.
func Parse(layout []string) (Grid, error) {
	if len(layout) == 0 || len(layout[0]) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrBadLayout)
	}
	cols := len(layout[0])
	grid := make(Grid, len(layout))
	for y, row := range layout {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrBadLayout, y, len(row), cols)
		}
		grid[y] = make([]bool, cols)
		for x, c := range row {
			switch c {
			case '1':
				grid[y][x] = Wall
			case '0':
				grid[y][x] = Passage
			default:
				return nil, fmt.Errorf("%w: row %d col %d: unexpected %q", ErrBadLayout, y, x, c)
			}
		}
	}
	return grid, nil
}

func (g Grid) Rows() int { return len(g) }

func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

func (g Grid) in(x, y int) bool { return y >= 0 && y < len(g) && x >= 0 && x < len(g[y]) }

// Open reports whether (x, y) is a passage. Cells outside the grid are walls.
func (g Grid) Open(x, y int) bool { return g.in(x, y) && g[y][x] == Passage }

// Walls counts wall cells.
func (g Grid) Walls() int {
	n := 0
	for _, row := range g {
		for _, c := range row {
			if c == Wall {
				n++
			}
		}
	}
	return n
}

// Center returns the world position of the middle of cell p.
func Center(p Point, origin r2.Vec, cell float64) r2.Vec {
	return r2.Vec{
		X: origin.X + (float64(p.X)+0.5)*cell,
		Y: origin.Y + (float64(p.Y)+0.5)*cell,
	}
}

// Strings is the inverse of Parse.
func (g Grid) Strings() []string {
	out := make([]string, len(g))
	var b strings.Builder
	for y, row := range g {
		b.Reset()
		for _, c := range row {
			if c == Wall {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		out[y] = b.String()
	}
	return out
}

func (g Grid) String() string {
	var b strings.Builder
	for _, row := range g {
		for _, c := range row {
			if c == Wall {
				b.WriteString("██")
			} else {
				b.WriteString("  ")
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

type span struct{ x0, x1, y0 int }

// Rects turns the wall cells into axis-aligned rectangles of side cell,
// placed with the grid's top-left corner at origin. Horizontal runs are
// merged first; runs with the same columns in consecutive rows are then
// stacked into one rectangle. The result is ordered by top edge, then left
// edge.
func (g Grid) Rects(origin r2.Vec, cell float64) []r2.Box {
	var rects []r2.Box
	emit := func(s span, y1 int) {
		rects = append(rects, r2.Box{
			Min: r2.Vec{X: origin.X + float64(s.x0)*cell, Y: origin.Y + float64(s.y0)*cell},
			Max: r2.Vec{X: origin.X + float64(s.x1)*cell, Y: origin.Y + float64(y1)*cell},
		})
	}

	var open []span
	for y, row := range g {
		var next []span
		for x := 0; x < len(row); {
			if row[x] != Wall {
				x++
				continue
			}
			x0 := x
			for x < len(row) && row[x] == Wall {
				x++
			}
			s := span{x0: x0, x1: x, y0: y}
			if i := slices.IndexFunc(open, func(o span) bool { return o.x0 == x0 && o.x1 == x }); i >= 0 {
				s.y0 = open[i].y0
				open = slices.Delete(open, i, i+1)
			}
			next = append(next, s)
		}
		for _, s := range open {
			emit(s, y)
		}
		open = next
	}
	for _, s := range open {
		emit(s, len(g))
	}

	slices.SortFunc(rects, func(a, b r2.Box) int {
		if c := cmp.Compare(a.Min.Y, b.Min.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.Min.X, b.Min.X)
	})
	return rects
}
