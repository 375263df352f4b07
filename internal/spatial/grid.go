package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

type cellKey struct{ x, y int }

// Grid is a uniform hash grid with cell size equal to the query radius, so a
// query only scans the 3x3 block of cells around the particle. Build is O(N).
type Grid struct {
	h     float64
	pos   []r2.Vec
	cells map[cellKey][]int
}

func NewGrid() *Grid {
	return &Grid{cells: make(map[cellKey][]int)}
}

func (g *Grid) key(p r2.Vec) cellKey {
	return cellKey{int(math.Floor(p.X / g.h)), int(math.Floor(p.Y / g.h))}
}

// clear empties every bucket while keeping its capacity. Buckets that stayed
// empty for a whole tick are dropped so the map tracks the live footprint.
func (g *Grid) clear() {
	for k, ids := range g.cells {
		if len(ids) == 0 {
			delete(g.cells, k)
			continue
		}
		g.cells[k] = ids[:0]
	}
}

func (g *Grid) Build(pos []r2.Vec, h float64) {
	g.h, g.pos = h, pos
	g.clear()
	for i, p := range pos {
		k := g.key(p)
		g.cells[k] = append(g.cells[k], i)
	}
}

func (g *Grid) Query(i int, dst []Neighbor) []Neighbor {
	dst = append(dst[:0], Neighbor{ID: i})
	p := g.pos[i]
	c := g.key(p)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			for _, j := range g.cells[cellKey{c.x + dx, c.y + dy}] {
				if j == i {
					continue
				}
				dst = appendWithin(dst, p, g.pos[j], j, g.h)
			}
		}
	}
	sortNeighbors(dst, i)
	return dst
}

// Cells reports the number of occupied buckets.
func (g *Grid) Cells() int {
	n := 0
	for _, ids := range g.cells {
		if len(ids) > 0 {
			n++
		}
	}
	return n
}
