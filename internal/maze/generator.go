// Package maze builds wall layouts for the fluid tank, either generated with
// a seeded recursive backtracker or parsed from rows of '0' and '1'.
package maze

import (
	"math/rand"
	"time"
)

// Cell types
const (
	Wall    = true
	Passage = false
)

type Point struct {
	X, Y int
}

// Grid is indexed [row][col].
type Grid [][]bool

type Config struct {
	Cols, Rows int

	// Braiding: 0.0 (perfect maze) to 1.0 (no dead ends). Braiding never
	// opens a 2x2 plaza or leaves a free-standing pillar.
	Braiding float64

	Seed int64 // 0 = time based
}

// Generate carves a maze from a grid full of walls. Even sizes are rounded
// down to the next odd number so that the border stays solid.
func Generate(cfg Config) Grid {
	rows := ensureOdd(cfg.Rows)
	cols := ensureOdd(cfg.Cols)

	grid := filled(rows, cols)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	carve(grid, Point{1, 1}, rng)
	if cfg.Braiding > 0 {
		braid(grid, cfg.Braiding, rng)
	}
	return grid
}

func filled(rows, cols int) Grid {
	grid := make(Grid, rows)
	for i := range grid {
		grid[i] = make([]bool, cols)
		for j := range grid[i] {
			grid[i][j] = Wall
		}
	}
	return grid
}

var (
	jumps = []Point{{0, -2}, {0, 2}, {-2, 0}, {2, 0}}
	steps = []Point{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}
)

// carve is an iterative backtracker. Rooms sit on odd coordinates and the
// walls between them on the even ones.
func carve(grid Grid, start Point, rng *rand.Rand) {
	rows, cols := len(grid), len(grid[0])

	stack := []Point{start}
	grid[start.Y][start.X] = Passage

	candidates := make([]Point, 0, 4)
	for len(stack) > 0 {
		curr := stack[len(stack)-1]
		candidates = candidates[:0]

		for _, d := range jumps {
			nx, ny := curr.X+d.X, curr.Y+d.Y
			if nx > 0 && nx < cols-1 && ny > 0 && ny < rows-1 && grid[ny][nx] == Wall {
				candidates = append(candidates, d)
			}
		}

		if len(candidates) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		d := candidates[rng.Intn(len(candidates))]
		grid[curr.Y+d.Y/2][curr.X+d.X/2] = Passage
		next := Point{curr.X + d.X, curr.Y + d.Y}
		grid[next.Y][next.X] = Passage
		stack = append(stack, next)
	}
}

// braid knocks a wall out of dead ends with the given probability.
func braid(grid Grid, probability float64, rng *rand.Rand) {
	rows, cols := len(grid), len(grid[0])

	for y := 1; y < rows-1; y += 2 {
		for x := 1; x < cols-1; x += 2 {
			if grid[y][x] == Wall {
				continue
			}

			exits := 0
			for _, d := range steps {
				if grid[y+d.Y][x+d.X] == Passage {
					exits++
				}
			}
			if exits != 1 || rng.Float64() >= probability {
				continue
			}

			candidates := make([]Point, 0, 4)
			for _, jd := range jumps {
				nx, ny := x+jd.X, y+jd.Y
				wx, wy := x+jd.X/2, y+jd.Y/2
				// The outer ring stays solid.
				if nx <= 0 || nx >= cols-1 || ny <= 0 || ny >= rows-1 {
					continue
				}
				if grid[ny][nx] == Passage && grid[wy][wx] == Wall && safeToOpen(grid, wx, wy) {
					candidates = append(candidates, Point{wx, wy})
				}
			}
			if len(candidates) > 0 {
				c := candidates[rng.Intn(len(candidates))]
				grid[c.Y][c.X] = Passage
			}
		}
	}
}

// safeToOpen reports whether turning (x, y) into a passage keeps every 2x2
// block partly walled and leaves no wall cell without a wall neighbor.
func safeToOpen(grid Grid, x, y int) bool {
	open := func(tx, ty int) bool { return grid.Open(tx, ty) }

	if open(x-1, y-1) && open(x, y-1) && open(x-1, y) ||
		open(x, y-1) && open(x+1, y-1) && open(x+1, y) ||
		open(x-1, y) && open(x-1, y+1) && open(x, y+1) ||
		open(x+1, y) && open(x, y+1) && open(x+1, y+1) {
		return false
	}

	for _, d := range steps {
		nx, ny := x+d.X, y+d.Y
		if !grid.in(nx, ny) || grid[ny][nx] != Wall {
			continue
		}
		connected := false
		for _, d2 := range steps {
			nnx, nny := nx+d2.X, ny+d2.Y
			if nnx == x && nny == y {
				continue
			}
			if grid.in(nnx, nny) && grid[nny][nnx] == Wall {
				connected = true
				break
			}
		}
		if !connected {
			return false
		}
	}
	return true
}

func ensureOdd(n int) int {
	if n < 3 {
		return 3
	}
	if n%2 == 0 {
		return n - 1
	}
	return n
}
