// Package spatial answers fixed-radius neighbor queries over a particle cloud.
//
// Every [Index] is rebuilt from scratch each tick with [Index.Build] and is
// read-only afterwards, so [Index.Query] may be called from many goroutines at
// once. Query results always hold the queried particle itself first at
// distance 0, followed by the other particles within the radius in ascending
// distance order (ties by id). Coincident particles are reported, not merged.
package spatial

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// Neighbor is one entry of a neighbor list.
type Neighbor struct {
	ID   int
	Dist float64
}

// Index is a rebuildable radius-neighbor structure.
type Index interface {
	// Build indexes pos for queries of radius h. pos is retained until the
	// next Build and must not be mutated in between.
	Build(pos []r2.Vec, h float64)
	// Query appends the neighbors of particle i to dst[:0] and returns it.
	Query(i int, dst []Neighbor) []Neighbor
}

// Index kinds accepted by New.
const (
	KindGrid   = "grid"
	KindKDTree = "kdtree"
	KindBrute  = "brute"
)

// Kinds lists the accepted index kinds.
func Kinds() []string { return []string{KindGrid, KindKDTree, KindBrute} }

// New returns an empty index of the given kind. An empty kind selects the grid.
func New(kind string) (Index, error) {
	switch kind {
	case "", KindGrid:
		return NewGrid(), nil
	case KindKDTree:
		return NewKDTree(), nil
	case KindBrute:
		return NewBruteForce(), nil
	}
	return nil, fmt.Errorf("spatial: unknown index kind %q", kind)
}

// appendWithin appends j to dst when it lies within h of p.
func appendWithin(dst []Neighbor, p, q r2.Vec, j int, h float64) []Neighbor {
	d := math.Sqrt(r2.Norm2(r2.Sub(p, q)))
	if d <= h {
		dst = append(dst, Neighbor{ID: j, Dist: d})
	}
	return dst
}

// sortNeighbors orders dst with self first, then by distance and id.
func sortNeighbors(dst []Neighbor, self int) {
	slices.SortFunc(dst, func(a, b Neighbor) int {
		switch {
		case a.ID == self && b.ID == self:
			return 0
		case a.ID == self:
			return -1
		case b.ID == self:
			return 1
		}
		if c := cmp.Compare(a.Dist, b.Dist); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// BruteForce compares every pair. It is the reference the other indices are
// tested against and is adequate for a few dozen particles.
type BruteForce struct {
	pos []r2.Vec
	h   float64
}

func NewBruteForce() *BruteForce { return &BruteForce{} }

func (b *BruteForce) Build(pos []r2.Vec, h float64) {
	b.pos, b.h = pos, h
}

func (b *BruteForce) Query(i int, dst []Neighbor) []Neighbor {
	dst = append(dst[:0], Neighbor{ID: i})
	p := b.pos[i]
	for j, q := range b.pos {
		if j == i {
			continue
		}
		dst = appendWithin(dst, p, q, j, b.h)
	}
	sortNeighbors(dst, i)
	return dst
}
