package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r2"
)

// kdPoint is a particle position tagged with its arena index.
type kdPoint struct {
	r2.Vec
	id int
}

func (p kdPoint) coord(d kdtree.Dim) float64 {
	if d == 0 {
		return p.X
	}
	return p.Y
}

func (p kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.coord(d) - c.(kdPoint).coord(d)
}

func (p kdPoint) Dims() int { return 2 }

// Distance is the squared euclidean distance, as for kdtree.Point.
func (p kdPoint) Distance(c kdtree.Comparable) float64 {
	return r2.Norm2(r2.Sub(p.Vec, c.(kdPoint).Vec))
}

type kdPoints []kdPoint

func (p kdPoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p kdPoints) Len() int                              { return len(p) }
func (p kdPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p kdPoints) Pivot(d kdtree.Dim) int {
	pl := kdPlane{kdPoints: p, Dim: d}
	return kdtree.Partition(pl, kdtree.MedianOfMedians(pl))
}

// kdPlane sorts points along one dimension for pivot selection.
type kdPlane struct {
	kdPoints
	kdtree.Dim
}

func (p kdPlane) Less(i, j int) bool {
	return p.kdPoints[i].coord(p.Dim) < p.kdPoints[j].coord(p.Dim)
}

func (p kdPlane) Swap(i, j int) {
	p.kdPoints[i], p.kdPoints[j] = p.kdPoints[j], p.kdPoints[i]
}

func (p kdPlane) Slice(start, end int) kdtree.SortSlicer {
	return kdPlane{kdPoints: p.kdPoints[start:end], Dim: p.Dim}
}

// KDTree answers radius queries with a gonum k-d tree. Build is O(N log N);
// it suits clustered clouds where grid buckets get crowded.
type KDTree struct {
	h      float64
	pos    []r2.Vec
	points kdPoints
	tree   *kdtree.Tree
}

func NewKDTree() *KDTree { return &KDTree{} }

func (t *KDTree) Build(pos []r2.Vec, h float64) {
	t.h, t.pos = h, pos
	t.points = t.points[:0]
	for i, p := range pos {
		t.points = append(t.points, kdPoint{Vec: p, id: i})
	}
	t.tree = nil
	if len(t.points) > 0 {
		// New partitions the slice in place; ids survive the reordering.
		t.tree = kdtree.New(t.points, false)
	}
}

func (t *KDTree) Query(i int, dst []Neighbor) []Neighbor {
	dst = append(dst[:0], Neighbor{ID: i})
	if t.tree == nil {
		return dst
	}
	keep := kdtree.NewDistKeeper(t.h * t.h)
	t.tree.NearestSet(keep, kdPoint{Vec: t.pos[i], id: i})
	for _, c := range keep.Heap {
		// DistKeeper seeds its heap with a nil sentinel at the radius.
		if c.Comparable == nil {
			continue
		}
		p := c.Comparable.(kdPoint)
		if p.id == i {
			continue
		}
		dst = append(dst, Neighbor{ID: p.id, Dist: math.Sqrt(c.Dist)})
	}
	sortNeighbors(dst, i)
	return dst
}
