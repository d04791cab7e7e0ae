package scene

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// instance is an instance centre tagged with its position in the instance
// list so kd-tree results can be mapped back.
type instance struct {
	r3.Vec
	Index int
}

// Compare implements the kdtree.Comparable interface
func (p instance) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(instance)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	case 2:
		return p.Z - q.Z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the KD-tree
func (p instance) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two instances
func (p instance) Distance(c kdtree.Comparable) float64 {
	q := c.(instance)
	return r3.Norm2(r3.Sub(p.Vec, q.Vec))
}

type instances []instance

func (p instances) Index(i int) kdtree.Comparable         { return p[i] }
func (p instances) Len() int                              { return len(p) }
func (p instances) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p instances) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(plane{instances: p, Dim: d}, kdtree.MedianOfRandoms(plane{instances: p, Dim: d}, 100))
}

// plane implements kdtree.SortSlicer for instances
type plane struct {
	instances
	kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.instances[i].X < p.instances[j].X
	case 1:
		return p.instances[i].Y < p.instances[j].Y
	case 2:
		return p.instances[i].Z < p.instances[j].Z
	default:
		panic("illegal dimension")
	}
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{instances: p.instances[start:end], Dim: p.Dim}
}

func (p plane) Swap(i, j int) {
	p.instances[i], p.instances[j] = p.instances[j], p.instances[i]
}

// Index answers radius queries over instance centres in object-local space.
type Index struct {
	tree     *kdtree.Tree
	min, max r3.Vec
	size     int
}

func newIndex(centres []r3.Vec) *Index {
	idx := &Index{size: len(centres)}
	if len(centres) == 0 {
		return idx
	}

	pts := make(instances, len(centres))
	idx.min, idx.max = centres[0], centres[0]
	for i, c := range centres {
		pts[i] = instance{Vec: c, Index: i}
		idx.min = r3.Vec{X: min(idx.min.X, c.X), Y: min(idx.min.Y, c.Y), Z: min(idx.min.Z, c.Z)}
		idx.max = r3.Vec{X: max(idx.max.X, c.X), Y: max(idx.max.Y, c.Y), Z: max(idx.max.Z, c.Z)}
	}
	idx.tree = kdtree.New(pts, true)
	return idx
}

// Len returns the number of indexed instances.
func (x *Index) Len() int { return x.size }

// Bounds returns the axis-aligned box enclosing every instance centre.
func (x *Index) Bounds() (lo, hi r3.Vec) { return x.min, x.max }

// Within calls fn with the list index of every instance whose centre lies
// within radius of centre.
func (x *Index) Within(centre r3.Vec, radius float64, fn func(i int)) {
	if x.tree == nil {
		return
	}
	keeper := kdtree.NewDistKeeper(radius * radius)
	x.tree.NearestSet(keeper, instance{Vec: centre, Index: -1})
	for _, item := range keeper.Heap {
		// Skip the sentinel value
		if item.Comparable == nil {
			continue
		}
		fn(item.Comparable.(instance).Index)
	}
}
