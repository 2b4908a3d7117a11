// Package spatial provides the nearest-segment index used for collision
// queries. Segments are keyed by the 4-D point (a.x, b.x, a.y, b.y) and
// proximity is the squared euclidean distance between those keys.
package spatial

import (
	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/mpapenbr/splash-track/pkg/geom"
)

const dims = 4

// key is the kdtree representation of a segment.
type key struct {
	seg geom.Segment
	p   [dims]float64
}

func newKey(s geom.Segment) *key {
	p4 := s.Point4()
	k := &key{seg: s}
	for i := range p4 {
		k.p[i] = float64(p4[i])
	}
	return k
}

func (k *key) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return k.p[d] - c.(*key).p[d]
}

func (k *key) Dims() int { return dims }

func (k *key) Distance(c kdtree.Comparable) float64 {
	o := c.(*key)
	var sum float64
	for i := range k.p {
		d := k.p[i] - o.p[i]
		sum += d * d
	}
	return sum
}

type keys []*key

func (k keys) Index(i int) kdtree.Comparable { return k[i] }
func (k keys) Len() int                      { return len(k) }
func (k keys) Slice(start, end int) kdtree.Interface {
	return k[start:end]
}

func (k keys) Pivot(d kdtree.Dim) int {
	p := plane{keys: k, dim: d}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

// plane sorts keys along one dimension, used for pivot selection.
type plane struct {
	keys
	dim kdtree.Dim
}

func (p plane) Less(i, j int) bool { return p.keys[i].p[p.dim] < p.keys[j].p[p.dim] }
func (p plane) Swap(i, j int)      { p.keys[i], p.keys[j] = p.keys[j], p.keys[i] }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.keys = p.keys[start:end]
	return p
}

// Index is an immutable nearest-neighbor index over segments.
// A nil *Index behaves as an empty index.
// Concurrent readers are safe once New has returned.
type Index struct {
	tree     *kdtree.Tree
	segments []geom.Segment
}

// New builds an index over segs. The input slice is copied.
func New(segs []geom.Segment) *Index {
	idx := &Index{segments: make([]geom.Segment, len(segs))}
	copy(idx.segments, segs)
	if len(segs) == 0 {
		return idx
	}
	k := make(keys, len(segs))
	for i := range segs {
		k[i] = newKey(segs[i])
	}
	idx.tree = kdtree.New(k, false)
	return idx
}

func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.segments)
}

func (idx *Index) IsEmpty() bool {
	return idx.Len() == 0
}

// Nearest returns the indexed segment closest to q. The second result is
// false when the index is empty.
func (idx *Index) Nearest(q geom.Segment) (geom.Segment, bool) {
	if idx.IsEmpty() {
		return geom.Segment{}, false
	}
	found, _ := idx.tree.Nearest(newKey(q))
	if found == nil {
		return geom.Segment{}, false
	}
	return found.(*key).seg, true
}

// Segments returns a copy of the indexed segments in insertion order.
func (idx *Index) Segments() []geom.Segment {
	if idx == nil {
		return nil
	}
	ret := make([]geom.Segment, len(idx.segments))
	copy(ret, idx.segments)
	return ret
}
