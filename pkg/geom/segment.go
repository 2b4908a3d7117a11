// Package geom holds the planar predicates used by the track builder and
// by collision resolution. All coordinates live in the ground plane.
package geom

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type Alignment int

const (
	Left Alignment = iota
	Collinear
	Right
)

func (a Alignment) String() string {
	switch a {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "collinear"
	}
}

const colinearEpsilon = 1e-7

// Align classifies r against the directed line p->q by the sign of the
// cross product (q-p) x (r-p).
func Align(p, q, r mgl32.Vec2) Alignment {
	pq := q.Sub(p)
	pr := r.Sub(p)
	cross := pq.X()*pr.Y() - pq.Y()*pr.X()
	if mgl32.Abs(cross) < colinearEpsilon {
		return Collinear
	}
	if cross > 0 {
		return Right
	}
	return Left
}

// QueryTag marks transient segments that are never stored in an index.
const QueryTag uint8 = 255

type Segment struct {
	A   mgl32.Vec2
	B   mgl32.Vec2
	Tag uint8
}

func NewSegment(a, b mgl32.Vec2, tag uint8) Segment {
	return Segment{A: a, B: b, Tag: tag}
}

// NewQuerySegment builds a probe segment carrying QueryTag.
func NewQuerySegment(a, b mgl32.Vec2) Segment {
	return Segment{A: a, B: b, Tag: QueryTag}
}

func (s Segment) IsQuery() bool {
	return s.Tag == QueryTag
}

// Intersects reports a proper crossing: each segment's endpoints lie on
// different sides of the other one. Collinear configurations are not
// special-cased, so collinear overlap counts as no intersection unless the
// alignment results happen to differ.
func (s Segment) Intersects(o Segment) bool {
	qa := Align(s.A, s.B, o.A)
	qb := Align(s.A, s.B, o.B)
	pa := Align(o.A, o.B, s.A)
	pb := Align(o.A, o.B, s.B)
	return qa != qb && pa != pb
}

// Clips reports whether any endpoint of o lies strictly left of s.
func (s Segment) Clips(o Segment) bool {
	return Align(s.A, s.B, o.A) == Left || Align(s.A, s.B, o.B) == Left
}

// Mirror reflects x across the infinite line through s.
func (s Segment) Mirror(x mgl32.Vec2) mgl32.Vec2 {
	ee := s.B.Sub(s.A).Normalize()
	ff := mgl32.Vec2{-ee.Y(), ee.X()}
	mm := mgl32.Mat2FromCols(ee, ff).Transpose()
	mm = mm.Transpose().Mul2(mgl32.Diag2(mgl32.Vec2{1, -1})).Mul2(mm)
	return s.A.Add(mm.Mul2x1(x.Sub(s.A)))
}

// Point4 returns the index coordinates (a.x, b.x, a.y, b.y).
func (s Segment) Point4() [4]float32 {
	return [4]float32{s.A.X(), s.B.X(), s.A.Y(), s.B.Y()}
}

func (s Segment) String() string {
	return fmt.Sprintf("[%.3f,%.3f]->[%.3f,%.3f]#%d", s.A.X(), s.A.Y(), s.B.X(), s.B.Y(), s.Tag)
}
