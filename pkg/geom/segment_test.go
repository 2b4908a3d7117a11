package geom

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func v(x, y float32) mgl32.Vec2 { return mgl32.Vec2{x, y} }

func TestAlign(t *testing.T) {
	tests := []struct {
		name    string
		p, q, r mgl32.Vec2
		want    Alignment
	}{
		{"counter clockwise", v(0, 0), v(1, 0), v(0, 1), Right},
		{"clockwise", v(0, 0), v(1, 0), v(0, -1), Left},
		{"on the line", v(0, 0), v(1, 0), v(5, 0), Collinear},
		{"below epsilon", v(0, 0), v(1, 0), v(2, 5e-8), Collinear},
		{"degenerate base", v(1, 1), v(1, 1), v(3, 4), Collinear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Align(tt.p, tt.q, tt.r))
		})
	}
}

func TestSegment_Intersects(t *testing.T) {
	tests := []struct {
		name string
		a, b Segment
		want bool
	}{
		{
			name: "proper crossing",
			a:    NewSegment(v(0, 0), v(2, 2), 0),
			b:    NewQuerySegment(v(0, 2), v(2, 0)),
			want: true,
		},
		{
			name: "disjoint",
			a:    NewSegment(v(0, 0), v(1, 0), 0),
			b:    NewQuerySegment(v(2, 1), v(2, -1)),
			want: false,
		},
		{
			name: "line crossed outside of the segment",
			a:    NewSegment(v(0, 0), v(1, 0), 0),
			b:    NewQuerySegment(v(0.5, 1), v(0.5, 0.2)),
			want: false,
		},
		{
			// collinear overlap is reported as no intersection, kept as is
			name: "collinear overlap",
			a:    NewSegment(v(0, 0), v(2, 0), 0),
			b:    NewQuerySegment(v(1, 0), v(3, 0)),
			want: false,
		},
		{
			name: "endpoint touching",
			a:    NewSegment(v(0, 0), v(2, 0), 0),
			b:    NewQuerySegment(v(1, 0), v(1, 1)),
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Intersects(tt.b))
			assert.Equal(t, tt.want, tt.b.Intersects(tt.a), "symmetry")
		})
	}
}

func TestSegment_IntersectsSymmetric(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	p := func() mgl32.Vec2 { return v(rnd.Float32()*10-5, rnd.Float32()*10-5) }
	for i := 0; i < 2000; i++ {
		a := NewSegment(p(), p(), 0)
		b := NewQuerySegment(p(), p())
		if a.A.ApproxEqual(a.B) || b.A.ApproxEqual(b.B) {
			continue
		}
		assert.Equal(t, a.Intersects(b), b.Intersects(a), "pair %v %v", a, b)
	}
}

func TestSegment_Clips(t *testing.T) {
	s := NewSegment(v(0, 0), v(1, 0), 0)
	assert.True(t, s.Clips(NewQuerySegment(v(0.5, 1), v(0.5, -1))))
	assert.True(t, s.Clips(NewQuerySegment(v(0.5, -1), v(0.5, -2))))
	assert.False(t, s.Clips(NewQuerySegment(v(0.5, 1), v(0.6, 2))))
	assert.False(t, s.Clips(NewQuerySegment(v(3, 0), v(4, 0))))
}

func TestSegment_Mirror(t *testing.T) {
	tests := []struct {
		name string
		seg  Segment
		in   mgl32.Vec2
		want mgl32.Vec2
	}{
		{"x axis", NewSegment(v(0, 0), v(1, 0), 0), v(3, 2), v(3, -2)},
		{"diagonal", NewSegment(v(0, 0), v(1, 1), 0), v(1, 0), v(0, 1)},
		{"offset line", NewSegment(v(0, 1), v(5, 1), 1), v(2, 3), v(2, -1)},
		{"point on the line", NewSegment(v(0, 1), v(5, 1), 1), v(-2, 1), v(-2, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.seg.Mirror(tt.in)
			assert.InDelta(t, tt.want.X(), got.X(), 1e-5)
			assert.InDelta(t, tt.want.Y(), got.Y(), 1e-5)
		})
	}
}

func TestSegment_MirrorInvolution(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	p := func() mgl32.Vec2 { return v(rnd.Float32()*20-10, rnd.Float32()*20-10) }
	for i := 0; i < 500; i++ {
		s := NewSegment(p(), p(), 1)
		if s.B.Sub(s.A).Len() < 1e-2 {
			continue
		}
		x := p()
		back := s.Mirror(s.Mirror(x))
		assert.InDelta(t, x.X(), back.X(), 1e-3)
		assert.InDelta(t, x.Y(), back.Y(), 1e-3)
	}
}

func TestSegment_Point4(t *testing.T) {
	s := NewSegment(v(1, 2), v(3, 4), 0)
	assert.Equal(t, [4]float32{1, 3, 2, 4}, s.Point4())
	assert.False(t, s.IsQuery())
	assert.True(t, NewQuerySegment(v(0, 0), v(1, 1)).IsQuery())
}
