package spatial

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/splash-track/pkg/geom"
)

func dist4(a, b geom.Segment) float64 {
	pa, pb := a.Point4(), b.Point4()
	var sum float64
	for i := range pa {
		d := float64(pa[i]) - float64(pb[i])
		sum += d * d
	}
	return sum
}

func randomSegments(rnd *rand.Rand, n int) []geom.Segment {
	p := func() mgl32.Vec2 {
		return mgl32.Vec2{rnd.Float32()*40 - 20, rnd.Float32()*40 - 20}
	}
	ret := make([]geom.Segment, n)
	for i := range ret {
		ret[i] = geom.NewSegment(p(), p(), uint8(i%2))
	}
	return ret
}

func TestEmptyIndex(t *testing.T) {
	var nilIdx *Index
	tests := []struct {
		name string
		idx  *Index
	}{
		{"nil", nilIdx},
		{"no segments", New(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.idx.IsEmpty())
			assert.Equal(t, 0, tt.idx.Len())
			_, ok := tt.idx.Nearest(geom.NewQuerySegment(mgl32.Vec2{}, mgl32.Vec2{1, 1}))
			assert.False(t, ok)
		})
	}
}

func TestNearest_matchesBruteForce(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	segs := randomSegments(rnd, 300)
	idx := New(segs)
	require.Equal(t, len(segs), idx.Len())

	for i := 0; i < 200; i++ {
		q := randomSegments(rnd, 1)[0]
		q.Tag = geom.QueryTag
		got, ok := idx.Nearest(q)
		require.True(t, ok)

		best := dist4(segs[0], q)
		for _, s := range segs[1:] {
			if d := dist4(s, q); d < best {
				best = d
			}
		}
		assert.InDelta(t, best, dist4(got, q), 1e-6)
		assert.False(t, got.IsQuery())
	}
}

func TestNearest_exactHit(t *testing.T) {
	segs := []geom.Segment{
		geom.NewSegment(mgl32.Vec2{0, 0}, mgl32.Vec2{0, 1}, 0),
		geom.NewSegment(mgl32.Vec2{2, 1}, mgl32.Vec2{2, 0}, 1),
		geom.NewSegment(mgl32.Vec2{5, 5}, mgl32.Vec2{6, 5}, 1),
	}
	idx := New(segs)
	got, ok := idx.Nearest(geom.NewQuerySegment(mgl32.Vec2{1.9, 1}, mgl32.Vec2{2.1, 0}))
	require.True(t, ok)
	assert.Equal(t, segs[1], got)
}

func TestNew_copiesInput(t *testing.T) {
	segs := []geom.Segment{geom.NewSegment(mgl32.Vec2{0, 0}, mgl32.Vec2{1, 0}, 0)}
	idx := New(segs)
	segs[0].Tag = 7
	assert.Equal(t, uint8(0), idx.Segments()[0].Tag)

	out := idx.Segments()
	out[0].Tag = 9
	assert.Equal(t, uint8(0), idx.Segments()[0].Tag)
}
