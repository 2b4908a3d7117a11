package session

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mpapenbr/splash-track/pkg/race"
	"github.com/mpapenbr/splash-track/pkg/track"
)

// Ghost drives a vehicle along the centerline of a track at constant speed.
type Ghost struct {
	track    *track.Track
	vehicle  *race.Vehicle
	speed    float32
	distance float32
	last     mgl32.Vec2
}

func NewGhost(t *track.Track, v *race.Vehicle, speed float32) *Ghost {
	return &Ghost{track: t, vehicle: v, speed: speed, last: v.Position}
}

func (g *Ghost) Distance() float32 { return g.distance }

// Step advances the ghost by dt seconds. On looping tracks the distance
// wraps around, otherwise the ghost stops at the end.
func (g *Ghost) Step(dt float32) {
	g.distance += g.speed * dt
	total := g.track.TotalLength
	if total > 0 {
		if g.track.IsLooping {
			g.distance = float32(math.Mod(float64(g.distance), float64(total)))
		} else if g.distance > total {
			g.distance = total
		}
	}
	pos, fwd := g.sample(g.distance)
	g.vehicle.Previous = g.last
	g.vehicle.Position = pos
	g.vehicle.Angle = float32(math.Atan2(float64(fwd.X()), float64(fwd.Y())))
	g.last = pos
}

// sample interpolates the centerline at distance d.
func (g *Ghost) sample(d float32) (pos, fwd mgl32.Vec2) {
	sections := g.track.Sections
	if len(sections) == 0 {
		return g.last, mgl32.Vec2{0, 1}
	}
	i := sort.Search(len(sections), func(i int) bool { return sections[i].Length >= d })
	if i == 0 {
		s := sections[0]
		return xz(s.Position), xz(s.Forward)
	}
	if i == len(sections) {
		s := sections[len(sections)-1]
		return xz(s.Position), xz(s.Forward)
	}
	a, b := sections[i-1], sections[i]
	t := float32(0)
	if span := b.Length - a.Length; span > 0 {
		t = (d - a.Length) / span
	}
	pos = xz(a.Position.Add(b.Position.Sub(a.Position).Mul(t)))
	fwd = xz(a.Forward.Add(b.Forward.Sub(a.Forward).Mul(t)))
	return pos, fwd
}

func xz(v mgl32.Vec3) mgl32.Vec2 {
	return mgl32.Vec2{v.X(), v.Z()}
}
