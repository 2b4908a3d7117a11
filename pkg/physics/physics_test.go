package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/splash-track/pkg/race"
)

func assertVec(t *testing.T, want, got mgl32.Vec2) {
	t.Helper()
	assert.InDelta(t, want.X(), got.X(), 1e-5, "x of %v", got)
	assert.InDelta(t, want.Y(), got.Y(), 1e-5, "y of %v", got)
}

func TestNextPosition(t *testing.T) {
	frictionless := Boat()
	frictionless.Friction = mgl32.Vec2{}

	tests := []struct {
		name      string
		p         Params
		prev, cur mgl32.Vec2
		angle     float32
		force     mgl32.Vec2
		dt        float32
		want      mgl32.Vec2
	}{
		{
			name: "frictionless keeps velocity",
			p:    frictionless, prev: mgl32.Vec2{0, 0}, cur: mgl32.Vec2{1, 0.5},
			angle: 0.7, dt: 0.016, want: mgl32.Vec2{2, 1},
		},
		{
			name: "friction along first axis",
			p:    Boat(), prev: mgl32.Vec2{0, 0}, cur: mgl32.Vec2{1, 0},
			angle: 0, dt: 0.016, want: mgl32.Vec2{1.95, 0},
		},
		{
			name: "friction rotates with the vehicle",
			p:    Boat(), prev: mgl32.Vec2{0, 0}, cur: mgl32.Vec2{1, 0},
			angle: math.Pi / 2, dt: 0.016, want: mgl32.Vec2{1.99, 0},
		},
		{
			name: "force from rest",
			p:    Boat(), prev: mgl32.Vec2{}, cur: mgl32.Vec2{},
			force: mgl32.Vec2{0, 1500}, dt: 0.1, want: mgl32.Vec2{0, 0.075},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextPosition(tt.p, tt.prev, tt.cur, tt.angle, tt.force, tt.dt)
			assertVec(t, tt.want, got)
		})
	}
}

func TestHeading(t *testing.T) {
	assertVec(t, mgl32.Vec2{0, 1}, Boat().Heading(0))
	assertVec(t, mgl32.Vec2{1, 0}, Boat().Heading(math.Pi/2))
	assertVec(t, mgl32.Vec2{1, 0}, Spider().Heading(0))
	assertVec(t, mgl32.Vec2{0, -1}, Spider().Heading(math.Pi/2))
}

func TestStep(t *testing.T) {
	v := race.NewVehicle(race.PlayerOne, mgl32.Vec2{}, mgl32.Vec2{0, 1})
	Step(v, Boat(), Controls{Thrust: true}, 0.1)
	assertVec(t, mgl32.Vec2{}, v.Previous)
	assertVec(t, mgl32.Vec2{0, 0.075}, v.Position)

	Step(v, Boat(), Controls{Left: true}, 0.1)
	assert.InDelta(t, 5*math.Pi/4*0.1, v.Angle, 1e-6)
	assertVec(t, mgl32.Vec2{0, 0.075}, v.Previous)

	Step(v, Boat(), Controls{Steer: 1}, 0.1)
	assert.InDelta(t, 0, v.Angle, 1e-6)
	Step(v, Boat(), Controls{Steer: 0.005}, 0.1)
	assert.InDelta(t, 0, v.Angle, 1e-6, "inside the dead zone")
}

func TestStep_brakeReverses(t *testing.T) {
	v := race.NewVehicle(race.PlayerOne, mgl32.Vec2{}, mgl32.Vec2{0, 1})
	Step(v, Boat(), Controls{Brake: true}, 0.1)
	assertVec(t, mgl32.Vec2{0, -0.04}, v.Position)
}

func TestStep_capture(t *testing.T) {
	v := race.NewVehicle(race.PlayerOne, mgl32.Vec2{}, mgl32.Vec2{1, 0})
	Step(v, Spider(), Controls{Nudge: mgl32.Vec2{1, 0}}, 0.1)
	assertVec(t, mgl32.Vec2{2, 2}, v.Target)
	Step(v, Spider(), Controls{Nudge: mgl32.Vec2{0, 0.5}}, 0.1)
	assertVec(t, mgl32.Vec2{3, 1}, v.Target)

	Step(v, Spider(), Controls{Capture: true}, 1)
	assertVec(t, mgl32.Vec2{3, 1}, v.Position)
}

func TestCapture(t *testing.T) {
	assertVec(t, mgl32.Vec2{1, 1}, Capture(mgl32.Vec2{}, mgl32.Vec2{2, 2}, 0.5))
	assertVec(t, mgl32.Vec2{2, 2}, Capture(mgl32.Vec2{}, mgl32.Vec2{2, 2}, 3))
	assertVec(t, mgl32.Vec2{}, Capture(mgl32.Vec2{}, mgl32.Vec2{2, 2}, -1))
}
