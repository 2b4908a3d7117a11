// Package physics integrates vehicle motion with an explicit Verlet scheme
// and anisotropic friction in the vehicle frame.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mpapenbr/splash-track/pkg/race"
)

type Kind int

const (
	KindBoat Kind = iota
	KindSpider
)

const (
	steerDeadzone  float32 = 0.01
	targetDeadzone float32 = 0.05
)

// Params describes one vehicle profile. Units: kg, N, rad/s, m/s, 1/s.
// Friction components are in [0, 1).
type Params struct {
	Kind         Kind
	Mass         float32
	Friction     mgl32.Vec2
	Thrust       float32
	Brake        float32
	TurningSpeed float32
	TargetSpeed  float32
	CaptureSpeed float32
}

func Boat() Params {
	return Params{
		Kind:         KindBoat,
		Mass:         100,
		Friction:     mgl32.Vec2{5e-2, 1e-2},
		Thrust:       1500,
		Brake:        800,
		TurningSpeed: 5 * math.Pi / 4,
	}
}

func Spider() Params {
	return Params{
		Kind:         KindSpider,
		Mass:         100,
		Friction:     mgl32.Vec2{1e-2, 5e-2},
		Thrust:       4000,
		Brake:        1000,
		TurningSpeed: 5 * math.Pi / 4,
		TargetSpeed:  20,
		CaptureSpeed: 1.8,
	}
}

// Heading is the unit thrust direction for angle.
func (p Params) Heading(angle float32) mgl32.Vec2 {
	if p.Kind == KindSpider {
		return fromAngle(-angle)
	}
	return fromAngle(math.Pi/2 - angle)
}

func fromAngle(a float32) mgl32.Vec2 {
	s, c := math.Sincos(float64(a))
	return mgl32.Vec2{float32(c), float32(s)}
}

// Controls is the input of one vehicle for one step.
type Controls struct {
	Left   bool
	Right  bool
	Thrust bool
	Brake  bool
	// Steer is an analog axis in [-1, 1], positive steers right.
	Steer float32
	// Capture pulls the vehicle towards its target.
	Capture bool
	// Nudge moves the target, x along (1, 1) and y along (1, -1).
	Nudge mgl32.Vec2
}

// NextPosition integrates one step:
// next = (2I - F)·cur - (I - F)·prev + (force/mass/2)·dt²
// with F = Rᵀ·diag(friction)·R and R the rotation by angle.
func NextPosition(p Params, prev, cur mgl32.Vec2, angle float32, force mgl32.Vec2, dt float32) mgl32.Vec2 {
	accel := force.Mul(1 / p.Mass / 2)
	rot := mgl32.Rotate2D(angle)
	friction := rot.Transpose().Mul2(mgl32.Diag2(p.Friction)).Mul2(rot)
	ident := mgl32.Ident2()
	return ident.Mul(2).Sub(friction).Mul2x1(cur).
		Sub(ident.Sub(friction).Mul2x1(prev)).
		Add(accel.Mul(dt * dt))
}

// Capture moves cur towards target by alpha, clamped to [0, 1].
func Capture(cur, target mgl32.Vec2, alpha float32) mgl32.Vec2 {
	alpha = mgl32.Clamp(alpha, 0, 1)
	return cur.Mul(1 - alpha).Add(target.Mul(alpha))
}

// Step applies c to v and advances it by dt seconds.
func Step(v *race.Vehicle, p Params, c Controls, dt float32) {
	if c.Left {
		v.Angle += p.TurningSpeed * dt
	}
	if c.Right {
		v.Angle -= p.TurningSpeed * dt
	}
	if mgl32.Abs(c.Steer) > steerDeadzone {
		v.Angle -= p.TurningSpeed * c.Steer * dt
	}
	dir := p.Heading(v.Angle)
	var force mgl32.Vec2
	if c.Thrust {
		force = force.Add(dir.Mul(p.Thrust))
	}
	if c.Brake {
		force = force.Sub(dir.Mul(p.Brake))
	}
	if mgl32.Abs(c.Nudge.X()) > targetDeadzone {
		v.Target = v.Target.Add(mgl32.Vec2{1, 1}.Mul(p.TargetSpeed * c.Nudge.X() * dt))
	}
	if mgl32.Abs(c.Nudge.Y()) > targetDeadzone {
		v.Target = v.Target.Add(mgl32.Vec2{1, -1}.Mul(p.TargetSpeed * c.Nudge.Y() * dt))
	}

	next := NextPosition(p, v.Previous, v.Position, v.Angle, force, dt)
	if c.Capture {
		next = Capture(v.Position, v.Target, p.CaptureSpeed*dt)
	}
	v.Previous = v.Position
	v.Position = next
}
