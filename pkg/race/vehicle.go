package race

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mpapenbr/splash-track/pkg/track"
)

// EntityID identifies a vehicle within a session.
type EntityID uint32

type Player int

const (
	PlayerOne Player = iota
	PlayerTwo
	PlayerThree
)

// Players lists the players in grid order.
var Players = []Player{PlayerOne, PlayerTwo, PlayerThree}

func (p Player) String() string {
	switch p {
	case PlayerOne:
		return "P1"
	case PlayerTwo:
		return "P2"
	case PlayerThree:
		return "P3"
	default:
		return fmt.Sprintf("P?%d", int(p))
	}
}

// Vehicle is the state shared by physics and collision resolution.
// Positions live in the ground plane (x, z).
type Vehicle struct {
	Player Player

	Initial  mgl32.Vec2
	Previous mgl32.Vec2
	Position mgl32.Vec2
	// Target is the point a captured vehicle is pulled towards.
	Target mgl32.Vec2

	InitialAngle float32
	Angle        float32
	Layer        uint8

	Current  LapStat
	Last     LapStat
	Best     LapStat
	LapCount uint32
}

// NewVehicle places a vehicle at pos heading along fwd.
func NewVehicle(player Player, pos, fwd mgl32.Vec2) *Vehicle {
	angle := float32(math.Atan2(float64(fwd.X()), float64(fwd.Y())))
	return &Vehicle{
		Player:       player,
		Initial:      pos,
		Previous:     pos,
		Position:     pos,
		Target:       pos,
		InitialAngle: angle,
		Angle:        angle,
		Current:      InvalidLapStat(),
		Last:         InvalidLapStat(),
		Best:         InvalidLapStat(),
	}
}

// Reset puts the vehicle back to its spawn pose and discards the running
// lap. Last and best laps are kept.
func (v *Vehicle) Reset() {
	v.Previous = v.Initial
	v.Position = v.Initial
	v.Target = v.Initial
	v.Angle = v.InitialAngle
	v.Layer = 0
	v.Current = InvalidLapStat()
	v.LapCount = 0
}

// Velocity is the displacement of the last step.
func (v *Vehicle) Velocity() mgl32.Vec2 {
	return v.Position.Sub(v.Previous)
}

type Spawn struct {
	Position mgl32.Vec2
	Forward  mgl32.Vec2
}

func xz(v mgl32.Vec3) mgl32.Vec2 {
	return mgl32.Vec2{v.X(), v.Z()}
}

// SpawnPositions returns the grid slots of a track: the initial position
// followed by the middle of the left and of the right half of the start.
func SpawnPositions(t *track.Track) []Spawn {
	rh := t.InitialRighthand()
	fwd := xz(t.InitialForward)
	return []Spawn{
		{Position: xz(t.InitialPosition), Forward: fwd},
		{Position: xz(t.InitialPosition.Add(rh.Mul(t.InitialLeft / 2))), Forward: fwd},
		{Position: xz(t.InitialPosition.Add(rh.Mul(t.InitialRight / 2))), Forward: fwd},
	}
}
