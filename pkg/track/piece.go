package track

import (
	"fmt"
	"math"
)

// Piece is one authored element of a track. The set of implementations is
// closed: Start, Straight, Corner, Checkpoint, Layer and Finish.
type Piece interface {
	fmt.Stringer
	isPiece()
}

type (
	// Start emits the first cross-section and the start/finish gate.
	Start struct{}
	// Straight runs along the current forward direction while blending the
	// lateral bounds towards Left/Right.
	Straight struct {
		Left   float32
		Right  float32
		Length float32
		Quads  uint32
	}
	// Corner sweeps Angle radians around a center offset by Radius along the
	// right-hand vector. Positive radius turns right, negative turns left.
	Corner struct {
		Radius float32
		Angle  float32
		Quads  uint32
	}
	Checkpoint struct{}
	// Layer switches to Target and records a transition in both layers.
	Layer struct {
		Target uint8
	}
	Finish struct{}
)

func (Start) isPiece()      {}
func (Straight) isPiece()   {}
func (Corner) isPiece()     {}
func (Checkpoint) isPiece() {}
func (Layer) isPiece()      {}
func (Finish) isPiece()     {}

func (Start) String() string { return "start" }
func (p Straight) String() string {
	return fmt.Sprintf("straight(left=%g right=%g length=%g quads=%d)",
		p.Left, p.Right, p.Length, p.Quads)
}

func (p Corner) String() string {
	return fmt.Sprintf("corner(radius=%g angle=%g quads=%d)", p.Radius, p.Angle, p.Quads)
}
func (Checkpoint) String() string { return "checkpoint" }
func (p Layer) String() string    { return fmt.Sprintf("layer(%d)", p.Target) }
func (Finish) String() string     { return "finish" }

const (
	defaultLeft        float32 = -1
	defaultRight       float32 = 1
	defaultLength      float32 = 2
	defaultQuads       uint32  = 8
	defaultCornerQuads uint32  = 32
	defaultRadius      float32 = 2
)

// QuadsForLength is the subdivision count used when a straight only
// specifies its length.
func QuadsForLength(length float32) uint32 {
	if 2*length < 1 {
		return 1
	}
	return uint32(4 * length)
}

func DefaultStraight() Straight {
	return Straight{Left: defaultLeft, Right: defaultRight, Length: defaultLength, Quads: defaultQuads}
}

func StraightFromLength(length float32) Straight {
	ret := DefaultStraight()
	ret.Length = length
	ret.Quads = QuadsForLength(length)
	return ret
}

func StraightFromLeftRight(left, right float32) Straight {
	ret := DefaultStraight()
	ret.Left = left
	ret.Right = right
	return ret
}

func StraightFromLeftRightLength(left, right, length float32) Straight {
	return Straight{Left: left, Right: right, Length: length, Quads: QuadsForLength(length)}
}

// RightTurn is a quarter turn of radius 2.
func RightTurn() Corner {
	return Corner{Radius: defaultRadius, Angle: math.Pi / 2, Quads: defaultCornerQuads}
}

// LeftTurn is a quarter turn of radius -2.
func LeftTurn() Corner {
	return Corner{Radius: -defaultRadius, Angle: math.Pi / 2, Quads: defaultCornerQuads}
}
