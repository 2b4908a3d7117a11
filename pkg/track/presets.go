package track

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Nickname identifies one of the built-in tracks.
type Nickname int

const (
	Beginner Nickname = iota
	Vertical
	Advanced
)

var nicknames = []Nickname{Beginner, Vertical, Advanced}

// Nicknames returns the built-in tracks in menu order.
func Nicknames() []Nickname {
	ret := make([]Nickname, len(nicknames))
	copy(ret, nicknames)
	return ret
}

func (n Nickname) String() string {
	switch n {
	case Beginner:
		return "beginner"
	case Vertical:
		return "vertical"
	case Advanced:
		return "advanced"
	default:
		return fmt.Sprintf("Nickname(%d)", int(n))
	}
}

func ParseNickname(s string) (Nickname, error) {
	for _, n := range nicknames {
		if strings.EqualFold(s, n.String()) {
			return n, nil
		}
	}
	return 0, fmt.Errorf("unknown track %q", s)
}

func standardPose(name string, pieces ...Piece) *Data {
	return &Data{
		Name:            name,
		Pieces:          pieces,
		InitialPosition: mgl32.Vec3{0, 0, 0},
		InitialForward:  mgl32.Vec3{0, 0, 1},
		InitialUp:       mgl32.Vec3{0, 1, 0},
		InitialLeft:     -1,
		InitialRight:    1,
		Segments:        8,
	}
}

// Preset returns a fresh copy of the piece description of a built-in track.
func Preset(n Nickname) *Data {
	switch n {
	case Beginner:
		return beginner()
	case Vertical:
		return vertical()
	case Advanced:
		return advanced()
	default:
		return nil
	}
}

// beginner is an oval with one intermediate checkpoint.
func beginner() *Data {
	return standardPose(Beginner.String(),
		Start{},
		StraightFromLength(6),
		RightTurn(),
		RightTurn(),
		Checkpoint{},
		StraightFromLength(6),
		RightTurn(),
		RightTurn(),
		Finish{},
	)
}

// vertical is a figure eight. The second straight bridges the first one on
// layer 1.
func vertical() *Data {
	return standardPose(Vertical.String(),
		Start{},
		StraightFromLength(4),
		LeftTurn(),
		LeftTurn(),
		Checkpoint{},
		LeftTurn(),
		Layer{Target: 1},
		StraightFromLength(4),
		Layer{Target: 0},
		RightTurn(),
		RightTurn(),
		Checkpoint{},
		RightTurn(),
		Finish{},
	)
}

func wideTurn() Corner {
	return Corner{Radius: 3, Angle: math.Pi / 2, Quads: 48}
}

// advanced is a rectangle with a chicane and varying track width.
func advanced() *Data {
	return standardPose(Advanced.String(),
		Start{},
		StraightFromLeftRightLength(-1.5, 1.5, 6),
		wideTurn(),
		Checkpoint{},
		StraightFromLeftRightLength(-1, 1, 2),
		LeftTurn(),
		RightTurn(),
		StraightFromLength(2),
		wideTurn(),
		Checkpoint{},
		StraightFromLeftRightLength(-1.25, 1.25, 10),
		wideTurn(),
		Checkpoint{},
		StraightFromLeftRightLength(-1, 1, 8),
		wideTurn(),
		Finish{},
	)
}
