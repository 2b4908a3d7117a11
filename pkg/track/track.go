// Package track turns a sequence of pieces into a track: a triangle mesh,
// per-layer collision indices and the metadata used to place vehicles and
// validate laps.
package track

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mpapenbr/splash-track/pkg/spatial"
)

// MaxLayers is the number of distinct layer ids a track may use.
const MaxLayers = 4

var ErrInvalidTrack = errors.New("invalid track")

// Data describes a track before it is built.
type Data struct {
	Name            string
	Pieces          []Piece
	InitialPosition mgl32.Vec3
	InitialForward  mgl32.Vec3
	InitialUp       mgl32.Vec3
	InitialLeft     float32
	InitialRight    float32
	// Segments is the number of lateral subdivisions per cross-section.
	Segments uint32
}

// Mesh is an indexed triangle list. PQs is the second uv channel holding
// the position projected on the initial right/forward axes.
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	PQs       []mgl32.Vec2
	Indices   []uint32
}

func (m *Mesh) VertexCount() int   { return len(m.Positions) }
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// Collision holds the indices of one layer.
type Collision struct {
	Boundary    *spatial.Index
	Checkpoints *spatial.Index
	Transitions *spatial.Index
}

// Section is one centerline sample, emitted with every cross-section.
type Section struct {
	Position mgl32.Vec3
	Forward  mgl32.Vec3
	Left     float32
	Right    float32
	Length   float32
	Layer    uint8
}

// Track is the immutable result of Build.
type Track struct {
	Name            string
	Mesh            Mesh
	CheckpointMesh  Mesh
	TotalLength     float32
	IsLooping       bool
	CheckpointCount uint8
	// Layers is indexed by layer id. Layers never visited are nil.
	Layers          [MaxLayers]*Collision
	Sections        []Section
	InitialPosition mgl32.Vec3
	InitialForward  mgl32.Vec3
	InitialUp       mgl32.Vec3
	InitialLeft     float32
	InitialRight    float32
}

// Collision returns the indices for layer or nil if the layer is unknown.
func (t *Track) Collision(layer uint8) *Collision {
	if int(layer) >= MaxLayers {
		return nil
	}
	return t.Layers[layer]
}

// LayerCount returns the number of layers that carry collision data.
func (t *Track) LayerCount() int {
	n := 0
	for _, c := range t.Layers {
		if c != nil {
			n++
		}
	}
	return n
}

// InitialRighthand is forward x up of the initial pose.
func (t *Track) InitialRighthand() mgl32.Vec3 {
	return t.InitialForward.Cross(t.InitialUp)
}
