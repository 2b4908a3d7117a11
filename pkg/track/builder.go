package track

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mpapenbr/splash-track/log"
	"github.com/mpapenbr/splash-track/pkg/geom"
	"github.com/mpapenbr/splash-track/pkg/spatial"
)

const (
	unitEpsilon  float32 = 1e-5
	planeEpsilon float32 = 1e-5
	loopEpsilon  float32 = 1e-3
	gateWidth    float32 = 0.2
	gateLift     float32 = 1e-3
	// checkpoint tags must stay below geom.QueryTag
	maxCheckpoints = int(geom.QueryTag)
)

type BuildOption func(*builder)

func WithLogger(l *log.Logger) BuildOption {
	return func(b *builder) {
		b.log = l
	}
}

type builder struct {
	log  *log.Logger
	data *Data

	initialRighthand mgl32.Vec3
	projection       mgl32.Mat3

	mesh        Mesh
	gates       Mesh
	sections    []Section
	boundaries  [MaxLayers][]geom.Segment
	checkpoints [MaxLayers][]geom.Segment
	transitions [MaxLayers][]geom.Segment
	checkpointN int

	// cursor
	position mgl32.Vec3
	forward  mgl32.Vec3
	left     float32
	right    float32
	length   float32
	layer    uint8
	looping  bool
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTrack, fmt.Sprintf(format, args...))
}

// Build interprets the pieces of data in a single pass. Authoring errors are
// reported as errors wrapping ErrInvalidTrack. A track that does not close
// is built anyway and flagged by Track.IsLooping.
func Build(data *Data, opts ...BuildOption) (*Track, error) {
	b := &builder{log: log.Default().Named("track")}
	for _, opt := range opts {
		opt(b)
	}
	if err := validate(data); err != nil {
		return nil, err
	}
	b.reset(data)
	for i, p := range data.Pieces {
		if err := b.apply(i, p); err != nil {
			return nil, fmt.Errorf("track %q piece %d %s: %w", data.Name, i, p, err)
		}
	}
	return b.result(), nil
}

func validate(data *Data) error {
	if data == nil {
		return invalid("no track data")
	}
	if mgl32.Abs(data.InitialForward.Len()-1) >= unitEpsilon {
		return invalid("initial forward %v is not a unit vector", data.InitialForward)
	}
	if mgl32.Abs(data.InitialUp.Len()-1) >= unitEpsilon {
		return invalid("initial up %v is not a unit vector", data.InitialUp)
	}
	if data.InitialLeft >= data.InitialRight {
		return invalid("initial left %g must be less than initial right %g",
			data.InitialLeft, data.InitialRight)
	}
	if data.Segments == 0 {
		return invalid("lateral segments must be positive")
	}
	if len(data.Pieces) < 2 {
		return invalid("need at least 2 pieces, got %d", len(data.Pieces))
	}
	if _, ok := data.Pieces[0].(Start); !ok {
		return invalid("first piece must be start, got %s", data.Pieces[0])
	}
	if _, ok := data.Pieces[len(data.Pieces)-1].(Finish); !ok {
		return invalid("last piece must be finish, got %s", data.Pieces[len(data.Pieces)-1])
	}
	return nil
}

func (b *builder) reset(data *Data) {
	b.data = data
	b.initialRighthand = data.InitialForward.Cross(data.InitialUp)
	// rows: right, forward, up
	b.projection = mgl32.Mat3FromCols(b.initialRighthand, data.InitialForward, data.InitialUp).
		Transpose()
	b.position = data.InitialPosition
	b.forward = data.InitialForward
	b.left = data.InitialLeft
	b.right = data.InitialRight
}

func (b *builder) apply(idx int, piece Piece) error {
	b.log.Debug("piece",
		log.Int("index", idx),
		log.String("piece", piece.String()),
		log.Any("position", b.position),
		log.Uint8("layer", b.layer))

	switch p := piece.(type) {
	case Start:
		if idx != 0 {
			return invalid("start must only appear as first piece")
		}
		if err := b.pushSection(b.position, b.forward, b.left, b.right, b.length); err != nil {
			return err
		}
		return b.pushCheckpoint()
	case Straight:
		return b.straight(p)
	case Corner:
		return b.corner(p)
	case Checkpoint:
		b.pushGate()
		return b.pushCheckpoint()
	case Layer:
		return b.switchLayer(p.Target)
	case Finish:
		if idx != len(b.data.Pieces)-1 {
			return invalid("finish must only appear as last piece")
		}
		b.finish()
		return nil
	default:
		return invalid("unknown piece %T", piece)
	}
}

func mix(from, to, t float32) float32 {
	return from + (to-from)*t
}

func (b *builder) straight(p Straight) error {
	if p.Quads == 0 {
		return invalid("straight needs at least one quad")
	}
	n := float32(p.Quads)
	for k := uint32(1); k <= p.Quads; k++ {
		t := float32(k) / n
		blend := 3*t*t - 2*t*t*t
		pos := b.position.Add(b.forward.Mul(t * p.Length))
		err := b.pushSection(pos, b.forward,
			mix(b.left, p.Left, blend),
			mix(b.right, p.Right, blend),
			b.length+t*p.Length)
		if err != nil {
			return err
		}
	}
	b.position = b.position.Add(b.forward.Mul(p.Length))
	b.length += p.Length
	b.left = p.Left
	b.right = p.Right
	if b.left >= b.right {
		return invalid("straight leaves inverted bounds left=%g right=%g", b.left, b.right)
	}
	return nil
}

func sin32(x float32) float32 { return float32(math.Sin(float64(x))) }
func cos32(x float32) float32 { return float32(math.Cos(float64(x))) }

func (b *builder) corner(p Corner) error {
	if p.Quads == 0 {
		return invalid("corner needs at least one quad")
	}
	if p.Radius == 0 {
		return invalid("corner radius must not be zero")
	}
	up := b.data.InitialUp
	righthand := b.forward.Cross(up)
	center := b.position.Add(righthand.Mul(p.Radius))
	var sign float32 = -1
	if p.Radius < 0 {
		sign = 1
	}
	radius := mgl32.Abs(p.Radius)
	arc := func(angle float32) (mgl32.Vec3, mgl32.Vec3) {
		pos := center.
			Add(b.forward.Mul(radius * sin32(angle))).
			Sub(righthand.Mul(p.Radius * cos32(angle)))
		fwd := mgl32.QuatRotate(sign*angle, up).Rotate(b.forward)
		return pos, fwd
	}

	n := float32(p.Quads)
	for k := uint32(1); k <= p.Quads; k++ {
		angle := float32(k) / n * p.Angle
		pos, fwd := arc(angle)
		if err := b.pushSection(pos, fwd, b.left, b.right, b.length+radius*angle); err != nil {
			return err
		}
	}
	b.position, b.forward = arc(p.Angle)
	b.length += radius * p.Angle
	return nil
}

func (b *builder) switchLayer(target uint8) error {
	if int(target) >= MaxLayers {
		return invalid("layer %d exceeds the maximum of %d layers", target, MaxLayers)
	}
	if target == b.layer {
		return invalid("layer %d is already the current layer", target)
	}
	a, c := b.span(b.position, b.forward, b.left, b.right)
	b.transitions[b.layer] = append(b.transitions[b.layer], geom.NewSegment(a, c, target))
	b.transitions[target] = append(b.transitions[target], geom.NewSegment(a, c, b.layer))
	b.layer = target
	return nil
}

func (b *builder) finish() {
	d := b.data
	posErr := b.position.Sub(d.InitialPosition).Len()
	dirErr := b.forward.Sub(d.InitialForward).Len()
	leftErr := mgl32.Abs(b.left - d.InitialLeft)
	rightErr := mgl32.Abs(b.right - d.InitialRight)
	b.looping = posErr < loopEpsilon &&
		dirErr < loopEpsilon &&
		leftErr < loopEpsilon &&
		rightErr < loopEpsilon &&
		b.length > 0 &&
		b.layer == 0
	b.log.Debug("finish",
		log.Float32("posErr", posErr),
		log.Float32("dirErr", dirErr),
		log.Float32("length", b.length),
		log.Uint8("layer", b.layer),
		log.Bool("looping", b.looping))
}

func xz(v mgl32.Vec3) mgl32.Vec2 {
	return mgl32.Vec2{v.X(), v.Z()}
}

// span returns the ground plane endpoints of the lateral line at pos.
func (b *builder) span(pos, fwd mgl32.Vec3, left, right float32) (a, c mgl32.Vec2) {
	righthand := fwd.Cross(b.data.InitialUp)
	return xz(pos.Add(righthand.Mul(left))), xz(pos.Add(righthand.Mul(right)))
}

func (b *builder) pushCheckpoint() error {
	if b.checkpointN >= maxCheckpoints {
		return invalid("more than %d checkpoints", maxCheckpoints)
	}
	a, c := b.span(b.position, b.forward, b.left, b.right)
	tag := uint8(b.checkpointN)
	b.checkpoints[b.layer] = append(b.checkpoints[b.layer], geom.NewSegment(a, c, tag))
	b.checkpointN++
	b.log.Debug("checkpoint", log.Uint8("tag", tag), log.Uint8("layer", b.layer))
	return nil
}

func (b *builder) pushGate() {
	up := b.data.InitialUp
	righthand := b.forward.Cross(up)
	back := b.forward.Mul(gateWidth / 2)
	lift := up.Mul(gateLift)
	a := b.position.Add(righthand.Mul(b.left)).Sub(back).Add(lift)
	c := b.position.Add(righthand.Mul(b.right)).Sub(back).Add(lift)
	next := uint32(len(b.gates.Positions))
	b.gates.Positions = append(b.gates.Positions,
		a, c, a.Add(b.forward.Mul(gateWidth)), c.Add(b.forward.Mul(gateWidth)))
	b.gates.Normals = append(b.gates.Normals, up, up, up, up)
	b.gates.Indices = append(b.gates.Indices,
		next, next+1, next+2,
		next+2, next+1, next+3)
}

// pushSection emits one cross-section with Segments+1 samples, stitches it
// to the previous one and records the boundary segments of the new strip.
func (b *builder) pushSection(pos, fwd mgl32.Vec3, left, right, length float32) error {
	righthand := fwd.Cross(b.data.InitialUp)
	leftPos := pos.Add(righthand.Mul(left))
	rightPos := pos.Add(righthand.Mul(right))
	n := b.data.Segments
	next := uint32(len(b.mesh.Positions))
	for k := uint32(0); k <= n; k++ {
		a := float32(k) / float32(n)
		p := rightPos.Mul(a).Add(leftPos.Mul(1 - a))
		pq := b.projection.Mul3x1(p.Sub(b.data.InitialPosition))
		if mgl32.Abs(pq.Z()) >= planeEpsilon {
			return invalid("cross-section leaves the initial track plane (height %g)", pq.Z())
		}
		b.mesh.Positions = append(b.mesh.Positions, p)
		b.mesh.Normals = append(b.mesh.Normals, b.data.InitialUp)
		b.mesh.UVs = append(b.mesh.UVs, mgl32.Vec2{a*right + (1-a)*left, length})
		b.mesh.PQs = append(b.mesh.PQs, mgl32.Vec2{pq.X(), pq.Y()})
	}
	if next != 0 {
		for k := uint32(0); k < n; k++ {
			b.mesh.Indices = append(b.mesh.Indices,
				next+k-n-1, next+k-n, next+k,
				next+k-n, next+k+1, next+k)
		}
		prevLeft := b.mesh.Positions[next-n-1]
		prevRight := b.mesh.Positions[next-1]
		b.boundaries[b.layer] = append(b.boundaries[b.layer],
			geom.NewSegment(xz(prevLeft), xz(leftPos), 0),
			geom.NewSegment(xz(rightPos), xz(prevRight), 1))
	}
	b.sections = append(b.sections, Section{
		Position: pos,
		Forward:  fwd,
		Left:     left,
		Right:    right,
		Length:   length,
		Layer:    b.layer,
	})
	return nil
}

func (b *builder) result() *Track {
	d := b.data
	ret := &Track{
		Name:            d.Name,
		Mesh:            b.mesh,
		CheckpointMesh:  b.gates,
		TotalLength:     b.length,
		IsLooping:       b.looping,
		CheckpointCount: uint8(b.checkpointN),
		Sections:        b.sections,
		InitialPosition: d.InitialPosition,
		InitialForward:  d.InitialForward,
		InitialUp:       d.InitialUp,
		InitialLeft:     d.InitialLeft,
		InitialRight:    d.InitialRight,
	}
	for l := range ret.Layers {
		if len(b.boundaries[l]) == 0 && len(b.checkpoints[l]) == 0 && len(b.transitions[l]) == 0 {
			continue
		}
		ret.Layers[l] = &Collision{
			Boundary:    spatial.New(b.boundaries[l]),
			Checkpoints: spatial.New(b.checkpoints[l]),
			Transitions: spatial.New(b.transitions[l]),
		}
	}
	b.log.Debug("track built",
		log.String("name", d.Name),
		log.Int("vertices", ret.Mesh.VertexCount()),
		log.Int("triangles", ret.Mesh.TriangleCount()),
		log.Float32("length", ret.TotalLength),
		log.Uint8("checkpoints", ret.CheckpointCount),
		log.Bool("looping", ret.IsLooping))
	if !ret.IsLooping {
		b.log.Warn("track is not looping", log.String("name", d.Name))
	}
	return ret
}
