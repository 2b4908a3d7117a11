package track

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// FileVersion is written by Encode. Load accepts any v1 version.
const FileVersion = "v1.0.0"

type fileFormat struct {
	Version string      `yaml:"version"`
	Name    string      `yaml:"name"`
	Initial initialPose `yaml:"initial"`
	Pieces  []pieceSpec `yaml:"pieces"`
}

type initialPose struct {
	Position []float32 `yaml:"position,flow"`
	Forward  []float32 `yaml:"forward,flow"`
	Up       []float32 `yaml:"up,flow"`
	Left     *float32  `yaml:"left,omitempty"`
	Right    *float32  `yaml:"right,omitempty"`
	Segments uint32    `yaml:"segments,omitempty"`
}

type empty struct{}

type straightSpec struct {
	Left   *float32 `yaml:"left,omitempty"`
	Right  *float32 `yaml:"right,omitempty"`
	Length float32  `yaml:"length"`
	Quads  uint32   `yaml:"quads,omitempty"`
}

type cornerSpec struct {
	Radius float32 `yaml:"radius"`
	Angle  float32 `yaml:"angle"`
	Quads  uint32  `yaml:"quads,omitempty"`
}

type layerSpec struct {
	Target uint8 `yaml:"target"`
}

// pieceSpec carries exactly one non-nil field.
type pieceSpec struct {
	Start      *empty        `yaml:"start,omitempty"`
	Straight   *straightSpec `yaml:"straight,omitempty"`
	Corner     *cornerSpec   `yaml:"corner,omitempty"`
	Checkpoint *empty        `yaml:"checkpoint,omitempty"`
	Layer      *layerSpec    `yaml:"layer,omitempty"`
	Finish     *empty        `yaml:"finish,omitempty"`
}

func LoadFile(path string) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load reads a track description. Structural problems wrap ErrInvalidTrack,
// the pieces themselves are only checked by Build.
func Load(r io.Reader) (*Data, error) {
	var ff fileFormat
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ff); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTrack, err)
	}
	if !semver.IsValid(ff.Version) {
		return nil, invalid("version %q is not a semantic version", ff.Version)
	}
	if semver.Major(ff.Version) != semver.Major(FileVersion) {
		return nil, invalid("unsupported version %s, need %s.x", ff.Version,
			semver.Major(FileVersion))
	}
	ret := standardPose(ff.Name)
	if err := ff.Initial.apply(ret); err != nil {
		return nil, err
	}
	for i := range ff.Pieces {
		p, err := ff.Pieces[i].toPiece()
		if err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}
		ret.Pieces = append(ret.Pieces, p)
	}
	return ret, nil
}

func toVec3(name string, v []float32, target *mgl32.Vec3) error {
	switch len(v) {
	case 0:
		return nil
	case 3:
		*target = mgl32.Vec3{v[0], v[1], v[2]}
		return nil
	default:
		return invalid("%s needs 3 components, got %d", name, len(v))
	}
}

func (ip *initialPose) apply(d *Data) error {
	if err := toVec3("position", ip.Position, &d.InitialPosition); err != nil {
		return err
	}
	if err := toVec3("forward", ip.Forward, &d.InitialForward); err != nil {
		return err
	}
	if err := toVec3("up", ip.Up, &d.InitialUp); err != nil {
		return err
	}
	if ip.Left != nil {
		d.InitialLeft = *ip.Left
	}
	if ip.Right != nil {
		d.InitialRight = *ip.Right
	}
	if ip.Segments != 0 {
		d.Segments = ip.Segments
	}
	return nil
}

func (ps *pieceSpec) toPiece() (Piece, error) {
	var ret Piece
	set := 0
	if ps.Start != nil {
		ret = Start{}
		set++
	}
	if ps.Straight != nil {
		s := StraightFromLength(ps.Straight.Length)
		if ps.Straight.Left != nil {
			s.Left = *ps.Straight.Left
		}
		if ps.Straight.Right != nil {
			s.Right = *ps.Straight.Right
		}
		if ps.Straight.Quads != 0 {
			s.Quads = ps.Straight.Quads
		}
		if s.Length == 0 {
			return nil, invalid("straight needs a length")
		}
		ret = s
		set++
	}
	if ps.Corner != nil {
		c := Corner{Radius: ps.Corner.Radius, Angle: ps.Corner.Angle, Quads: ps.Corner.Quads}
		if c.Radius == 0 || c.Angle == 0 {
			return nil, invalid("corner needs radius and angle")
		}
		if c.Quads == 0 {
			c.Quads = defaultCornerQuads
		}
		ret = c
		set++
	}
	if ps.Checkpoint != nil {
		ret = Checkpoint{}
		set++
	}
	if ps.Layer != nil {
		ret = Layer{Target: ps.Layer.Target}
		set++
	}
	if ps.Finish != nil {
		ret = Finish{}
		set++
	}
	if set != 1 {
		return nil, invalid("a piece needs exactly one kind, got %d", set)
	}
	return ret, nil
}

func fromPiece(p Piece) pieceSpec {
	switch v := p.(type) {
	case Start:
		return pieceSpec{Start: &empty{}}
	case Straight:
		left, right := v.Left, v.Right
		return pieceSpec{Straight: &straightSpec{
			Left: &left, Right: &right, Length: v.Length, Quads: v.Quads,
		}}
	case Corner:
		return pieceSpec{Corner: &cornerSpec{Radius: v.Radius, Angle: v.Angle, Quads: v.Quads}}
	case Checkpoint:
		return pieceSpec{Checkpoint: &empty{}}
	case Layer:
		return pieceSpec{Layer: &layerSpec{Target: v.Target}}
	default:
		return pieceSpec{Finish: &empty{}}
	}
}

// Encode writes d in the format read by Load.
func Encode(w io.Writer, d *Data) error {
	left, right := d.InitialLeft, d.InitialRight
	ff := fileFormat{
		Version: FileVersion,
		Name:    d.Name,
		Initial: initialPose{
			Position: d.InitialPosition[:],
			Forward:  d.InitialForward[:],
			Up:       d.InitialUp[:],
			Left:     &left,
			Right:    &right,
			Segments: d.Segments,
		},
	}
	for _, p := range d.Pieces {
		ff.Pieces = append(ff.Pieces, fromPiece(p))
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(ff); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
