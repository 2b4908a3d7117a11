// Package preview draws a top-down view of a built track.
package preview

import (
	"fmt"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/mpapenbr/splash-track/pkg/geom"
	"github.com/mpapenbr/splash-track/pkg/spatial"
	"github.com/mpapenbr/splash-track/pkg/track"
)

type (
	Option func(*config)
	config struct {
		width, height vg.Length
		title         string
		centerline    bool
	}
)

func WithSize(width, height vg.Length) Option {
	return func(c *config) {
		c.width = width
		c.height = height
	}
}

func WithTitle(title string) Option {
	return func(c *config) {
		c.title = title
	}
}

// WithCenterline also draws the section positions.
func WithCenterline() Option {
	return func(c *config) {
		c.centerline = true
	}
}

var (
	layerColors = []color.Color{
		color.RGBA{R: 31, G: 119, B: 180, A: 255},
		color.RGBA{R: 44, G: 160, B: 44, A: 255},
		color.RGBA{R: 148, G: 103, B: 189, A: 255},
		color.RGBA{R: 140, G: 86, B: 75, A: 255},
	}
	checkpointColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	transitionColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	centerColor     = color.Gray{Y: 160}
)

// Render writes the preview to path. The format follows the file
// extension (png, svg, pdf, ...).
func Render(t *track.Track, path string, opts ...Option) error {
	p, cfg, err := build(t, opts...)
	if err != nil {
		return err
	}
	return p.Save(cfg.width, cfg.height, path)
}

// WriteTo writes the preview in format to w.
func WriteTo(t *track.Track, w io.Writer, format string, opts ...Option) error {
	p, cfg, err := build(t, opts...)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(cfg.width, cfg.height, strings.TrimPrefix(format, "."))
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// Format derives the image format from the extension of path.
func Format(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

func build(t *track.Track, opts ...Option) (*plot.Plot, *config, error) {
	cfg := &config{width: 8 * vg.Inch, height: 8 * vg.Inch, title: t.Name}
	for _, opt := range opts {
		opt(cfg)
	}
	p := plot.New()
	p.Title.Text = cfg.title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "z"
	p.Add(plotter.NewGrid())

	for l := range uint8(track.MaxLayers) {
		c := t.Collision(l)
		if c == nil {
			continue
		}
		if err := addSegments(p, c.Boundary, layerColors[l], vg.Points(1),
			fmt.Sprintf("layer %d", l)); err != nil {
			return nil, nil, err
		}
		if err := addSegments(p, c.Checkpoints, checkpointColor, vg.Points(1.5),
			legendOnce(l, "checkpoints")); err != nil {
			return nil, nil, err
		}
		if err := addSegments(p, c.Transitions, transitionColor, vg.Points(1.5),
			legendOnce(l, "transitions")); err != nil {
			return nil, nil, err
		}
	}
	if cfg.centerline && len(t.Sections) > 1 {
		pts := make(plotter.XYs, 0, len(t.Sections))
		for _, s := range t.Sections {
			pts = append(pts, plotter.XY{X: float64(s.Position.X()), Y: float64(s.Position.Z())})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, nil, err
		}
		line.Color = centerColor
		line.Width = vg.Points(0.5)
		line.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		p.Add(line)
		p.Legend.Add("centerline", line)
	}
	return p, cfg, nil
}

// legendOnce labels only the entries of layer 0.
func legendOnce(layer uint8, label string) string {
	if layer == 0 {
		return label
	}
	return ""
}

func addSegments(p *plot.Plot, idx *spatial.Index, c color.Color, w vg.Length, label string) error {
	for i, seg := range idx.Segments() {
		line, err := plotter.NewLine(segmentXYs(seg))
		if err != nil {
			return err
		}
		line.Color = c
		line.Width = w
		p.Add(line)
		if i == 0 && label != "" {
			p.Legend.Add(label, line)
		}
	}
	return nil
}

func segmentXYs(s geom.Segment) plotter.XYs {
	return plotter.XYs{
		{X: float64(s.A.X()), Y: float64(s.A.Y())},
		{X: float64(s.B.X()), Y: float64(s.B.Y())},
	}
}
