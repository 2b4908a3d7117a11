package track

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/splash-track/log"
)

// Catalog holds the built-in tracks, built once and read-only afterwards.
type Catalog struct {
	tracks map[Nickname]*Track
}

type CatalogOption func(*catalogConfig)

type catalogConfig struct {
	tracer trace.Tracer
	log    *log.Logger
}

func WithTracer(tracer trace.Tracer) CatalogOption {
	return func(c *catalogConfig) {
		c.tracer = tracer
	}
}

func WithCatalogLogger(l *log.Logger) CatalogOption {
	return func(c *catalogConfig) {
		c.log = l
	}
}

// NewCatalog builds every preset. It returns only after all tracks are
// complete, so the result can be shared between readers.
func NewCatalog(ctx context.Context, opts ...CatalogOption) (*Catalog, error) {
	cfg := &catalogConfig{log: log.Default().Named("track")}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer("splash-track")
	}
	ret := &Catalog{tracks: make(map[Nickname]*Track, len(nicknames))}
	for _, n := range nicknames {
		_, span := cfg.tracer.Start(ctx, "build track",
			trace.WithAttributes(attribute.String("track", n.String())))
		t, err := Build(Preset(n), WithLogger(cfg.log))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return nil, err
		}
		if !t.IsLooping {
			err = fmt.Errorf("%w: preset %s does not loop", ErrInvalidTrack, n)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return nil, err
		}
		span.SetAttributes(
			attribute.Int("vertices", t.Mesh.VertexCount()),
			attribute.Float64("length", float64(t.TotalLength)))
		span.End()
		ret.tracks[n] = t
	}
	return ret, nil
}

func (c *Catalog) Get(n Nickname) (*Track, bool) {
	t, ok := c.tracks[n]
	return t, ok
}
