// Package race resolves vehicle movement against a built track: boundary
// bounces, checkpoint crossings with lap timing and layer transitions.
package race

import (
	"errors"
	"fmt"
	"time"

	"github.com/mpapenbr/splash-track/log"
	"github.com/mpapenbr/splash-track/pkg/geom"
	"github.com/mpapenbr/splash-track/pkg/track"
)

var (
	ErrMissingBoundary = errors.New("missing boundary")
	ErrTooManyLayers   = errors.New("too many layers")
)

// Completion reports a lap finished during checkpoint resolution.
type Completion struct {
	Vehicle  *Vehicle
	Lap      uint32
	Duration time.Duration
	NewBest  bool
	Splits   map[uint8]time.Duration
}

type Resolver struct {
	track *track.Track
	log   *log.Logger
}

type Option func(*Resolver)

func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		r.log = l
	}
}

func NewResolver(t *track.Track, opts ...Option) *Resolver {
	ret := &Resolver{track: t, log: log.Default().Named("race")}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (r *Resolver) Track() *track.Track {
	return r.track
}

// Resolve runs the bounce, checkpoint and transition passes in this order,
// each pass over all vehicles.
func (r *Resolver) Resolve(vehicles []*Vehicle, now time.Duration) ([]Completion, error) {
	if err := r.Bounce(vehicles); err != nil {
		return nil, err
	}
	completions, err := r.Checkpoints(vehicles, now)
	if err != nil {
		return nil, err
	}
	if err := r.Transitions(vehicles); err != nil {
		return completions, err
	}
	return completions, nil
}

func (r *Resolver) collision(v *Vehicle) (*track.Collision, error) {
	if int(v.Layer) >= track.MaxLayers {
		return nil, fmt.Errorf("%w: %s is on layer %d", ErrTooManyLayers, v.Player, v.Layer)
	}
	c := r.track.Collision(v.Layer)
	if c == nil {
		return nil, fmt.Errorf("%w: layer %d of track %q has no collision data",
			ErrMissingBoundary, v.Layer, r.track.Name)
	}
	return c, nil
}

func query(v *Vehicle) geom.Segment {
	return geom.NewQuerySegment(v.Position, v.Previous)
}

// Bounce mirrors vehicles that crossed a boundary back onto the track.
func (r *Resolver) Bounce(vehicles []*Vehicle) error {
	for _, v := range vehicles {
		c, err := r.collision(v)
		if err != nil {
			return err
		}
		q := query(v)
		nearest, ok := c.Boundary.Nearest(q)
		if !ok {
			return fmt.Errorf("%w: layer %d of track %q has no boundary segments",
				ErrMissingBoundary, v.Layer, r.track.Name)
		}
		if nearest.Clips(q) {
			v.Previous = nearest.Mirror(v.Previous)
			v.Position = nearest.Mirror(v.Position)
		}
	}
	return nil
}

// Checkpoints advances lap timing. Layers without checkpoints are skipped.
func (r *Resolver) Checkpoints(vehicles []*Vehicle, now time.Duration) ([]Completion, error) {
	var ret []Completion
	for _, v := range vehicles {
		c, err := r.collision(v)
		if err != nil {
			return ret, err
		}
		if c.Checkpoints.IsEmpty() {
			continue
		}
		q := query(v)
		nearest, _ := c.Checkpoints.Nearest(q)
		v.Current.Update(now)
		if !nearest.Intersects(q) ||
			!v.Current.CompletedLap(nearest.Tag, r.track.CheckpointCount, now) {
			continue
		}
		ret = append(ret, r.completeLap(v, now))
	}
	return ret, nil
}

func (r *Resolver) completeLap(v *Vehicle, now time.Duration) Completion {
	duration := v.Current.LapDuration()
	newBest := !v.Best.IsValid() || duration < v.Best.LapDuration()
	v.Last = v.Current.Clone()
	if newBest {
		v.Best = v.Current.Clone()
	}
	v.LapCount++
	ret := Completion{
		Vehicle:  v,
		Lap:      v.LapCount,
		Duration: duration,
		NewBest:  newBest,
		Splits:   v.Last.Splits(),
	}
	r.log.Info("lap completed",
		log.String("player", v.Player.String()),
		log.Uint32("lap", v.LapCount),
		log.Duration("duration", duration),
		log.Bool("newBest", newBest))
	v.Current = LapStatFrom(now)
	return ret
}

// Transitions moves vehicles crossing a transition segment to the layer
// stored in its tag. Layers without transitions are skipped.
func (r *Resolver) Transitions(vehicles []*Vehicle) error {
	for _, v := range vehicles {
		c, err := r.collision(v)
		if err != nil {
			return err
		}
		if c.Transitions.IsEmpty() {
			continue
		}
		q := query(v)
		nearest, _ := c.Transitions.Nearest(q)
		if int(nearest.Tag) >= track.MaxLayers {
			return fmt.Errorf("%w: transition to layer %d", ErrTooManyLayers, nearest.Tag)
		}
		if nearest.Intersects(q) {
			r.log.Info("layer changed",
				log.String("player", v.Player.String()),
				log.Uint8("from", v.Layer),
				log.Uint8("to", nearest.Tag))
			v.Layer = nearest.Tag
		}
	}
	return nil
}
