// Package session runs a headless race on one track: physics, collision
// resolution and lap events for up to three vehicles.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/splash-track/log"
	"github.com/mpapenbr/splash-track/pkg/physics"
	"github.com/mpapenbr/splash-track/pkg/race"
	"github.com/mpapenbr/splash-track/pkg/track"
)

var (
	ErrGridFull      = errors.New("no free grid slot")
	ErrUnknownEntity = errors.New("unknown entity")
)

// LapEvent is emitted for every completed lap.
type LapEvent struct {
	SessionID uuid.UUID               `json:"sessionId"`
	Track     string                  `json:"track"`
	Player    string                  `json:"player"`
	Lap       uint32                  `json:"lap"`
	Duration  time.Duration           `json:"duration"`
	NewBest   bool                    `json:"newBest"`
	Splits    map[uint8]time.Duration `json:"splits,omitempty"`
	// At is the session time the lap was completed.
	At time.Duration `json:"at"`
}

// Sink receives lap events. It is called from the goroutine calling Step.
type Sink func(LapEvent)

type Session struct {
	id       uuid.UUID
	track    *track.Track
	resolver *race.Resolver
	params   physics.Params
	log      *log.Logger
	meter    metric.MeterProvider
	sinks    []Sink

	vehicles map[race.EntityID]*race.Vehicle
	ghosts   map[race.EntityID]*Ghost
	nextID   race.EntityID
	elapsed  time.Duration

	frames metric.Int64Counter
	laps   metric.Int64Counter
}

type Option func(*Session)

func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

func WithParams(p physics.Params) Option {
	return func(s *Session) {
		s.params = p
	}
}

func WithSink(sink Sink) Option {
	return func(s *Session) {
		s.sinks = append(s.sinks, sink)
	}
}

func WithID(id uuid.UUID) Option {
	return func(s *Session) {
		s.id = id
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Session) {
		s.meter = mp
	}
}

func New(t *track.Track, opts ...Option) *Session {
	ret := &Session{
		id:       uuid.New(),
		track:    t,
		params:   physics.Boat(),
		log:      log.Default().Named("session"),
		vehicles: make(map[race.EntityID]*race.Vehicle),
		ghosts:   make(map[race.EntityID]*Ghost),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.meter == nil {
		ret.meter = otel.GetMeterProvider()
	}
	ret.resolver = race.NewResolver(t, race.WithLogger(ret.log))
	ret.setupMetrics()
	if !t.IsLooping {
		ret.log.Warn("session on a track that is not looping", log.String("track", t.Name))
	}
	return ret
}

func (s *Session) setupMetrics() {
	meter := s.meter.Meter("splash.session")
	var err error
	if s.frames, err = meter.Int64Counter("splash.session.frames",
		metric.WithDescription("Number of simulated frames"),
		metric.WithUnit("{count}")); err != nil {
		s.log.Error("failed to register metric", log.ErrorField(err))
	}
	if s.laps, err = meter.Int64Counter("splash.session.laps",
		metric.WithDescription("Number of completed laps"),
		metric.WithUnit("{count}")); err != nil {
		s.log.Error("failed to register metric", log.ErrorField(err))
	}
}

func (s *Session) ID() uuid.UUID            { return s.id }
func (s *Session) Track() *track.Track      { return s.track }
func (s *Session) Elapsed() time.Duration   { return s.elapsed }
func (s *Session) Params() physics.Params   { return s.params }
func (s *Session) Resolver() *race.Resolver { return s.resolver }

// AddVehicle puts a vehicle for player on the next free grid slot.
func (s *Session) AddVehicle(player race.Player) (race.EntityID, error) {
	spawns := race.SpawnPositions(s.track)
	if len(s.vehicles) >= len(spawns) {
		return 0, fmt.Errorf("%w: %d vehicles already placed", ErrGridFull, len(s.vehicles))
	}
	spawn := spawns[len(s.vehicles)]
	id := s.nextID
	s.nextID++
	s.vehicles[id] = race.NewVehicle(player, spawn.Position, spawn.Forward)
	s.log.Debug("vehicle added",
		log.Uint32("id", uint32(id)),
		log.String("player", player.String()))
	return id, nil
}

// AddGhost adds a vehicle that follows the centerline at speed instead of
// being driven by physics.
func (s *Session) AddGhost(player race.Player, speed float32) (race.EntityID, error) {
	id, err := s.AddVehicle(player)
	if err != nil {
		return 0, err
	}
	s.ghosts[id] = NewGhost(s.track, s.vehicles[id], speed)
	return id, nil
}

func (s *Session) Vehicle(id race.EntityID) (*race.Vehicle, bool) {
	v, ok := s.vehicles[id]
	return v, ok
}

// IDs returns the entity ids in ascending order.
func (s *Session) IDs() []race.EntityID {
	ids := lo.Keys(s.vehicles)
	slices.Sort(ids)
	return ids
}

func (s *Session) ordered() []*race.Vehicle {
	return lo.Map(s.IDs(), func(id race.EntityID, _ int) *race.Vehicle {
		return s.vehicles[id]
	})
}

// Step advances the session by dt seconds: every vehicle moves first, then
// the collision passes run over all of them.
func (s *Session) Step(dt float32, controls map[race.EntityID]physics.Controls) error {
	s.elapsed += time.Duration(float64(dt) * float64(time.Second))
	for _, id := range s.IDs() {
		if g, ok := s.ghosts[id]; ok {
			g.Step(dt)
			continue
		}
		physics.Step(s.vehicles[id], s.params, controls[id], dt)
	}
	completions, err := s.resolver.Resolve(s.ordered(), s.elapsed)
	if s.frames != nil {
		s.frames.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("track", s.track.Name)))
	}
	for i := range completions {
		s.emit(&completions[i])
	}
	return err
}

func (s *Session) emit(c *race.Completion) {
	ev := LapEvent{
		SessionID: s.id,
		Track:     s.track.Name,
		Player:    c.Vehicle.Player.String(),
		Lap:       c.Lap,
		Duration:  c.Duration,
		NewBest:   c.NewBest,
		Splits:    c.Splits,
		At:        s.elapsed,
	}
	if s.laps != nil {
		s.laps.Add(context.Background(), 1, metric.WithAttributes(
			attribute.String("track", s.track.Name),
			attribute.String("player", ev.Player)))
	}
	for _, sink := range s.sinks {
		sink(ev)
	}
}

// Reset puts every vehicle back on its grid slot.
func (s *Session) Reset() {
	for _, v := range s.vehicles {
		v.Reset()
	}
	for id, g := range s.ghosts {
		s.ghosts[id] = NewGhost(s.track, g.vehicle, g.speed)
	}
	s.log.Info("session reset", log.String("id", s.id.String()))
}
