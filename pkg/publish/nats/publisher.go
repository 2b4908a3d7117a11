// Package nats publishes lap events to NATS and keeps the best lap per
// track and player in a jetstream key value bucket.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/mpapenbr/splash-track/log"
	"github.com/mpapenbr/splash-track/pkg/session"
)

const (
	DefaultPrefix  = "splash.laps"
	BestLapsBucket = "splash_best_laps"
)

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

var _ Conn = (*nats.Conn)(nil)

type (
	Option    func(*Publisher)
	Publisher struct {
		conn   Conn
		prefix string
		kv     jetstream.KeyValue
		log    *log.Logger
	}
)

func WithPrefix(prefix string) Option {
	return func(p *Publisher) {
		p.prefix = prefix
	}
}

// WithBestLaps stores new best laps in kv.
func WithBestLaps(kv jetstream.KeyValue) Option {
	return func(p *Publisher) {
		p.kv = kv
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Publisher) {
		p.log = l
	}
}

func New(conn Conn, opts ...Option) *Publisher {
	ret := &Publisher{
		conn:   conn,
		prefix: DefaultPrefix,
		log:    log.Default().Named("publish.nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Subject returns the subject lap events of track are published on.
func Subject(track string) string {
	return subject(DefaultPrefix, track)
}

func subject(prefix, track string) string {
	return fmt.Sprintf("%s.%s", prefix, track)
}

func (p *Publisher) Subject(track string) string {
	return subject(p.prefix, track)
}

func bestLapKey(track, player string) string {
	return fmt.Sprintf("%s.%s", track, player)
}

// Publish sends ev as JSON. A new best lap is also written to the best lap
// bucket if one is configured.
func (p *Publisher) Publish(ctx context.Context, ev session.LapEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	subj := p.Subject(ev.Track)
	if err := p.conn.Publish(subj, data); err != nil {
		return fmt.Errorf("publish %s: %w", subj, err)
	}
	p.log.Debug("lap published",
		log.String("subject", subj),
		log.String("player", ev.Player),
		log.Uint32("lap", ev.Lap))
	if p.kv == nil || !ev.NewBest {
		return nil
	}
	if err := p.storeBest(ctx, ev, data); err != nil {
		return fmt.Errorf("store best lap: %w", err)
	}
	return nil
}

// storeBest keeps the stored lap unless ev is strictly faster. NewBest is
// only relative to the current session, the bucket spans all sessions.
func (p *Publisher) storeBest(ctx context.Context, ev session.LapEvent, data []byte) error {
	key := bestLapKey(ev.Track, ev.Player)
	entry, err := p.kv.Get(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		_, err = p.kv.Create(ctx, key, data)
		return err
	}
	if err != nil {
		return err
	}
	var stored session.LapEvent
	if err := json.Unmarshal(entry.Value(), &stored); err == nil &&
		stored.Duration <= ev.Duration {
		p.log.Debug("stored best lap is faster",
			log.String("key", key),
			log.Duration("stored", stored.Duration),
			log.Duration("lap", ev.Duration))
		return nil
	}
	_, err = p.kv.Update(ctx, key, data, entry.Revision())
	return err
}

// Sink adapts the publisher to a session sink. Errors are logged.
func (p *Publisher) Sink(ctx context.Context) session.Sink {
	return func(ev session.LapEvent) {
		if err := p.Publish(ctx, ev); err != nil {
			p.log.Error("could not publish lap", log.ErrorField(err))
		}
	}
}

// OpenBestLaps creates or updates the best lap bucket.
func OpenBestLaps(ctx context.Context, nc *nats.Conn) (jetstream.KeyValue, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, err
	}
	return js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      BestLapsBucket,
		Description: "best lap per track and player",
	})
}

var ErrNoBestLap = errors.New("no best lap")

// BestLap reads the stored best lap of player on track.
func BestLap(ctx context.Context, kv jetstream.KeyValue, track, player string) (*session.LapEvent, error) {
	entry, err := kv.Get(ctx, bestLapKey(track, player))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNoBestLap
		}
		return nil, err
	}
	var ret session.LapEvent
	if err := json.Unmarshal(entry.Value(), &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}
