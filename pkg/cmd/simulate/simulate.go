package simulate

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/splash-track/log"
	"github.com/mpapenbr/splash-track/pkg/cmd/util"
	"github.com/mpapenbr/splash-track/pkg/config"
	"github.com/mpapenbr/splash-track/pkg/db/migrate"
	"github.com/mpapenbr/splash-track/pkg/db/sqlite"
	natspub "github.com/mpapenbr/splash-track/pkg/publish/nats"
	"github.com/mpapenbr/splash-track/pkg/race"
	"github.com/mpapenbr/splash-track/pkg/repository/laprecord"
	"github.com/mpapenbr/splash-track/pkg/session"
	"github.com/mpapenbr/splash-track/pkg/track"
	"github.com/mpapenbr/splash-track/pkg/utils"
	"github.com/mpapenbr/splash-track/pkg/utils/broadcast"
)

var waitForNats string

func NewSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "drives ghost vehicles around a track and reports their laps",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startSimulation(cmd)
		},
	}
	util.AddTrackFlags(cmd)
	cmd.Flags().IntVar(&config.Frames,
		"frames",
		3600,
		"number of frames to simulate")
	cmd.Flags().Float32Var(&config.FrameDuration,
		"dt",
		1.0/60,
		"seconds per frame")
	cmd.Flags().Float32Var(&config.GhostSpeed,
		"speed",
		6,
		"centerline speed of the fastest ghost")
	cmd.Flags().IntVar(&config.Ghosts,
		"ghosts",
		len(race.Players),
		"number of ghost vehicles (1-3)")
	cmd.Flags().StringVar(&config.DB,
		"db",
		"",
		"stores laps in this sqlite database")
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		"",
		"publishes laps to this NATS server")
	cmd.Flags().BoolVar(&config.NatsBestLaps,
		"nats-best-laps",
		false,
		"keeps best laps in a jetstream key value bucket")
	cmd.Flags().StringVar(&waitForNats,
		"wait-for-services",
		"15s",
		"duration to wait for the NATS server")
	return cmd
}

// Consumer handles lap events from a subscription until it is closed.
type Consumer struct {
	Name   string
	Handle func(session.LapEvent)
	Close  func()
}

// Options controls one simulation run.
type Options struct {
	Frames    int
	Dt        float32
	Speed     float32
	Ghosts    int
	Consumers []Consumer
}

//nolint:funlen // by design
func startSimulation(cmd *cobra.Command) error {
	ctx := log.AddToContext(cmd.Context(), log.Default())
	defer util.StartTelemetry(ctx)()

	t, err := util.ResolveTrack(ctx)
	if err != nil {
		log.Error("could not build track", log.ErrorField(err))
		return err
	}
	var openers []opener
	if config.DB != "" {
		openers = append(openers, func(ctx context.Context) (Consumer, error) {
			return dbConsumer(ctx, config.DB)
		})
	}
	if config.NatsURL != "" {
		openers = append(openers, func(ctx context.Context) (Consumer, error) {
			return natsConsumer(ctx, config.NatsURL)
		})
	}
	consumers, err := openConsumers(ctx, openers...)
	if err != nil {
		return err
	}
	consumers = append([]Consumer{logConsumer(log.Default().Named("laps"))}, consumers...)

	s, err := Run(ctx, t, Options{
		Frames:    config.Frames,
		Dt:        config.FrameDuration,
		Speed:     config.GhostSpeed,
		Ghosts:    config.Ghosts,
		Consumers: consumers,
	})
	if err != nil {
		return err
	}
	return report(cmd.OutOrStdout(), s)
}

// Run simulates opts.Frames frames. Lap events are fanned out to the
// consumers, Run returns after every consumer has drained its events.
func Run(ctx context.Context, t *track.Track, opts Options) (*session.Session, error) {
	if opts.Ghosts < 1 || opts.Ghosts > len(race.Players) {
		return nil, fmt.Errorf("ghosts must be within 1..%d, got %d", len(race.Players), opts.Ghosts)
	}
	logger := log.GetFromContext(ctx)
	events := make(chan session.LapEvent)
	srv := broadcast.NewBroadcastServer("laps", events,
		broadcast.WithEventKey[session.LapEvent](t.Name),
		broadcast.WithSendTimeout[session.LapEvent](time.Second),
		broadcast.WithLogger[session.LapEvent](logger.Named("broadcast")))

	wg := sync.WaitGroup{}
	for _, c := range opts.Consumers {
		ch := srv.Subscribe()
		wg.Add(1)
		go func(c Consumer) {
			defer wg.Done()
			for ev := range ch {
				c.Handle(ev)
			}
			if c.Close != nil {
				c.Close()
			}
			logger.Debug("consumer done", log.String("name", c.Name))
		}(c)
	}

	s := session.New(t,
		session.WithLogger(logger.Named("session")),
		session.WithSink(func(ev session.LapEvent) { events <- ev }))
	for i := range opts.Ghosts {
		// every ghost is a bit slower than the previous one
		speed := opts.Speed * (1 - 0.1*float32(i))
		if _, err := s.AddGhost(race.Players[i], speed); err != nil {
			close(events)
			wg.Wait()
			return nil, err
		}
	}

	var err error
	for frame := 0; frame < opts.Frames && err == nil; frame++ {
		select {
		case <-ctx.Done():
			err = ctx.Err()
		default:
			err = s.Step(opts.Dt, nil)
		}
	}
	close(events)
	<-srv.Done()
	wg.Wait()
	stats := srv.Stats()
	logger.Info("simulation done",
		log.String("session", s.ID().String()),
		log.Duration("elapsed", s.Elapsed()),
		log.Int64("laps", stats.Received),
		log.Int64("skipped", stats.Skipped))
	return s, err
}

func report(w io.Writer, s *session.Session) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", s.BoardText()); err != nil {
		return err
	}
	for _, id := range s.IDs() {
		status, err := s.Status(id)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n\n", status); err != nil {
			return err
		}
	}
	return nil
}

func logConsumer(l *log.Logger) Consumer {
	return Consumer{
		Name: "log",
		Handle: func(ev session.LapEvent) {
			l.Info("lap",
				log.String("track", ev.Track),
				log.String("player", ev.Player),
				log.Uint32("lap", ev.Lap),
				log.Duration("duration", ev.Duration),
				log.Bool("newBest", ev.NewBest))
		},
	}
}

type opener func(ctx context.Context) (Consumer, error)

// openConsumers opens consumers in order. If one fails the ones already
// opened are closed.
func openConsumers(ctx context.Context, openers ...opener) ([]Consumer, error) {
	ret := make([]Consumer, 0, len(openers))
	for _, open := range openers {
		c, err := open(ctx)
		if err != nil {
			for _, done := range ret {
				if done.Close != nil {
					done.Close()
				}
			}
			return nil, err
		}
		ret = append(ret, c)
	}
	return ret, nil
}

func dbConsumer(ctx context.Context, dsn string) (Consumer, error) {
	db, err := sqlite.Open(ctx, dsn)
	if err != nil {
		return Consumer{}, err
	}
	if err := migrate.MigrateDb(db); err != nil {
		db.Close()
		return Consumer{}, err
	}
	sink := laprecord.Sink(ctx, db, func(err error) {
		log.Error("could not store lap", log.ErrorField(err))
	})
	return Consumer{
		Name:   "db",
		Handle: sink,
		Close:  func() { closeDB(db) },
	}, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		log.Warn("could not close database", log.ErrorField(err))
	}
}

func natsConsumer(ctx context.Context, url string) (Consumer, error) {
	timeout, err := time.ParseDuration(waitForNats)
	if err != nil {
		log.Warn("Invalid duration value. Setting default 15s", log.ErrorField(err))
		timeout = 15 * time.Second
	}
	if addr := utils.ExtractFromNatsURL(url); addr != "" {
		if err := utils.WaitForTCP(ctx, addr, timeout); err != nil {
			return Consumer{}, err
		}
	}
	nc, err := nats.Connect(url, nats.Name("splash-track"))
	if err != nil {
		return Consumer{}, err
	}
	opts := []natspub.Option{natspub.WithLogger(log.Default().Named("publish.nats"))}
	if config.NatsBestLaps {
		var kv jetstream.KeyValue
		if kv, err = natspub.OpenBestLaps(ctx, nc); err != nil {
			nc.Close()
			return Consumer{}, err
		}
		opts = append(opts, natspub.WithBestLaps(kv))
	}
	pub := natspub.New(nc, opts...)
	return Consumer{
		Name:   "nats",
		Handle: pub.Sink(ctx),
		Close: func() {
			if err := nc.Drain(); err != nil {
				log.Warn("could not drain nats connection", log.ErrorField(err))
			}
		},
	}, nil
}
