package simulate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/splash-track/log"
	"github.com/mpapenbr/splash-track/pkg/db/sqlite"
	"github.com/mpapenbr/splash-track/pkg/repository/laprecord"
	"github.com/mpapenbr/splash-track/pkg/session"
	"github.com/mpapenbr/splash-track/pkg/track"
)

func testContext() context.Context {
	return log.AddToContext(context.Background(), log.New(io.Discard, log.DebugLevel))
}

func beginner(t *testing.T) *track.Track {
	t.Helper()
	ret, err := track.Build(track.Preset(track.Beginner),
		track.WithLogger(log.New(io.Discard, log.InfoLevel)))
	require.NoError(t, err)
	return ret
}

func TestRun(t *testing.T) {
	ctx := testContext()
	var got []session.LapEvent
	closed := false
	collect := Consumer{
		Name:   "collect",
		Handle: func(ev session.LapEvent) { got = append(got, ev) },
		Close:  func() { closed = true },
	}
	dbFile := filepath.Join(t.TempDir(), "laps.db")
	store, err := dbConsumer(ctx, dbFile)
	require.NoError(t, err)

	s, err := Run(ctx, beginner(t), Options{
		Frames:    900,
		Dt:        1.0 / 60,
		Speed:     6,
		Ghosts:    2,
		Consumers: []Consumer{collect, store},
	})
	require.NoError(t, err)
	assert.True(t, closed)
	require.NotEmpty(t, got)

	players := map[string]bool{}
	for _, ev := range got {
		players[ev.Player] = true
		assert.Equal(t, s.ID(), ev.SessionID)
	}
	assert.Equal(t, map[string]bool{"P1": true, "P2": true}, players)

	board := s.Leaderboard()
	require.Len(t, board, 2)
	assert.Equal(t, "P1", board[0].Player.String(), "the faster ghost leads")

	db, err := sqlite.Open(context.Background(), dbFile)
	require.NoError(t, err)
	defer db.Close()
	recs, err := laprecord.BestByTrack(context.Background(), db, "beginner", 100)
	require.NoError(t, err)
	assert.Len(t, recs, len(got))

	var out bytes.Buffer
	require.NoError(t, report(&out, s))
	assert.Contains(t, out.String(), "BEST LAP")
	assert.Contains(t, out.String(), "P2 layer0")
}

func TestRun_invalidGhosts(t *testing.T) {
	_, err := Run(testContext(), beginner(t), Options{Frames: 1, Dt: 0.1, Speed: 1, Ghosts: 4})
	assert.Error(t, err)
}

func TestRun_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext())
	cancel()
	_, err := Run(ctx, beginner(t), Options{Frames: 10, Dt: 0.1, Speed: 1, Ghosts: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenConsumers_closesOpenedOnError(t *testing.T) {
	ctx := testContext()
	boom := errors.New("nats unreachable")
	var closed []string
	ok := func(name string) opener {
		return func(context.Context) (Consumer, error) {
			return Consumer{Name: name, Close: func() { closed = append(closed, name) }}, nil
		}
	}

	got, err := openConsumers(ctx, ok("db"), ok("other"))
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Empty(t, closed)

	_, err = openConsumers(ctx, ok("db"),
		func(context.Context) (Consumer, error) { return Consumer{}, boom },
		ok("never"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"db"}, closed)
}
