package nats

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/splash-track/log"
	"github.com/mpapenbr/splash-track/pkg/session"
)

type message struct {
	subj string
	data []byte
}

type fakeConn struct {
	msgs []message
	err  error
}

func (c *fakeConn) Publish(subj string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, message{subj, data})
	return nil
}

// fakeKV implements only Get, Create and Update; other methods panic.
type fakeKV struct {
	jetstream.KeyValue
	data     map[string][]byte
	revision map[string]uint64
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string][]byte{}, revision: map[string]uint64{}}
}

type fakeEntry struct {
	jetstream.KeyValueEntry
	value    []byte
	revision uint64
}

func (e fakeEntry) Value() []byte    { return e.value }
func (e fakeEntry) Revision() uint64 { return e.revision }

func (kv *fakeKV) Create(_ context.Context, key string, value []byte, _ ...jetstream.KVCreateOpt) (uint64, error) {
	if _, ok := kv.data[key]; ok {
		return 0, jetstream.ErrKeyExists
	}
	kv.data[key] = value
	kv.revision[key] = 1
	return 1, nil
}

func (kv *fakeKV) Update(_ context.Context, key string, value []byte, last uint64) (uint64, error) {
	if kv.revision[key] != last {
		return 0, errors.New("wrong last sequence")
	}
	kv.data[key] = value
	kv.revision[key]++
	return kv.revision[key], nil
}

func (kv *fakeKV) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	v, ok := kv.data[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return fakeEntry{value: v, revision: kv.revision[key]}, nil
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, log.DebugLevel)
}

func sampleEvent(newBest bool) session.LapEvent {
	return session.LapEvent{
		SessionID: uuid.New(),
		Track:     "beginner",
		Player:    "P1",
		Lap:       2,
		Duration:  4100 * time.Millisecond,
		NewBest:   newBest,
		Splits:    map[uint8]time.Duration{1: 2 * time.Second},
		At:        9 * time.Second,
	}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "splash.laps.beginner", Subject("beginner"))
	p := New(&fakeConn{}, WithPrefix("test.laps"))
	assert.Equal(t, "test.laps.advanced", p.Subject("advanced"))
}

func TestPublish(t *testing.T) {
	conn := &fakeConn{}
	kv := newFakeKV()
	p := New(conn, WithBestLaps(kv), WithLogger(quietLogger()))

	ev := sampleEvent(false)
	require.NoError(t, p.Publish(context.Background(), ev))
	require.Len(t, conn.msgs, 1)
	assert.Equal(t, "splash.laps.beginner", conn.msgs[0].subj)
	var got session.LapEvent
	require.NoError(t, json.Unmarshal(conn.msgs[0].data, &got))
	assert.Equal(t, ev, got)
	assert.Empty(t, kv.data, "only new best laps are stored")

	_, err := BestLap(context.Background(), kv, "beginner", "P1")
	assert.ErrorIs(t, err, ErrNoBestLap)

	best := sampleEvent(true)
	require.NoError(t, p.Publish(context.Background(), best))
	stored, err := BestLap(context.Background(), kv, "beginner", "P1")
	require.NoError(t, err)
	assert.Equal(t, best, *stored)
}

func TestPublish_keepsFasterBestLap(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV()
	p := New(&fakeConn{}, WithBestLaps(kv), WithLogger(quietLogger()))

	fast := sampleEvent(true)
	require.NoError(t, p.Publish(ctx, fast))

	// first lap of a later session is a session best but slower overall
	slow := sampleEvent(true)
	slow.Lap = 1
	slow.Duration = 5 * time.Second
	require.NoError(t, p.Publish(ctx, slow))
	stored, err := BestLap(ctx, kv, "beginner", "P1")
	require.NoError(t, err)
	assert.Equal(t, fast, *stored)

	faster := sampleEvent(true)
	faster.Duration = 3900 * time.Millisecond
	require.NoError(t, p.Publish(ctx, faster))
	stored, err = BestLap(ctx, kv, "beginner", "P1")
	require.NoError(t, err)
	assert.Equal(t, faster, *stored)
	assert.Equal(t, uint64(2), kv.revision["beginner.P1"])
}

func TestPublish_connError(t *testing.T) {
	boom := errors.New("boom")
	p := New(&fakeConn{err: boom}, WithLogger(quietLogger()))
	err := p.Publish(context.Background(), sampleEvent(true))
	assert.ErrorIs(t, err, boom)

	// the sink only logs
	p.Sink(context.Background())(sampleEvent(true))
}
