package broadcast

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/splash-track/log"
)

//nolint:lll // by design
// see https://betterprogramming.pub/how-to-broadcast-messages-in-go-using-channels-b68f42bdf32e

type BroadcastServer[T any] interface {
	Subscribe() <-chan T
	CancelSubscription(<-chan T)
	Close()
	// Done is closed once the server stopped and all listeners are closed.
	Done() <-chan struct{}
	Stats() Stats
}

type Stats struct {
	Received  int64
	Sent      int64
	Skipped   int64
	Listeners int64
}

type broadcastServer[T any] struct {
	name           string
	eventKey       string
	source         <-chan T
	listeners      []chan T
	addListener    chan chan T
	removeListener chan (<-chan T)
	ctx            context.Context
	cancel         context.CancelFunc
	done           chan struct{}
	sendTimeout    time.Duration
	log            *log.Logger
	meter          metric.MeterProvider

	numRcv       atomic.Int64
	numSnd       atomic.Int64
	numSkip      atomic.Int64
	numListeners atomic.Int64
}

type Option[T any] func(*broadcastServer[T])

func WithEventKey[T any](eventKey string) Option[T] {
	return func(b *broadcastServer[T]) {
		b.eventKey = eventKey
	}
}

// WithSendTimeout limits how long a slow listener may block a message.
func WithSendTimeout[T any](d time.Duration) Option[T] {
	return func(b *broadcastServer[T]) {
		b.sendTimeout = d
	}
}

func WithLogger[T any](l *log.Logger) Option[T] {
	return func(b *broadcastServer[T]) {
		b.log = l
	}
}

func WithMeterProvider[T any](mp metric.MeterProvider) Option[T] {
	return func(b *broadcastServer[T]) {
		b.meter = mp
	}
}

// NewBroadcastServer fans out every message read from source to all
// subscribers. The server stops when source is closed or Close is called.
//
//nolint:whitespace // false positive
func NewBroadcastServer[T any](
	name string,
	source <-chan T,
	opts ...Option[T],
) BroadcastServer[T] {
	ctx, cancel := context.WithCancel(context.Background())
	b := &broadcastServer[T]{
		name:           name,
		eventKey:       name,
		source:         source,
		addListener:    make(chan chan T),
		removeListener: make(chan (<-chan T)),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
		sendTimeout:    50 * time.Millisecond,
		log:            log.Default().Named("broadcast"),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.meter == nil {
		b.meter = otel.GetMeterProvider()
	}
	b.setupMetrics()
	go b.serve()
	return b
}

func (b *broadcastServer[T]) Subscribe() <-chan T {
	ch := make(chan T)
	select {
	case b.addListener <- ch:
	case <-b.done:
		close(ch)
	}
	return ch
}

func (b *broadcastServer[T]) CancelSubscription(ch <-chan T) {
	select {
	case b.removeListener <- ch:
	case <-b.done:
	}
}

func (b *broadcastServer[T]) Close() {
	s := b.Stats()
	b.log.Info("Closing broadcast server",
		log.String("name", b.name),
		log.Int64("rcv", s.Received), log.Int64("snd", s.Sent), log.Int64("skip", s.Skipped))
	b.cancel()
	<-b.done
}

func (b *broadcastServer[T]) Done() <-chan struct{} {
	return b.done
}

func (b *broadcastServer[T]) Stats() Stats {
	return Stats{
		Received:  b.numRcv.Load(),
		Sent:      b.numSnd.Load(),
		Skipped:   b.numSkip.Load(),
		Listeners: b.numListeners.Load(),
	}
}

//nolint:lll // readability
func (b *broadcastServer[T]) setupMetrics() {
	meter := b.meter.Meter(fmt.Sprintf("splash.broadcast.%s", b.name))
	register := func(metricName, desc, unit string, valueProvider func() int64) {
		if _, err := meter.Int64ObservableGauge(
			metricName,
			metric.WithDescription(desc),
			metric.WithUnit(unit),

			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(valueProvider(),
					metric.WithAttributes(
						attribute.String("name", b.name),
						attribute.String("event", b.eventKey),
					),
				)
				return nil
			})); err != nil {
			b.log.Error("failed to register metric",
				log.String("metric", metricName),
				log.ErrorField(err))
		}
	}
	type data struct {
		name  string
		desc  string
		unit  string
		value func() int64
	}
	for _, d := range []*data{
		{"splash.broadcast.rcv", "Number of received messages", "{count}", b.numRcv.Load},
		{"splash.broadcast.snd", "Number of sent messages", "{count}", b.numSnd.Load},
		{"splash.broadcast.skip", "Number of skipped messages", "{count}", b.numSkip.Load},
		{"splash.broadcast.listener", "Number of listeners", "{count}", b.numListeners.Load},
	} {
		register(d.name, d.desc, d.unit, d.value)
	}
}

func (b *broadcastServer[T]) remove(ch <-chan T) {
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(listener)
			b.log.Debug("removed listener",
				log.String("name", b.name), log.Int("len", len(b.listeners)))
			break
		}
	}
	b.numListeners.Store(int64(len(b.listeners)))
}

func (b *broadcastServer[T]) send(msg T) {
	b.numRcv.Add(1)
	for _, listener := range b.listeners {
		timer := time.NewTimer(b.sendTimeout)
		select {
		case listener <- msg:
			b.numSnd.Add(1)
		case <-timer.C:
			b.numSkip.Add(1)
		}
		timer.Stop()
	}
}

//nolint:cyclop // by design
func (b *broadcastServer[T]) serve() {
	defer func() {
		b.log.Debug("Closing listeners", log.String("name", b.name))
		for _, listener := range b.listeners {
			close(listener)
		}
		b.listeners = nil
		b.numListeners.Store(0)
		close(b.done)
	}()
	for {
		select {
		case <-b.ctx.Done():
			b.log.Debug("broadcast server about to be closed", log.String("name", b.name))
			return
		case ch := <-b.addListener:
			b.listeners = append(b.listeners, ch)
			b.numListeners.Store(int64(len(b.listeners)))
		case ch := <-b.removeListener:
			b.remove(ch)
		case msg, ok := <-b.source:
			if !ok {
				b.log.Debug("source closed", log.String("name", b.name))
				return
			}
			b.send(msg)
		}
	}
}
