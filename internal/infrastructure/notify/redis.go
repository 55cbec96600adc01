package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"carbon-ledger/internal/ledger"
	"carbon-ledger/internal/observability"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

var (
	errQueueFull       = errors.New("event queue full")
	errPublisherClosed = errors.New("publisher closed")
)

// RedisConfig names where events go.
type RedisConfig struct {
	Channel string
	Stream  string
	// StreamMaxLen caps the stream; 0 keeps every entry.
	StreamMaxLen int64
	Timeout      time.Duration
	// Buffer is how many events may wait for delivery; further events are dropped.
	Buffer int
}

// RedisPublisher publishes each event on a pub/sub channel and appends it to a
// stream in one MULTI/EXEC. Notify only queues the event; a single sender
// goroutine delivers the queue in order through a circuit breaker.
type RedisPublisher struct {
	rdb     *redis.Client
	cfg     RedisConfig
	breaker *gobreaker.CircuitBreaker

	mu     sync.RWMutex
	closed bool
	queue  chan ledger.Event
	done   chan struct{}
}

// NewRedisPublisher returns a publisher over rdb. Zero config fields take defaults.
func NewRedisPublisher(rdb *redis.Client, cfg RedisConfig) *RedisPublisher {
	if cfg.Channel == "" {
		cfg.Channel = "ledger:events"
	}
	if cfg.Stream == "" {
		cfg.Stream = "ledger:events:log"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 500 * time.Millisecond
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1024
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "redis-events",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("event publisher state change")
		},
	})
	p := &RedisPublisher{
		rdb:     rdb,
		cfg:     cfg,
		breaker: breaker,
		queue:   make(chan ledger.Event, cfg.Buffer),
		done:    make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *RedisPublisher) run() {
	defer close(p.done)
	for e := range p.queue {
		if err := p.Publish(context.Background(), e); err != nil {
			p.dropped(e, err, "event publish failed")
		}
	}
}

func (p *RedisPublisher) dropped(e ledger.Event, err error, msg string) {
	observability.NotifyFailures.WithLabelValues("redis").Inc()
	log.Warn().Err(err).Uint64("seq", e.Seq).Str("event", string(e.Type)).Msg(msg)
}

// Notify queues e and returns at once. Events arriving when the queue is full
// or the publisher is closed are dropped, logged and counted.
func (p *RedisPublisher) Notify(e ledger.Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped(e, errPublisherClosed, "event dropped")
		return
	}
	select {
	case p.queue <- e:
	default:
		p.dropped(e, errQueueFull, "event dropped")
	}
}

// Close stops accepting events and waits until the queued ones are delivered
// or ctx is done.
func (p *RedisPublisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish sends e and reports the outcome.
func (p *RedisPublisher) Publish(ctx context.Context, e ledger.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = p.breaker.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()

		pipe := p.rdb.TxPipeline()
		pipe.Publish(ctx, p.cfg.Channel, payload)
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.cfg.Stream,
			MaxLen: p.cfg.StreamMaxLen,
			Values: map[string]interface{}{
				"seq":     e.Seq,
				"type":    string(e.Type),
				"payload": string(payload),
			},
		})
		_, err := pipe.Exec(ctx)
		return nil, err
	})
	return err
}

// State reports the circuit breaker state.
func (p *RedisPublisher) State() gobreaker.State {
	return p.breaker.State()
}
