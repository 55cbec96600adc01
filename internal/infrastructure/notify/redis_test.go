package notify

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"carbon-ledger/internal/ledger"
	"carbon-ledger/internal/observability"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPublisher(t *testing.T) (*RedisPublisher, *redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	p := NewRedisPublisher(rdb, RedisConfig{Timeout: 200 * time.Millisecond})
	t.Cleanup(func() { closePublisher(t, p) })
	return p, rdb, mr
}

func closePublisher(t *testing.T, p *RedisPublisher) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Close(ctx))
}

func TestRedisPublisher_AppendsToStream(t *testing.T) {
	p, rdb, _ := setupPublisher(t)
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, ledger.Event{Seq: 1, Type: ledger.EventOrganizationRegistered, Identity: "A", Name: "Acme"}))
	require.NoError(t, p.Publish(ctx, ledger.Event{Seq: 2, Type: ledger.EventCarbonCreditIssued, CreditID: 1, Issuer: "A", Amount: 100, ProjectType: "forestry"}))

	entries, err := rdb.XRange(ctx, "ledger:events:log", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "OrganizationRegistered", entries[0].Values["type"])
	assert.Equal(t, "2", entries[1].Values["seq"])

	var e ledger.Event
	require.NoError(t, json.Unmarshal([]byte(entries[1].Values["payload"].(string)), &e))
	assert.Equal(t, ledger.CreditID(1), e.CreditID)
	assert.Equal(t, int64(100), e.Amount)
}

func TestRedisPublisher_PublishesOnChannel(t *testing.T) {
	p, rdb, _ := setupPublisher(t)
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, "ledger:events")
	t.Cleanup(func() { sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	p.Notify(ledger.Event{Seq: 3, Type: ledger.EventCarbonCreditRetired, CreditID: 1, Holder: "B", Amount: 40})

	recvCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := sub.ReceiveMessage(recvCtx)
	require.NoError(t, err)

	var e ledger.Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &e))
	assert.Equal(t, ledger.EventCarbonCreditRetired, e.Type)
	assert.Equal(t, ledger.Identity("B"), e.Holder)
}

func TestRedisPublisher_BreakerOpensWhenRedisIsDown(t *testing.T) {
	p, _, mr := setupPublisher(t)
	mr.Close()

	failures := testutil.ToFloat64(observability.NotifyFailures.WithLabelValues("redis"))
	for i := 0; i < 5; i++ {
		p.Notify(ledger.Event{Seq: uint64(i + 1), Type: ledger.EventEmissionsReported, Identity: "A", Amount: 1})
	}
	closePublisher(t, p)
	assert.Equal(t, failures+5, testutil.ToFloat64(observability.NotifyFailures.WithLabelValues("redis")))
	assert.Equal(t, gobreaker.StateOpen, p.State())

	err := p.Publish(context.Background(), ledger.Event{Seq: 6, Type: ledger.EventEmissionsReported})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestLedger_FansOutToPublisher(t *testing.T) {
	p, rdb, _ := setupPublisher(t)
	ctx := context.Background()
	l := ledger.New(ledger.Options{Notifier: ledger.Notifiers{LogNotifier{}, p}})

	require.NoError(t, l.Register(ctx, "A", "Acme"))
	_, err := l.IssueCredit(ctx, "A", 10, "forestry", time.Now())
	require.NoError(t, err)
	closePublisher(t, p)

	n, err := rdb.XLen(ctx, "ledger:events:log").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRedisPublisher_DeliversInSequenceOrder(t *testing.T) {
	p, rdb, _ := setupPublisher(t)
	for i := 1; i <= 100; i++ {
		p.Notify(ledger.Event{Seq: uint64(i), Type: ledger.EventEmissionsReported, Identity: "A", Amount: 1})
	}
	closePublisher(t, p)

	entries, err := rdb.XRange(context.Background(), "ledger:events:log", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 100)
	for i, entry := range entries {
		assert.Equal(t, strconv.Itoa(i+1), entry.Values["seq"])
	}
}

func TestRedisPublisher_NotifyAfterCloseIsDropped(t *testing.T) {
	p, rdb, _ := setupPublisher(t)
	closePublisher(t, p)

	failures := testutil.ToFloat64(observability.NotifyFailures.WithLabelValues("redis"))
	p.Notify(ledger.Event{Seq: 1, Type: ledger.EventEmissionsReported, Identity: "A", Amount: 1})
	assert.Equal(t, failures+1, testutil.ToFloat64(observability.NotifyFailures.WithLabelValues("redis")))

	n, err := rdb.XLen(context.Background(), "ledger:events:log").Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

// A server that accepts connections and never answers.
func silentServer(t *testing.T) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	var conns []net.Conn
	var mu sync.Mutex
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			c.Close()
		}
	})
	return ln.Addr().String()
}

func TestRedisPublisher_NotifyDoesNotWaitForRedis(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: silentServer(t), MaxRetries: -1})
	t.Cleanup(func() { rdb.Close() })
	p := NewRedisPublisher(rdb, RedisConfig{Timeout: 100 * time.Millisecond})

	start := time.Now()
	for i := 1; i <= 3; i++ {
		p.Notify(ledger.Event{Seq: uint64(i), Type: ledger.EventEmissionsReported, Identity: "A", Amount: 1})
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)

	closePublisher(t, p)
}
