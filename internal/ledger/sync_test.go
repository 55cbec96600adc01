package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSource is a Source kept in memory and shared by several ledgers.
type memSource struct {
	mu      sync.Mutex
	orgs    map[Identity]Organization
	credits map[CreditID]CarbonCredit
	stats   Stats
	nextID  CreditID
	seq     uint64
	loads   int
}

func newMemSource() *memSource {
	return &memSource{orgs: map[Identity]Organization{}, credits: map[CreditID]CarbonCredit{}, nextID: 1}
}

func (m *memSource) Commit(_ context.Context, c Commit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Event.Seq != m.seq+1 {
		return fmt.Errorf("%w: at %d", ErrStale, m.seq)
	}
	for _, o := range c.Organizations {
		m.orgs[o.Identity] = o
	}
	for _, cr := range c.Credits {
		m.credits[cr.ID] = cr
	}
	m.stats, m.nextID, m.seq = c.Stats, c.NextID, c.Event.Seq
	return nil
}

func (m *memSource) Head(context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq, nil
}

func (m *memSource) Load(context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	s := Snapshot{TotalIssued: m.stats.TotalIssued, TotalRetired: m.stats.TotalRetired, NextID: m.nextID, Seq: m.seq}
	for _, o := range m.orgs {
		s.Organizations = append(s.Organizations, o)
	}
	for _, c := range m.credits {
		s.Credits = append(s.Credits, c)
	}
	sort.Slice(s.Organizations, func(i, j int) bool { return s.Organizations[i].Identity < s.Organizations[j].Identity })
	return s, nil
}

// stuckSource rejects every commit as stale and never advances.
type stuckSource struct{ loads int }

func (s *stuckSource) Commit(context.Context, Commit) error { return ErrStale }
func (s *stuckSource) Head(context.Context) (uint64, error) { return 0, nil }
func (s *stuckSource) Load(context.Context) (Snapshot, error) {
	s.loads++
	return Snapshot{}, nil
}

func TestMutate_CatchesUpWithOtherWriter(t *testing.T) {
	src := newMemSource()
	recA, recB := &recorder{}, &recorder{}
	a := New(Options{Journal: src, Notifier: recA, Clock: testClock})
	b := New(Options{Journal: src, Notifier: recB, Clock: testClock})
	ctx := context.Background()

	require.NoError(t, a.Register(ctx, "acme", "Acme"))
	id, err := a.IssueCredit(ctx, "acme", 10, "forestry", testNow)
	require.NoError(t, err)

	require.NoError(t, b.Register(ctx, "beta", "Beta"))
	assert.Equal(t, 1, src.loads)
	assert.True(t, b.IsRegistered("acme"))
	assert.Equal(t, Stats{TotalIssued: 10, Outstanding: 10}, b.Stats())

	// the losing attempt was never announced
	assert.Equal(t, []EventType{EventOrganizationRegistered}, recB.types())
	assert.Equal(t, uint64(3), recB.events[0].Seq)

	// a is behind now; its transfer reloads and sees beta
	require.NoError(t, a.TransferCredit(ctx, "acme", "beta", id))
	assert.Equal(t, int64(10), a.BalanceOf("beta"))
	require.NoError(t, a.Verify())

	require.NoError(t, b.Sync(ctx))
	assert.Equal(t, a.Snapshot(), b.Snapshot())
	require.NoError(t, b.Verify())
}

func TestMutate_GivesUpAfterRepeatedConflicts(t *testing.T) {
	src := &stuckSource{}
	rec := &recorder{}
	l := New(Options{Journal: src, Notifier: rec})

	err := l.Register(context.Background(), "acme", "Acme")
	require.ErrorIs(t, err, ErrStale)
	assert.Equal(t, maxCatchUp, src.loads)
	assert.False(t, l.IsRegistered("acme"))
	assert.Empty(t, rec.types())
}

func TestSync_WithoutSourceIsNoop(t *testing.T) {
	l, _ := setupLedger(t, "acme")
	require.NoError(t, l.Sync(context.Background()))
	assert.True(t, l.IsRegistered("acme"))
}
