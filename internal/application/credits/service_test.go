package credits

import (
	"context"
	"testing"
	"time"

	"carbon-ledger/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func setupService(t *testing.T) *Service {
	l := ledger.New(ledger.Options{})
	ctx := context.Background()
	require.NoError(t, l.Register(ctx, "A", "Acme"))
	require.NoError(t, l.Register(ctx, "B", "Beta"))
	return &Service{Ledger: l, Clock: func() time.Time { return fixedNow }}
}

func TestLifecycle(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	c, err := s.Issue(ctx, "A", 100, "forestry")
	require.NoError(t, err)
	assert.Equal(t, ledger.CreditID(1), c.ID)
	assert.Equal(t, fixedNow, c.IssuedAt)
	assert.Equal(t, ledger.Identity("A"), c.Owner)

	c, err = s.Transfer(ctx, "A", "B", c.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.Identity("B"), c.Owner)
	assert.Empty(t, s.Owned("A"))
	require.Len(t, s.Owned("B"), 1)

	c, err = s.Retire(ctx, "B", c.ID)
	require.NoError(t, err)
	assert.True(t, c.Retired)
	assert.Equal(t, ledger.Identity("B"), c.Owner)
	assert.Empty(t, s.Owned("B"))

	assert.Equal(t, ledger.Stats{TotalIssued: 100, TotalRetired: 100, Outstanding: 0}, s.Stats())
}

func TestErrors(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	_, err := s.Get(9)
	assert.ErrorIs(t, err, ledger.ErrCreditNotFound)

	_, err = s.Issue(ctx, "A", 0, "forestry")
	assert.ErrorIs(t, err, ledger.ErrInvalidAmount)

	c, err := s.Issue(ctx, "A", 10, "solar")
	require.NoError(t, err)
	_, err = s.Transfer(ctx, "B", "A", c.ID)
	assert.ErrorIs(t, err, ledger.ErrNotOwner)
	_, err = s.Transfer(ctx, "A", "ghost", c.ID)
	assert.ErrorIs(t, err, ledger.ErrNotRegistered)
	_, err = s.Retire(ctx, "A", 42)
	assert.ErrorIs(t, err, ledger.ErrCreditNotFound)
}
