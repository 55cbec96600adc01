package credits

import (
	"context"
	"fmt"
	"time"

	"carbon-ledger/internal/ledger"
)

// Service exposes the credit lifecycle to handlers and the seed command.
type Service struct {
	Ledger *ledger.Ledger
	// Clock stamps issuance dates; defaults to time.Now.
	Clock func() time.Time
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

// Issue mints a credit owned by issuer.
func (s *Service) Issue(ctx context.Context, issuer ledger.Identity, amount int64, projectType string) (ledger.CarbonCredit, error) {
	id, err := s.Ledger.IssueCredit(ctx, issuer, amount, projectType, s.now())
	if err != nil {
		return ledger.CarbonCredit{}, err
	}
	return s.Get(id)
}

// Transfer hands credit id from sender to recipient.
func (s *Service) Transfer(ctx context.Context, sender, recipient ledger.Identity, id ledger.CreditID) (ledger.CarbonCredit, error) {
	if err := s.Ledger.TransferCredit(ctx, sender, recipient, id); err != nil {
		return ledger.CarbonCredit{}, err
	}
	return s.Get(id)
}

// Retire consumes credit id against holder's emissions.
func (s *Service) Retire(ctx context.Context, holder ledger.Identity, id ledger.CreditID) (ledger.CarbonCredit, error) {
	if err := s.Ledger.RetireCredit(ctx, holder, id); err != nil {
		return ledger.CarbonCredit{}, err
	}
	return s.Get(id)
}

// Get returns the credit or ledger.ErrCreditNotFound.
func (s *Service) Get(id ledger.CreditID) (ledger.CarbonCredit, error) {
	c, ok := s.Ledger.Credit(id)
	if !ok {
		return ledger.CarbonCredit{}, fmt.Errorf("%w: %d", ledger.ErrCreditNotFound, id)
	}
	return c, nil
}

// Owned lists the active credits identity holds.
func (s *Service) Owned(identity ledger.Identity) []ledger.CarbonCredit {
	ids := s.Ledger.OwnedBy(identity)
	out := make([]ledger.CarbonCredit, 0, len(ids))
	for _, id := range ids {
		// a concurrent retire may have removed it since OwnedBy returned
		if c, ok := s.Ledger.Credit(id); ok && !c.Retired && c.Owner == identity {
			out = append(out, c)
		}
	}
	return out
}

// Stats returns the global counters.
func (s *Service) Stats() ledger.Stats {
	return s.Ledger.Stats()
}
