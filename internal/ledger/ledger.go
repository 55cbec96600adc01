// Package ledger is the bookkeeping core for carbon credits: organization
// profiles, credit lifecycle, ownership sets and balance counters.
//
// A Ledger serializes every mutation behind one write lock. Each mutation is
// validated, handed to the Journal (if any), applied in memory and then
// announced to the Notifier, so observers only ever see committed state.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Commit is the after-image of one mutation, handed to the Journal before it
// is applied in memory.
type Commit struct {
	Event         Event
	Organizations []Organization
	Credits       []CarbonCredit
	Stats         Stats
	NextID        CreditID
}

// Journal durably records commits. A Commit error aborts the mutation.
type Journal interface {
	Commit(ctx context.Context, c Commit) error
}

// Options configures a Ledger. The zero value is an in-memory ledger with no observers.
type Options struct {
	Notifier Notifier
	Journal  Journal
	// Clock stamps events; defaults to time.Now.
	Clock func() time.Time
}

// Ledger owns the registry, the credit store and all counters.
type Ledger struct {
	mu sync.RWMutex

	orgs     *registry
	credits  *creditStore
	balances map[Identity]int64

	totalIssued  int64
	totalRetired int64
	seq          uint64

	notifier Notifier
	journal  Journal
	clock    func() time.Time
}

// New returns an empty ledger.
func New(opts Options) *Ledger {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Ledger{
		orgs:     newRegistry(),
		credits:  newCreditStore(),
		balances: make(map[Identity]int64),
		notifier: opts.Notifier,
		journal:  opts.Journal,
		clock:    clock,
	}
}

// Register creates a profile with zero emissions and offsets.
func (l *Ledger) Register(ctx context.Context, identity Identity, name string) error {
	identity, name = cloneIdentity(identity), strings.Clone(name)
	return l.mutate(ctx, func() error {
		if l.orgs.isRegistered(identity) {
			return fmt.Errorf("%w: %s", ErrAlreadyRegistered, identity)
		}
		if strings.TrimSpace(name) == "" {
			return ErrInvalidName
		}

		org := Organization{Identity: identity, Name: name, Registered: true}
		return l.commit(ctx, Commit{
			Event:         Event{Type: EventOrganizationRegistered, Identity: identity, Name: name},
			Organizations: []Organization{org},
		}, func() {
			l.orgs.put(org)
		})
	})
}

// ReportEmissions adds amount to the organization's cumulative emissions.
func (l *Ledger) ReportEmissions(ctx context.Context, identity Identity, amount int64) error {
	identity = cloneIdentity(identity)
	return l.mutate(ctx, func() error {
		if !l.orgs.isRegistered(identity) {
			return fmt.Errorf("%w: %s", ErrNotRegistered, identity)
		}
		if amount <= 0 {
			return ErrInvalidAmount
		}
		org := l.orgs.lookup(identity)
		if org.TotalEmissions > math.MaxInt64-amount {
			return fmt.Errorf("%w: emissions total would overflow", ErrInvalidAmount)
		}
		org.TotalEmissions += amount

		return l.commit(ctx, Commit{
			Event:         Event{Type: EventEmissionsReported, Identity: identity, Amount: amount},
			Organizations: []Organization{org},
		}, func() {
			l.orgs.put(org)
		})
	})
}

// IssueCredit mints a new credit owned by issuer. A rejected call allocates no id.
func (l *Ledger) IssueCredit(ctx context.Context, issuer Identity, amount int64, projectType string, now time.Time) (CreditID, error) {
	issuer, projectType = cloneIdentity(issuer), strings.Clone(projectType)
	var id CreditID
	err := l.mutate(ctx, func() error {
		if !l.orgs.isRegistered(issuer) {
			return fmt.Errorf("%w: %s", ErrNotRegistered, issuer)
		}
		if amount <= 0 {
			return ErrInvalidAmount
		}
		if strings.TrimSpace(projectType) == "" {
			return ErrInvalidProject
		}
		if l.totalIssued > math.MaxInt64-amount {
			return fmt.Errorf("%w: issued total would overflow", ErrInvalidAmount)
		}

		next := l.credits.peekID()
		credit := CarbonCredit{
			ID:          next,
			Issuer:      issuer,
			Amount:      amount,
			ProjectType: projectType,
			IssuedAt:    now,
			Owner:       issuer,
		}
		stats := l.statsLocked()
		stats.TotalIssued += amount
		stats.Outstanding += amount

		return l.commit(ctx, Commit{
			Event: Event{
				Type:        EventCarbonCreditIssued,
				CreditID:    next,
				Issuer:      issuer,
				Amount:      amount,
				ProjectType: projectType,
			},
			Credits: []CarbonCredit{credit},
			Stats:   stats,
			NextID:  next + 1,
		}, func() {
			id = l.credits.create(issuer, amount, projectType, now)
			l.balances[issuer] += amount
			l.totalIssued += amount
		})
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// TransferCredit moves an active credit from sender to recipient.
// Transferring to oneself changes nothing but is still announced.
func (l *Ledger) TransferCredit(ctx context.Context, sender, recipient Identity, id CreditID) error {
	sender, recipient = cloneIdentity(sender), cloneIdentity(recipient)
	return l.mutate(ctx, func() error {
		if !l.orgs.isRegistered(recipient) {
			return fmt.Errorf("%w: %s", ErrNotRegistered, recipient)
		}
		credit, err := l.activeCredit(id, sender)
		if err != nil {
			return err
		}

		event := Event{Type: EventCarbonCreditTransferred, CreditID: id, Sender: sender, Recipient: recipient}
		if sender == recipient {
			return l.commit(ctx, Commit{Event: event}, func() {})
		}

		credit.Owner = recipient
		return l.commit(ctx, Commit{
			Event:   event,
			Credits: []CarbonCredit{credit},
		}, func() {
			l.credits.move(id, recipient)
			l.balances[sender] -= credit.Amount
			l.balances[recipient] += credit.Amount
		})
	})
}

// RetireCredit consumes a credit against holder's emissions. Retirement is terminal.
func (l *Ledger) RetireCredit(ctx context.Context, holder Identity, id CreditID) error {
	holder = cloneIdentity(holder)
	return l.mutate(ctx, func() error {
		credit, err := l.activeCredit(id, holder)
		if err != nil {
			return err
		}

		org := l.orgs.lookup(holder)
		org.TotalOffsets += credit.Amount
		credit.Retired = true
		stats := l.statsLocked()
		stats.TotalRetired += credit.Amount
		stats.Outstanding -= credit.Amount

		return l.commit(ctx, Commit{
			Event:         Event{Type: EventCarbonCreditRetired, CreditID: id, Holder: holder, Amount: credit.Amount},
			Organizations: []Organization{org},
			Credits:       []CarbonCredit{credit},
			Stats:         stats,
		}, func() {
			l.credits.markRetired(id)
			l.balances[holder] -= credit.Amount
			l.orgs.put(org)
			l.totalRetired += credit.Amount
		})
	})
}

// activeCredit returns the credit if it exists, is not retired and is owned by caller.
func (l *Ledger) activeCredit(id CreditID, caller Identity) (CarbonCredit, error) {
	credit, ok := l.credits.get(id)
	if !ok {
		return CarbonCredit{}, fmt.Errorf("%w: %d", ErrCreditNotFound, id)
	}
	if credit.Retired {
		return CarbonCredit{}, fmt.Errorf("%w: %d", ErrCreditRetired, id)
	}
	if credit.Owner != caller {
		return CarbonCredit{}, fmt.Errorf("%w: %d", ErrNotOwner, id)
	}
	return credit, nil
}

// commit journals c, applies it and notifies. Callers hold the write lock.
// Stats and NextID default to the current values when the mutation leaves them untouched.
func (l *Ledger) commit(ctx context.Context, c Commit, apply func()) error {
	if c.Stats == (Stats{}) {
		c.Stats = l.statsLocked()
	}
	if c.NextID == 0 {
		c.NextID = l.credits.peekID()
	}
	c.Event.Seq = l.seq + 1
	c.Event.OccurredAt = l.clock()

	if l.journal != nil {
		if err := l.journal.Commit(ctx, c); err != nil {
			if l.journalAhead(ctx, err) {
				log.Warn().Err(err).Str("event", string(c.Event.Type)).Uint64("seq", c.Event.Seq).Msg("journal moved ahead of ledger")
				if !errors.Is(err, ErrStale) {
					err = fmt.Errorf("%w: %w", ErrStale, err)
				}
				return fmt.Errorf("commit %s: %w", c.Event.Type, err)
			}
			log.Error().Err(err).Str("event", string(c.Event.Type)).Uint64("seq", c.Event.Seq).Msg("journal commit failed")
			return fmt.Errorf("commit %s: %w", c.Event.Type, err)
		}
	}

	apply()
	l.seq = c.Event.Seq
	log.Debug().Str("event", string(c.Event.Type)).Uint64("seq", c.Event.Seq).Msg("ledger commit")

	if l.notifier != nil {
		l.notifier.Notify(c.Event)
	}
	return nil
}

// IsRegistered reports whether identity has a profile.
func (l *Ledger) IsRegistered(identity Identity) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.orgs.isRegistered(identity)
}

// Organization returns identity's profile. Unknown identities yield a zero,
// unregistered profile rather than an error.
func (l *Ledger) Organization(identity Identity) Organization {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.orgs.lookup(identity)
}

// NetBalance is offsets minus emissions; zero for unknown identities.
func (l *Ledger) NetBalance(identity Identity) int64 {
	return l.Organization(identity).NetBalance()
}

// BalanceOf is the total amount of active credits identity holds.
func (l *Ledger) BalanceOf(identity Identity) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[identity]
}

// Credit looks up a credit by id.
func (l *Ledger) Credit(id CreditID) (CarbonCredit, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.credits.get(id)
}

// OwnedBy lists the active credits identity holds. Order is not stable across removals.
func (l *Ledger) OwnedBy(identity Identity) []CreditID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.credits.ownedBy(identity)
}

// Stats returns the global counters.
func (l *Ledger) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.statsLocked()
}

func cloneIdentity(id Identity) Identity {
	return Identity(strings.Clone(string(id)))
}

func (l *Ledger) statsLocked() Stats {
	return Stats{
		TotalIssued:  l.totalIssued,
		TotalRetired: l.totalRetired,
		Outstanding:  l.totalIssued - l.totalRetired,
	}
}
