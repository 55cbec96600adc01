package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Source is a Journal that can also report and reproduce what it holds. A
// ledger over a Source catches up when another process has committed to the
// same journal.
type Source interface {
	Journal
	// Head returns the Seq of the last committed event, 0 when empty.
	Head(ctx context.Context) (uint64, error)
	Load(ctx context.Context) (Snapshot, error)
}

// maxCatchUp bounds how often one mutation reloads and retries after losing a
// race with another writer.
const maxCatchUp = 3

// mutate runs op under the write lock. When op fails because the journal is
// ahead of memory the ledger reloads from its Source and runs op again, so op
// must validate against current state on every call.
func (l *Ledger) mutate(ctx context.Context, op func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for attempt := 0; ; attempt++ {
		err := op()
		if !errors.Is(err, ErrStale) || attempt == maxCatchUp {
			return err
		}
		if rerr := l.reloadLocked(ctx); rerr != nil {
			return fmt.Errorf("%w (reload: %v)", err, rerr)
		}
	}
}

// journalAhead reports whether a failed commit lost to another writer.
func (l *Ledger) journalAhead(ctx context.Context, err error) bool {
	if errors.Is(err, ErrStale) {
		return true
	}
	src, ok := l.journal.(Source)
	if !ok {
		return false
	}
	head, herr := src.Head(ctx)
	return herr == nil && head != l.seq
}

// Sync reloads the ledger when its Source holds commits this ledger has not
// seen. Ledgers without a Source are always in sync.
func (l *Ledger) Sync(ctx context.Context) error {
	src, ok := l.journal.(Source)
	if !ok {
		return nil
	}
	head, err := src.Head(ctx)
	if err != nil {
		return fmt.Errorf("read journal head: %w", err)
	}

	l.mu.RLock()
	current := l.seq == head
	l.mu.RUnlock()
	if current {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reloadLocked(ctx)
}

// reloadLocked replaces in-memory state with the Source's snapshot. Callers
// hold the write lock.
func (l *Ledger) reloadLocked(ctx context.Context) error {
	src, ok := l.journal.(Source)
	if !ok {
		return ErrStale
	}
	snap, err := src.Load(ctx)
	if err != nil {
		return err
	}
	fresh, err := Restore(snap, Options{})
	if err != nil {
		return err
	}

	from := l.seq
	l.orgs = fresh.orgs
	l.credits = fresh.credits
	l.balances = fresh.balances
	l.totalIssued = fresh.totalIssued
	l.totalRetired = fresh.totalRetired
	l.seq = fresh.seq
	log.Info().Uint64("from", from).Uint64("to", l.seq).Msg("ledger reloaded from journal")
	return nil
}
