package ledger

import (
	"fmt"
	"sort"
)

// Snapshot is a consistent copy of the ledger's entity tables and counters.
type Snapshot struct {
	Organizations []Organization `json:"organizations"`
	Credits       []CarbonCredit `json:"credits"`
	TotalIssued   int64          `json:"total_issued"`
	TotalRetired  int64          `json:"total_retired"`
	NextID        CreditID       `json:"next_id"`
	Seq           uint64         `json:"seq"`
}

// Snapshot copies the current state. Organizations are ordered by identity, credits by id.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	orgs := l.orgs.all()
	sort.Slice(orgs, func(i, j int) bool { return orgs[i].Identity < orgs[j].Identity })

	credits := make([]CarbonCredit, 0, len(l.credits.credits))
	for _, c := range l.credits.credits {
		credits = append(credits, *c)
	}
	sort.Slice(credits, func(i, j int) bool { return credits[i].ID < credits[j].ID })

	return Snapshot{
		Organizations: orgs,
		Credits:       credits,
		TotalIssued:   l.totalIssued,
		TotalRetired:  l.totalRetired,
		NextID:        l.credits.nextID,
		Seq:           l.seq,
	}
}

// Restore rebuilds a ledger from a snapshot. Ownership sets are rebuilt in
// credit id order and balances are recomputed; the result must pass Verify.
func Restore(s Snapshot, opts Options) (*Ledger, error) {
	l := New(opts)

	for _, o := range s.Organizations {
		if !o.Registered {
			return nil, fmt.Errorf("%w: organization %s is not registered", ErrCorruptSnapshot, o.Identity)
		}
		if _, dup := l.orgs.orgs[o.Identity]; dup {
			return nil, fmt.Errorf("%w: organization %s appears twice", ErrCorruptSnapshot, o.Identity)
		}
		l.orgs.put(o)
	}

	credits := make([]CarbonCredit, len(s.Credits))
	copy(credits, s.Credits)
	sort.Slice(credits, func(i, j int) bool { return credits[i].ID < credits[j].ID })

	var maxID CreditID
	for _, c := range credits {
		if c.ID == 0 {
			return nil, fmt.Errorf("%w: credit id 0", ErrCorruptSnapshot)
		}
		if _, dup := l.credits.credits[c.ID]; dup {
			return nil, fmt.Errorf("%w: credit %d appears twice", ErrCorruptSnapshot, c.ID)
		}
		if !l.orgs.isRegistered(c.Owner) || !l.orgs.isRegistered(c.Issuer) {
			return nil, fmt.Errorf("%w: credit %d references unregistered organization", ErrCorruptSnapshot, c.ID)
		}
		l.credits.insert(c)
		if !c.Retired {
			l.balances[c.Owner] += c.Amount
		}
		if c.ID > maxID {
			maxID = c.ID
		}
	}

	next := s.NextID
	if next == 0 {
		next = maxID + 1
	}
	if next <= maxID {
		return nil, fmt.Errorf("%w: next id %d not above highest credit %d", ErrCorruptSnapshot, next, maxID)
	}
	l.credits.nextID = next
	l.totalIssued = s.TotalIssued
	l.totalRetired = s.TotalRetired
	l.seq = s.Seq

	if err := l.Verify(); err != nil {
		return nil, err
	}
	return l, nil
}

// Verify recomputes every invariant from scratch and reports the first violation.
func (l *Ledger) Verify() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var issued, retired, active int64
	for id, c := range l.credits.credits {
		if id != c.ID || id == 0 || id >= l.credits.nextID {
			return fmt.Errorf("%w: credit %d has bad id", ErrCorruptSnapshot, id)
		}
		if c.Amount <= 0 {
			return fmt.Errorf("%w: credit %d has non-positive amount", ErrCorruptSnapshot, id)
		}
		issued += c.Amount
		if c.Retired {
			retired += c.Amount
			continue
		}
		active++
		set, ok := l.credits.owners[c.Owner]
		if !ok || !set.contains(id) {
			return fmt.Errorf("%w: active credit %d missing from %s", ErrCorruptSnapshot, id, c.Owner)
		}
	}

	// Every set member must be active and owned by the set's identity, which
	// also keeps retired credits out of all sets.
	var members, sumBalances int64
	for owner, set := range l.credits.owners {
		var owned int64
		for i, id := range set.ids {
			if set.index[id] != i {
				return fmt.Errorf("%w: ownership index of %s out of sync", ErrCorruptSnapshot, owner)
			}
			c, ok := l.credits.credits[id]
			if !ok || c.Retired || c.Owner != owner {
				return fmt.Errorf("%w: %s holds credit %d it does not own", ErrCorruptSnapshot, owner, id)
			}
			owned += c.Amount
		}
		if len(set.index) != set.len() {
			return fmt.Errorf("%w: ownership index of %s out of sync", ErrCorruptSnapshot, owner)
		}
		members += int64(set.len())
		if l.balances[owner] != owned {
			return fmt.Errorf("%w: balance of %s is %d, holdings sum to %d", ErrCorruptSnapshot, owner, l.balances[owner], owned)
		}
	}
	if members != active {
		return fmt.Errorf("%w: %d active credits but %d ownership entries", ErrCorruptSnapshot, active, members)
	}
	for owner, b := range l.balances {
		if _, ok := l.credits.owners[owner]; !ok && b != 0 {
			return fmt.Errorf("%w: %s has balance %d and no holdings", ErrCorruptSnapshot, owner, b)
		}
		sumBalances += b
	}

	if l.totalIssued != issued || l.totalRetired != retired {
		return fmt.Errorf("%w: counters issued=%d retired=%d, credits say %d/%d", ErrCorruptSnapshot, l.totalIssued, l.totalRetired, issued, retired)
	}
	if l.totalIssued-l.totalRetired != sumBalances {
		return fmt.Errorf("%w: outstanding %d differs from balance sum %d", ErrCorruptSnapshot, l.totalIssued-l.totalRetired, sumBalances)
	}

	var offsets int64
	for _, o := range l.orgs.orgs {
		if o.TotalEmissions < 0 || o.TotalOffsets < 0 {
			return fmt.Errorf("%w: %s has negative totals", ErrCorruptSnapshot, o.Identity)
		}
		offsets += o.TotalOffsets
	}
	if offsets != l.totalRetired {
		return fmt.Errorf("%w: offsets sum %d differs from retired %d", ErrCorruptSnapshot, offsets, l.totalRetired)
	}
	return nil
}
