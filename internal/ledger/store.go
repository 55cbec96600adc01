package ledger

import "time"

// creditStore holds every credit ever issued and the per-identity ownership sets.
// It performs no validation; the Ledger checks preconditions before calling it.
type creditStore struct {
	credits map[CreditID]*CarbonCredit
	owners  map[Identity]*ownershipSet
	nextID  CreditID
}

func newCreditStore() *creditStore {
	return &creditStore{
		credits: make(map[CreditID]*CarbonCredit),
		owners:  make(map[Identity]*ownershipSet),
		nextID:  1,
	}
}

// peekID is the id the next create call will allocate.
func (s *creditStore) peekID() CreditID {
	return s.nextID
}

func (s *creditStore) create(issuer Identity, amount int64, projectType string, now time.Time) CreditID {
	id := s.nextID
	s.nextID++
	s.insert(CarbonCredit{
		ID:          id,
		Issuer:      issuer,
		Amount:      amount,
		ProjectType: projectType,
		IssuedAt:    now,
		Owner:       issuer,
	})
	return id
}

// insert stores c as-is and, when active, adds it to its owner's set.
func (s *creditStore) insert(c CarbonCredit) {
	s.credits[c.ID] = &c
	if !c.Retired {
		s.set(c.Owner).add(c.ID)
	}
}

func (s *creditStore) get(id CreditID) (CarbonCredit, bool) {
	c, ok := s.credits[id]
	if !ok {
		return CarbonCredit{}, false
	}
	return *c, true
}

// move hands an active credit from its current owner to recipient.
func (s *creditStore) move(id CreditID, recipient Identity) {
	c := s.credits[id]
	if set, ok := s.owners[c.Owner]; ok {
		set.remove(id)
	}
	c.Owner = recipient
	s.set(recipient).add(id)
}

// markRetired flags the credit terminal and drops it from its holder's set.
func (s *creditStore) markRetired(id CreditID) {
	c := s.credits[id]
	c.Retired = true
	if set, ok := s.owners[c.Owner]; ok {
		set.remove(id)
	}
}

func (s *creditStore) ownedBy(id Identity) []CreditID {
	set, ok := s.owners[id]
	if !ok {
		return []CreditID{}
	}
	return set.list()
}

func (s *creditStore) set(id Identity) *ownershipSet {
	set, ok := s.owners[id]
	if !ok {
		set = newOwnershipSet()
		s.owners[id] = set
	}
	return set
}
