package ledger

// ownershipSet is the ordered set of credits held by one identity.
//
// Removal swaps the last element into the removed slot, so iteration order
// is insertion order only until the first removal. Nothing in the ledger
// depends on that order.
type ownershipSet struct {
	ids   []CreditID
	index map[CreditID]int
}

func newOwnershipSet() *ownershipSet {
	return &ownershipSet{index: make(map[CreditID]int)}
}

func (s *ownershipSet) add(id CreditID) {
	if _, ok := s.index[id]; ok {
		return
	}
	s.index[id] = len(s.ids)
	s.ids = append(s.ids, id)
}

func (s *ownershipSet) remove(id CreditID) bool {
	pos, ok := s.index[id]
	if !ok {
		return false
	}
	last := len(s.ids) - 1
	if pos != last {
		moved := s.ids[last]
		s.ids[pos] = moved
		s.index[moved] = pos
	}
	s.ids = s.ids[:last]
	delete(s.index, id)
	return true
}

func (s *ownershipSet) contains(id CreditID) bool {
	_, ok := s.index[id]
	return ok
}

func (s *ownershipSet) len() int {
	return len(s.ids)
}

func (s *ownershipSet) list() []CreditID {
	out := make([]CreditID, len(s.ids))
	copy(out, s.ids)
	return out
}
