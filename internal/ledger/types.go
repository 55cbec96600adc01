package ledger

import "time"

// Identity names an organization. The ledger trusts whatever identity it is handed.
type Identity string

// CreditID is assigned sequentially from 1 and never reused.
type CreditID uint64

// Organization is a registered organization's profile.
type Organization struct {
	Identity       Identity `json:"identity"`
	Name           string   `json:"name"`
	TotalEmissions int64    `json:"total_emissions"`
	TotalOffsets   int64    `json:"total_offsets"`
	Registered     bool     `json:"registered"`
}

// NetBalance is offsets minus emissions; negative when an organization has not offset what it reported.
func (o Organization) NetBalance() int64 {
	return o.TotalOffsets - o.TotalEmissions
}

// CarbonCredit holds the immutable issuance facts plus the lifecycle flag and owner.
// Once Retired is set, Owner keeps the identity that retired it.
type CarbonCredit struct {
	ID          CreditID  `json:"id"`
	Issuer      Identity  `json:"issuer"`
	Amount      int64     `json:"amount"`
	ProjectType string    `json:"project_type"`
	IssuedAt    time.Time `json:"issued_at"`
	Retired     bool      `json:"retired"`
	Owner       Identity  `json:"owner"`
}

// Stats are the global counters.
type Stats struct {
	TotalIssued  int64 `json:"total_issued"`
	TotalRetired int64 `json:"total_retired"`
	Outstanding  int64 `json:"outstanding"`
}
