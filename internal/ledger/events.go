package ledger

import "time"

// EventType names a lifecycle notification.
type EventType string

const (
	EventOrganizationRegistered  EventType = "OrganizationRegistered"
	EventCarbonCreditIssued      EventType = "CarbonCreditIssued"
	EventCarbonCreditTransferred EventType = "CarbonCreditTransferred"
	EventCarbonCreditRetired     EventType = "CarbonCreditRetired"
	EventEmissionsReported       EventType = "EmissionsReported"
)

// Event is emitted once per committed mutation. Only the fields relevant to
// Type are set.
type Event struct {
	Seq        uint64    `json:"seq"`
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`

	Identity    Identity `json:"identity,omitempty"`
	Name        string   `json:"name,omitempty"`
	CreditID    CreditID `json:"credit_id,omitempty"`
	Issuer      Identity `json:"issuer,omitempty"`
	Sender      Identity `json:"sender,omitempty"`
	Recipient   Identity `json:"recipient,omitempty"`
	Holder      Identity `json:"holder,omitempty"`
	Amount      int64    `json:"amount,omitempty"`
	ProjectType string   `json:"project_type,omitempty"`
}

// Notifier receives events synchronously, in commit order, after the
// mutation is applied. Implementations must not call back into the Ledger.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// Notifiers fans an event out to each notifier in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(e Event) {
	for _, n := range ns {
		if n != nil {
			n.Notify(e)
		}
	}
}
