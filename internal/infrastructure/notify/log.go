// Package notify delivers committed ledger events to outside observers.
package notify

import (
	"carbon-ledger/internal/ledger"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogNotifier writes every event as one structured log line.
type LogNotifier struct{}

func (LogNotifier) Notify(e ledger.Event) {
	ev := log.Info().Uint64("seq", e.Seq).Str("event", string(e.Type))
	addFields(ev, e)
	ev.Msg("ledger event")
}

func addFields(ev *zerolog.Event, e ledger.Event) {
	switch e.Type {
	case ledger.EventOrganizationRegistered:
		ev.Str("identity", string(e.Identity)).Str("name", e.Name)
	case ledger.EventEmissionsReported:
		ev.Str("identity", string(e.Identity)).Int64("amount", e.Amount)
	case ledger.EventCarbonCreditIssued:
		ev.Uint64("credit_id", uint64(e.CreditID)).Str("issuer", string(e.Issuer)).
			Int64("amount", e.Amount).Str("project_type", e.ProjectType)
	case ledger.EventCarbonCreditTransferred:
		ev.Uint64("credit_id", uint64(e.CreditID)).Str("sender", string(e.Sender)).Str("recipient", string(e.Recipient))
	case ledger.EventCarbonCreditRetired:
		ev.Uint64("credit_id", uint64(e.CreditID)).Str("holder", string(e.Holder)).Int64("amount", e.Amount)
	}
}
