// Package persistence stores the ledger in a SQL database through GORM.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"carbon-ledger/internal/domain"
	"carbon-ledger/internal/ledger"
	"carbon-ledger/internal/observability"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Journal implements ledger.Journal. Each commit writes the changed rows,
// the counters and the event in a single transaction.
type Journal struct {
	DB *gorm.DB
}

var _ ledger.Source = (*Journal)(nil)

var (
	orgUpsert = clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "total_emissions", "total_offsets", "registered", "updated_at"}),
	}
	creditUpsert = clause.OnConflict{
		Columns:   []clause.Column{{Name: "credit_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"owner", "retired", "updated_at"}),
	}
	stateUpsert = clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_issued", "total_retired", "next_credit_id", "last_seq", "updated_at"}),
	}
)

// Commit persists c. Nothing is written when any statement fails. A commit
// that does not directly follow the stored head fails with ledger.ErrStale.
func (j *Journal) Commit(ctx context.Context, c ledger.Commit) error {
	payload, err := json.Marshal(c.Event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	err = j.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		head, err := lastSeq(tx)
		if err != nil {
			return err
		}
		if head+1 != c.Event.Seq {
			return fmt.Errorf("%w: journal is at %d, commit is %d", ledger.ErrStale, head, c.Event.Seq)
		}

		if len(c.Organizations) > 0 {
			rows := make([]domain.Organization, 0, len(c.Organizations))
			for _, o := range c.Organizations {
				rows = append(rows, organizationRow(o))
			}
			if err := tx.Clauses(orgUpsert).Create(&rows).Error; err != nil {
				return fmt.Errorf("save organizations: %w", err)
			}
		}
		if len(c.Credits) > 0 {
			rows := make([]domain.Credit, 0, len(c.Credits))
			for _, cr := range c.Credits {
				rows = append(rows, creditRow(cr))
			}
			if err := tx.Clauses(creditUpsert).Create(&rows).Error; err != nil {
				return fmt.Errorf("save credits: %w", err)
			}
		}

		state := domain.LedgerState{
			ID:           domain.LedgerStateID,
			TotalIssued:  c.Stats.TotalIssued,
			TotalRetired: c.Stats.TotalRetired,
			NextCreditID: uint64(c.NextID),
			LastSeq:      c.Event.Seq,
		}
		if err := tx.Clauses(stateUpsert).Create(&state).Error; err != nil {
			return fmt.Errorf("save counters: %w", err)
		}

		event := domain.LedgerEvent{
			Seq:        c.Event.Seq,
			EventType:  string(c.Event.Type),
			Payload:    datatypes.JSON(payload),
			OccurredAt: c.Event.OccurredAt,
		}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("append event: %w", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, ledger.ErrStale) {
		observability.JournalFailures.Inc()
	}
	return err
}

// Head returns the seq of the last committed event.
func (j *Journal) Head(ctx context.Context) (uint64, error) {
	return lastSeq(j.DB.WithContext(ctx))
}

func lastSeq(db *gorm.DB) (uint64, error) {
	var state domain.LedgerState
	err := db.Select("last_seq").Take(&state, domain.LedgerStateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read head: %w", err)
	}
	return state.LastSeq, nil
}

// Load reads the stored ledger. An empty database yields an empty snapshot.
func (j *Journal) Load(ctx context.Context) (ledger.Snapshot, error) {
	db := j.DB.WithContext(ctx)

	var orgs []domain.Organization
	if err := db.Order("identity").Find(&orgs).Error; err != nil {
		return ledger.Snapshot{}, fmt.Errorf("load organizations: %w", err)
	}
	var credits []domain.Credit
	if err := db.Order("credit_id").Find(&credits).Error; err != nil {
		return ledger.Snapshot{}, fmt.Errorf("load credits: %w", err)
	}
	var state domain.LedgerState
	if err := db.First(&state, domain.LedgerStateID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return ledger.Snapshot{}, fmt.Errorf("load counters: %w", err)
	}

	s := ledger.Snapshot{
		Organizations: make([]ledger.Organization, 0, len(orgs)),
		Credits:       make([]ledger.CarbonCredit, 0, len(credits)),
		TotalIssued:   state.TotalIssued,
		TotalRetired:  state.TotalRetired,
		NextID:        ledger.CreditID(state.NextCreditID),
		Seq:           state.LastSeq,
	}
	for _, o := range orgs {
		s.Organizations = append(s.Organizations, ledger.Organization{
			Identity:       ledger.Identity(o.Identity),
			Name:           o.Name,
			TotalEmissions: o.TotalEmissions,
			TotalOffsets:   o.TotalOffsets,
			Registered:     o.Registered,
		})
	}
	for _, c := range credits {
		s.Credits = append(s.Credits, ledger.CarbonCredit{
			ID:          ledger.CreditID(c.CreditID),
			Issuer:      ledger.Identity(c.Issuer),
			Amount:      c.Amount,
			ProjectType: c.ProjectType,
			IssuedAt:    c.IssuedAt,
			Retired:     c.Retired,
			Owner:       ledger.Identity(c.Owner),
		})
	}
	return s, nil
}

// Events returns up to limit journaled events with Seq greater than after, oldest first.
func (j *Journal) Events(ctx context.Context, after uint64, limit int) ([]ledger.Event, error) {
	var rows []domain.LedgerEvent
	if err := j.DB.WithContext(ctx).Where("seq > ?", after).Order("seq").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	events := make([]ledger.Event, 0, len(rows))
	for _, r := range rows {
		var e ledger.Event
		if err := json.Unmarshal(r.Payload, &e); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", r.Seq, err)
		}
		events = append(events, e)
	}
	return events, nil
}

func organizationRow(o ledger.Organization) domain.Organization {
	return domain.Organization{
		Identity:       string(o.Identity),
		Name:           o.Name,
		TotalEmissions: o.TotalEmissions,
		TotalOffsets:   o.TotalOffsets,
		Registered:     o.Registered,
	}
}

func creditRow(c ledger.CarbonCredit) domain.Credit {
	return domain.Credit{
		CreditID:    uint64(c.ID),
		Issuer:      string(c.Issuer),
		Owner:       string(c.Owner),
		Amount:      c.Amount,
		ProjectType: c.ProjectType,
		IssuedAt:    c.IssuedAt,
		Retired:     c.Retired,
	}
}
