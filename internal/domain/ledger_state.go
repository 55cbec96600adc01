package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LedgerStateID is the primary key of the single counters row.
const LedgerStateID = 1

// LedgerState holds the global counters. There is exactly one row.
type LedgerState struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	TotalIssued  int64     `gorm:"column:total_issued;not null;default:0" json:"total_issued"`
	TotalRetired int64     `gorm:"column:total_retired;not null;default:0" json:"total_retired"`
	NextCreditID uint64    `gorm:"column:next_credit_id;not null;default:1" json:"next_credit_id"`
	LastSeq      uint64    `gorm:"column:last_seq;not null;default:0" json:"last_seq"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (LedgerState) TableName() string {
	return "LedgerState"
}

// LedgerEvent is the append-only journal of committed lifecycle events.
type LedgerEvent struct {
	EventID    uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	Seq        uint64         `gorm:"column:seq;not null;uniqueIndex" json:"seq"`
	EventType  string         `gorm:"column:event_type;type:varchar(40);not null;index" json:"event_type"`
	Payload    datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	OccurredAt time.Time      `gorm:"column:occurred_at;not null" json:"occurred_at"`
}

func (LedgerEvent) TableName() string {
	return "LedgerEvents"
}

// BeforeCreate ensures event_id is set for DBs without default uuid.
func (e *LedgerEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
