package domain

import "time"

// Credit is one carbon credit row. Retired credits stay in the table with
// their last owner.
type Credit struct {
	CreditID    uint64    `gorm:"column:credit_id;primaryKey;autoIncrement:false" json:"credit_id"`
	Issuer      string    `gorm:"column:issuer;type:varchar(128);not null;index" json:"issuer"`
	Owner       string    `gorm:"column:owner;type:varchar(128);not null;index" json:"owner"`
	Amount      int64     `gorm:"column:amount;not null" json:"amount"`
	ProjectType string    `gorm:"column:project_type;not null" json:"project_type"`
	IssuedAt    time.Time `gorm:"column:issued_at;not null" json:"issued_at"`
	Retired     bool      `gorm:"column:retired;not null;default:false;index" json:"retired"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (Credit) TableName() string {
	return "Credits"
}
