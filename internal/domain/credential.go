package domain

import "time"

// Credential is the login secret of an organization. Only the bcrypt hash is stored.
type Credential struct {
	Identity   string    `gorm:"column:identity;type:varchar(128);primaryKey" json:"identity"`
	SecretHash string    `gorm:"column:secret_hash;not null" json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (Credential) TableName() string {
	return "Credentials"
}
