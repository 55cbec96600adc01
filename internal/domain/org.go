package domain

import "time"

// Organization is the persisted profile of a registered organization.
type Organization struct {
	Identity       string    `gorm:"column:identity;type:varchar(128);primaryKey" json:"identity"`
	Name           string    `gorm:"column:name;not null" json:"name"`
	TotalEmissions int64     `gorm:"column:total_emissions;not null;default:0" json:"total_emissions"`
	TotalOffsets   int64     `gorm:"column:total_offsets;not null;default:0" json:"total_offsets"`
	Registered     bool      `gorm:"column:registered;not null;default:true" json:"registered"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (Organization) TableName() string {
	return "Organizations"
}
