package models

import "time"

// Vehicle belongs to an organization and optionally to a customer profile.
// Plate is the natural external identifier, unique per organization.
type Vehicle struct {
	ID                 uint    `gorm:"primaryKey;autoIncrement"`
	OrgID              string  `gorm:"size:32;not null;uniqueIndex:idx_org_plate"`
	OwnerID            *string `gorm:"size:32;index"`
	Plate              string  `gorm:"size:16;not null;uniqueIndex:idx_org_plate"`
	Model              string  `gorm:"size:64"`
	Year               int
	Color              string `gorm:"size:32"`
	VIN                string `gorm:"size:32"`
	FuelType           string `gorm:"size:24"`
	EngineModel        string `gorm:"size:32"`
	ImmobilizerCode    string `gorm:"size:32"`
	RegistrationExpiry *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
