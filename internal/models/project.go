package models

import "time"

// Project is a unit of R&D work. SalesName identifies a stakeholder by free text.
type Project struct {
	ID        string `gorm:"primaryKey;size:32"`
	Name      string `gorm:"size:128;not null"`
	SalesName string `gorm:"size:64;index"`
	Status    string `gorm:"size:16;default:active"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
