package models

import "time"

// LaborCost is a logged block of engineer hours. Links to a task, project or
// asset are independent and optional.
type LaborCost struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"`
	TaskID      *string `gorm:"size:32;index"`
	ProjectID   *string `gorm:"size:32;index"`
	AssetID     *string `gorm:"size:32"`
	EngineerID  string  `gorm:"size:32;not null;index"`
	Hours       float64 `gorm:"type:decimal(10,2)"`
	WorkDate    string  `gorm:"size:32"`
	Description string  `gorm:"type:text"`
	CreatedAt   time.Time
}
