package models

import "time"

// Engineer is a person who can be assigned tasks and log labor.
type Engineer struct {
	ID        string `gorm:"primaryKey;size:32"`
	Name      string `gorm:"size:64;not null;index"`
	Email     string `gorm:"size:128"`
	CreatedAt time.Time
}
