package models

import "time"

// Task is a piece of work inside (at most) one project. AssignedTo holds an
// ordered JSON array of engineer IDs; StartDate and EndDate are loosely typed.
type Task struct {
	ID          string  `gorm:"primaryKey;size:32"`
	Title       string  `gorm:"size:256;not null"`
	ProjectID   *string `gorm:"size:32;index"`
	AssignedTo  string  `gorm:"type:json"`
	StartDate   string  `gorm:"size:32"`
	EndDate     string  `gorm:"size:32"`
	Stakeholder string  `gorm:"size:64"`
	Status      string  `gorm:"size:16;default:todo;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Assignees decodes AssignedTo, preserving order. Malformed JSON yields nil.
func (t *Task) Assignees() []string {
	return decodeIDs(t.AssignedTo)
}

// IsAssigned reports whether engineerID appears in AssignedTo.
func (t *Task) IsAssigned(engineerID string) bool {
	for _, id := range t.Assignees() {
		if id == engineerID {
			return true
		}
	}
	return false
}
