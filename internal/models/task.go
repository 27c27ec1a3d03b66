package models

import (
	"time"
)

type Progress string

const (
	ProgressNotStarted Progress = "not-started"
	ProgressInProgress Progress = "in-progress"
	ProgressCompleted  Progress = "completed"
)

// Valid reports whether the progress is one of the known values.
func (p Progress) Valid() bool {
	switch p {
	case ProgressNotStarted, ProgressInProgress, ProgressCompleted:
		return true
	}
	return false
}

// Task belongs to the student it was created for (UserID), regardless of
// whether a teacher or the student created it.
type Task struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	UserID      uint64     `gorm:"not null" json:"userId"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Progress    Progress   `gorm:"type:varchar(20);not null;default:'not-started'" json:"progress"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// Relations
	Owner User `gorm:"foreignKey:UserID" json:"-"`
}
