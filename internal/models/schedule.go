package models

import "time"

// Schedule statuses.
const (
	ScheduleScheduled         = "scheduled"
	ScheduleCompleted         = "completed"
	SchedulePendingReschedule = "pending_reschedule"
)

// Schedule is the delivery/handover appointment for a project, one per
// project. Notes are append-only; delivery failures add to them.
type Schedule struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	ProjectID uint      `gorm:"uniqueIndex;not null"`
	Date      time.Time `gorm:"not null"`
	Time      string    `gorm:"size:8"`
	Type      string    `gorm:"size:32;default:delivery"`
	Status    string    `gorm:"size:32;default:scheduled"`
	Notes     string    `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
