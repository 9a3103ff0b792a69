package models

import "time"

// AuditLog is an append-only trail entry. Rows are never updated or
// deleted.
type AuditLog struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	Actor    string `gorm:"size:64;index"` // user ID, "client", or "reconciler"
	Action   string `gorm:"size:64;not null;index"`
	Entity   string `gorm:"size:32;index"`
	EntityID uint   `gorm:"index"`
	Detail   string `gorm:"type:text"`

	CreatedAt time.Time
}
