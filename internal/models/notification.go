package models

import "time"

// Notification is an in-app inbox entry for a user.
type Notification struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	UserID   uint   `gorm:"index;not null"`
	Title    string `gorm:"size:255;not null"`
	Message  string `gorm:"type:text"`
	Category string `gorm:"size:32;index"`
	Metadata string `gorm:"type:json"`
	Read     bool   `gorm:"default:false"`

	CreatedAt time.Time
}
