package models

import "time"

// WebhookEvent records every gateway event ID ever processed. Settlement
// inserts the ID inside its transaction; a duplicate insert means the event
// was already applied and the replay is a no-op.
type WebhookEvent struct {
	ID          string `gorm:"primaryKey;size:64"`
	Type        string `gorm:"size:64"`
	ReceivedAt  time.Time
	ProcessedAt *time.Time
}
