package models

import "time"

// Contract statuses. Status only moves forward: a contract that reached
// signed_by_client never accepts another upload.
const (
	ContractDraft          = "draft"
	ContractSignedByClient = "signed_by_client"
	ContractSigned         = "signed"
	ContractConfirmed      = "confirmed"
)

// Contract is the signed agreement for a budget, one per budget.
type Contract struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	BudgetID uint   `gorm:"uniqueIndex;not null"`
	Status   string `gorm:"size:32;default:draft"`

	DocumentURL      string `gorm:"size:255"`
	SignedByClientAt *time.Time
	Confirmed        bool `gorm:"default:false"`
	SignedAt         *time.Time

	// Backfilled when the down payment settles and the project exists.
	ProjectID *uint `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
