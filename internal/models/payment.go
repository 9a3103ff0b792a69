package models

import "time"

// Payment types and statuses.
const (
	PaymentDown  = "down_payment"
	PaymentFinal = "final_payment"

	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// Payment is a single charge against a budget. A budget carries at most one
// payment per type; the down payment is always 25% of the final value.
type Payment struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	BudgetID uint   `gorm:"not null;uniqueIndex:idx_payments_budget_type,priority:1"`
	Type     string `gorm:"size:16;not null;uniqueIndex:idx_payments_budget_type,priority:2"`
	Status   string `gorm:"size:16;default:pending;index"`

	Amount        float64 `gorm:"not null"`
	GatewayLinkID string  `gorm:"size:128"`
	PaidAt        *time.Time
	DueDate       *time.Time

	// Null until the project is spawned, then backfilled once.
	ProjectID *uint `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
