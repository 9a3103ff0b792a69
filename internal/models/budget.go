package models

import (
	"time"

	"gorm.io/gorm"
)

// Budget statuses. Stored as plain strings; transitions are validated in
// the budget package before every write.
const (
	BudgetPending          = "pending"
	BudgetSent             = "sent"
	BudgetAccepted         = "accepted"
	BudgetRejected         = "rejected"
	BudgetContractSigned   = "contract_signed"
	BudgetDownPaymentPaid  = "down_payment_paid"
	BudgetFinalPaymentPaid = "final_payment_paid"
	BudgetCompleted        = "completed"
)

// Budget is a priced proposal awaiting client approval. It is the root of
// the intake → contract → payment → project lifecycle.
type Budget struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	Status string `gorm:"size:32;default:pending;index"`

	ClientName  string `gorm:"size:128;not null"`
	ClientEmail string `gorm:"size:128;not null"`
	ClientPhone string `gorm:"size:32"`
	Document    string `gorm:"size:16"` // CPF/CNPJ, digits only

	ProjectType  string  `gorm:"size:64;not null"`
	Complexity   string  `gorm:"size:32"`
	Timeline     string  `gorm:"size:64"`
	Description  string  `gorm:"type:text"`
	EstimatedMin float64 `gorm:"default:0"`
	EstimatedMax float64 `gorm:"default:0"`
	FinalValue   float64 `gorm:"default:0"`

	// Single-use client approval capability. Re-sending the proposal
	// overwrites the token; responding clears both fields.
	ApprovalToken        *string `gorm:"size:64;index"`
	ApprovalTokenExpires *time.Time

	// At most one of AcceptedBy/DeclinedBy is set; setting one clears
	// the other.
	AcceptedBy     *string `gorm:"size:64"`
	AcceptedAt     *time.Time
	UserApprovedAt *time.Time
	DeclinedBy     *string `gorm:"size:64"`
	DeclinedAt     *time.Time
	DeclineReason  string `gorm:"type:text"`

	// Set exactly once, when the down payment settles and the project is
	// spawned. Never reassigned.
	ProjectID *uint `gorm:"index"`

	DeletionReason string `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`

	Contract *Contract `gorm:"foreignKey:BudgetID"`
	Payments []Payment `gorm:"foreignKey:BudgetID"`
}
