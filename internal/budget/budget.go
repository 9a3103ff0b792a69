// Package budget governs the proposal lifecycle from intake through
// acceptance, payment, and completion.
package budget

import (
	"errors"
	"fmt"
	"time"

	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/clients"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"gorm.io/gorm"
)

// ValidTransitions maps each budget status to its valid next statuses.
// The completed → final_payment_paid edge is the delivery-failure rollback.
var ValidTransitions = map[string][]string{
	models.BudgetPending:          {models.BudgetSent, models.BudgetAccepted, models.BudgetRejected},
	models.BudgetSent:             {models.BudgetSent, models.BudgetAccepted, models.BudgetRejected},
	models.BudgetAccepted:         {models.BudgetRejected, models.BudgetContractSigned, models.BudgetDownPaymentPaid},
	models.BudgetRejected:         {models.BudgetAccepted},
	models.BudgetContractSigned:   {models.BudgetDownPaymentPaid},
	models.BudgetDownPaymentPaid:  {models.BudgetFinalPaymentPaid, models.BudgetCompleted},
	models.BudgetFinalPaymentPaid: {models.BudgetCompleted},
	models.BudgetCompleted:        {models.BudgetFinalPaymentPaid},
}

// CanTransition reports whether a budget status change is allowed.
func CanTransition(from, to string) bool {
	for _, v := range ValidTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

// CreateOpts holds the public intake form.
type CreateOpts struct {
	ClientName  string
	ClientEmail string
	ClientPhone string
	Document    string
	ProjectType string
	Complexity  string
	Timeline    string
	Description string

	EstimatedMin float64
	EstimatedMax float64
}

// Create inserts a new pending budget from the intake form.
func Create(db *gorm.DB, opts CreateOpts) (*models.Budget, error) {
	if opts.ClientName == "" {
		return nil, apperr.Validation("budget: client name is required")
	}
	if opts.ClientEmail == "" {
		return nil, apperr.Validation("budget: client email is required")
	}
	if opts.ProjectType == "" {
		return nil, apperr.Validation("budget: project type is required")
	}

	b := models.Budget{
		Status:       models.BudgetPending,
		ClientName:   opts.ClientName,
		ClientEmail:  opts.ClientEmail,
		ClientPhone:  opts.ClientPhone,
		Document:     clients.NormalizeDocument(opts.Document),
		ProjectType:  opts.ProjectType,
		Complexity:   opts.Complexity,
		Timeline:     opts.Timeline,
		Description:  opts.Description,
		EstimatedMin: opts.EstimatedMin,
		EstimatedMax: opts.EstimatedMax,
	}
	if err := db.Create(&b).Error; err != nil {
		return nil, fmt.Errorf("budget: create: %w", err)
	}
	return &b, nil
}

// Get retrieves a budget by ID, preloading its contract and payments.
func Get(db *gorm.DB, id uint) (*models.Budget, error) {
	var b models.Budget
	if err := db.Preload("Contract").Preload("Payments").First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("budget: %d not found", id)
		}
		return nil, fmt.Errorf("budget: get %d: %w", id, err)
	}
	return &b, nil
}

// ListFilters holds optional filters for listing budgets.
type ListFilters struct {
	Status      string
	ClientEmail string
}

// List returns budgets matching the filters, newest first.
func List(db *gorm.DB, filters ListFilters) ([]models.Budget, error) {
	q := db.Model(&models.Budget{})
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	if filters.ClientEmail != "" {
		q = q.Where("client_email = ?", filters.ClientEmail)
	}
	var budgets []models.Budget
	if err := q.Order("created_at DESC").Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("budget: list: %w", err)
	}
	return budgets, nil
}

// SetFinalValue records the negotiated price on a budget that has not been
// decided yet.
func SetFinalValue(db *gorm.DB, id uint, value float64) (*models.Budget, error) {
	if value <= 0 {
		return nil, apperr.Validation("budget: final value must be positive")
	}
	b, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if b.Status == models.BudgetCompleted {
		return nil, apperr.Conflict("budget: %d is completed", id)
	}
	if err := db.Model(b).Update("final_value", value).Error; err != nil {
		return nil, fmt.Errorf("budget: set final value on %d: %w", id, err)
	}
	b.FinalValue = value
	return b, nil
}

// Decide records a staff accept or decline. Re-deciding an already decided
// budget is allowed and last-write-wins: accepting clears any prior decline
// fields and vice versa. Budgets past the down payment can no longer be
// decided.
func Decide(db *gorm.DB, id uint, actor string, accept bool, reason string, now time.Time) (*models.Budget, error) {
	if actor == "" {
		return nil, apperr.Validation("budget: actor is required")
	}
	if !accept && reason == "" {
		return nil, apperr.Validation("budget: decline reason is required")
	}

	b, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	target := models.BudgetRejected
	if accept {
		target = models.BudgetAccepted
	}
	if !CanTransition(b.Status, target) {
		return nil, apperr.Conflict("budget: cannot move %d from %s to %s", id, b.Status, target)
	}

	updates := decisionUpdates(actor, accept, reason, now)
	if err := db.Model(b).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("budget: decide %d: %w", id, err)
	}
	return Get(db, id)
}

// decisionUpdates builds the column map for an accept/decline, enforcing
// the mutual-exclusion invariant and burning any outstanding approval token.
func decisionUpdates(actor string, accept bool, reason string, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"approval_token":         nil,
		"approval_token_expires": nil,
	}
	if accept {
		updates["status"] = models.BudgetAccepted
		updates["accepted_by"] = actor
		updates["accepted_at"] = now
		updates["declined_by"] = nil
		updates["declined_at"] = nil
		updates["decline_reason"] = ""
	} else {
		updates["status"] = models.BudgetRejected
		updates["declined_by"] = actor
		updates["declined_at"] = now
		updates["decline_reason"] = reason
		updates["accepted_by"] = nil
		updates["accepted_at"] = nil
		updates["user_approved_at"] = nil
	}
	return updates
}

// Delete soft-deletes a budget. A reason is always recorded.
func Delete(db *gorm.DB, id uint, reason string) error {
	if reason == "" {
		return apperr.Validation("budget: deletion reason is required")
	}
	b, err := Get(db, id)
	if err != nil {
		return err
	}
	if err := db.Model(b).Update("deletion_reason", reason).Error; err != nil {
		return fmt.Errorf("budget: record deletion reason on %d: %w", id, err)
	}
	if err := db.Delete(b).Error; err != nil {
		return fmt.Errorf("budget: delete %d: %w", id, err)
	}
	return nil
}
