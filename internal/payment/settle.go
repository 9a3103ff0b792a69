package payment

import (
	"errors"
	"fmt"
	"time"

	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"github.com/rhavy/Softrha-2.0-sub002/internal/project"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettleInput identifies a completed charge reported by the gateway.
type SettleInput struct {
	EventID  string // gateway event id; empty for reconciliation re-runs
	BudgetID uint
	Type     string
	Now      time.Time
}

// SettleResult reports what the settlement applied.
type SettleResult struct {
	Replay    bool // event id seen before, nothing applied
	Payment   *models.Payment
	Budget    *models.Budget
	ProjectID *uint // set when this settlement spawned the project
	Spawned   bool
}

// Settle applies a completed charge as one atomic unit: mark the payment
// paid, advance the budget, and — for the down payment — spawn the client,
// project, and contract links. Everything runs in a single transaction, so a
// half-applied settlement cannot be observed.
//
// Idempotent under at-least-once delivery: duplicates are dropped by event
// id, and the pending→paid flip is a conditional update that serializes
// concurrent settlement attempts. Re-running with an empty EventID (the
// reconciler's path) re-applies any missing dependent state without
// double-applying what already holds.
func Settle(db *gorm.DB, in SettleInput) (*SettleResult, error) {
	if in.Type != models.PaymentDown && in.Type != models.PaymentFinal {
		return nil, apperr.Validation("payment: unknown payment type %q", in.Type)
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}

	res := &SettleResult{}
	err := db.Transaction(func(tx *gorm.DB) error {
		if in.EventID != "" {
			ev := models.WebhookEvent{
				ID:          in.EventID,
				Type:        "checkout.completed:" + in.Type,
				ReceivedAt:  in.Now,
				ProcessedAt: &in.Now,
			}
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&ev)
			if result.Error != nil {
				return fmt.Errorf("payment: record event %s: %w", in.EventID, result.Error)
			}
			if result.RowsAffected == 0 {
				res.Replay = true
				return nil
			}
		}

		var b models.Budget
		if err := tx.First(&b, in.BudgetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("payment: budget %d not found", in.BudgetID)
			}
			return fmt.Errorf("payment: load budget %d: %w", in.BudgetID, err)
		}

		var p models.Payment
		if err := tx.Where("budget_id = ? AND type = ?", in.BudgetID, in.Type).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("payment: no %s for budget %d", in.Type, in.BudgetID)
			}
			return fmt.Errorf("payment: load %s for budget %d: %w", in.Type, in.BudgetID, err)
		}

		// The conditional flip is the serialization point: only one
		// settlement attempt wins it; the rest see it already paid.
		result := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", p.ID, models.PaymentPending).
			Updates(map[string]interface{}{"status": models.PaymentPaid, "paid_at": in.Now})
		if result.Error != nil {
			return fmt.Errorf("payment: mark %d paid: %w", p.ID, result.Error)
		}
		p.Status = models.PaymentPaid

		if err := advanceBudget(tx, &b, in.Type); err != nil {
			return err
		}

		if in.Type == models.PaymentDown {
			if b.ProjectID == nil {
				proj, err := project.Spawn(tx, &b, in.Now)
				if err != nil {
					return err
				}
				res.ProjectID = &proj.ID
				res.Spawned = true
			} else {
				res.ProjectID = b.ProjectID
			}

			if p.ProjectID == nil {
				if err := tx.Model(&models.Payment{}).Where("id = ?", p.ID).
					Update("project_id", b.ProjectID).Error; err != nil {
					return fmt.Errorf("payment: backfill project on %d: %w", p.ID, err)
				}
				p.ProjectID = b.ProjectID
			}

			if err := linkContract(tx, &b); err != nil {
				return err
			}
		}

		res.Payment = &p
		res.Budget = &b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// advanceBudget moves the budget to the status implied by the settled
// payment type. A paid charge outranks the proposal flow, but never
// regresses a budget that is already further along.
func advanceBudget(tx *gorm.DB, b *models.Budget, ptype string) error {
	var target string
	switch ptype {
	case models.PaymentDown:
		switch b.Status {
		case models.BudgetDownPaymentPaid, models.BudgetFinalPaymentPaid, models.BudgetCompleted:
			return nil
		}
		target = models.BudgetDownPaymentPaid
	case models.PaymentFinal:
		if b.Status == models.BudgetCompleted {
			return nil
		}
		target = models.BudgetCompleted
	}

	if err := tx.Model(&models.Budget{}).Where("id = ?", b.ID).Update("status", target).Error; err != nil {
		return fmt.Errorf("payment: advance budget %d to %s: %w", b.ID, target, err)
	}
	b.Status = target
	return nil
}

// linkContract backfills the contract's project reference and marks it
// signed. A confirmed contract keeps its status.
func linkContract(tx *gorm.DB, b *models.Budget) error {
	var c models.Contract
	err := tx.Where("budget_id = ?", b.ID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("payment: load contract for budget %d: %w", b.ID, err)
	}

	updates := map[string]interface{}{"project_id": b.ProjectID}
	if c.Status != models.ContractConfirmed {
		updates["status"] = models.ContractSigned
	}
	if err := tx.Model(&c).Updates(updates).Error; err != nil {
		return fmt.Errorf("payment: link contract %d: %w", c.ID, err)
	}
	return nil
}
