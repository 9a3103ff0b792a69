// Package reconcile sweeps for paid charges whose dependent state never
// landed (a crash between the gateway callback and our transaction, or a
// missed webhook made durable by a manual payment flip) and re-applies the
// settlement. Safe to run on a schedule: healthy rows are left untouched.
package reconcile

import (
	"fmt"
	"log"

	"github.com/rhavy/Softrha-2.0-sub002/internal/audit"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"github.com/rhavy/Softrha-2.0-sub002/internal/payment"
	"gorm.io/gorm"
)

// Report summarizes one reconciliation sweep.
type Report struct {
	Scanned   int
	Healed    int
	Failed    int
	Corrected []Correction
}

// Correction describes one healed payment.
type Correction struct {
	BudgetID  uint
	Type      string
	ProjectID *uint
	Spawned   bool
}

// Run scans all paid payments and re-settles any whose budget or project
// state is behind. Each healed payment is audited. Individual failures are
// logged and counted; the sweep continues.
func Run(db *gorm.DB) (*Report, error) {
	rep := &Report{}

	var stale []models.Payment
	err := db.Raw(`
		SELECT p.* FROM payments p
		JOIN budgets b ON b.id = p.budget_id
		WHERE p.status = ?
		  AND b.deleted_at IS NULL
		  AND (
		        (p.type = ? AND (b.project_id IS NULL OR b.status IN (?, ?, ?, ?)))
		     OR (p.type = ? AND b.status NOT IN (?, ?))
		  )`,
		models.PaymentPaid,
		models.PaymentDown,
		models.BudgetPending, models.BudgetSent, models.BudgetAccepted, models.BudgetContractSigned,
		models.PaymentFinal,
		// final_payment_paid is a legitimate post-rollback state after a
		// failed delivery, not a missed settlement.
		models.BudgetFinalPaymentPaid, models.BudgetCompleted,
	).Scan(&stale).Error
	if err != nil {
		return nil, fmt.Errorf("reconcile: scan payments: %w", err)
	}
	rep.Scanned = len(stale)

	for _, p := range stale {
		res, err := payment.Settle(db, payment.SettleInput{BudgetID: p.BudgetID, Type: p.Type})
		if err != nil {
			rep.Failed++
			log.Printf("reconcile: heal budget %d (%s): %v", p.BudgetID, p.Type, err)
			continue
		}
		rep.Healed++
		rep.Corrected = append(rep.Corrected, Correction{
			BudgetID:  p.BudgetID,
			Type:      p.Type,
			ProjectID: res.ProjectID,
			Spawned:   res.Spawned,
		})
		audit.Record(db, "reconciler", "reconcile.heal", "budget", p.BudgetID,
			fmt.Sprintf("re-applied %s settlement (spawned=%v)", p.Type, res.Spawned))
	}
	return rep, nil
}
