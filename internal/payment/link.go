package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"gorm.io/gorm"
)

// LinkOpts holds parameters for generating a payment link.
type LinkOpts struct {
	DueIn time.Duration // payment deadline, default 5 days
	Now   time.Time
}

// GenerateLink creates (or refreshes) the hosted payment page for one of a
// budget's charges and upserts the matching Payment row.
//
// Idempotency: a payment that is already paid is returned unchanged and no
// new link is issued. A pending payment gets a fresh link and due date.
// The Payment row carries projectId = null until the project exists.
func GenerateLink(ctx context.Context, db *gorm.DB, gw Gateway, budgetID uint, ptype string, opts LinkOpts) (*models.Payment, error) {
	if ptype != models.PaymentDown && ptype != models.PaymentFinal {
		return nil, apperr.Validation("payment: unknown payment type %q", ptype)
	}
	if opts.DueIn <= 0 {
		opts.DueIn = 5 * 24 * time.Hour
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	var b models.Budget
	if err := db.First(&b, budgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("payment: budget %d not found", budgetID)
		}
		return nil, fmt.Errorf("payment: load budget %d: %w", budgetID, err)
	}

	var amount float64
	var description string
	switch ptype {
	case models.PaymentDown:
		amount = DownPaymentAmount(b.FinalValue)
		description = fmt.Sprintf("Entrada (25%%) — %s para %s", b.ProjectType, b.ClientName)
	case models.PaymentFinal:
		amount = FinalPaymentAmount(b.FinalValue)
		description = fmt.Sprintf("Pagamento final — %s para %s", b.ProjectType, b.ClientName)
	}
	if amount <= 0 {
		return nil, apperr.Validation("payment: budget %d has no final value", budgetID)
	}

	var existing models.Payment
	err := db.Where("budget_id = ? AND type = ?", budgetID, ptype).First(&existing).Error
	if err == nil && existing.Status == models.PaymentPaid {
		return &existing, nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("payment: look up %s for budget %d: %w", ptype, budgetID, err)
	}

	link, linkErr := gw.CreatePaymentLink(ctx, Cents(amount), description, map[string]string{
		"budget_id": fmt.Sprintf("%d", budgetID),
		"type":      ptype,
	})
	if linkErr != nil {
		return nil, linkErr
	}

	due := opts.Now.Add(opts.DueIn)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		p := models.Payment{
			BudgetID:      budgetID,
			Type:          ptype,
			Status:        models.PaymentPending,
			Amount:        amount,
			GatewayLinkID: link.ID,
			DueDate:       &due,
		}
		if err := db.Create(&p).Error; err != nil {
			return nil, fmt.Errorf("payment: create %s for budget %d: %w", ptype, budgetID, err)
		}
		return &p, nil
	}

	updates := map[string]interface{}{
		"amount":          amount,
		"gateway_link_id": link.ID,
		"due_date":        due,
	}
	if err := db.Model(&existing).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("payment: refresh %s for budget %d: %w", ptype, budgetID, err)
	}
	return &existing, nil
}
