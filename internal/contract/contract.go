// Package contract handles the signed-agreement side of a budget: client
// upload of the signed document and staff confirmation.
package contract

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/budget"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"gorm.io/gorm"
)

var pdfMagic = []byte("%PDF-")

// IsPDF reports whether the uploaded bytes look like a PDF document.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// Create opens a draft contract for a budget. One contract per budget.
func Create(db *gorm.DB, budgetID uint, documentURL string) (*models.Contract, error) {
	if _, err := budget.Get(db, budgetID); err != nil {
		return nil, err
	}
	var existing models.Contract
	err := db.Where("budget_id = ?", budgetID).First(&existing).Error
	if err == nil {
		return nil, apperr.Conflict("contract: budget %d already has contract %d", budgetID, existing.ID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("contract: check budget %d: %w", budgetID, err)
	}

	c := models.Contract{
		BudgetID:    budgetID,
		Status:      models.ContractDraft,
		DocumentURL: documentURL,
	}
	if err := db.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("contract: create for budget %d: %w", budgetID, err)
	}
	return &c, nil
}

// Get retrieves a contract by ID.
func Get(db *gorm.DB, id uint) (*models.Contract, error) {
	var c models.Contract
	if err := db.First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("contract: %d not found", id)
		}
		return nil, fmt.Errorf("contract: get %d: %w", id, err)
	}
	return &c, nil
}

// RecordSignedUpload registers a client's signed-document upload. Contract
// status is monotonic: a contract already signed (or awaiting confirmation)
// rejects further uploads and keeps its original document.
func RecordSignedUpload(db *gorm.DB, id uint, documentURL string, fileHeader []byte, now time.Time) (*models.Contract, error) {
	if !IsPDF(fileHeader) {
		return nil, apperr.Validation("contract: signed document must be a PDF")
	}

	c, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	switch c.Status {
	case models.ContractSignedByClient, models.ContractSigned, models.ContractConfirmed:
		return nil, apperr.Conflict("contract: %d already signed", id)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":              models.ContractSignedByClient,
			"document_url":        documentURL,
			"signed_by_client_at": now,
		}
		if err := tx.Model(c).Updates(updates).Error; err != nil {
			return fmt.Errorf("contract: record upload %d: %w", id, err)
		}

		// Cascade to the budget when it is in the accepted branch.
		var b models.Budget
		if err := tx.First(&b, c.BudgetID).Error; err != nil {
			return fmt.Errorf("contract: load budget %d: %w", c.BudgetID, err)
		}
		if budget.CanTransition(b.Status, models.BudgetContractSigned) {
			if err := tx.Model(&b).Update("status", models.BudgetContractSigned).Error; err != nil {
				return fmt.Errorf("contract: cascade budget %d: %w", b.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Get(db, id)
}

// Confirm is the staff acknowledgement of the contract. Confirmation is not
// blocked on a prior client signature; whether it should be is an open
// product question, so the permissive behavior is kept.
func Confirm(db *gorm.DB, id uint, now time.Time) (*models.Contract, error) {
	c, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if c.Status == models.ContractConfirmed {
		return nil, apperr.Conflict("contract: %d already confirmed", id)
	}

	updates := map[string]interface{}{
		"status":    models.ContractConfirmed,
		"confirmed": true,
		"signed_at": now,
	}
	if err := db.Model(c).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("contract: confirm %d: %w", id, err)
	}
	return Get(db, id)
}
