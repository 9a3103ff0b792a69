package project

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/budget"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"gorm.io/gorm"
)

// DeliveryResult reports the outcome of a delivery confirmation.
type DeliveryResult struct {
	Project  *models.Project
	Schedule *models.Schedule
}

// ConfirmDelivery records the outcome of the delivery appointment.
//
// Success completes the schedule and finishes the project. Failure keeps the
// appointment (status pending_reschedule), appends the failure reason to its
// notes, and rolls the budget back to final_payment_paid, undoing the
// implicit ready-to-deliver assumption.
func ConfirmDelivery(db *gorm.DB, projectID uint, success bool, failureReason string, now time.Time) (*DeliveryResult, error) {
	if !success && failureReason == "" {
		return nil, apperr.Validation("project: failure reason is required when delivery fails")
	}

	p, err := Get(db, projectID)
	if err != nil {
		return nil, err
	}

	var sched models.Schedule
	if err := db.Where("project_id = ?", projectID).First(&sched).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Conflict("project: %d has no delivery scheduled", projectID)
		}
		return nil, fmt.Errorf("project: load schedule for %d: %w", projectID, err)
	}
	if sched.Status == models.ScheduleCompleted {
		return nil, apperr.Conflict("project: delivery for %d already completed", projectID)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if success {
			if err := tx.Model(&sched).Update("status", models.ScheduleCompleted).Error; err != nil {
				return fmt.Errorf("project: complete schedule %d: %w", sched.ID, err)
			}
			updates := map[string]interface{}{
				"status":       models.ProjectFinished,
				"progress":     100,
				"completed_at": now,
			}
			if err := tx.Model(p).Updates(updates).Error; err != nil {
				return fmt.Errorf("project: finish %d: %w", projectID, err)
			}
			return nil
		}

		updates := map[string]interface{}{
			"status": models.SchedulePendingReschedule,
			"notes":  AppendFailureNote(sched.Notes, failureReason, now),
		}
		if err := tx.Model(&sched).Updates(updates).Error; err != nil {
			return fmt.Errorf("project: mark schedule %d for reschedule: %w", sched.ID, err)
		}

		var b models.Budget
		if err := tx.First(&b, p.BudgetID).Error; err != nil {
			return fmt.Errorf("project: load budget %d: %w", p.BudgetID, err)
		}
		if budget.CanTransition(b.Status, models.BudgetFinalPaymentPaid) && b.Status == models.BudgetCompleted {
			if err := tx.Model(&b).Update("status", models.BudgetFinalPaymentPaid).Error; err != nil {
				return fmt.Errorf("project: roll back budget %d: %w", b.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	refreshed, err := Get(db, projectID)
	if err != nil {
		return nil, err
	}
	var refreshedSched models.Schedule
	if err := db.Where("project_id = ?", projectID).First(&refreshedSched).Error; err != nil {
		return nil, fmt.Errorf("project: reload schedule for %d: %w", projectID, err)
	}
	return &DeliveryResult{Project: refreshed, Schedule: &refreshedSched}, nil
}

// AppendFailureNote appends a timestamped failure annotation, never
// replacing earlier notes.
func AppendFailureNote(notes, reason string, now time.Time) string {
	entry := fmt.Sprintf("[%s] delivery failed: %s", now.Format("2006-01-02 15:04"), reason)
	if strings.TrimSpace(notes) == "" {
		return entry
	}
	return notes + "\n" + entry
}
