// Package project manages the execution phase of an accepted budget:
// spawning, progress milestones, and delivery.
package project

import (
	"errors"
	"fmt"
	"time"

	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/clients"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"gorm.io/gorm"
)

// milestoneStatus maps each progress milestone to its project status.
var milestoneStatus = map[int]string{
	20:  models.ProjectDevelopment20,
	50:  models.ProjectDevelopment50,
	70:  models.ProjectDevelopment70,
	100: models.ProjectDevelopment100,
}

// Spawn materializes a project from a budget inside the caller's
// transaction. The client is found or created by document, the budget value
// is copied, and the budget is linked exactly once: losing a concurrent
// spawn race returns a conflict, aborting the transaction.
func Spawn(tx *gorm.DB, b *models.Budget, now time.Time) (*models.Project, error) {
	cl, err := clients.FindOrCreate(tx, b.ClientName, b.ClientEmail, b.ClientPhone, b.Document)
	if err != nil {
		return nil, fmt.Errorf("project: resolve client for budget %d: %w", b.ID, err)
	}

	proj := models.Project{
		BudgetID:    b.ID,
		Status:      models.ProjectPlanning,
		Progress:    0,
		ClientID:    cl.ID,
		ClientName:  cl.Name,
		BudgetValue: b.FinalValue,
	}
	if err := tx.Create(&proj).Error; err != nil {
		return nil, fmt.Errorf("project: create for budget %d: %w", b.ID, err)
	}

	result := tx.Model(&models.Budget{}).
		Where("id = ? AND project_id IS NULL", b.ID).
		Update("project_id", proj.ID)
	if result.Error != nil {
		return nil, fmt.Errorf("project: link budget %d: %w", b.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperr.Conflict("project: budget %d already has a project", b.ID)
	}

	b.ProjectID = &proj.ID
	return &proj, nil
}

// Get retrieves a project by ID with its schedule and members.
func Get(db *gorm.DB, id uint) (*models.Project, error) {
	var p models.Project
	if err := db.Preload("Schedule").Preload("Members").Preload("Tasks").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("project: %d not found", id)
		}
		return nil, fmt.Errorf("project: get %d: %w", id, err)
	}
	return &p, nil
}

// List returns projects, optionally filtered by status, newest first.
func List(db *gorm.DB, status string) ([]models.Project, error) {
	q := db.Model(&models.Project{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var projects []models.Project
	if err := q.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	return projects, nil
}

// UpdateProgress records a milestone. Only the 20/50/70/100 milestones are
// accepted; the project status follows the milestone. Last-write-wins, no
// ordering is enforced between milestones.
func UpdateProgress(db *gorm.DB, id uint, progress int) (*models.Project, error) {
	status, ok := milestoneStatus[progress]
	if !ok {
		return nil, apperr.Validation("project: progress must be one of 20, 50, 70, 100")
	}
	p, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if p.Status == models.ProjectFinished {
		return nil, apperr.Conflict("project: %d is finished", id)
	}

	updates := map[string]interface{}{"progress": progress, "status": status}
	if err := db.Model(p).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("project: update progress on %d: %w", id, err)
	}
	p.Progress = progress
	p.Status = status
	return p, nil
}
