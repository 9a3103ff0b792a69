// Package evaluation records post-project 1–5 ratings between the people
// and entities involved: team members, the project itself, and the client.
package evaluation

import (
	"errors"
	"fmt"

	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"gorm.io/gorm"
)

var validKinds = map[string]bool{
	models.EvalTeam:          true,
	models.EvalProject:       true,
	models.EvalClient:        true,
	models.EvalProjectMember: true,
}

// SubmitOpts identifies one rating.
type SubmitOpts struct {
	Kind        string
	ProjectID   uint
	EvaluatorID uint
	TargetID    uint
	Rating      int
	Comment     string
}

// Submit records a rating. Each (kind, project, evaluator, target) triple
// is rated once; a second submission is a conflict, not an update.
func Submit(db *gorm.DB, opts SubmitOpts) (*models.Evaluation, error) {
	if !validKinds[opts.Kind] {
		return nil, apperr.Validation("evaluation: unknown kind %q", opts.Kind)
	}
	if opts.Rating < 1 || opts.Rating > 5 {
		return nil, apperr.Validation("evaluation: rating must be between 1 and 5")
	}

	var proj models.Project
	if err := db.First(&proj, opts.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("evaluation: project %d not found", opts.ProjectID)
		}
		return nil, fmt.Errorf("evaluation: load project %d: %w", opts.ProjectID, err)
	}

	var count int64
	err := db.Model(&models.Evaluation{}).
		Where("kind = ? AND project_id = ? AND evaluator_id = ? AND target_id = ?",
			opts.Kind, opts.ProjectID, opts.EvaluatorID, opts.TargetID).
		Count(&count).Error
	if err != nil {
		return nil, fmt.Errorf("evaluation: check existing: %w", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("evaluation: already rated")
	}

	e := models.Evaluation{
		Kind:        opts.Kind,
		ProjectID:   opts.ProjectID,
		EvaluatorID: opts.EvaluatorID,
		TargetID:    opts.TargetID,
		Rating:      opts.Rating,
		Comment:     opts.Comment,
	}
	if err := db.Create(&e).Error; err != nil {
		return nil, fmt.Errorf("evaluation: create: %w", err)
	}
	return &e, nil
}

// ListByProject returns all ratings recorded for a project.
func ListByProject(db *gorm.DB, projectID uint) ([]models.Evaluation, error) {
	var evals []models.Evaluation
	if err := db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&evals).Error; err != nil {
		return nil, fmt.Errorf("evaluation: list for project %d: %w", projectID, err)
	}
	return evals, nil
}

// AverageForTarget computes the mean rating a target received across
// projects for one kind. Returns 0 when no ratings exist.
func AverageForTarget(db *gorm.DB, kind string, targetID uint) (float64, error) {
	var avg *float64
	err := db.Model(&models.Evaluation{}).
		Where("kind = ? AND target_id = ?", kind, targetID).
		Select("AVG(rating)").Scan(&avg).Error
	if err != nil {
		return 0, fmt.Errorf("evaluation: average for %s %d: %w", kind, targetID, err)
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}
