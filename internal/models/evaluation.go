package models

import "time"

// Evaluation kinds.
const (
	EvalTeam          = "team"
	EvalProject       = "project"
	EvalClient        = "client"
	EvalProjectMember = "project_member"
)

// Evaluation is a 1–5 rating given by an evaluator to a target within a
// project. One rating per (kind, project, evaluator, target).
type Evaluation struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	Kind        string `gorm:"size:16;not null;uniqueIndex:idx_eval_unique,priority:1"`
	ProjectID   uint   `gorm:"not null;uniqueIndex:idx_eval_unique,priority:2"`
	EvaluatorID uint   `gorm:"not null;uniqueIndex:idx_eval_unique,priority:3"`
	TargetID    uint   `gorm:"not null;uniqueIndex:idx_eval_unique,priority:4"`
	Rating      int    `gorm:"not null"`
	Comment     string `gorm:"type:text"`

	CreatedAt time.Time
}
