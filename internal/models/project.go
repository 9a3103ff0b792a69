package models

import "time"

// Project statuses. The development_<N> statuses mirror the progress
// milestones 20/50/70/100.
const (
	ProjectPlanning       = "planning"
	ProjectDevelopment20  = "development_20"
	ProjectDevelopment50  = "development_50"
	ProjectDevelopment70  = "development_70"
	ProjectDevelopment100 = "development_100"
	ProjectFinished       = "finished"
)

// Project is the materialization of an accepted budget once its down
// payment clears.
type Project struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	BudgetID uint   `gorm:"uniqueIndex;not null"`
	Status   string `gorm:"size:32;default:planning;index"`
	Progress int    `gorm:"default:0"`

	ClientID    uint    `gorm:"index"`
	ClientName  string  `gorm:"size:128"`
	BudgetValue float64 `gorm:"default:0"` // copied from Budget.FinalValue at spawn time
	CompletedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	Tasks    []Task          `gorm:"foreignKey:ProjectID"`
	Members  []ProjectMember `gorm:"foreignKey:ProjectID"`
	Schedule *Schedule       `gorm:"foreignKey:ProjectID"`
}

// Task is a unit of work inside a project.
type Task struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ProjectID uint   `gorm:"index;not null"`
	Title     string `gorm:"size:255;not null"`
	Done      bool   `gorm:"default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProjectMember assigns a user to a project with a free-text role.
type ProjectMember struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ProjectID uint   `gorm:"not null;uniqueIndex:idx_members_project_user,priority:1"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_members_project_user,priority:2"`
	Role      string `gorm:"size:64"`
	CreatedAt time.Time
}
