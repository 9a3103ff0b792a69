package models

import "time"

// Roles. TeamRole is free text; the project-manager designation is the one
// value with authorization weight.
const (
	RoleAdmin      = "ADMIN"
	RoleTeamMember = "TEAM_MEMBER"
	RoleUser       = "USER"

	TeamRoleProjectManager = "Gerente de Projetos"
)

// User is a staff or dashboard account. Session resolution happens outside
// this service; the API token is the opaque credential it hands us.
type User struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	Name     string `gorm:"size:128;not null"`
	Email    string `gorm:"size:128;uniqueIndex;not null"`
	Role     string `gorm:"size:16;default:USER"`
	TeamRole string `gorm:"size:64"`
	APIToken string `gorm:"size:64;uniqueIndex"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PushSubscription stores a browser push endpoint for a user.
type PushSubscription struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	UserID   uint   `gorm:"index;not null"`
	Endpoint string `gorm:"size:512;not null"`
	P256dh   string `gorm:"size:255"`
	Auth     string `gorm:"size:255"`

	CreatedAt time.Time
}
