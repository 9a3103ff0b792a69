// Package auth resolves request credentials to an identity and evaluates
// authorization as pure predicates over that identity.
package auth

import (
	"errors"

	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"gorm.io/gorm"
)

// Identity is the resolved caller: an opaque triple consumed by transition
// guards.
type Identity struct {
	UserID   uint
	Role     string
	TeamRole string
}

// Resolve looks up the bearer token and returns the caller's identity.
func Resolve(db *gorm.DB, token string) (*Identity, error) {
	if token == "" {
		return nil, apperr.Unauthorized("auth: missing credentials")
	}
	var user models.User
	if err := db.Where("api_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("auth: invalid credentials")
		}
		return nil, err
	}
	return &Identity{UserID: user.ID, Role: user.Role, TeamRole: user.TeamRole}, nil
}

// IsAdmin reports whether the caller holds the admin role.
func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == models.RoleAdmin
}

// IsStaff reports whether the caller is staff (admin or team member).
func (id *Identity) IsStaff() bool {
	return id != nil && (id.Role == models.RoleAdmin || id.Role == models.RoleTeamMember)
}

// IsProjectManager reports whether the caller carries the project-manager
// designation.
func (id *Identity) IsProjectManager() bool {
	return id != nil && id.Role == models.RoleTeamMember && id.TeamRole == models.TeamRoleProjectManager
}

// CanDecideBudgets reports whether the caller may accept or decline budgets:
// admins and project managers only.
func (id *Identity) CanDecideBudgets() bool {
	return id.IsAdmin() || id.IsProjectManager()
}

// RequireStaff returns a Forbidden error unless the caller is staff.
func RequireStaff(id *Identity) error {
	if id == nil {
		return apperr.Unauthorized("auth: missing credentials")
	}
	if !id.IsStaff() {
		return apperr.Forbidden("auth: role %s may not access staff endpoints", id.Role)
	}
	return nil
}

// RequireBudgetDecider returns a Forbidden error unless the caller may
// accept or decline budgets.
func RequireBudgetDecider(id *Identity) error {
	if id == nil {
		return apperr.Unauthorized("auth: missing credentials")
	}
	if !id.CanDecideBudgets() {
		return apperr.Forbidden("auth: only admins and project managers may decide budgets")
	}
	return nil
}
