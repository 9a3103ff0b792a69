package auth

import (
	"errors"
	"testing"

	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func TestResolve(t *testing.T) {
	db := testDB(t)
	db.Create(&models.User{Name: "Ana", Email: "ana@softrha.com", Role: models.RoleAdmin, APIToken: "tok-ana"})

	id, err := Resolve(db, "tok-ana")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if id.Role != models.RoleAdmin {
		t.Errorf("Role = %q, want ADMIN", id.Role)
	}

	if _, err := Resolve(db, "tok-nope"); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Errorf("Resolve(unknown token) kind = %v, want Unauthorized", apperr.KindOf(err))
	}
	if _, err := Resolve(db, ""); apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Errorf("Resolve(empty token) kind = %v, want Unauthorized", apperr.KindOf(err))
	}
}

func TestCanDecideBudgets(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		want bool
	}{
		{"admin", Identity{Role: models.RoleAdmin}, true},
		{"project manager", Identity{Role: models.RoleTeamMember, TeamRole: models.TeamRoleProjectManager}, true},
		{"plain team member", Identity{Role: models.RoleTeamMember, TeamRole: "Designer"}, false},
		{"user", Identity{Role: models.RoleUser}, false},
		{"user with pm title", Identity{Role: models.RoleUser, TeamRole: models.TeamRoleProjectManager}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.CanDecideBudgets(); got != tt.want {
				t.Errorf("CanDecideBudgets() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRequireStaff(t *testing.T) {
	if err := RequireStaff(&Identity{Role: models.RoleTeamMember}); err != nil {
		t.Errorf("RequireStaff(team member) = %v, want nil", err)
	}
	err := RequireStaff(&Identity{Role: models.RoleUser})
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Errorf("RequireStaff(user) kind = %v, want Forbidden", apperr.KindOf(err))
	}
	err = RequireStaff(nil)
	if apperr.KindOf(err) != apperr.KindUnauthorized {
		t.Errorf("RequireStaff(nil) kind = %v, want Unauthorized", apperr.KindOf(err))
	}
}

func TestRequireBudgetDecider(t *testing.T) {
	err := RequireBudgetDecider(&Identity{Role: models.RoleTeamMember, TeamRole: "Designer"})
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind != apperr.KindForbidden {
		t.Errorf("RequireBudgetDecider(designer) = %v, want Forbidden", err)
	}
	if err := RequireBudgetDecider(&Identity{Role: models.RoleAdmin}); err != nil {
		t.Errorf("RequireBudgetDecider(admin) = %v, want nil", err)
	}
}
