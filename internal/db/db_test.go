package db

import (
	"strings"
	"testing"

	"github.com/rhavy/Softrha-2.0-sub002/internal/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{
			name: "default local",
			cfg:  config.DatabaseConfig{Host: "127.0.0.1", Port: 3306, User: "root", Name: "softrha"},
			want: "root@tcp(127.0.0.1:3306)/softrha?parseTime=true&charset=utf8mb4",
		},
		{
			name: "with password",
			cfg:  config.DatabaseConfig{Host: "db.internal", Port: 3307, User: "softrha", Password: "s3cret", Name: "softrha_prod"},
			want: "softrha:s3cret@tcp(db.internal:3307)/softrha_prod?parseTime=true&charset=utf8mb4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DSN(tt.cfg); got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDSN_ParseTimeFlag(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "localhost", Port: 3306, User: "root", Name: "test"})
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("DSN missing parseTime=true: %s", dsn)
	}
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	return db
}

func TestAutoMigrate_AllModels(t *testing.T) {
	db := testDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate() error: %v", err)
	}
	for _, table := range []string{"users", "clients", "budgets", "contracts", "payments", "projects", "schedules", "evaluations", "notifications", "audit_logs", "webhook_events"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("table %s missing after migration", table)
		}
	}
}

func TestSeedAdmin(t *testing.T) {
	db := testDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	token, created, err := SeedAdmin(db, "Rhavy", "admin@softrha.com")
	if err != nil {
		t.Fatalf("SeedAdmin() error: %v", err)
	}
	if !created {
		t.Error("SeedAdmin() created = false on first call")
	}
	if len(token) != 32 {
		t.Errorf("token length = %d, want 32", len(token))
	}

	// Second seed keeps the existing account and token.
	token2, created2, err := SeedAdmin(db, "Rhavy", "admin@softrha.com")
	if err != nil {
		t.Fatalf("SeedAdmin() second call error: %v", err)
	}
	if created2 {
		t.Error("SeedAdmin() created = true on second call")
	}
	if token2 != token {
		t.Errorf("second seed changed token: %q != %q", token2, token)
	}
}
