package db

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.PushSubscription{},
		&models.Client{},
		&models.Budget{},
		&models.Contract{},
		&models.Payment{},
		&models.Project{},
		&models.Task{},
		&models.ProjectMember{},
		&models.Schedule{},
		&models.Evaluation{},
		&models.Notification{},
		&models.AuditLog{},
		&models.WebhookEvent{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedAdmin upserts the initial admin account and returns its API token.
// An existing admin keeps its token; the second return value reports whether
// a new account was created.
func SeedAdmin(db *gorm.DB, name, email string) (string, bool, error) {
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return existing.APIToken, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, fmt.Errorf("db: look up admin %s: %w", email, err)
	}

	token, err := generateToken()
	if err != nil {
		return "", false, err
	}
	admin := models.User{
		Name:     name,
		Email:    email,
		Role:     models.RoleAdmin,
		APIToken: token,
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&admin)
	if result.Error != nil {
		return "", false, fmt.Errorf("db: seed admin %s: %w", email, result.Error)
	}
	return token, true, nil
}

// generateToken creates a 32-hex-char API token.
func generateToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("db: generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
