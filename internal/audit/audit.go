// Package audit writes the append-only trail. Failures to record are logged
// and never fail the operation being audited.
package audit

import (
	"log"

	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"gorm.io/gorm"
)

// Record appends an audit entry. Best-effort: errors are logged, not returned.
func Record(db *gorm.DB, actor, action, entity string, entityID uint, detail string) {
	entry := models.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Detail:   detail,
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("audit: record %s %s/%d: %v", action, entity, entityID, err)
	}
}

// List returns the most recent entries, newest first.
func List(db *gorm.DB, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.AuditLog
	if err := db.Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
