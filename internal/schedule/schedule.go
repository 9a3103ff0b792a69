// Package schedule manages delivery appointments, one per project.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"gorm.io/gorm"
)

// CreateOpts holds the appointment details.
type CreateOpts struct {
	Date  time.Time
	Time  string
	Type  string // defaults to delivery
	Notes string
}

// Create books the delivery appointment for a project. A project has at
// most one schedule; booking a second is a conflict.
func Create(db *gorm.DB, projectID uint, opts CreateOpts) (*models.Schedule, error) {
	if opts.Date.IsZero() {
		return nil, apperr.Validation("schedule: date is required")
	}
	if opts.Type == "" {
		opts.Type = "delivery"
	}

	var proj models.Project
	if err := db.First(&proj, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("schedule: project %d not found", projectID)
		}
		return nil, fmt.Errorf("schedule: load project %d: %w", projectID, err)
	}

	var count int64
	if err := db.Model(&models.Schedule{}).Where("project_id = ?", projectID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("schedule: check existing for project %d: %w", projectID, err)
	}
	if count > 0 {
		return nil, apperr.Conflict("schedule: project %d already has an appointment", projectID)
	}

	s := models.Schedule{
		ProjectID: projectID,
		Date:      opts.Date,
		Time:      opts.Time,
		Type:      opts.Type,
		Status:    models.ScheduleScheduled,
		Notes:     opts.Notes,
	}
	if err := db.Create(&s).Error; err != nil {
		return nil, fmt.Errorf("schedule: create for project %d: %w", projectID, err)
	}
	return &s, nil
}

// Get retrieves the appointment for a project.
func Get(db *gorm.DB, projectID uint) (*models.Schedule, error) {
	var s models.Schedule
	if err := db.Where("project_id = ?", projectID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("schedule: project %d has no appointment", projectID)
		}
		return nil, fmt.Errorf("schedule: get for project %d: %w", projectID, err)
	}
	return &s, nil
}

// List returns appointments, optionally filtered by status, soonest first.
func List(db *gorm.DB, status string) ([]models.Schedule, error) {
	q := db.Model(&models.Schedule{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var schedules []models.Schedule
	if err := q.Order("date ASC").Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("schedule: list: %w", err)
	}
	return schedules, nil
}

// Reschedule moves a failed delivery to a new date and puts the appointment
// back on the calendar. Only appointments awaiting reschedule can move;
// completed ones are immutable.
func Reschedule(db *gorm.DB, projectID uint, date time.Time, timeOfDay string) (*models.Schedule, error) {
	if date.IsZero() {
		return nil, apperr.Validation("schedule: date is required")
	}
	s, err := Get(db, projectID)
	if err != nil {
		return nil, err
	}
	if s.Status != models.SchedulePendingReschedule {
		return nil, apperr.Conflict("schedule: project %d is %s, not awaiting reschedule", projectID, s.Status)
	}

	updates := map[string]interface{}{
		"date":   date,
		"time":   timeOfDay,
		"status": models.ScheduleScheduled,
	}
	if err := db.Model(s).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("schedule: reschedule project %d: %w", projectID, err)
	}
	s.Date = date
	s.Time = timeOfDay
	s.Status = models.ScheduleScheduled
	return s, nil
}
