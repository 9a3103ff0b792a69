package reconcile

import (
	"testing"
	"time"

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
	if err := db.AutoMigrate(
		&models.Budget{},
		&models.Client{},
		&models.Contract{},
		&models.Payment{},
		&models.Project{},
		&models.WebhookEvent{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedPaid(t *testing.T, db *gorm.DB, budgetStatus, ptype string, amount float64) *models.Budget {
	t.Helper()
	b := models.Budget{
		Status:      budgetStatus,
		ClientName:  "Cliente Teste",
		ClientEmail: "cliente@example.com",
		Document:    "98765432100",
		ProjectType: "sistema",
		FinalValue:  amount * 4,
	}
	if err := db.Create(&b).Error; err != nil {
		t.Fatalf("seed budget: %v", err)
	}
	now := time.Now()
	p := models.Payment{
		BudgetID: b.ID,
		Type:     ptype,
		Status:   models.PaymentPaid,
		Amount:   amount,
		PaidAt:   &now,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return &b
}

func TestRun_HealsMissedDownPayment(t *testing.T) {
	db := testDB(t)
	// Paid down payment but the budget never advanced and no project exists.
	b := seedPaid(t, db, models.BudgetAccepted, models.PaymentDown, 2500)

	rep, err := Run(db)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if rep.Scanned != 1 || rep.Healed != 1 || rep.Failed != 0 {
		t.Fatalf("report = %+v, want 1 scanned, 1 healed", rep)
	}

	var refreshed models.Budget
	db.First(&refreshed, b.ID)
	if refreshed.Status != models.BudgetDownPaymentPaid || refreshed.ProjectID == nil {
		t.Errorf("budget not healed: status=%s project=%v", refreshed.Status, refreshed.ProjectID)
	}
	var projects int64
	db.Model(&models.Project{}).Count(&projects)
	if projects != 1 {
		t.Errorf("projects = %d, want 1", projects)
	}

	var entries []models.AuditLog
	db.Find(&entries)
	if len(entries) != 1 || entries[0].Action != "reconcile.heal" {
		t.Errorf("audit entries = %+v, want one reconcile.heal", entries)
	}
}

func TestRun_HealsLaggingFinalPayment(t *testing.T) {
	db := testDB(t)
	b := seedPaid(t, db, models.BudgetDownPaymentPaid, models.PaymentFinal, 7500)
	proj := models.Project{BudgetID: b.ID, Status: models.ProjectDevelopment100, Progress: 100}
	db.Create(&proj)
	db.Model(b).Update("project_id", proj.ID)

	rep, err := Run(db)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if rep.Healed != 1 {
		t.Fatalf("report = %+v, want 1 healed", rep)
	}
	var refreshed models.Budget
	db.First(&refreshed, b.ID)
	if refreshed.Status != models.BudgetCompleted {
		t.Errorf("budget status = %q, want completed", refreshed.Status)
	}
}

func TestRun_HealthyStateUntouched(t *testing.T) {
	db := testDB(t)
	b := seedPaid(t, db, models.BudgetDownPaymentPaid, models.PaymentDown, 2500)
	proj := models.Project{BudgetID: b.ID, Status: models.ProjectPlanning}
	db.Create(&proj)
	db.Model(b).Update("project_id", proj.ID)

	rep, err := Run(db)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if rep.Scanned != 0 || rep.Healed != 0 {
		t.Errorf("report = %+v, want nothing scanned on healthy state", rep)
	}
}

// A budget rolled back after a failed delivery stays rolled back.
func TestRun_RespectsDeliveryRollback(t *testing.T) {
	db := testDB(t)
	b := seedPaid(t, db, models.BudgetFinalPaymentPaid, models.PaymentFinal, 7500)
	proj := models.Project{BudgetID: b.ID, Status: models.ProjectDevelopment100, Progress: 100}
	db.Create(&proj)
	db.Model(b).Update("project_id", proj.ID)

	rep, err := Run(db)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if rep.Scanned != 0 {
		t.Errorf("report = %+v, want rolled-back budget left alone", rep)
	}
}

func TestRun_Idempotent(t *testing.T) {
	db := testDB(t)
	seedPaid(t, db, models.BudgetAccepted, models.PaymentDown, 2500)

	if _, err := Run(db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	rep, err := Run(db)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if rep.Scanned != 0 || rep.Healed != 0 {
		t.Errorf("second run report = %+v, want nothing to do", rep)
	}
	var projects int64
	db.Model(&models.Project{}).Count(&projects)
	if projects != 1 {
		t.Errorf("projects = %d, want 1", projects)
	}
}
