package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rhavy/Softrha-2.0-sub002/internal/config"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"github.com/rhavy/Softrha-2.0-sub002/internal/notify"
	"github.com/rhavy/Softrha-2.0-sub002/internal/payment"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	adminToken  = "admin-token"
	memberToken = "member-token"
	pmToken     = "pm-token"
)

type stubGateway struct {
	calls int
}

func (s *stubGateway) CreatePaymentLink(ctx context.Context, amountCents int64, description string, metadata map[string]string) (*payment.Link, error) {
	s.calls++
	return &payment.Link{ID: fmt.Sprintf("cs_%d", s.calls), URL: "https://checkout.example/" + fmt.Sprint(s.calls)}, nil
}

type stubWebhooks struct {
	ev  *payment.Event
	err error
}

func (s *stubWebhooks) ParseWebhook(payload []byte, sigHeader string) (*payment.Event, error) {
	return s.ev, s.err
}

// recordingChannel captures dispatched messages for assertions.
type recordingChannel struct {
	msgs []notify.Message
}

func (r *recordingChannel) Name() string { return "recorder" }

func (r *recordingChannel) Send(ctx context.Context, msg notify.Message) error {
	r.msgs = append(r.msgs, msg)
	return nil
}

// emailed reports whether any captured message addressed the email.
func (r *recordingChannel) emailed(addr string) bool {
	for _, m := range r.msgs {
		for _, e := range m.Emails {
			if e == addr {
				return true
			}
		}
	}
	return false
}

func testStartOpts(t *testing.T, hooks *stubWebhooks) (StartOpts, *recordingChannel) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.PushSubscription{},
		&models.Budget{},
		&models.Client{},
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
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	db.Create(&models.User{Name: "Admin", Email: "admin@softrha.local", Role: models.RoleAdmin, APIToken: adminToken})
	db.Create(&models.User{Name: "Dev", Email: "dev@softrha.local", Role: models.RoleTeamMember, APIToken: memberToken})
	db.Create(&models.User{Name: "PM", Email: "pm@softrha.local", Role: models.RoleTeamMember, TeamRole: models.TeamRoleProjectManager, APIToken: pmToken})

	cfg, err := config.Parse([]byte("public_base_url: http://test.local"))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Server.UploadDir = t.TempDir()
	if hooks == nil {
		hooks = &stubWebhooks{}
	}

	rec := &recordingChannel{}
	return StartOpts{
		DB:       db,
		Cfg:      cfg,
		Gateway:  &stubGateway{},
		Webhooks: hooks,
		Notifier: notify.NewDispatcher(db, rec),
	}, rec
}

func testRouter(t *testing.T, hooks *stubWebhooks) (*gin.Engine, *gorm.DB) {
	opts, _ := testStartOpts(t, hooks)
	return NewRouter(opts), opts.DB
}

func do(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createBudget(t *testing.T, router *gin.Engine) uint {
	t.Helper()
	w := do(t, router, http.MethodPost, "/api/budgets", "", gin.H{
		"client_name":  "Ana Costa",
		"client_email": "ana@example.com",
		"client_phone": "+5511999991111",
		"document":     "111.444.777-35",
		"project_type": "e-commerce",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("intake status = %d, body %s", w.Code, w.Body.String())
	}
	var b models.Budget
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode intake response: %v", err)
	}
	return b.ID
}

func TestStaffRoutes_RequireAuth(t *testing.T) {
	router, _ := testRouter(t, nil)

	if w := do(t, router, http.MethodGet, "/api/budgets", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/api/budgets", "bogus", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/api/budgets", adminToken, nil); w.Code != http.StatusOK {
		t.Errorf("admin: status = %d, want 200", w.Code)
	}
}

func TestIntake_NotifiesStaff(t *testing.T) {
	router, db := testRouter(t, nil)
	createBudget(t, router)

	var rows int64
	db.Model(&models.Notification{}).Count(&rows)
	if rows != 3 {
		t.Errorf("notification rows = %d, want 3 (one per staff account)", rows)
	}
}

func TestApprovalFlow(t *testing.T) {
	router, db := testRouter(t, nil)
	id := createBudget(t, router)

	if w := do(t, router, http.MethodPut, fmt.Sprintf("/api/budgets/%d/value", id), adminToken, gin.H{"final_value": 10000}); w.Code != http.StatusOK {
		t.Fatalf("set value: status = %d, body %s", w.Code, w.Body.String())
	}

	w := do(t, router, http.MethodPost, fmt.Sprintf("/api/budgets/%d/send", id), adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("send: status = %d, body %s", w.Code, w.Body.String())
	}
	var sent struct {
		ApprovalURL  string `json:"approval_url"`
		WhatsAppLink string `json:"whatsapp_link"`
	}
	json.Unmarshal(w.Body.Bytes(), &sent)
	if !strings.HasPrefix(sent.ApprovalURL, "http://test.local/approval/") {
		t.Fatalf("approval url = %q", sent.ApprovalURL)
	}
	if !strings.Contains(sent.WhatsAppLink, "wa.me/5511999991111") {
		t.Errorf("whatsapp link = %q", sent.WhatsAppLink)
	}
	token := strings.TrimPrefix(sent.ApprovalURL, "http://test.local/approval/")

	if w := do(t, router, http.MethodGet, "/approval/"+token, "", nil); w.Code != http.StatusOK {
		t.Errorf("view: status = %d", w.Code)
	}

	if w := do(t, router, http.MethodPut, "/approval/"+token, "", gin.H{"accept": true}); w.Code != http.StatusOK {
		t.Fatalf("accept: status = %d, body %s", w.Code, w.Body.String())
	}
	var b models.Budget
	db.First(&b, id)
	if b.Status != models.BudgetAccepted || b.ApprovalToken != nil {
		t.Errorf("budget = %s token=%v, want accepted with burned token", b.Status, b.ApprovalToken)
	}

	// The link is single-use.
	if w := do(t, router, http.MethodPut, "/approval/"+token, "", gin.H{"accept": true}); w.Code != http.StatusConflict {
		t.Errorf("replay: status = %d, want 409", w.Code)
	}
}

func TestDecision_Authorization(t *testing.T) {
	router, _ := testRouter(t, nil)
	id := createBudget(t, router)
	do(t, router, http.MethodPut, fmt.Sprintf("/api/budgets/%d/value", id), adminToken, gin.H{"final_value": 5000})

	path := fmt.Sprintf("/api/budgets/%d/decision", id)
	if w := do(t, router, http.MethodPost, path, memberToken, gin.H{"accept": true}); w.Code != http.StatusForbidden {
		t.Errorf("plain member: status = %d, want 403", w.Code)
	}
	if w := do(t, router, http.MethodPost, path, pmToken, gin.H{"accept": true}); w.Code != http.StatusOK {
		t.Errorf("project manager: status = %d, body %s", w.Code, w.Body.String())
	}
	// A later decline wins over the earlier accept.
	if w := do(t, router, http.MethodPost, path, adminToken, gin.H{"accept": false, "reason": "fora do escopo"}); w.Code != http.StatusOK {
		t.Errorf("re-decide: status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestDecision_NotifiesClient(t *testing.T) {
	opts, rec := testStartOpts(t, nil)
	router := NewRouter(opts)
	id := createBudget(t, router)
	do(t, router, http.MethodPut, fmt.Sprintf("/api/budgets/%d/value", id), adminToken, gin.H{"final_value": 5000})
	rec.msgs = nil

	w := do(t, router, http.MethodPost, fmt.Sprintf("/api/budgets/%d/decision", id), adminToken, gin.H{"accept": true})
	if w.Code != http.StatusOK {
		t.Fatalf("decision: status = %d, body %s", w.Code, w.Body.String())
	}
	if !rec.emailed("ana@example.com") {
		t.Error("client was not emailed about the decision")
	}
	var found bool
	for _, m := range rec.msgs {
		if m.Title == "Proposta aceita" {
			found = true
		}
	}
	if !found {
		t.Errorf("no acceptance message dispatched, got %d messages", len(rec.msgs))
	}
}

func TestProjectProgress_NotifiesClient(t *testing.T) {
	opts, rec := testStartOpts(t, nil)
	router := NewRouter(opts)
	id := createBudget(t, router)
	proj := models.Project{BudgetID: id, Status: models.ProjectPlanning}
	if err := opts.DB.Create(&proj).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	rec.msgs = nil

	w := do(t, router, http.MethodPut, fmt.Sprintf("/api/projects/%d/progress", proj.ID), pmToken, gin.H{"progress": 50})
	if w.Code != http.StatusOK {
		t.Fatalf("progress: status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Project      models.Project `json:"project"`
		WhatsAppLink string         `json:"whatsapp_link"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Project.Progress != 50 {
		t.Errorf("progress = %d, want 50", resp.Project.Progress)
	}
	if !strings.Contains(resp.WhatsAppLink, "wa.me/5511999991111") {
		t.Errorf("whatsapp link = %q", resp.WhatsAppLink)
	}
	if !rec.emailed("ana@example.com") {
		t.Error("client was not emailed about the milestone")
	}
}

func TestBudgetDelete_AdminOnly(t *testing.T) {
	router, _ := testRouter(t, nil)
	id := createBudget(t, router)

	path := fmt.Sprintf("/api/budgets/%d", id)
	if w := do(t, router, http.MethodDelete, path, memberToken, gin.H{"reason": "duplicado"}); w.Code != http.StatusForbidden {
		t.Errorf("member: status = %d, want 403", w.Code)
	}
	if w := do(t, router, http.MethodDelete, path, adminToken, gin.H{}); w.Code != http.StatusBadRequest {
		t.Errorf("no reason: status = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodDelete, path, adminToken, gin.H{"reason": "duplicado"}); w.Code != http.StatusNoContent {
		t.Errorf("admin: status = %d, want 204", w.Code)
	}
}

func TestPaymentLinkAndWebhook(t *testing.T) {
	hooks := &stubWebhooks{}
	router, db := testRouter(t, hooks)
	id := createBudget(t, router)
	do(t, router, http.MethodPut, fmt.Sprintf("/api/budgets/%d/value", id), adminToken, gin.H{"final_value": 10000})
	do(t, router, http.MethodPost, fmt.Sprintf("/api/budgets/%d/decision", id), adminToken, gin.H{"accept": true})

	w := do(t, router, http.MethodPost, fmt.Sprintf("/api/budgets/%d/payments/down_payment/link", id), adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("link: status = %d, body %s", w.Code, w.Body.String())
	}
	var p models.Payment
	json.Unmarshal(w.Body.Bytes(), &p)
	if p.Amount != 2500 {
		t.Errorf("amount = %v, want 2500", p.Amount)
	}

	hooks.ev = &payment.Event{ID: "evt_1", BudgetID: id, Type: models.PaymentDown}
	if w := do(t, router, http.MethodPost, "/webhooks/gateway", "", gin.H{}); w.Code != http.StatusOK {
		t.Fatalf("webhook: status = %d, body %s", w.Code, w.Body.String())
	}
	var b models.Budget
	db.First(&b, id)
	if b.Status != models.BudgetDownPaymentPaid || b.ProjectID == nil {
		t.Errorf("budget = %s project=%v, want down_payment_paid with project", b.Status, b.ProjectID)
	}

	// Gateway retries must stay 200 and must not duplicate the project.
	if w := do(t, router, http.MethodPost, "/webhooks/gateway", "", gin.H{}); w.Code != http.StatusOK {
		t.Errorf("webhook replay: status = %d, want 200", w.Code)
	}
	var projects int64
	db.Model(&models.Project{}).Count(&projects)
	if projects != 1 {
		t.Errorf("projects = %d, want 1", projects)
	}
}

func TestWebhook_IgnoredEventType(t *testing.T) {
	router, _ := testRouter(t, &stubWebhooks{ev: nil})
	if w := do(t, router, http.MethodPost, "/webhooks/gateway", "", gin.H{}); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 for ignored event", w.Code)
	}
}

func uploadDocument(t *testing.T, router *gin.Engine, contractID uint, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("document", "contract.pdf")
	if err != nil {
		t.Fatalf("build multipart: %v", err)
	}
	fw.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/contracts/%d/signed", contractID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestContractUpload_RejectsNonPDF(t *testing.T) {
	router, db := testRouter(t, nil)
	id := createBudget(t, router)
	var ct models.Contract
	do(t, router, http.MethodPost, "/api/contracts", adminToken, gin.H{"budget_id": id})
	db.Where("budget_id = ?", id).First(&ct)

	if w := uploadDocument(t, router, ct.ID, []byte("not a pdf at all")); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for non-PDF upload", w.Code)
	}
}

// A rejected re-upload must leave the stored signed document untouched.
func TestContractUpload_RejectedReplayKeepsDocument(t *testing.T) {
	opts, _ := testStartOpts(t, nil)
	router := NewRouter(opts)
	id := createBudget(t, router)
	do(t, router, http.MethodPost, "/api/contracts", adminToken, gin.H{"budget_id": id})
	var ct models.Contract
	opts.DB.Where("budget_id = ?", id).First(&ct)

	first := []byte("%PDF-1.4 first signed copy")
	if w := uploadDocument(t, router, ct.ID, first); w.Code != http.StatusOK {
		t.Fatalf("first upload: status = %d, body %s", w.Code, w.Body.String())
	}
	path := filepath.Join(opts.Cfg.Server.UploadDir, "contracts", fmt.Sprintf("%d.pdf", ct.ID))
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read stored document: %v", err)
	}
	if !bytes.Equal(got, first) {
		t.Fatalf("stored document = %q, want first upload", got)
	}

	if w := uploadDocument(t, router, ct.ID, []byte("%PDF-1.4 second attempt")); w.Code != http.StatusConflict {
		t.Fatalf("second upload: status = %d, want 409", w.Code)
	}
	got, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("re-read stored document: %v", err)
	}
	if !bytes.Equal(got, first) {
		t.Errorf("stored document = %q, changed by the rejected upload", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("rejected upload left a temp file behind")
	}
}

func TestInbox(t *testing.T) {
	router, db := testRouter(t, nil)
	createBudget(t, router) // fans a notification out to every staff account

	w := do(t, router, http.MethodGet, "/api/notifications", memberToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("inbox: status = %d", w.Code)
	}
	var rows []models.Notification
	json.Unmarshal(w.Body.Bytes(), &rows)
	if len(rows) != 1 {
		t.Fatalf("inbox rows = %d, want 1", len(rows))
	}

	if w := do(t, router, http.MethodPut, fmt.Sprintf("/api/notifications/%d/read", rows[0].ID), memberToken, nil); w.Code != http.StatusNoContent {
		t.Errorf("mark read: status = %d, want 204", w.Code)
	}
	// Another user's notification is out of reach.
	var other models.Notification
	db.Where("user_id <> ?", rows[0].UserID).First(&other)
	if w := do(t, router, http.MethodPut, fmt.Sprintf("/api/notifications/%d/read", other.ID), memberToken, nil); w.Code != http.StatusNotFound {
		t.Errorf("foreign read: status = %d, want 404", w.Code)
	}
}

func TestAudit_AdminOnly(t *testing.T) {
	router, _ := testRouter(t, nil)
	createBudget(t, router)

	if w := do(t, router, http.MethodGet, "/api/audit", memberToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("member: status = %d, want 403", w.Code)
	}
	w := do(t, router, http.MethodGet, "/api/audit", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin: status = %d", w.Code)
	}
	var entries []models.AuditLog
	json.Unmarshal(w.Body.Bytes(), &entries)
	if len(entries) == 0 {
		t.Error("audit trail empty after intake")
	}
}

func TestStart_NilDB(t *testing.T) {
	err := Start(context.Background(), StartOpts{DB: nil})
	if err == nil || !strings.Contains(err.Error(), "db is required") {
		t.Errorf("err = %v, want db-is-required", err)
	}
}
