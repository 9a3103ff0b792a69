package budget

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"github.com/rhavy/Softrha-2.0-sub002/internal/notify"
	"gorm.io/gorm"
)

// SendOpts holds parameters for sending a proposal to the client.
type SendOpts struct {
	BaseURL  string        // public base URL the approval link hangs off
	TokenTTL time.Duration // how long the link stays valid
	Now      time.Time
}

// SendResult carries the minted capability back to the caller.
type SendResult struct {
	Budget       *models.Budget
	ApprovalURL  string
	WhatsAppLink string // prepared deep link, never auto-sent
}

// SendProposal mints a fresh approval token, marks the budget sent, and
// returns the token-bearing URL. Re-sending overwrites the previous token,
// so old links fail closed.
func SendProposal(db *gorm.DB, id uint, opts SendOpts) (*SendResult, error) {
	b, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, models.BudgetSent) {
		return nil, apperr.Conflict("budget: cannot send proposal for %d in status %s", id, b.Status)
	}
	if b.FinalValue <= 0 {
		return nil, apperr.Validation("budget: final value must be set before sending")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 7 * 24 * time.Hour
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	token := uuid.NewString()
	expires := opts.Now.Add(opts.TokenTTL)
	updates := map[string]interface{}{
		"status":                 models.BudgetSent,
		"approval_token":         token,
		"approval_token_expires": expires,
	}
	if err := db.Model(b).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("budget: send proposal %d: %w", id, err)
	}

	approvalURL := opts.BaseURL + "/approval/" + token
	text := fmt.Sprintf("Olá %s! Sua proposta para %s está pronta: %s", b.ClientName, b.ProjectType, approvalURL)

	b.Status = models.BudgetSent
	b.ApprovalToken = &token
	b.ApprovalTokenExpires = &expires
	return &SendResult{
		Budget:       b,
		ApprovalURL:  approvalURL,
		WhatsAppLink: notify.WhatsAppLink(b.ClientPhone, text),
	}, nil
}

// GetByToken returns the budget a live approval token points at. Used by the
// public proposal page.
func GetByToken(db *gorm.DB, token string, now time.Time) (*models.Budget, error) {
	b, err := findByToken(db, token)
	if err != nil {
		return nil, err
	}
	if b.ApprovalTokenExpires == nil || b.ApprovalTokenExpires.Before(now) {
		return nil, apperr.Validation("budget: approval link expired")
	}
	return b, nil
}

// RespondByToken is the public, unauthenticated client decision. The token
// is single-use: responding clears it so the link cannot be replayed, and a
// replay or an already decided budget yields a conflict.
func RespondByToken(db *gorm.DB, token string, accept bool, reason string, now time.Time) (*models.Budget, error) {
	b, err := findByToken(db, token)
	if err != nil {
		return nil, err
	}
	if b.ApprovalTokenExpires == nil || b.ApprovalTokenExpires.Before(now) {
		return nil, apperr.Validation("budget: approval link expired")
	}
	if b.Status == models.BudgetAccepted || b.Status == models.BudgetRejected {
		return nil, apperr.Conflict("budget: %d already decided", b.ID)
	}

	updates := decisionUpdates("client", accept, reason, now)
	if accept {
		updates["user_approved_at"] = now
	}
	if err := db.Model(b).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("budget: respond by token: %w", err)
	}
	return Get(db, b.ID)
}

// findByToken resolves a token to its budget. A missing token is a conflict,
// not a not-found: used links are cleared, so the common case is a replay.
func findByToken(db *gorm.DB, token string) (*models.Budget, error) {
	if token == "" {
		return nil, apperr.Validation("budget: approval token is required")
	}
	var b models.Budget
	err := db.Where("approval_token = ?", token).First(&b).Error
	if err == nil {
		return &b, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Conflict("budget: approval link invalid or already used")
	}
	return nil, fmt.Errorf("budget: find by token: %w", err)
}
