package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/audit"
	"github.com/rhavy/Softrha-2.0-sub002/internal/auth"
	"github.com/rhavy/Softrha-2.0-sub002/internal/budget"
	"github.com/rhavy/Softrha-2.0-sub002/internal/contract"
	"github.com/rhavy/Softrha-2.0-sub002/internal/models"
	"github.com/rhavy/Softrha-2.0-sub002/internal/notify"
	"github.com/rhavy/Softrha-2.0-sub002/internal/payment"
)

func handleBudgetList(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		budgets, err := budget.List(opts.DB, budget.ListFilters{
			Status:      c.Query("status"),
			ClientEmail: c.Query("client_email"),
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, budgets)
	}
}

func handleBudgetGet(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		b, err := budget.Get(opts.DB, id)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, b)
	}
}

func handleBudgetSetValue(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req struct {
			FinalValue float64 `json:"final_value"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, apperr.Validation("invalid payload: %v", err))
			return
		}
		b, err := budget.SetFinalValue(opts.DB, id, req.FinalValue)
		if err != nil {
			fail(c, err)
			return
		}
		audit.Record(opts.DB, actor(c), "budget.set_value", "budget", id, fmt.Sprintf("%.2f", req.FinalValue))
		c.JSON(http.StatusOK, b)
	}
}

func handleBudgetSend(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		res, err := budget.SendProposal(opts.DB, id, budget.SendOpts{
			BaseURL:  opts.Cfg.PublicBaseURL,
			TokenTTL: time.Duration(opts.Cfg.Approval.TokenTTLDays) * 24 * time.Hour,
			Now:      time.Now(),
		})
		if err != nil {
			fail(c, err)
			return
		}
		audit.Record(opts.DB, actor(c), "budget.send", "budget", id, res.ApprovalURL)
		c.JSON(http.StatusOK, gin.H{
			"budget":        res.Budget,
			"approval_url":  res.ApprovalURL,
			"whatsapp_link": res.WhatsAppLink,
		})
	}
}

func handleBudgetDecide(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		who := identity(c)
		if err := auth.RequireBudgetDecider(who); err != nil {
			fail(c, err)
			return
		}
		var req struct {
			Accept bool   `json:"accept"`
			Reason string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, apperr.Validation("invalid payload: %v", err))
			return
		}

		b, err := budget.Decide(opts.DB, id, fmt.Sprint(who.UserID), req.Accept, req.Reason, time.Now())
		if err != nil {
			fail(c, err)
			return
		}
		action := "budget.decline"
		title := "Proposta recusada"
		body := fmt.Sprintf("%s, sua proposta de %s foi recusada.", b.ClientName, b.ProjectType)
		if req.Accept {
			action = "budget.accept"
			title = "Proposta aceita"
			body = fmt.Sprintf("%s, sua proposta de %s foi aceita! Em breve enviaremos o contrato.", b.ClientName, b.ProjectType)
		}
		audit.Record(opts.DB, actor(c), action, "budget", id, req.Reason)
		opts.Notifier.Notify(c.Request.Context(), notify.Message{
			Emails:   []string{b.ClientEmail},
			Title:    title,
			Body:     body,
			Category: "budget",
			Metadata: map[string]string{"budget_id": fmt.Sprint(id)},
		})
		c.JSON(http.StatusOK, b)
	}
}

func handleBudgetDelete(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if !identity(c).IsAdmin() {
			fail(c, apperr.Forbidden("only admins may delete budgets"))
			return
		}
		var req struct {
			Reason string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, apperr.Validation("invalid payload: %v", err))
			return
		}
		if err := budget.Delete(opts.DB, id, req.Reason); err != nil {
			fail(c, err)
			return
		}
		audit.Record(opts.DB, actor(c), "budget.delete", "budget", id, req.Reason)
		c.Status(http.StatusNoContent)
	}
}

func handlePaymentLink(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		ptype := c.Param("type")
		if ptype != models.PaymentDown && ptype != models.PaymentFinal {
			fail(c, apperr.Validation("unknown payment type %q", ptype))
			return
		}

		p, err := payment.GenerateLink(c.Request.Context(), opts.DB, opts.Gateway, id, ptype, payment.LinkOpts{
			DueIn: time.Duration(opts.Cfg.Approval.PaymentDueDays) * 24 * time.Hour,
		})
		if err != nil {
			fail(c, err)
			return
		}
		audit.Record(opts.DB, actor(c), "payment.link", "budget", id, ptype)
		c.JSON(http.StatusOK, p)
	}
}

func handleContractCreate(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			BudgetID    uint   `json:"budget_id" binding:"required"`
			DocumentURL string `json:"document_url"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, apperr.Validation("invalid payload: %v", err))
			return
		}
		ct, err := contract.Create(opts.DB, req.BudgetID, req.DocumentURL)
		if err != nil {
			fail(c, err)
			return
		}
		audit.Record(opts.DB, actor(c), "contract.create", "contract", ct.ID, "")
		c.JSON(http.StatusCreated, ct)
	}
}

func handleContractConfirm(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		ct, err := contract.Confirm(opts.DB, id, time.Now())
		if err != nil {
			fail(c, err)
			return
		}
		audit.Record(opts.DB, actor(c), "contract.confirm", "contract", id, "")
		c.JSON(http.StatusOK, ct)
	}
}

// actor renders the caller for the audit trail.
func actor(c *gin.Context) string {
	if id := identity(c); id != nil {
		return fmt.Sprintf("user:%d", id.UserID)
	}
	return "unknown"
}
