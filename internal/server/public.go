package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/audit"
	"github.com/rhavy/Softrha-2.0-sub002/internal/budget"
	"github.com/rhavy/Softrha-2.0-sub002/internal/contract"
	"github.com/rhavy/Softrha-2.0-sub002/internal/payment"
)

type intakeRequest struct {
	ClientName   string  `json:"client_name" binding:"required"`
	ClientEmail  string  `json:"client_email" binding:"required"`
	ClientPhone  string  `json:"client_phone"`
	Document     string  `json:"document"`
	ProjectType  string  `json:"project_type" binding:"required"`
	Complexity   string  `json:"complexity"`
	Timeline     string  `json:"timeline"`
	Description  string  `json:"description"`
	EstimatedMin float64 `json:"estimated_min"`
	EstimatedMax float64 `json:"estimated_max"`
}

// handleIntake is the public budget-request form.
func handleIntake(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req intakeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, apperr.Validation("invalid intake payload: %v", err))
			return
		}

		b, err := budget.Create(opts.DB, budget.CreateOpts{
			ClientName:   req.ClientName,
			ClientEmail:  req.ClientEmail,
			ClientPhone:  req.ClientPhone,
			Document:     req.Document,
			ProjectType:  req.ProjectType,
			Complexity:   req.Complexity,
			Timeline:     req.Timeline,
			Description:  req.Description,
			EstimatedMin: req.EstimatedMin,
			EstimatedMax: req.EstimatedMax,
		})
		if err != nil {
			fail(c, err)
			return
		}

		audit.Record(opts.DB, "public", "budget.create", "budget", b.ID, "intake from "+b.ClientEmail)
		opts.Notifier.NotifyStaff(c.Request.Context(),
			"Novo orçamento recebido",
			fmt.Sprintf("%s pediu um orçamento de %s", b.ClientName, b.ProjectType),
			"budget",
			map[string]string{"budget_id": fmt.Sprint(b.ID)})

		c.JSON(http.StatusCreated, b)
	}
}

// handleApprovalView is the public proposal page behind an approval token.
func handleApprovalView(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := budget.GetByToken(opts.DB, c.Param("token"), time.Now())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"client_name":  b.ClientName,
			"project_type": b.ProjectType,
			"description":  b.Description,
			"final_value":  b.FinalValue,
			"status":       b.Status,
		})
	}
}

type approvalRequest struct {
	Accept bool   `json:"accept"`
	Reason string `json:"reason"`
}

// handleApprovalRespond is the client's accept/decline on the proposal page.
func handleApprovalRespond(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req approvalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, apperr.Validation("invalid approval payload: %v", err))
			return
		}
		if !req.Accept && req.Reason == "" {
			fail(c, apperr.Validation("a reason is required to decline"))
			return
		}

		b, err := budget.RespondByToken(opts.DB, c.Param("token"), req.Accept, req.Reason, time.Now())
		if err != nil {
			fail(c, err)
			return
		}

		verb := "recusou"
		if req.Accept {
			verb = "aceitou"
		}
		audit.Record(opts.DB, "client", "budget.respond", "budget", b.ID, verb)
		opts.Notifier.NotifyStaff(c.Request.Context(),
			"Resposta do cliente",
			fmt.Sprintf("%s %s a proposta de %s", b.ClientName, verb, b.ProjectType),
			"budget",
			map[string]string{"budget_id": fmt.Sprint(b.ID)})

		c.JSON(http.StatusOK, b)
	}
}

// handleContractUpload receives the client's signed contract as a multipart
// PDF. Public: the upload URL is shared with the client out of band.
func handleContractUpload(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}

		fh, err := c.FormFile("document")
		if err != nil {
			fail(c, apperr.Validation("a document file is required"))
			return
		}
		f, err := fh.Open()
		if err != nil {
			fail(c, apperr.Validation("unreadable upload"))
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			fail(c, apperr.Validation("unreadable upload"))
			return
		}
		if !contract.IsPDF(data) {
			fail(c, apperr.Validation("signed document must be a PDF"))
			return
		}

		dir := filepath.Join(opts.Cfg.Server.UploadDir, "contracts")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			fail(c, fmt.Errorf("store upload: %w", err))
			return
		}

		// The stored document must survive a rejected upload, so the bytes
		// land under a temp name and only replace the real file once the
		// monotonic-status guard has accepted the transition.
		name := fmt.Sprintf("%d.pdf", id)
		path := filepath.Join(dir, name)
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			fail(c, fmt.Errorf("store upload: %w", err))
			return
		}

		ct, err := contract.RecordSignedUpload(opts.DB, id, "/contracts/"+name, data, time.Now())
		if err != nil {
			os.Remove(tmp)
			fail(c, err)
			return
		}
		if err := os.Rename(tmp, path); err != nil {
			fail(c, fmt.Errorf("store upload: %w", err))
			return
		}

		audit.Record(opts.DB, "client", "contract.signed_upload", "contract", ct.ID, path)
		opts.Notifier.NotifyStaff(c.Request.Context(),
			"Contrato assinado recebido",
			fmt.Sprintf("Contrato %d foi assinado pelo cliente", ct.ID),
			"contract",
			map[string]string{"contract_id": fmt.Sprint(ct.ID)})

		c.JSON(http.StatusOK, ct)
	}
}

// handleGatewayWebhook consumes payment-completed callbacks. The gateway
// retries on non-2xx, so replays and already-settled charges return 200.
func handleGatewayWebhook(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			fail(c, apperr.Validation("unreadable webhook body"))
			return
		}

		ev, err := opts.Webhooks.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
		if err != nil {
			fail(c, err)
			return
		}
		if ev == nil {
			c.JSON(http.StatusOK, gin.H{"ignored": true})
			return
		}

		res, err := payment.Settle(opts.DB, payment.SettleInput{
			EventID:  ev.ID,
			BudgetID: ev.BudgetID,
			Type:     ev.Type,
			Now:      time.Now(),
		})
		if err != nil {
			fail(c, err)
			return
		}
		if res.Replay {
			c.JSON(http.StatusOK, gin.H{"replay": true})
			return
		}

		audit.Record(opts.DB, "gateway", "payment.settled", "budget", ev.BudgetID, ev.Type)
		title := "Pagamento final recebido"
		if res.Spawned {
			title = "Entrada recebida, projeto criado"
		}
		opts.Notifier.NotifyStaff(c.Request.Context(),
			title,
			fmt.Sprintf("Orçamento %d: pagamento %s confirmado", ev.BudgetID, ev.Type),
			"payment",
			map[string]string{"budget_id": fmt.Sprint(ev.BudgetID)})

		c.JSON(http.StatusOK, gin.H{"budget_status": res.Budget.Status, "spawned": res.Spawned})
	}
}
