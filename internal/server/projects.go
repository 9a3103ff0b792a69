package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/audit"
	"github.com/rhavy/Softrha-2.0-sub002/internal/budget"
	"github.com/rhavy/Softrha-2.0-sub002/internal/evaluation"
	"github.com/rhavy/Softrha-2.0-sub002/internal/notify"
	"github.com/rhavy/Softrha-2.0-sub002/internal/project"
	"github.com/rhavy/Softrha-2.0-sub002/internal/schedule"
)

func handleProjectList(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		projects, err := project.List(opts.DB, c.Query("status"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, projects)
	}
}

func handleProjectGet(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		p, err := project.Get(opts.DB, id)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func handleProjectProgress(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req struct {
			Progress int `json:"progress"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, apperr.Validation("invalid payload: %v", err))
			return
		}
		p, err := project.UpdateProgress(opts.DB, id, req.Progress)
		if err != nil {
			fail(c, err)
			return
		}
		audit.Record(opts.DB, actor(c), "project.progress", "project", id, fmt.Sprintf("%d%%", req.Progress))

		b, err := budget.Get(opts.DB, p.BudgetID)
		if err != nil {
			fail(c, err)
			return
		}
		text := fmt.Sprintf("Olá %s! Seu projeto de %s está %d%% concluído.", b.ClientName, b.ProjectType, req.Progress)
		opts.Notifier.Notify(c.Request.Context(), notify.Message{
			Emails:   []string{b.ClientEmail},
			Title:    "Atualização do seu projeto",
			Body:     text,
			Category: "project",
			Metadata: map[string]string{"project_id": fmt.Sprint(id)},
		})

		c.JSON(http.StatusOK, gin.H{
			"project":       p,
			"whatsapp_link": notify.WhatsAppLink(b.ClientPhone, text),
		})
	}
}

type scheduleRequest struct {
	Date  time.Time `json:"date" binding:"required"`
	Time  string    `json:"time"`
	Type  string    `json:"type"`
	Notes string    `json:"notes"`
}

func handleScheduleCreate(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req scheduleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, apperr.Validation("invalid payload: %v", err))
			return
		}
		s, err := schedule.Create(opts.DB, id, schedule.CreateOpts{
			Date:  req.Date,
			Time:  req.Time,
			Type:  req.Type,
			Notes: req.Notes,
		})
		if err != nil {
			fail(c, err)
			return
		}
		audit.Record(opts.DB, actor(c), "schedule.create", "project", id, req.Date.Format("2006-01-02"))
		c.JSON(http.StatusCreated, s)
	}
}

func handleScheduleMove(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req scheduleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, apperr.Validation("invalid payload: %v", err))
			return
		}
		s, err := schedule.Reschedule(opts.DB, id, req.Date, req.Time)
		if err != nil {
			fail(c, err)
			return
		}
		audit.Record(opts.DB, actor(c), "schedule.reschedule", "project", id, req.Date.Format("2006-01-02"))
		c.JSON(http.StatusOK, s)
	}
}

func handleScheduleList(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		schedules, err := schedule.List(opts.DB, c.Query("status"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, schedules)
	}
}

func handleDelivery(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var req struct {
			Success bool   `json:"success"`
			Reason  string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, apperr.Validation("invalid payload: %v", err))
			return
		}

		res, err := project.ConfirmDelivery(opts.DB, id, req.Success, req.Reason, time.Now())
		if err != nil {
			fail(c, err)
			return
		}

		outcome := "delivery.failed"
		title := "Entrega falhou"
		if req.Success {
			outcome = "delivery.confirmed"
			title = "Projeto entregue"
		}
		audit.Record(opts.DB, actor(c), outcome, "project", id, req.Reason)
		opts.Notifier.NotifyStaff(c.Request.Context(),
			title,
			fmt.Sprintf("Projeto %d: %s", id, outcome),
			"delivery",
			map[string]string{"project_id": fmt.Sprint(id)})

		c.JSON(http.StatusOK, res)
	}
}

func handleEvaluationSubmit(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Kind      string `json:"kind" binding:"required"`
			ProjectID uint   `json:"project_id" binding:"required"`
			TargetID  uint   `json:"target_id"`
			Rating    int    `json:"rating"`
			Comment   string `json:"comment"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, apperr.Validation("invalid payload: %v", err))
			return
		}

		e, err := evaluation.Submit(opts.DB, evaluation.SubmitOpts{
			Kind:        req.Kind,
			ProjectID:   req.ProjectID,
			EvaluatorID: identity(c).UserID,
			TargetID:    req.TargetID,
			Rating:      req.Rating,
			Comment:     req.Comment,
		})
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, e)
	}
}

func handleEvaluationList(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		evals, err := evaluation.ListByProject(opts.DB, id)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, evals)
	}
}
