package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rhavy/Softrha-2.0-sub002/internal/apperr"
	"github.com/rhavy/Softrha-2.0-sub002/internal/audit"
	"github.com/rhavy/Softrha-2.0-sub002/internal/auth"
	"gorm.io/gorm"
)

const identityKey = "identity"

// registerRoutes sets up the public and staff routes on the Gin router.
func registerRoutes(router *gin.Engine, opts StartOpts) {
	// Public surface: no credentials.
	router.POST("/api/budgets", handleIntake(opts))
	router.GET("/approval/:token", handleApprovalView(opts))
	router.PUT("/approval/:token", handleApprovalRespond(opts))
	router.POST("/api/contracts/:id/signed", handleContractUpload(opts))
	router.POST("/webhooks/gateway", handleGatewayWebhook(opts))

	// Staff API: bearer token resolved to an identity.
	api := router.Group("/api", requireAuth(opts.DB))
	{
		api.GET("/budgets", handleBudgetList(opts))
		api.GET("/budgets/:id", handleBudgetGet(opts))
		api.PUT("/budgets/:id/value", handleBudgetSetValue(opts))
		api.POST("/budgets/:id/send", handleBudgetSend(opts))
		api.POST("/budgets/:id/decision", handleBudgetDecide(opts))
		api.DELETE("/budgets/:id", handleBudgetDelete(opts))
		api.POST("/budgets/:id/payments/:type/link", handlePaymentLink(opts))

		api.POST("/contracts", handleContractCreate(opts))
		api.POST("/contracts/:id/confirm", handleContractConfirm(opts))

		api.GET("/projects", handleProjectList(opts))
		api.GET("/projects/:id", handleProjectGet(opts))
		api.PUT("/projects/:id/progress", handleProjectProgress(opts))
		api.POST("/projects/:id/schedule", handleScheduleCreate(opts))
		api.PUT("/projects/:id/schedule", handleScheduleMove(opts))
		api.POST("/projects/:id/delivery", handleDelivery(opts))
		api.GET("/projects/:id/evaluations", handleEvaluationList(opts))

		api.GET("/schedules", handleScheduleList(opts))
		api.POST("/evaluations", handleEvaluationSubmit(opts))

		api.GET("/notifications", handleInbox(opts))
		api.PUT("/notifications/:id/read", handleInboxRead(opts))
		api.POST("/push/subscribe", handlePushSubscribe(opts))

		api.GET("/audit", handleAuditList(opts))
	}
}

// requireAuth resolves the bearer token and stores the identity on the
// request context. Unauthenticated requests stop here.
func requireAuth(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		id, err := auth.Resolve(db, token)
		if err != nil {
			fail(c, err)
			c.Abort()
			return
		}
		if err := auth.RequireStaff(id); err != nil {
			fail(c, err)
			c.Abort()
			return
		}
		c.Set(identityKey, id)
	}
}

// identity returns the resolved caller stored by requireAuth.
func identity(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	return v.(*auth.Identity)
}

// fail writes the error as JSON with the status its kind maps to.
func fail(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": err.Error()})
}

// paramID parses the :id (or named) route parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		fail(c, apperr.Validation("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

func handleAuditList(opts StartOpts) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identity(c).IsAdmin() {
			fail(c, apperr.Forbidden("audit log is admin-only"))
			return
		}
		limit, _ := strconv.Atoi(c.Query("limit"))
		entries, err := audit.List(opts.DB, limit)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}
