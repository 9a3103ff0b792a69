// Package server exposes the back office over HTTP: a small public surface
// (intake, token approval, signed-contract upload, gateway webhooks) and a
// token-authenticated staff API.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rhavy/Softrha-2.0-sub002/internal/config"
	"github.com/rhavy/Softrha-2.0-sub002/internal/notify"
	"github.com/rhavy/Softrha-2.0-sub002/internal/payment"
	"gorm.io/gorm"
)

// WebhookParser verifies and decodes gateway callbacks.
type WebhookParser interface {
	ParseWebhook(payload []byte, sigHeader string) (*payment.Event, error)
}

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB       *gorm.DB
	Cfg      *config.Config
	Gateway  payment.Gateway
	Webhooks WebhookParser
	Notifier *notify.Dispatcher
	Out      io.Writer
}

// Start launches the HTTP server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("server: db is required")
	}
	if opts.Cfg == nil {
		return fmt.Errorf("server: config is required")
	}

	router := NewRouter(opts)

	addr := fmt.Sprintf(":%d", opts.Cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Softrha API running at http://localhost:%d\n", opts.Cfg.Server.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// NewRouter builds the Gin engine with all routes registered.
func NewRouter(opts StartOpts) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	registerRoutes(router, opts)
	return router
}
