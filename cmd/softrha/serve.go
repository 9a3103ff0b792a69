package main

import (
	"fmt"
	"io"
	"log"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/rhavy/Softrha-2.0-sub002/internal/config"
	"github.com/rhavy/Softrha-2.0-sub002/internal/db"
	"github.com/rhavy/Softrha-2.0-sub002/internal/notify"
	"github.com/rhavy/Softrha-2.0-sub002/internal/notify/discord"
	"github.com/rhavy/Softrha-2.0-sub002/internal/notify/slack"
	"github.com/rhavy/Softrha-2.0-sub002/internal/payment"
	"github.com/rhavy/Softrha-2.0-sub002/internal/reconcile"
	"github.com/rhavy/Softrha-2.0-sub002/internal/server"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Softrha API server",
		Long:  "Serves the public and staff HTTP APIs and runs the payment reconciler on its schedule. Stops cleanly on SIGINT/SIGTERM.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "softrha.yaml", "path to Softrha config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}

	gateway, err := payment.NewStripeGateway(cfg.Gateway)
	if err != nil {
		return err
	}

	dispatcher := notify.NewDispatcher(gormDB, buildChannels(out, gormDB, cfg)...)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Reconciler on its cron schedule alongside the server.
	c := cron.New()
	_, err = c.AddFunc(cfg.Reconcile.Schedule, func() {
		rep, err := reconcile.Run(gormDB)
		if err != nil {
			log.Printf("reconcile: %v", err)
			return
		}
		if rep.Healed > 0 || rep.Failed > 0 {
			log.Printf("reconcile: healed %d, failed %d of %d stale payments", rep.Healed, rep.Failed, rep.Scanned)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reconciler (%q): %w", cfg.Reconcile.Schedule, err)
	}
	c.Start()
	defer c.Stop()
	fmt.Fprintf(out, "Reconciler scheduled: %s\n", cfg.Reconcile.Schedule)

	return server.Start(ctx, server.StartOpts{
		DB:       gormDB,
		Cfg:      cfg,
		Gateway:  gateway,
		Webhooks: gateway,
		Notifier: dispatcher,
		Out:      out,
	})
}

// buildChannels assembles the delivery channels the config enables.
func buildChannels(out io.Writer, gormDB *gorm.DB, cfg *config.Config) []notify.Channel {
	var channels []notify.Channel

	if cfg.Mail.Host != "" {
		channels = append(channels, notify.NewEmailChannel(gormDB, cfg.Mail))
		fmt.Fprintln(out, "Email notifications enabled")
	}
	if cfg.Push.VAPIDPublicKey != "" && cfg.Push.VAPIDPrivateKey != "" {
		channels = append(channels, notify.NewPushChannel(gormDB, cfg.Push))
		fmt.Fprintln(out, "Web push notifications enabled")
	}
	if cfg.Chat.Slack.Token != "" {
		channels = append(channels, slack.New(cfg.Chat.Slack.Token, cfg.Chat.Slack.Channel))
		fmt.Fprintf(out, "Slack notifications enabled (#%s)\n", cfg.Chat.Slack.Channel)
	}
	if cfg.Chat.Discord.Token != "" {
		ch, err := discord.New(cfg.Chat.Discord.Token, cfg.Chat.Discord.ChannelID)
		if err != nil {
			log.Printf("notify: discord disabled: %v", err)
		} else {
			channels = append(channels, ch)
			fmt.Fprintln(out, "Discord notifications enabled")
		}
	}
	return channels
}
