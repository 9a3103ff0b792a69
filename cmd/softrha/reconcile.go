package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rhavy/Softrha-2.0-sub002/internal/config"
	"github.com/rhavy/Softrha-2.0-sub002/internal/db"
	"github.com/rhavy/Softrha-2.0-sub002/internal/reconcile"
)

func newReconcileCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one payment reconciliation sweep",
		Long:  "Scans for paid charges whose budget or project state never landed and re-applies the settlement. The serve command runs this on a schedule; this runs it once.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "softrha.yaml", "path to Softrha config file")
	return cmd
}

func runReconcile(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}

	rep, err := reconcile.Run(gormDB)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Scanned %d stale payments: %d healed, %d failed\n", rep.Scanned, rep.Healed, rep.Failed)
	for _, c := range rep.Corrected {
		line := fmt.Sprintf("  budget %d: re-applied %s settlement", c.BudgetID, c.Type)
		if c.Spawned && c.ProjectID != nil {
			line += fmt.Sprintf(" (spawned project %d)", *c.ProjectID)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
