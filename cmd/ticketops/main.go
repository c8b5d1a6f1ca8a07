package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/app"
	"github.com/spec-kit/sla-ticket-service/internal/config"
	"github.com/spec-kit/sla-ticket-service/internal/observability"
)

var container *app.Container

var rootCmd = &cobra.Command{
	Use:   "ticketops",
	Short: "Run SLA workflow operations against the ticket store",
	Long:  `Runs the sweep and maintenance operations of the ticket service once and exits. Intended for cron jobs and operators.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger, err := observability.NewLogger(cfg.Logger, cfg.App)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		if err := requirePostgres(cfg); err != nil {
			return err
		}
		container, err = app.Build(cmd.Context(), cfg, logger, app.WithMigrations(false))
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if container != nil {
			container.Close()
			_ = container.Logger.Sync()
		}
	},
	SilenceUsage: true,
}

var autoCloseDays int

var autoCloseCmd = &cobra.Command{
	Use:   "auto-close",
	Short: "Close tickets resolved for longer than the threshold",
	RunE: func(cmd *cobra.Command, args []string) error {
		days := autoCloseDays
		if days == 0 {
			days = container.Config.Workflow.AutoCloseDays
		}
		closed, err := container.Sweep.AutoCloseResolved(cmd.Context(), days)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"closed": closed, "days_threshold": days})
	},
}

var escalateReason string

var escalateCmd = &cobra.Command{
	Use:   "escalate <ticket-id>",
	Short: "Escalate an overdue ticket to another agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticket, escalation, err := container.Escalation.Escalate(cmd.Context(), args[0], escalateReason)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			"ticket_id":     ticket.ID,
			"agent_id":      ticket.AgentID,
			"escalation_id": escalation.ID,
			"reason":        escalation.Reason,
		})
	},
}

var assignCmd = &cobra.Command{
	Use:   "assign <ticket-id>",
	Short: "Assign a ticket to the least busy active agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticket, err := container.Assignment.AssignLeastBusy(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"ticket_id": ticket.ID, "agent_id": ticket.AgentID, "status": ticket.Status})
	},
}

var (
	reassignUser string
	reassignFrom string
	reassignTo   string
)

var reassignCmd = &cobra.Command{
	Use:   "reassign-category",
	Short: "Move a user's open tickets from one category to another",
	RunE: func(cmd *cobra.Command, args []string) error {
		updated, err := container.Reassign.BulkReassignCategory(cmd.Context(), reassignUser, reassignFrom, reassignTo)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{"updated": updated})
	},
}

var (
	statsFrom string
	statsTo   string
)

var statsCmd = &cobra.Command{
	Use:   "stats <agent-id>",
	Short: "Report an agent's ticket statistics for a window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := time.Parse(time.RFC3339, statsFrom)
		if err != nil {
			return fmt.Errorf("invalid --from: %w", err)
		}
		end, err := time.Parse(time.RFC3339, statsTo)
		if err != nil {
			return fmt.Errorf("invalid --to: %w", err)
		}
		stats, err := container.Stats.AgentStats(cmd.Context(), args[0], start, end)
		if err != nil {
			return err
		}
		return printJSON(map[string]any{
			"agent_id":                  stats.AgentID,
			"agent_name":                stats.AgentName,
			"total_tickets":             stats.TotalTickets,
			"closed_tickets":            stats.ClosedTickets,
			"overdue_tickets":           stats.OverdueTickets,
			"avg_resolution_time_hours": stats.AvgResolutionTimeHours,
		})
	},
}

// requirePostgres rejects runs without a database: the in-memory store starts empty, so
// every operation would be a no-op.
func requirePostgres(cfg *config.Config) error {
	if cfg.Postgres.DSN == "" {
		return errors.New("POSTGRES_DSN is required; ticketops has no data without a database")
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	autoCloseCmd.Flags().IntVar(&autoCloseDays, "days", 0, "days in RESOLVED before closing (defaults to WORKFLOW_AUTO_CLOSE_DAYS)")
	escalateCmd.Flags().StringVar(&escalateReason, "reason", "", "escalation reason")

	reassignCmd.Flags().StringVar(&reassignUser, "user", "", "ticket owner id")
	reassignCmd.Flags().StringVar(&reassignFrom, "from", "", "current category id")
	reassignCmd.Flags().StringVar(&reassignTo, "to", "", "target category id")
	_ = reassignCmd.MarkFlagRequired("user")
	_ = reassignCmd.MarkFlagRequired("from")
	_ = reassignCmd.MarkFlagRequired("to")

	statsCmd.Flags().StringVar(&statsFrom, "from", "", "window start (RFC3339)")
	statsCmd.Flags().StringVar(&statsTo, "to", "", "window end (RFC3339)")
	_ = statsCmd.MarkFlagRequired("from")
	_ = statsCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(autoCloseCmd)
	rootCmd.AddCommand(escalateCmd)
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(reassignCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if container != nil {
			container.Logger.Error("operation failed", zap.Error(err))
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
