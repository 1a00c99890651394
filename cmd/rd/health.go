package main

import (
	"context"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/rdtrack/internal/alert"
	"github.com/zulandar/rdtrack/internal/config"
	"github.com/zulandar/rdtrack/internal/health"
	"github.com/zulandar/rdtrack/internal/store"
	"gorm.io/gorm"
)

func newHealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Asset health commands",
	}
	cmd.AddCommand(newHealthShowCmd())
	cmd.AddCommand(newHealthHistoryCmd())
	cmd.AddCommand(newHealthDashboardCmd())
	cmd.AddCommand(newHealthSnapshotCmd())
	cmd.AddCommand(newHealthScheduleCmd())
	return cmd
}

func healthService(cfg *config.Config, gormDB *gorm.DB) *health.Service {
	return health.NewService(store.New(gormDB), health.WithHistoryDays(cfg.Health.HistoryDays))
}

func newHealthShowCmd() *cobra.Command {
	var (
		configPath string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "show <asset-id>",
		Short: "Compute an asset's health and record a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			m, err := healthService(cfg, gormDB).ComputeAssetHealth(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, m)
			}
			printMetrics(out, args[0], m)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printMetrics(out io.Writer, assetID string, m health.Metrics) {
	fmt.Fprintf(out, "Asset:       %s\n", assetID)
	fmt.Fprintf(out, "Health:      %.2f\n\n", m.HealthScore)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SIGNAL\tVALUE\tWEIGHTED")
	fmt.Fprintf(w, "reuse rate\t%.4f\t%.2f\n", m.ReuseRate, m.Breakdown.Reuse)
	fmt.Fprintf(w, "defect density\t%.2f\t%.2f\n", m.DefectDensity, m.Breakdown.Defect)
	fmt.Fprintf(w, "change frequency\t%.2f\t%.2f\n", m.ChangeFrequency, m.Breakdown.Change)
	fmt.Fprintf(w, "regression cost\t%.2f\t%.2f\n", m.RegressionCost, m.Breakdown.Regression)
	fmt.Fprintf(w, "maintenance burden\t%.2f\t%.2f\n", m.MaintenanceBurden, m.Breakdown.Maintenance)
	w.Flush()
}

func newHealthHistoryCmd() *cobra.Command {
	var (
		configPath string
		days       int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "history <asset-id>",
		Short: "Show recorded health snapshots, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			snaps, err := healthService(cfg, gormDB).History(cmd.Context(), args[0], days)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, snaps)
			}
			if len(snaps) == 0 {
				fmt.Fprintln(out, "No snapshots in window.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CALCULATED\tSCORE\tREUSE\tDEFECTS\tCHANGE\tREGRESSION\tMAINTENANCE")
			for _, s := range snaps {
				fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
					s.CalculatedAt, s.HealthScore, s.ReuseRate, s.DefectDensity,
					s.ChangeFrequency, s.RegressionCost, s.MaintenanceBurden)
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().IntVar(&days, "days", 0, "trailing window in days (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newHealthDashboardCmd() *cobra.Command {
	var (
		configPath string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the health overview of all assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			d, err := healthService(cfg, gormDB).Dashboard(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, d)
			}
			printDashboard(out, d)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printDashboard(out io.Writer, d *health.Dashboard) {
	fmt.Fprintf(out, "Assets: %d   Average health: %.2f\n", d.TotalAssets, d.AverageHealth)
	if d.TotalAssets == 0 {
		return
	}

	fmt.Fprintln(out, "\nBy type:")
	for _, tc := range d.ByType {
		fmt.Fprintf(out, "  %-16s %d\n", tc.Type, tc.Count)
	}
	fmt.Fprintln(out, "\nBy maturity:")
	for _, mc := range d.ByMaturity {
		fmt.Fprintf(out, "  %-16s %d\n", mc.Maturity, mc.Count)
	}

	fmt.Fprintln(out, "\nMost reused:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tTYPE\tREUSE")
	for _, r := range d.TopReused {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%d\n", r.ID, truncate(r.Name, 30), r.Type, r.ReuseCount)
	}
	w.Flush()

	fmt.Fprintln(out, "\nScores:")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNAME\tMATURITY\tSCORE")
	for _, a := range d.Assets {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%.2f\n", a.ID, truncate(a.Name, 30), a.Maturity, a.Metrics.HealthScore)
	}
	w.Flush()
}

func newHealthSnapshotCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Record a health snapshot for every asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			results, err := healthService(cfg, gormDB).RecordAll(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d snapshot(s)\n", len(results))
			return err
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newHealthScheduleCmd() *cobra.Command {
	var (
		configPath string
		once       bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Record snapshots on the configured cron schedule and alert on low scores",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSchedule(cmd, configPath, once)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&once, "once", false, "run a single pass and exit")
	return cmd
}

func runSchedule(cmd *cobra.Command, configPath string, once bool) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	notifier, err := alert.FromConfig(cfg.Alerts)
	if err != nil {
		return err
	}
	var n alert.Notifier
	if len(notifier) > 0 {
		n = notifier
	}

	sched, err := health.NewScheduler(healthService(cfg, gormDB), cfg.Health.SnapshotSchedule, cfg.Health.AlertThreshold, n)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if once {
		res, err := sched.RunOnce(cmd.Context())
		fmt.Fprintf(out, "Recorded %d snapshot(s), sent %d alert(s)\n", res.Recorded, res.Alerted)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	fmt.Fprintf(out, "Recording snapshots on %q (alert below %.0f, %d channel(s))\n",
		cfg.Health.SnapshotSchedule, cfg.Health.AlertThreshold, len(notifier))
	return sched.Run(ctx)
}
