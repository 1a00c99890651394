package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/rdtrack/internal/dates"
	"github.com/zulandar/rdtrack/internal/report"
	"github.com/zulandar/rdtrack/internal/store"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Work reports by person or engineer",
	}
	cmd.AddCommand(newReportPersonCmd())
	cmd.AddCommand(newReportEngineerCmd())
	return cmd
}

func newReportPersonCmd() *cobra.Command {
	var (
		configPath string
		name       string
		start, end string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "person",
		Short: "Report the tasks, projects and hours related to a person",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := dates.ParseRange(start, end)
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			rep, err := report.NewBuilder(store.New(gormDB)).Person(cmd.Context(), name, r)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, rep)
			}
			printPersonReport(out, rep)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&name, "name", "", "person name (required)")
	cmd.Flags().StringVar(&start, "start", "", "range start date")
	cmd.Flags().StringVar(&end, "end", "", "range end date")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	cmd.MarkFlagRequired("name")
	return cmd
}

func printPersonReport(out io.Writer, rep *report.PersonReport) {
	fmt.Fprintf(out, "Person:       %s\n", rep.Person)
	if rep.StartDate != "" || rep.EndDate != "" {
		fmt.Fprintf(out, "Range:        %s .. %s\n", orDash(rep.StartDate), orDash(rep.EndDate))
	}
	fmt.Fprintf(out, "Tasks:        %d\n", rep.TotalTasks)
	fmt.Fprintf(out, "Projects:     %d\n", rep.TotalProjects)
	fmt.Fprintf(out, "Hours:        %.2f\n", rep.TotalHours)
	if len(rep.Stakeholders) > 0 {
		fmt.Fprintf(out, "Stakeholders: %s\n", strings.Join(rep.Stakeholders, ", "))
	}

	if len(rep.EngineerHours) > 0 {
		fmt.Fprintln(out, "\nEngineers:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tNAME\tHOURS\tTASKS\tPROJECTS")
		for _, e := range rep.EngineerHours {
			fmt.Fprintf(w, "  %s\t%s\t%.2f\t%d\t%d\n", e.EngineerID, e.EngineerName, e.TotalHours, e.TaskCount, e.ProjectCount)
		}
		w.Flush()
	}

	if len(rep.RelatedTasks) > 0 {
		fmt.Fprintln(out, "\nTasks:")
		printTaskSummaries(out, rep.RelatedTasks)
	}
}

func printTaskSummaries(out io.Writer, tasks []report.TaskSummary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tTITLE\tSTATUS\tPROJECT\tHOURS")
	for _, t := range tasks {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%.2f\n", t.ID, truncate(t.Title, 40), t.Status, orDash(t.ProjectID), t.Hours)
	}
	w.Flush()
}

func newReportEngineerCmd() *cobra.Command {
	var (
		configPath string
		start, end string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "engineer <engineer-id>",
		Short: "Report one engineer's tasks, projects, hours and assets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := dates.ParseRange(start, end)
			if err != nil {
				return err
			}
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			rep, err := report.NewBuilder(store.New(gormDB)).Engineer(cmd.Context(), args[0], r)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, rep)
			}
			printEngineerReport(out, rep)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&start, "start", "", "range start date")
	cmd.Flags().StringVar(&end, "end", "", "range end date")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printEngineerReport(out io.Writer, rep *report.EngineerReport) {
	fmt.Fprintf(out, "Engineer:     %s (%s)\n", rep.EngineerName, rep.EngineerID)
	if rep.StartDate != "" || rep.EndDate != "" {
		fmt.Fprintf(out, "Range:        %s .. %s\n", orDash(rep.StartDate), orDash(rep.EndDate))
	}
	fmt.Fprintf(out, "Tasks:        %d (%d completed)\n", rep.Totals.TotalTasks, rep.Totals.CompletedTasks)
	fmt.Fprintf(out, "Projects:     %d\n", rep.Totals.TotalProjects)
	fmt.Fprintf(out, "Hours:        %.2f\n", rep.Totals.TotalHours)
	fmt.Fprintf(out, "Assets:       %d\n", rep.Totals.TotalAssets)

	if len(rep.Projects) > 0 {
		fmt.Fprintln(out, "\nProjects:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tNAME\tTASKS\tDONE\tHOURS")
		for _, p := range rep.Projects {
			fmt.Fprintf(w, "  %s\t%s\t%d\t%d\t%.2f\n", p.ID, truncate(p.Name, 30), p.TaskCount, p.CompletedTaskCount, p.TotalHours)
		}
		w.Flush()
	}

	if len(rep.Tasks) > 0 {
		fmt.Fprintln(out, "\nTasks:")
		printTaskSummaries(out, rep.Tasks)
	}

	if len(rep.Assets) > 0 {
		fmt.Fprintln(out, "\nAssets:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tNAME\tTYPE\tMATURITY\tREUSE")
		for _, a := range rep.Assets {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%d\n", a.ID, truncate(a.Name, 30), a.Type, a.Maturity, a.ReuseCount)
		}
		w.Flush()
	}
}
