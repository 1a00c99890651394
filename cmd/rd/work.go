package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/rdtrack/internal/dates"
	"github.com/zulandar/rdtrack/internal/work"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project management commands",
	}
	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectListCmd())
	return cmd
}

func newProjectCreateCmd() *cobra.Command {
	var (
		configPath string
		opts       work.ProjectOpts
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			p, err := work.CreateProject(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s\n", p.ID)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&opts.Name, "name", "", "project name (required)")
	cmd.Flags().StringVar(&opts.SalesName, "sales", "", "sales contact name")
	cmd.Flags().StringVar(&opts.Status, "status", "", "status (default active)")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newProjectListCmd() *cobra.Command {
	var configPath, sales string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			projects, err := work.ListProjects(gormDB, sales)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSALES\tSTATUS\tCREATED")
			for _, p := range projects {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					p.ID, truncate(p.Name, 40), orDash(p.SalesName), p.Status, dates.FormatDate(p.CreatedAt))
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&sales, "sales", "", "filter by sales contact")
	return cmd
}

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task management commands",
	}
	cmd.AddCommand(newTaskCreateCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskStatusCmd())
	return cmd
}

func newTaskCreateCmd() *cobra.Command {
	var (
		configPath string
		opts       work.TaskOpts
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			t, err := work.CreateTask(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", t.ID)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&opts.Title, "title", "", "task title (required)")
	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "project ID")
	cmd.Flags().StringSliceVar(&opts.AssignedTo, "assign", nil, "engineer IDs, comma separated")
	cmd.Flags().StringVar(&opts.StartDate, "start", "", "start date")
	cmd.Flags().StringVar(&opts.EndDate, "end", "", "end date")
	cmd.Flags().StringVar(&opts.Stakeholder, "stakeholder", "", "stakeholder name")
	cmd.Flags().StringVar(&opts.Status, "status", "", "status (default todo)")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var (
		configPath string
		filters    work.TaskFilters
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			tasks, err := work.ListTasks(gormDB, filters)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tPROJECT\tASSIGNED\tDATES")
			for _, t := range tasks {
				project := "-"
				if t.ProjectID != nil {
					project = *t.ProjectID
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s..%s\n",
					t.ID, truncate(t.Title, 40), t.Status, project,
					orDash(strings.Join(t.Assignees(), ",")), t.StartDate, t.EndDate)
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&filters.ProjectID, "project", "", "filter by project")
	cmd.Flags().StringVar(&filters.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&filters.Assignee, "assignee", "", "filter by engineer ID")
	return cmd
}

func newTaskStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status <task-id> <status>",
		Short: "Set a task's status",
		Long:  "Sets a task's status. Valid: " + strings.Join(work.TaskStatuses, ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := work.UpdateTaskStatus(gormDB, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now %s\n", args[0], args[1])
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newLaborCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labor",
		Short: "Labor logging commands",
	}
	cmd.AddCommand(newLaborLogCmd())
	cmd.AddCommand(newLaborListCmd())
	return cmd
}

func newLaborLogCmd() *cobra.Command {
	var (
		configPath string
		opts       work.LaborOpts
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log hours worked",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			row, err := work.LogLabor(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %gh for %s on %s (record %d)\n", row.Hours, row.EngineerID, row.WorkDate, row.ID)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&opts.EngineerID, "engineer", "", "engineer ID (required)")
	cmd.Flags().Float64Var(&opts.Hours, "hours", 0, "hours worked (required)")
	cmd.Flags().StringVar(&opts.WorkDate, "date", "", "work date (required)")
	cmd.Flags().StringVar(&opts.TaskID, "task", "", "task ID")
	cmd.Flags().StringVar(&opts.ProjectID, "project", "", "project ID (defaults to the task's)")
	cmd.Flags().StringVar(&opts.AssetID, "asset", "", "asset ID")
	cmd.Flags().StringVar(&opts.Description, "description", "", "what was done")
	cmd.MarkFlagRequired("engineer")
	cmd.MarkFlagRequired("hours")
	cmd.MarkFlagRequired("date")
	return cmd
}

func newLaborListCmd() *cobra.Command {
	var (
		configPath string
		filters    work.LaborFilters
		start, end string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List logged labor",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := dates.ParseRange(start, end)
			if err != nil {
				return err
			}
			filters.Range = r

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			rows, err := work.ListLabor(gormDB, filters)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No labor found.")
				return nil
			}
			var total float64
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tENGINEER\tDATE\tHOURS\tTASK\tPROJECT")
			for _, l := range rows {
				task, project := "-", "-"
				if l.TaskID != nil {
					task = *l.TaskID
				}
				if l.ProjectID != nil {
					project = *l.ProjectID
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%g\t%s\t%s\n", l.ID, l.EngineerID, l.WorkDate, l.Hours, task, project)
				total += l.Hours
			}
			w.Flush()
			fmt.Fprintf(out, "\nTotal: %.2fh\n", total)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&filters.EngineerID, "engineer", "", "filter by engineer")
	cmd.Flags().StringVar(&filters.TaskID, "task", "", "filter by task")
	cmd.Flags().StringVar(&filters.ProjectID, "project", "", "filter by project")
	cmd.Flags().StringVar(&start, "start", "", "first work date")
	cmd.Flags().StringVar(&end, "end", "", "last work date")
	return cmd
}

func newEngineerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engineer",
		Short: "Engineer management commands",
	}
	cmd.AddCommand(newEngineerCreateCmd())
	cmd.AddCommand(newEngineerListCmd())
	return cmd
}

func newEngineerCreateCmd() *cobra.Command {
	var configPath, name, email string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register an engineer",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			e, err := work.CreateEngineer(gormDB, name, email)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created engineer %s (%s)\n", e.ID, e.Name)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newEngineerListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List engineers",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			engineers, err := work.ListEngineers(gormDB)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(engineers) == 0 {
				fmt.Fprintln(out, "No engineers found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL")
			for _, e := range engineers {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Name, orDash(e.Email))
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
