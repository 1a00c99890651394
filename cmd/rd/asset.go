package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/rdtrack/internal/asset"
	"github.com/zulandar/rdtrack/internal/dates"
	"github.com/zulandar/rdtrack/internal/releases"
)

func newAssetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Asset management commands",
	}

	cmd.AddCommand(newAssetCreateCmd())
	cmd.AddCommand(newAssetListCmd())
	cmd.AddCommand(newAssetShowCmd())
	cmd.AddCommand(newAssetUpdateCmd())
	cmd.AddCommand(newAssetDeleteCmd())
	cmd.AddCommand(newAssetVersionCmd())
	cmd.AddCommand(newAssetRelateCmd())
	cmd.AddCommand(newAssetUnrelateCmd())
	cmd.AddCommand(newAssetSyncReleasesCmd())
	return cmd
}

func newAssetCreateCmd() *cobra.Command {
	var (
		configPath string
		opts       asset.CreateOpts
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			a, err := asset.Create(gormDB, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created asset %s (%s)\n", a.ID, a.Maturity)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&opts.Name, "name", "", "asset name (required)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	cmd.Flags().StringVar(&opts.Type, "type", "", "asset type (ip-core, firmware, tool, ...)")
	cmd.Flags().StringVar(&opts.Maturity, "maturity", "", "maturity (experimental, beta, stable, deprecated)")
	cmd.Flags().StringVar(&opts.OwnerID, "owner", "", "owning engineer ID")
	cmd.Flags().StringVar(&opts.OwnerName, "owner-name", "", "owning engineer name")
	cmd.Flags().StringVar(&opts.Repository, "repo", "", "GitHub repository as owner/name")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newAssetListCmd() *cobra.Command {
	var (
		configPath string
		filters    asset.ListFilters
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			assets, err := asset.List(gormDB, filters)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(assets) == 0 {
				fmt.Fprintln(out, "No assets found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tMATURITY\tREUSE\tOWNER")
			for _, a := range assets {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
					a.ID, truncate(a.Name, 40), orDash(a.Type), a.Maturity, a.ReuseCount, orDash(a.OwnerID))
			}
			return w.Flush()
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&filters.Type, "type", "", "filter by type")
	cmd.Flags().StringVar(&filters.Maturity, "maturity", "", "filter by maturity")
	cmd.Flags().StringVar(&filters.OwnerID, "owner", "", "filter by owner ID")
	return cmd
}

func newAssetShowCmd() *cobra.Command {
	var (
		configPath string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show asset details, versions and relations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			a, err := asset.Get(gormDB, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, a)
			}
			fmt.Fprintf(out, "ID:          %s\n", a.ID)
			fmt.Fprintf(out, "Name:        %s\n", a.Name)
			fmt.Fprintf(out, "Type:        %s\n", orDash(a.Type))
			fmt.Fprintf(out, "Maturity:    %s\n", a.Maturity)
			fmt.Fprintf(out, "Owner:       %s %s\n", orDash(a.OwnerID), a.OwnerName)
			fmt.Fprintf(out, "Reuse:       %d\n", a.ReuseCount)
			if a.Repository != "" {
				fmt.Fprintf(out, "Repository:  %s\n", a.Repository)
			}
			fmt.Fprintf(out, "Created:     %s\n", dates.Format(a.CreatedAt))
			if a.Description != "" {
				fmt.Fprintf(out, "\nDescription:\n%s\n", a.Description)
			}

			if len(a.Versions) > 0 {
				fmt.Fprintln(out, "\nVersions:")
				for _, v := range a.Versions {
					fmt.Fprintf(out, "  %-12s %s  defects=%s regression=%s maintenance=%s\n",
						v.Version, orDash(v.VersionDate),
						signal(v.DefectDensity), signal(v.RegressionCost), signal(v.MaintenanceBurden))
				}
			}
			if len(a.Relations) > 0 {
				fmt.Fprintln(out, "\nRelations:")
				for _, r := range a.Relations {
					fmt.Fprintf(out, "  [%d] %s %s\n", r.ID, r.RelationType, r.ProjectID)
				}
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func signal(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

func newAssetUpdateCmd() *cobra.Command {
	var (
		configPath                                    string
		name, description, typ, maturity, owner, repo string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update asset fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts asset.UpdateOpts
			set := func(flag string, dst **string, v *string) {
				if cmd.Flags().Changed(flag) {
					*dst = v
				}
			}
			set("name", &opts.Name, &name)
			set("description", &opts.Description, &description)
			set("type", &opts.Type, &typ)
			set("maturity", &opts.Maturity, &maturity)
			set("owner", &opts.OwnerID, &owner)
			set("repo", &opts.Repository, &repo)
			if opts == (asset.UpdateOpts{}) {
				return fmt.Errorf("no fields to update; use --name, --description, --type, --maturity, --owner or --repo")
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := asset.Update(gormDB, args[0], opts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated asset %s\n", args[0])
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&typ, "type", "", "new type")
	cmd.Flags().StringVar(&maturity, "maturity", "", "new maturity")
	cmd.Flags().StringVar(&owner, "owner", "", "new owner ID")
	cmd.Flags().StringVar(&repo, "repo", "", "new GitHub repository")
	return cmd
}

func newAssetDeleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an asset with its versions, relations and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := asset.Delete(gormDB, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted asset %s\n", args[0])
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newAssetVersionCmd() *cobra.Command {
	var (
		configPath                        string
		opts                              asset.VersionOpts
		defects, regression, maintenance float64
	)

	cmd := &cobra.Command{
		Use:   "version <asset-id>",
		Short: "Record a new asset version with quality signals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("defects") {
				opts.DefectDensity = &defects
			}
			if cmd.Flags().Changed("regression") {
				opts.RegressionCost = &regression
			}
			if cmd.Flags().Changed("maintenance") {
				opts.MaintenanceBurden = &maintenance
			}

			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			v, err := asset.AddVersion(gormDB, args[0], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded version %s of %s (%s)\n", v.Version, v.AssetID, v.VersionDate)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&opts.Version, "version", "", "version label (required)")
	cmd.Flags().StringVar(&opts.VersionDate, "date", "", "release date YYYY-MM-DD (default today)")
	cmd.Flags().Float64Var(&defects, "defects", 0, "defect density")
	cmd.Flags().Float64Var(&regression, "regression", 0, "regression cost")
	cmd.Flags().Float64Var(&maintenance, "maintenance", 0, "maintenance burden")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "release notes")
	cmd.MarkFlagRequired("version")
	return cmd
}

func newAssetRelateCmd() *cobra.Command {
	var (
		configPath string
		relType    string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   "relate <asset-id> <project-id>",
		Short: "Link an asset to a project",
		Long:  "Links an asset to a project. Only \"used\" relations count toward the asset's reuse.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			rel, err := asset.Relate(gormDB, args[0], args[1], relType, notes)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Related %s %s %s (relation %d)\n", rel.AssetID, rel.RelationType, rel.ProjectID, rel.ID)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&relType, "type", "used", "relation type")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	return cmd
}

func newAssetUnrelateCmd() *cobra.Command {
	var (
		configPath string
		relType    string
	)

	cmd := &cobra.Command{
		Use:   "unrelate <asset-id> <project-id>",
		Short: "Remove links between an asset and a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if err := asset.Unrelate(gormDB, args[0], args[1], relType); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unrelated %s from %s\n", args[0], args[1])
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&relType, "type", "", "only remove this relation type (default all)")
	return cmd
}

func newAssetSyncReleasesCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "sync-releases <asset-id>",
		Short: "Import GitHub releases of the asset's repository as versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			client := releases.NewClient(ctx, cfg.GitHub.Token)
			res, err := releases.Sync(ctx, gormDB, client.Repositories, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d release(s), skipped %d\n", len(res.Added), res.Skipped)
			for _, tag := range res.Added {
				fmt.Fprintf(out, "  + %s\n", tag)
			}
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
