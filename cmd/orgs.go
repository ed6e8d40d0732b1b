package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var orgsCmd = &cobra.Command{
	Use:   "orgs",
	Short: "Build the Greater Boston organization table",
	Long:  "Lists directory organizations for the configured state, keeps those in the region, normalizes revenue, looks up tax IDs, and writes the canonical table.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("orgs"); err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		env, err := initGenerator(ctx, generatorOptions{Force: force})
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Layout.EnsureDirs(); err != nil {
			return err
		}
		path := env.Layout.RegionalOrgs()
		res, err := env.Builder.Ensure(ctx, path, cfg.Directory.State, force)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if res.Cached {
			_, _ = fmt.Fprintf(out, "Using existing organization table %s (%d organizations)\n", path, len(res.Organizations))
			return nil
		}
		_, _ = fmt.Fprintf(out, "Organization data for Greater Boston Area found in: %s\n", path)
		_, _ = fmt.Fprintf(out, "Organizations: %d (listed %d, out of region %d, tax ID lookups failed %d)\n",
			len(res.Organizations), res.Listed, res.OutOfRegion, len(res.Failures))
		return nil
	},
}

func init() {
	orgsCmd.Flags().Bool("force", false, "rebuild even when the table already exists")
	rootCmd.AddCommand(orgsCmd)
}
