package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/giving-cli/internal/config"
	"github.com/sells-group/giving-cli/internal/failure"
	"github.com/sells-group/giving-cli/internal/report"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download and convert the IRS extracts for a year",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("download"); err != nil {
			return err
		}
		year, _ := cmd.Flags().GetInt("year")
		force, _ := cmd.Flags().GetBool("force")

		now := time.Now()
		if !config.ValidYear(year, now) {
			return eris.Errorf("invalid year %d: must be between %d and %d", year, config.MinYear, now.Year()-1)
		}

		env, err := initGenerator(ctx, generatorOptions{Force: force})
		if err != nil {
			err = failure.WithStep(err, stepInit, year)
			reportFailure(cmd.ErrOrStderr(), err, year)
			return err
		}
		defer env.Close()

		ex, err := env.Generator.DownloadExtracts(ctx, year)
		if err != nil {
			err = failure.WithStep(err, report.StepExtracts, year)
			reportFailure(cmd.ErrOrStderr(), err, year)
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, "Completed required download and CSV conversions")
		_, _ = fmt.Fprintf(out, "Form 990 rows: %d, Form 990-EZ rows: %d\n", ex.Form990.Len(), ex.Form990EZ.Len())
		_, _ = fmt.Fprintln(out, "Total Contribution:", ex.Total)
		return nil
	},
}

func init() {
	downloadCmd.Flags().Int("year", 0, "extract year to download")
	downloadCmd.Flags().Bool("force", false, "re-download files that already exist")
	_ = downloadCmd.MarkFlagRequired("year")
	rootCmd.AddCommand(downloadCmd)
}
