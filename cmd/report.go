package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/giving-cli/internal/config"
	"github.com/sells-group/giving-cli/internal/failure"
	"github.com/sells-group/giving-cli/internal/model"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the giving reports for a year",
	Long:  "Builds or reuses the Greater Boston organization table, downloads the IRS extracts for the year, and writes the statewide, Greater Boston and curated-membership reports.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("report"); err != nil {
			return err
		}

		year, _ := cmd.Flags().GetInt("year")
		force, _ := cmd.Flags().GetBool("force")
		refresh, _ := cmd.Flags().GetBool("refresh-curated")

		now := time.Now()
		if year == 0 {
			y, err := promptYear(cmd.InOrStdin(), cmd.OutOrStdout(), now)
			if err != nil {
				return err
			}
			year = y
		} else if !config.ValidYear(year, now) {
			return eris.Errorf("invalid year %d: must be between %d and %d", year, config.MinYear, now.Year()-1)
		}

		return runReport(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), year, generatorOptions{Force: force, RefreshCurated: refresh})
	},
}

// stepInit labels failures that happen before the generator starts.
const stepInit = "init"

// runReport wires the generator and runs it for year. Every failure is
// printed with its step, year and the maintainer contact.
func runReport(ctx context.Context, out, errOut io.Writer, year int, opts generatorOptions) error {
	env, err := initGenerator(ctx, opts)
	if err != nil {
		err = failure.WithStep(err, stepInit, year)
		reportFailure(errOut, err, year)
		return err
	}
	defer env.Close()

	summary, err := env.Generator.Run(ctx, year)
	if err != nil {
		reportFailure(errOut, err, year)
		return err
	}

	formatSummary(out, summary)
	return nil
}

func init() {
	reportCmd.Flags().Int("year", 0, "extract year to report on (prompted when omitted)")
	reportCmd.Flags().Bool("force", false, "re-download inputs and rebuild the organization table")
	reportCmd.Flags().Bool("refresh-curated", false, "download the latest curated list even when a local copy exists")
	rootCmd.AddCommand(reportCmd)
}

// promptYear asks for a year on in until a valid one is entered.
func promptYear(in io.Reader, out io.Writer, now time.Time) (int, error) {
	sc := bufio.NewScanner(in)
	for {
		_, _ = fmt.Fprint(out, "Enter the year you would like to download the file : ")
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, eris.Wrap(err, "read year")
			}
			return 0, eris.New("no year entered")
		}
		year, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
		if err == nil && config.ValidYear(year, now) {
			return year, nil
		}
		_, _ = fmt.Fprintln(out, "Invalid year. Please enter a valid year.")
	}
}

// reportFailure prints the failed step and year plus who to contact.
func reportFailure(w io.Writer, err error, year int) {
	step, stepYear := failure.StepOf(err)
	if stepYear != 0 {
		year = stepYear
	}
	zap.L().Error("report run failed",
		zap.String("step", step),
		zap.Int("year", year),
		zap.String("kind", string(failure.KindOf(err))),
		zap.Error(err),
	)

	_, _ = fmt.Fprintf(w, "Unable to generate report (step %s, year %d): %v\n", stepOrUnknown(step), year, err)
	_, _ = fmt.Fprintf(w, "Contact %s\n", cfg.Contact)
}

func stepOrUnknown(step string) string {
	if step == "" {
		return "unknown"
	}
	return step
}

// formatSummary renders the headline figures of a run.
func formatSummary(w io.Writer, s *model.Summary) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Year", s.Year},
		{"Greater Boston organizations", s.RegionalOrgs},
		{"With tax ID", s.WithTaxID},
		{"Enrichment failures", s.EnrichmentFailures},
		{"Excluded (unparseable revenue)", s.ExcludedRevenue},
		{"Greater Boston revenue", s.RegionalRevenue},
		{"Total contributions", s.TotalContributions},
		{"Percent contribution", fmt.Sprintf("%.2f %%", s.Percent)},
		{"Curated list matches", s.CuratedMatches},
	})
	if s.DirectoryTruncated {
		t.AppendFooter(table.Row{"Warning", "directory listing was truncated"})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	for _, name := range s.Reports {
		_, _ = fmt.Fprintln(w, name)
	}
}
