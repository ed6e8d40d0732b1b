package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/giving-cli/internal/config"
	"github.com/sells-group/giving-cli/internal/failure"
	"github.com/sells-group/giving-cli/internal/model"
)

func TestPromptYear(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	var out bytes.Buffer

	year, err := promptYear(strings.NewReader("abc\n2017\n2024\n 2021 \n"), &out, now)
	require.NoError(t, err)
	assert.Equal(t, 2021, year)
	assert.Equal(t, 3, strings.Count(out.String(), "Invalid year. Please enter a valid year."))
	assert.Equal(t, 4, strings.Count(out.String(), "Enter the year"))
}

func TestPromptYear_EOF(t *testing.T) {
	_, err := promptYear(strings.NewReader("1999\n"), &bytes.Buffer{}, time.Now())
	assert.Error(t, err)
}

func TestReportFailure_PrintsStepYearAndContact(t *testing.T) {
	cfg = &config.Config{Contact: config.DefaultContact}
	t.Cleanup(func() { cfg = nil })

	err := failure.WithStep(failure.Newf(failure.UnknownYear, "year 2031 is not published"), "extracts", 2031)
	var out bytes.Buffer
	reportFailure(&out, err, 2031)

	assert.Contains(t, out.String(), "step extracts, year 2031")
	assert.Contains(t, out.String(), config.DefaultContact)

	out.Reset()
	reportFailure(&out, eris.New("disk full"), 2020)
	assert.Contains(t, out.String(), "step unknown, year 2020")
}

func TestRunReport_InitFailureReportsStepAndContact(t *testing.T) {
	cfg = &config.Config{
		Store:   config.StoreConfig{Driver: "bogus"},
		Contact: config.DefaultContact,
	}
	t.Cleanup(func() { cfg = nil })

	var out, errOut bytes.Buffer
	err := runReport(context.Background(), &out, &errOut, 2021, generatorOptions{})
	require.Error(t, err)

	step, year := failure.StepOf(err)
	assert.Equal(t, stepInit, step)
	assert.Equal(t, 2021, year)
	assert.Contains(t, errOut.String(), "step init, year 2021")
	assert.Contains(t, errOut.String(), config.DefaultContact)
	assert.Empty(t, out.String())
}

func TestFormatSummary(t *testing.T) {
	var out bytes.Buffer
	formatSummary(&out, &model.Summary{
		Year:               2021,
		RegionalOrgs:       12,
		RegionalRevenue:    6000,
		TotalContributions: 10000,
		Percent:            60,
		DirectoryTruncated: true,
		Reports:            []string{"greater_boston_report2021.csv"},
	})

	s := out.String()
	assert.Contains(t, s, "Percent contribution")
	assert.Contains(t, s, "60.00 %")
	assert.Contains(t, s, "truncated")
	assert.Contains(t, s, "greater_boston_report2021.csv")
}
