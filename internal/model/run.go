package model

import (
	"math"
	"time"
)

// RunStatus represents the current state of a report run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one execution of the report pipeline for a year.
type Run struct {
	ID        string    `json:"id"`
	Year      int       `json:"year"`
	Status    RunStatus `json:"status"`
	Summary   *Summary  `json:"summary,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunStep records one pipeline step inside a run.
type RunStep struct {
	ID         string     `json:"id"`
	RunID      string     `json:"run_id"`
	Name       string     `json:"name"`
	Status     RunStatus  `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Summary holds the headline figures of a completed run.
type Summary struct {
	Year               int      `json:"year" yaml:"year"`
	RegionalOrgs       int      `json:"regional_orgs" yaml:"regional_orgs"`
	WithTaxID          int      `json:"with_tax_id" yaml:"with_tax_id"`
	EnrichmentFailures int      `json:"enrichment_failures" yaml:"enrichment_failures"`
	ExcludedRevenue    int      `json:"excluded_unparseable_revenue" yaml:"excluded_unparseable_revenue"`
	DirectoryTruncated bool     `json:"directory_truncated" yaml:"directory_truncated"`
	RegionalRevenue    int64    `json:"regional_revenue" yaml:"regional_revenue"`
	TotalContributions int64    `json:"total_contributions" yaml:"total_contributions"`
	Percent            float64  `json:"percent_contribution" yaml:"percent_contribution"`
	CuratedMatches     int      `json:"curated_matches" yaml:"curated_matches"`
	Reports            []string `json:"reports" yaml:"reports"`
}

// PercentOf returns part as a percentage of total rounded to two decimals.
// A zero total yields 0.
func PercentOf(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}
