package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/giving-cli/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "0123456789abcdef",
			Year:      2021,
			Status:    model.RunStatusComplete,
			Summary:   &model.Summary{Percent: 12.5},
			CreatedAt: created,
			UpdatedAt: created.Add(90 * time.Second),
		},
		{
			ID:        "fedcba98",
			Year:      2020,
			Status:    model.RunStatusFailed,
			Error:     "source_unavailable [step=extracts year=2020]: GET https://www.irs.gov returned 503",
			CreatedAt: created,
			UpdatedAt: created,
		},
	}

	var out bytes.Buffer
	formatRunsList(&out, runs)
	s := out.String()

	assert.Contains(t, s, "01234567")
	assert.NotContains(t, s, "0123456789abcdef")
	assert.Contains(t, s, "12.50")
	assert.Contains(t, s, "1m30s")
	assert.Contains(t, s, "...")
	assert.Contains(t, s, "failed")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abcdefgh", truncateID("abcdefghijkl"))
	assert.Equal(t, "abc", truncateID("abc"))
}
