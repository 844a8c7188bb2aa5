package output

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtraglia/ethspecify/internal/check"
)

func sampleReport() *check.Report {
	return &check.Report{
		Files: []check.FileReport{
			{
				File:   "specrefs.yml",
				Preset: "mainnet",
				Sources: check.SourceStats{
					Valid: 1,
					Total: 2,
					Errors: []string{
						"MISSING FILE: functions.foo#phase0 | gone.go",
					},
				},
				Coverage: check.CoverageStats{
					Found:    1,
					Expected: 2,
					Missing:  []string{"functions.process_block#bellatrix"},
				},
			},
		},
	}
}

func cleanReport() *check.Report {
	return &check.Report{
		Files: []check.FileReport{
			{
				File:     "specrefs.yml",
				Preset:   "mainnet",
				Sources:  check.SourceStats{Valid: 2, Total: 2},
				Coverage: check.CoverageStats{Found: 3, Expected: 3},
			},
		},
	}
}

func TestTextFormatterFailures(t *testing.T) {
	out, err := NewTextFormatter().Format(sampleReport())
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "MISSING FILE: functions.foo#phase0 | gone.go")
	assert.Contains(t, text, "MISSING: functions.process_block#bellatrix")
	assert.NotContains(t, text, "are valid")
}

func TestTextFormatterSuccess(t *testing.T) {
	out, err := NewTextFormatter().Format(cleanReport())
	require.NoError(t, err)
	assert.Contains(t, string(out), "All specification references (3) are valid.")
}

func TestJSONFormatter(t *testing.T) {
	out, err := NewJSONFormatter().Format(sampleReport())
	require.NoError(t, err)

	var decoded check.Report
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Len(t, decoded.Files, 1)
	assert.Equal(t, "specrefs.yml", decoded.Files[0].File)
	assert.Equal(t, 2, decoded.Files[0].Coverage.Expected)
	assert.Equal(t, []string{"functions.process_block#bellatrix"}, decoded.Files[0].Coverage.Missing)
}
