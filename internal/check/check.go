package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jtraglia/ethspecify/internal/config"
	"github.com/jtraglia/ethspecify/internal/spec"
)

// Checker runs coverage and source-pointer validation for one project
// directory.
type Checker struct {
	client *spec.Client
	dir    string
	cfg    *config.Config
}

// New creates a Checker for the project directory described by cfg.
func New(client *spec.Client, dir string, cfg *config.Config) *Checker {
	return &Checker{client: client, dir: dir, cfg: cfg}
}

// SourceStats counts validated source pointers for one file.
type SourceStats struct {
	Valid  int      `json:"valid"`
	Total  int      `json:"total"`
	Errors []string `json:"errors,omitempty"`
}

// CoverageStats counts covered item#fork pairs for one file.
type CoverageStats struct {
	Found    int      `json:"found"`
	Expected int      `json:"expected"`
	Missing  []string `json:"missing,omitempty"`
}

// FileReport is the outcome for one checked YAML file.
type FileReport struct {
	File     string        `json:"file"`
	Preset   string        `json:"preset"`
	Sources  SourceStats   `json:"sources"`
	Coverage CoverageStats `json:"coverage"`
}

// Report aggregates the outcomes of one check run.
type Report struct {
	Files []FileReport `json:"files"`
}

// Errors returns every accumulated source error line, in file order.
func (r *Report) Errors() []string {
	var all []string
	for _, f := range r.Files {
		all = append(all, f.Sources.Errors...)
	}
	return all
}

// Missing returns every missing-coverage reference, sorted.
func (r *Report) Missing() []string {
	var all []string
	for _, f := range r.Files {
		all = append(all, f.Coverage.Missing...)
	}
	sort.Strings(all)
	return all
}

// ExpectedRefs is the total number of expected coverage pairs.
func (r *Report) ExpectedRefs() int {
	n := 0
	for _, f := range r.Files {
		n += f.Coverage.Expected
	}
	return n
}

// Success reports whether the run accumulated no errors and no missing
// items.
func (r *Report) Success() bool {
	return len(r.Errors()) == 0 && len(r.Missing()) == 0
}

// Run checks every configured specrefs file. Validation problems
// accumulate into the report; only configuration and index-fetch
// failures abort the run.
func (c *Checker) Run(ctx context.Context) (*Report, error) {
	files := c.cfg.Specrefs.Files
	if len(files) == 0 {
		return nil, errors.New("no specrefs files specified in " + config.FileName)
	}
	exceptions := c.cfg.EffectiveExceptions()

	// Source pointers are declared relative to the parent of the
	// checked directory: specref trees conventionally live one level
	// below the repository root. The checked path must be absolutized
	// first or relative paths like "." would resolve to themselves.
	absDir, err := filepath.Abs(c.dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", c.dir, err)
	}
	sourceRoot := filepath.Dir(absDir)

	histories := make(map[string]spec.History)
	report := &Report{}
	for _, filename := range files {
		fileReport := FileReport{File: filename, Preset: presetFor(filename)}

		path := filepath.Join(c.dir, filename)
		if _, err := os.Stat(path); err != nil {
			fileReport.Sources.Errors = []string{
				fmt.Sprintf("MISSING FILE: %s defined in config but not found", filename),
			}
			report.Files = append(report.Files, fileReport)
			continue
		}

		refs, err := loadSpecRefs(path)
		if err != nil {
			fileReport.Sources.Errors = []string{err.Error()}
			report.Files = append(report.Files, fileReport)
			continue
		}

		byType := extractTagRefs(refs)
		if len(byType) == 0 {
			valid, total, errs := checkSources(refs, sourceRoot, nil)
			fileReport.Sources = SourceStats{Valid: valid, Total: total, Errors: errs}
			report.Files = append(report.Files, fileReport)
			continue
		}

		history, ok := histories[fileReport.Preset]
		if !ok {
			history, err = c.history(ctx, fileReport.Preset)
			if err != nil {
				return nil, err
			}
			histories[fileReport.Preset] = history
		}

		var sourceExceptions []string
		for _, selector := range sortedKeys(byType) {
			selectorExceptions := exceptionsFor(selector, exceptions)
			sourceExceptions = append(sourceExceptions, selectorExceptions...)

			found, expected, missing := checkCoverage(history, selector, byType[selector], selectorExceptions)
			fileReport.Coverage.Found += found
			fileReport.Coverage.Expected += expected
			fileReport.Coverage.Missing = append(fileReport.Coverage.Missing, missing...)
		}

		valid, total, errs := checkSources(refs, sourceRoot, sourceExceptions)
		fileReport.Sources = SourceStats{Valid: valid, Total: total, Errors: errs}
		report.Files = append(report.Files, fileReport)
	}
	return report, nil
}

func (c *Checker) history(ctx context.Context, preset string) (spec.History, error) {
	idx, err := c.client.Index(ctx, c.cfg.Version)
	if err != nil {
		return nil, err
	}
	history, err := idx.ItemHistory(preset)
	if err != nil {
		return nil, err
	}
	return history, nil
}

func sortedKeys(m map[string][]tagRef) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
