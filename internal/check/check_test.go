package check

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtraglia/ethspecify/internal/config"
	"github.com/jtraglia/ethspecify/internal/spec"
)

const indexJSON = `{
  "mainnet": {
    "phase0": {
      "functions": {
        "foo": "def foo():\n    return 1",
        "process_block": "def process_block():\n    pass"
      }
    }
  }
}`

func newTestClient(t *testing.T) *spec.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/nightly/pyspec.json" {
			w.Write([]byte(indexJSON))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)
	return spec.NewClientWithBaseURL(server.URL)
}

// newProject lays out a repository root with a docs directory holding
// the specrefs file and a source file beside it.
func newProject(t *testing.T, specrefs string) string {
	t.Helper()
	root := t.TempDir()
	docs := filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src.go"),
		[]byte("func foo() {}\nfunc processBlock() {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "specrefs.yml"), []byte(specrefs), 0o644))
	return docs
}

func testConfig() *config.Config {
	return &config.Config{
		Version:  "nightly",
		Style:    "hash",
		Specrefs: config.Specrefs{Files: []string{"specrefs.yml"}},
	}
}

func TestRunSuccess(t *testing.T) {
	docs := newProject(t, `
- spec: '<spec fn="foo" fork="phase0" hash="12345678" />'
  sources:
    - file: src.go
      search: "func foo()"
- spec: '<spec fn="process_block" fork="phase0" hash="12345678" />'
  sources:
    - file: src.go
      search: "func processBlock()"
`)

	checker := New(newTestClient(t), docs, testConfig())
	report, err := checker.Run(t.Context())
	require.NoError(t, err)

	assert.True(t, report.Success())
	assert.Empty(t, report.Errors())
	assert.Empty(t, report.Missing())
	assert.Equal(t, 2, report.ExpectedRefs())
}

func TestRunRelativeCheckedPath(t *testing.T) {
	docs := newProject(t, `
- spec: '<spec fn="foo" fork="phase0" hash="12345678" />'
  sources:
    - file: src.go
      search: "func foo()"
- spec: '<spec fn="process_block" fork="phase0" hash="12345678" />'
  sources:
    - file: src.go
      search: "func processBlock()"
`)

	// Sources live one level above the checked directory, so checking
	// "." from inside it must still find them.
	t.Chdir(docs)
	checker := New(newTestClient(t), ".", testConfig())
	report, err := checker.Run(t.Context())
	require.NoError(t, err)

	assert.Empty(t, report.Errors())
	assert.True(t, report.Success())
}

func TestRunMissingCoverage(t *testing.T) {
	docs := newProject(t, `
- spec: '<spec fn="foo" fork="phase0" hash="12345678" />'
  sources:
    - file: src.go
      search: "func foo()"
`)

	checker := New(newTestClient(t), docs, testConfig())
	report, err := checker.Run(t.Context())
	require.NoError(t, err)

	assert.False(t, report.Success())
	assert.Equal(t, []string{"functions.process_block#phase0"}, report.Missing())
}

func TestRunCoverageException(t *testing.T) {
	docs := newProject(t, `
- spec: '<spec fn="foo" fork="phase0" hash="12345678" />'
  sources:
    - file: src.go
      search: "func foo()"
`)

	cfg := testConfig()
	cfg.Specrefs.Exceptions = map[string][]string{
		"functions": {"process_block#phase0"},
	}

	checker := New(newTestClient(t), docs, cfg)
	report, err := checker.Run(t.Context())
	require.NoError(t, err)
	assert.True(t, report.Success())
	assert.Equal(t, 2, report.ExpectedRefs())
}

func TestRunBadSourcePointer(t *testing.T) {
	docs := newProject(t, `
- spec: '<spec fn="foo" fork="phase0" hash="12345678" />'
  sources:
    - file: gone.go
- spec: '<spec fn="process_block" fork="phase0" hash="12345678" />'
  sources:
    - file: src.go
      search: "func processBlock()"
`)

	checker := New(newTestClient(t), docs, testConfig())
	report, err := checker.Run(t.Context())
	require.NoError(t, err)

	assert.False(t, report.Success())
	require.Len(t, report.Errors(), 1)
	assert.Equal(t, "MISSING FILE: functions.foo#phase0 | gone.go", report.Errors()[0])
}

func TestRunMissingSpecrefsFile(t *testing.T) {
	docs := filepath.Join(t.TempDir(), "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))

	checker := New(newTestClient(t), docs, testConfig())
	report, err := checker.Run(t.Context())
	require.NoError(t, err)

	require.Len(t, report.Errors(), 1)
	assert.Equal(t, "MISSING FILE: specrefs.yml defined in config but not found", report.Errors()[0])
}

func TestRunNoFilesConfigured(t *testing.T) {
	checker := New(newTestClient(t), t.TempDir(), config.Default())
	_, err := checker.Run(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no specrefs files")
}
