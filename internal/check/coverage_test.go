package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtraglia/ethspecify/internal/spec"
)

func testHistory() spec.History {
	return spec.History{
		spec.CategoryFunctions: {
			"process_block": {"phase0", "bellatrix"},
			"get_sync":      {"altair"},
		},
		spec.CategorySSZObjects: {
			"BeaconState": {"phase0"},
		},
	}
}

func TestCheckCoverageComplete(t *testing.T) {
	declared := []tagRef{
		{Selector: "fn", Name: "process_block", Fork: "phase0"},
		{Selector: "fn", Name: "process_block", Fork: "bellatrix"},
		{Selector: "fn", Name: "get_sync", Fork: "altair"},
	}
	found, expected, missing := checkCoverage(testHistory(), "fn", declared, nil)
	assert.Equal(t, 3, found)
	assert.Equal(t, 3, expected)
	assert.Empty(t, missing)
}

func TestCheckCoverageMissing(t *testing.T) {
	declared := []tagRef{
		{Selector: "fn", Name: "process_block", Fork: "phase0"},
	}
	found, expected, missing := checkCoverage(testHistory(), "fn", declared, nil)
	assert.Equal(t, 1, found)
	assert.Equal(t, 3, expected)
	assert.ElementsMatch(t, []string{
		"functions.process_block#bellatrix",
		"functions.get_sync#altair",
	}, missing)
}

func TestCheckCoverageExceptions(t *testing.T) {
	t.Run("fork-scoped", func(t *testing.T) {
		declared := []tagRef{
			{Selector: "fn", Name: "process_block", Fork: "phase0"},
			{Selector: "fn", Name: "get_sync", Fork: "altair"},
		}
		found, expected, missing := checkCoverage(testHistory(), "fn", declared,
			[]string{"process_block#bellatrix"})
		assert.Equal(t, 3, found)
		assert.Equal(t, 3, expected)
		assert.Empty(t, missing)
	})

	t.Run("all forks", func(t *testing.T) {
		declared := []tagRef{
			{Selector: "fn", Name: "get_sync", Fork: "altair"},
		}
		_, _, missing := checkCoverage(testHistory(), "fn", declared, []string{"process_block"})
		assert.Empty(t, missing)
	})
}

func TestCheckCoverageExtraDeclarationsAllowed(t *testing.T) {
	declared := []tagRef{
		{Selector: "ssz_object", Name: "BeaconState", Fork: "phase0"},
		{Selector: "ssz_object", Name: "BeaconState", Fork: "electra"},
	}
	found, expected, missing := checkCoverage(testHistory(), "ssz_object", declared, nil)
	assert.Equal(t, 1, found)
	assert.Equal(t, 1, expected)
	assert.Empty(t, missing)
}

func TestCheckCoverageUnknownSelector(t *testing.T) {
	found, expected, missing := checkCoverage(testHistory(), "bogus", nil, nil)
	assert.Zero(t, found)
	assert.Zero(t, expected)
	assert.Empty(t, missing)
}

func TestExtractTagRef(t *testing.T) {
	t.Run("normalizes function selector", func(t *testing.T) {
		ref, ok := extractTagRef(`leading text <spec function="foo" fork="deneb" hash="12345678" />`)
		require.True(t, ok)
		assert.Equal(t, tagRef{Selector: "fn", Name: "foo", Fork: "deneb"}, ref)
		assert.Equal(t, "functions.foo#deneb", ref.Ref())
	})

	t.Run("fork required", func(t *testing.T) {
		_, ok := extractTagRef(`<spec fn="foo" />`)
		assert.False(t, ok)
	})

	t.Run("no tag", func(t *testing.T) {
		_, ok := extractTagRef("plain text")
		assert.False(t, ok)
	})
}

func TestExceptionsFor(t *testing.T) {
	exceptions := map[string][]string{
		"functions":   {"foo"},
		"ssz_objects": {"BeaconState#phase0"},
	}
	assert.Equal(t, []string{"foo"}, exceptionsFor("fn", exceptions))
	assert.Equal(t, []string{"BeaconState#phase0"}, exceptionsFor("ssz_object", exceptions))
	assert.Nil(t, exceptionsFor("dataclass", exceptions))
}

func TestPresetFor(t *testing.T) {
	assert.Equal(t, "mainnet", presetFor("specrefs.yml"))
	assert.Equal(t, "minimal", presetFor("specrefs-minimal.yml"))
	assert.Equal(t, "minimal", presetFor("Minimal-refs.yml"))
}
