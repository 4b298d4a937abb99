package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name))
	require.NoError(t, err)
	return s
}

func TestScenarioGoldenFiles(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.NotEmpty(t, result.Batches)
		})
	}
}

func TestRunCommuteSaturation(t *testing.T) {
	scenario := loadTestScenario(t, "commute_saturation.yaml")

	result, err := Run(scenario)
	require.NoError(t, err)

	require.Len(t, result.RunReports, 1)
	assert.Equal(t, 3, result.RunReports[0].Rounds)
	assert.Equal(t, "saturated", result.RunReports[0].Stop)

	require.Len(t, result.Extracts, 1)
	assert.Equal(t, int64(5), result.Extracts[0].Cost)
	assert.Len(t, result.Extracts[0].Variants, 2)
}

func TestRunScopedRollback(t *testing.T) {
	scenario := loadTestScenario(t, "scoped_rollback.yaml")

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Len(t, result.Batches, 6)
}

func TestRunMergeLowerBound(t *testing.T) {
	scenario := loadTestScenario(t, "merge_lower_bound.yaml")

	result, err := Run(scenario)
	require.NoError(t, err)

	// Two conflicting writes folded through (min old new) leave the
	// smaller value as the stored output.
	require.Len(t, result.Extracts, 1)
	assert.Equal(t, int64(1), result.Extracts[0].Cost)
	assert.Equal(t, "3", result.Extracts[0].Term.Expr.String())
}

func TestRunFailingAssertionSurfaces(t *testing.T) {
	scenario := loadTestScenario(t, "commute_saturation.yaml")
	scenario.Assertions = []Assertion{{Type: AssertBatchCount, Count: 99}}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 99 round-trips")
}

func TestRunMissingProgram(t *testing.T) {
	scenario := loadTestScenario(t, "commute_saturation.yaml")
	scenario.Programs = []string{filepath.Join(t.TempDir(), "absent.cue")}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading program")
}

func TestRunBadStepTerm(t *testing.T) {
	scenario := loadTestScenario(t, "commute_saturation.yaml")
	scenario.Steps = []Step{{Extract: &ExtractStep{Term: "(mystery 1)"}}}
	scenario.Assertions = nil

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0]")
}

func TestSnapshotJoinsBatches(t *testing.T) {
	result := &Result{Batches: []string{"(sort Num)", "(push 1)"}}
	assert.Equal(t, "(sort Num)\n;; ---\n(push 1)\n", string(Snapshot(result)))
}
