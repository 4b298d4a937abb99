package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// batchSeparator delimits round-trips inside a golden snapshot.
const batchSeparator = "\n;; ---\n"

// Snapshot serializes a result's batches for golden comparison. Batches
// appear in send order, separated by a comment line.
func Snapshot(result *Result) []byte {
	return []byte(strings.Join(result.Batches, batchSeparator) + "\n")
}

// RunWithGolden executes a scenario and compares every serialized command
// batch against a golden file under testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./... -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Snapshot(result))

	return result, nil
}
