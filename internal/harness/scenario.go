// Package harness runs declarative session scenarios against a scripted
// engine and pins the serialized command streams with golden files.
package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a session test: programs to load, scripted engine
// replies, session steps to execute, and assertions over the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Programs lists CUE program files to load as modules, relative to
	// the scenario file.
	Programs []string `yaml:"programs"`

	// Replies are the scripted engine replies, consumed one per
	// round-trip. The module replay batch consumes the first entry.
	Replies []string `yaml:"replies,omitempty"`

	// Steps are session operations executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate reports and extracted terms.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one session operation. Exactly one field is set.
type Step struct {
	Run       *RunStep     `yaml:"run,omitempty"`
	Check     []string     `yaml:"check,omitempty"`
	CheckFail []string     `yaml:"check_fail,omitempty"`
	Extract   *ExtractStep `yaml:"extract,omitempty"`
	Let       *LetStep     `yaml:"let,omitempty"`
	Set       *SetStep     `yaml:"set,omitempty"`
	Push      bool         `yaml:"push,omitempty"`
	Pop       bool         `yaml:"pop,omitempty"`
}

// RunStep executes a run schedule.
type RunStep struct {
	Ruleset string   `yaml:"ruleset,omitempty"`
	Limit   int      `yaml:"limit"`
	Until   []string `yaml:"until,omitempty"`
}

// ExtractStep extracts a term's minimum-cost representative.
type ExtractStep struct {
	Term     string `yaml:"term"`
	Variants int    `yaml:"variants,omitempty"`
}

// LetStep binds a name to a term in the engine.
type LetStep struct {
	Name string `yaml:"name"`
	Term string `yaml:"term"`
}

// SetStep writes a call's stored output value. Conflicting values resolve
// through the callable's merge function.
type SetStep struct {
	Call string `yaml:"call"`
	To   string `yaml:"to"`
}

// Assertion validates the scenario outcome.
type Assertion struct {
	// Type is one of batch_count, run_report, extracted.
	Type string `yaml:"type"`

	// Count is the expected number of round-trips (batch_count).
	Count int `yaml:"count,omitempty"`

	// Rounds and Stop validate the last run report (run_report).
	Rounds int    `yaml:"rounds,omitempty"`
	Stop   string `yaml:"stop,omitempty"`

	// Term and Cost validate the last extraction (extracted). Term is
	// compared structurally after parsing, not textually.
	Term string `yaml:"term,omitempty"`
	Cost int64  `yaml:"cost,omitempty"`
}

// Assertion type constants.
const (
	AssertBatchCount = "batch_count"
	AssertRunReport  = "run_report"
	AssertExtracted  = "extracted"
)

// LoadScenario reads and parses a scenario YAML file. Program paths are
// resolved relative to the scenario file. Unknown fields are rejected to
// catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, p := range scenario.Programs {
		if !filepath.IsAbs(p) {
			scenario.Programs[i] = filepath.Join(base, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Programs) == 0 {
		return fmt.Errorf("programs list is required and must be non-empty")
	}
	for _, p := range s.Programs {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("program file not found: %s", p)
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	set := 0
	if s.Run != nil {
		set++
		if s.Run.Limit <= 0 {
			return fmt.Errorf("steps[%d].run: limit must be positive", index)
		}
	}
	if len(s.Check) > 0 {
		set++
	}
	if len(s.CheckFail) > 0 {
		set++
	}
	if s.Extract != nil {
		set++
		if s.Extract.Term == "" {
			return fmt.Errorf("steps[%d].extract: term is required", index)
		}
	}
	if s.Let != nil {
		set++
		if s.Let.Name == "" || s.Let.Term == "" {
			return fmt.Errorf("steps[%d].let: name and term are required", index)
		}
	}
	if s.Set != nil {
		set++
		if s.Set.Call == "" || s.Set.To == "" {
			return fmt.Errorf("steps[%d].set: call and to are required", index)
		}
	}
	if s.Push {
		set++
	}
	if s.Pop {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one operation per step, got %d", index, set)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertBatchCount:
		if a.Count <= 0 {
			return fmt.Errorf("assertions[%d]: count must be positive for batch_count", index)
		}
	case AssertRunReport:
	case AssertExtracted:
		if a.Term == "" {
			return fmt.Errorf("assertions[%d]: term is required for extracted", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
