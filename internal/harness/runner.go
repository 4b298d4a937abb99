package harness

import (
	"context"
	"fmt"

	"github.com/wbthomason/egglog-go/internal/egraph"
	"github.com/wbthomason/egglog-go/internal/program"
	"github.com/wbthomason/egglog-go/internal/testutil"
)

// Result captures what a scenario produced: every serialized batch sent to
// the engine and every report parsed back.
type Result struct {
	Batches    []string
	RunReports []egraph.RunReport
	Extracts   []egraph.ExtractReport
}

// Run loads the scenario's programs, opens a session over a scripted
// engine, executes the steps, and applies the assertions.
func Run(scenario *Scenario) (*Result, error) {
	mods := make([]*egraph.Module, len(scenario.Programs))
	for i, p := range scenario.Programs {
		m, err := program.LoadFile(p)
		if err != nil {
			return nil, fmt.Errorf("loading program %s: %w", p, err)
		}
		mods[i] = m
	}

	ctx := context.Background()
	eng := testutil.Script(scenario.Replies...)
	sess, err := egraph.NewSession(ctx, eng, mods)
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}
	defer sess.Close()

	result := &Result{}
	for i, step := range scenario.Steps {
		if err := runStep(ctx, sess, step, result); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	result.Batches = eng.Batches

	for i, a := range scenario.Assertions {
		if err := assertOutcome(sess, a, result); err != nil {
			return nil, fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return result, nil
}

func runStep(ctx context.Context, sess *egraph.Session, step Step, result *Result) error {
	switch {
	case step.Run != nil:
		until, err := parseFacts(sess, step.Run.Until)
		if err != nil {
			return err
		}
		report, err := sess.Run(ctx, step.Run.Ruleset, step.Run.Limit, until...)
		if err != nil {
			return err
		}
		result.RunReports = append(result.RunReports, report)
		return nil

	case len(step.Check) > 0:
		facts, err := parseFacts(sess, step.Check)
		if err != nil {
			return err
		}
		return sess.Check(ctx, facts...)

	case len(step.CheckFail) > 0:
		facts, err := parseFacts(sess, step.CheckFail)
		if err != nil {
			return err
		}
		return sess.CheckFail(ctx, facts...)

	case step.Extract != nil:
		term, err := program.ParseTerm(sess.Decls(), step.Extract.Term, nil)
		if err != nil {
			return err
		}
		report, err := sess.ExtractMultiple(ctx, term, step.Extract.Variants)
		if err != nil {
			return err
		}
		result.Extracts = append(result.Extracts, report)
		return nil

	case step.Let != nil:
		term, err := program.ParseTerm(sess.Decls(), step.Let.Term, nil)
		if err != nil {
			return err
		}
		_, err = sess.Let(ctx, step.Let.Name, term)
		return err

	case step.Set != nil:
		call, err := program.ParseTerm(sess.Decls(), step.Set.Call, nil)
		if err != nil {
			return err
		}
		to, err := program.ParseTerm(sess.Decls(), step.Set.To, nil)
		if err != nil {
			return err
		}
		return sess.Set(ctx, call, to)

	case step.Push:
		return sess.Push(ctx)

	case step.Pop:
		return sess.Pop(ctx)

	default:
		return fmt.Errorf("empty step")
	}
}

func parseFacts(sess *egraph.Session, specs []string) ([]any, error) {
	out := make([]any, len(specs))
	for i, s := range specs {
		f, err := program.ParseFact(sess.Decls(), s, nil)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func assertOutcome(sess *egraph.Session, a Assertion, result *Result) error {
	switch a.Type {
	case AssertBatchCount:
		if len(result.Batches) != a.Count {
			return fmt.Errorf("expected %d round-trips, got %d", a.Count, len(result.Batches))
		}
	case AssertRunReport:
		if len(result.RunReports) == 0 {
			return fmt.Errorf("no run reports recorded")
		}
		report := result.RunReports[len(result.RunReports)-1]
		if a.Rounds != 0 && report.Rounds != a.Rounds {
			return fmt.Errorf("expected %d rounds, got %d", a.Rounds, report.Rounds)
		}
		if a.Stop != "" && report.Stop != a.Stop {
			return fmt.Errorf("expected stop reason %q, got %q", a.Stop, report.Stop)
		}
	case AssertExtracted:
		if len(result.Extracts) == 0 {
			return fmt.Errorf("no extractions recorded")
		}
		report := result.Extracts[len(result.Extracts)-1]
		want, err := program.ParseTerm(sess.Decls(), a.Term, nil)
		if err != nil {
			return err
		}
		if !report.Term.Equal(want.Typed()) {
			return fmt.Errorf("extracted %s, want %s", report.Term, want)
		}
		if a.Cost != 0 && report.Cost != a.Cost {
			return fmt.Errorf("extraction cost %d, want %d", report.Cost, a.Cost)
		}
	}
	return nil
}
