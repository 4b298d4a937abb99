package egraph

import (
	"github.com/wbthomason/egglog-go/internal/decl"
	"github.com/wbthomason/egglog-go/internal/sexp"
)

// RunReport summarizes one schedule execution.
type RunReport struct {
	// Rounds is the number of match/apply rounds executed.
	Rounds int

	// Stop names why the schedule stopped, e.g. "saturated" or "limit".
	Stop string

	// Matches and Applies count rule matches found and applied.
	Matches int64
	Applies int64
}

// ExtractReport carries the minimum-cost representative of a term's
// equivalence class, plus any requested variants. Tie-breaks among
// equal-cost terms are engine-defined.
type ExtractReport struct {
	Cost     int64
	Term     decl.TypedExprDecl
	Variants []decl.TypedExprDecl
}

func protocolErr(format string, args ...any) error {
	return decl.Errorf(decl.ErrCodeEngineProtocol, format, args...)
}

// reportForm returns the first reply form with the given head, or nil.
func reportForm(nodes []sexp.Node, head string) sexp.List {
	for _, n := range nodes {
		list, ok := n.(sexp.List)
		if !ok || len(list) == 0 {
			continue
		}
		if sym, ok := list[0].(sexp.Symbol); ok && string(sym) == head {
			return list
		}
	}
	return nil
}

// plist reads the keyword arguments of a reply form, starting after the
// head symbol.
func plist(form sexp.List) (map[string]sexp.Node, error) {
	out := map[string]sexp.Node{}
	rest := form[1:]
	if len(rest)%2 != 0 {
		return nil, protocolErr("report %s has an odd keyword list", form[0])
	}
	for i := 0; i < len(rest); i += 2 {
		key, ok := rest[i].(sexp.Symbol)
		if !ok || len(key) < 2 || key[0] != ':' {
			return nil, protocolErr("report %s: expected a keyword, got %s", form[0], rest[i])
		}
		out[string(key[1:])] = rest[i+1]
	}
	return out, nil
}

func plistInt(kv map[string]sexp.Node, form, key string) (int64, error) {
	n, ok := kv[key]
	if !ok {
		return 0, protocolErr("report %s is missing :%s", form, key)
	}
	i, ok := n.(sexp.Int)
	if !ok {
		return 0, protocolErr("report %s: :%s must be an integer, got %s", form, key, n)
	}
	return int64(i), nil
}

func parseRunReport(nodes []sexp.Node) (RunReport, error) {
	form := reportForm(nodes, "run-report")
	if form == nil {
		return RunReport{}, protocolErr("engine reply carried no run-report")
	}
	kv, err := plist(form)
	if err != nil {
		return RunReport{}, err
	}
	rounds, err := plistInt(kv, "run-report", "rounds")
	if err != nil {
		return RunReport{}, err
	}
	matches, err := plistInt(kv, "run-report", "matches")
	if err != nil {
		return RunReport{}, err
	}
	applies, err := plistInt(kv, "run-report", "applies")
	if err != nil {
		return RunReport{}, err
	}
	stop, ok := kv["stop"].(sexp.Symbol)
	if !ok {
		return RunReport{}, protocolErr("report run-report: :stop must be a symbol")
	}
	return RunReport{
		Rounds:  int(rounds),
		Stop:    string(stop),
		Matches: matches,
		Applies: applies,
	}, nil
}

func parseExtractReport(decls *decl.Declarations, nodes []sexp.Node) (ExtractReport, error) {
	form := reportForm(nodes, "extract-report")
	if form == nil {
		return ExtractReport{}, protocolErr("engine reply carried no extract-report")
	}
	kv, err := plist(form)
	if err != nil {
		return ExtractReport{}, err
	}
	cost, err := plistInt(kv, "extract-report", "cost")
	if err != nil {
		return ExtractReport{}, err
	}
	termNode, ok := kv["term"]
	if !ok {
		return ExtractReport{}, protocolErr("report extract-report is missing :term")
	}
	term, err := sexp.DecodeTerm(decls, termNode, nil)
	if err != nil {
		return ExtractReport{}, err
	}
	report := ExtractReport{Cost: cost, Term: term}
	if variants, ok := kv["variants"]; ok {
		list, ok := variants.(sexp.List)
		if !ok {
			return ExtractReport{}, protocolErr("report extract-report: :variants must be a list")
		}
		// Engines are free to report the same variant under several
		// spellings; collapse structural duplicates by term hash so
		// callers see each candidate once.
		seen := map[string]bool{}
		for _, v := range list {
			t, err := sexp.DecodeTerm(decls, v, nil)
			if err != nil {
				return ExtractReport{}, err
			}
			key := decl.TypedExprHash(t)
			if seen[key] {
				continue
			}
			seen[key] = true
			report.Variants = append(report.Variants, t)
		}
	}
	return report, nil
}

// replyError maps an (error "message") reply form to an engine runtime
// error with the message carried verbatim.
func replyError(nodes []sexp.Node) error {
	form := reportForm(nodes, "error")
	if form == nil {
		return nil
	}
	if len(form) != 2 {
		return protocolErr("malformed error report %s", form)
	}
	msg, ok := form[1].(sexp.Str)
	if !ok {
		return protocolErr("error report message must be a string, got %s", form[1])
	}
	return &decl.Error{Code: decl.ErrCodeEngineRuntime, Message: string(msg)}
}
