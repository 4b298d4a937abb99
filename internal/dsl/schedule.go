package dsl

import (
	"github.com/wbthomason/egglog-go/internal/decl"
)

// Run builds a schedule that fires the named ruleset up to limit rounds,
// stopping early once every until fact holds. An empty ruleset means the
// global bucket. Until clauses may be Facts or bare relation expressions.
func Run(ruleset string, limit int, until ...any) (decl.Schedule, error) {
	fs, err := factLikes(until)
	if err != nil {
		return nil, err
	}
	return decl.RunSchedule{Ruleset: ruleset, Limit: limit, Until: factDecls(fs)}, nil
}

// Seq composes schedules sequentially.
func Seq(schedules ...decl.Schedule) decl.Schedule {
	return decl.SequenceSchedule{Schedules: schedules}
}

// Saturate wraps a schedule in the engine-native saturation combinator.
// The combinator is serialized, never interpreted here.
func Saturate(s decl.Schedule) decl.Schedule {
	return decl.SaturateSchedule{Schedule: s}
}

// Repeat wraps a schedule in the engine-native repetition combinator.
func Repeat(times int, s decl.Schedule) decl.Schedule {
	return decl.RepeatSchedule{Times: times, Schedule: s}
}
