// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Run report types

package stats

import (
	"github.com/sony-level/batchgitops/internal/command"
	"github.com/sony-level/batchgitops/internal/pipeline"
)

// StepOutcome is one step's result for one repository.
type StepOutcome struct {
	Status pipeline.Status
	Err    *pipeline.Error
}

// Classification summarizes one step across every repository.
type Classification int

const (
	// ClassNotRun: the run never reached the step anywhere
	ClassNotRun Classification = iota
	// ClassSuccess: the step ran and succeeded in every repository
	ClassSuccess
	// ClassPartialFailure: mixed outcomes across repositories
	ClassPartialFailure
	// ClassDisabled: the step toggle is off
	ClassDisabled
)

// String returns a human-readable classification name
func (c Classification) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassPartialFailure:
		return "partial-failure"
	case ClassDisabled:
		return "disabled"
	default:
		return "not-run"
	}
}

// StepSummary is the cross-repository view of one pipeline step.
type StepSummary struct {
	Step      pipeline.Step
	Class     Classification
	Succeeded int
	Failed    int
	Skipped   int
	NotRun    int
}

// RuleSummary is the cross-repository view of one replacement rule.
type RuleSummary struct {
	RuleIndex     int
	Search        string
	ReposMatched  int // repositories where the rule replaced something
	ReposZero     int // repositories processed with zero matches
	FilesModified int
	Occurrences   int
	// Anomalous flags a rule that matched nothing in any repository,
	// usually a wrong search pattern or an over-broad exclusion
	Anomalous bool
}

// RunReport aggregates everything a single run produced. Nothing survives
// past the invocation; the report is built incrementally and finalized at
// the end.
type RunReport struct {
	Repos        []string
	Aborted      bool
	StepSummary  []StepSummary
	RepoOutcomes map[string]map[pipeline.Step]StepOutcome
	RepoCommands map[string][]command.Outcome
	Rules        []RuleSummary
	Shared       []command.Outcome
	Failures     []*pipeline.Error
}

// Anomalies returns the rules that matched nothing anywhere
func (r *RunReport) Anomalies() []RuleSummary {
	var out []RuleSummary
	for _, rule := range r.Rules {
		if rule.Anomalous {
			out = append(out, rule)
		}
	}
	return out
}
