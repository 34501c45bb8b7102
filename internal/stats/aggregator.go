// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Cross-repository statistics accumulation

package stats

import (
	"github.com/sony-level/batchgitops/internal/command"
	"github.com/sony-level/batchgitops/internal/config"
	"github.com/sony-level/batchgitops/internal/pipeline"
	"github.com/sony-level/batchgitops/internal/replace"
)

// Aggregator accumulates step outcomes and replacement tallies across all
// repositories and produces the final run report.
type Aggregator struct {
	repos    []string
	rules    []config.ReplacementRule
	outcomes map[string]map[pipeline.Step]StepOutcome
	perRule  []RuleSummary
	repoCmds map[string][]command.Outcome
	shared   []command.Outcome
	failures []*pipeline.Error
	aborted  bool
}

// NewAggregator prepares accumulation for the declared repositories and
// rules. Every step starts as not-run until a record arrives.
func NewAggregator(repos []config.RepoSpec, rules []config.ReplacementRule) *Aggregator {
	a := &Aggregator{
		rules:    rules,
		outcomes: make(map[string]map[pipeline.Step]StepOutcome, len(repos)),
		perRule:  make([]RuleSummary, len(rules)),
		repoCmds: make(map[string][]command.Outcome, len(repos)),
	}
	for _, repo := range repos {
		a.repos = append(a.repos, repo.Name)
		steps := make(map[pipeline.Step]StepOutcome, len(pipeline.Steps))
		for _, step := range pipeline.Steps {
			steps[step] = StepOutcome{Status: pipeline.StatusNotRun}
		}
		a.outcomes[repo.Name] = steps
	}
	for i, rule := range rules {
		a.perRule[i] = RuleSummary{RuleIndex: i, Search: rule.Search}
	}
	return a
}

// RecordStep records one step outcome for one repository
func (a *Aggregator) RecordStep(repo string, step pipeline.Step, status pipeline.Status, err *pipeline.Error) {
	steps, ok := a.outcomes[repo]
	if !ok {
		return
	}
	steps[step] = StepOutcome{Status: status, Err: err}
	if err != nil {
		a.failures = append(a.failures, err)
	}
}

// RecordReplacements folds one repository's per-rule outcomes into the totals
func (a *Aggregator) RecordReplacements(repo string, outcomes []replace.RuleOutcome) {
	for _, outcome := range outcomes {
		if outcome.RuleIndex >= len(a.perRule) {
			continue
		}
		summary := &a.perRule[outcome.RuleIndex]
		if outcome.Matched() {
			summary.ReposMatched++
			summary.FilesModified += outcome.FilesModified
			summary.Occurrences += outcome.OccurrencesReplaced
		} else {
			summary.ReposZero++
		}
	}
}

// RecordRepoCommands records one repository's repo-scope command outcomes.
// A failed command already reaches the failure list through its step error,
// so only the outcomes themselves are kept here.
func (a *Aggregator) RecordRepoCommands(repo string, outcomes []command.Outcome) {
	if _, ok := a.outcomes[repo]; !ok {
		return
	}
	a.repoCmds[repo] = append(a.repoCmds[repo], outcomes...)
}

// RecordSharedCommands records the shared-scope command outcomes run once
// after every repository finished
func (a *Aggregator) RecordSharedCommands(outcomes []command.Outcome) {
	a.shared = append(a.shared, outcomes...)
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			a.failures = append(a.failures, outcome.Err)
		}
	}
}

// MarkAborted records that the run was cut short by the stop strategy
func (a *Aggregator) MarkAborted() {
	a.aborted = true
}

// Summarize finalizes the report: per-step classification across all
// repositories and the zero-match anomaly flags
func (a *Aggregator) Summarize() *RunReport {
	report := &RunReport{
		Repos:        a.repos,
		Aborted:      a.aborted,
		RepoOutcomes: a.outcomes,
		RepoCommands: a.repoCmds,
		Shared:       a.shared,
		Failures:     a.failures,
	}

	for _, step := range pipeline.Steps {
		summary := StepSummary{Step: step}
		for _, repo := range a.repos {
			switch a.outcomes[repo][step].Status {
			case pipeline.StatusSuccess:
				summary.Succeeded++
			case pipeline.StatusFailed:
				summary.Failed++
			case pipeline.StatusSkipped:
				summary.Skipped++
			default:
				summary.NotRun++
			}
		}
		summary.Class = classify(summary, len(a.repos))
		report.StepSummary = append(report.StepSummary, summary)
	}

	for i := range a.perRule {
		rule := a.perRule[i]
		// A rule that matched nothing in any repository is an anomaly;
		// zero matches in some repositories while matching others is not
		rule.Anomalous = rule.Occurrences == 0 && rule.ReposMatched == 0
		report.Rules = append(report.Rules, rule)
	}

	return report
}

func classify(s StepSummary, total int) Classification {
	switch {
	case total == 0:
		return ClassNotRun
	case s.Skipped == total:
		return ClassDisabled
	case s.NotRun == total:
		return ClassNotRun
	case s.Succeeded+s.Skipped == total:
		return ClassSuccess
	default:
		return ClassPartialFailure
	}
}
