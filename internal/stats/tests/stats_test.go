// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Tests for run statistics aggregation

package tests

import (
	"errors"
	"strings"
	"testing"

	"github.com/sony-level/batchgitops/internal/command"
	"github.com/sony-level/batchgitops/internal/config"
	"github.com/sony-level/batchgitops/internal/pipeline"
	"github.com/sony-level/batchgitops/internal/replace"
	"github.com/sony-level/batchgitops/internal/stats"
)

func twoRepos() []config.RepoSpec {
	return []config.RepoSpec{
		{Name: "repo-a", URL: "https://example.com/a.git"},
		{Name: "repo-b", URL: "https://example.com/b.git"},
	}
}

func TestAllStepsStartNotRun(t *testing.T) {
	agg := stats.NewAggregator(twoRepos(), nil)
	report := agg.Summarize()

	for _, summary := range report.StepSummary {
		if summary.Class != stats.ClassNotRun {
			t.Errorf("Step %s should be not-run, got %s", summary.Step, summary.Class)
		}
		if summary.NotRun != 2 {
			t.Errorf("Step %s: expected 2 not-run, got %d", summary.Step, summary.NotRun)
		}
	}
}

func TestSuccessClassification(t *testing.T) {
	agg := stats.NewAggregator(twoRepos(), nil)
	for _, repo := range []string{"repo-a", "repo-b"} {
		agg.RecordStep(repo, pipeline.StepFetch, pipeline.StatusSuccess, nil)
	}

	report := agg.Summarize()
	if report.StepSummary[0].Class != stats.ClassSuccess {
		t.Errorf("Expected success, got %s", report.StepSummary[0].Class)
	}
}

func TestPartialFailureClassification(t *testing.T) {
	agg := stats.NewAggregator(twoRepos(), nil)
	stepErr := pipeline.NewError(pipeline.ErrFetch, "repo-b", pipeline.StepFetch, errors.New("network down"))
	agg.RecordStep("repo-a", pipeline.StepFetch, pipeline.StatusSuccess, nil)
	agg.RecordStep("repo-b", pipeline.StepFetch, pipeline.StatusFailed, stepErr)

	report := agg.Summarize()
	if report.StepSummary[0].Class != stats.ClassPartialFailure {
		t.Errorf("Expected partial-failure, got %s", report.StepSummary[0].Class)
	}
	if len(report.Failures) != 1 {
		t.Errorf("Expected 1 recorded failure, got %d", len(report.Failures))
	}
}

func TestDisabledClassification(t *testing.T) {
	agg := stats.NewAggregator(twoRepos(), nil)
	for _, repo := range []string{"repo-a", "repo-b"} {
		agg.RecordStep(repo, pipeline.StepReplace, pipeline.StatusSkipped, nil)
	}

	report := agg.Summarize()
	for _, summary := range report.StepSummary {
		if summary.Step == pipeline.StepReplace && summary.Class != stats.ClassDisabled {
			t.Errorf("Expected disabled, got %s", summary.Class)
		}
	}
}

func TestSucceededPlusSkippedIsSuccess(t *testing.T) {
	agg := stats.NewAggregator(twoRepos(), nil)
	agg.RecordStep("repo-a", pipeline.StepPublish, pipeline.StatusSuccess, nil)
	agg.RecordStep("repo-b", pipeline.StepPublish, pipeline.StatusSkipped, nil)

	report := agg.Summarize()
	last := report.StepSummary[len(report.StepSummary)-1]
	if last.Class != stats.ClassSuccess {
		t.Errorf("Success plus skipped across repos should classify as success, got %s", last.Class)
	}
}

func TestAnomalyRequiresZeroMatchesEverywhere(t *testing.T) {
	rules := []config.ReplacementRule{
		{Search: "present-somewhere", Replace: "x"},
		{Search: "present-nowhere", Replace: "y"},
	}
	agg := stats.NewAggregator(twoRepos(), rules)

	agg.RecordReplacements("repo-a", []replace.RuleOutcome{
		{RuleIndex: 0, FilesModified: 2, OccurrencesReplaced: 5},
		{RuleIndex: 1},
	})
	agg.RecordReplacements("repo-b", []replace.RuleOutcome{
		{RuleIndex: 0},
		{RuleIndex: 1},
	})

	report := agg.Summarize()
	anomalies := report.Anomalies()
	if len(anomalies) != 1 {
		t.Fatalf("Expected exactly 1 anomaly, got %d", len(anomalies))
	}
	if anomalies[0].Search != "present-nowhere" {
		t.Errorf("Wrong rule flagged: %q", anomalies[0].Search)
	}

	// The partially matching rule still carries its totals
	matched := report.Rules[0]
	if matched.ReposMatched != 1 || matched.ReposZero != 1 {
		t.Errorf("Expected 1 matched / 1 zero, got %d / %d", matched.ReposMatched, matched.ReposZero)
	}
	if matched.FilesModified != 2 || matched.Occurrences != 5 {
		t.Errorf("Unexpected totals: %+v", matched)
	}
}

func TestAbortedRunIsReported(t *testing.T) {
	agg := stats.NewAggregator(twoRepos(), nil)
	agg.RecordStep("repo-a", pipeline.StepFetch, pipeline.StatusSuccess, nil)
	agg.MarkAborted()

	report := agg.Summarize()
	if !report.Aborted {
		t.Error("Expected aborted report")
	}
	if report.RepoOutcomes["repo-b"][pipeline.StepFetch].Status != pipeline.StatusNotRun {
		t.Error("Unprocessed repository must stay not-run")
	}
}

func TestRepoCommandOutcomesReachTheReport(t *testing.T) {
	agg := stats.NewAggregator(twoRepos(), nil)
	agg.RecordRepoCommands("repo-a", []command.Outcome{
		{Command: "make generate", Scope: config.ScopeRepo, Success: true},
	})
	agg.RecordRepoCommands("repo-b", []command.Outcome{
		{Command: "make generate", Scope: config.ScopeRepo, Success: false,
			Err: pipeline.NewError(pipeline.ErrCommandExec, "repo-b", pipeline.StepCommand, errors.New("exit 1"))},
	})

	report := agg.Summarize()
	if len(report.RepoCommands["repo-a"]) != 1 || len(report.RepoCommands["repo-b"]) != 1 {
		t.Fatalf("Expected one outcome per repository, got %v", report.RepoCommands)
	}
	// Command failures reach the failure list through the step error, not here
	if len(report.Failures) != 0 {
		t.Errorf("RecordRepoCommands must not duplicate failures, got %v", report.Failures)
	}

	text := stats.FormatReport(report)
	if !strings.Contains(text, "Repository commands:") || !strings.Contains(text, "make generate") {
		t.Errorf("Report should list repository commands:\n%s", text)
	}
}

func TestFormatReportMentionsAnomalies(t *testing.T) {
	rules := []config.ReplacementRule{{Search: "never-matches", Replace: "x"}}
	agg := stats.NewAggregator(twoRepos(), rules)
	agg.RecordReplacements("repo-a", []replace.RuleOutcome{{RuleIndex: 0}})
	agg.RecordReplacements("repo-b", []replace.RuleOutcome{{RuleIndex: 0}})

	text := stats.FormatReport(agg.Summarize())
	if !strings.Contains(text, "never-matches") {
		t.Errorf("Report should name the anomalous rule:\n%s", text)
	}
}
