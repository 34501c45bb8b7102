// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Human-readable run report rendering

package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/sony-level/batchgitops/internal/command"
)

const reportDivider = "─────────────────────────────────────────────"

// stepLabels gives the report display names in pipeline order
var stepLabels = map[string]string{
	"fetch":   "Fetch / Pull",
	"branch":  "Branch",
	"replace": "Replacements",
	"command": "Commands",
	"publish": "Commit / Push",
}

// FormatReport renders the run summary: per-step status across all
// repositories, per-rule replacement statistics, the zero-match anomaly
// list and every recorded failure with its context.
func FormatReport(report *RunReport) string {
	var sb strings.Builder

	sb.WriteString("\n" + reportDivider + "\n")
	sb.WriteString("Run Summary\n")
	sb.WriteString(reportDivider + "\n")

	if report.Aborted {
		sb.WriteString("⊘ Run aborted by stop-on-error strategy\n")
	}
	sb.WriteString(fmt.Sprintf("Repositories: %d\n\n", len(report.Repos)))

	sb.WriteString("Steps:\n")
	for _, step := range report.StepSummary {
		label := stepLabels[string(step.Step)]
		if label == "" {
			label = string(step.Step)
		}
		sb.WriteString(fmt.Sprintf("  %s %-14s %s", classGlyph(step.Class), label, step.Class))
		switch step.Class {
		case ClassSuccess:
			sb.WriteString(fmt.Sprintf(" (%d/%d)", step.Succeeded, len(report.Repos)))
		case ClassPartialFailure:
			sb.WriteString(fmt.Sprintf(" (ok: %d, failed: %d, not run: %d)",
				step.Succeeded, step.Failed, step.NotRun))
		}
		sb.WriteString("\n")
	}

	if len(report.Rules) > 0 {
		sb.WriteString("\nReplacement rules:\n")
		for _, rule := range report.Rules {
			sb.WriteString(fmt.Sprintf("  [%d] %s\n", rule.RuleIndex+1, truncate(rule.Search, 50)))
			sb.WriteString(fmt.Sprintf("      repositories modified: %d", rule.ReposMatched))
			if rule.ReposZero > 0 {
				sb.WriteString(fmt.Sprintf(", zero-match: %d", rule.ReposZero))
			}
			sb.WriteString("\n")
			sb.WriteString(fmt.Sprintf("      files modified: %d, occurrences replaced: %d\n",
				rule.FilesModified, rule.Occurrences))
		}

		if anomalies := report.Anomalies(); len(anomalies) > 0 {
			sb.WriteString("\n⚠ Rules that matched nothing in any repository:\n")
			for _, rule := range anomalies {
				sb.WriteString(fmt.Sprintf("  [%d] %s\n", rule.RuleIndex+1, truncate(rule.Search, 50)))
			}
			sb.WriteString("  Check the search pattern and the exclude patterns.\n")
		}
	}

	if len(report.RepoCommands) > 0 {
		sb.WriteString("\nRepository commands:\n")
		for _, repo := range report.Repos {
			outcomes := report.RepoCommands[repo]
			if len(outcomes) == 0 {
				continue
			}
			sb.WriteString(fmt.Sprintf("  %s:\n", repo))
			for _, outcome := range outcomes {
				sb.WriteString("  " + formatCommand(outcome))
			}
		}
	}

	if len(report.Shared) > 0 {
		sb.WriteString("\nShared commands:\n")
		for _, outcome := range report.Shared {
			sb.WriteString(formatCommand(outcome))
		}
	}

	if len(report.Failures) > 0 {
		sb.WriteString("\nFailures:\n")
		for _, failure := range report.Failures {
			sb.WriteString(fmt.Sprintf("  ✗ %s\n", failure))
		}
	}

	sb.WriteString(reportDivider + "\n")
	return sb.String()
}

func formatCommand(outcome command.Outcome) string {
	glyph := "✓"
	if !outcome.Success {
		glyph = "✗"
	}
	return fmt.Sprintf("  %s %s (%v)\n", glyph,
		truncate(outcome.Command, 50), outcome.Duration.Round(time.Millisecond))
}

func classGlyph(c Classification) string {
	switch c {
	case ClassSuccess:
		return "✓"
	case ClassPartialFailure:
		return "⚠"
	case ClassDisabled:
		return "⊘"
	default:
		return "✗"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
