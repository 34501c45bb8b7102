// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Search/replace engine over a workspace file tree

package replace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sony-level/batchgitops/internal/config"
	"github.com/sony-level/batchgitops/internal/pipeline"
	"go.uber.org/zap"
)

// Engine applies an ordered list of replacement rules to a workspace.
type Engine struct {
	log *zap.SugaredLogger
}

// NewEngine creates a replacement engine
func NewEngine(log *zap.SugaredLogger) *Engine {
	return &Engine{log: log}
}

// compiledRule pairs a rule with its pre-compiled regex (nil for literal rules)
type compiledRule struct {
	config.ReplacementRule
	regex *regexp.Regexp
}

// Apply walks every regular file under root and applies the rules in
// declared order, each file rewritten at most once. Files that are not
// valid UTF-8 are skipped with a warning; a write failure aborts the step
// with a replacement-io error. The returned slice has one outcome per rule.
func (e *Engine) Apply(root string, rules []config.ReplacementRule, repoName string) ([]RuleOutcome, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, pipeline.NewError(pipeline.ErrReplacementIO, repoName, pipeline.StepReplace, err)
	}

	outcomes := make([]RuleOutcome, len(rules))
	for i := range outcomes {
		outcomes[i].RuleIndex = i
	}

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return e.processFile(path, filepath.ToSlash(relPath), compiled, outcomes)
	})
	if walkErr != nil {
		return nil, pipeline.NewError(pipeline.ErrReplacementIO, repoName, pipeline.StepReplace, walkErr)
	}
	return outcomes, nil
}

// processFile applies every applicable rule to one file and writes it back
// once if anything changed
func (e *Engine) processFile(path, relPath string, rules []compiledRule, outcomes []RuleOutcome) error {
	applicable := false
	for i := range rules {
		if ruleAppliesTo(relPath, &rules[i].ReplacementRule) {
			applicable = true
			break
		}
	}
	if !applicable {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		e.log.Warnf("skipping %s: %v", relPath, err)
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		e.log.Warnf("skipping %s: %v", relPath, err)
		return nil
	}
	if !utf8.Valid(data) {
		// Binary content is reported, never an error
		e.log.Warnf("skipping binary file %s", relPath)
		return nil
	}

	original := string(data)
	content := original
	for i := range rules {
		if !ruleAppliesTo(relPath, &rules[i].ReplacementRule) {
			continue
		}
		replaced, count := applyRule(content, &rules[i])
		if count > 0 {
			outcomes[i].FilesModified++
			outcomes[i].OccurrencesReplaced += count
			content = replaced
		}
	}

	if content == original {
		return nil
	}
	if err := os.WriteFile(path, []byte(content), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}
	e.log.Debugf("modified %s", relPath)
	return nil
}

// applyRule performs one substitution pass and counts occurrences
func applyRule(content string, rule *compiledRule) (string, int) {
	if rule.regex != nil {
		count := len(rule.regex.FindAllStringIndex(content, -1))
		if count == 0 {
			return content, 0
		}
		return rule.regex.ReplaceAllString(content, rule.Replace), count
	}
	count := strings.Count(content, rule.Search)
	if count == 0 {
		return content, 0
	}
	return strings.ReplaceAll(content, rule.Search, rule.Replace), count
}

// ruleAppliesTo checks the rule's exclusion globs and extension allow-list
// against a slash-separated relative path
func ruleAppliesTo(relPath string, rule *config.ReplacementRule) bool {
	base := relPath
	if idx := strings.LastIndexByte(relPath, '/'); idx >= 0 {
		base = relPath[idx+1:]
	}

	for _, pattern := range rule.ExcludePatterns {
		if strings.ContainsRune(pattern, '/') {
			if matchGlob(pattern, relPath) {
				return false
			}
			// A **/ prefix also covers files at the tree root, where the
			// relative path has no separator for the prefix to consume
			if rest, ok := strings.CutPrefix(pattern, "**/"); ok && matchGlob(rest, relPath) {
				return false
			}
		} else if matchGlob(pattern, base) {
			return false
		}
	}

	if len(rule.IncludeExtensions) > 0 {
		ext := filepath.Ext(base)
		found := false
		for _, allowed := range rule.IncludeExtensions {
			if !strings.HasPrefix(allowed, ".") {
				allowed = "." + allowed
			}
			if ext == allowed {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// matchGlob matches name against pattern where * (and **) span any
// characters, path separators included, and ? matches a single character
func matchGlob(pattern, name string) bool {
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")

	matched, err := regexp.MatchString(sb.String(), name)
	return err == nil && matched
}

// compileRules pre-compiles the regex rules (multi-line mode, matching the
// line-anchored semantics replacement configs rely on)
func compileRules(rules []config.ReplacementRule) ([]compiledRule, error) {
	compiled := make([]compiledRule, len(rules))
	for i, rule := range rules {
		compiled[i] = compiledRule{ReplacementRule: rule}
		if rule.IsRegex {
			re, err := regexp.Compile("(?m)" + rule.Search)
			if err != nil {
				return nil, fmt.Errorf("rule #%d has an invalid regex: %w", i, err)
			}
			compiled[i].regex = re
		}
	}
	return compiled, nil
}
