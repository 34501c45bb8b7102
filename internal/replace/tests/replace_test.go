// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Tests for the replacement engine

package tests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sony-level/batchgitops/internal/config"
	"github.com/sony-level/batchgitops/internal/replace"
	"go.uber.org/zap"
)

func newEngine() *replace.Engine {
	return replace.NewEngine(zap.NewNop().Sugar())
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", rel, err)
	}
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", rel, err)
	}
	return string(data)
}

func TestLiteralReplacement(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "Copyright 2023 and Copyright 2023 again")
	writeFile(t, root, "sub/b.txt", "Copyright 2023")

	rules := []config.ReplacementRule{
		{Search: "Copyright 2023", Replace: "Copyright 2024"},
	}

	outcomes, err := newEngine().Apply(root, rules, "repo-a")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if outcomes[0].FilesModified != 2 {
		t.Errorf("Expected 2 files modified, got %d", outcomes[0].FilesModified)
	}
	if outcomes[0].OccurrencesReplaced != 3 {
		t.Errorf("Expected 3 occurrences, got %d", outcomes[0].OccurrencesReplaced)
	}
	if got := readFile(t, root, "a.txt"); got != "Copyright 2024 and Copyright 2024 again" {
		t.Errorf("Unexpected content: %q", got)
	}
}

func TestRegexReplacement(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "version.txt", "version: 1.2.3\nversion: 4.5.6\n")

	rules := []config.ReplacementRule{
		{Search: `^version: \d+\.\d+\.\d+$`, Replace: "version: 2.0.0", IsRegex: true},
	}

	outcomes, err := newEngine().Apply(root, rules, "repo-a")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if outcomes[0].OccurrencesReplaced != 2 {
		t.Errorf("Expected 2 occurrences, got %d", outcomes[0].OccurrencesReplaced)
	}
	if got := readFile(t, root, "version.txt"); got != "version: 2.0.0\nversion: 2.0.0\n" {
		t.Errorf("Unexpected content: %q", got)
	}
}

func TestRulesApplyInDeclaredOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "alpha")

	// The second rule only matches the output of the first
	rules := []config.ReplacementRule{
		{Search: "alpha", Replace: "beta"},
		{Search: "beta", Replace: "gamma"},
	}

	outcomes, err := newEngine().Apply(root, rules, "repo-a")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if got := readFile(t, root, "a.txt"); got != "gamma" {
		t.Errorf("Expected gamma, got %q", got)
	}
	if outcomes[0].OccurrencesReplaced != 1 || outcomes[1].OccurrencesReplaced != 1 {
		t.Errorf("Expected both rules to count 1 occurrence, got %d and %d",
			outcomes[0].OccurrencesReplaced, outcomes[1].OccurrencesReplaced)
	}
}

func TestIncludeExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "old")
	writeFile(t, root, "a.txt", "old")

	rules := []config.ReplacementRule{
		{Search: "old", Replace: "new", IncludeExtensions: []string{".go"}},
	}

	outcomes, err := newEngine().Apply(root, rules, "repo-a")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if outcomes[0].FilesModified != 1 {
		t.Errorf("Expected 1 file modified, got %d", outcomes[0].FilesModified)
	}
	if got := readFile(t, root, "a.txt"); got != "old" {
		t.Errorf("Excluded extension was modified: %q", got)
	}
}

func TestExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.txt", "old")
	writeFile(t, root, "skip.min.js", "old")
	writeFile(t, root, "vendor/lib.txt", "old")

	rules := []config.ReplacementRule{
		{Search: "old", Replace: "new", ExcludePatterns: []string{"*.min.js", "vendor/*"}},
	}

	outcomes, err := newEngine().Apply(root, rules, "repo-a")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if outcomes[0].FilesModified != 1 {
		t.Errorf("Expected only keep.txt modified, got %d files", outcomes[0].FilesModified)
	}
	if got := readFile(t, root, "skip.min.js"); got != "old" {
		t.Errorf("Base-name pattern did not exclude: %q", got)
	}
	if got := readFile(t, root, "vendor/lib.txt"); got != "old" {
		t.Errorf("Path pattern did not exclude: %q", got)
	}
}

func TestDoubleStarPatternExcludesAtEveryDepth(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "secret.txt", "old")
	writeFile(t, root, "sub/secret.txt", "old")
	writeFile(t, root, "sub/other.txt", "old")

	rules := []config.ReplacementRule{
		{Search: "old", Replace: "new", ExcludePatterns: []string{"**/secret.txt"}},
	}

	outcomes, err := newEngine().Apply(root, rules, "repo-a")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if got := readFile(t, root, "secret.txt"); got != "old" {
		t.Errorf("Top-level file must be excluded too: %q", got)
	}
	if got := readFile(t, root, "sub/secret.txt"); got != "old" {
		t.Errorf("Nested file must be excluded: %q", got)
	}
	if outcomes[0].FilesModified != 1 {
		t.Errorf("Expected only sub/other.txt modified, got %d files", outcomes[0].FilesModified)
	}
}

func TestGitDirectoryIsSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/config", "old")
	writeFile(t, root, "a.txt", "old")

	rules := []config.ReplacementRule{{Search: "old", Replace: "new"}}

	if _, err := newEngine().Apply(root, rules, "repo-a"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := readFile(t, root, ".git/config"); got != "old" {
		t.Errorf(".git content was modified: %q", got)
	}
}

func TestBinaryFileIsSkippedNotFailed(t *testing.T) {
	root := t.TempDir()
	binary := append([]byte("old"), 0xff, 0xfe, 0x00)
	if err := os.WriteFile(filepath.Join(root, "blob.bin"), binary, 0644); err != nil {
		t.Fatalf("Failed to write binary file: %v", err)
	}
	writeFile(t, root, "a.txt", "old")

	rules := []config.ReplacementRule{{Search: "old", Replace: "new"}}

	outcomes, err := newEngine().Apply(root, rules, "repo-a")
	if err != nil {
		t.Fatalf("Binary content must not fail the step: %v", err)
	}
	if outcomes[0].FilesModified != 1 {
		t.Errorf("Expected only the text file modified, got %d", outcomes[0].FilesModified)
	}
}

func TestZeroMatchOutcome(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "nothing to see")

	rules := []config.ReplacementRule{{Search: "absent", Replace: "present"}}

	outcomes, err := newEngine().Apply(root, rules, "repo-a")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if outcomes[0].Matched() {
		t.Errorf("Expected zero-match outcome, got %+v", outcomes[0])
	}
}

func TestDeterministicOutcomes(t *testing.T) {
	build := func() string {
		root := t.TempDir()
		writeFile(t, root, "b.txt", "x y x")
		writeFile(t, root, "a/a.txt", "x")
		writeFile(t, root, "c/c.txt", "y x")
		return root
	}
	rules := []config.ReplacementRule{{Search: "x", Replace: "z"}}

	first, err := newEngine().Apply(build(), rules, "repo-a")
	if err != nil {
		t.Fatalf("First apply failed: %v", err)
	}
	second, err := newEngine().Apply(build(), rules, "repo-a")
	if err != nil {
		t.Fatalf("Second apply failed: %v", err)
	}

	if first[0] != second[0] {
		t.Errorf("Expected identical outcomes, got %+v and %+v", first[0], second[0])
	}
	if first[0].FilesModified != 3 || first[0].OccurrencesReplaced != 4 {
		t.Errorf("Unexpected tallies: %+v", first[0])
	}
}
