// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Configuration document types

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/sony-level/batchgitops/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is used when no positional argument is given
const DefaultConfigPath = "batchgitops.yaml"

// DefaultCommandTimeout bounds a single command invocation
const DefaultCommandTimeout = 5 * time.Minute

// OnError is the global error-continuation strategy
type OnError string

const (
	// OnErrorContinue records the failure and moves to the next repository
	OnErrorContinue OnError = "continue"
	// OnErrorStop aborts the whole run on the first step failure
	OnErrorStop OnError = "stop"
)

// Strategy decides what to do when the personal branch already exists
type Strategy string

const (
	// StrategyCheckout checks out the existing branch as-is
	StrategyCheckout Strategy = "checkout"
	// StrategyRecreate deletes the local branch and recreates it from source
	StrategyRecreate Strategy = "recreate"
	// StrategyReset checks out the branch and hard-resets it to source
	StrategyReset Strategy = "reset"
)

// Scope determines whether a command runs once per repository or once per run
type Scope string

const (
	// ScopeRepo runs the command in every repository's working directory
	ScopeRepo Scope = "repo"
	// ScopeShared runs the command exactly once, after all repositories
	ScopeShared Scope = "shared"
)

// RepoSpec is one managed repository. Name doubles as the checkout
// directory under the work dir and must be unique.
type RepoSpec struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// ReplacementRule is one search/replace rule. Rules apply in declared order;
// later rules see the output of earlier ones.
type ReplacementRule struct {
	Search            string   `json:"search" yaml:"search"`
	Replace           string   `json:"replace" yaml:"replace"`
	IsRegex           bool     `json:"is_regex" yaml:"is_regex"`
	IncludeExtensions []string `json:"include_extensions" yaml:"include_extensions"`
	ExcludePatterns   []string `json:"exclude_patterns" yaml:"exclude_patterns"`
}

// CommandSpec is one configured command with its execution scope.
type CommandSpec struct {
	Command string `json:"command" yaml:"command"`
	Scope   Scope  `json:"scope" yaml:"scope"`
}

// UnmarshalYAML accepts both the legacy bare-string form (repo scope) and the
// object form {command, scope}. The legacy scope spelling "parent" maps to shared.
func (c *CommandSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		c.Command = value.Value
		c.Scope = ScopeRepo
		return nil
	}

	type rawCommand struct {
		Command string `yaml:"command"`
		Scope   string `yaml:"scope"`
	}
	var raw rawCommand
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("invalid command entry: %w", err)
	}

	c.Command = raw.Command
	switch strings.ToLower(raw.Scope) {
	case "", "repo":
		c.Scope = ScopeRepo
	case "shared", "parent":
		c.Scope = ScopeShared
	default:
		return fmt.Errorf("invalid command scope %q", raw.Scope)
	}
	return nil
}

// CommitSpec is the commit/publish template.
type CommitSpec struct {
	Message     string            `json:"message" yaml:"message"`
	Variables   map[string]string `json:"variables" yaml:"variables"`
	AuthorName  string            `json:"author_name" yaml:"author_name"`
	AuthorEmail string            `json:"author_email" yaml:"author_email"`
}

// GlobalConfig holds global run settings, including the legacy flat step
// toggles kept for backward compatibility with old config documents.
type GlobalConfig struct {
	SourceBranch         string   `json:"source_branch" yaml:"source_branch"`
	OnError              OnError  `json:"on_error" yaml:"on_error"`
	BranchExistsStrategy Strategy `json:"branch_exists_strategy" yaml:"branch_exists_strategy"`
	ShowCommandOutput    *bool    `json:"show_command_output" yaml:"show_command_output"`
	CommandTimeout       int      `json:"command_timeout" yaml:"command_timeout"` // seconds
	GitToken             string   `json:"git_token" yaml:"git_token"`
	GitAccount           string   `json:"git_account" yaml:"git_account"`
	LogDir               string   `json:"log_dir" yaml:"log_dir"`
	LogLevel             string   `json:"log_level" yaml:"log_level"`

	// Legacy step toggles, superseded by the execution block when both are set
	ExecuteClone        *bool `json:"execute_clone" yaml:"execute_clone"`
	ExecuteBranch       *bool `json:"execute_branch" yaml:"execute_branch"`
	ExecuteReplacements *bool `json:"execute_replacements" yaml:"execute_replacements"`
	ExecuteCommands     *bool `json:"execute_commands" yaml:"execute_commands"`
	ExecuteCommit       *bool `json:"execute_commit" yaml:"execute_commit"`
}

// ExecutionConfig is the structured step-toggle block.
type ExecutionConfig struct {
	Clone        *bool `json:"clone" yaml:"clone"`
	Branch       *bool `json:"branch" yaml:"branch"`
	Replacements *bool `json:"replacements" yaml:"replacements"`
	Commands     *bool `json:"commands" yaml:"commands"`
	Commit       *bool `json:"commit" yaml:"commit"`
}

// Config is the fully-resolved run configuration.
type Config struct {
	Global         GlobalConfig      `json:"global" yaml:"global"`
	Execution      ExecutionConfig   `json:"execution" yaml:"execution"`
	Repositories   []RepoSpec        `json:"repositories" yaml:"repositories"`
	PersonalBranch string            `json:"personal_branch" yaml:"personal_branch"`
	Replacements   []ReplacementRule `json:"replacements" yaml:"replacements"`
	Commands       []CommandSpec     `json:"commands" yaml:"commands"`
	Commit         CommitSpec        `json:"commit" yaml:"commit"`
}

// StepEnabled resolves the authoritative toggle for a pipeline step.
// The structured execution block wins over the legacy global keys when both
// are present; a step with neither is enabled.
func (c *Config) StepEnabled(step pipeline.Step) bool {
	var structured, legacy *bool
	switch step {
	case pipeline.StepFetch:
		structured, legacy = c.Execution.Clone, c.Global.ExecuteClone
	case pipeline.StepBranch:
		structured, legacy = c.Execution.Branch, c.Global.ExecuteBranch
	case pipeline.StepReplace:
		structured, legacy = c.Execution.Replacements, c.Global.ExecuteReplacements
	case pipeline.StepCommand:
		structured, legacy = c.Execution.Commands, c.Global.ExecuteCommands
	case pipeline.StepPublish:
		structured, legacy = c.Execution.Commit, c.Global.ExecuteCommit
	}
	if structured != nil {
		return *structured
	}
	if legacy != nil {
		return *legacy
	}
	return true
}

// ShowCommandOutput reports whether captured command output is also surfaced
func (c *Config) ShowCommandOutput() bool {
	if c.Global.ShowCommandOutput != nil {
		return *c.Global.ShowCommandOutput
	}
	return true
}

// CommandTimeout returns the per-command timeout
func (c *Config) CommandTimeout() time.Duration {
	if c.Global.CommandTimeout > 0 {
		return time.Duration(c.Global.CommandTimeout) * time.Second
	}
	return DefaultCommandTimeout
}

// RepoCommands returns the repo-scoped commands in declared order
func (c *Config) RepoCommands() []CommandSpec {
	return c.commandsInScope(ScopeRepo)
}

// SharedCommands returns the shared-scoped commands in declared order
func (c *Config) SharedCommands() []CommandSpec {
	return c.commandsInScope(ScopeShared)
}

func (c *Config) commandsInScope(scope Scope) []CommandSpec {
	var out []CommandSpec
	for _, cmd := range c.Commands {
		if cmd.Scope == scope {
			out = append(out, cmd)
		}
	}
	return out
}
