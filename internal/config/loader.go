// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Configuration loading, environment expansion and validation

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/sony-level/batchgitops/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR_NAME} placeholders in string values
var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads, expands and validates a configuration document.
// Any failure is a config-kinded error; the run must not start on one.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pipeline.NewError(pipeline.ErrConfig, "", "",
			fmt.Errorf("failed to read config file %s: %w", path, err))
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, pipeline.NewError(pipeline.ErrConfig, "", "",
			fmt.Errorf("failed to load %s: %w", path, err))
	}
	return cfg, nil
}

// Parse unmarshals a configuration document, expanding ${VAR} environment
// placeholders in every string value before decoding. Unknown variables are
// left literal.
func Parse(data []byte) (*Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if doc.Kind == 0 {
		return nil, fmt.Errorf("config document is empty")
	}

	expandEnvNode(&doc)

	cfg := &Config{}
	if err := doc.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandEnvNode walks the document and expands env placeholders in string scalars
func expandEnvNode(node *yaml.Node) {
	if node.Kind == yaml.ScalarNode {
		if node.Tag == "!!str" {
			node.Value = expandEnv(node.Value)
		}
		return
	}
	for _, child := range node.Content {
		expandEnvNode(child)
	}
}

// expandEnv replaces ${VAR} with the environment value, leaving unset
// variables literal so a missing token is visible instead of silently empty
func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		return match
	})
}

func applyDefaults(cfg *Config) {
	if cfg.Global.SourceBranch == "" {
		cfg.Global.SourceBranch = "main"
	}
	if cfg.Global.OnError == "" {
		cfg.Global.OnError = OnErrorContinue
	}
	if cfg.Global.BranchExistsStrategy == "" {
		cfg.Global.BranchExistsStrategy = StrategyCheckout
	}
	if cfg.Global.LogDir == "" {
		cfg.Global.LogDir = "./logs"
	}
	if cfg.Global.LogLevel == "" {
		cfg.Global.LogLevel = "info"
	}
	if cfg.Commit.AuthorName == "" {
		cfg.Commit.AuthorName = "batchgitops"
	}
	if cfg.Commit.AuthorEmail == "" {
		cfg.Commit.AuthorEmail = "batchgitops@localhost"
	}
}

// Validate checks required fields and enum values
func (c *Config) Validate() error {
	if len(c.Repositories) == 0 {
		return fmt.Errorf("repositories must not be empty")
	}
	if c.PersonalBranch == "" {
		return fmt.Errorf("personal_branch is required")
	}
	if c.Commit.Message == "" {
		return fmt.Errorf("commit.message is required")
	}

	seen := make(map[string]bool, len(c.Repositories))
	for i, repo := range c.Repositories {
		if repo.Name == "" || repo.URL == "" {
			return fmt.Errorf("repository #%d is missing required fields (name, url)", i)
		}
		if strings.ContainsAny(repo.Name, "/\\") {
			return fmt.Errorf("repository name %q must not contain path separators", repo.Name)
		}
		if seen[repo.Name] {
			return fmt.Errorf("duplicate repository name %q", repo.Name)
		}
		seen[repo.Name] = true
	}

	switch c.Global.OnError {
	case OnErrorContinue, OnErrorStop:
	default:
		return fmt.Errorf("invalid on_error value %q (want continue or stop)", c.Global.OnError)
	}

	switch c.Global.BranchExistsStrategy {
	case StrategyCheckout, StrategyRecreate, StrategyReset:
	default:
		return fmt.Errorf("invalid branch_exists_strategy %q (want checkout, recreate or reset)",
			c.Global.BranchExistsStrategy)
	}

	for i, rule := range c.Replacements {
		if rule.Search == "" {
			return fmt.Errorf("replacement #%d has an empty search", i)
		}
		if rule.IsRegex {
			if _, err := regexp.Compile(rule.Search); err != nil {
				return fmt.Errorf("replacement #%d has an invalid regex: %w", i, err)
			}
		}
	}

	for i, cmd := range c.Commands {
		if cmd.Command == "" {
			return fmt.Errorf("command #%d is empty", i)
		}
	}

	return nil
}
