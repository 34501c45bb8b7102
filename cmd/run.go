/*
Copyright © 2026 ソニーレベル <C7kali3@gmail.com>

*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/sony-level/batchgitops/internal/config"
	"github.com/sony-level/batchgitops/internal/gitops"
	"github.com/sony-level/batchgitops/internal/logging"
	"github.com/sony-level/batchgitops/internal/orchestrator"
	"github.com/subosito/gotenv"
)

const defaultConfigPath = config.DefaultConfigPath

// workDirName is the directory holding all checkouts, next to the config file
const workDirName = "repos"

func executeRun(configPath string) error {
	// Load .env before the config document is parsed, so ${VAR}
	// placeholders can reference it
	_ = gotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	level := cfg.Global.LogLevel
	if verbose {
		level = "debug"
	}
	log, logPath, err := logging.New(cfg.Global.LogDir, level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	fmt.Printf("Config: %s\n", configPath)
	fmt.Printf("Log:    %s\n", logPath)

	client := gitops.NewGitClient(gitops.Options{
		Token:       cfg.Global.GitToken,
		Account:     cfg.Global.GitAccount,
		AuthorName:  cfg.Commit.AuthorName,
		AuthorEmail: cfg.Commit.AuthorEmail,
	})

	workDir := filepath.Join(filepath.Dir(configPath), workDirName)
	result, err := orchestrator.New(cfg, client, workDir, log).Run()
	if err != nil {
		return err
	}
	if result.Aborted {
		return fmt.Errorf("run aborted by stop-on-error strategy")
	}
	return nil
}
