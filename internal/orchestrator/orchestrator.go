// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Run orchestration: the per-repository pipeline and shared commands

package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sony-level/batchgitops/internal/branch"
	"github.com/sony-level/batchgitops/internal/command"
	"github.com/sony-level/batchgitops/internal/config"
	"github.com/sony-level/batchgitops/internal/gitops"
	"github.com/sony-level/batchgitops/internal/pipeline"
	"github.com/sony-level/batchgitops/internal/policy"
	"github.com/sony-level/batchgitops/internal/replace"
	"github.com/sony-level/batchgitops/internal/stats"
	"go.uber.org/zap"
)

// Orchestrator drives the full run: for every configured repository the
// five-step pipeline under the error policy, then the shared-scope commands,
// then the aggregated summary.
type Orchestrator struct {
	cfg       *config.Config
	client    gitops.Client
	resolver  *branch.Resolver
	engine    *replace.Engine
	scheduler *command.Scheduler
	policy    *policy.Policy
	stats     *stats.Aggregator
	workDir   string
	log       *zap.SugaredLogger
}

// Result is what a completed (or aborted) run produced.
type Result struct {
	Aborted bool
	Report  *stats.RunReport
}

// New wires the pipeline components for one run. Repositories are checked
// out under workDir, one directory per repository name; shared-scope
// commands run in workDir itself.
func New(cfg *config.Config, client gitops.Client, workDir string, log *zap.SugaredLogger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		client:    client,
		resolver:  branch.NewResolver(client, log),
		engine:    replace.NewEngine(log),
		scheduler: command.NewScheduler(cfg.CommandTimeout(), cfg.ShowCommandOutput(), cfg.Global.OnError, log),
		policy:    policy.New(cfg.Global.OnError, log),
		stats:     stats.NewAggregator(cfg.Repositories, cfg.Replacements),
		workDir:   workDir,
		log:       log,
	}
}

// Run processes every repository in declared order, runs the shared-scope
// commands once at the end (unless the run was aborted), and returns the
// finalized report.
func (o *Orchestrator) Run() (*Result, error) {
	if err := os.MkdirAll(o.workDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work directory %s: %w", o.workDir, err)
	}

	aborted := false
	for _, repo := range o.cfg.Repositories {
		o.log.Info(strings.Repeat("=", 60))
		o.log.Infof("processing repository: %s", repo.Name)

		if o.processRepository(repo) == policy.AbortRun {
			aborted = true
			o.stats.MarkAborted()
			break
		}
	}

	if !aborted {
		o.runSharedCommands()
	}

	report := o.stats.Summarize()
	for _, line := range strings.Split(stats.FormatReport(report), "\n") {
		o.log.Info(line)
	}

	return &Result{Aborted: aborted, Report: report}, nil
}

// processRepository runs the five-step pipeline for one repository. The
// first failing step ends the pipeline for this repository (remaining steps
// stay not-run) and the policy decides whether the whole run continues.
func (o *Orchestrator) processRepository(repo config.RepoSpec) policy.Decision {
	dir := filepath.Join(o.workDir, repo.Name)

	steps := []struct {
		step pipeline.Step
		run  func(config.RepoSpec, string) *pipeline.Error
	}{
		{pipeline.StepFetch, o.stepFetch},
		{pipeline.StepBranch, o.stepBranch},
		{pipeline.StepReplace, o.stepReplace},
		{pipeline.StepCommand, o.stepCommands},
		{pipeline.StepPublish, o.stepPublish},
	}

	for _, s := range steps {
		if !o.cfg.StepEnabled(s.step) {
			// Fetch may be disabled only when the checkout already exists
			if s.step == pipeline.StepFetch {
				if _, err := os.Stat(dir); err != nil {
					stepErr := pipeline.NewError(pipeline.ErrFetch, repo.Name, pipeline.StepFetch,
						fmt.Errorf("fetch step disabled and %s does not exist", dir))
					o.stats.RecordStep(repo.Name, s.step, pipeline.StatusFailed, stepErr)
					return o.policy.OnStepFailure(repo.Name, s.step, stepErr)
				}
			}
			o.log.Infof("step %s disabled, skipping", s.step)
			o.stats.RecordStep(repo.Name, s.step, pipeline.StatusSkipped, nil)
			continue
		}

		if stepErr := s.run(repo, dir); stepErr != nil {
			o.stats.RecordStep(repo.Name, s.step, pipeline.StatusFailed, stepErr)
			return o.policy.OnStepFailure(repo.Name, s.step, stepErr)
		}
		o.stats.RecordStep(repo.Name, s.step, pipeline.StatusSuccess, nil)
	}

	o.log.Infof("repository done: %s", repo.Name)
	return policy.ContinueNextWorkspace
}

func (o *Orchestrator) stepFetch(repo config.RepoSpec, dir string) *pipeline.Error {
	o.log.Infof("fetching %s -> %s", repo.URL, dir)
	if err := o.client.CloneOrPull(repo.URL, dir, o.cfg.Global.SourceBranch); err != nil {
		return pipeline.NewError(pipeline.ErrFetch, repo.Name, pipeline.StepFetch, err)
	}
	return nil
}

func (o *Orchestrator) stepBranch(repo config.RepoSpec, dir string) *pipeline.Error {
	_, err := o.resolver.Resolve(repo.Name, dir,
		o.cfg.Global.SourceBranch, o.cfg.PersonalBranch, o.cfg.Global.BranchExistsStrategy)
	if err != nil {
		return asPipelineError(pipeline.ErrBranch, repo.Name, pipeline.StepBranch, err)
	}
	return nil
}

func (o *Orchestrator) stepReplace(repo config.RepoSpec, dir string) *pipeline.Error {
	if len(o.cfg.Replacements) == 0 {
		return nil
	}
	o.log.Infof("applying %d replacement rules", len(o.cfg.Replacements))
	outcomes, err := o.engine.Apply(dir, o.cfg.Replacements, repo.Name)
	if err != nil {
		return asPipelineError(pipeline.ErrReplacementIO, repo.Name, pipeline.StepReplace, err)
	}
	o.stats.RecordReplacements(repo.Name, outcomes)
	return nil
}

func (o *Orchestrator) stepCommands(repo config.RepoSpec, dir string) *pipeline.Error {
	repoCommands := o.cfg.RepoCommands()
	if len(repoCommands) == 0 {
		return nil
	}
	outcomes := o.scheduler.Run(repo.Name, repoCommands, dir)
	o.stats.RecordRepoCommands(repo.Name, outcomes)
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			return outcome.Err
		}
	}
	return nil
}

func (o *Orchestrator) stepPublish(repo config.RepoSpec, dir string) *pipeline.Error {
	changed, err := o.client.HasChanges(dir)
	if err != nil {
		return pipeline.NewError(pipeline.ErrPublish, repo.Name, pipeline.StepPublish, err)
	}
	if !changed {
		o.log.Infof("no changes to commit in %s", repo.Name)
		return nil
	}

	message, unresolved := formatCommitMessage(o.cfg.Commit.Message, repo.Name,
		o.cfg.Commit.Variables, len(o.cfg.Replacements), len(o.cfg.Commands), time.Now())
	for _, name := range unresolved {
		o.log.Warnf("commit message placeholder {%s} is not defined, left literal", name)
	}

	force := o.cfg.Global.BranchExistsStrategy == config.StrategyRecreate
	if _, err := o.client.CommitAndPush(dir, o.cfg.PersonalBranch, message, force); err != nil {
		return pipeline.NewError(pipeline.ErrPublish, repo.Name, pipeline.StepPublish, err)
	}
	o.log.Infof("pushed %s to origin/%s", repo.Name, o.cfg.PersonalBranch)
	return nil
}

// runSharedCommands executes the shared-scope partition exactly once in the
// shared work directory, after every repository finished its pipeline
func (o *Orchestrator) runSharedCommands() {
	if !o.cfg.StepEnabled(pipeline.StepCommand) {
		return
	}
	shared := o.cfg.SharedCommands()
	if len(shared) == 0 {
		return
	}

	o.log.Info(strings.Repeat("=", 60))
	o.log.Infof("running %d shared command(s) in %s", len(shared), o.workDir)
	o.stats.RecordSharedCommands(o.scheduler.Run("", shared, o.workDir))
}

// asPipelineError keeps an already-kinded error as-is and wraps anything else
func asPipelineError(kind pipeline.ErrorKind, repo string, step pipeline.Step, err error) *pipeline.Error {
	if perr, ok := err.(*pipeline.Error); ok {
		return perr
	}
	return pipeline.NewError(kind, repo, step, err)
}
