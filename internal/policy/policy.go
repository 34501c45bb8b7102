// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Error-continuation policy

package policy

import (
	"github.com/sony-level/batchgitops/internal/config"
	"github.com/sony-level/batchgitops/internal/pipeline"
	"go.uber.org/zap"
)

// Decision is what the orchestrator does after a step failure.
type Decision int

const (
	// ContinueNextWorkspace records the failure, ends the current
	// workspace's pipeline and moves on
	ContinueNextWorkspace Decision = iota
	// AbortRun short-circuits all remaining workspaces and the
	// shared-scope commands
	AbortRun
)

// Policy decides whether a step failure aborts the run. The decision is a
// pure function of the global strategy; a disabled step is skipped and
// never reaches the policy.
type Policy struct {
	strategy config.OnError
	log      *zap.SugaredLogger
}

// New creates a policy for the configured global strategy
func New(strategy config.OnError, log *zap.SugaredLogger) *Policy {
	return &Policy{strategy: strategy, log: log}
}

// OnStepFailure logs the failure and returns the continuation decision
func (p *Policy) OnStepFailure(repo string, step pipeline.Step, err error) Decision {
	if p.strategy == config.OnErrorStop {
		p.log.Errorf("step %s failed in %s, aborting run: %v", step, repo, err)
		return AbortRun
	}
	p.log.Errorf("step %s failed in %s, continuing with next repository: %v", step, repo, err)
	return ContinueNextWorkspace
}
