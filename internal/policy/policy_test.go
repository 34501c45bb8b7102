// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Tests for the error-continuation policy

package policy

import (
	"errors"
	"testing"

	"github.com/sony-level/batchgitops/internal/config"
	"github.com/sony-level/batchgitops/internal/pipeline"
	"go.uber.org/zap"
)

func TestContinueStrategy(t *testing.T) {
	p := New(config.OnErrorContinue, zap.NewNop().Sugar())

	decision := p.OnStepFailure("repo-a", pipeline.StepBranch, errors.New("boom"))
	if decision != ContinueNextWorkspace {
		t.Errorf("Expected continue decision, got %v", decision)
	}
}

func TestStopStrategy(t *testing.T) {
	p := New(config.OnErrorStop, zap.NewNop().Sugar())

	for _, step := range pipeline.Steps {
		decision := p.OnStepFailure("repo-a", step, errors.New("boom"))
		if decision != AbortRun {
			t.Errorf("Expected abort for step %s, got %v", step, decision)
		}
	}
}
