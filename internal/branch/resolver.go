// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Branch resolution state machine

package branch

import (
	"fmt"

	"github.com/sony-level/batchgitops/internal/config"
	"github.com/sony-level/batchgitops/internal/gitops"
	"github.com/sony-level/batchgitops/internal/pipeline"
	"go.uber.org/zap"
)

// Resolver brings a workspace onto its target branch according to the
// configured branch-exists strategy.
type Resolver struct {
	client gitops.Client
	log    *zap.SugaredLogger
}

// NewResolver creates a resolver backed by the given version-control client
func NewResolver(client gitops.Client, log *zap.SugaredLogger) *Resolver {
	return &Resolver{client: client, log: log}
}

// Resolve determines the target branch's existence state and applies the
// strategy transition for it. Any underlying version-control failure yields
// a branch-kinded error carrying the repository name.
func (r *Resolver) Resolve(repoName, dir, source, target string, strategy config.Strategy) (Action, error) {
	action, err := r.resolve(dir, source, target, strategy)
	if err != nil {
		return action, pipeline.NewError(pipeline.ErrBranch, repoName, pipeline.StepBranch, err)
	}
	r.log.Infof("branch %s: %s (%s strategy)", target, action, strategy)
	return action, nil
}

func (r *Resolver) resolve(dir, source, target string, strategy config.Strategy) (Action, error) {
	state, err := r.determineState(dir, target)
	if err != nil {
		return ActionCreated, err
	}
	r.log.Debugf("target branch %s state: %s", target, state)

	switch strategy {
	case config.StrategyCheckout:
		return r.resolveCheckout(dir, source, target, state)
	case config.StrategyRecreate:
		return r.resolveRecreate(dir, source, target, state)
	case config.StrategyReset:
		return r.resolveReset(dir, source, target, state)
	default:
		return ActionCreated, fmt.Errorf("unknown branch strategy %q", strategy)
	}
}

// determineState queries local and remote existence of the target branch
func (r *Resolver) determineState(dir, target string) (State, error) {
	local, err := r.client.LocalBranchExists(dir, target)
	if err != nil {
		return NotExists, err
	}
	remote, err := r.client.RemoteBranchExists(dir, target)
	if err != nil {
		return NotExists, err
	}

	switch {
	case local && remote:
		return ExistsBoth, nil
	case local:
		return ExistsLocalOnly, nil
	case remote:
		return ExistsRemoteOnly, nil
	default:
		return NotExists, nil
	}
}

func (r *Resolver) resolveCheckout(dir, source, target string, state State) (Action, error) {
	switch state {
	case NotExists:
		return ActionCreated, r.createFromSource(dir, source, target)
	case ExistsRemoteOnly:
		return ActionCheckedOutRemote, r.client.CheckoutTracking(dir, target)
	default:
		// A local branch takes precedence over its remote counterpart
		return ActionCheckedOutLocal, r.client.Checkout(dir, target)
	}
}

func (r *Resolver) resolveRecreate(dir, source, target string, state State) (Action, error) {
	if state == NotExists {
		return ActionCreated, r.createFromSource(dir, source, target)
	}

	// Move off the target before deleting it; the remote branch, if any,
	// is overwritten by the force push on publish
	if err := r.client.Checkout(dir, source); err != nil {
		return ActionRecreated, err
	}
	if state == ExistsLocalOnly || state == ExistsBoth {
		if err := r.client.DeleteBranch(dir, target); err != nil {
			return ActionRecreated, err
		}
	}
	return ActionRecreated, r.client.CreateBranch(dir, target)
}

func (r *Resolver) resolveReset(dir, source, target string, state State) (Action, error) {
	switch state {
	case NotExists:
		return ActionCreated, r.createFromSource(dir, source, target)
	case ExistsRemoteOnly:
		if err := r.client.CheckoutTracking(dir, target); err != nil {
			return ActionReset, err
		}
	default:
		if err := r.client.Checkout(dir, target); err != nil {
			return ActionReset, err
		}
	}
	return ActionReset, r.client.HardReset(dir, source)
}

// createFromSource checks out the source branch and creates the target at its tip
func (r *Resolver) createFromSource(dir, source, target string) error {
	if err := r.client.Checkout(dir, source); err != nil {
		return err
	}
	return r.client.CreateBranch(dir, target)
}
