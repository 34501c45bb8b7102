// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Pipeline step names, statuses and kinded step errors

package pipeline

import "fmt"

// Step identifies one stage of the per-repository pipeline.
type Step string

const (
	StepFetch   Step = "fetch"
	StepBranch  Step = "branch"
	StepReplace Step = "replace"
	StepCommand Step = "command"
	StepPublish Step = "publish"
)

// Steps lists all pipeline steps in execution order.
var Steps = []Step{StepFetch, StepBranch, StepReplace, StepCommand, StepPublish}

// Status is the outcome of one step for one repository.
type Status int

const (
	// StatusNotRun means an earlier step failure (or a run abort) prevented the step
	StatusNotRun Status = iota
	// StatusSuccess means the step ran and succeeded
	StatusSuccess
	// StatusSkipped means the step was disabled by configuration
	StatusSkipped
	// StatusFailed means the step ran and failed
	StatusFailed
)

// String returns a human-readable status name
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "not-run"
	}
}

// ErrorKind classifies a step failure for reporting and policy decisions.
type ErrorKind int

const (
	ErrConfig ErrorKind = iota
	ErrFetch
	ErrBranch
	ErrReplacementIO
	ErrCommandTimeout
	ErrCommandExec
	ErrPublish
)

// String returns the kind name used in logs and reports
func (k ErrorKind) String() string {
	switch k {
	case ErrConfig:
		return "config"
	case ErrFetch:
		return "fetch"
	case ErrBranch:
		return "branch"
	case ErrReplacementIO:
		return "replacement-io"
	case ErrCommandTimeout:
		return "command-timeout"
	case ErrCommandExec:
		return "command-exec"
	case ErrPublish:
		return "publish"
	default:
		return "unknown"
	}
}

// Error is a step failure with repository and step context attached.
// Every error caught at a step boundary is wrapped into one of these so the
// final report can show where it happened.
type Error struct {
	Kind ErrorKind
	Repo string
	Step Step
	Err  error
}

// NewError wraps cause with kind and context
func NewError(kind ErrorKind, repo string, step Step, cause error) *Error {
	return &Error{Kind: kind, Repo: repo, Step: step, Err: cause}
}

func (e *Error) Error() string {
	if e.Repo == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s error in %s/%s: %v", e.Kind, e.Repo, e.Step, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As
func (e *Error) Unwrap() error {
	return e.Err
}
