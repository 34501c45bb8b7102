// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Scoped command execution with timeout and captured output

package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sony-level/batchgitops/internal/config"
	"github.com/sony-level/batchgitops/internal/pipeline"
	"go.uber.org/zap"
)

// Scheduler runs configured commands in a working directory. The command
// list is already partitioned by scope at config-resolution time; the
// scheduler executes one partition, in declared order.
type Scheduler struct {
	timeout    time.Duration
	showOutput bool
	onError    config.OnError
	log        *zap.SugaredLogger
}

// NewScheduler creates a scheduler with a fixed per-command timeout
func NewScheduler(timeout time.Duration, showOutput bool, onError config.OnError, log *zap.SugaredLogger) *Scheduler {
	if timeout <= 0 {
		timeout = config.DefaultCommandTimeout
	}
	return &Scheduler{timeout: timeout, showOutput: showOutput, onError: onError, log: log}
}

// Run executes every command of one scope partition in dir, in declared
// order. Output is always captured; it is echoed to the operator only when
// show_command_output is set. A failed command does not block the rest of
// the partition unless the stop strategy is configured, in which case the
// remaining commands are not run. repoName is empty for the shared scope.
func (s *Scheduler) Run(repoName string, cmds []config.CommandSpec, dir string) []Outcome {
	outcomes := make([]Outcome, 0, len(cmds))

	for _, spec := range cmds {
		s.log.Infof("running command: %s", spec.Command)
		outcome := s.runOne(repoName, spec, dir)
		outcomes = append(outcomes, outcome)

		if outcome.Success {
			s.log.Infof("command succeeded (exit code 0, %v)", outcome.Duration.Round(time.Millisecond))
			continue
		}
		s.log.Errorf("command failed: %v", outcome.Err)
		if s.onError == config.OnErrorStop {
			s.log.Error("stop strategy configured, remaining commands in this scope are not run")
			break
		}
	}
	return outcomes
}

// runOne executes a single command through the shell, bounded by the timeout
func (s *Scheduler) runOne(repoName string, spec config.CommandSpec, dir string) Outcome {
	outcome := Outcome{Command: spec.Command, Scope: spec.Scope}
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", spec.Command)
	cmd.Dir = dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return s.failed(outcome, repoName, start, pipeline.ErrCommandExec,
			fmt.Errorf("failed to create stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return s.failed(outcome, repoName, start, pipeline.ErrCommandExec,
			fmt.Errorf("failed to create stderr pipe: %w", err))
	}

	if err := cmd.Start(); err != nil {
		return s.failed(outcome, repoName, start, pipeline.ErrCommandExec,
			fmt.Errorf("failed to start command: %w", err))
	}

	var stdoutBuf, stderrBuf strings.Builder
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.captureOutput(stdout, &stdoutBuf, os.Stdout)
	}()
	go func() {
		defer wg.Done()
		s.captureOutput(stderr, &stderrBuf, os.Stderr)
	}()
	wg.Wait()

	err = cmd.Wait()
	outcome.Duration = time.Since(start)
	outcome.Stdout = stdoutBuf.String()
	outcome.Stderr = stderrBuf.String()

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			outcome.TimedOut = true
			outcome.Err = pipeline.NewError(pipeline.ErrCommandTimeout, repoName, pipeline.StepCommand,
				fmt.Errorf("command timed out after %v: %s", s.timeout, spec.Command))
			return outcome
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
			outcome.Err = pipeline.NewError(pipeline.ErrCommandExec, repoName, pipeline.StepCommand,
				fmt.Errorf("command exited with code %d: %s", outcome.ExitCode, spec.Command))
			return outcome
		}
		outcome.Err = pipeline.NewError(pipeline.ErrCommandExec, repoName, pipeline.StepCommand, err)
		return outcome
	}

	outcome.Success = true
	return outcome
}

func (s *Scheduler) failed(outcome Outcome, repoName string, start time.Time, kind pipeline.ErrorKind, err error) Outcome {
	outcome.Duration = time.Since(start)
	outcome.Err = pipeline.NewError(kind, repoName, pipeline.StepCommand, err)
	return outcome
}

// captureOutput reads a pipe line by line into the capture buffer,
// echoing to the operator only when show_command_output is set
func (s *Scheduler) captureOutput(pipe io.ReadCloser, buf *strings.Builder, out io.Writer) {
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		buf.WriteString(line)
		buf.WriteString("\n")
		if s.showOutput {
			fmt.Fprintln(out, line)
		}
	}
}
