// Copyright © 2026 ソニーレベル <C7kali3@gmail.com>
// Command outcome types

package command

import (
	"time"

	"github.com/sony-level/batchgitops/internal/config"
	"github.com/sony-level/batchgitops/internal/pipeline"
)

// Outcome is the captured result of one command invocation.
type Outcome struct {
	Command  string
	Scope    config.Scope
	Success  bool
	TimedOut bool
	ExitCode int
	Duration time.Duration
	Stdout   string
	Stderr   string
	Err      *pipeline.Error // set when Success is false
}

// Failed counts the failures in a batch of outcomes
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if !o.Success {
			n++
		}
	}
	return n
}
