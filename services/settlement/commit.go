// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package settlement

import (
	"context"
	"fmt"

	"github.com/AleutianAI/AleutianHarbor/pkg/logging"
)

// commitStep is one phase of the two-store commit with its rollback action.
//
// Compensate must be idempotent and must not fail on already-rolled-back
// state; it runs only when a later step fails.
type commitStep struct {
	name       string
	execute    func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// commitOutcome reports how far a commit got and what went wrong.
type commitOutcome struct {
	completed  []string
	failedStep string
	stepErr    error

	// compensated names the steps whose rollback ran and succeeded. On a
	// clean commit nothing is compensated, so committed steps stay committed.
	compensated map[string]bool

	// compensationErrs holds rollback failures per compensated step.
	// A non-empty map means the stores have diverged.
	compensationErrs map[string]error
}

func (o *commitOutcome) committed(name string) bool {
	for _, c := range o.completed {
		if c == name {
			return true
		}
	}
	return false
}

// rolledBack reports whether the named step was undone cleanly.
func (o *commitOutcome) rolledBack(name string) bool {
	return o.compensated[name]
}

// runCommit executes steps in order. On the first failure it compensates the
// completed steps in reverse order and stops. Compensation errors are
// collected, not fatal: every completed step gets its rollback attempt even
// if an earlier one failed.
func runCommit(ctx context.Context, log *logging.Logger, steps []commitStep) *commitOutcome {
	outcome := &commitOutcome{
		compensated:      make(map[string]bool),
		compensationErrs: make(map[string]error),
	}

	var done []commitStep
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			outcome.failedStep = step.name
			outcome.stepErr = fmt.Errorf("commit cancelled before %s: %w", step.name, err)
			break
		}

		log.Debug("commit step starting", "step", step.name)
		if err := step.execute(ctx); err != nil {
			outcome.failedStep = step.name
			outcome.stepErr = fmt.Errorf("commit step %s: %w", step.name, err)
			log.Error("commit step failed", "step", step.name, "error", err)
			break
		}
		done = append(done, step)
		outcome.completed = append(outcome.completed, step.name)
	}

	if outcome.stepErr == nil {
		return outcome
	}

	for i := len(done) - 1; i >= 0; i-- {
		step := done[i]
		if step.compensate == nil {
			continue
		}
		log.Warn("compensating commit step", "step", step.name)
		if err := step.compensate(ctx); err != nil {
			outcome.compensationErrs[step.name] = err
			log.Error("compensation failed, stores have diverged",
				"step", step.name, "error", err)
			continue
		}
		outcome.compensated[step.name] = true
	}
	return outcome
}
