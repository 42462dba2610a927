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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianHarbor/pkg/logging"
)

func step(name string, execErr error, compensated *bool, compErr error) commitStep {
	return commitStep{
		name:    name,
		execute: func(context.Context) error { return execErr },
		compensate: func(context.Context) error {
			if compErr != nil {
				return compErr
			}
			*compensated = true
			return nil
		},
	}
}

func TestRunCommitCleanCommitStaysCommitted(t *testing.T) {
	var first, second bool
	outcome := runCommit(context.Background(), logging.Default(), []commitStep{
		step("first", nil, &first, nil),
		step("second", nil, &second, nil),
	})

	require.NoError(t, outcome.stepErr)
	assert.True(t, outcome.committed("first"))
	assert.True(t, outcome.committed("second"))
	assert.False(t, outcome.rolledBack("first"), "nothing was compensated on a clean commit")
	assert.False(t, outcome.rolledBack("second"))
	assert.False(t, first)
	assert.False(t, second)
}

func TestRunCommitCompensatesCompletedSteps(t *testing.T) {
	var first, second bool
	outcome := runCommit(context.Background(), logging.Default(), []commitStep{
		step("first", nil, &first, nil),
		step("second", errors.New("disk full"), &second, nil),
	})

	require.Error(t, outcome.stepErr)
	assert.Equal(t, "second", outcome.failedStep)
	assert.True(t, outcome.committed("first"))
	assert.False(t, outcome.committed("second"))
	assert.True(t, outcome.rolledBack("first"))
	assert.True(t, first, "compensation must run for the completed step")
	assert.Empty(t, outcome.compensationErrs)
}

func TestRunCommitReportsFailedCompensation(t *testing.T) {
	var first bool
	outcome := runCommit(context.Background(), logging.Default(), []commitStep{
		step("first", nil, &first, errors.New("rollback write failed")),
		{name: "second", execute: func(context.Context) error { return errors.New("disk full") }},
	})

	require.Error(t, outcome.stepErr)
	assert.True(t, outcome.committed("first"))
	assert.False(t, outcome.rolledBack("first"), "a failed rollback leaves the step committed")
	assert.Contains(t, outcome.compensationErrs, "first")
	assert.False(t, first)
}
