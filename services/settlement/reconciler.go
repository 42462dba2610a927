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
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianHarbor/pkg/logging"
	"github.com/AleutianAI/AleutianHarbor/services/debtledger"
)

const (
	stepCommitLedger     = "commit_debt_ledger"
	stepCommitExceptions = "commit_exception_store"
)

// Options tunes a single settlement run.
type Options struct {
	// DryRun computes and returns the settlement summary without writing
	// either store.
	DryRun bool
}

// Reconciler settles verified mitigations against the debt ledger and the
// policy-exception store. It is the only two-store writer in the system.
type Reconciler struct {
	manager    *debtledger.Manager
	exceptions ExceptionStore
	log        *logging.Logger

	now func() time.Time
}

// NewReconciler wires a settlement reconciler over the ledger lifecycle
// manager and an exception store. A nil logger falls back to the package
// default.
func NewReconciler(manager *debtledger.Manager, exceptions ExceptionStore, log *logging.Logger) *Reconciler {
	if log == nil {
		log = logging.Default()
	}
	return &Reconciler{
		manager:    manager,
		exceptions: exceptions,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the reconciler's notion of now. Test hook.
func (r *Reconciler) SetClock(now func() time.Time) {
	r.now = now
}

// Settle applies a replay verification to both stores.
//
// An empty pass set is a valid, common outcome and returns a no_action
// result without touching either store. Otherwise the ledger and exception
// mutations are computed in memory first, then committed as a compensated
// two-phase write: ledger first, exceptions second, with the ledger restored
// to its pre-settlement snapshot if the exception write fails. The returned
// Result always states per store whether the write stuck.
func (r *Reconciler) Settle(ctx context.Context, replay *ReplayVerification, opts Options) (*Result, error) {
	principles := replay.MitigatedPrinciples()
	if len(principles) == 0 {
		r.log.Info("settlement skipped, no verified mitigations",
			"incident_id", replay.IncidentID)
		return &Result{
			Status:  StatusNoAction,
			Message: "No verified mitigations found in replay results",
			DryRun:  opts.DryRun,
		}, nil
	}

	incidentID := replay.IncidentID
	if incidentID == "" {
		incidentID = "unknown"
	}
	runID := replay.VerificationRunID
	if runID == "" {
		runID = uuid.NewString()
	}

	store := r.manager.Store()
	ledger, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("settlement aborted: %w", err)
	}
	// Independent load for the rollback snapshot, so the mutation below
	// cannot alias into it.
	snapshot, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("settlement aborted: %w", err)
	}
	exceptionSet, err := r.exceptions.Load()
	if err != nil {
		return nil, fmt.Errorf("settlement aborted: %w", err)
	}

	now := r.now()
	debtsUpdated := r.manager.MitigatePrinciples(ledger, principles, incidentID, runID)
	exceptionsRemoved := exceptionSet.RemoveForPrinciples(principles, now)

	result := &Result{
		IncidentID:          incidentID,
		VerificationRunID:   runID,
		MitigatedPrinciples: sortedKeys(principles),
		DebtsUpdated:        debtsUpdated,
		ExceptionsRemoved:   exceptionsRemoved,
		DryRun:              opts.DryRun,
	}

	if opts.DryRun {
		result.Status = StatusSuccess
		r.log.Info("settlement dry run",
			"incident_id", incidentID,
			"debts_updated", debtsUpdated,
			"exceptions_removed", exceptionsRemoved,
		)
		return result, nil
	}

	outcome := runCommit(ctx, r.log, []commitStep{
		{
			name:    stepCommitLedger,
			execute: func(context.Context) error { return store.Save(ledger) },
			compensate: func(context.Context) error {
				return store.Mutate(func(current *debtledger.Ledger) error {
					version := current.Summary.Version
					current.RunID = snapshot.RunID
					current.GeneratedAt = snapshot.GeneratedAt
					current.Entries = snapshot.Entries
					current.Summary = snapshot.Summary
					current.Summary.Version = version
					return nil
				})
			},
		},
		{
			name:    stepCommitExceptions,
			execute: func(context.Context) error { return r.exceptions.Save(exceptionSet) },
		},
	})

	result.LedgerCommitted = outcome.committed(stepCommitLedger) && !outcome.rolledBack(stepCommitLedger)
	result.ExceptionsCommitted = outcome.committed(stepCommitExceptions)

	if outcome.stepErr == nil {
		result.Status = StatusSuccess
		r.log.Info("settlement committed",
			"incident_id", incidentID,
			"verification_run_id", runID,
			"debts_updated", debtsUpdated,
			"exceptions_removed", exceptionsRemoved,
		)
		return result, nil
	}

	switch outcome.failedStep {
	case stepCommitLedger:
		result.LedgerError = outcome.stepErr.Error()
	case stepCommitExceptions:
		result.ExceptionsError = outcome.stepErr.Error()
	}

	if err, diverged := outcome.compensationErrs[stepCommitLedger]; diverged {
		// The ledger commit stuck and could not be undone while the
		// exception write was lost. Surface both facts loudly.
		result.Status = StatusPartialFailure
		result.LedgerError = fmt.Sprintf("rollback failed, ledger remains committed: %v", err)
		return result, fmt.Errorf("settlement diverged: %w", outcome.stepErr)
	}

	result.Status = StatusRolledBack
	result.Message = "settlement aborted, all committed stores were rolled back"
	return result, outcome.stepErr
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
