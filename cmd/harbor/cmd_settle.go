// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianHarbor/pkg/ux"
	"github.com/AleutianAI/AleutianHarbor/services/settlement"
)

// ===== SETTLE =====

var (
	settleReplayPath string
	settleDryRun     bool
)

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Settle verified mitigations against the ledger and exceptions",
	Long: `Settle a replay verification run: mark the debt entries for every
verified principle as mitigated and retire the policy exceptions that
covered them.

Both stores commit together or not at all. If the exception store fails
after the ledger committed, the ledger write is rolled back; a rollback
failure is reported as partial_failure so an operator can reconcile by
hand.`,
	Run: runSettle,
}

func runSettle(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputCfg()

	replayPath := settleReplayPath
	if replayPath == "" {
		replayPath = cfg.Stores.ReplayResults
	}

	replay, err := settlement.LoadReplayVerification(replayPath)
	if err != nil {
		os.Exit(OutputResult(out, "settle", start, nil, false, err))
	}

	result, err := newReconciler().Settle(cmd.Context(), replay, settlement.Options{DryRun: settleDryRun})
	if result == nil {
		// No result envelope to report, only the bare error.
		os.Exit(OutputResult(out, "settle", start, nil, false, err))
	}

	// A rolled-back or diverged settlement returns both an error and a
	// result; the per-store outcome in the result is what operators need.
	if !out.JSON && !out.Quiet {
		renderSettlement(result)
	}
	os.Exit(settleExitCode(out, start, result))
}

// settleExitCode emits the result envelope and maps the settlement status to
// an exit code. Anything short of a clean commit fails the pipeline step.
func settleExitCode(out OutputConfig, start time.Time, result *settlement.Result) int {
	code := OutputResult(out, "settle", start, result, false, nil)
	switch result.Status {
	case settlement.StatusSuccess, settlement.StatusNoAction:
		return code
	default:
		if code != CLIExitSuccess {
			return code
		}
		return CLIExitError
	}
}

func renderSettlement(result *settlement.Result) {
	switch result.Status {
	case settlement.StatusSuccess:
		if result.DryRun {
			ux.Title("Settlement (dry run)")
		} else {
			ux.Title("Settlement")
		}
		ux.Success(fmt.Sprintf("%d debt entries mitigated, %d exceptions removed",
			result.DebtsUpdated, result.ExceptionsRemoved))
		if len(result.MitigatedPrinciples) > 0 {
			ux.Info("principles: " + strings.Join(result.MitigatedPrinciples, ", "))
		}
	case settlement.StatusNoAction:
		ux.Warning("No verified mitigations to settle")
	case settlement.StatusRolledBack:
		ux.Error("Settlement rolled back: " + result.ExceptionsError)
	default:
		ux.Error("Settlement partially failed, stores may disagree")
		if result.LedgerError != "" {
			ux.Error("ledger: " + result.LedgerError)
		}
		if result.ExceptionsError != "" {
			ux.Error("exceptions: " + result.ExceptionsError)
		}
	}
}

func init() {
	settleCmd.Flags().StringVar(&settleReplayPath, "replay", "", "replay verification file (default from config)")
	settleCmd.Flags().BoolVar(&settleDryRun, "dry-run", false, "compute the settlement without writing either store")
}
