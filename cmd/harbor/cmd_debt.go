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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianHarbor/pkg/ux"
	"github.com/AleutianAI/AleutianHarbor/services/debtledger"
	"github.com/AleutianAI/AleutianHarbor/services/decay"
)

// ===== DEBT CREATE =====

var (
	debtCreateIncident  string
	debtCreatePrinciple string
	debtCreateGap       string
	debtCreateSeverity  string
	debtCreateRelease   string
	debtCreateEvidence  []string
	debtCreateOwner     string
)

var debtCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a debt entry from a safety incident",
	Long: `Open an alignment debt entry for an incident-derived mechanism gap.

The operation is idempotent per incident and day: re-running it returns the
existing entry and merges any new evidence into it.`,
	Run: runDebtCreate,
}

func runDebtCreate(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputCfg()

	severity := decay.Severity(debtCreateSeverity)
	entry, err := newDebtManager().CreateDebtFromIncident(debtledger.CreateDebtParams{
		IncidentID:   debtCreateIncident,
		Principle:    debtCreatePrinciple,
		MechanismGap: debtCreateGap,
		Severity:     severity,
		ReleaseID:    debtCreateRelease,
		Evidence:     debtCreateEvidence,
		Owner:        debtCreateOwner,
	})
	if err != nil {
		os.Exit(OutputResult(out, "debt create", start, nil, false, err))
	}

	if !out.JSON && !out.Quiet {
		ux.Success(debtCreatedMessage(entry))
		ux.Info(fmt.Sprintf("principle=%s severity=%s amount=%.2f", entry.Principle, entry.Severity, entry.DebtAmount))
	}
	os.Exit(OutputResult(out, "debt create", start, entry, false, nil))
}

func debtCreatedMessage(entry *debtledger.DebtEntry) string {
	return fmt.Sprintf("Debt entry %s recorded for %s", entry.DebtID, entry.Evidence.SourceIncident)
}

// ===== DEBT MITIGATE =====

var (
	debtMitigateEvidence []string
	debtMitigateBy       string
)

var debtMitigateCmd = &cobra.Command{
	Use:   "mitigate <incident_id>",
	Short: "Mark the debt for an incident as mitigated",
	Args:  cobra.ExactArgs(1),
	Run:   runDebtMitigate,
}

func runDebtMitigate(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputCfg()
	incidentID := args[0]

	entry, err := newDebtManager().MarkMitigated(incidentID, debtMitigateEvidence, debtMitigateBy)
	if errors.Is(err, debtledger.ErrNotFound) {
		// Recoverable in CI: nothing to mitigate is not a failure.
		result := NoActionResult{
			Status:  "no_action",
			Message: fmt.Sprintf("no active debt entry references incident %s", incidentID),
		}
		if !out.JSON && !out.Quiet {
			ux.Warning(result.Message)
		}
		os.Exit(OutputResult(out, "debt mitigate", start, result, false, nil))
	}
	if err != nil {
		os.Exit(OutputResult(out, "debt mitigate", start, nil, false, err))
	}

	if !out.JSON && !out.Quiet {
		ux.Success(fmt.Sprintf("Debt entry %s mitigated", entry.DebtID))
	}
	os.Exit(OutputResult(out, "debt mitigate", start, entry, false, nil))
}

// ===== DEBT ACCEPT =====

var (
	debtAcceptApprovedBy string
	debtAcceptExpires    string
	debtAcceptConditions []string
)

var debtAcceptCmd = &cobra.Command{
	Use:   "accept <debt_id>",
	Short: "Accept a debt entry as a known, signed-off risk",
	Long: `Accept a debt entry. Accepted debt keeps its amount on the books but no
longer counts toward release gating. Requires an approver and an expiry.`,
	Args: cobra.ExactArgs(1),
	Run:  runDebtAccept,
}

func runDebtAccept(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputCfg()

	entry, err := newDebtManager().MarkAccepted(args[0], debtAcceptApprovedBy, debtAcceptExpires, debtAcceptConditions)
	if errors.Is(err, debtledger.ErrNotFound) {
		result := NoActionResult{
			Status:  "no_action",
			Message: fmt.Sprintf("no debt entry with id %s", args[0]),
		}
		if !out.JSON && !out.Quiet {
			ux.Warning(result.Message)
		}
		os.Exit(OutputResult(out, "debt accept", start, result, false, nil))
	}
	if err != nil {
		os.Exit(OutputResult(out, "debt accept", start, nil, false, err))
	}

	if !out.JSON && !out.Quiet {
		ux.Success(fmt.Sprintf("Debt entry %s accepted by %s", entry.DebtID, debtAcceptApprovedBy))
	}
	os.Exit(OutputResult(out, "debt accept", start, entry, false, nil))
}

// ===== DEBT REPORT =====

var debtReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the full ledger with its summary",
	Run:   runDebtReport,
}

func runDebtReport(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputCfg()

	ledger, err := newDebtManager().Store().Load()
	if err != nil {
		os.Exit(OutputResult(out, "debt report", start, nil, false, err))
	}

	if !out.JSON && !out.Quiet {
		renderLedger(ledger)
	}
	os.Exit(OutputResult(out, "debt report", start, ledger, false, nil))
}

func renderLedger(ledger *debtledger.Ledger) {
	ux.Title("Alignment Debt Ledger")
	summary := fmt.Sprintf("total active debt: %.3f\ndebt status:       %s\nentries:           %d",
		ledger.Summary.TotalActiveDebt, ledger.Summary.DebtStatus, len(ledger.Entries))
	ux.Box("Summary", summary)

	for i := range ledger.Entries {
		entry := &ledger.Entries[i]
		icon := ux.IconPending
		switch {
		case entry.BlocksRelease:
			icon = ux.IconError
		case entry.MitigationStatus.Terminal():
			icon = ux.IconSuccess
		}
		detail := fmt.Sprintf("%s %s %s", entry.Severity, entry.Principle, entry.MitigationStatus)
		ux.StatusLine(entry.DebtID, icon, detail)
	}
}

// ===== DEBT BLOCKING =====

var debtBlockingCmd = &cobra.Command{
	Use:   "blocking",
	Short: "List entries currently blocking release",
	Long: `List debt entries whose blocks_release flag is set. Exits 1 when any
exist, so CI can gate on it directly.`,
	Run: runDebtBlocking,
}

func runDebtBlocking(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputCfg()

	ledger, err := newDebtManager().Store().Load()
	if err != nil {
		os.Exit(OutputResult(out, "debt blocking", start, nil, false, err))
	}

	blocking := ledger.BlockingEntries()
	if !out.JSON && !out.Quiet {
		if len(blocking) == 0 {
			ux.Success("No debt entries block release")
		} else {
			ux.Error(fmt.Sprintf("%d debt entries block release", len(blocking)))
			for _, entry := range blocking {
				ux.StatusLine(entry.DebtID, ux.IconError, entry.BlockReason)
			}
		}
	}
	os.Exit(OutputResult(out, "debt blocking", start, blocking, len(blocking) > 0, nil))
}

func init() {
	debtCreateCmd.Flags().StringVar(&debtCreateIncident, "incident", "", "incident id the debt derives from (required)")
	debtCreateCmd.Flags().StringVar(&debtCreatePrinciple, "principle", "", "constitution principle violated (required)")
	debtCreateCmd.Flags().StringVar(&debtCreateGap, "gap", "", "mechanism gap description (required)")
	debtCreateCmd.Flags().StringVar(&debtCreateSeverity, "severity", "medium", "severity: critical, high, medium, low")
	debtCreateCmd.Flags().StringVar(&debtCreateRelease, "release", "", "release the debt was introduced in")
	debtCreateCmd.Flags().StringSliceVar(&debtCreateEvidence, "evidence", nil, "regression test ids as evidence")
	debtCreateCmd.Flags().StringVar(&debtCreateOwner, "owner", "", "owning team (default Safety Engineering)")
	debtCreateCmd.MarkFlagRequired("incident")
	debtCreateCmd.MarkFlagRequired("principle")
	debtCreateCmd.MarkFlagRequired("gap")

	debtMitigateCmd.Flags().StringSliceVar(&debtMitigateEvidence, "evidence", nil, "regression test ids proving the mitigation")
	debtMitigateCmd.Flags().StringVar(&debtMitigateBy, "by", "", "mitigation mechanism (default regression_promotion)")

	debtAcceptCmd.Flags().StringVar(&debtAcceptApprovedBy, "approved-by", "", "approver (required)")
	debtAcceptCmd.Flags().StringVar(&debtAcceptExpires, "expires", "", "acceptance expiry date, YYYY-MM-DD (required)")
	debtAcceptCmd.Flags().StringSliceVar(&debtAcceptConditions, "condition", nil, "conditions attached to the acceptance")
	debtAcceptCmd.MarkFlagRequired("approved-by")
	debtAcceptCmd.MarkFlagRequired("expires")

	debtCmd.AddCommand(debtCreateCmd)
	debtCmd.AddCommand(debtMitigateCmd)
	debtCmd.AddCommand(debtAcceptCmd)
	debtCmd.AddCommand(debtReportCmd)
	debtCmd.AddCommand(debtBlockingCmd)
}
