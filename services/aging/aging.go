// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package aging

import (
	"fmt"
	"time"

	"github.com/AleutianAI/AleutianHarbor/services/debtledger"
	"github.com/AleutianAI/AleutianHarbor/services/decay"
)

// Entry is the aging analysis for a single debt entry.
type Entry struct {
	DebtID           string                      `json:"debt_id"`
	Principle        string                      `json:"principle"`
	Severity         decay.Severity              `json:"severity"`
	CreatedAt        string                      `json:"created_at"`
	AgeDays          int                         `json:"age_days"`
	SLOStatus        decay.SLOStatus             `json:"slo_status"`
	DaysUntilBlock   int                         `json:"days_until_block"`
	Owner            string                      `json:"owner,omitempty"`
	MitigationStatus debtledger.MitigationStatus `json:"mitigation_status"`
}

// Analyze derives the aging status of every entry still carrying debt.
// Mitigated and accepted entries are skipped: terminal debt has no aging
// exposure. Entries with missing or malformed created_at timestamps are
// treated as created now (age 0), so a corrupt timestamp degrades to an OK
// status rather than a spurious block.
func Analyze(ledger *debtledger.Ledger, thresholds decay.AgingThresholds, now time.Time) []Entry {
	var entries []Entry
	for i := range ledger.Entries {
		debt := &ledger.Entries[i]
		if debt.MitigationStatus.Terminal() {
			continue
		}

		ageDays := decay.AgeDays(debt.CreatedAt, now)
		status, daysUntilBlock := decay.SLOStatusFor(ageDays, debt.Severity, thresholds)

		entries = append(entries, Entry{
			DebtID:           debt.DebtID,
			Principle:        debt.Principle,
			Severity:         debt.Severity,
			CreatedAt:        debt.CreatedAt,
			AgeDays:          ageDays,
			SLOStatus:        status,
			DaysUntilBlock:   daysUntilBlock,
			Owner:            debt.Owner(),
			MitigationStatus: debt.MitigationStatus,
		})
	}
	return entries
}

// Enforce flips blocks_release on every active entry past its block deadline
// and records why. Entries already blocking are left alone, so running
// enforcement twice is a no-op. Returns the number of entries updated; the
// caller persists the ledger when the count is positive.
func Enforce(ledger *debtledger.Ledger, thresholds decay.AgingThresholds, now time.Time) int {
	updated := 0
	for i := range ledger.Entries {
		debt := &ledger.Entries[i]
		if debt.MitigationStatus.Terminal() {
			continue
		}

		ageDays := decay.AgeDays(debt.CreatedAt, now)
		status, _ := decay.SLOStatusFor(ageDays, debt.Severity, thresholds)

		if status == decay.SLOBlock && !debt.BlocksRelease {
			debt.BlocksRelease = true
			debt.BlockReason = fmt.Sprintf("SLO exceeded: %d days without resolution", ageDays)
			updated++
		}
	}
	return updated
}

// GateExitCode maps the analysis onto CI process exit codes: 2 when any entry
// is blocking, 1 when any entry reached escalation, 0 otherwise. Warnings do
// not fail the gate.
func GateExitCode(entries []Entry) int {
	code := 0
	for _, e := range entries {
		switch e.SLOStatus {
		case decay.SLOBlock:
			return 2
		case decay.SLOEscalate:
			code = 1
		}
	}
	return code
}
