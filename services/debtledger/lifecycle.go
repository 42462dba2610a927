// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package debtledger

import (
	"fmt"
	"time"

	"github.com/AleutianAI/AleutianHarbor/pkg/logging"
	"github.com/AleutianAI/AleutianHarbor/services/decay"
)

// Manager owns every mutation of the debt ledger. Each operation runs the
// full load → mutate → recalculate → save cycle through the store, so the
// persisted summary can never drift from the entry set.
type Manager struct {
	store *Store
	log   *logging.Logger

	// now is injectable for deterministic tests.
	now func() time.Time
}

// NewManager creates a lifecycle manager over the given store. A nil logger
// falls back to the package default.
func NewManager(store *Store, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.Default()
	}
	return &Manager{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the manager's notion of now. Test hook.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Store exposes the underlying ledger store for read-only callers.
func (m *Manager) Store() *Store {
	return m.store
}

func (m *Manager) timestamp() string {
	return m.now().Format(time.RFC3339)
}

// CreateDebtParams carries everything needed to open a debt entry from an
// analyzed incident.
type CreateDebtParams struct {
	IncidentID   string
	Principle    string
	MechanismGap string
	Severity     decay.Severity
	ReleaseID    string
	Evidence     []string
	Owner        string
}

// CreateDebtFromIncident opens a new debt entry for an incident-derived gap.
//
// The debt id is synthesized from the creation date and the incident id
// (AD-YYYYMMDD-<incident>), which makes the operation idempotent per incident
// and day: a duplicate submission returns the existing entry with any new
// evidence unioned in instead of appending a logical duplicate.
//
// Critical and high severity entries block release from the moment they are
// created; medium and low accrue debt without gating.
func (m *Manager) CreateDebtFromIncident(p CreateDebtParams) (*DebtEntry, error) {
	if p.IncidentID == "" {
		return nil, &ValidationError{Wrapped: fmt.Errorf("incident id is required")}
	}
	if p.Principle == "" {
		return nil, &ValidationError{Wrapped: fmt.Errorf("principle is required")}
	}
	if !p.Severity.Valid() {
		return nil, &ValidationError{Wrapped: fmt.Errorf("severity %q is not one of critical/high/medium/low", p.Severity)}
	}

	now := m.now()
	debtID := fmt.Sprintf("AD-%s-%s", now.Format("20060102"), p.IncidentID)

	var result DebtEntry
	err := m.store.Mutate(func(ledger *Ledger) error {
		if existing := ledger.FindByID(debtID); existing != nil {
			m.log.Warn("duplicate debt submission, reusing existing entry",
				"debt_id", debtID, "incident_id", p.IncidentID)
			existing.Evidence.Union(p.Evidence)
			RecalculateSummary(ledger, now)
			result = *existing
			return nil
		}

		entry := DebtEntry{
			DebtID:              debtID,
			CreatedAt:           now.Format(time.RFC3339),
			IntroducedByRelease: p.ReleaseID,
			Principle:           p.Principle,
			ViolationType:       "incident_derived",
			MechanismGap:        p.MechanismGap,
			Description:         fmt.Sprintf("Gap identified from incident %s", p.IncidentID),
			Severity:            p.Severity,
			DebtAmount:          AmountForSeverity(p.Severity),
			BlocksRelease:       p.Severity == decay.SeverityCritical || p.Severity == decay.SeverityHigh,
			Evidence: Evidence{
				SourceIncident:  p.IncidentID,
				RegressionTests: append([]string(nil), p.Evidence...),
			},
			MitigationStatus: StatusOpen,
			PlannedResolution: &PlannedResolution{
				Owner: p.Owner,
				ETA:   "TBD",
			},
		}
		if entry.PlannedResolution.Owner == "" {
			entry.PlannedResolution.Owner = "Safety Engineering"
		}

		ledger.Entries = append(ledger.Entries, entry)
		RecalculateSummary(ledger, now)
		result = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("debt entry created",
		"debt_id", result.DebtID,
		"principle", result.Principle,
		"severity", string(result.Severity),
		"blocks_release", result.BlocksRelease,
	)
	return &result, nil
}

// MarkMitigated closes the debt entry referencing the incident after its fix
// was verified. It returns ErrNotFound when no entry matches or the matching
// entry is already mitigated; both are "nothing to do" results for CI
// callers. New evidence is unioned into the existing set, so repeating the
// call with the same evidence leaves the ledger unchanged.
func (m *Manager) MarkMitigated(incidentID string, evidence []string, mitigatedBy string) (*DebtEntry, error) {
	if mitigatedBy == "" {
		mitigatedBy = "regression_promotion"
	}

	now := m.now()
	var result DebtEntry
	err := m.store.Mutate(func(ledger *Ledger) error {
		entry := ledger.FindByIncident(incidentID)
		if entry == nil {
			return fmt.Errorf("%w for incident %s", ErrNotFound, incidentID)
		}
		if entry.MitigationStatus == StatusMitigated {
			return fmt.Errorf("%w: %s already mitigated", ErrNotFound, entry.DebtID)
		}

		ts := now.Format(time.RFC3339)
		entry.MitigationStatus = StatusMitigated
		entry.MitigatedAt = ts
		entry.MitigatedBy = mitigatedBy
		entry.BlocksRelease = false
		entry.Evidence.Union(evidence)
		entry.Evidence.MitigationVerifiedAt = ts

		RecalculateSummary(ledger, now)
		result = *entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("debt entry mitigated",
		"debt_id", result.DebtID,
		"incident_id", incidentID,
		"mitigated_by", mitigatedBy,
	)
	return &result, nil
}

// MarkAccepted records an explicit risk acceptance for a debt entry. The
// entry stops blocking release and is excluded from total active debt, but
// its recorded amount stays visible for audit.
func (m *Manager) MarkAccepted(debtID, approvedBy, expires string, conditions []string) (*DebtEntry, error) {
	now := m.now()
	var result DebtEntry
	err := m.store.Mutate(func(ledger *Ledger) error {
		entry := ledger.FindByID(debtID)
		if entry == nil {
			return fmt.Errorf("%w for debt id %s", ErrNotFound, debtID)
		}

		entry.MitigationStatus = StatusAccepted
		entry.BlocksRelease = false
		entry.RiskAcceptance = &RiskAcceptance{
			ApprovedBy: approvedBy,
			ApprovedAt: now.Format(time.RFC3339),
			Expires:    expires,
			Conditions: append([]string(nil), conditions...),
		}

		RecalculateSummary(ledger, now)
		result = *entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.log.Info("debt entry accepted",
		"debt_id", result.DebtID,
		"approved_by", approvedBy,
		"expires", expires,
	)
	return &result, nil
}

// MitigatePrinciples transitions every open entry for the given principles to
// mitigated, stamping the verifying incident and run. It mutates the ledger
// in memory only; the settlement reconciler owns persistence because the
// ledger write must commit together with the exception-store write.
func (m *Manager) MitigatePrinciples(ledger *Ledger, principles map[string]bool, incidentID, runID string) int {
	now := m.now()
	ts := now.Format(time.RFC3339)
	updated := 0

	for i := range ledger.Entries {
		entry := &ledger.Entries[i]
		if !principles[entry.Principle] || entry.MitigationStatus != StatusOpen {
			continue
		}
		entry.MitigationStatus = StatusMitigated
		entry.MitigatedByIncident = incidentID
		entry.VerifiedInRun = runID
		entry.MitigatedAt = ts
		entry.BlocksRelease = false
		updated++
	}

	if updated > 0 {
		RecalculateSummary(ledger, now)
	}
	return updated
}

// RecalculateSummary recomputes the derived summary from the entry set. It is
// the only writer of summary fields besides the store's version stamping.
func RecalculateSummary(ledger *Ledger, now time.Time) {
	var total float64
	active, mitigated := 0, 0

	for i := range ledger.Entries {
		entry := &ledger.Entries[i]
		if entry.Active() {
			active++
			total += entry.DebtAmount
		}
		if entry.MitigationStatus == StatusMitigated {
			mitigated++
		}
	}

	total = roundDebt(total)
	status := DebtOK
	switch {
	case total >= BlockThreshold:
		status = DebtBlock
	case total >= WarnThreshold:
		status = DebtWarn
	}

	ledger.Summary.TotalActiveDebt = total
	ledger.Summary.DebtStatus = status
	ledger.Summary.ActiveEntries = active
	ledger.Summary.MitigatedEntries = mitigated
	ledger.Summary.LastUpdated = now.Format(time.RFC3339)
}
