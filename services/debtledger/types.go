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
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianHarbor/services/decay"
)

// MitigationStatus is the lifecycle state of a debt entry. The string values
// round-trip through the ledger file and are part of the compatibility
// surface.
type MitigationStatus string

const (
	StatusOpen       MitigationStatus = "open"
	StatusInProgress MitigationStatus = "in_progress"
	StatusMitigated  MitigationStatus = "mitigated"
	StatusAccepted   MitigationStatus = "accepted"
	StatusExpired    MitigationStatus = "expired"
)

// Valid reports whether s is a known lifecycle state.
func (s MitigationStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusMitigated, StatusAccepted, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether the entry no longer contributes active debt.
// Terminal entries have no aging exposure and never block release.
func (s MitigationStatus) Terminal() bool {
	return s == StatusMitigated || s == StatusAccepted
}

// UnmarshalYAML validates the status at the persistence boundary.
func (s *MitigationStatus) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	incoming := MitigationStatus(raw)
	if !incoming.Valid() {
		return fmt.Errorf("invalid value for MitigationStatus: %q", incoming)
	}
	*s = incoming
	return nil
}

// DebtStatus is the ledger-level gate derived from total active debt.
type DebtStatus string

const (
	DebtOK    DebtStatus = "OK"
	DebtWarn  DebtStatus = "WARN"
	DebtBlock DebtStatus = "BLOCK"
)

// Ledger-level debt thresholds. Total active debt at or above BlockThreshold
// gates the release outright.
const (
	WarnThreshold  = 0.10
	BlockThreshold = 0.25
)

// AmountForSeverity returns the severity-weighted cost a new entry adds to
// the ledger. Low severity shares the medium weight floor.
func AmountForSeverity(severity decay.Severity) float64 {
	switch severity {
	case decay.SeverityCritical:
		return 0.10
	case decay.SeverityHigh:
		return 0.05
	default:
		return 0.02
	}
}

// Evidence is the normalized evidence attachment on a debt entry: the source
// incident, an ordered set of regression test ids, and the timestamp at which
// the mitigation was independently verified.
//
// Older ledgers stored evidence as a bare list of test ids. UnmarshalYAML
// accepts that shape and normalizes it; the map shape is canonical on save.
type Evidence struct {
	SourceIncident       string   `yaml:"source_incident,omitempty" json:"source_incident,omitempty"`
	RegressionTests      []string `yaml:"regression_tests" json:"regression_tests"`
	MitigationVerifiedAt string   `yaml:"mitigation_verified_at,omitempty" json:"mitigation_verified_at,omitempty"`
}

// evidenceDoc mirrors Evidence without the custom unmarshaller so the
// mapping-shaped decode below doesn't recurse.
type evidenceDoc struct {
	SourceIncident       string   `yaml:"source_incident"`
	RegressionTests      []string `yaml:"regression_tests"`
	MitigationVerifiedAt string   `yaml:"mitigation_verified_at"`
}

// UnmarshalYAML normalizes both historical evidence shapes into the tagged
// struct. A sequence node is treated as the legacy bare test-id list.
func (e *Evidence) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var tests []string
		if err := value.Decode(&tests); err != nil {
			return fmt.Errorf("legacy evidence list: %w", err)
		}
		*e = Evidence{RegressionTests: tests}
		return nil
	case yaml.MappingNode:
		var doc evidenceDoc
		if err := value.Decode(&doc); err != nil {
			return err
		}
		*e = Evidence(doc)
		return nil
	default:
		return fmt.Errorf("evidence must be a list or a mapping, got yaml kind %d", value.Kind)
	}
}

// Union adds test ids to the evidence, preserving order and dropping
// duplicates. Repeated unions with the same ids are no-ops, which is what
// makes MarkMitigated idempotent.
func (e *Evidence) Union(tests []string) {
	seen := make(map[string]bool, len(e.RegressionTests))
	for _, id := range e.RegressionTests {
		seen[id] = true
	}
	for _, id := range tests {
		if id == "" || seen[id] {
			continue
		}
		e.RegressionTests = append(e.RegressionTests, id)
		seen[id] = true
	}
}

// References reports whether the evidence mentions the given incident id,
// either as the source incident or inside a test id.
func (e Evidence) References(incidentID string) bool {
	if incidentID == "" {
		return false
	}
	if e.SourceIncident == incidentID {
		return true
	}
	for _, id := range e.RegressionTests {
		if strings.Contains(id, incidentID) {
			return true
		}
	}
	return false
}

// RiskAcceptance records an explicit, expiring sign-off on unmitigated risk.
type RiskAcceptance struct {
	ApprovedBy string   `yaml:"approved_by" json:"approved_by"`
	ApprovedAt string   `yaml:"approved_at" json:"approved_at"`
	Expires    string   `yaml:"expires" json:"expires"`
	Conditions []string `yaml:"conditions,omitempty" json:"conditions,omitempty"`
}

// PlannedResolution tracks who owns the fix and when it is expected.
type PlannedResolution struct {
	Owner string `yaml:"owner,omitempty" json:"owner,omitempty"`
	ETA   string `yaml:"eta,omitempty" json:"eta,omitempty"`
}

// DebtEntry is one tracked safety gap.
type DebtEntry struct {
	DebtID               string             `yaml:"debt_id" json:"debt_id" validate:"required"`
	CreatedAt            string             `yaml:"created_at" json:"created_at" validate:"required"`
	IntroducedByRelease  string             `yaml:"introduced_by_release,omitempty" json:"introduced_by_release,omitempty"`
	Principle            string             `yaml:"principle" json:"principle" validate:"required"`
	ViolationType        string             `yaml:"violation_type,omitempty" json:"violation_type,omitempty"`
	MechanismGap         string             `yaml:"mechanism_gap" json:"mechanism_gap"`
	Description          string             `yaml:"description,omitempty" json:"description,omitempty"`
	Severity             decay.Severity     `yaml:"severity" json:"severity" validate:"required"`
	DebtAmount           float64            `yaml:"debt_amount" json:"debt_amount" validate:"gte=0"`
	BlocksRelease        bool               `yaml:"blocks_release" json:"blocks_release"`
	BlockReason          string             `yaml:"block_reason,omitempty" json:"block_reason,omitempty"`
	Evidence             Evidence           `yaml:"evidence" json:"evidence"`
	MitigationStatus     MitigationStatus   `yaml:"mitigation_status" json:"mitigation_status" validate:"required"`
	MitigatedAt          string             `yaml:"mitigated_at,omitempty" json:"mitigated_at,omitempty"`
	MitigatedBy          string             `yaml:"mitigated_by,omitempty" json:"mitigated_by,omitempty"`
	MitigatedByIncident  string             `yaml:"mitigated_by_incident,omitempty" json:"mitigated_by_incident,omitempty"`
	VerifiedInRun        string             `yaml:"verified_in_run,omitempty" json:"verified_in_run,omitempty"`
	RiskAcceptance       *RiskAcceptance    `yaml:"risk_acceptance,omitempty" json:"risk_acceptance,omitempty"`
	PlannedResolution    *PlannedResolution `yaml:"planned_resolution,omitempty" json:"planned_resolution,omitempty"`
}

// Active reports whether the entry still contributes to total active debt.
func (d *DebtEntry) Active() bool {
	return !d.MitigationStatus.Terminal()
}

// Owner returns the planned-resolution owner, if any.
func (d *DebtEntry) Owner() string {
	if d.PlannedResolution == nil {
		return ""
	}
	return d.PlannedResolution.Owner
}

// Summary is the derived ledger aggregate. It is recomputed by the lifecycle
// manager on every mutation and persisted atomically with the entries; no
// other code writes these fields.
type Summary struct {
	TotalActiveDebt  float64    `yaml:"total_active_debt" json:"total_active_debt"`
	DebtStatus       DebtStatus `yaml:"debt_status" json:"debt_status"`
	ActiveEntries    int        `yaml:"active_entries" json:"active_entries"`
	MitigatedEntries int        `yaml:"mitigated_entries" json:"mitigated_entries"`
	LastUpdated      string     `yaml:"last_updated" json:"last_updated"`

	// Version is an optimistic-concurrency stamp incremented on every save.
	// A save whose loaded version no longer matches the stored one is
	// rejected with ErrStaleVersion.
	Version int64 `yaml:"version" json:"version"`
}

// Ledger is the full persisted aggregate: an envelope, all entries, and the
// derived summary.
type Ledger struct {
	RunID       string      `yaml:"run_id,omitempty" json:"run_id,omitempty"`
	GeneratedAt string      `yaml:"generated_at,omitempty" json:"generated_at,omitempty"`
	Summary     Summary     `yaml:"summary" json:"summary"`
	Entries     []DebtEntry `yaml:"ledger" json:"ledger"`
}

// FindByID returns the entry with the given debt id, or nil.
func (l *Ledger) FindByID(debtID string) *DebtEntry {
	for i := range l.Entries {
		if l.Entries[i].DebtID == debtID {
			return &l.Entries[i]
		}
	}
	return nil
}

// FindByIncident returns the first entry whose debt id or evidence references
// the incident, or nil.
func (l *Ledger) FindByIncident(incidentID string) *DebtEntry {
	if incidentID == "" {
		return nil
	}
	for i := range l.Entries {
		entry := &l.Entries[i]
		if strings.Contains(entry.DebtID, incidentID) || entry.Evidence.References(incidentID) {
			return entry
		}
	}
	return nil
}

// FindByPrinciple returns all entries for a policy principle.
func (l *Ledger) FindByPrinciple(principle string) []*DebtEntry {
	var out []*DebtEntry
	for i := range l.Entries {
		if l.Entries[i].Principle == principle {
			out = append(out, &l.Entries[i])
		}
	}
	return out
}

// BlockingEntries returns the active entries currently gating release.
func (l *Ledger) BlockingEntries() []*DebtEntry {
	var out []*DebtEntry
	for i := range l.Entries {
		entry := &l.Entries[i]
		if entry.BlocksRelease && entry.Active() {
			out = append(out, entry)
		}
	}
	return out
}
