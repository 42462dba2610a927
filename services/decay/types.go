// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package decay

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Severity classifies how damaging an unresolved safety gap is. The string
// values are part of the ledger's on-disk compatibility surface.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// UnmarshalYAML validates the severity at the persistence boundary so a
// malformed store is rejected instead of silently defaulting.
func (s *Severity) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	incoming := Severity(raw)
	if !incoming.Valid() {
		return fmt.Errorf("invalid value for Severity: %q", incoming)
	}
	*s = incoming
	return nil
}

// Source identifies where a regression test came from. Incident-derived tests
// decay slower than manually authored ones.
type Source string

const (
	SourceIncident Source = "incident"
	SourceNearMiss Source = "near_miss"
	SourceRedTeam  Source = "red_team"
	SourceManual   Source = "manual"
)

// SLOStatus is the aging compliance status of a single debt entry.
type SLOStatus string

const (
	SLOOk       SLOStatus = "ok"
	SLOWarning  SLOStatus = "warning"
	SLOEscalate SLOStatus = "escalate"
	SLOBlock    SLOStatus = "block"
)

// AgingThresholds holds the organizational SLO thresholds for debt aging.
// It is read-only configuration: never mutated at runtime.
type AgingThresholds struct {
	WarningDays       int `yaml:"warning_days" json:"warning_days"`
	EscalateDays      int `yaml:"escalate_days" json:"escalate_days"`
	BlockDaysCritical int `yaml:"block_days_critical" json:"block_days_critical"`
	BlockDaysHigh     int `yaml:"block_days_high" json:"block_days_high"`
	BlockDaysMedium   int `yaml:"block_days_medium" json:"block_days_medium"`
}

// DefaultAgingThresholds returns the stock SLO policy: warn after two weeks,
// escalate after a month, block at 45/60/90 days by severity.
func DefaultAgingThresholds() AgingThresholds {
	return AgingThresholds{
		WarningDays:       14,
		EscalateDays:      30,
		BlockDaysCritical: 45,
		BlockDaysHigh:     60,
		BlockDaysMedium:   90,
	}
}

// BlockThreshold returns the block deadline in days for a severity. Severities
// below high share the medium deadline.
func (a AgingThresholds) BlockThreshold(severity Severity) int {
	switch severity {
	case SeverityCritical:
		return a.BlockDaysCritical
	case SeverityHigh:
		return a.BlockDaysHigh
	default:
		return a.BlockDaysMedium
	}
}

// Config holds the relevance-decay tuning knobs.
type Config struct {
	// HalfLifeDays is the number of days after which an untriggered test's
	// base relevance halves.
	HalfLifeDays float64 `yaml:"half_life_days" json:"half_life_days"`

	// RetirementThreshold is the relevance score below which a test becomes
	// a retirement candidate.
	RetirementThreshold float64 `yaml:"retirement_threshold" json:"retirement_threshold"`

	// MinTriggersForRetirement guards against retiring tests that were never
	// exercised enough to prove themselves stale.
	MinTriggersForRetirement int `yaml:"min_triggers_for_retirement" json:"min_triggers_for_retirement"`
}

// DefaultConfig returns the stock decay policy: 90-day half life, retire below
// 0.1 relevance once a test has triggered at least 5 times.
func DefaultConfig() Config {
	return Config{
		HalfLifeDays:             90,
		RetirementThreshold:      0.1,
		MinTriggersForRetirement: 5,
	}
}

// RecordView is the minimal projection of a regression test record that the
// relevance formula needs. Callers translate their own record types into this
// view so the decay package stays a leaf dependency.
type RecordView struct {
	CreatedAt     string
	LastTriggered string
	TriggerCount  int
	Severity      Severity
	Source        Source
}

// severityMultipliers boosts relevance for tests guarding severe failure
// modes. Unknown severities fall back to 1.0.
var severityMultipliers = map[Severity]float64{
	SeverityCritical: 1.5,
	SeverityHigh:     1.2,
	SeverityMedium:   1.0,
	SeverityLow:      0.8,
}

// sourceMultipliers makes incident-derived tests decay slower than manual
// ones. Unknown sources fall back to 1.0.
var sourceMultipliers = map[Source]float64{
	SourceIncident: 1.3,
	SourceNearMiss: 1.2,
	SourceRedTeam:  1.0,
	SourceManual:   0.9,
}
