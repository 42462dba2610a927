// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package relevance

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianHarbor/services/decay"
)

// ErrNotFound is returned when a test id is not in the registry.
var ErrNotFound = errors.New("test not found")

// ErrDuplicate is returned when registering a test id that already exists.
var ErrDuplicate = errors.New("test already registered")

// RetirementReason classifies why a test was taken out of the active suite.
type RetirementReason string

const (
	// ReasonLowRelevance marks a test that has not triggered in a long time.
	ReasonLowRelevance RetirementReason = "low_relevance"
	// ReasonSuperseded marks a test covered by a newer, better test.
	ReasonSuperseded RetirementReason = "superseded"
	// ReasonFalsePositiveProne marks a high-FP, low-signal test.
	ReasonFalsePositiveProne RetirementReason = "fp_prone"
	// ReasonArchObsolete marks a test against a retired model architecture.
	ReasonArchObsolete RetirementReason = "arch_obsolete"
	// ReasonRedundant marks coverage already held by other tests.
	ReasonRedundant RetirementReason = "redundant"
)

// Valid reports whether r is a known retirement reason.
func (r RetirementReason) Valid() bool {
	switch r {
	case ReasonLowRelevance, ReasonSuperseded, ReasonFalsePositiveProne,
		ReasonArchObsolete, ReasonRedundant:
		return true
	}
	return false
}

// UnmarshalYAML validates the reason at the persistence boundary.
func (r *RetirementReason) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	incoming := RetirementReason(raw)
	if !incoming.Valid() {
		return fmt.Errorf("invalid value for RetirementReason: %q", incoming)
	}
	*r = incoming
	return nil
}

// RegressionTestRecord is one tracked regression test with its trigger
// history and decay state.
type RegressionTestRecord struct {
	TestID    string       `yaml:"test_id" json:"test_id" validate:"required"`
	CreatedAt string       `yaml:"created_at" json:"created_at" validate:"required"`
	Source    decay.Source `yaml:"source" json:"source"`

	LastTriggered string `yaml:"last_triggered,omitempty" json:"last_triggered,omitempty"`
	TriggerCount  int    `yaml:"trigger_count" json:"trigger_count"`
	LastResult    string `yaml:"last_result,omitempty" json:"last_result,omitempty"`

	FailureMode  string         `yaml:"failure_mode,omitempty" json:"failure_mode,omitempty"`
	Severity     decay.Severity `yaml:"severity" json:"severity"`
	CoverageTags []string       `yaml:"coverage_tags,omitempty" json:"coverage_tags,omitempty"`

	RelevanceScore   float64          `yaml:"relevance_score" json:"relevance_score"`
	RetirementReason RetirementReason `yaml:"retirement_reason,omitempty" json:"retirement_reason,omitempty"`
	RetiredAt        string           `yaml:"retired_at,omitempty" json:"retired_at,omitempty"`
}

// Retired reports whether the test has been taken out of the active suite.
func (r *RegressionTestRecord) Retired() bool {
	return r.RetiredAt != ""
}

// View projects the record into the shape the decay formula consumes.
func (r *RegressionTestRecord) View() decay.RecordView {
	return decay.RecordView{
		CreatedAt:     r.CreatedAt,
		LastTriggered: r.LastTriggered,
		TriggerCount:  r.TriggerCount,
		Severity:      r.Severity,
		Source:        r.Source,
	}
}

// Registry is the persisted test registry document.
type Registry struct {
	GeneratedAt string                 `yaml:"generated_at,omitempty" json:"generated_at,omitempty"`
	Tests       []RegressionTestRecord `yaml:"tests" json:"tests"`
}

// Find returns the record with the given test id, or nil.
func (r *Registry) Find(testID string) *RegressionTestRecord {
	for i := range r.Tests {
		if r.Tests[i].TestID == testID {
			return &r.Tests[i]
		}
	}
	return nil
}
