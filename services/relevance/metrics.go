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
	"fmt"
	"sort"
	"strings"

	"github.com/AleutianAI/AleutianHarbor/services/decay"
)

// Metrics summarizes the registry's decay state.
type Metrics struct {
	TotalTests           int                    `json:"total_tests"`
	ActiveTests          int                    `json:"active_tests"`
	RetiredTests         int                    `json:"retired_tests"`
	AvgRelevance         float64                `json:"avg_relevance"`
	LowRelevanceCount    int                    `json:"low_relevance_count"`
	RetirementCandidates int                    `json:"retirement_candidates"`
	BySource             map[decay.Source]int   `json:"by_source"`
	BySeverity           map[decay.Severity]int `json:"by_severity"`
}

// Metrics computes registry-wide decay metrics over fresh relevance scores.
// Low relevance counts tests scoring below 0.3.
func (t *Tracker) Metrics() (*Metrics, error) {
	registry, err := t.store.Load()
	if err != nil {
		return nil, err
	}

	now := t.now()
	m := &Metrics{
		TotalTests: len(registry.Tests),
		BySource: map[decay.Source]int{
			decay.SourceIncident: 0,
			decay.SourceNearMiss: 0,
			decay.SourceRedTeam:  0,
			decay.SourceManual:   0,
		},
		BySeverity: map[decay.Severity]int{
			decay.SeverityCritical: 0,
			decay.SeverityHigh:     0,
			decay.SeverityMedium:   0,
			decay.SeverityLow:      0,
		},
	}

	var totalRelevance float64
	for i := range registry.Tests {
		record := &registry.Tests[i]
		if record.Retired() {
			m.RetiredTests++
			continue
		}
		m.ActiveTests++
		score := decay.Relevance(record.View(), now, t.cfg)
		totalRelevance += score
		if score < 0.3 {
			m.LowRelevanceCount++
		}
		m.BySource[record.Source]++
		m.BySeverity[record.Severity]++
	}

	if m.ActiveTests > 0 {
		m.AvgRelevance = totalRelevance / float64(m.ActiveTests)
	}
	m.RetirementCandidates = len(t.candidates(registry))
	return m, nil
}

// ModeCoverage aggregates the active tests guarding one failure mode.
type ModeCoverage struct {
	Count        int     `json:"count"`
	AvgRelevance float64 `json:"avg_relevance"`
	MaxRelevance float64 `json:"max_relevance"`
}

// CoverageHealth reports which failure modes still have live coverage.
type CoverageHealth struct {
	CoverageByFailureMode map[string]ModeCoverage `json:"coverage_by_failure_mode"`
	WeakCoverageAreas     []string                `json:"weak_coverage_areas"`
	Recommendation        string                  `json:"recommendation"`
}

// CoverageHealth assesses coverage across failure modes. A mode is weak when
// its average relevance fell below 0.3 or fewer than two active tests guard
// it.
func (t *Tracker) CoverageHealth() (*CoverageHealth, error) {
	registry, err := t.store.Load()
	if err != nil {
		return nil, err
	}

	now := t.now()
	byMode := make(map[string]ModeCoverage)
	for i := range registry.Tests {
		record := &registry.Tests[i]
		if record.Retired() {
			continue
		}
		score := decay.Relevance(record.View(), now, t.cfg)

		cov := byMode[record.FailureMode]
		cov.Count++
		cov.AvgRelevance += score
		if score > cov.MaxRelevance {
			cov.MaxRelevance = score
		}
		byMode[record.FailureMode] = cov
	}

	var weak []string
	for mode, cov := range byMode {
		cov.AvgRelevance /= float64(cov.Count)
		byMode[mode] = cov
		if cov.AvgRelevance < 0.3 || cov.Count < 2 {
			weak = append(weak, mode)
		}
	}
	sort.Strings(weak)

	recommendation := "Coverage health is good"
	if len(weak) > 0 {
		recommendation = fmt.Sprintf("Consider adding new tests for: %s", strings.Join(weak, ", "))
	}

	return &CoverageHealth{
		CoverageByFailureMode: byMode,
		WeakCoverageAreas:     weak,
		Recommendation:        recommendation,
	}, nil
}
