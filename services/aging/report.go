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
	"math"
	"sort"
	"time"

	"github.com/AleutianAI/AleutianHarbor/services/decay"
)

// ReportSummary aggregates the aging analysis into headline numbers.
type ReportSummary struct {
	TotalActiveDebt int     `json:"total_active_debt"`
	AverageAgeDays  float64 `json:"average_age_days"`
	OldestAgeDays   int     `json:"oldest_age_days"`
	BlockingCount   int     `json:"blocking_count"`
	EscalationCount int     `json:"escalation_count"`
	WarningCount    int     `json:"warning_count"`
}

// Report is the full aging report exported for audit and review.
type Report struct {
	GeneratedAt   string                      `json:"generated_at"`
	Config        decay.AgingThresholds       `json:"config"`
	Summary       ReportSummary               `json:"summary"`
	ByStatus      map[decay.SLOStatus][]Entry `json:"by_status"`
	ByPrinciple   map[string]int              `json:"by_principle"`
	SLOViolations []Entry                     `json:"slo_violations"`
}

// BuildReport aggregates analyzed entries into a report. Every SLO status key
// is present in by_status even when empty, so downstream consumers can index
// without existence checks. Violations cover escalate and block only.
func BuildReport(entries []Entry, thresholds decay.AgingThresholds, now time.Time) *Report {
	byStatus := map[decay.SLOStatus][]Entry{
		decay.SLOOk:       {},
		decay.SLOWarning:  {},
		decay.SLOEscalate: {},
		decay.SLOBlock:    {},
	}
	byPrinciple := make(map[string]int)
	var violations []Entry
	totalAge, oldest := 0, 0

	for _, e := range entries {
		byStatus[e.SLOStatus] = append(byStatus[e.SLOStatus], e)
		byPrinciple[e.Principle]++
		totalAge += e.AgeDays
		if e.AgeDays > oldest {
			oldest = e.AgeDays
		}
		if e.SLOStatus == decay.SLOEscalate || e.SLOStatus == decay.SLOBlock {
			violations = append(violations, e)
		}
	}

	avgAge := 0.0
	if len(entries) > 0 {
		avgAge = roundTenth(float64(totalAge) / float64(len(entries)))
	}

	return &Report{
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Config:      thresholds,
		Summary: ReportSummary{
			TotalActiveDebt: len(entries),
			AverageAgeDays:  avgAge,
			OldestAgeDays:   oldest,
			BlockingCount:   len(byStatus[decay.SLOBlock]),
			EscalationCount: len(byStatus[decay.SLOEscalate]),
			WarningCount:    len(byStatus[decay.SLOWarning]),
		},
		ByStatus:      byStatus,
		ByPrinciple:   byPrinciple,
		SLOViolations: violations,
	}
}

// AgingBucket is one point on the aging curve: how many entries fall in the
// week starting at Days.
type AgingBucket struct {
	Days  int `json:"days"`
	Count int `json:"count"`
}

// KPIs are the headline dashboard indicators.
type KPIs struct {
	TotalDebtCount    int     `json:"total_debt_count"`
	BlockingDebtCount int     `json:"blocking_debt_count"`
	AvgDebtAgeDays    float64 `json:"avg_debt_age_days"`
}

// Dashboard is the visualization export: aging curve in weekly buckets,
// severity distribution, and the raw entries.
type Dashboard struct {
	Timestamp            string                 `json:"timestamp"`
	KPIs                 KPIs                   `json:"kpis"`
	AgingCurve           []AgingBucket          `json:"aging_curve"`
	SeverityDistribution map[decay.Severity]int `json:"severity_distribution"`
	Entries              []Entry                `json:"entries"`
}

// BuildDashboard aggregates analyzed entries for dashboard consumption. The
// aging curve groups entries into weekly buckets keyed by the bucket's start
// day, sorted ascending.
func BuildDashboard(entries []Entry, now time.Time) *Dashboard {
	curve := make(map[int]int)
	severityDist := make(map[decay.Severity]int)
	totalAge, blocking := 0, 0

	for _, e := range entries {
		curve[(e.AgeDays/7)*7]++
		severityDist[e.Severity]++
		totalAge += e.AgeDays
		if e.SLOStatus == decay.SLOBlock {
			blocking++
		}
	}

	buckets := make([]AgingBucket, 0, len(curve))
	for days, count := range curve {
		buckets = append(buckets, AgingBucket{Days: days, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Days < buckets[j].Days })

	avgAge := 0.0
	if len(entries) > 0 {
		avgAge = roundTenth(float64(totalAge) / float64(len(entries)))
	}

	return &Dashboard{
		Timestamp: now.UTC().Format(time.RFC3339),
		KPIs: KPIs{
			TotalDebtCount:    len(entries),
			BlockingDebtCount: blocking,
			AvgDebtAgeDays:    avgAge,
		},
		AgingCurve:           buckets,
		SeverityDistribution: severityDist,
		Entries:              entries,
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
