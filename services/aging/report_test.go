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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianHarbor/services/decay"
)

func analyzedEntry(id, principle string, severity decay.Severity, ageDays int, status decay.SLOStatus) Entry {
	return Entry{
		DebtID:    id,
		Principle: principle,
		Severity:  severity,
		AgeDays:   ageDays,
		SLOStatus: status,
	}
}

func TestBuildReport(t *testing.T) {
	entries := []Entry{
		analyzedEntry("AD-1", "C1", decay.SeverityCritical, 50, decay.SLOBlock),
		analyzedEntry("AD-2", "C1", decay.SeverityHigh, 35, decay.SLOEscalate),
		analyzedEntry("AD-3", "C2", decay.SeverityMedium, 20, decay.SLOWarning),
		analyzedEntry("AD-4", "C3", decay.SeverityLow, 3, decay.SLOOk),
	}

	report := BuildReport(entries, decay.DefaultAgingThresholds(), testNow)

	assert.Equal(t, 4, report.Summary.TotalActiveDebt)
	assert.Equal(t, 27.0, report.Summary.AverageAgeDays)
	assert.Equal(t, 50, report.Summary.OldestAgeDays)
	assert.Equal(t, 1, report.Summary.BlockingCount)
	assert.Equal(t, 1, report.Summary.EscalationCount)
	assert.Equal(t, 1, report.Summary.WarningCount)

	assert.Equal(t, map[string]int{"C1": 2, "C2": 1, "C3": 1}, report.ByPrinciple)

	require.Len(t, report.SLOViolations, 2)
	assert.Equal(t, "AD-1", report.SLOViolations[0].DebtID)
	assert.Equal(t, "AD-2", report.SLOViolations[1].DebtID)

	// Every status key is present even when empty.
	for _, status := range []decay.SLOStatus{decay.SLOOk, decay.SLOWarning, decay.SLOEscalate, decay.SLOBlock} {
		_, ok := report.ByStatus[status]
		assert.True(t, ok, "by_status missing key %s", status)
	}
}

func TestBuildReportEmpty(t *testing.T) {
	report := BuildReport(nil, decay.DefaultAgingThresholds(), testNow)

	assert.Equal(t, 0, report.Summary.TotalActiveDebt)
	assert.Zero(t, report.Summary.AverageAgeDays)
	assert.Zero(t, report.Summary.OldestAgeDays)
	assert.Empty(t, report.SLOViolations)
	assert.NotNil(t, report.ByStatus[decay.SLOBlock])
}

func TestBuildDashboard(t *testing.T) {
	entries := []Entry{
		analyzedEntry("AD-1", "C1", decay.SeverityCritical, 3, decay.SLOOk),
		analyzedEntry("AD-2", "C1", decay.SeverityCritical, 6, decay.SLOOk),
		analyzedEntry("AD-3", "C2", decay.SeverityHigh, 10, decay.SLOOk),
		analyzedEntry("AD-4", "C3", decay.SeverityMedium, 50, decay.SLOBlock),
	}

	dash := BuildDashboard(entries, testNow)

	assert.Equal(t, 4, dash.KPIs.TotalDebtCount)
	assert.Equal(t, 1, dash.KPIs.BlockingDebtCount)
	assert.Equal(t, 17.3, dash.KPIs.AvgDebtAgeDays)

	// Ages 3 and 6 share the first weekly bucket; 10 and 50 land alone.
	require.Len(t, dash.AgingCurve, 3)
	assert.Equal(t, AgingBucket{Days: 0, Count: 2}, dash.AgingCurve[0])
	assert.Equal(t, AgingBucket{Days: 7, Count: 1}, dash.AgingCurve[1])
	assert.Equal(t, AgingBucket{Days: 49, Count: 1}, dash.AgingCurve[2])

	assert.Equal(t, map[decay.Severity]int{
		decay.SeverityCritical: 2,
		decay.SeverityHigh:     1,
		decay.SeverityMedium:   1,
	}, dash.SeverityDistribution)
}
