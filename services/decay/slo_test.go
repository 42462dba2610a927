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

import "testing"

func TestSLOStatusFor(t *testing.T) {
	thresholds := DefaultAgingThresholds()

	tests := []struct {
		name           string
		ageDays        int
		severity       Severity
		wantStatus     SLOStatus
		wantDaysToGo   int
	}{
		{name: "Fresh critical is ok", ageDays: 3, severity: SeverityCritical, wantStatus: SLOOk, wantDaysToGo: 42},
		{name: "Two weeks warns", ageDays: 14, severity: SeverityMedium, wantStatus: SLOWarning, wantDaysToGo: 76},
		{name: "A month escalates", ageDays: 30, severity: SeverityHigh, wantStatus: SLOEscalate, wantDaysToGo: 30},
		{name: "Critical blocks at 46 days", ageDays: 46, severity: SeverityCritical, wantStatus: SLOBlock, wantDaysToGo: 0},
		{name: "Critical boundary blocks exactly", ageDays: 45, severity: SeverityCritical, wantStatus: SLOBlock, wantDaysToGo: 0},
		{name: "High survives past critical deadline", ageDays: 46, severity: SeverityHigh, wantStatus: SLOEscalate, wantDaysToGo: 14},
		{name: "High blocks at 60", ageDays: 60, severity: SeverityHigh, wantStatus: SLOBlock, wantDaysToGo: 0},
		{name: "Medium blocks at 90", ageDays: 90, severity: SeverityMedium, wantStatus: SLOBlock, wantDaysToGo: 0},
		{name: "Low shares the medium deadline", ageDays: 89, severity: SeverityLow, wantStatus: SLOEscalate, wantDaysToGo: 1},
		{name: "Long overdue still reports zero", ageDays: 200, severity: SeverityMedium, wantStatus: SLOBlock, wantDaysToGo: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, daysToGo := SLOStatusFor(tc.ageDays, tc.severity, thresholds)
			if status != tc.wantStatus {
				t.Errorf("status = %s, want %s", status, tc.wantStatus)
			}
			if daysToGo != tc.wantDaysToGo {
				t.Errorf("daysUntilBlock = %d, want %d", daysToGo, tc.wantDaysToGo)
			}
		})
	}
}

func TestBlockThresholdBySeverity(t *testing.T) {
	thresholds := DefaultAgingThresholds()

	if got := thresholds.BlockThreshold(SeverityCritical); got != 45 {
		t.Errorf("critical threshold = %d, want 45", got)
	}
	if got := thresholds.BlockThreshold(SeverityHigh); got != 60 {
		t.Errorf("high threshold = %d, want 60", got)
	}
	if got := thresholds.BlockThreshold(SeverityMedium); got != 90 {
		t.Errorf("medium threshold = %d, want 90", got)
	}
	if got := thresholds.BlockThreshold(SeverityLow); got != 90 {
		t.Errorf("low threshold = %d, want 90", got)
	}
}
