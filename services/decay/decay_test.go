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
	"math"
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := ParseTimestamp(value)
	if err != nil {
		t.Fatalf("ParseTimestamp(%q) failed: %v", value, err)
	}
	return parsed
}

func TestParseTimestampFormats(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "RFC3339 with Z", input: "2025-01-15T10:30:00Z"},
		{name: "RFC3339 with offset", input: "2025-01-15T10:30:00+02:00"},
		{name: "Fractional seconds", input: "2025-01-15T10:30:00.123456Z"},
		{name: "No zone", input: "2025-01-15T10:30:00"},
		{name: "Bare date", input: "2025-01-15"},
		{name: "Garbage", input: "not-a-timestamp", wantErr: true},
		{name: "Empty", input: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseTimestamp(tc.input)
			if tc.wantErr && err == nil {
				t.Errorf("expected error for %q, got nil", tc.input)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error for %q: %v", tc.input, err)
			}
		})
	}
}

func TestAgeDays(t *testing.T) {
	now := mustTime(t, "2025-06-01T00:00:00Z")

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{name: "Ten days old", input: "2025-05-22T00:00:00Z", want: 10},
		{name: "Same day", input: "2025-06-01T00:00:00Z", want: 0},
		{name: "Future timestamp clamps to zero", input: "2025-07-01T00:00:00Z", want: 0},
		{name: "Malformed falls back to zero", input: "yesterday-ish", want: 0},
		{name: "Bare date", input: "2025-05-02", want: 30},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AgeDays(tc.input, now); got != tc.want {
				t.Errorf("AgeDays(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

// TestRelevanceIncidentHigh pins the exact numeric behavior of the decay
// formula: an incident-derived high severity test last triggered 95 days ago
// with a 90 day half life lands near 0.75.
func TestRelevanceIncidentHigh(t *testing.T) {
	now := mustTime(t, "2025-06-01T00:00:00Z")
	rec := RecordView{
		CreatedAt:     "2024-01-01T00:00:00Z",
		LastTriggered: "2025-02-26T00:00:00Z", // 95 days before now
		TriggerCount:  0,
		Severity:      SeverityHigh,
		Source:        SourceIncident,
	}

	got := Relevance(rec, now, DefaultConfig())
	want := math.Pow(0.5, 95.0/90.0) * 1.2 * 1.3

	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Relevance = %.6f, want %.6f", got, want)
	}
	if got < 0.74 || got > 0.76 {
		t.Errorf("Relevance = %.6f, expected approximately 0.75", got)
	}
}

func TestRelevanceClampAndBonus(t *testing.T) {
	now := mustTime(t, "2025-06-01T00:00:00Z")

	tests := []struct {
		name string
		rec  RecordView
		want float64
	}{
		{
			// Fresh critical incident test: 1.0*1.5*1.3 + 0.3 clamps to 1.
			name: "Clamped to one",
			rec: RecordView{
				CreatedAt:     "2025-06-01T00:00:00Z",
				LastTriggered: "2025-06-01T00:00:00Z",
				TriggerCount:  50,
				Severity:      SeverityCritical,
				Source:        SourceIncident,
			},
			want: 1.0,
		},
		{
			// Trigger bonus caps at 0.3 regardless of count.
			name: "Bonus capped",
			rec: RecordView{
				CreatedAt:     "2025-06-01T00:00:00Z",
				LastTriggered: "2025-06-01T00:00:00Z",
				TriggerCount:  1000,
				Severity:      SeverityMedium,
				Source:        SourceRedTeam,
			},
			want: 1.0,
		},
		{
			// Malformed reference date means age 0: maximal base relevance
			// instead of a crashed sweep.
			name: "Malformed timestamp is maximal",
			rec: RecordView{
				CreatedAt:    "###bad###",
				TriggerCount: 0,
				Severity:     SeverityMedium,
				Source:       SourceRedTeam,
			},
			want: 1.0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Relevance(tc.rec, now, DefaultConfig())
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Relevance = %.6f, want %.6f", got, tc.want)
			}
		})
	}
}

// TestRelevanceMonotonicDecay verifies relevance never increases as time
// advances with no new triggers.
func TestRelevanceMonotonicDecay(t *testing.T) {
	rec := RecordView{
		CreatedAt:     "2024-01-01T00:00:00Z",
		LastTriggered: "2024-06-01T00:00:00Z",
		TriggerCount:  3,
		Severity:      SeverityHigh,
		Source:        SourceNearMiss,
	}

	cfg := DefaultConfig()
	prev := math.Inf(1)
	now := mustTime(t, "2024-06-01T00:00:00Z")
	for day := 0; day < 400; day += 10 {
		current := Relevance(rec, now.AddDate(0, 0, day), cfg)
		if current > prev+1e-12 {
			t.Fatalf("relevance increased from %.9f to %.9f at day %d", prev, current, day)
		}
		prev = current
	}
}

func TestRelevanceDeterministic(t *testing.T) {
	now := mustTime(t, "2025-03-10T12:00:00Z")
	rec := RecordView{
		CreatedAt:     "2024-11-01T00:00:00Z",
		LastTriggered: "2025-01-15T00:00:00Z",
		TriggerCount:  7,
		Severity:      SeverityLow,
		Source:        SourceManual,
	}

	first := Relevance(rec, now, DefaultConfig())
	for i := 0; i < 10; i++ {
		if again := Relevance(rec, now, DefaultConfig()); again != first {
			t.Fatalf("Relevance not deterministic: %.12f vs %.12f", first, again)
		}
	}
}
