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
	"math"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
)

// fallbackLayouts covers the timestamp shapes that appear in hand-edited
// ledgers: RFC3339 without zone, with fractional seconds, and bare dates.
var fallbackLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.000000",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-ish timestamp as found in the ledger and
// registry stores. It tries RFC3339 first (via strfmt, which also accepts
// fractional seconds), then a small set of looser layouts with a trailing Z
// stripped.
func ParseTimestamp(ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if dt, err := strfmt.ParseDateTime(ts); err == nil {
		return time.Time(dt), nil
	}
	trimmed := strings.TrimSuffix(ts, "Z")
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %q", ts)
}

// AgeDays returns the whole number of days between a stored timestamp and
// now. A malformed timestamp yields 0 rather than an error: an aging sweep
// over a large ledger must not crash on one bad entry, and age 0 is the
// conservative choice (maximal relevance, no SLO exposure).
func AgeDays(ts string, now time.Time) int {
	t, err := ParseTimestamp(ts)
	if err != nil {
		return 0
	}
	days := int(now.Sub(t).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Relevance computes the current relevance score of a regression test.
//
// The base score halves every cfg.HalfLifeDays since the reference date
// (last trigger if present, creation otherwise). It is scaled by severity
// and source multipliers, a trigger-frequency bonus of min(count/10, 0.3) is
// added, and the result is clamped to [0, 1].
//
// Relevance is deterministic given now and never touches storage. For fixed
// inputs it is non-increasing as now advances, which the retirement policy
// relies on.
func Relevance(rec RecordView, now time.Time, cfg Config) float64 {
	reference := rec.LastTriggered
	if reference == "" {
		reference = rec.CreatedAt
	}

	halfLife := cfg.HalfLifeDays
	if halfLife <= 0 {
		halfLife = DefaultConfig().HalfLifeDays
	}

	days := float64(AgeDays(reference, now))
	base := math.Pow(0.5, days/halfLife)

	severityMult, ok := severityMultipliers[rec.Severity]
	if !ok {
		severityMult = 1.0
	}
	sourceMult, ok := sourceMultipliers[rec.Source]
	if !ok {
		sourceMult = 1.0
	}

	bonus := math.Min(float64(rec.TriggerCount)/10.0, 0.3)

	relevance := base*severityMult*sourceMult + bonus
	if relevance > 1.0 {
		return 1.0
	}
	if relevance < 0 {
		return 0
	}
	return relevance
}
