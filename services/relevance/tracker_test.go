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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianHarbor/pkg/logging"
	"github.com/AleutianAI/AleutianHarbor/services/decay"
)

var testNow = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func newTestTracker(t *testing.T) *Tracker {
	return newTrackerWithConfig(t, decay.DefaultConfig())
}

func newTrackerWithConfig(t *testing.T, cfg decay.Config) *Tracker {
	t.Helper()
	store := NewRegistryStore(filepath.Join(t.TempDir(), "regression_registry.yaml"))
	tracker := NewTracker(store, cfg, logging.New(logging.Config{Quiet: true}))
	tracker.SetClock(func() time.Time { return testNow })
	return tracker
}

// retirementConfig raises the threshold above the trigger-bonus floor: a test
// with min_triggers earns a 0.3 bonus, so a threshold below that can never
// produce a candidate.
func retirementConfig() decay.Config {
	return decay.Config{
		HalfLifeDays:             90,
		RetirementThreshold:      0.35,
		MinTriggersForRetirement: 5,
	}
}

// staleRecord builds a test last triggered daysAgo days before testNow.
func staleRecord(id string, source decay.Source, severity decay.Severity, daysAgo, triggers int) RegressionTestRecord {
	return RegressionTestRecord{
		TestID:        id,
		CreatedAt:     testNow.AddDate(-2, 0, 0).Format(time.RFC3339),
		Source:        source,
		LastTriggered: testNow.AddDate(0, 0, -daysAgo).Format(time.RFC3339),
		TriggerCount:  triggers,
		FailureMode:   "prompt_injection",
		Severity:      severity,
	}
}

func TestRegisterAndDuplicate(t *testing.T) {
	tracker := newTestTracker(t)

	record, err := tracker.Register(RegressionTestRecord{
		TestID:      "REG-001",
		Source:      decay.SourceIncident,
		Severity:    decay.SeverityHigh,
		FailureMode: "prompt_injection",
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, record.RelevanceScore, "fresh incident-derived high test saturates the clamp")
	assert.NotEmpty(t, record.CreatedAt)

	_, err = tracker.Register(RegressionTestRecord{TestID: "REG-001"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestRecordTrigger(t *testing.T) {
	tracker := newTestTracker(t)
	_, err := tracker.Register(staleRecord("REG-001", decay.SourceManual, decay.SeverityLow, 200, 0))
	require.NoError(t, err)

	updated, err := tracker.RecordTrigger("REG-001", "fail")
	require.NoError(t, err)

	assert.Equal(t, 1, updated.TriggerCount)
	assert.Equal(t, "fail", updated.LastResult)
	assert.Equal(t, testNow.Format(time.RFC3339), updated.LastTriggered)
	assert.Greater(t, updated.RelevanceScore, 0.5, "a fresh trigger restores relevance")

	_, err = tracker.RecordTrigger("REG-404", "pass")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAllSkipsRetired(t *testing.T) {
	tracker := newTestTracker(t)
	_, err := tracker.Register(staleRecord("REG-001", decay.SourceManual, decay.SeverityLow, 400, 6))
	require.NoError(t, err)
	_, err = tracker.Register(staleRecord("REG-002", decay.SourceIncident, decay.SeverityHigh, 5, 3))
	require.NoError(t, err)
	_, err = tracker.Retire("REG-001", ReasonArchObsolete)
	require.NoError(t, err)

	updated, err := tracker.UpdateAll()
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
}

func TestRetirementCandidates(t *testing.T) {
	tracker := newTrackerWithConfig(t, retirementConfig())

	// Stale and well exercised: a candidate.
	_, err := tracker.Register(staleRecord("REG-STALE", decay.SourceManual, decay.SeverityLow, 500, 8))
	require.NoError(t, err)
	// Staler still, also exercised: must sort first.
	_, err = tracker.Register(staleRecord("REG-STALEST", decay.SourceManual, decay.SeverityLow, 700, 8))
	require.NoError(t, err)
	// Stale but barely triggered: not enough evidence to retire.
	_, err = tracker.Register(staleRecord("REG-UNPROVEN", decay.SourceManual, decay.SeverityLow, 500, 2))
	require.NoError(t, err)
	// Fresh: stays.
	_, err = tracker.Register(staleRecord("REG-FRESH", decay.SourceIncident, decay.SeverityCritical, 2, 8))
	require.NoError(t, err)

	candidates, err := tracker.RetirementCandidates()
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "REG-STALEST", candidates[0].TestID, "candidates sort by relevance ascending")
	assert.Equal(t, "REG-STALE", candidates[1].TestID)
	assert.Less(t, candidates[0].RelevanceScore, candidates[1].RelevanceScore)
}

func TestAutoRetire(t *testing.T) {
	tracker := newTrackerWithConfig(t, retirementConfig())
	_, err := tracker.Register(staleRecord("REG-STALE", decay.SourceManual, decay.SeverityLow, 600, 10))
	require.NoError(t, err)
	_, err = tracker.Register(staleRecord("REG-FRESH", decay.SourceIncident, decay.SeverityHigh, 3, 10))
	require.NoError(t, err)

	actions, err := tracker.AutoRetire()
	require.NoError(t, err)

	require.Len(t, actions, 1)
	assert.Equal(t, "REG-STALE", actions[0].TestID)
	assert.Equal(t, ReasonLowRelevance, actions[0].Reason)

	registry, err := tracker.Store().Load()
	require.NoError(t, err)
	assert.True(t, registry.Find("REG-STALE").Retired())
	assert.False(t, registry.Find("REG-FRESH").Retired())

	// A second sweep finds nothing new.
	actions, err = tracker.AutoRetire()
	require.NoError(t, err)
	assert.Empty(t, actions)
}

func TestReactivateResetsRelevance(t *testing.T) {
	tracker := newTestTracker(t)
	_, err := tracker.Register(staleRecord("REG-001", decay.SourceManual, decay.SeverityLow, 600, 10))
	require.NoError(t, err)
	_, err = tracker.Retire("REG-001", ReasonLowRelevance)
	require.NoError(t, err)

	record, err := tracker.Reactivate("REG-001")
	require.NoError(t, err)

	assert.False(t, record.Retired())
	assert.Empty(t, string(record.RetirementReason))
	assert.Equal(t, 0.5, record.RelevanceScore)
}

func TestRevalidate(t *testing.T) {
	tracker := newTestTracker(t)
	for _, id := range []string{"REG-A", "REG-B", "REG-C"} {
		_, err := tracker.Register(staleRecord(id, decay.SourceRedTeam, decay.SeverityMedium, 600, 10))
		require.NoError(t, err)
		_, err = tracker.Retire(id, ReasonLowRelevance)
		require.NoError(t, err)
	}

	result, err := tracker.Revalidate(func(r RegressionTestRecord) bool {
		return r.TestID == "REG-B"
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Reviewed)
	assert.Equal(t, []string{"REG-B"}, result.Reactivated)

	registry, err := tracker.Store().Load()
	require.NoError(t, err)
	assert.False(t, registry.Find("REG-B").Retired())
	assert.Equal(t, 0.5, registry.Find("REG-B").RelevanceScore)
	assert.True(t, registry.Find("REG-A").Retired())
}

func TestRetireValidatesReason(t *testing.T) {
	tracker := newTestTracker(t)
	_, err := tracker.Retire("REG-001", RetirementReason("tired"))
	assert.Error(t, err)
}

func TestMetrics(t *testing.T) {
	tracker := newTestTracker(t)
	_, err := tracker.Register(staleRecord("REG-001", decay.SourceIncident, decay.SeverityHigh, 5, 8))
	require.NoError(t, err)
	_, err = tracker.Register(staleRecord("REG-002", decay.SourceManual, decay.SeverityLow, 600, 2))
	require.NoError(t, err)
	_, err = tracker.Register(staleRecord("REG-003", decay.SourceRedTeam, decay.SeverityMedium, 700, 10))
	require.NoError(t, err)
	_, err = tracker.Retire("REG-003", ReasonSuperseded)
	require.NoError(t, err)

	metrics, err := tracker.Metrics()
	require.NoError(t, err)

	assert.Equal(t, 3, metrics.TotalTests)
	assert.Equal(t, 2, metrics.ActiveTests)
	assert.Equal(t, 1, metrics.RetiredTests)
	assert.Equal(t, 1, metrics.LowRelevanceCount)
	assert.Equal(t, 0, metrics.RetirementCandidates, "too few triggers to qualify despite the low score")
	assert.Equal(t, 1, metrics.BySource[decay.SourceIncident])
	assert.Equal(t, 1, metrics.BySource[decay.SourceManual])
	assert.Equal(t, 0, metrics.BySource[decay.SourceRedTeam], "retired tests leave the distributions")
	assert.Equal(t, 1, metrics.BySeverity[decay.SeverityHigh])
	assert.Greater(t, metrics.AvgRelevance, 0.0)
}

func TestCoverageHealth(t *testing.T) {
	tracker := newTestTracker(t)

	strongA := staleRecord("REG-A1", decay.SourceIncident, decay.SeverityHigh, 5, 8)
	strongA.FailureMode = "prompt_injection"
	strongB := staleRecord("REG-A2", decay.SourceIncident, decay.SeverityHigh, 10, 6)
	strongB.FailureMode = "prompt_injection"
	weak := staleRecord("REG-B1", decay.SourceManual, decay.SeverityLow, 600, 10)
	weak.FailureMode = "tool_hallucination"

	for _, r := range []RegressionTestRecord{strongA, strongB, weak} {
		_, err := tracker.Register(r)
		require.NoError(t, err)
	}

	health, err := tracker.CoverageHealth()
	require.NoError(t, err)

	assert.Equal(t, []string{"tool_hallucination"}, health.WeakCoverageAreas)
	assert.Contains(t, health.Recommendation, "tool_hallucination")

	pi := health.CoverageByFailureMode["prompt_injection"]
	assert.Equal(t, 2, pi.Count)
	assert.Greater(t, pi.AvgRelevance, 0.3)
	assert.GreaterOrEqual(t, pi.MaxRelevance, pi.AvgRelevance)
}

func TestCoverageHealthAllGood(t *testing.T) {
	tracker := newTestTracker(t)
	a := staleRecord("REG-A1", decay.SourceIncident, decay.SeverityHigh, 5, 8)
	b := staleRecord("REG-A2", decay.SourceIncident, decay.SeverityHigh, 8, 8)
	for _, r := range []RegressionTestRecord{a, b} {
		_, err := tracker.Register(r)
		require.NoError(t, err)
	}

	health, err := tracker.CoverageHealth()
	require.NoError(t, err)
	assert.Empty(t, health.WeakCoverageAreas)
	assert.Equal(t, "Coverage health is good", health.Recommendation)
}
