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
	"time"

	"github.com/AleutianAI/AleutianHarbor/pkg/logging"
	"github.com/AleutianAI/AleutianHarbor/services/decay"
)

// Tracker manages regression test lifecycle and decay over the registry
// store. Tests are investments; the tracker depreciates them.
type Tracker struct {
	store *RegistryStore
	cfg   decay.Config
	log   *logging.Logger

	// now is injectable for deterministic tests.
	now func() time.Time
}

// NewTracker creates a relevance tracker. Zero-value config fields fall back
// to the defaults; a nil logger falls back to the package default.
func NewTracker(store *RegistryStore, cfg decay.Config, log *logging.Logger) *Tracker {
	defaults := decay.DefaultConfig()
	if cfg.HalfLifeDays <= 0 {
		cfg.HalfLifeDays = defaults.HalfLifeDays
	}
	if cfg.RetirementThreshold <= 0 {
		cfg.RetirementThreshold = defaults.RetirementThreshold
	}
	if cfg.MinTriggersForRetirement <= 0 {
		cfg.MinTriggersForRetirement = defaults.MinTriggersForRetirement
	}
	if log == nil {
		log = logging.Default()
	}
	return &Tracker{
		store: store,
		cfg:   cfg,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the tracker's notion of now. Test hook.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
}

// Store exposes the underlying registry store for read-only callers.
func (t *Tracker) Store() *RegistryStore {
	return t.store
}

// Register adds a new test to the registry with its initial relevance
// computed from the creation metadata. Duplicate ids are rejected.
func (t *Tracker) Register(record RegressionTestRecord) (*RegressionTestRecord, error) {
	if !record.Severity.Valid() {
		record.Severity = decay.SeverityMedium
	}
	if record.CreatedAt == "" {
		record.CreatedAt = t.now().Format(time.RFC3339)
	}

	var result RegressionTestRecord
	err := t.store.Mutate(func(registry *Registry) error {
		if registry.Find(record.TestID) != nil {
			return fmt.Errorf("%w: %s", ErrDuplicate, record.TestID)
		}
		record.RelevanceScore = decay.Relevance(record.View(), t.now(), t.cfg)
		registry.Tests = append(registry.Tests, record)
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.log.Info("regression test registered",
		"test_id", result.TestID,
		"source", string(result.Source),
		"relevance", result.RelevanceScore,
	)
	return &result, nil
}

// RecordTrigger stamps a trigger on a test: last_triggered moves to now, the
// trigger count increments, the run result is recorded, and the relevance
// score is recomputed.
func (t *Tracker) RecordTrigger(testID, result string) (*RegressionTestRecord, error) {
	now := t.now()
	var updated RegressionTestRecord
	err := t.store.Mutate(func(registry *Registry) error {
		record := registry.Find(testID)
		if record == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, testID)
		}
		record.LastTriggered = now.Format(time.RFC3339)
		record.TriggerCount++
		record.LastResult = result
		record.RelevanceScore = decay.Relevance(record.View(), now, t.cfg)
		updated = *record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// UpdateAll recomputes the relevance score of every active test and persists
// the registry. Retired tests keep their last score. Returns the number of
// records updated.
func (t *Tracker) UpdateAll() (int, error) {
	now := t.now()
	updated := 0
	err := t.store.Mutate(func(registry *Registry) error {
		for i := range registry.Tests {
			record := &registry.Tests[i]
			if record.Retired() {
				continue
			}
			record.RelevanceScore = decay.Relevance(record.View(), now, t.cfg)
			updated++
		}
		registry.GeneratedAt = now.Format(time.RFC3339)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// RetirementCandidates returns the active tests eligible for retirement,
// sorted by relevance ascending (stalest first). A test qualifies only when
// its score fell below the threshold AND it has triggered often enough to
// have proven itself; a test that never ran is a coverage question, not a
// retirement candidate. Scores are computed fresh; nothing is persisted.
func (t *Tracker) RetirementCandidates() ([]RegressionTestRecord, error) {
	registry, err := t.store.Load()
	if err != nil {
		return nil, err
	}
	return t.candidates(registry), nil
}

func (t *Tracker) candidates(registry *Registry) []RegressionTestRecord {
	now := t.now()
	var out []RegressionTestRecord
	for i := range registry.Tests {
		record := registry.Tests[i]
		if record.Retired() {
			continue
		}
		record.RelevanceScore = decay.Relevance(record.View(), now, t.cfg)
		if record.RelevanceScore < t.cfg.RetirementThreshold &&
			record.TriggerCount >= t.cfg.MinTriggersForRetirement {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RelevanceScore < out[j].RelevanceScore
	})
	return out
}

// RetirementAction records one automatic retirement.
type RetirementAction struct {
	TestID         string           `json:"test_id"`
	Reason         RetirementReason `json:"reason"`
	RelevanceScore float64          `json:"relevance_score"`
	LastTriggered  string           `json:"last_triggered,omitempty"`
}

// AutoRetire retires every current candidate with reason low_relevance and
// persists the registry. Returns the actions taken.
func (t *Tracker) AutoRetire() ([]RetirementAction, error) {
	now := t.now()
	var actions []RetirementAction
	err := t.store.Mutate(func(registry *Registry) error {
		for _, candidate := range t.candidates(registry) {
			record := registry.Find(candidate.TestID)
			record.RelevanceScore = candidate.RelevanceScore
			record.RetiredAt = now.Format(time.RFC3339)
			record.RetirementReason = ReasonLowRelevance
			actions = append(actions, RetirementAction{
				TestID:         record.TestID,
				Reason:         ReasonLowRelevance,
				RelevanceScore: record.RelevanceScore,
				LastTriggered:  record.LastTriggered,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, a := range actions {
		t.log.Info("regression test retired",
			"test_id", a.TestID,
			"reason", string(a.Reason),
			"relevance", a.RelevanceScore,
		)
	}
	return actions, nil
}

// Retire retires a single test with an explicit reason.
func (t *Tracker) Retire(testID string, reason RetirementReason) (*RegressionTestRecord, error) {
	if !reason.Valid() {
		return nil, fmt.Errorf("invalid retirement reason %q", reason)
	}

	now := t.now()
	var result RegressionTestRecord
	err := t.store.Mutate(func(registry *Registry) error {
		record := registry.Find(testID)
		if record == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, testID)
		}
		record.RetiredAt = now.Format(time.RFC3339)
		record.RetirementReason = reason
		result = *record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Reactivate brings a retired test back into the active suite. The relevance
// score resets to 0.5: the reactivation signal says the pattern matters
// again, not that the test is as fresh as a new one.
func (t *Tracker) Reactivate(testID string) (*RegressionTestRecord, error) {
	var result RegressionTestRecord
	err := t.store.Mutate(func(registry *Registry) error {
		record := registry.Find(testID)
		if record == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, testID)
		}
		record.RetiredAt = ""
		record.RetirementReason = ""
		record.RelevanceScore = 0.5
		result = *record
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.log.Info("regression test reactivated", "test_id", result.TestID)
	return &result, nil
}

// RevalidationResult summarizes a review of retired tests.
type RevalidationResult struct {
	Reviewed    int      `json:"reviewed"`
	Reactivated []string `json:"reactivated"`
}

// Revalidate reviews every retired test against an external signal (in
// production, a traffic-replay check) and reactivates the ones the signal
// flags. A nil signal reviews without reactivating anything.
func (t *Tracker) Revalidate(shouldReactivate func(RegressionTestRecord) bool) (*RevalidationResult, error) {
	result := &RevalidationResult{}
	err := t.store.Mutate(func(registry *Registry) error {
		for i := range registry.Tests {
			record := &registry.Tests[i]
			if !record.Retired() {
				continue
			}
			result.Reviewed++
			if shouldReactivate != nil && shouldReactivate(*record) {
				record.RetiredAt = ""
				record.RetirementReason = ""
				record.RelevanceScore = 0.5
				result.Reactivated = append(result.Reactivated, record.TestID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
