// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package debtledger

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Store persists the Ledger aggregate as a human-diffable yaml document.
//
// All access goes through a process-wide mutex so a load → mutate → save
// cycle is never interleaved with another writer in the same process, and a
// version stamp on the Summary rejects cross-process races at save time.
type Store struct {
	path     string
	validate *validator.Validate
	mu       sync.Mutex
}

// NewStore creates a ledger store backed by the yaml file at path. The file
// does not need to exist yet; Load returns an empty well-formed ledger for a
// first run.
func NewStore(path string) *Store {
	return &Store{
		path:     path,
		validate: validator.New(),
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads and validates the ledger. A missing file is not an error: it
// yields an empty ledger with an OK summary, matching the first-run case.
func (s *Store) Load() (*Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (*Ledger, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &Ledger{
			Summary: Summary{TotalActiveDebt: 0, DebtStatus: DebtOK},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read the debt ledger at %s: %w", s.path, err)
	}

	var ledger Ledger
	if err := yaml.Unmarshal(data, &ledger); err != nil {
		return nil, fmt.Errorf("failed to parse the debt ledger at %s: %w", s.path, err)
	}

	for i := range ledger.Entries {
		if err := s.validate.Struct(&ledger.Entries[i]); err != nil {
			return nil, &ValidationError{DebtID: ledger.Entries[i].DebtID, Wrapped: err}
		}
	}
	return &ledger, nil
}

// Save persists the entries and the summary together or not at all.
//
// Three checks run before any bytes hit disk:
//
//  1. every entry passes schema validation,
//  2. the summary matches the entry set exactly (invariant check),
//  3. the version stamp still matches the persisted ledger.
//
// The document is then written to a temp file in the same directory and
// renamed into place, so readers never observe a partial write.
func (s *Store) Save(ledger *Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ledger)
}

func (s *Store) saveLocked(ledger *Ledger) error {
	for i := range ledger.Entries {
		if err := s.validate.Struct(&ledger.Entries[i]); err != nil {
			return &ValidationError{DebtID: ledger.Entries[i].DebtID, Wrapped: err}
		}
	}

	if err := VerifySummary(ledger); err != nil {
		return err
	}

	if current, err := s.loadLocked(); err == nil {
		if current.Summary.Version != ledger.Summary.Version {
			return fmt.Errorf("%w: loaded %d, stored %d",
				ErrStaleVersion, ledger.Summary.Version, current.Summary.Version)
		}
	} else {
		return fmt.Errorf("failed to check the stored ledger version: %w", err)
	}
	ledger.Summary.Version++

	data, err := yaml.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("failed to marshal the debt ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the ledger directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".alignment_debt-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create a temp ledger file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write the temp ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close the temp ledger file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace the debt ledger at %s: %w", s.path, err)
	}
	return nil
}

// Mutate runs the load → mutate → save cycle as one critical section. The
// callback receives the freshly loaded ledger; if it returns nil the ledger
// is saved with all the usual checks.
func (s *Store) Mutate(fn func(*Ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, err := s.loadLocked()
	if err != nil {
		return err
	}
	if err := fn(ledger); err != nil {
		return err
	}
	return s.saveLocked(ledger)
}

// VerifySummary checks that the summary fields agree with the entry set.
// It returns an InvariantError on the first mismatch; callers abort the
// write in that case rather than persisting an inconsistent aggregate.
func VerifySummary(ledger *Ledger) error {
	var total float64
	active, mitigated := 0, 0
	for i := range ledger.Entries {
		entry := &ledger.Entries[i]
		if entry.MitigationStatus.Terminal() && entry.BlocksRelease {
			return &InvariantError{
				Field: "blocks_release",
				Want:  "false for terminal entry " + entry.DebtID,
				Got:   "true",
			}
		}
		if entry.Active() {
			active++
			total += entry.DebtAmount
		}
		if entry.MitigationStatus == StatusMitigated {
			mitigated++
		}
	}

	total = roundDebt(total)
	if ledger.Summary.TotalActiveDebt != total {
		return &InvariantError{
			Field: "total_active_debt",
			Want:  fmt.Sprintf("%.3f", total),
			Got:   fmt.Sprintf("%.3f", ledger.Summary.TotalActiveDebt),
		}
	}
	if ledger.Summary.ActiveEntries != active {
		return &InvariantError{
			Field: "active_entries",
			Want:  fmt.Sprintf("%d", active),
			Got:   fmt.Sprintf("%d", ledger.Summary.ActiveEntries),
		}
	}
	if ledger.Summary.MitigatedEntries != mitigated {
		return &InvariantError{
			Field: "mitigated_entries",
			Want:  fmt.Sprintf("%d", mitigated),
			Got:   fmt.Sprintf("%d", ledger.Summary.MitigatedEntries),
		}
	}
	return nil
}

// roundDebt keeps stored totals stable across round-trips.
func roundDebt(v float64) float64 {
	return math.Round(v*1000) / 1000
}
