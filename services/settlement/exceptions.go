// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package settlement

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// PolicyException is a standing, principle-scoped waiver permitting
// known-risky behavior until its root cause is fixed.
type PolicyException struct {
	Principle string `yaml:"principle" json:"principle"`
	Reason    string `yaml:"reason,omitempty" json:"reason,omitempty"`
	GrantedAt string `yaml:"granted_at,omitempty" json:"granted_at,omitempty"`
	Expires   string `yaml:"expires,omitempty" json:"expires,omitempty"`
}

// AuditRecord is one append-only entry in the exception store's audit log.
type AuditRecord struct {
	ID         string   `yaml:"id" json:"id"`
	Action     string   `yaml:"action" json:"action"`
	Count      int      `yaml:"count" json:"count"`
	Principles []string `yaml:"principles" json:"principles"`
	Timestamp  string   `yaml:"timestamp" json:"timestamp"`
}

// ExceptionSet is the persisted exception store: active waivers plus the
// audit trail of every revocation.
type ExceptionSet struct {
	Exceptions []PolicyException `yaml:"exceptions" json:"exceptions"`
	AuditLog   []AuditRecord     `yaml:"audit_log,omitempty" json:"audit_log,omitempty"`
}

// RemoveForPrinciples drops every exception whose principle was mitigated and
// appends one audit record describing the revocation. Returns the number of
// exceptions removed; zero removals leave the audit log untouched.
func (s *ExceptionSet) RemoveForPrinciples(principles map[string]bool, now time.Time) int {
	before := len(s.Exceptions)

	kept := s.Exceptions[:0]
	for _, e := range s.Exceptions {
		if !principles[e.Principle] {
			kept = append(kept, e)
		}
	}
	s.Exceptions = kept

	removed := before - len(s.Exceptions)
	if removed > 0 {
		names := make([]string, 0, len(principles))
		for p := range principles {
			names = append(names, p)
		}
		sort.Strings(names)

		s.AuditLog = append(s.AuditLog, AuditRecord{
			ID:         uuid.NewString(),
			Action:     "exceptions_removed",
			Count:      removed,
			Principles: names,
			Timestamp:  now.Format(time.RFC3339),
		})
	}
	return removed
}

// ExceptionStore abstracts exception-set persistence so the reconciler's
// failure handling can be exercised against a deterministic fake.
type ExceptionStore interface {
	Load() (*ExceptionSet, error)
	Save(*ExceptionSet) error
}

// FileExceptionStore persists the exception set as yaml, mirroring the debt
// ledger store's missing-file and atomic-rename behavior.
type FileExceptionStore struct {
	path string
}

// NewFileExceptionStore creates an exception store backed by the yaml file at
// path.
func NewFileExceptionStore(path string) *FileExceptionStore {
	return &FileExceptionStore{path: path}
}

// Path returns the backing file path.
func (s *FileExceptionStore) Path() string {
	return s.path
}

// Load reads the exception set. A missing file yields an empty set.
func (s *FileExceptionStore) Load() (*ExceptionSet, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &ExceptionSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read the exception store at %s: %w", s.path, err)
	}

	var set ExceptionSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse the exception store at %s: %w", s.path, err)
	}
	return &set, nil
}

// Save writes the exception set atomically via temp file and rename.
func (s *FileExceptionStore) Save(set *ExceptionSet) error {
	data, err := yaml.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to marshal the exception store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the exception store directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".policy_exception-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create a temp exception file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write the temp exception file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close the temp exception file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace the exception store at %s: %w", s.path, err)
	}
	return nil
}
