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
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// RegistryStore persists the test registry as yaml, with the same
// missing-file and atomic-rename discipline as the debt ledger store.
type RegistryStore struct {
	path     string
	validate *validator.Validate
	mu       sync.Mutex
}

// NewRegistryStore creates a registry store backed by the yaml file at path.
func NewRegistryStore(path string) *RegistryStore {
	return &RegistryStore{
		path:     path,
		validate: validator.New(),
	}
}

// Path returns the backing file path.
func (s *RegistryStore) Path() string {
	return s.path
}

// Load reads and validates the registry. A missing file yields an empty
// registry.
func (s *RegistryStore) Load() (*Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *RegistryStore) loadLocked() (*Registry, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &Registry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read the test registry at %s: %w", s.path, err)
	}

	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse the test registry at %s: %w", s.path, err)
	}
	for i := range registry.Tests {
		if err := s.validate.Struct(&registry.Tests[i]); err != nil {
			return nil, fmt.Errorf("invalid test record %q: %w", registry.Tests[i].TestID, err)
		}
	}
	return &registry, nil
}

func (s *RegistryStore) saveLocked(registry *Registry) error {
	for i := range registry.Tests {
		if err := s.validate.Struct(&registry.Tests[i]); err != nil {
			return fmt.Errorf("invalid test record %q: %w", registry.Tests[i].TestID, err)
		}
	}

	data, err := yaml.Marshal(registry)
	if err != nil {
		return fmt.Errorf("failed to marshal the test registry: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the registry directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".regression_registry-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create a temp registry file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write the temp registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close the temp registry file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace the test registry at %s: %w", s.path, err)
	}
	return nil
}

// Mutate runs a load, mutate, save cycle as one critical section.
func (s *RegistryStore) Mutate(fn func(*Registry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	registry, err := s.loadLocked()
	if err != nil {
		return err
	}
	if err := fn(registry); err != nil {
		return err
	}
	return s.saveLocked(registry)
}
