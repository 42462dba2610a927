// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the Harbor CLI configuration: store paths and the
// aging and decay policies. Configuration is explicit state passed into
// constructors; there is no global singleton.
package config

import (
	"github.com/AleutianAI/AleutianHarbor/services/decay"
)

// StoresConfig holds the backing file paths for every persisted store.
type StoresConfig struct {
	// DebtLedger is the alignment debt yaml document.
	DebtLedger string `yaml:"debt_ledger"`

	// PolicyExceptions is the policy exception yaml document.
	PolicyExceptions string `yaml:"policy_exceptions"`

	// TestRegistry is the regression test registry yaml document.
	TestRegistry string `yaml:"test_registry"`

	// ReplayResults is the default replay verification input for settle.
	ReplayResults string `yaml:"replay_results"`
}

// LoggingConfig tunes the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Dir enables JSON file logging when set.
	Dir string `yaml:"dir,omitempty"`
}

// HarborConfig is the full CLI configuration document.
type HarborConfig struct {
	Stores  StoresConfig          `yaml:"stores"`
	Aging   decay.AgingThresholds `yaml:"aging"`
	Decay   decay.Config          `yaml:"decay"`
	Logging LoggingConfig         `yaml:"logging"`
}

// Default returns the stock configuration: artifact paths relative to the
// working directory and the default SLO and decay policies.
func Default() *HarborConfig {
	return &HarborConfig{
		Stores: StoresConfig{
			DebtLedger:       "artifacts/alignment_debt.yaml",
			PolicyExceptions: "config/policy_exception.yaml",
			TestRegistry:     "artifacts/regression_registry.yaml",
			ReplayResults:    "artifacts/incident_replay_results.json",
		},
		Aging: decay.DefaultAgingThresholds(),
		Decay: decay.DefaultConfig(),
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
