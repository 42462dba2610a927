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
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// VerifiedMitigation is one principle's replay outcome. Only status "pass"
// clears debt; anything else is recorded but ignored by settlement.
type VerifiedMitigation struct {
	Principle string `json:"principle" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=pass fail"`
}

// ReplayVerification is the input document produced by the external
// incident-replay verifier.
type ReplayVerification struct {
	IncidentID          string               `json:"incident_id"`
	VerificationRunID   string               `json:"verification_run_id"`
	VerifiedMitigations []VerifiedMitigation `json:"verified_mitigations" validate:"dive"`
}

// MitigatedPrinciples returns the set of principles whose mitigation was
// confirmed by replay.
func (r *ReplayVerification) MitigatedPrinciples() map[string]bool {
	principles := make(map[string]bool)
	for _, v := range r.VerifiedMitigations {
		if v.Status == "pass" {
			principles[v.Principle] = true
		}
	}
	return principles
}

// LoadReplayVerification reads and validates a replay verification document.
// A missing file is an error here, unlike the yaml stores: settlement without
// verification input is meaningless.
func LoadReplayVerification(path string) (*ReplayVerification, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay results at %s: %w", path, err)
	}

	var replay ReplayVerification
	if err := json.Unmarshal(data, &replay); err != nil {
		return nil, fmt.Errorf("failed to parse replay results at %s: %w", path, err)
	}
	if err := validator.New().Struct(&replay); err != nil {
		return nil, fmt.Errorf("invalid replay results at %s: %w", path, err)
	}
	return &replay, nil
}

// Settlement outcome statuses.
const (
	StatusSuccess        = "success"
	StatusNoAction       = "no_action"
	StatusRolledBack     = "rolled_back"
	StatusPartialFailure = "partial_failure"
)

// Result is the settlement outcome envelope. The per-store committed flags
// and error strings exist for the partial-failure case: callers must be able
// to see exactly which store diverged.
type Result struct {
	Status              string   `json:"status"`
	Message             string   `json:"message,omitempty"`
	IncidentID          string   `json:"incident_id,omitempty"`
	VerificationRunID   string   `json:"verification_run_id,omitempty"`
	MitigatedPrinciples []string `json:"mitigated_principles,omitempty"`
	DebtsUpdated        int      `json:"debts_updated"`
	ExceptionsRemoved   int      `json:"exceptions_removed"`
	DryRun              bool     `json:"dry_run"`
	LedgerCommitted     bool     `json:"ledger_committed"`
	ExceptionsCommitted bool     `json:"exceptions_committed"`
	LedgerError         string   `json:"ledger_error,omitempty"`
	ExceptionsError     string   `json:"exceptions_error,omitempty"`
}
