// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestOutputResultQuietExitCodes tests that quiet mode maps outcomes to exit
// codes without writing anything.
func TestOutputResultQuietExitCodes(t *testing.T) {
	cfg := OutputConfig{Quiet: true}
	start := time.Now()

	tests := []struct {
		name        string
		hasFindings bool
		err         error
		want        int
	}{
		{"clean run", false, nil, CLIExitSuccess},
		{"findings", true, nil, CLIExitFindings},
		{"error", false, errors.New("boom"), CLIExitError},
		{"error wins over findings", true, errors.New("boom"), CLIExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OutputResult(cfg, "test", start, nil, tt.hasFindings, tt.err)
			if got != tt.want {
				t.Errorf("OutputResult = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestOutputResultHumanFindings tests that findings survive into the exit
// code when not in JSON mode.
func TestOutputResultHumanFindings(t *testing.T) {
	got := OutputResult(OutputConfig{}, "test", time.Now(), nil, true, nil)
	if got != CLIExitFindings {
		t.Errorf("OutputResult = %d, want %d", got, CLIExitFindings)
	}
}

// TestCommandResultJSON tests that CommandResult serializes correctly.
func TestCommandResultJSON(t *testing.T) {
	result := CommandResult{
		APIVersion: "1.0",
		Command:    "debt report",
		Timestamp:  time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		DurationMs: 12,
		Success:    true,
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Failed to marshal CommandResult: %v", err)
	}

	var decoded CommandResult
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal CommandResult: %v", err)
	}

	if decoded.APIVersion != result.APIVersion {
		t.Errorf("APIVersion = %s, want %s", decoded.APIVersion, result.APIVersion)
	}
	if decoded.Command != result.Command {
		t.Errorf("Command = %s, want %s", decoded.Command, result.Command)
	}
	if !decoded.Success {
		t.Error("Success = false, want true")
	}
}

// TestWriteJSONFile tests that reports land on disk with parent directories
// created.
func TestWriteJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "aging.json")

	if err := writeJSONFile(path, map[string]int{"open": 3}); err != nil {
		t.Fatalf("writeJSONFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read written file: %v", err)
	}

	var decoded map[string]int
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Written file is not valid JSON: %v", err)
	}
	if decoded["open"] != 3 {
		t.Errorf("open = %d, want 3", decoded["open"])
	}
}
