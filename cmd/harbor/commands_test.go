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
	"testing"

	"github.com/AleutianAI/AleutianHarbor/pkg/logging"
)

// TestCommandTree tests that every documented subcommand is registered.
func TestCommandTree(t *testing.T) {
	tests := []struct {
		family string
		subs   []string
	}{
		{"debt", []string{"create", "mitigate", "accept", "report", "blocking"}},
		{"slo", []string{"check", "enforce", "report", "dashboard", "watch"}},
		{"tests", []string{"register", "update", "retire", "revalidate", "coverage", "metrics"}},
	}

	for _, tt := range tests {
		family, _, err := rootCmd.Find([]string{tt.family})
		if err != nil || family.Name() != tt.family {
			t.Fatalf("family %q not registered: %v", tt.family, err)
		}
		for _, sub := range tt.subs {
			cmd, _, err := rootCmd.Find([]string{tt.family, sub})
			if err != nil || cmd.Name() != sub {
				t.Errorf("%s %s not registered: %v", tt.family, sub, err)
			}
		}
	}

	settle, _, err := rootCmd.Find([]string{"settle"})
	if err != nil || settle.Name() != "settle" {
		t.Errorf("settle not registered: %v", err)
	}
}

// TestSettleFlags tests the settle command's flag surface.
func TestSettleFlags(t *testing.T) {
	for _, name := range []string{"replay", "dry-run"} {
		if settleCmd.Flags().Lookup(name) == nil {
			t.Errorf("settle is missing the --%s flag", name)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  logging.Level
	}{
		{"debug", logging.LevelDebug},
		{"info", logging.LevelInfo},
		{"WARN", logging.LevelWarn},
		{"error", logging.LevelError},
		{"nonsense", logging.LevelInfo},
		{"", logging.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
