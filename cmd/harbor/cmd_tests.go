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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianHarbor/pkg/ux"
	"github.com/AleutianAI/AleutianHarbor/services/decay"
	"github.com/AleutianAI/AleutianHarbor/services/relevance"
)

// ===== TESTS REGISTER =====

var (
	testsRegisterID          string
	testsRegisterSource      string
	testsRegisterSeverity    string
	testsRegisterFailureMode string
	testsRegisterTags        []string
)

var testsRegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a regression test in the relevance registry",
	Run:   runTestsRegister,
}

func runTestsRegister(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputCfg()

	record, err := newTracker().Register(relevance.RegressionTestRecord{
		TestID:       testsRegisterID,
		Source:       decay.Source(testsRegisterSource),
		Severity:     decay.Severity(testsRegisterSeverity),
		FailureMode:  testsRegisterFailureMode,
		CoverageTags: testsRegisterTags,
	})
	if err != nil {
		os.Exit(OutputResult(out, "tests register", start, nil, false, err))
	}

	if !out.JSON && !out.Quiet {
		ux.Success(fmt.Sprintf("Registered %s (relevance %.3f)", record.TestID, record.RelevanceScore))
	}
	os.Exit(OutputResult(out, "tests register", start, record, false, nil))
}

// ===== TESTS UPDATE =====

var (
	testsUpdateAll    bool
	testsUpdateResult string
)

var testsUpdateCmd = &cobra.Command{
	Use:   "update [test_id]",
	Short: "Record a trigger for one test, or refresh all scores",
	Long: `With a test id, record that the test triggered (caught a regression)
and refresh its relevance. With --all, recompute relevance for every
active test in the registry.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runTestsUpdate,
}

func runTestsUpdate(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputCfg()
	tracker := newTracker()

	if testsUpdateAll {
		updated, err := tracker.UpdateAll()
		if err != nil {
			os.Exit(OutputResult(out, "tests update", start, nil, false, err))
		}
		if !out.JSON && !out.Quiet {
			ux.Success(fmt.Sprintf("Refreshed relevance for %d tests", updated))
		}
		os.Exit(OutputResult(out, "tests update", start, map[string]int{"updated": updated}, false, nil))
	}

	if len(args) != 1 {
		os.Exit(OutputResult(out, "tests update", start, nil, false,
			errors.New("a test id is required unless --all is set")))
	}

	record, err := tracker.RecordTrigger(args[0], testsUpdateResult)
	if errors.Is(err, relevance.ErrNotFound) {
		result := NoActionResult{
			Status:  "no_action",
			Message: fmt.Sprintf("no registered test with id %s", args[0]),
		}
		if !out.JSON && !out.Quiet {
			ux.Warning(result.Message)
		}
		os.Exit(OutputResult(out, "tests update", start, result, false, nil))
	}
	if err != nil {
		os.Exit(OutputResult(out, "tests update", start, nil, false, err))
	}

	if !out.JSON && !out.Quiet {
		ux.Success(fmt.Sprintf("%s triggered %d times, relevance %.3f",
			record.TestID, record.TriggerCount, record.RelevanceScore))
	}
	os.Exit(OutputResult(out, "tests update", start, record, false, nil))
}

// ===== TESTS RETIRE =====

var (
	testsRetireAuto   bool
	testsRetireReason string
)

var testsRetireCmd = &cobra.Command{
	Use:   "retire [test_id]",
	Short: "Retire a test, or sweep all retirement candidates",
	Long: `With a test id, retire it with the given reason. With --auto, retire
every candidate: tests whose relevance fell below the retirement
threshold after having proven themselves with enough triggers.

Retired tests stay in the registry for audit and can be reactivated.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runTestsRetire,
}

func runTestsRetire(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputCfg()
	tracker := newTracker()

	if testsRetireAuto {
		actions, err := tracker.AutoRetire()
		if err != nil {
			os.Exit(OutputResult(out, "tests retire", start, nil, false, err))
		}
		if !out.JSON && !out.Quiet {
			if len(actions) == 0 {
				ux.Success("No retirement candidates")
			} else {
				for _, action := range actions {
					ux.StatusLine(action.TestID, ux.IconPending,
						fmt.Sprintf("retired, score %.3f", action.RelevanceScore))
				}
			}
		}
		os.Exit(OutputResult(out, "tests retire", start, actions, false, nil))
	}

	if len(args) != 1 {
		os.Exit(OutputResult(out, "tests retire", start, nil, false,
			errors.New("a test id is required unless --auto is set")))
	}

	record, err := tracker.Retire(args[0], relevance.RetirementReason(testsRetireReason))
	if errors.Is(err, relevance.ErrNotFound) {
		result := NoActionResult{
			Status:  "no_action",
			Message: fmt.Sprintf("no registered test with id %s", args[0]),
		}
		if !out.JSON && !out.Quiet {
			ux.Warning(result.Message)
		}
		os.Exit(OutputResult(out, "tests retire", start, result, false, nil))
	}
	if err != nil {
		os.Exit(OutputResult(out, "tests retire", start, nil, false, err))
	}

	if !out.JSON && !out.Quiet {
		ux.Success(fmt.Sprintf("Retired %s (%s)", record.TestID, record.RetirementReason))
	}
	os.Exit(OutputResult(out, "tests retire", start, record, false, nil))
}

// ===== TESTS REVALIDATE =====

var testsRevalidateReactivate []string

var testsRevalidateCmd = &cobra.Command{
	Use:   "revalidate",
	Short: "Review retired tests and reactivate flagged ones",
	Long: `Review every retired test. Tests named with --reactivate come back
active with a neutral relevance score of 0.5 and rebuild their history
from there.`,
	Run: runTestsRevalidate,
}

func runTestsRevalidate(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputCfg()

	flagged := make(map[string]bool, len(testsRevalidateReactivate))
	for _, id := range testsRevalidateReactivate {
		flagged[id] = true
	}

	result, err := newTracker().Revalidate(func(record relevance.RegressionTestRecord) bool {
		return flagged[record.TestID]
	})
	if err != nil {
		os.Exit(OutputResult(out, "tests revalidate", start, nil, false, err))
	}

	if !out.JSON && !out.Quiet {
		ux.Success(fmt.Sprintf("Reviewed %d retired tests, reactivated %d",
			result.Reviewed, len(result.Reactivated)))
		for _, id := range result.Reactivated {
			ux.StatusLine(id, ux.IconSuccess, "reactivated at relevance 0.5")
		}
	}
	os.Exit(OutputResult(out, "tests revalidate", start, result, false, nil))
}

// ===== TESTS COVERAGE =====

var testsCoverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Assess regression coverage health per failure mode",
	Run:   runTestsCoverage,
}

func runTestsCoverage(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputCfg()

	health, err := newTracker().CoverageHealth()
	if err != nil {
		os.Exit(OutputResult(out, "tests coverage", start, nil, false, err))
	}

	if !out.JSON && !out.Quiet {
		ux.Title("Coverage Health")
		for mode, cov := range health.CoverageByFailureMode {
			icon := ux.IconSuccess
			if cov.AvgRelevance < 0.3 || cov.Count < 2 {
				icon = ux.IconWarning
			}
			ux.StatusLine(mode, icon, fmt.Sprintf("%d tests, avg relevance %.3f", cov.Count, cov.AvgRelevance))
		}
		if len(health.WeakCoverageAreas) > 0 {
			ux.Warning(health.Recommendation)
		} else {
			ux.Success(health.Recommendation)
		}
	}
	os.Exit(OutputResult(out, "tests coverage", start, health, len(health.WeakCoverageAreas) > 0, nil))
}

// ===== TESTS METRICS =====

var testsMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show registry-wide decay metrics",
	Run:   runTestsMetrics,
}

func runTestsMetrics(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputCfg()

	metrics, err := newTracker().Metrics()
	if err != nil {
		os.Exit(OutputResult(out, "tests metrics", start, nil, false, err))
	}

	if !out.JSON && !out.Quiet {
		ux.Title("Regression Registry Metrics")
		body := fmt.Sprintf("total tests:           %d\nactive:                %d\nretired:               %d\navg relevance:         %.3f\nlow relevance (<0.3):  %d\nretirement candidates: %d",
			metrics.TotalTests, metrics.ActiveTests, metrics.RetiredTests,
			metrics.AvgRelevance, metrics.LowRelevanceCount, metrics.RetirementCandidates)
		ux.Box("Summary", body)
	}
	os.Exit(OutputResult(out, "tests metrics", start, metrics, false, nil))
}

func init() {
	testsRegisterCmd.Flags().StringVar(&testsRegisterID, "id", "", "test id, e.g. REG-JB-001 (required)")
	testsRegisterCmd.Flags().StringVar(&testsRegisterSource, "source", "manual", "origin: incident, near_miss, red_team, manual")
	testsRegisterCmd.Flags().StringVar(&testsRegisterSeverity, "severity", "medium", "severity: critical, high, medium, low")
	testsRegisterCmd.Flags().StringVar(&testsRegisterFailureMode, "failure-mode", "", "failure mode the test guards against")
	testsRegisterCmd.Flags().StringSliceVar(&testsRegisterTags, "tag", nil, "coverage tags")
	testsRegisterCmd.MarkFlagRequired("id")

	testsUpdateCmd.Flags().BoolVar(&testsUpdateAll, "all", false, "refresh relevance for every active test")
	testsUpdateCmd.Flags().StringVar(&testsUpdateResult, "result", "pass", "trigger result: pass or fail")

	testsRetireCmd.Flags().BoolVar(&testsRetireAuto, "auto", false, "retire every current candidate")
	testsRetireCmd.Flags().StringVar(&testsRetireReason, "reason", "low_relevance",
		"retirement reason: low_relevance, superseded, fp_prone, arch_obsolete, redundant")

	testsRevalidateCmd.Flags().StringSliceVar(&testsRevalidateReactivate, "reactivate", nil,
		"test ids confirmed still relevant, to reactivate")

	testsCmd.AddCommand(testsRegisterCmd)
	testsCmd.AddCommand(testsUpdateCmd)
	testsCmd.AddCommand(testsRetireCmd)
	testsCmd.AddCommand(testsRevalidateCmd)
	testsCmd.AddCommand(testsCoverageCmd)
	testsCmd.AddCommand(testsMetricsCmd)
}
