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
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianHarbor/pkg/ux"
	"github.com/AleutianAI/AleutianHarbor/services/aging"
	"github.com/AleutianAI/AleutianHarbor/services/debtledger"
	"github.com/AleutianAI/AleutianHarbor/services/decay"
)

// ===== SLO CHECK =====

var sloCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check every open debt entry against the aging SLOs",
	Long: `Check debt aging without modifying the ledger.

Exit codes: 0 when all entries are within SLO or only warnings exist,
1 when any entry has escalated, 2 when any entry exceeds its block SLO.`,
	Run: runSLOCheck,
}

func runSLOCheck(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputCfg()

	entries, err := analyzeLedger()
	if err != nil {
		os.Exit(OutputResult(out, "slo check", start, nil, false, err))
	}

	if !out.JSON && !out.Quiet {
		renderAging(entries)
	}

	code := aging.GateExitCode(entries)
	if out.JSON {
		if exitCode := OutputResult(out, "slo check", start, entries, false, nil); exitCode != CLIExitSuccess {
			os.Exit(exitCode)
		}
	}
	os.Exit(code)
}

func analyzeLedger() ([]aging.Entry, error) {
	ledger, err := debtledger.NewStore(cfg.Stores.DebtLedger).Load()
	if err != nil {
		return nil, err
	}
	return aging.Analyze(ledger, cfg.Aging, time.Now().UTC()), nil
}

func renderAging(entries []aging.Entry) {
	ux.Title("Debt Aging")
	if len(entries) == 0 {
		ux.Success("No open debt entries")
		return
	}
	for _, entry := range entries {
		icon := ux.IconSuccess
		switch entry.SLOStatus {
		case decay.SLOWarning:
			icon = ux.IconWarning
		case decay.SLOEscalate:
			icon = ux.IconWarning
		case decay.SLOBlock:
			icon = ux.IconError
		}
		detail := fmt.Sprintf("%s, %d days old, %s", entry.Severity, entry.AgeDays, entry.SLOStatus)
		if entry.SLOStatus != decay.SLOBlock {
			detail += fmt.Sprintf(", blocks in %d days", entry.DaysUntilBlock)
		}
		ux.StatusLine(entry.DebtID, icon, detail)
	}
}

// ===== SLO ENFORCE =====

var sloEnforceCmd = &cobra.Command{
	Use:   "enforce",
	Short: "Flag SLO-exceeding entries as release-blocking",
	Long: `Set blocks_release on every open entry past its block SLO and persist
the ledger. Already-flagged entries are left alone, so repeated runs
converge.`,
	Run: runSLOEnforce,
}

func runSLOEnforce(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputCfg()
	now := time.Now().UTC()

	var flagged int
	store := debtledger.NewStore(cfg.Stores.DebtLedger)
	err := store.Mutate(func(ledger *debtledger.Ledger) error {
		flagged = aging.Enforce(ledger, cfg.Aging, now)
		debtledger.RecalculateSummary(ledger, now)
		return nil
	})
	if err != nil {
		os.Exit(OutputResult(out, "slo enforce", start, nil, false, err))
	}

	if !out.JSON && !out.Quiet {
		if flagged == 0 {
			ux.Success("No new SLO violations to enforce")
		} else {
			ux.Warning(fmt.Sprintf("%d debt entries newly flagged as release-blocking", flagged))
		}
	}
	data := map[string]int{"newly_blocking": flagged}
	os.Exit(OutputResult(out, "slo enforce", start, data, flagged > 0, nil))
}

// ===== SLO REPORT =====

var sloReportOutput string

var sloReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the full aging report",
	Run:   runSLOReport,
}

func runSLOReport(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputCfg()
	now := time.Now().UTC()

	entries, err := analyzeLedger()
	if err != nil {
		os.Exit(OutputResult(out, "slo report", start, nil, false, err))
	}
	report := aging.BuildReport(entries, cfg.Aging, now)

	if sloReportOutput != "" {
		if err := writeJSONFile(sloReportOutput, report); err != nil {
			os.Exit(OutputResult(out, "slo report", start, nil, false, err))
		}
		if !out.JSON && !out.Quiet {
			ux.Success(fmt.Sprintf("Aging report written to %s", sloReportOutput))
		}
		os.Exit(OutputResult(out, "slo report", start, report, false, nil))
	}

	if !out.JSON && !out.Quiet {
		ux.Title("Aging Report")
		summary := fmt.Sprintf("open entries:   %d\nslo violations: %d\naverage age:    %.1f days",
			report.Summary.TotalActiveDebt, len(report.SLOViolations), report.Summary.AverageAgeDays)
		ux.Box("Summary", summary)
	}
	os.Exit(OutputResult(out, "slo report", start, report, false, nil))
}

// ===== SLO DASHBOARD =====

var sloDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show aging KPIs and the age distribution",
	Run:   runSLODashboard,
}

func runSLODashboard(cmd *cobra.Command, args []string) {
	start := time.Now()
	out := outputCfg()

	entries, err := analyzeLedger()
	if err != nil {
		os.Exit(OutputResult(out, "slo dashboard", start, nil, false, err))
	}
	dashboard := aging.BuildDashboard(entries, time.Now().UTC())

	if !out.JSON && !out.Quiet {
		ux.Title("Debt Aging Dashboard")
		kpis := fmt.Sprintf("open debt entries: %d\nblocking entries:  %d\naverage age:       %.1f days",
			dashboard.KPIs.TotalDebtCount, dashboard.KPIs.BlockingDebtCount, dashboard.KPIs.AvgDebtAgeDays)
		ux.Box("KPIs", kpis)
		for _, bucket := range dashboard.AgingCurve {
			bar := strings.Repeat("#", bucket.Count)
			ux.Info(fmt.Sprintf("%3d-%3dd %s %d", bucket.Days, bucket.Days+6, bar, bucket.Count))
		}
	}
	os.Exit(OutputResult(out, "slo dashboard", start, dashboard, false, nil))
}

// ===== SLO WATCH =====

var sloWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-check aging SLOs whenever the ledger file changes",
	Long: `Watch the ledger file and rerun the SLO check on every write. Checks
are serialized; a burst of writes triggers one check per event after the
previous check finishes. Stop with Ctrl-C.`,
	RunE: runSLOWatch,
}

func runSLOWatch(cmd *cobra.Command, args []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and atomic renames replace the file,
	// which drops a watch registered on the file itself.
	ledgerPath := cfg.Stores.DebtLedger
	if err := watcher.Add(filepath.Dir(ledgerPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(ledgerPath), err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ux.Info(fmt.Sprintf("Watching %s for changes", ledgerPath))
	watchCheck()

	base := filepath.Base(ledgerPath)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			watchCheck()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		case <-sig:
			ux.Info("Stopping watch")
			return nil
		}
	}
}

func watchCheck() {
	entries, err := analyzeLedger()
	if err != nil {
		ux.Error(fmt.Sprintf("check failed: %v", err))
		return
	}
	stamp := time.Now().UTC().Format(time.RFC3339)
	switch aging.GateExitCode(entries) {
	case CLIExitError:
		ux.Error(fmt.Sprintf("[%s] SLO BLOCK: at least one entry past its block threshold", stamp))
	case CLIExitFindings:
		ux.Warning(fmt.Sprintf("[%s] SLO escalation: entries need attention", stamp))
	default:
		ux.Success(fmt.Sprintf("[%s] all %d open entries within SLO", stamp, len(entries)))
	}
}

func init() {
	sloReportCmd.Flags().StringVarP(&sloReportOutput, "output", "o", "", "write the report to a file instead of stdout")

	sloCmd.AddCommand(sloCheckCmd)
	sloCmd.AddCommand(sloEnforceCmd)
	sloCmd.AddCommand(sloReportCmd)
	sloCmd.AddCommand(sloDashboardCmd)
	sloCmd.AddCommand(sloWatchCmd)
}
