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
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianHarbor/cmd/harbor/config"
	"github.com/AleutianAI/AleutianHarbor/pkg/logging"
	"github.com/AleutianAI/AleutianHarbor/pkg/ux"
	"github.com/AleutianAI/AleutianHarbor/services/debtledger"
	"github.com/AleutianAI/AleutianHarbor/services/relevance"
	"github.com/AleutianAI/AleutianHarbor/services/settlement"
)

// ===== GLOBAL STATE =====

var (
	cfgPath string
	cfg     *config.HarborConfig
	logger  *logging.Logger

	flagJSON    bool
	flagCompact bool
	flagQuiet   bool
)

// outputCfg snapshots the global output flags for a command run.
func outputCfg() OutputConfig {
	return OutputConfig{JSON: flagJSON, Compact: flagCompact, Quiet: flagQuiet}
}

// ===== SERVICE CONSTRUCTORS =====

func newDebtManager() *debtledger.Manager {
	store := debtledger.NewStore(cfg.Stores.DebtLedger)
	return debtledger.NewManager(store, logger)
}

func newTracker() *relevance.Tracker {
	store := relevance.NewRegistryStore(cfg.Stores.TestRegistry)
	return relevance.NewTracker(store, cfg.Decay, logger)
}

func newReconciler() *settlement.Reconciler {
	exceptions := settlement.NewFileExceptionStore(cfg.Stores.PolicyExceptions)
	return settlement.NewReconciler(newDebtManager(), exceptions, logger)
}

func parseLogLevel(s string) logging.Level {
	switch strings.ToLower(s) {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

// ===== ROOT COMMAND =====

var rootCmd = &cobra.Command{
	Use:   "harbor",
	Short: "Alignment debt ledger and regression relevance tracking",
	Long: `Harbor tracks alignment debt from safety incidents and keeps the
regression test suite honest about which tests still earn their keep.

Debt entries accrue from incidents, age against SLOs, and gate releases.
Verified mitigations settle debt and retire the policy exceptions that
papered over it. Regression tests decay in relevance until they are
retired or revalidated.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgPath
		if path == "" {
			var err error
			path, err = config.DefaultPath()
			if err != nil {
				return err
			}
		}

		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logger = logging.New(logging.Config{
			Level:   parseLogLevel(cfg.Logging.Level),
			LogDir:  cfg.Logging.Dir,
			Service: "harbor",
			Quiet:   flagQuiet,
		})

		// Styled output is for humans at a TTY only.
		ux.SetPlain(flagJSON || flagQuiet)
		return nil
	},
}

// ===== COMMAND FAMILIES =====

var debtCmd = &cobra.Command{
	Use:   "debt",
	Short: "Manage alignment debt entries",
}

var sloCmd = &cobra.Command{
	Use:   "slo",
	Short: "Check and enforce debt aging SLOs",
}

var testsCmd = &cobra.Command{
	Use:   "tests",
	Short: "Track regression test relevance",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.harbor/harbor.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagCompact, "compact", false, "compact JSON output")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress output, exit code only")

	rootCmd.AddCommand(debtCmd)
	rootCmd.AddCommand(sloCmd)
	rootCmd.AddCommand(settleCmd)
	rootCmd.AddCommand(testsCmd)
}
