// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package relevance manages the regression test registry and its decay.
//
// Regression tests depreciate: attack patterns evolve, architectures change,
// and a bloated suite slows CI while training reviewers to ignore alerts.
// The tracker applies the half-life decay model to every registered test,
// surfaces retirement candidates once a test has both proven itself (enough
// triggers) and gone stale (score below threshold), and keeps retired tests
// around for reactivation when old patterns resurface.
package relevance
