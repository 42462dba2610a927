// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package aging turns debt age into organizational accountability.
//
// It analyzes how long each open debt entry has gone without resolution,
// derives an SLO compliance status per entry (ok, warning, escalate, block),
// and enforces the blocking rule by flipping blocks_release on entries that
// exceeded their deadline. Reports and dashboard exports aggregate the same
// analysis for humans and CI.
//
// The package never persists anything itself. Enforce mutates the ledger in
// memory; the caller owns the save so enforcement participates in the usual
// load, mutate, recalculate, save cycle.
package aging
