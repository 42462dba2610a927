// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package debtledger holds the alignment debt ledger: the typed data model,
// the yaml-backed store, and the lifecycle manager that is the only writer
// of entry state and summary fields.
//
// # Architecture
//
//	incident analysis ──▶ Manager.CreateDebtFromIncident ──▶ Ledger (yaml)
//	verified fix      ──▶ Manager.MarkMitigated          ──▶ Ledger (yaml)
//	risk sign-off     ──▶ Manager.MarkAccepted           ──▶ Ledger (yaml)
//
// Every mutation goes through the store's load → mutate → recalculate → save
// cycle under a process-wide lock, and the recomputed Summary is persisted
// together with the entries or not at all. A version stamp on the Summary
// rejects writes against a ledger that advanced since it was loaded, which is
// the multi-worker safety net for CI jobs racing each other.
//
// Entries are never deleted. Terminal states (mitigated, accepted, expired)
// stay in the ledger as institutional memory, with evidence accumulating
// append-only.
package debtledger
