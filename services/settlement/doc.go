// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package settlement clears alignment debt after verified incident replay.
//
// Flow:
//
//	replay verification (JSON)
//	  → extract principles whose mitigation passed
//	  → debt ledger: open entries for those principles → mitigated
//	  → exception store: standing waivers for those principles revoked,
//	    audit log appended
//
// The reconciler is the only component that writes two stores. The writes
// run as a compensated two-phase commit: if the exception-store write fails
// after the ledger commit, the ledger is rolled back to its pre-settlement
// snapshot. If even the rollback fails, the result reports the divergence
// per store instead of hiding it; a stale exception left active while its
// debt reads mitigated is the failure mode this package exists to prevent.
package settlement
