// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package decay

// SLOStatusFor derives the aging compliance status for a debt entry.
//
// The block deadline is chosen by severity (critical entries block soonest).
// Below the block deadline, the escalate and warning thresholds apply in
// order. The second return value is the number of days until the entry
// blocks release; it is reported as 0 once the entry is already blocking.
func SLOStatusFor(ageDays int, severity Severity, thresholds AgingThresholds) (SLOStatus, int) {
	blockThreshold := thresholds.BlockThreshold(severity)
	daysUntilBlock := blockThreshold - ageDays

	switch {
	case ageDays >= blockThreshold:
		return SLOBlock, 0
	case ageDays >= thresholds.EscalateDays:
		return SLOEscalate, daysUntilBlock
	case ageDays >= thresholds.WarningDays:
		return SLOWarning, daysUntilBlock
	default:
		return SLOOk, daysUntilBlock
	}
}
