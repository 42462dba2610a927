// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package debtledger

import (
	"errors"
	"fmt"
)

// ErrNotFound is the recoverable "nothing to do" result: the referenced
// incident or debt id has no matching ledger entry. CI callers treat this as
// a no-op, never as a crash.
var ErrNotFound = errors.New("no matching debt entry")

// ErrStaleVersion rejects a save whose loaded version stamp no longer matches
// the persisted ledger. The caller should reload and retry.
var ErrStaleVersion = errors.New("ledger version advanced since load")

// InvariantError is fatal: the recomputed summary disagrees with the entry
// set. The write is aborted rather than persisting an inconsistent ledger.
type InvariantError struct {
	Field string
	Want  string
	Got   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("ledger invariant violated: %s (want %s, got %s)", e.Field, e.Want, e.Got)
}

// ValidationError wraps a schema violation found at the persistence boundary.
type ValidationError struct {
	DebtID  string
	Wrapped error
}

func (e *ValidationError) Error() string {
	if e.DebtID != "" {
		return fmt.Sprintf("debt entry %s failed validation: %v", e.DebtID, e.Wrapped)
	}
	return fmt.Sprintf("debt entry failed validation: %v", e.Wrapped)
}

func (e *ValidationError) Unwrap() error {
	return e.Wrapped
}
