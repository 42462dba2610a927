// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package decay provides the pure time-decay math for the Harbor gating engine.
//
// Two families of functions live here:
//
//   - Relevance: exponential half-life decay of a regression test's estimated
//     value, adjusted by severity, provenance, and trigger frequency.
//   - SLOStatusFor: conversion of a debt entry's age into an SLO compliance
//     status (ok / warning / escalate / block) with a countdown to blocking.
//
// The package is deliberately a leaf: no I/O, no mutable state, and no imports
// from the rest of the engine. Given the same inputs (including the caller's
// notion of "now") it always produces the same outputs, which is what makes
// aging reports reproducible in CI.
package decay
