// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe failed: %v", err)
	}
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = old

	buf := make([]byte, 4096)
	n, _ := r.Read(buf)
	return string(buf[:n])
}

func TestPlainModeOutput(t *testing.T) {
	SetPlain(true)
	defer SetPlain(false)

	out := captureStdout(t, func() {
		Success("settlement committed")
	})
	if out != "OK: settlement committed\n" {
		t.Errorf("plain success output = %q", out)
	}

	out = captureStdout(t, func() {
		Box("DEBT STATUS", "total: 0.15")
	})
	if out != "DEBT STATUS: total: 0.15\n" {
		t.Errorf("plain box output = %q", out)
	}
}

func TestPlainModeSuppressesMuted(t *testing.T) {
	SetPlain(true)
	defer SetPlain(false)

	out := captureStdout(t, func() {
		Muted("decorative detail")
	})
	if out != "" {
		t.Errorf("muted text leaked into plain output: %q", out)
	}
}

func TestStatusLinePlainIsTabSeparated(t *testing.T) {
	SetPlain(true)
	defer SetPlain(false)

	out := captureStdout(t, func() {
		StatusLine("AD-20250615-INC_001", IconError, "blocks release")
	})
	fields := strings.Split(strings.TrimSuffix(out, "\n"), "\t")
	if len(fields) != 3 {
		t.Fatalf("expected 3 tab-separated fields, got %d in %q", len(fields), out)
	}
	if fields[1] != "AD-20250615-INC_001" {
		t.Errorf("unexpected id field %q", fields[1])
	}
}

func TestIconRenderPlain(t *testing.T) {
	SetPlain(true)
	defer SetPlain(false)

	if got := IconSuccess.Render(); got != "✓" {
		t.Errorf("plain icon = %q, want bare glyph", got)
	}
}
