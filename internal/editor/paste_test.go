// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package editor

import (
	"strings"
	"testing"
)

func TestInsertPaste_SmallVerbatim(t *testing.T) {
	e := New()
	e.InsertPaste("short paste")

	if e.Line() != "short paste" {
		t.Errorf("line=%q", e.Line())
	}
	if len(e.PendingPastes()) != 0 {
		t.Error("small paste should not create a placeholder")
	}
}

func TestInsertPaste_MediumTruncated(t *testing.T) {
	text := strings.Repeat("m", 500)
	e := New()
	e.InsertPaste(text)

	line := e.Line()
	if line == text {
		t.Fatal("medium paste should not appear verbatim")
	}
	if !strings.Contains(line, "chars)") {
		t.Errorf("placeholder missing trailing count: %q", line)
	}
	if len(e.PendingPastes()) != 1 {
		t.Fatalf("pending pastes = %v", e.PendingPastes())
	}
	if got := e.ExpandForSubmit(); got != text {
		t.Errorf("round trip failed: got %d runes, want %d", len([]rune(got)), len([]rune(text)))
	}
}

func TestInsertPaste_LargeMarker(t *testing.T) {
	text := strings.Repeat("x", 3000)
	e := New()
	e.InsertString("before ")
	e.InsertPaste(text)
	e.InsertString(" after")

	line := e.Line()
	if !strings.Contains(line, "[pasted #1: 3000 chars]") {
		t.Fatalf("line=%q", line)
	}
	if got := e.ExpandForSubmit(); got != "before "+text+" after" {
		t.Errorf("expanded line wrong, got %d runes", len([]rune(got)))
	}
	if len(e.PendingPastes()) != 0 {
		t.Error("pending pastes should clear on submit")
	}
}

func TestInsertPaste_MultipleExpandInOrder(t *testing.T) {
	a := strings.Repeat("a", 3000)
	b := strings.Repeat("b", 3000)
	e := New()
	e.InsertPaste(a)
	e.InsertString(" and ")
	e.InsertPaste(b)

	got := e.ExpandForSubmit()
	if got != a+" and "+b {
		t.Errorf("expansion order wrong, got %d runes", len([]rune(got)))
	}
}

func TestBackspace_RemovesPlaceholderAtomically(t *testing.T) {
	e := New()
	e.InsertPaste(strings.Repeat("z", 3000))
	if len(e.PendingPastes()) != 1 {
		t.Fatal("expected one placeholder")
	}

	// Cursor sits just after the placeholder; one backspace removes it all.
	e.Backspace()
	if e.Line() != "" {
		t.Errorf("line=%q, want empty", e.Line())
	}
	if len(e.PendingPastes()) != 0 {
		t.Error("mapping should be dropped with the placeholder")
	}
}

func TestDeleteForward_RemovesPlaceholderAtomically(t *testing.T) {
	e := New()
	e.InsertPaste(strings.Repeat("z", 3000))
	e.MoveHome()

	e.DeleteForward()
	if e.Line() != "" {
		t.Errorf("line=%q, want empty", e.Line())
	}
	if len(e.PendingPastes()) != 0 {
		t.Error("mapping should be dropped with the placeholder")
	}
}

func TestKill_DropsOrphanedMappings(t *testing.T) {
	e := New()
	e.InsertPaste(strings.Repeat("k", 3000))
	e.InsertString(" tail")

	e.KillToStart()
	if len(e.PendingPastes()) != 0 {
		t.Errorf("orphaned mapping survived: %v", e.PendingPastes())
	}
	if got := e.ExpandForSubmit(); got != "" {
		t.Errorf("ExpandForSubmit=%q, want empty", got)
	}
}

func TestCleanup_Idempotent(t *testing.T) {
	e := New()
	e.InsertPaste(strings.Repeat("q", 3000))
	e.InsertPaste(strings.Repeat("r", 3000))

	e.cleanupPendingPastes()
	first := len(e.PendingPastes())
	e.cleanupPendingPastes()
	e.cleanupPendingPastes()
	if got := len(e.PendingPastes()); got != first {
		t.Errorf("cleanup not idempotent: %d then %d", first, got)
	}
	if first != 2 {
		t.Errorf("both placeholders should survive, got %d", first)
	}
}

func TestSetLine_DropsStaleMappings(t *testing.T) {
	e := New()
	e.InsertPaste(strings.Repeat("s", 3000))
	e.SetLine("entirely new content")

	if len(e.PendingPastes()) != 0 {
		t.Errorf("stale mapping survived SetLine: %v", e.PendingPastes())
	}
}

func TestPushLine_ExpandsPlaceholders(t *testing.T) {
	big := strings.Repeat("x", 3000)
	e := New()
	e.StartMultiline()

	e.InsertString("data: ")
	e.InsertPaste(big)
	e.PushLine()
	e.InsertString("second line")
	e.PushLine()

	block := e.TakeMultiline()
	if strings.Contains(block, "[pasted") {
		t.Fatalf("placeholder leaked into the block: %q", block[:60])
	}
	if block != "data: "+big+"\nsecond line" {
		t.Errorf("block wrong, got %d runes", len([]rune(block)))
	}
	if len(e.PendingPastes()) != 0 {
		t.Errorf("pending pastes should be consumed: %v", e.PendingPastes())
	}
}

func TestInsertPaste_PreservesNewlinesInRetainedText(t *testing.T) {
	text := strings.Repeat("line\n", 100) // 500 runes, medium range
	e := New()
	e.InsertPaste(text)

	if strings.Contains(e.Line(), "\n") {
		t.Error("visible placeholder should not contain newlines")
	}
	if got := e.ExpandForSubmit(); got != text {
		t.Error("retained text should preserve newlines")
	}
}
