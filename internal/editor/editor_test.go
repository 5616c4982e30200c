// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package editor

import (
	"math/rand"
	"strings"
	"testing"
)

func TestInsertAndMotions(t *testing.T) {
	e := New()
	e.InsertString("hello world")

	if e.Line() != "hello world" || e.Cursor() != 11 {
		t.Fatalf("line=%q cursor=%d", e.Line(), e.Cursor())
	}

	e.MoveHome()
	if e.Cursor() != 0 {
		t.Errorf("MoveHome cursor=%d", e.Cursor())
	}
	e.MoveWordRight()
	if e.Cursor() != 5 {
		t.Errorf("MoveWordRight cursor=%d", e.Cursor())
	}
	e.MoveRight()
	e.InsertString("big ")
	if e.Line() != "hello big world" {
		t.Errorf("line=%q", e.Line())
	}
	e.MoveEnd()
	e.MoveWordLeft()
	if e.Cursor() != 10 {
		t.Errorf("MoveWordLeft cursor=%d", e.Cursor())
	}
}

func TestUnicodeEditing(t *testing.T) {
	e := New()
	e.InsertString("El Niño")

	// Cursor counts runes, not bytes.
	if e.Cursor() != 7 {
		t.Fatalf("cursor=%d, want 7", e.Cursor())
	}

	// Delete the ñ: move left past "o", backspace.
	e.MoveLeft()
	e.Backspace()
	if e.Line() != "El Nio" {
		t.Errorf("line=%q, want %q", e.Line(), "El Nio")
	}

	e.InsertRune('ñ')
	if e.Line() != "El Niño" {
		t.Errorf("line=%q, want %q", e.Line(), "El Niño")
	}

	// Word motion over multibyte text.
	e.MoveHome()
	e.MoveWordRight()
	e.MoveWordRight()
	if e.Cursor() != e.Len() {
		t.Errorf("cursor=%d, want end %d", e.Cursor(), e.Len())
	}
}

func TestKillOperations(t *testing.T) {
	e := New()
	e.InsertString("one two three")

	e.MoveWordLeft() // before "three"
	e.KillToEnd()
	if e.Line() != "one two " {
		t.Errorf("KillToEnd line=%q", e.Line())
	}

	e.DeleteWordBack()
	if e.Line() != "one " {
		t.Errorf("DeleteWordBack line=%q", e.Line())
	}

	e.MoveEnd()
	e.KillToStart()
	if e.Line() != "" || e.Cursor() != 0 {
		t.Errorf("KillToStart line=%q cursor=%d", e.Line(), e.Cursor())
	}
}

func TestDeleteForward(t *testing.T) {
	e := New()
	e.InsertString("abc")
	e.MoveHome()
	e.DeleteForward()
	if e.Line() != "bc" || e.Cursor() != 0 {
		t.Errorf("line=%q cursor=%d", e.Line(), e.Cursor())
	}
	e.MoveEnd()
	e.DeleteForward() // no-op at end
	if e.Line() != "bc" {
		t.Errorf("line=%q", e.Line())
	}
}

func TestHistoryDedupe(t *testing.T) {
	e := New()
	e.PushHistory("first")
	e.PushHistory("second")
	e.PushHistory("second") // consecutive duplicate dropped
	e.PushHistory("first")  // non-consecutive duplicate kept
	e.PushHistory("   ")    // blank dropped

	got := e.History()
	want := []string{"first", "second", "first"}
	if len(got) != len(want) {
		t.Fatalf("history=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("history[%d]=%q, want %q", i, got[i], want[i])
		}
	}
}

func TestHistoryNavigationStash(t *testing.T) {
	e := New()
	e.PushHistory("older")
	e.PushHistory("newer")

	e.InsertString("draft")
	e.HistoryPrev()
	if e.Line() != "newer" {
		t.Errorf("line=%q, want newer", e.Line())
	}
	e.HistoryPrev()
	if e.Line() != "older" {
		t.Errorf("line=%q, want older", e.Line())
	}
	e.HistoryPrev() // at oldest, no-op
	if e.Line() != "older" {
		t.Errorf("line=%q, want older", e.Line())
	}
	e.HistoryNext()
	e.HistoryNext()
	if e.Line() != "draft" {
		t.Errorf("line=%q, want stashed draft", e.Line())
	}
}

func TestMultiline(t *testing.T) {
	e := New()
	e.StartMultiline()
	if !e.Multiline() {
		t.Fatal("multiline should be active")
	}
	e.InsertString("line one")
	e.PushLine()
	e.InsertString("line two")
	e.PushLine()

	got := e.TakeMultiline()
	if got != "line one\nline two" {
		t.Errorf("TakeMultiline=%q", got)
	}
	if e.Multiline() {
		t.Error("multiline should end after take")
	}
}

// Cursor stays a valid rune index under arbitrary edit sequences,
// including multibyte input.
func TestCursorValidityUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	runes := []rune("aé你🎉 x\tñ")
	e := New()

	ops := []func(){
		func() { e.InsertRune(runes[rng.Intn(len(runes))]) },
		func() { e.InsertString("El Niño 你好") },
		func() { e.Backspace() },
		func() { e.DeleteForward() },
		func() { e.MoveLeft() },
		func() { e.MoveRight() },
		func() { e.MoveHome() },
		func() { e.MoveEnd() },
		func() { e.MoveWordLeft() },
		func() { e.MoveWordRight() },
		func() { e.KillToStart() },
		func() { e.KillToEnd() },
		func() { e.DeleteWordBack() },
		func() { e.InsertPaste(strings.Repeat("p", 300)) },
	}

	for i := 0; i < 5000; i++ {
		ops[rng.Intn(len(ops))]()
		if e.Cursor() < 0 || e.Cursor() > e.Len() {
			t.Fatalf("op %d: cursor %d out of range [0, %d]", i, e.Cursor(), e.Len())
		}
		// Line must remain valid UTF-8 by construction; verify round-trip.
		if got := len([]rune(e.Line())); got != e.Len() {
			t.Fatalf("op %d: rune length mismatch %d != %d", i, got, e.Len())
		}
	}
}
