// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

// Package editor implements the composer line editor as a pure data
// structure. All indices are rune indices; terminal I/O and key decoding
// live in the TUI layer.
package editor

import (
	"strings"
	"unicode"
)

// Editor holds the composer state: the current line, a rune-indexed
// cursor, input history, the multiline capture buffer, and pending paste
// placeholders.
type Editor struct {
	line   []rune
	cursor int // 0..len(line), counts runes

	history    []string
	historyPos int    // == len(history) when not navigating
	stash      string // in-progress line saved while navigating history

	multiline      bool
	multilineLines []string

	pendingPastes []pastedBlock
	pasteCounter  int
}

// New returns an empty editor.
func New() *Editor {
	e := &Editor{}
	e.historyPos = 0
	return e
}

// Line returns the current line content.
func (e *Editor) Line() string {
	return string(e.line)
}

// Cursor returns the rune index of the cursor.
func (e *Editor) Cursor() int {
	return e.cursor
}

// Len returns the rune length of the current line.
func (e *Editor) Len() int {
	return len(e.line)
}

// IsEmpty reports whether the line is empty.
func (e *Editor) IsEmpty() bool {
	return len(e.line) == 0
}

// SetLine replaces the line content and puts the cursor at the end.
func (e *Editor) SetLine(s string) {
	e.line = []rune(s)
	e.cursor = len(e.line)
	e.cleanupPendingPastes()
}

// Clear empties the line and drops pending pastes.
func (e *Editor) Clear() {
	e.line = e.line[:0]
	e.cursor = 0
	e.pendingPastes = e.pendingPastes[:0]
}

// clamp keeps the cursor inside [0, len(line)].
func (e *Editor) clamp() {
	if e.cursor < 0 {
		e.cursor = 0
	}
	if e.cursor > len(e.line) {
		e.cursor = len(e.line)
	}
}

// =============================================================================
// INSERTION AND DELETION
// =============================================================================

// InsertRune inserts one rune at the cursor.
func (e *Editor) InsertRune(r rune) {
	e.clamp()
	e.line = append(e.line, 0)
	copy(e.line[e.cursor+1:], e.line[e.cursor:])
	e.line[e.cursor] = r
	e.cursor++
}

// InsertString inserts a string at the cursor.
func (e *Editor) InsertString(s string) {
	if s == "" {
		return
	}
	e.clamp()
	runes := []rune(s)
	e.line = append(e.line, make([]rune, len(runes))...)
	copy(e.line[e.cursor+len(runes):], e.line[e.cursor:])
	copy(e.line[e.cursor:], runes)
	e.cursor += len(runes)
}

// Backspace deletes the rune before the cursor. A placeholder immediately
// before the cursor is removed whole, together with its pending paste.
func (e *Editor) Backspace() {
	e.clamp()
	if e.cursor == 0 {
		return
	}
	if n := e.placeholderEndingAt(e.cursor); n > 0 {
		e.deleteRange(e.cursor-n, e.cursor)
		e.cursor -= n
		e.cleanupPendingPastes()
		return
	}
	e.deleteRange(e.cursor-1, e.cursor)
	e.cursor--
}

// DeleteForward deletes the rune under the cursor. A placeholder starting
// at the cursor is removed whole, together with its pending paste.
func (e *Editor) DeleteForward() {
	e.clamp()
	if e.cursor >= len(e.line) {
		return
	}
	if n := e.placeholderStartingAt(e.cursor); n > 0 {
		e.deleteRange(e.cursor, e.cursor+n)
		e.cleanupPendingPastes()
		return
	}
	e.deleteRange(e.cursor, e.cursor+1)
}

func (e *Editor) deleteRange(from, to int) {
	e.line = append(e.line[:from], e.line[to:]...)
}

// =============================================================================
// MOTIONS
// =============================================================================

// MoveLeft moves the cursor one rune left.
func (e *Editor) MoveLeft() {
	e.clamp()
	if e.cursor > 0 {
		e.cursor--
	}
}

// MoveRight moves the cursor one rune right.
func (e *Editor) MoveRight() {
	e.clamp()
	if e.cursor < len(e.line) {
		e.cursor++
	}
}

// MoveHome moves the cursor to the start of the line.
func (e *Editor) MoveHome() {
	e.cursor = 0
}

// MoveEnd moves the cursor past the last rune.
func (e *Editor) MoveEnd() {
	e.cursor = len(e.line)
}

// MoveWordLeft moves to the start of the previous word. A word is a run
// of non-space runes.
func (e *Editor) MoveWordLeft() {
	e.clamp()
	i := e.cursor
	for i > 0 && unicode.IsSpace(e.line[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(e.line[i-1]) {
		i--
	}
	e.cursor = i
}

// MoveWordRight moves past the end of the next word.
func (e *Editor) MoveWordRight() {
	e.clamp()
	i := e.cursor
	for i < len(e.line) && unicode.IsSpace(e.line[i]) {
		i++
	}
	for i < len(e.line) && !unicode.IsSpace(e.line[i]) {
		i++
	}
	e.cursor = i
}

// =============================================================================
// KILL OPERATIONS
// =============================================================================

// KillToStart deletes from the start of the line to the cursor (Ctrl+U).
func (e *Editor) KillToStart() {
	e.clamp()
	e.deleteRange(0, e.cursor)
	e.cursor = 0
	e.cleanupPendingPastes()
}

// KillToEnd deletes from the cursor to the end of the line (Ctrl+K).
func (e *Editor) KillToEnd() {
	e.clamp()
	e.deleteRange(e.cursor, len(e.line))
	e.cleanupPendingPastes()
}

// DeleteWordBack deletes the word before the cursor (Ctrl+W).
func (e *Editor) DeleteWordBack() {
	e.clamp()
	start := e.cursor
	i := e.cursor
	for i > 0 && unicode.IsSpace(e.line[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(e.line[i-1]) {
		i--
	}
	e.deleteRange(i, start)
	e.cursor = i
	e.cleanupPendingPastes()
}

// =============================================================================
// HISTORY
// =============================================================================

// PushHistory records a submitted line. Consecutive duplicates are
// suppressed; empty lines are never recorded.
func (e *Editor) PushHistory(s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	if n := len(e.history); n > 0 && e.history[n-1] == s {
		e.historyPos = len(e.history)
		return
	}
	e.history = append(e.history, s)
	e.historyPos = len(e.history)
}

// History returns the recorded history, oldest first.
func (e *Editor) History() []string {
	return e.history
}

// HistoryPrev replaces the line with the previous history entry. The
// in-progress line is stashed on first navigation.
func (e *Editor) HistoryPrev() {
	if len(e.history) == 0 || e.historyPos == 0 {
		return
	}
	if e.historyPos == len(e.history) {
		e.stash = e.Line()
	}
	e.historyPos--
	e.line = []rune(e.history[e.historyPos])
	e.cursor = len(e.line)
}

// HistoryNext replaces the line with the next history entry, restoring
// the stashed line past the newest entry.
func (e *Editor) HistoryNext() {
	if e.historyPos >= len(e.history) {
		return
	}
	e.historyPos++
	if e.historyPos == len(e.history) {
		e.line = []rune(e.stash)
	} else {
		e.line = []rune(e.history[e.historyPos])
	}
	e.cursor = len(e.line)
}

// =============================================================================
// MULTILINE CAPTURE
// =============================================================================

// Multiline reports whether multiline capture is active.
func (e *Editor) Multiline() bool {
	return e.multiline
}

// StartMultiline enters multiline capture, clearing the buffer.
func (e *Editor) StartMultiline() {
	e.multiline = true
	e.multilineLines = e.multilineLines[:0]
}

// PushLine appends the current line to the multiline buffer and clears
// the composer for the next line. Paste placeholders are expanded here:
// the buffer holds full text, never markers.
func (e *Editor) PushLine() {
	e.multilineLines = append(e.multilineLines, e.ExpandForSubmit())
	e.Clear()
}

// TakeMultiline ends multiline capture and returns the joined block.
func (e *Editor) TakeMultiline() string {
	e.multiline = false
	block := strings.Join(e.multilineLines, "\n")
	e.multilineLines = e.multilineLines[:0]
	return block
}
