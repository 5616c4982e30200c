// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package editor

import (
	"fmt"
	"strings"

	"github.com/xuzhougeng/sgpt-go/internal/util"
)

// Paste thresholds, in runes. Pastes up to MediumPasteRunes go in
// verbatim; up to LargePasteRunes they are shown truncated with a
// trailing count; beyond that only a compact marker appears. Either
// placeholder keeps the full text out-of-band until submit.
const (
	MediumPasteRunes = 256
	LargePasteRunes  = 2048

	// truncatedHeadRunes is how much of a medium paste stays visible.
	truncatedHeadRunes = 80
)

// pastedBlock is one placeholder -> full text pair. Order is insertion
// order, which ExpandForSubmit preserves.
type pastedBlock struct {
	placeholder string
	text        string
}

// PendingPastes returns the current placeholder strings, oldest first.
func (e *Editor) PendingPastes() []string {
	out := make([]string, len(e.pendingPastes))
	for i, p := range e.pendingPastes {
		out[i] = p.placeholder
	}
	return out
}

// InsertPaste inserts pasted text at the cursor. Newlines are preserved
// in the retained text but flattened in the visible placeholder.
func (e *Editor) InsertPaste(text string) {
	if text == "" {
		return
	}
	n := util.RuneLen(text)
	if n <= MediumPasteRunes {
		e.InsertString(text)
		return
	}

	e.pasteCounter++
	var placeholder string
	if n <= LargePasteRunes {
		head := flattenNewlines(util.TruncateRunesNoEllipsis(text, truncatedHeadRunes))
		placeholder = fmt.Sprintf("%s… (+%d chars)", head, n-truncatedHeadRunes)
	} else {
		placeholder = fmt.Sprintf("[pasted #%d: %d chars]", e.pasteCounter, n)
	}

	e.pendingPastes = append(e.pendingPastes, pastedBlock{placeholder: placeholder, text: text})
	e.InsertString(placeholder)
}

func flattenNewlines(s string) string {
	return strings.NewReplacer("\n", " ", "\r", "").Replace(s)
}

// ExpandForSubmit returns the line with every placeholder replaced by its
// full text (first occurrence, in insertion order) and resets paste state.
func (e *Editor) ExpandForSubmit() string {
	line := e.Line()
	for _, p := range e.pendingPastes {
		line = strings.Replace(line, p.placeholder, p.text, 1)
	}
	e.pendingPastes = e.pendingPastes[:0]
	return line
}

// cleanupPendingPastes drops pairs whose placeholder no longer occurs in
// the line. Safe to call repeatedly.
func (e *Editor) cleanupPendingPastes() {
	if len(e.pendingPastes) == 0 {
		return
	}
	line := e.Line()
	kept := e.pendingPastes[:0]
	for _, p := range e.pendingPastes {
		if strings.Contains(line, p.placeholder) {
			kept = append(kept, p)
		}
	}
	e.pendingPastes = kept
}

// placeholderEndingAt returns the rune length of a placeholder whose last
// rune sits just before position pos, or 0.
func (e *Editor) placeholderEndingAt(pos int) int {
	for _, p := range e.pendingPastes {
		n := util.RuneLen(p.placeholder)
		if pos-n < 0 {
			continue
		}
		if string(e.line[pos-n:pos]) == p.placeholder {
			return n
		}
	}
	return 0
}

// placeholderStartingAt returns the rune length of a placeholder starting
// at position pos, or 0.
func (e *Editor) placeholderStartingAt(pos int) int {
	for _, p := range e.pendingPastes {
		n := util.RuneLen(p.placeholder)
		if pos+n > len(e.line) {
			continue
		}
		if string(e.line[pos:pos+n]) == p.placeholder {
			return n
		}
	}
	return 0
}
