// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package tui

// Overlay is the popup over the chat view. It is a closed union; nil
// means no popup. Any key dismisses a non-loading overlay.
type Overlay interface {
	isOverlay()
	// Dismissable reports whether a keypress may close the overlay.
	Dismissable() bool
}

// ExecResultOverlay shows the captured output of an executed command or
// interpreter code block.
type ExecResultOverlay struct {
	Title string
	Body  string
}

// DescriptionOverlay shows static text, such as a finished command
// description, a variables snapshot, or help.
type DescriptionOverlay struct {
	Title string
	Body  string
}

// StreamingDescriptionOverlay shows a command description while it is
// still streaming in. It cannot be dismissed while loading.
type StreamingDescriptionOverlay struct {
	Title   string
	Body    string
	Loading bool
}

func (ExecResultOverlay) isOverlay()           {}
func (DescriptionOverlay) isOverlay()          {}
func (StreamingDescriptionOverlay) isOverlay() {}

func (ExecResultOverlay) Dismissable() bool  { return true }
func (DescriptionOverlay) Dismissable() bool { return true }
func (o StreamingDescriptionOverlay) Dismissable() bool {
	return !o.Loading
}
