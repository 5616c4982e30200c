// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"

	"github.com/xuzhougeng/sgpt-go/internal/interp"
	"github.com/xuzhougeng/sgpt-go/internal/llm"
)

// Mode is the input mode of the session.
type Mode int

const (
	ModeChat Mode = iota
	ModeShell
	ModeInterpreter
)

func (m Mode) String() string {
	switch m {
	case ModeShell:
		return "shell"
	case ModeInterpreter:
		return "interpreter"
	default:
		return "chat"
	}
}

// App is the framework-free application state. The Bubble Tea model owns
// one App and is its sole mutator.
type App struct {
	SessionID string
	Mode      Mode
	Language  interp.Language
	Model     string

	Messages           []llm.Message
	MaxDisplayMessages int

	// Streaming phase: at most one request is in flight; its content
	// accumulates in response until finalized.
	Streaming bool
	response  strings.Builder

	// PendingQueue holds messages submitted while a response was
	// streaming. FIFO; drained one entry per completed stream.
	PendingQueue []string

	Overlay Overlay

	// LastArtifact is the most recent shell command or code block the
	// assistant produced, targeted by the e/r/d/p shortcuts.
	LastArtifact string

	Status string
}

// NewApp builds the application state for a session.
func NewApp(sessionID string, mode Mode, model string, history []llm.Message) *App {
	a := &App{
		SessionID:          sessionID,
		Mode:               mode,
		Model:              model,
		Messages:           history,
		MaxDisplayMessages: 100,
		Language:           interp.Python,
	}
	a.UpdateStatus()
	return a
}

// AddMessage appends a message to the conversation.
func (a *App) AddMessage(m llm.Message) {
	a.Messages = append(a.Messages, m)
}

// VisibleMessages returns the tail of the conversation the UI renders,
// excluding system messages.
func (a *App) VisibleMessages() []llm.Message {
	visible := make([]llm.Message, 0, len(a.Messages))
	for _, m := range a.Messages {
		if m.Role == llm.RoleSystem {
			continue
		}
		visible = append(visible, m)
	}
	if a.MaxDisplayMessages > 0 && len(visible) > a.MaxDisplayMessages {
		visible = visible[len(visible)-a.MaxDisplayMessages:]
	}
	return visible
}

// StartResponse enters the streaming phase.
func (a *App) StartResponse() {
	a.Streaming = true
	a.response.Reset()
	a.UpdateStatus()
}

// AppendResponse adds streamed content to the in-flight response.
func (a *App) AppendResponse(s string) {
	a.response.WriteString(s)
}

// Response returns the in-flight response content.
func (a *App) Response() string {
	return a.response.String()
}

// FinishResponse finalizes the in-flight response as an assistant
// message and leaves the streaming phase. A stream that ended with no
// content (tool calls only) appends nothing. In shell and interpreter
// mode the trimmed response becomes the last artifact.
func (a *App) FinishResponse() llm.Message {
	content := a.response.String()
	a.response.Reset()
	a.Streaming = false

	var msg llm.Message
	if content != "" {
		msg = llm.AssistantMessage(content)
		a.AddMessage(msg)
	}

	if trimmed := strings.TrimSpace(content); trimmed != "" {
		switch a.Mode {
		case ModeShell:
			a.LastArtifact = trimmed
		case ModeInterpreter:
			a.LastArtifact = interp.StripFence(trimmed)
		}
	}
	a.UpdateStatus()
	return msg
}

// AbortResponse finalizes a cancelled stream, keeping any partial
// content with a cancellation marker.
func (a *App) AbortResponse() {
	if a.response.Len() > 0 {
		a.response.WriteString("\n[cancelled]")
		a.FinishResponse()
		return
	}
	a.Streaming = false
	a.UpdateStatus()
}

// FailResponse finalizes a failed stream: any partial content is kept,
// and the formatted error is appended as a synthetic assistant message.
func (a *App) FailResponse(errText string) {
	if a.response.Len() > 0 {
		a.FinishResponse()
	} else {
		a.Streaming = false
	}
	a.AddMessage(llm.AssistantMessage(errText))
	a.UpdateStatus()
}

// TryQueue appends text to the pending queue if a response is streaming.
// Returns false when the caller should dispatch immediately instead.
func (a *App) TryQueue(text string) bool {
	if !a.Streaming {
		return false
	}
	a.PendingQueue = append(a.PendingQueue, text)
	a.UpdateStatus()
	return true
}

// Dequeue pops the oldest queued message.
func (a *App) Dequeue() (string, bool) {
	if len(a.PendingQueue) == 0 {
		return "", false
	}
	head := a.PendingQueue[0]
	a.PendingQueue = a.PendingQueue[1:]
	a.UpdateStatus()
	return head, true
}

// UpdateStatus recomputes the status line.
func (a *App) UpdateStatus() {
	var sb strings.Builder
	sb.WriteString(a.Mode.String())
	if a.Model != "" {
		sb.WriteString(" │ ")
		sb.WriteString(a.Model)
	}
	if a.Streaming {
		sb.WriteString(" │ receiving")
	}
	if n := len(a.PendingQueue); n > 0 {
		fmt.Fprintf(&sb, " │ Queued: %d", n)
	}
	a.Status = sb.String()
}
