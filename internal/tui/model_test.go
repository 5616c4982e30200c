// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/xuzhougeng/sgpt-go/internal/interp"
	"github.com/xuzhougeng/sgpt-go/internal/llm"
)

func newTestModel(mode Mode) *Model {
	m := newModel(Options{
		// Unconfigured client: any accidental dispatch fails fast.
		Client:    llm.NewClient("https://example.invalid", "", "test-model"),
		SessionID: "temp",
		Mode:      mode,
	})
	m.handleResize(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeLine(m *Model, s string) {
	for _, r := range s {
		if r == ' ' {
			m.Update(tea.KeyMsg{Type: tea.KeySpace})
			continue
		}
		m.Update(keyMsg(string(r)))
	}
}

func TestDoubleCtrlC_QuitsWithinWindow(t *testing.T) {
	m := newTestModel(ModeChat)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd != nil {
		t.Fatal("first Ctrl+C must not quit")
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("second Ctrl+C within window should quit")
	}
	if msg := cmd(); msg != tea.Quit() {
		t.Errorf("cmd = %v, want quit", msg)
	}
}

func TestDoubleCtrlC_WindowExpires(t *testing.T) {
	m := newTestModel(ModeChat)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m.lastCtrlC = time.Now().Add(-600 * time.Millisecond)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd != nil {
		t.Error("Ctrl+C after window should not quit")
	}
}

func TestCtrlC_ClearsComposer(t *testing.T) {
	m := newTestModel(ModeChat)
	typeLine(m, "half typed")

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if m.ed.Line() != "" {
		t.Errorf("composer = %q, want cleared", m.ed.Line())
	}
}

func TestOverlay_AnyKeyDismisses(t *testing.T) {
	m := newTestModel(ModeShell)
	m.app.Overlay = ExecResultOverlay{Title: "ls", Body: "out"}

	m.Update(keyMsg("x"))
	if m.app.Overlay != nil {
		t.Error("overlay should dismiss on any key")
	}
}

func TestOverlay_LoadingBlocksDismissal(t *testing.T) {
	m := newTestModel(ModeShell)
	m.app.Overlay = StreamingDescriptionOverlay{Title: "ls", Loading: true}

	m.Update(keyMsg("x"))
	if m.app.Overlay == nil {
		t.Fatal("loading overlay must not dismiss")
	}

	m.Update(DescribeDoneMsg{})
	m.Update(keyMsg("x"))
	if m.app.Overlay != nil {
		t.Error("finished overlay should dismiss")
	}
}

func TestMultilineToggle(t *testing.T) {
	m := newTestModel(ModeChat)

	typeLine(m, `"""`)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.ed.Multiline() {
		t.Fatal("opening \"\"\" should enter multiline")
	}

	typeLine(m, "line one")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	typeLine(m, "line two")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	// Closing fence submits; with a streaming response it would queue,
	// so fake streaming to capture the text.
	m.app.Streaming = true
	typeLine(m, `"""`)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.ed.Multiline() {
		t.Error("closing \"\"\" should leave multiline")
	}
	if len(m.app.PendingQueue) != 1 || m.app.PendingQueue[0] != "line one\nline two" {
		t.Errorf("queued = %v", m.app.PendingQueue)
	}
}

func TestMultilinePaste_SubmitsFullText(t *testing.T) {
	m := newTestModel(ModeChat)
	big := strings.Repeat("x", 3000)

	typeLine(m, `"""`)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(big), Paste: true})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	m.app.Streaming = true // capture submission in the queue
	typeLine(m, `"""`)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(m.app.PendingQueue) != 1 {
		t.Fatalf("queue = %v", m.app.PendingQueue)
	}
	got := m.app.PendingQueue[0]
	if strings.Contains(got, "[pasted") {
		t.Fatalf("placeholder leaked into the submitted block: %q", got[:60])
	}
	if got != big {
		t.Errorf("block wrong, got %d runes", len([]rune(got)))
	}
}

func TestSubmitWhileStreaming_Queues(t *testing.T) {
	m := newTestModel(ModeChat)
	m.app.Streaming = true

	typeLine(m, "queued message")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(m.app.PendingQueue) != 1 {
		t.Fatalf("queue = %v", m.app.PendingQueue)
	}
	if m.ed.Line() != "" {
		t.Error("composer should clear after queueing")
	}
	if !strings.Contains(m.app.Status, "Queued: 1") {
		t.Errorf("status = %q", m.app.Status)
	}
}

func TestStreamFailed_AppendsHintAndLeavesStreaming(t *testing.T) {
	m := newTestModel(ModeChat)
	m.app.StartResponse()

	_, cmd := m.Update(StreamFailedMsg{Err: errors.New("HTTP 401 Unauthorized")})
	if m.app.Streaming {
		t.Error("streaming must end on failure")
	}
	last := m.app.Messages[len(m.app.Messages)-1]
	if !strings.Contains(last.Content, "Hint:") || !strings.Contains(last.Content, "API key") {
		t.Errorf("error message = %q", last.Content)
	}
	if cmd == nil {
		t.Fatal("failure should trigger queue drain")
	}
	if _, ok := cmd().(ProcessNextMsg); !ok {
		t.Error("drain message should be ProcessNextMsg")
	}
}

func TestStreamDone_DrainsQueue(t *testing.T) {
	m := newTestModel(ModeChat)
	m.app.StartResponse()
	m.buffer.Write("the answer")
	m.app.TryQueue("next question")

	_, cmd := m.Update(StreamEventMsg{Ev: llm.DoneEvent{FinishReason: "stop"}})
	if m.app.Streaming {
		t.Error("streaming must end on done")
	}
	last := m.app.Messages[len(m.app.Messages)-1]
	if last.Content != "the answer" {
		t.Errorf("finalized = %q", last.Content)
	}
	if cmd == nil {
		t.Fatal("done should trigger queue drain")
	}

	// Draining dispatches exactly one queued entry.
	m.Update(cmd())
	if !m.app.Streaming {
		t.Error("dequeued message should start streaming")
	}
	if len(m.app.PendingQueue) != 0 {
		t.Errorf("queue = %v", m.app.PendingQueue)
	}
	if m.app.Messages[len(m.app.Messages)-1].Content != "next question" {
		t.Errorf("dispatched = %q", m.app.Messages[len(m.app.Messages)-1].Content)
	}
}

func TestExitCommand(t *testing.T) {
	m := newTestModel(ModeChat)
	typeLine(m, "exit()")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || cmd() != tea.Quit() {
		t.Error("exit() should quit")
	}
}

func TestShortcut_PrintArtifact(t *testing.T) {
	m := newTestModel(ModeShell)
	m.app.LastArtifact = "ls -la"

	typeLine(m, "p")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	o, ok := m.app.Overlay.(DescriptionOverlay)
	if !ok || o.Body != "ls -la" {
		t.Errorf("overlay = %#v", m.app.Overlay)
	}
}

func TestShortcut_ReplayExecutesArtifact(t *testing.T) {
	m := newTestModel(ModeInterpreter)
	m.app.LastArtifact = "print(42)"
	before := len(m.app.Messages)

	// No bridge is wired, so routing through the execute path surfaces
	// the interpreter status instead of submitting "r" as a prompt.
	typeLine(m, "r")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.app.Status != "interpreter not running" {
		t.Errorf("status = %q, want execute-path status", m.app.Status)
	}
	if len(m.app.Messages) != before {
		t.Errorf("r must not be submitted as a message: %v", m.app.Messages)
	}
}

func TestShortcut_IgnoredWithoutArtifact(t *testing.T) {
	m := newTestModel(ModeShell)
	m.app.Streaming = true // capture submission in the queue

	typeLine(m, "e")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	// With no artifact, "e" is an ordinary message.
	if len(m.app.PendingQueue) != 1 || m.app.PendingQueue[0] != "e" {
		t.Errorf("queue = %v", m.app.PendingQueue)
	}
}

func TestCodeResult_ShowsOverlay(t *testing.T) {
	m := newTestModel(ModeInterpreter)
	resp := interp.Response{ID: "1", Result: &interp.ExecResult{Success: true, Output: "42\n"}}

	m.Update(CodeResultMsg{Resp: resp})
	o, ok := m.app.Overlay.(ExecResultOverlay)
	if !ok {
		t.Fatalf("overlay = %#v", m.app.Overlay)
	}
	if !strings.Contains(o.Body, "42") {
		t.Errorf("body = %q", o.Body)
	}
}

func TestDescribeChunk_AppendsToOverlay(t *testing.T) {
	m := newTestModel(ModeShell)
	m.app.Overlay = StreamingDescriptionOverlay{Title: "ls", Loading: true}

	m.Update(DescribeChunkMsg{Text: "lists "})
	m.Update(DescribeChunkMsg{Text: "files"})

	o := m.app.Overlay.(StreamingDescriptionOverlay)
	if o.Body != "lists files" {
		t.Errorf("body = %q", o.Body)
	}
}

func TestPaste_UsesPlaceholder(t *testing.T) {
	m := newTestModel(ModeChat)
	big := strings.Repeat("x", 3000)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(big), Paste: true})
	if m.ed.Line() == big {
		t.Error("large paste should be collapsed to a placeholder")
	}
	if len(m.ed.PendingPastes()) != 1 {
		t.Errorf("pending pastes = %v", m.ed.PendingPastes())
	}
}

func TestStreamTick_FlushesBuffer(t *testing.T) {
	m := newTestModel(ModeChat)
	m.app.StartResponse()
	m.ticking = true
	m.buffer.Write("tok1 ")
	m.buffer.Write("tok2")

	_, cmd := m.handleStreamTick()
	if m.app.Response() != "tok1 tok2" {
		t.Errorf("response = %q", m.app.Response())
	}
	if cmd == nil {
		t.Error("tick should reschedule while streaming")
	}

	m.app.Streaming = false
	_, cmd = m.handleStreamTick()
	if cmd != nil {
		t.Error("tick should stop when idle")
	}
}
