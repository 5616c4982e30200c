// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/xuzhougeng/sgpt-go/internal/editor"
	"github.com/xuzhougeng/sgpt-go/internal/interp"
	"github.com/xuzhougeng/sgpt-go/internal/llm"
	"github.com/xuzhougeng/sgpt-go/internal/session"
	"github.com/xuzhougeng/sgpt-go/internal/shell"
	"github.com/xuzhougeng/sgpt-go/internal/util"
)

// doubleCancelWindow is how long after a first Ctrl+C a second one quits.
const doubleCancelWindow = 500 * time.Millisecond

// Model is the Bubble Tea model wrapping the application state.
type Model struct {
	app *App
	ed  *editor.Editor

	vp     viewport.Model
	spin   spinner.Model
	styles styles

	width  int
	height int
	ready  bool

	client *llm.Client
	store  *session.Store
	bridge *interp.Bridge
	opts   Options

	buffer  *tokenBuffer
	cancels *cancelManager

	// toolArgs accumulates tool call argument fragments until the
	// provider signals the calls are complete.
	toolArgs strings.Builder

	lastCtrlC time.Time
	ticking   bool
}

func newModel(opts Options) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	app := NewApp(opts.SessionID, opts.Mode, opts.Client.Model(), opts.History)
	if opts.MaxDisplayMessages > 0 {
		app.MaxDisplayMessages = opts.MaxDisplayMessages
	}
	if opts.Language != "" {
		app.Language = opts.Language
	}

	return &Model{
		app:     app,
		ed:      editor.New(),
		spin:    sp,
		styles:  newStyles(opts.Theme),
		client:  opts.Client,
		store:   opts.Store,
		opts:    opts,
		buffer:  &tokenBuffer{},
		cancels: &cancelManager{},
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.spin.Tick
}

// Update implements tea.Model. It is the sole mutator of application
// state; every producer reaches it through the program's message queue.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case streamTickMsg:
		return m.handleStreamTick()
	case UserInputMsg:
		return m.handleUserInput(msg.Text)
	case StreamEventMsg:
		return m.handleStreamEvent(msg.Ev)
	case StreamFailedMsg:
		return m.handleStreamFailed(msg.Err)
	case ProcessNextMsg:
		return m.handleProcessNext()
	case CommandOutputMsg:
		m.app.Overlay = ExecResultOverlay{Title: msg.Result.Command, Body: msg.Result.Format()}
		return m, nil
	case DescribeChunkMsg:
		return m.handleDescribeChunk(msg.Text)
	case DescribeDoneMsg:
		return m.handleDescribeDone(msg.Err)
	case CodeResultMsg:
		return m.handleCodeResult(msg.Resp)
	case VarsSnapshotMsg:
		m.app.Overlay = DescriptionOverlay{Title: "variables", Body: msg.Text}
		return m, nil
	case InterpreterGoneMsg:
		util.Debugf("interpreter exited: %v", msg.Err)
		m.app.Status = "interpreter exited; code execution unavailable"
		return m, nil
	}
	return m, nil
}

func (m *Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := msg.Height - chromeHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.vp = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.vp.Width = msg.Width
		m.vp.Height = vpHeight
	}
	m.refreshViewport(true)
	return m, nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Overlay gets first claim on keys: any key dismisses, unless the
	// overlay is still loading.
	if m.app.Overlay != nil {
		if m.app.Overlay.Dismissable() {
			m.app.Overlay = nil
		}
		return m, nil
	}

	if msg.Paste {
		m.ed.InsertPaste(string(msg.Runes))
		return m, nil
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		return m.handleCtrlC()
	case tea.KeyCtrlD:
		if m.ed.IsEmpty() && !m.ed.Multiline() {
			return m, tea.Quit
		}
		return m, nil
	case tea.KeyEnter:
		return m.handleEnter()
	case tea.KeyUp:
		m.ed.HistoryPrev()
		return m, nil
	case tea.KeyDown:
		m.ed.HistoryNext()
		return m, nil
	case tea.KeyLeft:
		m.ed.MoveLeft()
		return m, nil
	case tea.KeyRight:
		m.ed.MoveRight()
		return m, nil
	case tea.KeyHome, tea.KeyCtrlA:
		m.ed.MoveHome()
		return m, nil
	case tea.KeyEnd:
		m.ed.MoveEnd()
		return m, nil
	case tea.KeyBackspace:
		m.ed.Backspace()
		return m, nil
	case tea.KeyDelete:
		m.ed.DeleteForward()
		return m, nil
	case tea.KeyCtrlU:
		m.ed.KillToStart()
		return m, nil
	case tea.KeyCtrlK:
		m.ed.KillToEnd()
		return m, nil
	case tea.KeyCtrlW:
		m.ed.DeleteWordBack()
		return m, nil
	case tea.KeyCtrlE:
		// Expand paste placeholders in place.
		m.ed.SetLine(m.ed.ExpandForSubmit())
		return m, nil
	case tea.KeyPgUp:
		m.vp.HalfViewUp()
		return m, nil
	case tea.KeyPgDown:
		m.vp.HalfViewDown()
		return m, nil
	case tea.KeyF1:
		m.app.Overlay = DescriptionOverlay{Title: "help", Body: helpText(m.app.Mode)}
		return m, nil
	case tea.KeyTab:
		m.ed.InsertRune('\t')
		return m, nil
	case tea.KeySpace:
		m.ed.InsertRune(' ')
		return m, nil
	case tea.KeyRunes:
		if msg.Alt {
			switch string(msg.Runes) {
			case "b":
				m.ed.MoveWordLeft()
				return m, nil
			case "f":
				m.ed.MoveWordRight()
				return m, nil
			}
			return m, nil
		}
		m.ed.InsertString(string(msg.Runes))
		return m, nil
	}
	return m, nil
}

// handleCtrlC implements double-press quit: the second Ctrl+C within the
// window quits; a single press cancels the stream or clears the composer.
func (m *Model) handleCtrlC() (tea.Model, tea.Cmd) {
	now := time.Now()
	if now.Sub(m.lastCtrlC) < doubleCancelWindow {
		return m, tea.Quit
	}
	m.lastCtrlC = now

	if m.app.Streaming {
		m.cancels.call()
		m.app.Status = "cancelling… (Ctrl+C again to exit)"
		return m, nil
	}
	m.ed.Clear()
	m.app.Status = "Press Ctrl+C again to exit"
	return m, nil
}

func (m *Model) handleEnter() (tea.Model, tea.Cmd) {
	line := m.ed.Line()

	// Multiline capture: the closing """ submits the block.
	if m.ed.Multiline() {
		if strings.TrimSpace(line) == `"""` {
			m.ed.Clear()
			block := m.ed.TakeMultiline()
			return m.submit(block)
		}
		m.ed.PushLine()
		return m, nil
	}
	if strings.TrimSpace(line) == `"""` {
		m.ed.Clear()
		m.ed.StartMultiline()
		return m, nil
	}

	text := strings.TrimSpace(m.ed.ExpandForSubmit())
	if text == "" {
		return m, nil
	}

	if text == "exit()" {
		return m, tea.Quit
	}

	// Single-letter shortcuts target the last artifact.
	if len(text) == 1 && m.app.LastArtifact != "" {
		switch text {
		case "e", "r":
			m.ed.Clear()
			return m.executeArtifact()
		case "d":
			m.ed.Clear()
			return m.describeArtifact()
		case "p":
			m.ed.Clear()
			m.app.Overlay = DescriptionOverlay{Title: "last artifact", Body: m.app.LastArtifact}
			return m, nil
		}
	}

	if m.app.Mode == ModeInterpreter && text == "vars" {
		m.ed.Clear()
		return m.requestVars()
	}

	m.ed.PushHistory(text)
	m.ed.Clear()
	return m.submit(text)
}

// =============================================================================
// SUBMISSION AND STREAMING
// =============================================================================

// handleUserInput feeds externally injected input through the same
// queue-or-dispatch path as the composer.
func (m *Model) handleUserInput(text string) (tea.Model, tea.Cmd) {
	text = strings.TrimSpace(text)
	if text == "" {
		return m, nil
	}
	return m.submit(text)
}

// submit either queues the text (while streaming) or dispatches it.
func (m *Model) submit(text string) (tea.Model, tea.Cmd) {
	if m.app.TryQueue(text) {
		return m, nil
	}
	return m, m.dispatchPrompt(text)
}

// dispatchPrompt starts the one in-flight completion request. Content
// tokens go straight into the token buffer from the producer goroutine;
// everything else arrives as messages.
func (m *Model) dispatchPrompt(text string) tea.Cmd {
	m.app.AddMessage(llm.UserMessage(text))
	m.app.StartResponse()
	m.buffer.Reset()
	m.toolArgs.Reset()
	m.refreshViewport(true)

	ctx, cancel := context.WithCancel(context.Background())
	m.cancels.set(cancel)

	client := m.client
	messages := make([]llm.Message, len(m.app.Messages))
	copy(messages, m.app.Messages)
	buffer := m.buffer

	go func() {
		err := client.ChatStream(ctx, messages, llm.Options{}, func(ev llm.StreamEvent) {
			if content, ok := ev.(llm.ContentEvent); ok {
				buffer.Write(content.Text)
				return
			}
			send(StreamEventMsg{Ev: ev})
		})
		if err != nil {
			send(StreamFailedMsg{Err: err})
		}
	}()

	return m.startTick()
}

func (m *Model) startTick() tea.Cmd {
	if m.ticking {
		return nil
	}
	m.ticking = true
	return streamTickCmd()
}

func (m *Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if content, ok := m.buffer.Drain(); ok {
		m.app.AppendResponse(content)
		m.refreshViewport(true)
	}
	if m.app.Streaming || m.overlayLoading() {
		return m, streamTickCmd()
	}
	m.ticking = false
	return m, nil
}

func (m *Model) overlayLoading() bool {
	o, ok := m.app.Overlay.(StreamingDescriptionOverlay)
	return ok && o.Loading
}

func (m *Model) handleStreamEvent(ev llm.StreamEvent) (tea.Model, tea.Cmd) {
	switch ev := ev.(type) {
	case llm.ToolCallDeltaEvent:
		m.toolArgs.WriteString(ev.Arguments)
		return m, nil
	case llm.ToolCallsFinishEvent:
		return m.handleToolCallsFinish()
	case llm.DoneEvent:
		return m.finishStream()
	}
	return m, nil
}

func (m *Model) finishStream() (tea.Model, tea.Cmd) {
	m.cancels.clear()
	if content, ok := m.buffer.Drain(); ok {
		m.app.AppendResponse(content)
	}
	m.app.FinishResponse()
	m.persistSession()
	m.refreshViewport(true)
	return m, func() tea.Msg { return ProcessNextMsg{} }
}

// handleToolCallsFinish executes code the model requested via tool calls.
// Only the interpreter mode wires a bridge; elsewhere the arguments are
// dropped.
func (m *Model) handleToolCallsFinish() (tea.Model, tea.Cmd) {
	args := m.toolArgs.String()
	m.toolArgs.Reset()
	if m.bridge == nil || args == "" {
		return m, nil
	}
	var params struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal([]byte(args), &params); err != nil || params.Code == "" {
		return m, nil
	}
	if _, err := m.bridge.Execute(params.Code); err != nil {
		m.app.Status = "interpreter unavailable: " + err.Error()
	}
	return m, nil
}

func (m *Model) handleStreamFailed(err error) (tea.Model, tea.Cmd) {
	m.cancels.clear()
	if content, ok := m.buffer.Drain(); ok {
		m.app.AppendResponse(content)
	}
	if errors.Is(err, context.Canceled) {
		m.app.AbortResponse()
	} else {
		util.Debugf("stream failed: %v", err)
		m.app.FailResponse(llm.FormatUserError(err))
	}
	m.persistSession()
	m.refreshViewport(true)
	// Failure drains the queue the same way completion does.
	return m, func() tea.Msg { return ProcessNextMsg{} }
}

func (m *Model) handleProcessNext() (tea.Model, tea.Cmd) {
	if m.app.Streaming {
		return m, nil
	}
	text, ok := m.app.Dequeue()
	if !ok {
		return m, nil
	}
	return m, m.dispatchPrompt(text)
}

func (m *Model) persistSession() {
	if m.store == nil || m.app.SessionID == session.TempID {
		return
	}
	// Best effort; a failed save must not break the session.
	if err := m.store.Write(m.app.SessionID, m.app.Messages); err != nil {
		m.app.Status = "warning: failed to save session"
	}
}

// =============================================================================
// ARTIFACT SHORTCUTS
// =============================================================================

// executeArtifact runs the last artifact: through the shell in shell
// mode, through the interpreter bridge in interpreter mode.
func (m *Model) executeArtifact() (tea.Model, tea.Cmd) {
	artifact := m.app.LastArtifact

	if m.app.Mode == ModeInterpreter {
		if m.bridge == nil {
			m.app.Status = "interpreter not running"
			return m, nil
		}
		if _, err := m.bridge.Execute(artifact); err != nil {
			m.app.Status = "interpreter unavailable: " + err.Error()
			return m, nil
		}
		m.app.Status = "executing…"
		return m, nil
	}

	go func() {
		res := shell.Run(context.Background(), artifact)
		send(CommandOutputMsg{Result: res})
	}()
	m.app.Status = "running command…"
	return m, nil
}

// describeArtifact streams a description of the last artifact into a
// loading overlay.
func (m *Model) describeArtifact() (tea.Model, tea.Cmd) {
	artifact := m.app.LastArtifact
	m.app.Overlay = StreamingDescriptionOverlay{Title: artifact, Loading: true}

	client := m.client
	prompt := m.opts.DescribePrompt
	go func() {
		messages := []llm.Message{
			llm.SystemMessage(prompt),
			llm.UserMessage(artifact),
		}
		err := client.ChatStream(context.Background(), messages, llm.Options{}, func(ev llm.StreamEvent) {
			if content, ok := ev.(llm.ContentEvent); ok {
				send(DescribeChunkMsg{Text: content.Text})
			}
		})
		send(DescribeDoneMsg{Err: err})
	}()
	return m, m.startTick()
}

func (m *Model) handleDescribeChunk(text string) (tea.Model, tea.Cmd) {
	if o, ok := m.app.Overlay.(StreamingDescriptionOverlay); ok {
		o.Body += text
		m.app.Overlay = o
	}
	return m, nil
}

func (m *Model) handleDescribeDone(err error) (tea.Model, tea.Cmd) {
	o, ok := m.app.Overlay.(StreamingDescriptionOverlay)
	if !ok {
		return m, nil
	}
	if err != nil {
		o.Body = strings.TrimSpace(o.Body + "\n\n" + llm.FormatUserError(err))
	}
	o.Loading = false
	m.app.Overlay = o
	return m, nil
}

func (m *Model) handleCodeResult(resp interp.Response) (tea.Model, tea.Cmd) {
	m.app.Status = ""
	m.app.UpdateStatus()
	switch {
	case resp.Error != nil:
		m.app.Overlay = ExecResultOverlay{Title: "execution", Body: "Interpreter error: " + resp.Error.Message}
	case resp.Result != nil:
		m.app.Overlay = ExecResultOverlay{Title: "execution", Body: resp.Result.Format()}
	}
	return m, nil
}

func (m *Model) requestVars() (tea.Model, tea.Cmd) {
	if m.bridge == nil {
		m.app.Status = "interpreter not running"
		return m, nil
	}
	if _, err := m.bridge.Vars(); err != nil {
		m.app.Status = "interpreter unavailable: " + err.Error()
	}
	return m, nil
}

func helpText(mode Mode) string {
	var sb strings.Builder
	sb.WriteString("Enter        send message\n")
	sb.WriteString(`"""          toggle multiline input` + "\n")
	sb.WriteString("exit()       quit\n")
	sb.WriteString("Ctrl+C ×2    quit (single press cancels/clears)\n")
	sb.WriteString("Ctrl+E       expand paste placeholders\n")
	sb.WriteString("Up/Down      input history\n")
	sb.WriteString("PgUp/PgDn    scroll history\n")
	if mode == ModeShell || mode == ModeInterpreter {
		sb.WriteString("\nAfter a response:\n")
		sb.WriteString("e/r execute   d   describe   p   print raw\n")
	}
	if mode == ModeInterpreter {
		sb.WriteString("vars         show interpreter variables\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
