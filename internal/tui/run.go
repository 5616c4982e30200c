// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/xuzhougeng/sgpt-go/internal/interp"
	"github.com/xuzhougeng/sgpt-go/internal/llm"
	"github.com/xuzhougeng/sgpt-go/internal/session"
)

// Options configures an interactive session.
type Options struct {
	Client    *llm.Client
	Store     *session.Store
	SessionID string
	Mode      Mode
	Language  interp.Language

	// History is the restored conversation, including the system prompt.
	History []llm.Message

	// DescribePrompt is the system prompt for the d shortcut.
	DescribePrompt string

	MaxDisplayMessages int
	Theme              string
}

// programRef lets producer goroutines send events into the running
// program. Guarded because producers race with program teardown.
var (
	programMu  sync.Mutex
	programRef *tea.Program
)

func setProgram(p *tea.Program) {
	programMu.Lock()
	defer programMu.Unlock()
	programRef = p
}

// send delivers a message to the running program, dropping it if the
// program has exited.
func send(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Run starts the interactive session and blocks until it exits.
func Run(opts Options) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("interactive mode requires a terminal")
	}

	m := newModel(opts)

	// Interpreter mode owns a child process for the whole session; its
	// reader routes responses into the event loop.
	if opts.Mode == ModeInterpreter {
		bridge, err := interp.Start(m.app.Language, interp.Handler{
			OnResult: func(resp interp.Response) {
				send(CodeResultMsg{Resp: resp})
			},
			OnVars: func(resp interp.Response) {
				text := "(no variables)"
				if resp.Result != nil {
					text = resp.Result.VariablesText()
				}
				send(VarsSnapshotMsg{Text: text})
			},
			OnExit: func(err error) {
				send(InterpreterGoneMsg{Err: err})
			},
		})
		if err != nil {
			return fmt.Errorf("failed to start interpreter: %w", err)
		}
		if _, err := bridge.Ping(); err != nil {
			bridge.Close()
			return fmt.Errorf("interpreter not responding: %w", err)
		}
		m.bridge = bridge
		defer bridge.Close()
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	setProgram(p)
	defer setProgram(nil)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
