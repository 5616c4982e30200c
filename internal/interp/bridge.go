// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package interp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Language selects the interpreter backend.
type Language string

const (
	Python Language = "python"
)

// varsIDPrefix marks variable-snapshot requests; the reader routes
// responses carrying it to the vars handler instead of the result handler.
// pingIDPrefix marks liveness probes, whose responses need no routing.
const (
	varsIDPrefix = "vars-"
	pingIDPrefix = "ping-"
)

// Handler receives routed responses from the reader goroutine. Calls
// arrive on that goroutine; implementations forward into the event loop.
type Handler struct {
	// OnResult receives execution responses.
	OnResult func(Response)
	// OnVars receives variable snapshot responses.
	OnVars func(Response)
	// OnExit fires once when the child's stdout closes.
	OnExit func(err error)
}

// Bridge manages one interpreter child process.
type Bridge struct {
	lang Language
	cmd  *exec.Cmd

	mu     sync.Mutex
	stdin  io.WriteCloser
	nextID int
	closed bool
}

// Start spawns the interpreter child and begins routing its responses to
// the handler.
func Start(lang Language, h Handler) (*Bridge, error) {
	if lang != Python {
		return nil, fmt.Errorf("interpreter not available for language %q", lang)
	}

	cmd := exec.Command("python3", "-u", "-c", pythonBootstrap)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start interpreter: %w", err)
	}

	b := &Bridge{lang: lang, cmd: cmd, stdin: stdin}
	go readLoop(stdout, h)
	return b, nil
}

// readLoop scans NDJSON lines from the child and routes each response by
// its id prefix. Unparseable lines are dropped; parseable lines missing
// both result and error synthesize a failure so the request never hangs.
func readLoop(r io.Reader, h Handler) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var resp Response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			continue
		}
		if resp.Result == nil && resp.Error == nil {
			resp.Result = &ExecResult{
				Success: false,
				Errors:  []string{"interpreter returned a malformed response"},
			}
		}
		switch {
		case strings.HasPrefix(resp.ID, pingIDPrefix):
			// pong; the probe only cares that the child answers
		case strings.HasPrefix(resp.ID, varsIDPrefix):
			if h.OnVars != nil {
				h.OnVars(resp)
			}
		default:
			if h.OnResult != nil {
				h.OnResult(resp)
			}
		}
	}
	if h.OnExit != nil {
		h.OnExit(scanner.Err())
	}
}

// Language returns the bridge's interpreter language.
func (b *Bridge) Language() Language {
	return b.lang
}

func (b *Bridge) send(req Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("interpreter is closed")
	}
	if _, err := b.stdin.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write to interpreter: %w", err)
	}
	return nil
}

func (b *Bridge) allocID() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	return b.nextID
}

// Execute sends a code block for execution, stripping any Markdown fence
// first. The response arrives via Handler.OnResult.
func (b *Bridge) Execute(code string) (string, error) {
	id := strconv.Itoa(b.allocID())
	req := Request{ID: id, Method: "execute"}
	req.Params.Code = StripFence(code)
	return id, b.send(req)
}

// Vars requests a variables snapshot. The response arrives via
// Handler.OnVars.
func (b *Bridge) Vars() (string, error) {
	id := varsIDPrefix + strconv.Itoa(b.allocID())
	return id, b.send(Request{ID: id, Method: "vars"})
}

// Ping sends a liveness probe. The pong is consumed by the reader; a send
// failure means the child is gone.
func (b *Bridge) Ping() (string, error) {
	id := pingIDPrefix + strconv.Itoa(b.allocID())
	return id, b.send(Request{ID: id, Method: "ping"})
}

// Close shuts the child down: stdin closes so it can exit cleanly, and
// after a short grace period it is force-killed.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	stdin := b.stdin
	b.mu.Unlock()

	_ = stdin.Close()

	done := make(chan error, 1)
	go func() { done <- b.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		_ = b.cmd.Process.Kill()
		return <-done
	}
}
