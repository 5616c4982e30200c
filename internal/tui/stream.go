// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// TOKEN BUFFER
// =============================================================================

// tokenBuffer batches streamed tokens between render ticks. Producers
// write from the streaming goroutine; the update loop drains it on each
// tick, so rendering happens at the tick cadence instead of per token.
type tokenBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

// Write appends a token. Safe to call from any goroutine.
func (b *tokenBuffer) Write(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.WriteString(token)
}

// Drain returns and clears the accumulated content.
func (b *tokenBuffer) Drain() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.buf.Len() == 0 {
		return "", false
	}
	content := b.buf.String()
	b.buf.Reset()
	return content, true
}

// Reset discards buffered content without returning it.
func (b *tokenBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// streamTickInterval is the fixed render cadence while streaming.
const streamTickInterval = 16 * time.Millisecond

// streamTickCmd schedules the next render tick.
func streamTickCmd() tea.Cmd {
	return tea.Tick(streamTickInterval, func(t time.Time) tea.Msg {
		return streamTickMsg{Time: t}
	})
}

// =============================================================================
// CANCEL MANAGER
// =============================================================================

// cancelManager holds the cancel func of the in-flight stream. Held by
// pointer in the model so value-receiver updates share one mutex.
type cancelManager struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

// set stores the cancel func for the active stream, cancelling any
// previous one first.
func (c *cancelManager) set(cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
}

// call cancels the active stream, if any.
func (c *cancelManager) call() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// clear drops the stored cancel func without invoking it.
func (c *cancelManager) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancel = nil
}
