// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

// Package tui implements the interactive chat interface. The Bubble Tea
// update loop is the single consumer of all events: producers (streaming
// goroutines, the interpreter reader, command runners) only send messages
// into the program, and all state mutation happens in Update.
package tui

import (
	"time"

	"github.com/xuzhougeng/sgpt-go/internal/interp"
	"github.com/xuzhougeng/sgpt-go/internal/llm"
	"github.com/xuzhougeng/sgpt-go/internal/shell"
)

// UserInputMsg carries submitted composer content.
type UserInputMsg struct {
	Text string
}

// StreamEventMsg wraps one provider stream event.
type StreamEventMsg struct {
	Ev llm.StreamEvent
}

// StreamFailedMsg signals the in-flight stream ended in error.
type StreamFailedMsg struct {
	Err error
}

// ProcessNextMsg triggers draining one entry from the pending queue.
type ProcessNextMsg struct{}

// CommandOutputMsg carries the captured output of an executed command.
type CommandOutputMsg struct {
	Result shell.Result
}

// DescribeChunkMsg carries one fragment of a streaming command
// description.
type DescribeChunkMsg struct {
	Text string
}

// DescribeDoneMsg signals the description stream finished.
type DescribeDoneMsg struct {
	Err error
}

// CodeResultMsg carries an interpreter execution response.
type CodeResultMsg struct {
	Resp interp.Response
}

// VarsSnapshotMsg carries a rendered interpreter variables snapshot.
type VarsSnapshotMsg struct {
	Text string
}

// InterpreterGoneMsg signals the interpreter child died.
type InterpreterGoneMsg struct {
	Err error
}

// streamTickMsg drives fixed-interval flushes of the token buffer while
// a stream is active.
type streamTickMsg struct {
	Time time.Time
}
