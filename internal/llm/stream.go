// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
)

// STREAMING: SSE parsing with malformed-chunk tolerance. Every provider
// quirk observed in the wild gets skipped, not fatal.

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{reader: bufio.NewReader(r)}
}

// ReadEvent reads the next SSE event, returning its data payload.
// Multi-line data fields are joined with newlines. Returns io.EOF when
// the stream ends.
func (s *SSEReader) ReadEvent() ([]byte, error) {
	var dataLines [][]byte

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if len(dataLines) > 0 {
					return bytes.Join(dataLines, []byte("\n")), nil
				}
				return nil, io.EOF
			}
			return nil, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Empty line terminates the event.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		if bytes.HasPrefix(line, []byte("data:")) {
			dataLines = append(dataLines, bytes.TrimSpace(line[5:]))
		}
		// Other fields (event:, id:, retry:, comments) are ignored.
	}
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream performs a streaming completion. The callback is invoked for
// each event, ending with a DoneEvent exactly once on success. On error the
// partial content received so far is preserved in the returned StreamError.
func (c *Client) ChatStream(ctx context.Context, messages []Message, opts Options, callback StreamCallback) error {
	resp, cancel, err := c.do(ctx, c.buildRequest(messages, opts, true))
	if err != nil {
		return err
	}
	defer cancel()
	defer resp.Body.Close()

	return c.processStream(ctx, resp.Body, callback)
}

// processStream reads the SSE stream and dispatches events to the callback.
func (c *Client) processStream(ctx context.Context, body io.Reader, callback StreamCallback) error {
	reader := NewSSEReader(body)
	var partial strings.Builder
	sawToolCalls := false

	for {
		select {
		case <-ctx.Done():
			return &StreamError{Partial: partial.String(), Err: ctx.Err()}
		default:
		}

		data, err := reader.ReadEvent()
		if err != nil {
			if err == io.EOF {
				// Provider closed without [DONE]; treat as a clean end.
				callback(DoneEvent{})
				return nil
			}
			return &StreamError{Partial: partial.String(), Err: err}
		}

		if bytes.Equal(data, []byte("[DONE]")) {
			callback(DoneEvent{})
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			// Skip malformed chunks.
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]

		if choice.Delta.Content != "" {
			partial.WriteString(choice.Delta.Content)
			callback(ContentEvent{Text: choice.Delta.Content})
		}
		for _, tc := range choice.Delta.ToolCalls {
			sawToolCalls = true
			callback(ToolCallDeltaEvent{
				Index:     tc.Index,
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}

		if choice.FinishReason != "" {
			if choice.FinishReason == "tool_calls" || sawToolCalls {
				callback(ToolCallsFinishEvent{})
			}
			callback(DoneEvent{FinishReason: choice.FinishReason})
			return nil
		}
	}
}

// ChatStreamAccumulate streams a completion and returns the concatenated
// content. Convenience for callers that want streaming latency without
// incremental rendering.
func (c *Client) ChatStreamAccumulate(ctx context.Context, messages []Message, opts Options) (string, error) {
	var sb strings.Builder
	err := c.ChatStream(ctx, messages, opts, func(ev StreamEvent) {
		if content, ok := ev.(ContentEvent); ok {
			sb.WriteString(content.Text)
		}
	})
	return sb.String(), err
}
