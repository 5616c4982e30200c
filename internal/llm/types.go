// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

// Package llm implements the streaming client for an OpenAI-compatible
// chat completion endpoint.
package llm

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single chat message in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage builds an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Options are per-request completion parameters. Zero values fall back to
// the client's configured defaults.
type Options struct {
	Model       string
	Temperature *float64
	TopP        *float64
	MaxTokens   int
}

// =============================================================================
// STREAM EVENTS
// =============================================================================

// StreamEvent is one event from a streaming completion. It is a closed
// union: ContentEvent, ToolCallDeltaEvent, ToolCallsFinishEvent, DoneEvent.
type StreamEvent interface {
	streamEvent()
}

// ContentEvent carries a fragment of assistant text.
type ContentEvent struct {
	Text string
}

// ToolCallDeltaEvent carries a fragment of a tool call being assembled.
// Name is only set on the first fragment of a call; Arguments fragments
// concatenate in order.
type ToolCallDeltaEvent struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// ToolCallsFinishEvent signals the provider finished the response with
// tool calls instead of content.
type ToolCallsFinishEvent struct{}

// DoneEvent signals the end of the stream.
type DoneEvent struct {
	FinishReason string
}

func (ContentEvent) streamEvent()         {}
func (ToolCallDeltaEvent) streamEvent()   {}
func (ToolCallsFinishEvent) streamEvent() {}
func (DoneEvent) streamEvent()            {}

// StreamCallback receives stream events in arrival order.
type StreamCallback func(ev StreamEvent)

// =============================================================================
// WIRE TYPES
// =============================================================================

// chatRequest is the JSON body for /chat/completions.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

// streamChunk is one parsed SSE data payload.
type streamChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Role      string `json:"role,omitempty"`
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id,omitempty"`
				Function struct {
					Name      string `json:"name,omitempty"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls,omitempty"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// completionResponse is the non-streaming /chat/completions body.
type completionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
}

// apiErrorResponse is the provider's error envelope.
type apiErrorResponse struct {
	Error struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
