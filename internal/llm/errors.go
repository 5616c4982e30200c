// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package llm

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for common provider failures. Wrapped with %w so callers
// can match with errors.Is.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("API key not configured")
	// ErrAuthFailed indicates the provider rejected the API key.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")
	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("rate limited")
)

// APIError is a provider error response that did not map to a sentinel.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s", e.Status, e.Message)
}

// RateLimitError carries the Retry-After hint from a 429 response.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// Is lets errors.Is match RateLimitError against ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// StreamError is a mid-stream failure that preserves the partial content
// received before the error.
type StreamError struct {
	Partial string
	Err     error
}

func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// FormatUserError renders a failure as the text shown to the user,
// appending a situational hint when the error matches a known condition.
// The interactive UI injects this as a synthetic assistant message.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(err.Error())

	if hint := errorHint(err); hint != "" {
		sb.WriteString("\n\nHint: ")
		sb.WriteString(hint)
	}
	return sb.String()
}

// errorHint maps an error to a one-line suggestion. Matching is on error
// identity first, then on the message text for errors that arrive as
// opaque strings from the transport.
func errorHint(err error) string {
	switch {
	case errors.Is(err, ErrNotConfigured), errors.Is(err, ErrAuthFailed):
		return "check your API key (set SGPT_API_KEY or api.key in config.toml)"
	case errors.Is(err, ErrModelNotFound):
		return "check the model name (--model flag or api.model in config.toml)"
	case errors.Is(err, ErrRateLimited):
		return "you are being rate limited; wait a moment before retrying"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"), strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "invalid api key"), strings.Contains(msg, "incorrect api key"):
		return "check your API key (set SGPT_API_KEY or api.key in config.toml)"
	case strings.Contains(msg, "model") && (strings.Contains(msg, "not found") || strings.Contains(msg, "does not exist")):
		return "check the model name (--model flag or api.model in config.toml)"
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"):
		return "you are being rate limited; wait a moment before retrying"
	case strings.Contains(msg, "multimodal"), strings.Contains(msg, "vision"),
		strings.Contains(msg, "image"):
		return "this model may not accept image input; switch to a vision-capable model"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"),
		strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"):
		return "check your network connection and api.base_url"
	}
	return ""
}
