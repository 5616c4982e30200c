// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package llm

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFormatUserError_Hints(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHint string
	}{
		{
			name:     "auth sentinel",
			err:      fmt.Errorf("%w: Incorrect API key provided", ErrAuthFailed),
			wantHint: "API key",
		},
		{
			name:     "401 in message",
			err:      errors.New("request failed: HTTP 401 Unauthorized"),
			wantHint: "API key",
		},
		{
			name:     "model not found sentinel",
			err:      ErrModelNotFound,
			wantHint: "model name",
		},
		{
			name:     "model missing in message",
			err:      errors.New("the model `gpt-99` does not exist"),
			wantHint: "model name",
		},
		{
			name:     "rate limit",
			err:      &RateLimitError{},
			wantHint: "rate limited",
		},
		{
			name:     "vision incompatibility",
			err:      errors.New("this model does not support vision inputs"),
			wantHint: "vision-capable",
		},
		{
			name:     "image content rejected",
			err:      errors.New("invalid content: image_url is not supported"),
			wantHint: "vision-capable",
		},
		{
			name:     "timeout",
			err:      errors.New("context deadline exceeded"),
			wantHint: "network",
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp: connection refused"),
			wantHint: "network",
		},
		{
			name:     "unknown error has no hint",
			err:      errors.New("something odd"),
			wantHint: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatUserError(tt.err)
			if !strings.HasPrefix(got, "Error: ") {
				t.Errorf("missing Error prefix: %q", got)
			}
			if tt.wantHint == "" {
				if strings.Contains(got, "Hint:") {
					t.Errorf("unexpected hint in %q", got)
				}
				return
			}
			if !strings.Contains(got, "Hint:") || !strings.Contains(got, tt.wantHint) {
				t.Errorf("FormatUserError(%v) = %q, want hint containing %q", tt.err, got, tt.wantHint)
			}
		})
	}
}

func TestStreamError(t *testing.T) {
	base := errors.New("connection reset")
	err := &StreamError{Partial: "some text", Err: base}

	if !strings.Contains(err.Error(), "partial content") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("StreamError should unwrap to the underlying error")
	}
}

func TestRateLimitErrorIs(t *testing.T) {
	err := fmt.Errorf("request: %w", &RateLimitError{})
	if !errors.Is(err, ErrRateLimited) {
		t.Error("RateLimitError should match ErrRateLimited")
	}
}
