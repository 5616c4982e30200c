// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

// Package interp runs a code-interpreter child process and speaks NDJSON
// to it: one JSON object per line in each direction.
package interp

import (
	"fmt"
	"sort"
	"strings"
)

// Request is one NDJSON line sent to the child.
type Request struct {
	ID     string `json:"id"`
	Method string `json:"method"` // execute | vars | ping
	Params struct {
		Code string `json:"code,omitempty"`
	} `json:"params"`
}

// Response is one NDJSON line read from the child.
type Response struct {
	ID     string      `json:"id"`
	Result *ExecResult `json:"result,omitempty"`
	Error  *RespError  `json:"error,omitempty"`
}

// RespError is a protocol-level failure reported by the child.
type RespError struct {
	Message string `json:"message"`
}

// ExecResult is the outcome of one execution (or a vars snapshot).
type ExecResult struct {
	Success   bool              `json:"success"`
	Output    string            `json:"output"`
	Errors    []string          `json:"errors"`
	Variables map[string]string `json:"variables"`
}

// Format renders an execution result for the overlay popup.
func (r *ExecResult) Format() string {
	var sb strings.Builder
	if r.Success {
		sb.WriteString("Execution succeeded\n")
	} else {
		sb.WriteString("Execution failed\n")
	}
	if out := strings.TrimRight(r.Output, "\n"); out != "" {
		sb.WriteString("\nOutput:\n")
		sb.WriteString(out)
		sb.WriteString("\n")
	}
	if len(r.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  ")
			sb.WriteString(e)
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// VariablesText renders the variables snapshot, one "name: type" per
// line, sorted by name.
func (r *ExecResult) VariablesText() string {
	if len(r.Variables) == 0 {
		return "(no variables)"
	}
	names := make([]string, 0, len(r.Variables))
	for name := range r.Variables {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "%s: %s\n", name, r.Variables[name])
	}
	return strings.TrimRight(sb.String(), "\n")
}

// StripFence removes a surrounding Markdown code fence, including an
// optional language tag, from a code block.
func StripFence(code string) string {
	s := strings.TrimSpace(code)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop the language tag on the opening fence line.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "" || isLanguageTag(first) {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimRight(s, " \t\n"), "```")
	return strings.TrimRight(s, " \t\n")
}

func isLanguageTag(s string) bool {
	for _, r := range s {
		if !(r == '-' || r == '+' || r == '#' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
