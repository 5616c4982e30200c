// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

// Package shell runs generated shell commands and formats their output.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/xuzhougeng/sgpt-go/internal/role"
)

// Result is the captured outcome of one command run.
type Result struct {
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int
}

// Run executes a command string through the user's shell and captures
// stdout and stderr separately.
func Run(ctx context.Context, command string) Result {
	sh, flag := role.ShellCommand()
	cmd := exec.CommandContext(ctx, sh, flag, command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Command: command,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
			if res.Stderr == "" {
				res.Stderr = err.Error()
			}
		}
	}
	return res
}

// RunInteractive executes a command with the terminal attached, for the
// one-shot --shell flow where the user confirmed execution.
func RunInteractive(ctx context.Context, command string) error {
	sh, flag := role.ShellCommand()
	cmd := exec.CommandContext(ctx, sh, flag, command)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Format renders a captured result for the execution overlay: STDOUT and
// STDERR sections plus the exit code on failure.
func (r Result) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "$ %s\n", r.Command)

	if out := strings.TrimRight(r.Stdout, "\n"); out != "" {
		sb.WriteString("\nSTDOUT:\n")
		sb.WriteString(out)
		sb.WriteString("\n")
	}
	if errOut := strings.TrimRight(r.Stderr, "\n"); errOut != "" {
		sb.WriteString("\nSTDERR:\n")
		sb.WriteString(errOut)
		sb.WriteString("\n")
	}
	if r.Stdout == "" && r.Stderr == "" {
		sb.WriteString("\n(no output)\n")
	}
	if r.ExitCode != 0 {
		fmt.Fprintf(&sb, "\nExit code: %d", r.ExitCode)
	}
	return strings.TrimRight(sb.String(), "\n")
}
