// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package shell

import (
	"context"
	"runtime"
	"strings"
	"testing"
)

func TestRun_CapturesStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell test")
	}
	res := Run(context.Background(), "echo hello")
	if res.ExitCode != 0 {
		t.Fatalf("exit code = %d, stderr = %q", res.ExitCode, res.Stderr)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Errorf("stdout = %q", res.Stdout)
	}
}

func TestRun_CapturesExitCodeAndStderr(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell test")
	}
	res := Run(context.Background(), "echo oops >&2; exit 3")
	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
	if strings.TrimSpace(res.Stderr) != "oops" {
		t.Errorf("stderr = %q", res.Stderr)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		res      Result
		contains []string
		excludes []string
	}{
		{
			name:     "stdout only",
			res:      Result{Command: "ls", Stdout: "a\nb\n"},
			contains: []string{"$ ls", "STDOUT:", "a\nb"},
			excludes: []string{"STDERR:", "Exit code"},
		},
		{
			name:     "failure with stderr",
			res:      Result{Command: "bad", Stderr: "not found\n", ExitCode: 127},
			contains: []string{"STDERR:", "not found", "Exit code: 127"},
			excludes: []string{"STDOUT:"},
		},
		{
			name:     "no output",
			res:      Result{Command: "true"},
			contains: []string{"(no output)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.res.Format()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Format() missing %q:\n%s", want, got)
				}
			}
			for _, not := range tt.excludes {
				if strings.Contains(got, not) {
					t.Errorf("Format() should not contain %q:\n%s", not, got)
				}
			}
		})
	}
}
