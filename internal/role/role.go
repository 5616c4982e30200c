// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

// Package role provides the built-in system prompts and custom role storage.
package role

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/xuzhougeng/sgpt-go/internal/config"
)

// Kind identifies one of the built-in roles.
type Kind int

const (
	Default Kind = iota
	Shell
	DescribeShell
	Code
)

// FromFlags maps the CLI mode flags to a built-in role. Precedence follows
// flag order: --shell beats --describe-shell beats --code.
func FromFlags(shell, describe, code bool) Kind {
	switch {
	case shell:
		return Shell
	case describe:
		return DescribeShell
	case code:
		return Code
	default:
		return Default
	}
}

func (k Kind) String() string {
	switch k {
	case Shell:
		return "shell"
	case DescribeShell:
		return "describe-shell"
	case Code:
		return "code"
	default:
		return "default"
	}
}

// Text returns the system prompt for a built-in role, with the OS and shell
// substituted from config or platform detection.
func Text(cfg *config.Config, k Kind) string {
	osName := detectOS(cfg)
	shellName := detectShell(cfg)

	switch k {
	case Shell:
		return fmt.Sprintf("Provide only %s commands for %s without any description.\n"+
			"If there is a lack of details, provide most logical solution.\n"+
			"Ensure the output is a valid shell command.\n"+
			"If multiple steps required try to combine them together using &&.\n"+
			"Provide only plain text without Markdown formatting.\n"+
			"Do not provide markdown formatting such as ```.", shellName, osName)
	case DescribeShell:
		return "Provide a terse, single sentence description of the given shell command.\n" +
			"Describe each argument and option of the command.\n" +
			"Provide short responses in about 80 words."
	case Code:
		return "Provide only code as output without any description.\n" +
			"Provide only code in plain text format without Markdown formatting.\n" +
			"Do not include symbols such as ``` or ```python.\n" +
			"If there is a lack of details, provide most logical solution.\n" +
			"You are not allowed to ask for more details.\n" +
			"For example if the prompt is \"Hello world Python\", you should return \"print('Hello world')\"."
	default:
		return fmt.Sprintf("You are programming and system administration assistant.\n"+
			"You are managing %s operating system with %s shell.\n"+
			"Provide short responses in about 100 words, unless you are specifically asked for more details.\n"+
			"If you need to store any data, assume it will be stored in the conversation.", osName, shellName)
	}
}

// InterpreterText is the system prompt for code-interpreter mode: the model
// answers with runnable code blocks that the bridge executes.
func InterpreterText(language string) string {
	return fmt.Sprintf("You are a %s code interpreter assistant.\n"+
		"When the user asks for computation or data work, respond with a single runnable %s code block.\n"+
		"Variables persist between executions; reuse them instead of redefining.\n"+
		"Keep prose outside the code block short.", language, language)
}

func detectOS(cfg *config.Config) string {
	if cfg != nil && cfg.OSName != "" && cfg.OSName != "auto" {
		return cfg.OSName
	}
	switch runtime.GOOS {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin/MacOS"
	case "windows":
		return "Windows " + os.Getenv("OS")
	default:
		return runtime.GOOS
	}
}

func detectShell(cfg *config.Config) string {
	if cfg != nil && cfg.ShellName != "" && cfg.ShellName != "auto" {
		return cfg.ShellName
	}
	if runtime.GOOS == "windows" {
		// PSModulePath has 3+ entries under PowerShell, fewer under cmd.
		ps := os.Getenv("PSModulePath")
		if strings.Count(ps, string(os.PathListSeparator))+1 >= 3 {
			return "powershell.exe"
		}
		return "cmd.exe"
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return filepath.Base(shell)
}

// ShellCommand returns the shell and argument used to execute a command
// string on this platform.
func ShellCommand() (string, string) {
	if runtime.GOOS == "windows" {
		return "cmd", "/C"
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return shell, "-c"
}
