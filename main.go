// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

// sgpt is a terminal client for OpenAI-compatible chat models: one-shot
// completions, a persistent-session TUI, a plain REPL, and a python
// code-interpreter mode.
package main

import (
	"os"

	"github.com/xuzhougeng/sgpt-go/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
