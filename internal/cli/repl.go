// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/xuzhougeng/sgpt-go/internal/config"
	"github.com/xuzhougeng/sgpt-go/internal/llm"
	"github.com/xuzhougeng/sgpt-go/internal/role"
	"github.com/xuzhougeng/sgpt-go/internal/shell"
)

const replBanner = `Entering REPL mode. Type "exit()" or press Ctrl-D to quit.
Use """ to start and end a multiline block.`

// runREPL is the plain line-based loop: no alternate screen, answers
// printed inline. Shortcuts e/d/r/p/m act on the last generated artifact.
func runREPL(env *runEnv, sessionID, initialPrompt string) error {
	store, err := sessionStore(env.cfg)
	if err != nil {
		return err
	}
	messages, err := store.Read(sessionID)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		messages = []llm.Message{llm.SystemMessage(env.system)}
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := replHistoryPath()
	if historyPath != "" {
		if f, err := os.Open(historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	defer saveReplHistory(line, historyPath)

	fmt.Println(titleStyle.Render(replBanner))

	lastArtifact := ""
	persist := func() {
		if err := store.Write(sessionID, messages); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render("warning: "+err.Error()))
		}
	}

	ask := func(prompt string) {
		messages = append(messages, llm.UserMessage(prompt))
		answer, err := streamToStdout(env, messages)
		if err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(llm.FormatUserError(err)))
			messages = messages[:len(messages)-1]
			return
		}
		messages = append(messages, llm.AssistantMessage(answer))
		lastArtifact = artifactFrom(env.kind, answer)
		persist()
	}

	if initialPrompt != "" {
		fmt.Println(faintStyle.Render(">>> " + initialPrompt))
		ask(initialPrompt)
	}

	for {
		input, err := line.Prompt(">>> ")
		if err != nil {
			// Ctrl-C aborts the current line, Ctrl-D (io.EOF) quits.
			if err == liner.ErrPromptAborted {
				continue
			}
			fmt.Println()
			return nil
		}

		input = strings.TrimSpace(input)
		switch {
		case input == "":
			continue
		case input == "exit()":
			return nil
		case input == `"""`:
			block, ok := readMultiline(line)
			if !ok {
				continue
			}
			line.AppendHistory(`"""`)
			ask(block)
			continue
		}

		line.AppendHistory(input)

		if lastArtifact != "" && len(input) == 1 {
			if handleArtifactShortcut(env, line, input, lastArtifact, ask) {
				continue
			}
		}
		ask(input)
	}
}

// readMultiline collects lines until the closing """ fence.
func readMultiline(line *liner.State) (string, bool) {
	var lines []string
	for {
		l, err := line.Prompt("... ")
		if err != nil {
			return "", false
		}
		if strings.TrimSpace(l) == `"""` {
			break
		}
		lines = append(lines, l)
	}
	block := strings.TrimSpace(strings.Join(lines, "\n"))
	return block, block != ""
}

// handleArtifactShortcut runs the single-letter actions against the last
// artifact. Returns false when the letter is not a shortcut, so the input
// falls through as an ordinary prompt.
func handleArtifactShortcut(env *runEnv, line *liner.State, input, artifact string, ask func(string)) bool {
	switch input {
	case "e", "r":
		res := shell.Run(context.Background(), artifact)
		fmt.Println(res.Format())
		return true
	case "d":
		if err := describeCommand(env, artifact); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(llm.FormatUserError(err)))
		}
		return true
	case "p":
		fmt.Println(artifact)
		return true
	case "m":
		edited, err := line.PromptWithSuggestion("edit> ", artifact, len(artifact))
		if err != nil || strings.TrimSpace(edited) == "" {
			return true
		}
		ask(strings.TrimSpace(edited))
		return true
	}
	return false
}

// streamToStdout streams one completion inline and returns the full text.
// Markdown-enabled output is accumulated and rendered after the stream.
func streamToStdout(env *runEnv, messages []llm.Message) (string, error) {
	var sb strings.Builder
	raw := !env.markdown

	err := env.client.ChatStream(context.Background(), messages, env.opts, func(ev llm.StreamEvent) {
		if content, ok := ev.(llm.ContentEvent); ok {
			sb.WriteString(content.Text)
			if raw {
				fmt.Print(content.Text)
			}
		}
	})
	if err != nil {
		if raw {
			fmt.Println()
		}
		return "", err
	}

	if raw {
		fmt.Println()
	} else {
		fmt.Print(renderMarkdown(sb.String()))
	}
	return sb.String(), nil
}

// artifactFrom extracts the actionable artifact from an answer: the
// command for shell mode, nothing otherwise.
func artifactFrom(kind role.Kind, answer string) string {
	if kind == role.Shell {
		return strings.TrimSpace(answer)
	}
	return ""
}

func replHistoryPath() string {
	dir, err := config.Dir()
	if err != nil {
		return ""
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "repl_history")
}

func saveReplHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
