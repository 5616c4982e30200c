// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/xuzhougeng/sgpt-go/internal/cache"
	"github.com/xuzhougeng/sgpt-go/internal/llm"
	"github.com/xuzhougeng/sgpt-go/internal/role"
	"github.com/xuzhougeng/sgpt-go/internal/shell"
)

// runOneShot handles `sgpt "prompt"`: one completion printed to stdout.
// With a session id the exchange is appended to the stored conversation.
func runOneShot(env *runEnv, sessionID, prompt string) error {
	ctx := context.Background()

	messages := []llm.Message{llm.SystemMessage(env.system)}
	if sessionID != "" {
		store, err := sessionStore(env.cfg)
		if err != nil {
			return err
		}
		history, err := store.Read(sessionID)
		if err != nil {
			return err
		}
		if len(history) > 0 {
			messages = history
		}
		messages = append(messages, llm.UserMessage(prompt))

		answer, err := completeAndPrint(ctx, env, messages)
		if err != nil {
			return err
		}
		messages = append(messages, llm.AssistantMessage(answer))
		if err := store.Write(sessionID, messages); err != nil {
			return err
		}
		return postShellPrompt(env, answer)
	}

	messages = append(messages, llm.UserMessage(prompt))
	answer, err := completeAndPrint(ctx, env, messages)
	if err != nil {
		return err
	}
	return postShellPrompt(env, answer)
}

// completeAndPrint runs one completion and prints it, returning the full
// answer text. Markdown output and cacheable requests go through the
// non-streaming path; everything else streams token by token.
func completeAndPrint(ctx context.Context, env *runEnv, messages []llm.Message) (string, error) {
	if cached, ok := cacheLookup(env, messages); ok {
		printAnswer(env, cached)
		return cached, nil
	}

	if env.markdown || cacheable(env) {
		answer, err := env.client.Complete(ctx, messages, env.opts)
		if err != nil {
			return "", err
		}
		cacheStore(env, messages, answer)
		printAnswer(env, answer)
		return answer, nil
	}

	var sb strings.Builder
	err := env.client.ChatStream(ctx, messages, env.opts, func(ev llm.StreamEvent) {
		if content, ok := ev.(llm.ContentEvent); ok {
			sb.WriteString(content.Text)
			fmt.Print(content.Text)
		}
	})
	fmt.Println()
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// cacheable reports whether this request is deterministic enough to cache:
// temperature must resolve to zero.
func cacheable(env *runEnv) bool {
	if !env.useCache {
		return false
	}
	if env.opts.Temperature != nil {
		return *env.opts.Temperature == 0
	}
	return env.cfg.API.Temperature == 0
}

func cacheLookup(env *runEnv, messages []llm.Message) (string, bool) {
	if !cacheable(env) {
		return "", false
	}
	c, err := openCache(env.cfg)
	if err != nil {
		return "", false
	}
	defer c.Close()

	model := env.opts.Model
	if model == "" {
		model = env.client.Model()
	}
	return c.Get(cache.Fingerprint(model, messages, env.opts))
}

func cacheStore(env *runEnv, messages []llm.Message, answer string) {
	if !cacheable(env) || answer == "" {
		return
	}
	c, err := openCache(env.cfg)
	if err != nil {
		return
	}
	defer c.Close()

	model := env.opts.Model
	if model == "" {
		model = env.client.Model()
	}
	_ = c.Put(cache.Fingerprint(model, messages, env.opts), model, answer)
}

func printAnswer(env *runEnv, answer string) {
	if env.markdown {
		fmt.Print(renderMarkdown(answer))
		return
	}
	fmt.Println(answer)
}

// renderMarkdown renders through glamour, falling back to the raw text
// when the renderer cannot be built (e.g. no usable terminal).
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return text + "\n"
	}
	out, err := r.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}

// postShellPrompt offers the execute/describe/abort choice after a shell
// command was generated. Skipped for non-shell roles, --no-interaction,
// and non-terminal stdin.
func postShellPrompt(env *runEnv, command string) error {
	command = strings.TrimSpace(command)
	if env.kind != role.Shell || command == "" {
		return nil
	}
	if !env.interactive || !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print(faintStyle.Render("[E]xecute, [D]escribe, [A]bort: "))
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "e", "execute", "y", "yes":
			return shell.RunInteractive(context.Background(), command)
		case "d", "describe":
			if err := describeCommand(env, command); err != nil {
				return err
			}
		case "a", "abort", "q", "":
			return nil
		}
	}
}

// describeCommand asks the model for a description of a generated command
// and streams it to stdout.
func describeCommand(env *runEnv, command string) error {
	messages := []llm.Message{
		llm.SystemMessage(role.Text(env.cfg, role.DescribeShell)),
		llm.UserMessage(command),
	}
	err := env.client.ChatStream(context.Background(), messages, env.opts, func(ev llm.StreamEvent) {
		if content, ok := ev.(llm.ContentEvent); ok {
			fmt.Print(content.Text)
		}
	})
	fmt.Println()
	return err
}
