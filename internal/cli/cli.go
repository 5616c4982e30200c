// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/xuzhougeng/sgpt-go/internal/cache"
	"github.com/xuzhougeng/sgpt-go/internal/config"
	"github.com/xuzhougeng/sgpt-go/internal/interp"
	"github.com/xuzhougeng/sgpt-go/internal/llm"
	"github.com/xuzhougeng/sgpt-go/internal/role"
	"github.com/xuzhougeng/sgpt-go/internal/session"
	"github.com/xuzhougeng/sgpt-go/internal/tui"
	"github.com/xuzhougeng/sgpt-go/internal/util"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	faintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
)

const usage = `sgpt - a terminal client for OpenAI-compatible chat models

Usage:
  sgpt [flags] "prompt"            one-shot completion to stdout
  sgpt --chat <id> [prompt]        persistent session; no prompt opens the TUI
  sgpt --repl <id>                 plain line-based REPL
  sgpt --interpreter [--chat <id>] TUI with a python code interpreter
  sgpt sessions list|show|delete|clear        manage stored sessions
  sgpt roles list|show|create|delete|default  manage custom roles
  sgpt cache clear|prune|stats                manage the completion cache
  sgpt version                                print version

Flags:
  -s, --shell            generate shell commands
  -d, --describe-shell   describe a shell command
  -c, --code             generate code only
      --role <name>      use a stored custom role
      --model <name>     override the configured model
      --temperature <t>  sampling temperature
      --top-p <p>        nucleus sampling parameter
      --no-interaction   skip the execute/describe/abort prompt for --shell
      --no-cache         bypass the completion cache
      --md / --no-md     force markdown rendering on or off

Use "temp" as the session id to disable persistence, or "new" to
generate a fresh id.`

// runEnv carries everything a command handler needs, resolved once from
// config and flags.
type runEnv struct {
	cfg         *config.Config
	client      *llm.Client
	opts        llm.Options
	kind        role.Kind
	system      string
	markdown    bool
	useCache    bool
	interactive bool
}

// Run is the CLI entry point. It returns the process exit code.
func Run(args []string) int {
	p := NewArgParser(args)

	if p.BoolFlag("help") || p.BoolFlag("h") {
		fmt.Println(usage)
		return 0
	}
	if p.BoolFlag("version") || p.Positional(0) == "version" {
		printVersion()
		return 0
	}

	switch p.Positional(0) {
	case "sessions":
		return runSessions(p)
	case "roles":
		return runRoles(p)
	case "cache":
		return runCacheCmd(p)
	}

	env, err := buildEnv(p)
	if err != nil {
		fail(err)
		return 1
	}

	prompt, err := resolvePrompt(p)
	if err != nil {
		fail(err)
		return 1
	}

	switch {
	case p.HasFlag("repl"):
		id := resolveSessionID(p.FlagOrDefault("repl", session.TempID))
		if err := runREPL(env, id, prompt); err != nil {
			fail(err)
			return 1
		}
		return 0

	case p.HasFlag("interpreter"):
		id := resolveSessionID(p.FlagOrDefault("chat", session.TempID))
		if err := runTUI(env, id, interp.Python); err != nil {
			fail(err)
			return 1
		}
		return 0

	case p.HasFlag("chat") && prompt == "":
		id := resolveSessionID(p.FlagOrDefault("chat", session.TempID))
		if err := runTUI(env, id, ""); err != nil {
			fail(err)
			return 1
		}
		return 0

	case prompt != "":
		sessionID := p.FlagOrDefault("chat", "")
		if sessionID != "" {
			sessionID = resolveSessionID(sessionID)
		}
		if err := runOneShot(env, sessionID, prompt); err != nil {
			fail(err)
			return 1
		}
		return 0
	}

	fmt.Println(usage)
	return 1
}

// buildEnv resolves config, flags, role, and the LLM client.
func buildEnv(p *ArgParser) (*runEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	config.SetGlobal(cfg)

	if cfg.UI.DebugLog {
		if dir, err := config.Dir(); err == nil {
			_ = util.EnableDebugLog(dir)
		}
	}

	client := llm.NewClientFromConfig(cfg)

	var opts llm.Options
	opts.Model = p.Flag("model")
	if p.HasFlag("temperature") {
		t, err := p.FlagFloat("temperature")
		if err != nil {
			return nil, fmt.Errorf("invalid --temperature: %w", err)
		}
		opts.Temperature = &t
	}
	if p.HasFlag("top-p") {
		tp, err := p.FlagFloat("top-p")
		if err != nil {
			return nil, fmt.Errorf("invalid --top-p: %w", err)
		}
		opts.TopP = &tp
	}

	kind := role.FromFlags(
		p.AnyBool("shell", "s"),
		p.AnyBool("describe-shell", "d"),
		p.AnyBool("code", "c"),
	)

	system := role.Text(cfg, kind)
	if name := p.Flag("role"); name != "" {
		dir, err := cfg.RolesDir()
		if err != nil {
			return nil, err
		}
		custom, err := role.NewStore(dir).Get(name)
		if err != nil {
			return nil, err
		}
		system = custom.Prompt
	}

	markdown := cfg.UI.Markdown
	if p.BoolFlag("no-md") {
		markdown = false
	}
	if p.BoolFlag("md") {
		markdown = true
	}
	// Code and shell roles demand plain text the user can pipe or run.
	if kind == role.Shell || kind == role.Code {
		markdown = false
	}

	return &runEnv{
		cfg:         cfg,
		client:      client,
		opts:        opts,
		kind:        kind,
		system:      system,
		markdown:    markdown,
		useCache:    cfg.Cache.Enabled && !p.BoolFlag("no-cache"),
		interactive: !p.BoolFlag("no-interaction"),
	}, nil
}

// resolvePrompt joins the positional prompt with piped stdin, if any.
func resolvePrompt(p *ArgParser) (string, error) {
	prompt := p.Prompt()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		piped := strings.TrimSpace(string(data))
		switch {
		case piped == "":
		case prompt == "":
			prompt = piped
		default:
			prompt = prompt + "\n\n" + piped
		}
	}
	return strings.TrimSpace(prompt), nil
}

// runTUI launches the interactive bubbletea session.
func runTUI(env *runEnv, sessionID string, language interp.Language) error {
	store, err := sessionStore(env.cfg)
	if err != nil {
		return err
	}

	history, err := store.Read(sessionID)
	if err != nil {
		return err
	}

	system := env.system
	mode := tui.ModeChat
	switch {
	case language != "":
		mode = tui.ModeInterpreter
		system = role.InterpreterText(string(language))
	case env.kind == role.Shell:
		mode = tui.ModeShell
	}
	if len(history) == 0 {
		history = []llm.Message{llm.SystemMessage(system)}
	}

	return tui.Run(tui.Options{
		Client:             env.client,
		Store:              store,
		SessionID:          sessionID,
		Mode:               mode,
		Language:           language,
		History:            history,
		DescribePrompt:     role.Text(env.cfg, role.DescribeShell),
		MaxDisplayMessages: env.cfg.Chat.MaxDisplayMessages,
		Theme:              env.cfg.UI.Theme,
	})
}

// resolveSessionID maps the "new" sentinel to a freshly generated id and
// passes everything else through.
func resolveSessionID(id string) string {
	if id == "new" {
		id = session.NewID()
		fmt.Println(faintStyle.Render("session: " + id))
	}
	return id
}

func sessionStore(cfg *config.Config) (*session.Store, error) {
	dir, err := cfg.SessionsDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return session.NewStore(dir), nil
}

func openCache(cfg *config.Config) (*cache.Cache, error) {
	path, err := cfg.CachePath()
	if err != nil {
		return nil, err
	}
	ttl := time.Duration(cfg.Cache.TTLDays) * 24 * time.Hour
	return cache.Open(path, ttl)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, errorStyle.Render(llm.FormatUserError(err)))
}
