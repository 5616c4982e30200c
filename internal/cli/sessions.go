// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"os"

	"github.com/xuzhougeng/sgpt-go/internal/config"
	"github.com/xuzhougeng/sgpt-go/internal/llm"
)

// runSessions handles `sgpt sessions list|show|delete|clear`.
func runSessions(p *ArgParser) int {
	store, err := sessionStore(config.Global())
	if err != nil {
		fail(err)
		return 1
	}

	switch p.Positional(1) {
	case "", "list":
		summaries, err := store.List()
		if err != nil {
			fail(err)
			return 1
		}
		if len(summaries) == 0 {
			fmt.Println(faintStyle.Render("no stored sessions"))
			return 0
		}
		for _, s := range summaries {
			fmt.Printf("%s  %s  %3d msgs  %s\n",
				titleStyle.Render(s.ID),
				s.UpdatedAt.Local().Format("2006-01-02 15:04"),
				s.Messages,
				faintStyle.Render(s.FirstLine))
		}
		return 0

	case "show":
		id := p.Positional(2)
		if id == "" {
			fmt.Fprintln(os.Stderr, errorStyle.Render("usage: sgpt sessions show <id>"))
			return 1
		}
		messages, err := store.Read(id)
		if err != nil {
			fail(err)
			return 1
		}
		if messages == nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("session %q not found", id)))
			return 1
		}
		for _, m := range messages {
			if m.Role == llm.RoleSystem {
				continue
			}
			fmt.Printf("%s\n%s\n\n", titleStyle.Render(string(m.Role)), m.Content)
		}
		return 0

	case "delete":
		id := p.Positional(2)
		if id == "" {
			fmt.Fprintln(os.Stderr, errorStyle.Render("usage: sgpt sessions delete <id>"))
			return 1
		}
		if err := store.Delete(id); err != nil {
			fail(err)
			return 1
		}
		fmt.Println(successStyle.Render("deleted " + id))
		return 0

	case "clear":
		n, err := store.Clear()
		if err != nil {
			fail(err)
			return 1
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("removed %d session(s)", n)))
		return 0
	}

	fmt.Fprintln(os.Stderr, errorStyle.Render("usage: sgpt sessions list|show|delete|clear"))
	return 1
}
