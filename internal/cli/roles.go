// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/xuzhougeng/sgpt-go/internal/config"
	"github.com/xuzhougeng/sgpt-go/internal/role"
)

// runRoles handles `sgpt roles list|show|create|delete|default`.
func runRoles(p *ArgParser) int {
	cfg := config.Global()
	dir, err := cfg.RolesDir()
	if err != nil {
		fail(err)
		return 1
	}
	store := role.NewStore(dir)

	switch p.Positional(1) {
	case "", "list":
		names, err := store.List()
		if err != nil {
			fail(err)
			return 1
		}
		fmt.Println(titleStyle.Render("built-in:"))
		for _, k := range []role.Kind{role.Default, role.Shell, role.DescribeShell, role.Code} {
			fmt.Println("  " + k.String())
		}
		if len(names) > 0 {
			fmt.Println(titleStyle.Render("custom:"))
			for _, n := range names {
				fmt.Println("  " + n)
			}
		}
		return 0

	case "show":
		name := p.Positional(2)
		if name == "" {
			fmt.Fprintln(os.Stderr, errorStyle.Render("usage: sgpt roles show <name>"))
			return 1
		}
		if text, ok := builtinText(cfg, name); ok {
			fmt.Println(text)
			return 0
		}
		r, err := store.Get(name)
		if err != nil {
			fail(err)
			return 1
		}
		fmt.Println(r.Prompt)
		return 0

	case "create":
		name := p.Positional(2)
		prompt := strings.Join(p.PositionalFrom(3), " ")
		if name == "" || prompt == "" {
			fmt.Fprintln(os.Stderr, errorStyle.Render(`usage: sgpt roles create <name> "system prompt"`))
			return 1
		}
		if _, ok := builtinText(cfg, name); ok {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("%q is a built-in role", name)))
			return 1
		}
		if err := store.Save(role.CustomRole{Name: name, Prompt: prompt}); err != nil {
			fail(err)
			return 1
		}
		fmt.Println(successStyle.Render("saved role " + name))
		return 0

	case "delete":
		name := p.Positional(2)
		if name == "" {
			fmt.Fprintln(os.Stderr, errorStyle.Render("usage: sgpt roles delete <name>"))
			return 1
		}
		if err := store.Delete(name); err != nil {
			fail(err)
			return 1
		}
		fmt.Println(successStyle.Render("deleted role " + name))
		return 0

	case "default":
		fmt.Println(role.Text(cfg, role.Default))
		return 0
	}

	fmt.Fprintln(os.Stderr, errorStyle.Render("usage: sgpt roles list|show|create|delete|default"))
	return 1
}

// builtinText resolves a built-in role by its display name.
func builtinText(cfg *config.Config, name string) (string, bool) {
	for _, k := range []role.Kind{role.Default, role.Shell, role.DescribeShell, role.Code} {
		if k.String() == name {
			return role.Text(cfg, k), true
		}
	}
	return "", false
}
