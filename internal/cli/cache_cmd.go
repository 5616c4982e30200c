// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"os"

	"github.com/xuzhougeng/sgpt-go/internal/config"
)

// runCacheCmd handles `sgpt cache clear|prune|stats`.
func runCacheCmd(p *ArgParser) int {
	cfg := config.Global()
	c, err := openCache(cfg)
	if err != nil {
		fail(err)
		return 1
	}
	defer c.Close()

	switch p.Positional(1) {
	case "clear":
		n, err := c.Clear()
		if err != nil {
			fail(err)
			return 1
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("removed %d cached completion(s)", n)))
		return 0

	case "prune":
		n, err := c.Prune()
		if err != nil {
			fail(err)
			return 1
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("pruned %d expired completion(s)", n)))
		return 0

	case "", "stats":
		n, err := c.Len()
		if err != nil {
			fail(err)
			return 1
		}
		path, _ := cfg.CachePath()
		fmt.Printf("%s %d entries\n", titleStyle.Render("cache:"), n)
		fmt.Println(faintStyle.Render(path))
		return 0
	}

	fmt.Fprintln(os.Stderr, errorStyle.Render("usage: sgpt cache clear|prune|stats"))
	return 1
}
