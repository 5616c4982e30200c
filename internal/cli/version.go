// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package cli

import (
	"fmt"
	"runtime"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

func printVersion() {
	fmt.Printf("sgpt %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
}
