// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package util

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// The TUI owns stdout, so diagnostics go to an append-only file under the
// config dir. Disabled (the default) every call is a no-op.
var (
	debugMu   sync.Mutex
	debugPath string
)

// EnableDebugLog turns on debug logging to <dir>/debug.log.
func EnableDebugLog(dir string) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	debugMu.Lock()
	debugPath = filepath.Join(dir, "debug.log")
	debugMu.Unlock()
	return nil
}

// Debugf appends one timestamped line to the debug log, if enabled.
func Debugf(format string, args ...any) {
	debugMu.Lock()
	path := debugPath
	debugMu.Unlock()
	if path == "" {
		return
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	defer f.Close()

	line := fmt.Sprintf("%s %s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		fmt.Sprintf(format, args...))
	_, _ = f.WriteString(line)
}
