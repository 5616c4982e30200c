// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

// Package cache stores completed (non-streaming) completions in SQLite,
// keyed by a fingerprint of the full request.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/xuzhougeng/sgpt-go/internal/llm"
)

const schema = `
CREATE TABLE IF NOT EXISTS completions (
	fingerprint TEXT PRIMARY KEY,
	model       TEXT NOT NULL,
	content     TEXT NOT NULL,
	created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_completions_created ON completions(created_at);
`

// Cache is a completion cache backed by one SQLite file.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

// Open opens (or creates) the cache database at path.
func Open(path string, ttl time.Duration) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Close releases the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Fingerprint derives the cache key for a request. The key covers model,
// messages, and sampling parameters, so any change misses.
func Fingerprint(model string, messages []llm.Message, opts llm.Options) string {
	payload := struct {
		Model       string        `json:"model"`
		Messages    []llm.Message `json:"messages"`
		Temperature *float64      `json:"temperature"`
		TopP        *float64      `json:"top_p"`
		MaxTokens   int           `json:"max_tokens"`
	}{model, messages, opts.Temperature, opts.TopP, opts.MaxTokens}

	data, _ := json.Marshal(payload)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached completion for a fingerprint, or ("", false) on
// miss. Expired entries count as misses and are deleted lazily.
func (c *Cache) Get(fingerprint string) (string, bool) {
	var content string
	var createdAt int64
	err := c.db.QueryRow(
		"SELECT content, created_at FROM completions WHERE fingerprint = ?", fingerprint,
	).Scan(&content, &createdAt)
	if err != nil {
		return "", false
	}
	if c.ttl > 0 && time.Since(time.Unix(createdAt, 0)) > c.ttl {
		_, _ = c.db.Exec("DELETE FROM completions WHERE fingerprint = ?", fingerprint)
		return "", false
	}
	return content, true
}

// Put stores a completion under its fingerprint, replacing any previous
// entry.
func (c *Cache) Put(fingerprint, model, content string) error {
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO completions (fingerprint, model, content, created_at) VALUES (?, ?, ?, ?)",
		fingerprint, model, content, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store completion: %w", err)
	}
	return nil
}

// Prune deletes expired entries and returns how many were removed.
func (c *Cache) Prune() (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-c.ttl).Unix()
	res, err := c.db.Exec("DELETE FROM completions WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Clear removes every entry and returns how many were removed.
func (c *Cache) Clear() (int64, error) {
	res, err := c.db.Exec("DELETE FROM completions")
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Len returns the number of stored completions.
func (c *Cache) Len() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM completions").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
