// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

// Package session persists chat conversations as JSON files, one per
// session id.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xuzhougeng/sgpt-go/internal/llm"
	"github.com/xuzhougeng/sgpt-go/internal/util"
)

// TempID is the reserved session id that disables persistence.
const TempID = "temp"

// Session is a stored conversation.
type Session struct {
	ID        string        `json:"id"`
	Messages  []llm.Message `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Summary is a listing entry for a stored session.
type Summary struct {
	ID        string
	Messages  int
	FirstLine string
	UpdatedAt time.Time
}

// Store reads and writes session files under Dir.
type Store struct {
	Dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

func validID(id string) error {
	if id == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if strings.ContainsAny(id, "/\\") || id == "." || id == ".." {
		return fmt.Errorf("invalid session id %q", id)
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.Dir, id+".json")
}

// Exists reports whether a session file is present for id.
func (s *Store) Exists(id string) bool {
	if id == TempID || validID(id) != nil {
		return false
	}
	_, err := os.Stat(s.path(id))
	return err == nil
}

// Read loads the messages for a session. A missing session returns an
// empty slice, not an error, so callers can resume-or-start uniformly.
func (s *Store) Read(id string) ([]llm.Message, error) {
	if id == TempID {
		return nil, nil
	}
	if err := validID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session %q: %w", id, err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session %q: %w", id, err)
	}
	return sess.Messages, nil
}

// Write persists the messages for a session atomically. The temp id is a
// no-op.
func (s *Store) Write(id string, messages []llm.Message) error {
	if id == TempID {
		return nil
	}
	if err := validID(id); err != nil {
		return err
	}

	now := time.Now().UTC()
	sess := Session{ID: id, Messages: messages, CreatedAt: now, UpdatedAt: now}

	// Preserve the original creation time across rewrites.
	if data, err := os.ReadFile(s.path(id)); err == nil {
		var prev Session
		if json.Unmarshal(data, &prev) == nil && !prev.CreatedAt.IsZero() {
			sess.CreatedAt = prev.CreatedAt
		}
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return util.AtomicWriteFile(s.path(id), data, 0o644)
}

// Delete removes one session file.
func (s *Store) Delete(id string) error {
	if err := validID(id); err != nil {
		return err
	}
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("session %q not found", id)
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns summaries of all stored sessions, most recently updated
// first.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var out []Summary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.Dir, e.Name()))
		if err != nil {
			continue
		}
		var sess Session
		if json.Unmarshal(data, &sess) != nil {
			continue
		}
		out = append(out, Summary{
			ID:        strings.TrimSuffix(e.Name(), ".json"),
			Messages:  len(sess.Messages),
			FirstLine: firstUserLine(sess.Messages),
			UpdatedAt: sess.UpdatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Clear removes every stored session and returns how many were deleted.
func (s *Store) Clear() (int, error) {
	summaries, err := s.List()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, sum := range summaries {
		if err := s.Delete(sum.ID); err == nil {
			n++
		}
	}
	return n, nil
}

func firstUserLine(messages []llm.Message) string {
	for _, m := range messages {
		if m.Role != llm.RoleUser {
			continue
		}
		line := m.Content
		if idx := strings.IndexByte(line, '\n'); idx >= 0 {
			line = line[:idx]
		}
		return util.TruncateRunes(line, 60)
	}
	return ""
}
