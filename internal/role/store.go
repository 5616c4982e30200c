// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package role

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xuzhougeng/sgpt-go/internal/util"
)

// CustomRole is a user-defined system prompt stored as JSON under the
// config roles directory.
type CustomRole struct {
	Name      string    `json:"name"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"created_at"`
}

// Store manages custom role files. One JSON file per role.
type Store struct {
	Dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) path(name string) string {
	return filepath.Join(s.Dir, name+".json")
}

func validName(name string) error {
	if name == "" {
		return fmt.Errorf("role name cannot be empty")
	}
	if strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return fmt.Errorf("invalid role name %q", name)
	}
	return nil
}

// Save writes a custom role atomically.
func (s *Store) Save(r CustomRole) error {
	if err := validName(r.Name); err != nil {
		return err
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode role: %w", err)
	}
	return util.AtomicWriteFile(s.path(r.Name), data, 0o644)
}

// Get loads a custom role by name.
func (s *Store) Get(name string) (CustomRole, error) {
	if err := validName(name); err != nil {
		return CustomRole{}, err
	}
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return CustomRole{}, fmt.Errorf("role %q not found", name)
		}
		return CustomRole{}, fmt.Errorf("failed to read role: %w", err)
	}
	var r CustomRole
	if err := json.Unmarshal(data, &r); err != nil {
		return CustomRole{}, fmt.Errorf("failed to parse role %q: %w", name, err)
	}
	return r, nil
}

// List returns the names of all stored roles, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a stored role.
func (s *Store) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("role %q not found", name)
		}
		return fmt.Errorf("failed to delete role: %w", err)
	}
	return nil
}
