// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package session

import (
	"path/filepath"
	"testing"

	"github.com/xuzhougeng/sgpt-go/internal/llm"
)

func TestStore_RoundTrip(t *testing.T) {
	s := NewStore(t.TempDir())
	msgs := []llm.Message{
		llm.SystemMessage("be terse"),
		llm.UserMessage("list files"),
		llm.AssistantMessage("ls -la"),
	}

	if err := s.Write("work", msgs); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := s.Read("work")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	if got[2].Role != llm.RoleAssistant || got[2].Content != "ls -la" {
		t.Errorf("last message = %+v", got[2])
	}
}

func TestStore_TempIDNotPersisted(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	if err := s.Write(TempID, []llm.Message{llm.UserMessage("hi")}); err != nil {
		t.Fatalf("Write(temp): %v", err)
	}
	if s.Exists(TempID) {
		t.Error("temp session should never exist on disk")
	}
	if _, err := filepath.Glob(filepath.Join(dir, "*")); err != nil {
		t.Fatal(err)
	}
	got, err := s.Read(TempID)
	if err != nil || got != nil {
		t.Errorf("Read(temp) = %v, %v; want nil, nil", got, err)
	}
}

func TestStore_MissingSessionReadsEmpty(t *testing.T) {
	s := NewStore(t.TempDir())
	got, err := s.Read("never-written")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestStore_ListAndClear(t *testing.T) {
	s := NewStore(t.TempDir())
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Write(id, []llm.Message{llm.UserMessage("prompt for " + id)}); err != nil {
			t.Fatalf("Write(%q): %v", id, err)
		}
	}

	summaries, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(summaries) != 3 {
		t.Fatalf("List returned %d, want 3", len(summaries))
	}
	if summaries[0].FirstLine == "" {
		t.Error("summary should carry the first user line")
	}

	n, err := s.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d, want 3", n)
	}
	summaries, _ = s.List()
	if len(summaries) != 0 {
		t.Errorf("sessions remain after Clear: %v", summaries)
	}
}

func TestStore_RejectsBadIDs(t *testing.T) {
	s := NewStore(t.TempDir())
	for _, id := range []string{"", "../x", "a/b", ".."} {
		if err := s.Write(id, nil); err == nil {
			t.Errorf("Write(%q) should fail", id)
		}
	}
}
