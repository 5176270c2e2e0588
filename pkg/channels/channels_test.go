package channels

import (
	"strings"
	"testing"
)

func TestSplitMessage_ShortContentSingleChunk(t *testing.T) {
	chunks := splitMessage("hallo welt", 100)
	if len(chunks) != 1 || chunks[0] != "hallo welt" {
		t.Fatalf("unexpected chunks %v", chunks)
	}
}

func TestSplitMessage_PrefersNewlineBoundary(t *testing.T) {
	content := strings.Repeat("a", 90) + "\n" + strings.Repeat("b", 50)
	chunks := splitMessage(content, 100)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0] != strings.Repeat("a", 90) {
		t.Fatalf("first chunk must end at the newline, got %d chars", len(chunks[0]))
	}
}

func TestSplitMessage_HardCutWithoutBoundary(t *testing.T) {
	content := strings.Repeat("x", 250)
	chunks := splitMessage(content, 100)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c) > 100 {
			t.Fatalf("chunk exceeds limit: %d chars", len(c))
		}
	}
}

func TestBaseChannel_IsAllowed(t *testing.T) {
	c := NewBaseChannel("test", nil, []string{"@alice", "12345"})

	if !c.IsAllowed("999", "alice") {
		t.Fatal("username on the allowlist must pass")
	}
	if !c.IsAllowed("12345", "bob") {
		t.Fatal("user ID on the allowlist must pass")
	}
	if c.IsAllowed("999", "mallory") {
		t.Fatal("unknown sender must be rejected")
	}

	open := NewBaseChannel("test", nil, nil)
	if !open.IsAllowed("anyone", "whoever") {
		t.Fatal("empty allowlist must allow everyone")
	}
}

func TestManager_MessengerLookup(t *testing.T) {
	m := NewManager()
	if _, err := m.Messenger("discord"); err == nil {
		t.Fatal("expected error for unknown transport")
	}
}
