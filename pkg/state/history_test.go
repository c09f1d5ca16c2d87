package state

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/jwebster45206/voyage-engine/pkg/story"
)

func TestHistory_ZeroValue(t *testing.T) {
	var h History
	if h.Cursor() != -1 {
		t.Errorf("Expected cursor -1, got %d", h.Cursor())
	}
	if h.Len() != 0 {
		t.Errorf("Expected empty history, got %d entries", h.Len())
	}
	if _, ok := h.Current(); ok {
		t.Error("Expected no current entry")
	}
	if _, err := h.Back(); !errors.Is(err, ErrAtStart) {
		t.Errorf("Expected ErrAtStart, got %v", err)
	}
	if _, err := h.Forward(); !errors.Is(err, ErrAtEnd) {
		t.Errorf("Expected ErrAtEnd, got %v", err)
	}
	if h.CanGoBack() || h.CanGoForward(nil) {
		t.Error("Expected no navigation on empty history")
	}
}

func TestHistory_BackThenForwardReturnsToSameScene(t *testing.T) {
	var h History
	for _, k := range []story.SceneKey{"a", "b", "c", "d"} {
		h.Append(k)
	}

	for steps := 1; steps <= 3; steps++ {
		before, _ := h.Current()
		for i := 0; i < steps; i++ {
			if _, err := h.Back(); err != nil {
				t.Fatalf("back %d: unexpected error: %v", i, err)
			}
		}
		for i := 0; i < steps; i++ {
			if _, err := h.Forward(); err != nil {
				t.Fatalf("forward %d: unexpected error: %v", i, err)
			}
		}
		after, _ := h.Current()
		if after != before {
			t.Errorf("steps=%d: expected %q, got %q", steps, before, after)
		}
	}
}

func TestHistory_BranchOverwrite(t *testing.T) {
	var h History
	h.Append("A")
	h.Append("B")
	h.Append("C")
	if h.Cursor() != 2 {
		t.Fatalf("Expected cursor 2, got %d", h.Cursor())
	}

	if _, err := h.Back(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key, err := h.Back()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "A" || h.Cursor() != 0 {
		t.Fatalf("Expected A at cursor 0, got %q at %d", key, h.Cursor())
	}

	h.Append("D")
	if got := h.Entries(); !slices.Equal(got, []story.SceneKey{"A", "D"}) {
		t.Errorf("Expected [A D], got %v", got)
	}
	if h.Cursor() != 1 {
		t.Errorf("Expected cursor 1, got %d", h.Cursor())
	}
}

func TestHistory_CanGoForward(t *testing.T) {
	terminal := func(k story.SceneKey) bool { return k == "end" }

	tests := []struct {
		name    string
		entries []story.SceneKey
		backs   int
		want    bool
	}{
		{name: "at end", entries: []story.SceneKey{"a", "b"}, want: false},
		{name: "one back", entries: []story.SceneKey{"a", "b"}, backs: 1, want: true},
		{name: "terminal at cursor", entries: []story.SceneKey{"a", "end", "b"}, backs: 1, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h History
			for _, k := range tt.entries {
				h.Append(k)
			}
			for i := 0; i < tt.backs; i++ {
				_, _ = h.Back()
			}
			if got := h.CanGoForward(terminal); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestHistory_Reset(t *testing.T) {
	var h History
	h.Append("a")
	h.Append("b")
	h.Reset()
	if h.Len() != 0 || h.Cursor() != -1 {
		t.Errorf("Expected empty history at -1, got %d entries at %d", h.Len(), h.Cursor())
	}
}

func TestHistory_JSON(t *testing.T) {
	var h History
	h.Append("a")
	h.Append("b")
	_, _ = h.Back()

	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("failed to marshal history: %v", err)
	}
	if string(data) != `{"entries":["a","b"],"cursor":0}` {
		t.Errorf("unexpected JSON: %s", data)
	}

	var decoded History
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("failed to unmarshal history: %v", err)
	}
	if decoded.Cursor() != 0 || decoded.Len() != 2 {
		t.Errorf("Expected 2 entries at cursor 0, got %d at %d", decoded.Len(), decoded.Cursor())
	}

	var empty History
	data, _ = json.Marshal(empty)
	if string(data) != `{"entries":[],"cursor":-1}` {
		t.Errorf("unexpected JSON for empty history: %s", data)
	}

	if err := json.Unmarshal([]byte(`{"entries":["a"],"cursor":4}`), &decoded); err == nil {
		t.Error("Expected error for cursor out of range, got nil")
	}
}
