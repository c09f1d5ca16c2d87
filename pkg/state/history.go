package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/jwebster45206/voyage-engine/pkg/story"
)

var (
	ErrAtStart = errors.New("already at the first visited scene")
	ErrAtEnd   = errors.New("already at the latest visited scene")
)

// History is a browser-style back/forward stack over visited scenes. The
// zero value is an empty history with its cursor at -1.
type History struct {
	entries []story.SceneKey
	pos     int // cursor + 1, so the zero value means cursor -1
}

// Len returns the number of visited scenes held.
func (h *History) Len() int { return len(h.entries) }

// Cursor returns the index of the scene being shown, or -1 when empty.
func (h *History) Cursor() int { return h.pos - 1 }

// Entries returns a copy of the visited scenes.
func (h *History) Entries() []story.SceneKey { return slices.Clone(h.entries) }

// Current returns the scene at the cursor.
func (h *History) Current() (story.SceneKey, bool) {
	if h.pos == 0 {
		return "", false
	}
	return h.entries[h.pos-1], true
}

// Append discards every entry after the cursor, pushes key and moves the
// cursor onto it.
func (h *History) Append(key story.SceneKey) {
	h.entries = append(h.entries[:h.pos], key)
	h.pos = len(h.entries)
}

// Back moves the cursor one step back and returns the scene there.
func (h *History) Back() (story.SceneKey, error) {
	if h.Cursor() <= 0 {
		return "", ErrAtStart
	}
	h.pos--
	return h.entries[h.pos-1], nil
}

// Forward moves the cursor one step forward and returns the scene there.
func (h *History) Forward() (story.SceneKey, error) {
	if h.Cursor() >= len(h.entries)-1 {
		return "", ErrAtEnd
	}
	h.pos++
	return h.entries[h.pos-1], nil
}

// CanGoBack reports whether Back would succeed.
func (h *History) CanGoBack() bool { return h.Cursor() > 0 }

// CanGoForward reports whether forward replay is offered: there must be an
// entry after the cursor and the scene at the cursor must not be an ending.
func (h *History) CanGoForward(isTerminal func(story.SceneKey) bool) bool {
	cur, ok := h.Current()
	if !ok || h.Cursor() >= len(h.entries)-1 {
		return false
	}
	return isTerminal == nil || !isTerminal(cur)
}

// Reset empties the history.
func (h *History) Reset() {
	h.entries = nil
	h.pos = 0
}

type historyJSON struct {
	Entries []story.SceneKey `json:"entries"`
	Cursor  int              `json:"cursor"`
}

func (h History) MarshalJSON() ([]byte, error) {
	entries := h.entries
	if entries == nil {
		entries = []story.SceneKey{}
	}
	return json.Marshal(historyJSON{Entries: entries, Cursor: h.Cursor()})
}

func (h *History) UnmarshalJSON(data []byte) error {
	var raw historyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Cursor < -1 || raw.Cursor > len(raw.Entries)-1 {
		return fmt.Errorf("history cursor %d out of range for %d entries", raw.Cursor, len(raw.Entries))
	}
	h.entries = raw.Entries
	h.pos = raw.Cursor + 1
	return nil
}
