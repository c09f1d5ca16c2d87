package story

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func testGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := New("Test", "a", []Scene{
		{Key: "a", Name: "Alpha", Text: "A.", Description: "picked a", Choices: []Choice{{Label: "to b", Next: "b"}, {Label: "to c", Next: "c"}}},
		{Key: "b", Text: "B.", Choices: []Choice{{Label: "to d", Next: "d"}}},
		{Key: "c", Text: "C.", Ending: "The C Ending"},
		{Key: "d", Text: "D."},
	})
	if err != nil {
		t.Fatalf("failed to build test graph: %v", err)
	}
	return g
}

func TestDefaultStory(t *testing.T) {
	g, err := Default()
	if err != nil {
		t.Fatalf("failed to load default story: %v", err)
	}
	if g.Title() != "Voyage Aeon" {
		t.Errorf("Expected title 'Voyage Aeon', got %q", g.Title())
	}
	if g.Start() != Start {
		t.Errorf("Expected start %q, got %q", Start, g.Start())
	}
	if g.MaxProgress() != 15 {
		t.Errorf("Expected max progress 15, got %d", g.MaxProgress())
	}
	if len(g.Unreachable()) != 0 {
		t.Errorf("Expected every scene to be reachable, got unreachable %v", g.Unreachable())
	}
	for _, key := range g.Terminals() {
		if g.EndingName(key) == UnknownEnding {
			t.Errorf("Expected ending %q to have a title", key)
		}
	}
	if got := g.EndingName(CrystalTechEnding); got != "Bio-Tech Symbiosis Pioneer" {
		t.Errorf("Expected 'Bio-Tech Symbiosis Pioneer', got %q", got)
	}
}

func TestIsTerminalMatchesChoiceCount(t *testing.T) {
	g, err := Default()
	if err != nil {
		t.Fatalf("failed to load default story: %v", err)
	}
	for _, key := range g.Keys() {
		s, ok := g.Scene(key)
		if !ok {
			t.Fatalf("Expected scene %q to exist", key)
		}
		if g.IsTerminal(key) != (len(s.Choices) == 0) {
			t.Errorf("scene %q: IsTerminal=%v with %d choices", key, g.IsTerminal(key), len(s.Choices))
		}
	}
	if g.IsTerminal("nowhere") {
		t.Error("Expected unknown key not to be terminal")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		start    SceneKey
		scenes   []Scene
		wantKind Kind
	}{
		{
			name:  "dangling target",
			start: "a",
			scenes: []Scene{
				{Key: "a", Text: "A.", Choices: []Choice{{Label: "go", Next: "missing"}}},
			},
			wantKind: DanglingTarget,
		},
		{
			name:     "missing start",
			start:    "zzz",
			scenes:   []Scene{{Key: "a", Text: "A."}},
			wantKind: UnknownScene,
		},
		{
			name:     "empty start",
			start:    "",
			scenes:   []Scene{{Key: "a", Text: "A."}},
			wantKind: EmptyKey,
		},
		{
			name:  "choice without label",
			start: "a",
			scenes: []Scene{
				{Key: "a", Text: "A.", Choices: []Choice{{Next: "b"}}},
				{Key: "b", Text: "B."},
			},
			wantKind: MalformedScene,
		},
		{
			name:     "blank text",
			start:    "a",
			scenes:   []Scene{{Key: "a", Text: "   \n  "}},
			wantKind: MalformedScene,
		},
		{
			name:  "self loop",
			start: "a",
			scenes: []Scene{
				{Key: "a", Text: "A.", Choices: []Choice{{Label: "again", Next: "a"}}},
			},
			wantKind: SelfTransition,
		},
		{
			name:  "continue with two choices",
			start: "a",
			scenes: []Scene{
				{Key: "a", Text: "A.", Continue: true, Choices: []Choice{{Label: "b", Next: "b"}, {Label: "c", Next: "c"}}},
				{Key: "b", Text: "B."},
				{Key: "c", Text: "C."},
			},
			wantKind: MalformedScene,
		},
		{
			name:  "duplicate key",
			start: "a",
			scenes: []Scene{
				{Key: "a", Text: "A."},
				{Key: "a", Text: "A again."},
			},
			wantKind: MalformedScene,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New("Broken", tt.start, tt.scenes)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if g != nil {
				t.Error("Expected nil graph on error")
			}
			if !IsKind(err, tt.wantKind) {
				t.Errorf("Expected kind %v, got %v", tt.wantKind, err)
			}
		})
	}
}

func TestSceneReturnsCopy(t *testing.T) {
	g := testGraph(t)
	s, _ := g.Scene("a")
	s.Choices[0].Next = "d"

	again, _ := g.Scene("a")
	if again.Choices[0].Next != "b" {
		t.Errorf("Expected graph to be unchanged, got next %q", again.Choices[0].Next)
	}
}

func TestLookupFallbacks(t *testing.T) {
	g := testGraph(t)

	if got := g.SceneName("a"); got != "Alpha" {
		t.Errorf("Expected 'Alpha', got %q", got)
	}
	if got := g.SceneName("b"); got != "b" {
		t.Errorf("Expected raw key for unnamed scene, got %q", got)
	}
	if got := g.SceneName("ghost"); got != "ghost" {
		t.Errorf("Expected raw key for missing scene, got %q", got)
	}
	if got := g.EndingName("c"); got != "The C Ending" {
		t.Errorf("Expected 'The C Ending', got %q", got)
	}
	if got := g.EndingName("d"); got != UnknownEnding {
		t.Errorf("Expected %q, got %q", UnknownEnding, got)
	}
	if got := g.ChoiceDescription("a"); got != "picked a" {
		t.Errorf("Expected 'picked a', got %q", got)
	}
	if got := g.ChoiceDescription("exploreEnding"); got != "exploreEnding" {
		t.Errorf("Expected raw key, got %q", got)
	}

	var nilGraph *Graph
	if got := nilGraph.EndingName("c"); got != UnknownEnding {
		t.Errorf("Expected %q from nil graph, got %q", UnknownEnding, got)
	}
}

func TestParseJSON(t *testing.T) {
	data := []byte(`{
		"title": "Tiny",
		"start": "a",
		"max_progress": 3,
		"scenes": {
			"a": {"text": "A.", "choices": [{"label": "on", "next": "b"}]},
			"b": {"text": "B.", "ending": "Done"}
		}
	}`)

	g, err := Parse(data, FormatJSON)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.MaxProgress() != 3 {
		t.Errorf("Expected max progress 3, got %d", g.MaxProgress())
	}
	s, ok := g.Scene("b")
	if !ok || s.Key != "b" {
		t.Errorf("Expected scene key to be filled from the map key, got %q", s.Key)
	}
	if !slices.Equal(g.Terminals(), []SceneKey{"b"}) {
		t.Errorf("Expected terminals [b], got %v", g.Terminals())
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	data := []byte("title: x\nstart: a\nscenes:\n  a:\n    text: A.\n    colour: red\n")
	if _, err := Parse(data, FormatYAML); err == nil {
		t.Error("Expected error for unknown field, got nil")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)
	if err := os.WriteFile(path, DefaultSource(), 0644); err != nil {
		t.Fatalf("failed to write story file: %v", err)
	}

	g, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.Has(CrystalTechEnding) {
		t.Error("Expected loaded story to contain crystalTechEnding")
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Expected error for missing file, got nil")
	}
}

func TestFormatOf(t *testing.T) {
	tests := map[string]Format{
		"story.json": FormatJSON,
		"STORY.JSON": FormatJSON,
		"story.yaml": FormatYAML,
		"story.yml":  FormatYAML,
		"story":      FormatYAML,
	}
	for path, want := range tests {
		if got := FormatOf(path); got != want {
			t.Errorf("FormatOf(%q): expected %q, got %q", path, want, got)
		}
	}
}
