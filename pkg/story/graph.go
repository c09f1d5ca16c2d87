package story

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// DefaultMaxProgress is the progress ceiling used when a story does not set one.
const DefaultMaxProgress = 15

// Graph is an immutable story: scenes keyed by SceneKey plus the key play
// starts from. A Graph is safe for concurrent use once built.
type Graph struct {
	title       string
	start       SceneKey
	maxProgress int
	scenes      map[SceneKey]Scene
}

// Option customizes a Graph during New.
type Option func(*Graph)

// WithMaxProgress sets the progress ceiling. Values below 1 keep the default.
func WithMaxProgress(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.maxProgress = n
		}
	}
}

// New builds a graph from scenes and checks it. Every scene must pass the
// schema check, start must exist and every choice must lead to a scene in
// the graph. All problems found are returned joined, each as a
// *ValidationError.
func New(title string, start SceneKey, scenes []Scene, opts ...Option) (*Graph, error) {
	g := &Graph{
		title:       title,
		start:       start,
		maxProgress: DefaultMaxProgress,
		scenes:      make(map[SceneKey]Scene, len(scenes)),
	}
	for _, opt := range opts {
		opt(g)
	}

	var errs []error
	for _, s := range scenes {
		if s.Key == "" {
			errs = append(errs, newError(EmptyKey, "", "scene has no key"))
			continue
		}
		if _, dup := g.scenes[s.Key]; dup {
			errs = append(errs, newError(MalformedScene, s.Key, "duplicate scene %q", s.Key))
			continue
		}
		s.Choices = slices.Clone(s.Choices)
		g.scenes[s.Key] = s
	}

	if start == "" {
		errs = append(errs, newError(EmptyKey, "", "story has no start scene"))
	} else if _, ok := g.scenes[start]; !ok {
		errs = append(errs, newError(UnknownScene, start, "start scene %q not found", start))
	}

	for _, key := range g.Keys() {
		s := g.scenes[key]
		if err := checkScene(s); err != nil {
			errs = append(errs, err)
		}
		for _, c := range s.Choices {
			if c.Next == key {
				errs = append(errs, newError(SelfTransition, key, "scene %q offers a choice back to itself", key))
				continue
			}
			if c.Next != "" && !g.Has(c.Next) {
				errs = append(errs, newError(DanglingTarget, key, "scene %q offers %q, which is not in the story", key, c.Next))
			}
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid story %q: %w", title, errors.Join(errs...))
	}
	return g, nil
}

// Title returns the story title.
func (g *Graph) Title() string { return g.title }

// Start returns the key play begins from.
func (g *Graph) Start() SceneKey { return g.start }

// MaxProgress returns the progress ceiling used for display.
func (g *Graph) MaxProgress() int { return g.maxProgress }

// Len returns the number of scenes.
func (g *Graph) Len() int { return len(g.scenes) }

// Has reports whether key names a scene in the graph.
func (g *Graph) Has(key SceneKey) bool {
	if g == nil {
		return false
	}
	_, ok := g.scenes[key]
	return ok
}

// Scene returns the scene stored under key. The returned value is a copy;
// changing it does not change the graph.
func (g *Graph) Scene(key SceneKey) (Scene, bool) {
	if g == nil {
		return Scene{}, false
	}
	s, ok := g.scenes[key]
	if !ok {
		return Scene{}, false
	}
	s.Choices = slices.Clone(s.Choices)
	return s, true
}

// IsTerminal reports whether key names a scene with no choices. Unknown keys
// are not terminal.
func (g *Graph) IsTerminal(key SceneKey) bool {
	if g == nil {
		return false
	}
	s, ok := g.scenes[key]
	return ok && s.IsTerminal()
}

// Keys returns every scene key in sorted order.
func (g *Graph) Keys() []SceneKey {
	if g == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(g.scenes))
}

// Terminals returns the keys of all ending scenes in sorted order.
func (g *Graph) Terminals() []SceneKey {
	var out []SceneKey
	for _, key := range g.Keys() {
		if g.scenes[key].IsTerminal() {
			out = append(out, key)
		}
	}
	return out
}

// SceneName returns the display name of key, or the raw key when the scene
// is missing or unnamed.
func (g *Graph) SceneName(key SceneKey) string {
	if s, ok := g.lookup(key); ok && s.Name != "" {
		return s.Name
	}
	return string(key)
}

// EndingName returns the ending title of key, or UnknownEnding when the
// scene is missing or has none.
func (g *Graph) EndingName(key SceneKey) string {
	if s, ok := g.lookup(key); ok && s.Ending != "" {
		return s.Ending
	}
	return UnknownEnding
}

// ChoiceDescription describes what choosing key means, or returns the raw
// key when no description is set.
func (g *Graph) ChoiceDescription(key SceneKey) string {
	if s, ok := g.lookup(key); ok && s.Description != "" {
		return s.Description
	}
	return string(key)
}

func (g *Graph) lookup(key SceneKey) (Scene, bool) {
	if g == nil {
		return Scene{}, false
	}
	s, ok := g.scenes[key]
	return s, ok
}
