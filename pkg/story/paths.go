package story

import (
	"fmt"
	"slices"
)

// DefaultMaxDepth bounds path enumeration when no depth is given.
const DefaultMaxDepth = 64

// Path is a sequence of scene keys from the start scene onward.
type Path []SceneKey

// Paths enumerates every path from the start scene to an ending, breadth
// first, so shorter paths come first. A path never visits the same scene
// twice; branches that would loop or exceed maxDepth scenes are dropped.
// maxDepth below 1 uses DefaultMaxDepth.
func (g *Graph) Paths(maxDepth int) []Path {
	if g == nil || !g.Has(g.start) {
		return nil
	}
	if maxDepth < 1 {
		maxDepth = DefaultMaxDepth
	}

	var found []Path
	queue := []Path{{g.start}}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		tail := g.scenes[p[len(p)-1]]
		if tail.IsTerminal() {
			found = append(found, p)
			continue
		}
		if len(p) >= maxDepth {
			continue
		}
		for _, next := range tail.Targets() {
			if !g.Has(next) || slices.Contains(p, next) {
				continue
			}
			queue = append(queue, append(slices.Clip(p), next))
		}
	}
	return found
}

// Reachable returns every scene reachable from the start scene, in sorted
// order.
func (g *Graph) Reachable() []SceneKey {
	seen := g.reach()
	var out []SceneKey
	for _, key := range g.Keys() {
		if seen[key] {
			out = append(out, key)
		}
	}
	return out
}

// Unreachable returns the scenes no choice sequence from start can reach, in
// sorted order.
func (g *Graph) Unreachable() []SceneKey {
	seen := g.reach()
	var out []SceneKey
	for _, key := range g.Keys() {
		if !seen[key] {
			out = append(out, key)
		}
	}
	return out
}

func (g *Graph) reach() map[SceneKey]bool {
	seen := make(map[SceneKey]bool)
	if g == nil || !g.Has(g.start) {
		return seen
	}
	queue := []SceneKey{g.start}
	seen[g.start] = true
	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]
		for _, next := range g.scenes[key].Targets() {
			if seen[next] || !g.Has(next) {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return seen
}

// CheckPath verifies that path starts at the start scene and that each step
// is a choice offered by the scene before it.
func (g *Graph) CheckPath(path Path) error {
	if len(path) == 0 {
		return newError(EmptyKey, "", "path is empty")
	}
	if g == nil {
		return newError(SessionNotLoaded, "", "no story is loaded")
	}
	if path[0] != g.start {
		return newError(UnknownScene, path[0], "path starts at %q, story starts at %q", path[0], g.start)
	}
	for i := 0; i < len(path)-1; i++ {
		if err := g.ValidateChoice(path[i+1], path[i]); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}
