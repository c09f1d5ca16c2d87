// Package engine is the boundary shells drive: user intents go in, views of
// the current playthrough come out. An Engine owns one session and is not
// safe for concurrent use.
package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/jwebster45206/voyage-engine/pkg/report"
	"github.com/jwebster45206/voyage-engine/pkg/state"
	"github.com/jwebster45206/voyage-engine/pkg/stats"
	"github.com/jwebster45206/voyage-engine/pkg/story"
)

// Engine plays one session of a story graph.
type Engine struct {
	graph   *story.Graph
	session *state.Session
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func sessionOptions(opts []Option) []state.Option {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.now == nil {
		return nil
	}
	return []state.Option{state.WithClock(o.now)}
}

// New creates an engine with a fresh, unstarted session.
func New(g *story.Graph, opts ...Option) *Engine {
	return &Engine{
		graph:   g,
		session: state.NewSession(g, sessionOptions(opts)...),
	}
}

// Restore wraps a previously saved session played on g.
func Restore(g *story.Graph, s *state.Session, opts ...Option) *Engine {
	s.Attach(g, sessionOptions(opts)...)
	return &Engine{graph: g, session: s}
}

// Graph returns the story being played.
func (e *Engine) Graph() *story.Graph { return e.graph }

// Session returns the engine's session. Mutating it directly bypasses the
// engine's atomicity.
func (e *Engine) Session() *state.Session { return e.session }

// Status returns the session lifecycle stage.
func (e *Engine) Status() state.Status { return e.session.Status }

// Start begins the playthrough.
func (e *Engine) Start() error {
	return e.atomically(func() error {
		if err := e.session.Start(); err != nil {
			return err
		}
		return e.follow()
	})
}

// Choose takes the choice leading to next and displays where it leads,
// following any continue scenes. Either the whole transition applies or
// the session is left as it was.
func (e *Engine) Choose(next story.SceneKey) error {
	return e.atomically(func() error {
		if err := e.session.MakeChoice(next); err != nil {
			return err
		}
		if err := e.session.DisplayScene(next, true); err != nil {
			return err
		}
		return e.follow()
	})
}

// follow moves through continue scenes without recording a decision.
func (e *Engine) follow() error {
	for steps := 0; e.session.Status == state.InProgress; steps++ {
		cur := e.session.CurrentScene
		scene, ok := e.graph.Scene(cur)
		if !ok || !scene.Continue {
			return nil
		}
		if steps >= e.graph.Len() {
			return fmt.Errorf("continue scenes loop at %q", cur)
		}
		next := scene.Choices[0].Next
		if err := e.graph.ValidateChoice(next, cur); err != nil {
			return err
		}
		if err := e.session.DisplayScene(next, true); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) atomically(fn func() error) error {
	saved := e.session.Clone()
	if err := fn(); err != nil {
		*e.session = *saved
		return err
	}
	return nil
}

// Stop ends the playthrough early.
func (e *Engine) Stop() error { return e.session.Stop() }

// Restart clears the playthrough so it can be started again.
func (e *Engine) Restart() { e.session.Restart() }

// Back re-displays the previous visited scene.
func (e *Engine) Back() (story.SceneKey, error) { return e.session.Back() }

// Forward re-displays the next visited scene.
func (e *Engine) Forward() (story.SceneKey, error) { return e.session.Forward() }

// SceneView is what a shell renders for the current scene.
type SceneView struct {
	Key          story.SceneKey `json:"key"`
	Name         string         `json:"name"`
	Text         string         `json:"text"`
	ChoiceLabels []string       `json:"choice_labels"`
	Choices      []story.Choice `json:"choices"`
	Terminal     bool           `json:"terminal"`
}

// CurrentScene returns the scene being shown. It is the zero view before
// the session starts.
func (e *Engine) CurrentScene() SceneView {
	key := e.session.CurrentScene
	scene, ok := e.graph.Scene(key)
	if !ok {
		return SceneView{Key: key, ChoiceLabels: []string{}, Choices: []story.Choice{}}
	}
	if scene.Choices == nil {
		scene.Choices = []story.Choice{}
	}
	return SceneView{
		Key:          key,
		Name:         e.graph.SceneName(key),
		Text:         scene.Text,
		ChoiceLabels: scene.Labels(),
		Choices:      scene.Choices,
		Terminal:     scene.IsTerminal(),
	}
}

// IsTerminal reports whether the current scene is an ending.
func (e *Engine) IsTerminal() bool {
	return e.graph.IsTerminal(e.session.CurrentScene)
}

// FinalEnding returns the recorded ending, if the session has one.
func (e *Engine) FinalEnding() (string, bool) {
	if e.session.FinalEnding == "" {
		return "", false
	}
	return e.session.FinalEnding, true
}

// Progress is a progress bar reading.
type Progress struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// Progress returns progress clamped to the story's maximum.
func (e *Engine) Progress() Progress {
	return Progress{Current: e.session.DisplayProgress(), Max: e.session.MaxProgress}
}

// Affordances says which navigation controls are enabled.
type Affordances struct {
	CanGoBack    bool `json:"can_go_back"`
	CanGoForward bool `json:"can_go_forward"`
}

// NavigationAffordances is re-evaluated on every call.
func (e *Engine) NavigationAffordances() Affordances {
	return Affordances{
		CanGoBack:    e.session.CanGoBack(),
		CanGoForward: e.session.CanGoForward(),
	}
}

// StatisticsSnapshot derives statistics from the current choice log.
func (e *Engine) StatisticsSnapshot() stats.Snapshot {
	return stats.Compute(stats.Input{
		Choices:     slices.Clone(e.session.Choices),
		FinalEnding: e.session.FinalEnding,
		Completed:   e.session.Completed(),
	})
}

// ChoiceLog returns a copy of the decision records.
func (e *Engine) ChoiceLog() []state.ChoiceDetail {
	return slices.Clone(e.session.ChoiceDetails)
}

// Timing holds the session timestamps.
type Timing struct {
	StartedAt *time.Time `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
}

// SessionTiming returns when the session started and ended.
func (e *Engine) SessionTiming() Timing {
	return Timing{StartedAt: e.session.StartedAt, EndedAt: e.session.EndedAt}
}

// Report composes the mission report for the session as it stands.
func (e *Engine) Report() report.Report {
	return report.Compose(e.session, e.graph)
}
