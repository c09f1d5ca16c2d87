package state

import (
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/voyage-engine/pkg/story"
)

// TerminatedEnding is the final ending recorded when the player stops early.
const TerminatedEnding = "Mission Terminated by User"

var (
	ErrNotInProgress  = errors.New("session is not in progress")
	ErrAlreadyStarted = errors.New("session has already started")
)

// Status is the lifecycle stage of a session.
type Status string

const (
	NotStarted Status = "not_started"
	InProgress Status = "in_progress"
	Ended      Status = "ended"
)

// ChoiceDetail is the audit record of one decision.
type ChoiceDetail struct {
	SceneKey    story.SceneKey `json:"scene_key"`    // Scene the choice was made in
	SceneName   string         `json:"scene_name"`   // Display name of that scene
	ChoiceLabel string         `json:"choice_label"` // Label the player picked
	Description string         `json:"description"`  // What the choice means
	NextScene   story.SceneKey `json:"next_scene"`   // Where it led
}

// Session is one playthrough of a story graph. It is not safe for
// concurrent use; callers own it.
type Session struct {
	ID            uuid.UUID        `json:"id"`
	Story         string           `json:"story,omitempty"` // Story file the session plays
	StoryTitle    string           `json:"story_title"`
	Status        Status           `json:"status"`
	CurrentScene  story.SceneKey   `json:"current_scene,omitempty"`
	Choices       []story.SceneKey `json:"choices"`
	ChoiceDetails []ChoiceDetail   `json:"choice_details"`
	Progress      int              `json:"progress"`
	MaxProgress   int              `json:"max_progress"`
	FinalEnding   string           `json:"final_ending,omitempty"`
	Terminated    bool             `json:"terminated,omitempty"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	EndedAt       *time.Time       `json:"ended_at,omitempty"`
	History       History          `json:"history"`

	graph *story.Graph
	now   func() time.Time
}

// Option configures a session.
type Option func(*Session)

// WithClock replaces time.Now for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSession creates a session that has not started yet.
func NewSession(g *story.Graph, opts ...Option) *Session {
	s := &Session{
		ID:            uuid.New(),
		Status:        NotStarted,
		Choices:       []story.SceneKey{},
		ChoiceDetails: []ChoiceDetail{},
	}
	s.Attach(g, opts...)
	return s
}

// Attach binds a decoded session to the graph it was played on.
func (s *Session) Attach(g *story.Graph, opts ...Option) {
	s.graph = g
	if s.now == nil {
		s.now = time.Now
	}
	if g != nil {
		s.StoryTitle = g.Title()
		s.MaxProgress = g.MaxProgress()
	}
	for _, opt := range opts {
		opt(s)
	}
}

// Graph returns the story the session plays.
func (s *Session) Graph() *story.Graph { return s.graph }

// Start begins play at the story's start scene. Progress starts at 1.
func (s *Session) Start() error {
	if s.Status != NotStarted {
		return ErrAlreadyStarted
	}
	if s.graph == nil {
		return s.graph.ValidateScene(story.Start)
	}
	start := s.graph.Start()
	if err := s.graph.ValidateScene(start); err != nil {
		return err
	}

	now := s.now()
	s.Choices = []story.SceneKey{}
	s.ChoiceDetails = []ChoiceDetail{}
	s.Progress = 1
	s.FinalEnding = ""
	s.Terminated = false
	s.StartedAt = &now
	s.EndedAt = nil
	s.History.Reset()
	s.Status = InProgress
	return s.DisplayScene(start, true)
}

// MakeChoice records a move from the current scene to next. It does not
// display next or detect endings; DisplayScene does both. On error the
// session is unchanged.
func (s *Session) MakeChoice(next story.SceneKey) error {
	if s.Status != InProgress {
		return ErrNotInProgress
	}
	if err := s.graph.ValidateChoice(next, s.CurrentScene); err != nil {
		return err
	}

	from := s.CurrentScene
	scene, _ := s.graph.Scene(from)
	choice, _ := scene.Offers(next)

	s.Choices = append(s.Choices, next)
	s.ChoiceDetails = append(s.ChoiceDetails, ChoiceDetail{
		SceneKey:    from,
		SceneName:   s.graph.SceneName(from),
		ChoiceLabel: choice.Label,
		Description: s.graph.ChoiceDescription(next),
		NextScene:   next,
	})
	s.Progress++
	s.CurrentScene = next
	return nil
}

// DisplayScene makes key the current scene, optionally pushing it onto the
// navigation history. Displaying an ending records the final ending and
// ends the session. On error the session is unchanged.
func (s *Session) DisplayScene(key story.SceneKey, addToHistory bool) error {
	if s.Status != InProgress {
		return ErrNotInProgress
	}
	if err := s.graph.ValidateScene(key); err != nil {
		return err
	}

	s.CurrentScene = key
	if addToHistory {
		s.History.Append(key)
	}
	if s.graph.IsTerminal(key) {
		s.FinalEnding = s.graph.EndingName(key)
		s.end()
	}
	return nil
}

// Stop ends the session early at the player's request.
func (s *Session) Stop() error {
	if s.Status != InProgress {
		return ErrNotInProgress
	}
	s.FinalEnding = TerminatedEnding
	s.Terminated = true
	s.end()
	return nil
}

func (s *Session) end() {
	now := s.now()
	s.EndedAt = &now
	s.Status = Ended
}

// Restart clears all play state and navigation history. The session keeps
// its ID and graph and can be started again.
func (s *Session) Restart() {
	s.Status = NotStarted
	s.CurrentScene = ""
	s.Choices = []story.SceneKey{}
	s.ChoiceDetails = []ChoiceDetail{}
	s.Progress = 0
	s.FinalEnding = ""
	s.Terminated = false
	s.StartedAt = nil
	s.EndedAt = nil
	s.History.Reset()
}

// Back re-displays the previously visited scene without rewriting history.
func (s *Session) Back() (story.SceneKey, error) {
	return s.navigate(s.History.Back, s.History.Forward)
}

// Forward re-displays the next visited scene without rewriting history.
func (s *Session) Forward() (story.SceneKey, error) {
	return s.navigate(s.History.Forward, s.History.Back)
}

func (s *Session) navigate(move, undo func() (story.SceneKey, error)) (story.SceneKey, error) {
	if s.Status != InProgress {
		return "", ErrNotInProgress
	}
	key, err := move()
	if err != nil {
		return "", err
	}
	if err := s.DisplayScene(key, false); err != nil {
		_, _ = undo()
		return "", err
	}
	return key, nil
}

// CanGoBack reports whether back navigation is offered.
func (s *Session) CanGoBack() bool {
	return s.Status == InProgress && s.History.CanGoBack()
}

// CanGoForward reports whether forward replay is offered.
func (s *Session) CanGoForward() bool {
	return s.Status == InProgress && s.History.CanGoForward(s.graph.IsTerminal)
}

// Completed reports whether the session ended by reaching an ending scene.
func (s *Session) Completed() bool {
	return s.Status == Ended && !s.Terminated
}

// DisplayProgress returns progress clamped to MaxProgress.
func (s *Session) DisplayProgress() int {
	if s.MaxProgress > 0 && s.Progress > s.MaxProgress {
		return s.MaxProgress
	}
	return s.Progress
}

// Clone returns a deep copy bound to the same graph and clock.
func (s *Session) Clone() *Session {
	c := *s
	c.Choices = slices.Clone(s.Choices)
	c.ChoiceDetails = slices.Clone(s.ChoiceDetails)
	c.History.entries = slices.Clone(s.History.entries)
	if s.StartedAt != nil {
		t := *s.StartedAt
		c.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		c.EndedAt = &t
	}
	return &c
}
