package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jwebster45206/voyage-engine/pkg/state"
	"github.com/jwebster45206/voyage-engine/pkg/story"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRefusalKind(t *testing.T) {
	g, err := story.Default()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"validation", g.ValidateChoice(story.Start, story.Start), story.SelfTransition.String()},
		{"wrapped validation", fmt.Errorf("choice: %w", g.ValidateChoice("nowhere", story.Start)), story.ChoiceNotOffered.String()},
		{"at start", state.ErrAtStart, "at_start"},
		{"at end", state.ErrAtEnd, "at_end"},
		{"not in progress", state.ErrNotInProgress, "not_in_progress"},
		{"already started", state.ErrAlreadyStarted, "already_started"},
		{"other", errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RefusalKind(tt.err))
		})
	}
}

func TestObserveIntent(t *testing.T) {
	before := testutil.ToFloat64(Transitions.WithLabelValues("back"))
	ObserveIntent("back", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(Transitions.WithLabelValues("back")))

	before = testutil.ToFloat64(Refusals.WithLabelValues("back", "at_start"))
	ObserveIntent("back", state.ErrAtStart)
	assert.Equal(t, before+1, testutil.ToFloat64(Refusals.WithLabelValues("back", "at_start")))
}

func TestObserveEnded(t *testing.T) {
	before := testutil.ToFloat64(SessionsEnded.WithLabelValues("terminated"))
	ObserveEnded(true)
	assert.Equal(t, before+1, testutil.ToFloat64(SessionsEnded.WithLabelValues("terminated")))
}
