// Package metrics holds the Prometheus collectors for the API.
package metrics

import (
	"errors"

	"github.com/jwebster45206/voyage-engine/pkg/state"
	"github.com/jwebster45206/voyage-engine/pkg/story"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transitions counts applied player intents.
	// Labels: action (start, choice, back, forward, stop, restart)
	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voyage",
		Subsystem: "session",
		Name:      "transitions_total",
		Help:      "Total session transitions applied",
	}, []string{"action"})

	// Refusals counts refused player intents.
	// Labels: action, kind (validation kind, at_start, at_end, not_in_progress, other)
	Refusals = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voyage",
		Subsystem: "session",
		Name:      "refusals_total",
		Help:      "Total session transitions refused",
	}, []string{"action", "kind"})

	// SessionsStarted counts sessions created.
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voyage",
		Subsystem: "session",
		Name:      "started_total",
		Help:      "Total sessions started",
	})

	// SessionsEnded counts sessions that reached an ending or were stopped.
	// Labels: outcome (completed, terminated)
	SessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voyage",
		Subsystem: "session",
		Name:      "ended_total",
		Help:      "Total sessions ended",
	}, []string{"outcome"})

	// StoryReloads counts story cache invalidations from the file watcher.
	StoryReloads = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voyage",
		Subsystem: "stories",
		Name:      "reloads_total",
		Help:      "Total story files invalidated after changing on disk",
	})
)

// RefusalKind maps an intent error to a low-cardinality label.
func RefusalKind(err error) string {
	if kind, ok := story.KindOf(err); ok {
		return kind.String()
	}
	switch {
	case errors.Is(err, state.ErrAtStart):
		return "at_start"
	case errors.Is(err, state.ErrAtEnd):
		return "at_end"
	case errors.Is(err, state.ErrNotInProgress):
		return "not_in_progress"
	case errors.Is(err, state.ErrAlreadyStarted):
		return "already_started"
	}
	return "other"
}

// ObserveIntent records the outcome of one player intent.
func ObserveIntent(action string, err error) {
	if err != nil {
		Refusals.WithLabelValues(action, RefusalKind(err)).Inc()
		return
	}
	Transitions.WithLabelValues(action).Inc()
}

// ObserveEnded records a session reaching its end.
func ObserveEnded(terminated bool) {
	outcome := "completed"
	if terminated {
		outcome = "terminated"
	}
	SessionsEnded.WithLabelValues(outcome).Inc()
}
