package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/voyage-engine/internal/logger"
	"github.com/jwebster45206/voyage-engine/internal/metrics"
	"github.com/jwebster45206/voyage-engine/pkg/engine"
	"github.com/jwebster45206/voyage-engine/pkg/report"
	"github.com/jwebster45206/voyage-engine/pkg/state"
	"github.com/jwebster45206/voyage-engine/pkg/stats"
	"github.com/jwebster45206/voyage-engine/pkg/storage"
	"github.com/jwebster45206/voyage-engine/pkg/story"
)

// Publisher announces session changes to event stream subscribers.
type Publisher interface {
	PublishSceneDisplayed(ctx context.Context, sessionID uuid.UUID, scene story.SceneKey, progress int, replay bool) error
	PublishChoiceMade(ctx context.Context, sessionID uuid.UUID, detail state.ChoiceDetail) error
	PublishSessionEnded(ctx context.Context, sessionID uuid.UUID, ending string, terminated bool) error
	PublishSessionRestarted(ctx context.Context, sessionID uuid.UUID) error
}

type SessionHandler struct {
	storage      storage.Storage
	events       Publisher
	defaultStory string
	logger       *slog.Logger
}

// NewSessionHandler creates the session handler. events may be nil.
func NewSessionHandler(storage storage.Storage, events Publisher, defaultStory string, logger *slog.Logger) *SessionHandler {
	if defaultStory == "" {
		defaultStory = story.DefaultFile
	}
	return &SessionHandler{
		storage:      storage,
		events:       events,
		defaultStory: defaultStory,
		logger:       logger,
	}
}

// CreateSessionRequest defines the request body for starting a session
type CreateSessionRequest struct {
	Story string `json:"story,omitempty"` // Optional: story file, defaults to the configured story
}

// ChoiceRequest picks the choice leading to Next.
type ChoiceRequest struct {
	Next story.SceneKey `json:"next"`
}

// SessionResponse is the view of a session returned by every intent.
type SessionResponse struct {
	ID          uuid.UUID            `json:"id"`
	Story       string               `json:"story"`
	StoryTitle  string               `json:"story_title"`
	Status      state.Status         `json:"status"`
	Scene       engine.SceneView     `json:"scene"`
	Progress    engine.Progress      `json:"progress"`
	Navigation  engine.Affordances   `json:"navigation"`
	Stats       stats.Snapshot       `json:"stats"`
	FinalEnding string               `json:"final_ending,omitempty"`
	ChoiceLog   []state.ChoiceDetail `json:"choice_log"`
	Timing      engine.Timing        `json:"timing"`
}

// ReportResponse is the mission report plus its share blurb.
type ReportResponse struct {
	report.Report
	Share string `json:"share"`
}

func newSessionResponse(e *engine.Engine) SessionResponse {
	s := e.Session()
	ending, _ := e.FinalEnding()
	return SessionResponse{
		ID:          s.ID,
		Story:       s.Story,
		StoryTitle:  s.StoryTitle,
		Status:      e.Status(),
		Scene:       e.CurrentScene(),
		Progress:    e.Progress(),
		Navigation:  e.NavigationAffordances(),
		Stats:       e.StatisticsSnapshot(),
		FinalEnding: ending,
		ChoiceLog:   e.ChoiceLog(),
		Timing:      e.SessionTiming(),
	}
}

// ServeHTTP handles HTTP requests for sessions
// Routes:
// POST   /v1/sessions                - Create and start a session
// GET    /v1/sessions/{id}           - Read the session view
// DELETE /v1/sessions/{id}           - Delete a session
// POST   /v1/sessions/{id}/choice    - Make a choice
// POST   /v1/sessions/{id}/back      - Re-display the previous scene
// POST   /v1/sessions/{id}/forward   - Re-display the next scene
// POST   /v1/sessions/{id}/stop      - End the mission early
// POST   /v1/sessions/{id}/restart   - Clear and start again
// GET    /v1/sessions/{id}/report    - Mission report
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
		return
	}
	if len(parts) != 2 {
		writeError(w, h.logger, http.StatusNotFound, "Not found")
		return
	}

	action := parts[1]
	if action == "report" {
		if r.Method != http.MethodGet {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
			return
		}
		h.handleReport(w, r, id)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}
	switch action {
	case "choice":
		var req ChoiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
			return
		}
		h.applyIntent(w, r, id, action, func(e *engine.Engine) error { return e.Choose(req.Next) })
	case "back":
		h.applyIntent(w, r, id, action, func(e *engine.Engine) error {
			_, err := e.Back()
			return err
		})
	case "forward":
		h.applyIntent(w, r, id, action, func(e *engine.Engine) error {
			_, err := e.Forward()
			return err
		})
	case "stop":
		h.applyIntent(w, r, id, action, func(e *engine.Engine) error { return e.Stop() })
	case "restart":
		h.applyIntent(w, r, id, action, func(e *engine.Engine) error {
			e.Restart()
			return e.Start()
		})
	default:
		writeError(w, h.logger, http.StatusNotFound, "Unknown session action: "+action)
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Invalid create session request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	file := strings.TrimSpace(req.Story)
	if file == "" {
		file = h.defaultStory
	}

	ctx := r.Context()
	g, err := h.storage.GetStory(ctx, file)
	if err != nil {
		writeStoryError(w, h.logger, file, err)
		return
	}

	e := engine.New(g)
	e.Session().Story = file
	err = e.Start()
	metrics.ObserveIntent("start", err)
	if err != nil {
		writeIntentError(w, h.logger, err)
		return
	}
	metrics.SessionsStarted.Inc()

	if err := h.storage.SaveSession(ctx, e.Session()); err != nil {
		h.logger.Error("Failed to save session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save session")
		return
	}

	log := logger.WithSession(h.logger, e.Session().ID)
	log.Info("Session started", "story", file)
	h.announce(ctx, log, e, "start", 0, false)

	writeJSON(w, h.logger, http.StatusCreated, newSessionResponse(e))
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	e := h.loadEngine(w, r, id)
	if e == nil {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, newSessionResponse(e))
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.storage.DeleteSession(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete session", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) handleReport(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	e := h.loadEngine(w, r, id)
	if e == nil {
		return
	}
	rep := e.Report()
	writeJSON(w, h.logger, http.StatusOK, ReportResponse{Report: rep, Share: report.ShareText(rep)})
}

// loadEngine restores a stored session onto its story. It writes the error
// response and returns nil when that is not possible.
func (h *SessionHandler) loadEngine(w http.ResponseWriter, r *http.Request, id uuid.UUID) *engine.Engine {
	ctx := r.Context()
	s, err := h.storage.LoadSession(ctx, id)
	if err != nil {
		h.logger.Error("Failed to load session", "session_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return nil
	}
	if s == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return nil
	}

	file := s.Story
	if file == "" {
		file = h.defaultStory
	}
	g, err := h.storage.GetStory(ctx, file)
	if err != nil {
		writeStoryError(w, h.logger, file, err)
		return nil
	}
	return engine.Restore(g, s)
}

// applyIntent runs one player intent against a stored session and saves
// the result. Refused intents leave the stored session untouched.
func (h *SessionHandler) applyIntent(w http.ResponseWriter, r *http.Request, id uuid.UUID, action string, intent func(*engine.Engine) error) {
	e := h.loadEngine(w, r, id)
	if e == nil {
		return
	}
	log := logger.WithSession(h.logger, id)

	logged := len(e.ChoiceLog())
	wasEnded := e.Status() == state.Ended

	err := intent(e)
	metrics.ObserveIntent(action, err)
	if err != nil {
		log.Warn("Intent refused", "action", action, "error", err)
		writeIntentError(w, h.logger, err)
		return
	}

	ctx := r.Context()
	if err := h.storage.SaveSession(ctx, e.Session()); err != nil {
		log.Error("Failed to save session", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save session")
		return
	}

	h.announce(ctx, log, e, action, logged, wasEnded)
	writeJSON(w, h.logger, http.StatusOK, newSessionResponse(e))
}

// announce publishes what an applied intent changed. Publishing failures
// are logged; the intent has already been saved.
func (h *SessionHandler) announce(ctx context.Context, log *slog.Logger, e *engine.Engine, action string, logged int, wasEnded bool) {
	ended := e.Status() == state.Ended && !wasEnded
	if ended {
		metrics.ObserveEnded(e.Session().Terminated)
	}
	if h.events == nil {
		return
	}

	id := e.Session().ID
	if action == "restart" {
		if err := h.events.PublishSessionRestarted(ctx, id); err != nil {
			log.Warn("Failed to publish restart", "error", err)
		}
		logged = 0
	}
	for _, d := range e.ChoiceLog()[logged:] {
		if err := h.events.PublishChoiceMade(ctx, id, d); err != nil {
			log.Warn("Failed to publish choice", "error", err)
		}
	}
	if action != "stop" {
		replay := action == "back" || action == "forward"
		if err := h.events.PublishSceneDisplayed(ctx, id, e.Session().CurrentScene, e.Progress().Current, replay); err != nil {
			log.Warn("Failed to publish scene", "error", err)
		}
	}
	if ended {
		ending, _ := e.FinalEnding()
		if err := h.events.PublishSessionEnded(ctx, id, ending, e.Session().Terminated); err != nil {
			log.Warn("Failed to publish session end", "error", err)
		}
	}
}
