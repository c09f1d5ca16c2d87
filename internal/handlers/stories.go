package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/voyage-engine/pkg/storage"
	"github.com/jwebster45206/voyage-engine/pkg/story"
)

type StoryHandler struct {
	log     *slog.Logger
	storage storage.Storage
}

func NewStoryHandler(log *slog.Logger, storage storage.Storage) *StoryHandler {
	return &StoryHandler{
		log:     log,
		storage: storage,
	}
}

// StoryDetail summarizes the shape of one story graph.
type StoryDetail struct {
	File        string            `json:"file"`
	Title       string            `json:"title"`
	Start       story.SceneKey    `json:"start"`
	MaxProgress int               `json:"max_progress"`
	Scenes      []story.SceneKey  `json:"scenes"`
	Endings     map[string]string `json:"endings"`
	Unreachable []story.SceneKey  `json:"unreachable"`
	Paths       int               `json:"paths"`
}

// ServeHTTP handles story library requests
// Routes:
// GET /v1/stories        - List stories as title -> file
// GET /v1/stories/{file} - Describe one story
func (h *StoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	filename := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/stories"), "/")
	if filename == "" {
		h.handleList(w, r)
		return
	}
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") {
		writeError(w, h.log, http.StatusBadRequest, "Invalid filename")
		return
	}
	h.handleGet(w, r, filename)
}

func (h *StoryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	stories, err := h.storage.ListStories(r.Context())
	if err != nil {
		h.log.Error("Failed to list stories", "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to list stories")
		return
	}
	writeJSON(w, h.log, http.StatusOK, stories)
}

func (h *StoryHandler) handleGet(w http.ResponseWriter, r *http.Request, filename string) {
	g, err := h.storage.GetStory(r.Context(), filename)
	if err != nil {
		writeStoryError(w, h.log, filename, err)
		return
	}

	endings := make(map[string]string)
	for _, key := range g.Terminals() {
		endings[string(key)] = g.EndingName(key)
	}
	unreachable := g.Unreachable()
	if unreachable == nil {
		unreachable = []story.SceneKey{}
	}

	writeJSON(w, h.log, http.StatusOK, StoryDetail{
		File:        filename,
		Title:       g.Title(),
		Start:       g.Start(),
		MaxProgress: g.MaxProgress(),
		Scenes:      g.Keys(),
		Endings:     endings,
		Unreachable: unreachable,
		Paths:       len(g.Paths(story.DefaultMaxDepth)),
	})
}
