package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/voyage-engine/internal/handlers"
)

// apiError is a non-2xx response from the API.
type apiError struct {
	StatusCode int
	Body       handlers.ErrorResponse
}

func (e *apiError) Error() string {
	if e.Body.Kind != "" {
		return fmt.Sprintf("API returned %d (%s): %s", e.StatusCode, e.Body.Kind, e.Body.Error)
	}
	return fmt.Sprintf("API returned %d: %s", e.StatusCode, e.Body.Error)
}

// CreateSession starts a session on storyFile. An empty storyFile uses the
// server's default story.
func CreateSession(ctx context.Context, client *http.Client, baseURL, storyFile string) (*handlers.SessionResponse, error) {
	var out handlers.SessionResponse
	err := doJSON(ctx, client, http.MethodPost, baseURL+"/v1/sessions", handlers.CreateSessionRequest{Story: storyFile}, http.StatusCreated, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &out, nil
}

// GetSession fetches the current view of a session.
func GetSession(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) (*handlers.SessionResponse, error) {
	var out handlers.SessionResponse
	if err := doJSON(ctx, client, http.MethodGet, sessionURL(baseURL, id, ""), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PostAction sends one intent. body may be nil.
func PostAction(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID, action string, body any) (*handlers.SessionResponse, error) {
	var out handlers.SessionResponse
	if err := doJSON(ctx, client, http.MethodPost, sessionURL(baseURL, id, action), body, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReport fetches the mission report of a session.
func GetReport(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) (*handlers.ReportResponse, error) {
	var out handlers.ReportResponse
	if err := doJSON(ctx, client, http.MethodGet, sessionURL(baseURL, id, "report"), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSession removes a session. Cleanup only; a failure is not fatal.
func DeleteSession(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) error {
	return doJSON(ctx, client, http.MethodDelete, sessionURL(baseURL, id, ""), nil, http.StatusNoContent, nil)
}

func sessionURL(baseURL string, id uuid.UUID, action string) string {
	url := baseURL + "/v1/sessions/" + id.String()
	if action != "" {
		url += "/" + action
	}
	return url
}

func doJSON(ctx context.Context, client *http.Client, method, url string, body any, want int, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		apiErr := &apiError{StatusCode: resp.StatusCode}
		data, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(data, &apiErr.Body); err != nil {
			apiErr.Body.Error = string(data)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
