package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/voyage-engine/pkg/state"
	"github.com/jwebster45206/voyage-engine/pkg/story"
)

// ErrStoryNotFound is returned when a story file is not in the library.
var ErrStoryNotFound = errors.New("story not found")

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID][]byte
	stories   map[string]*story.Graph
	pingError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		sessions: make(map[uuid.UUID][]byte),
		stories:  make(map[string]*story.Graph),
	}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockStorage) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveSession stores the session as JSON so loads see a decoded copy, the
// same as the Redis store.
func (m *MockStorage) SaveSession(ctx context.Context, s *state.Session) error {
	if s == nil {
		return errors.New("session cannot be nil")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = data
	return nil
}

// LoadSession mocks loading a session. The returned session is not
// attached to a story.
func (m *MockStorage) LoadSession(ctx context.Context, id uuid.UUID) (*state.Session, error) {
	m.mu.RLock()
	data, exists := m.sessions[id]
	m.mu.RUnlock()
	if !exists {
		return nil, nil
	}
	var s state.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// DeleteSession mocks deleting a session
func (m *MockStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// ListStories maps story titles to file names.
func (m *MockStorage) ListStories(ctx context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string)
	for filename, g := range m.stories {
		result[g.Title()] = filename
	}
	return result, nil
}

// GetStory mocks getting a story by file name
func (m *MockStorage) GetStory(ctx context.Context, filename string) (*story.Graph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, exists := m.stories[filename]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrStoryNotFound, filename)
	}
	return g, nil
}

// AddStory adds a story to the mock storage (for testing)
func (m *MockStorage) AddStory(filename string, g *story.Graph) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories[filename] = g
}
