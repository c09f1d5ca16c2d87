package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jwebster45206/voyage-engine/pkg/storage"
	"github.com/jwebster45206/voyage-engine/pkg/story"
)

// Library loads story files from a directory and caches the built graphs.
// The bundled default story is served under story.DefaultFile unless a
// file of that name exists on disk.
type Library struct {
	dir    string
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*story.Graph
}

// NewLibrary creates a library rooted at dir.
func NewLibrary(dir string, logger *slog.Logger) *Library {
	if dir == "" {
		dir = "./data/stories"
	}
	return &Library{
		dir:    dir,
		logger: logger,
		cache:  make(map[string]*story.Graph),
	}
}

// Dir returns the directory stories are read from.
func (l *Library) Dir() string {
	return l.dir
}

// IsStoryFile reports whether name has a story file extension.
func IsStoryFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// List maps story titles to file names. Files that fail to load are
// skipped with a warning.
func (l *Library) List(ctx context.Context) (map[string]string, error) {
	stories := make(map[string]string)

	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == l.dir && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return nil
		}
		if d.IsDir() {
			if path != l.dir {
				return fs.SkipDir
			}
			return nil
		}
		if !IsStoryFile(path) {
			return nil
		}

		filename := filepath.Base(path)
		g, err := l.Get(ctx, filename)
		if err != nil {
			l.logger.Warn("Failed to load story file", "path", path, "error", err)
			return nil
		}
		stories[g.Title()] = filename
		return nil
	})
	if err != nil {
		l.logger.Error("Failed to walk stories directory", "error", err)
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	if !containsFile(stories, story.DefaultFile) {
		g, err := l.Get(ctx, story.DefaultFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load default story: %w", err)
		}
		if _, taken := stories[g.Title()]; !taken {
			stories[g.Title()] = story.DefaultFile
		}
	}
	return stories, nil
}

func containsFile(stories map[string]string, filename string) bool {
	for _, f := range stories {
		if f == filename {
			return true
		}
	}
	return false
}

// Get returns the graph for filename, building and caching it on first use.
func (l *Library) Get(ctx context.Context, filename string) (*story.Graph, error) {
	if err := checkFilename(filename); err != nil {
		return nil, err
	}

	l.mu.RLock()
	g, ok := l.cache[filename]
	l.mu.RUnlock()
	if ok {
		return g, nil
	}

	g, err := l.load(filename)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[filename] = g
	l.mu.Unlock()
	return g, nil
}

func (l *Library) load(filename string) (*story.Graph, error) {
	path := filepath.Join(l.dir, filename)
	l.logger.Debug("Loading story", "filename", filename, "full_path", path)

	g, err := story.LoadFile(path)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if filename == story.DefaultFile {
		return story.Default()
	}
	return nil, fmt.Errorf("%w: %s", storage.ErrStoryNotFound, filename)
}

// Invalidate drops a cached graph so the next Get reloads it. An empty
// filename clears the whole cache.
func (l *Library) Invalidate(filename string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if filename == "" {
		clear(l.cache)
		return
	}
	delete(l.cache, filename)
}

func checkFilename(filename string) error {
	if filename == "" || filename != filepath.Base(filename) || filename == "." || filename == ".." {
		return fmt.Errorf("%w: invalid file name %q", storage.ErrStoryNotFound, filename)
	}
	if !IsStoryFile(filename) {
		return fmt.Errorf("%w: %q is not a story file", storage.ErrStoryNotFound, filename)
	}
	return nil
}
