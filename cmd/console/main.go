package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/voyage-engine/internal/storage"
)

type ConsoleConfig struct {
	StoriesDir  string
	Story       string
	RevealDelay time.Duration
}

func main() {
	delay, err := time.ParseDuration(getEnv("REVEAL_DELAY", "400ms"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid REVEAL_DELAY: %v\n", err)
		os.Exit(1)
	}
	cfg := &ConsoleConfig{
		StoriesDir:  getEnv("STORIES_DIR", "./data/stories"),
		Story:       os.Getenv("STORY"),
		RevealDelay: delay,
	}

	// Logging would draw over the UI.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	library := storage.NewLibrary(cfg.StoriesDir, logger)

	p := tea.NewProgram(NewConsoleUI(cfg, library),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func listStories(library *storage.Library) ([]string, map[string]string, error) {
	storyMap, err := library.List(context.Background())
	if err != nil {
		return nil, nil, err
	}

	var names []string
	for name := range storyMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, storyMap, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
