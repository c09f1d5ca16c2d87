package main

import (
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/voyage-engine/internal/storage"
	"github.com/jwebster45206/voyage-engine/pkg/display"
	"github.com/jwebster45206/voyage-engine/pkg/state"
	"github.com/jwebster45206/voyage-engine/pkg/story"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUI(t *testing.T) ConsoleUI {
	t.Helper()
	library := storage.NewLibrary(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	cfg := &ConsoleConfig{Story: story.DefaultFile, RevealDelay: time.Millisecond}
	return NewConsoleUI(cfg, library)
}

func update(t *testing.T, m ConsoleUI, msg tea.Msg) (ConsoleUI, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	ui, ok := next.(ConsoleUI)
	require.True(t, ok)
	return ui, cmd
}

func press(t *testing.T, m ConsoleUI, keys string) ConsoleUI {
	t.Helper()
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	m, _ = update(t, m, msg)
	return m
}

// started loads the bundled story the way Init would.
func started(t *testing.T) ConsoleUI {
	t.Helper()
	m := newTestUI(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	msg := m.loadStory(story.DefaultFile)()
	m, cmd := update(t, m, msg)
	require.NoError(t, m.err)
	require.NotNil(t, cmd)
	return m
}

func TestListStories(t *testing.T) {
	m := newTestUI(t)
	names, storyMap, err := listStories(m.library)
	require.NoError(t, err)
	assert.Equal(t, []string{"Voyage Aeon"}, names)
	assert.Equal(t, story.DefaultFile, storyMap["Voyage Aeon"])
}

func TestConsoleUI_StoryLoaded(t *testing.T) {
	m := started(t)

	assert.False(t, m.showStoryModal)
	assert.True(t, m.ready)
	assert.True(t, m.revealing)
	assert.Equal(t, state.InProgress, m.engine.Status())
	assert.Equal(t, story.DefaultFile, m.engine.Session().Story)
	require.Len(t, m.revealed, 1)
	assert.Equal(t, display.Paragraph, m.revealed[0].Kind)
}

func TestConsoleUI_RevealTicks(t *testing.T) {
	m := started(t)

	stale, _ := update(t, m, revealTickMsg{gen: m.revealGen - 1})
	assert.Len(t, stale.revealed, 1)

	m, cmd := update(t, m, revealTickMsg{gen: m.revealGen})
	assert.Len(t, m.revealed, 2)
	assert.NotNil(t, cmd)
}

func TestConsoleUI_ChooseAndNavigate(t *testing.T) {
	m := started(t)

	// Digits are ignored while the scene is still being typed out.
	m = press(t, m, "1")
	assert.Equal(t, story.Start, m.engine.CurrentScene().Key)

	m = press(t, m, "enter")
	assert.False(t, m.revealing)
	assert.Equal(t, display.Choice, m.revealed[len(m.revealed)-1].Kind)

	m = press(t, m, "1")
	assert.Equal(t, story.Investigate, m.engine.CurrentScene().Key)
	assert.True(t, m.revealing)

	m = press(t, m, "b")
	assert.Equal(t, story.Start, m.engine.CurrentScene().Key)

	m = press(t, m, "f")
	assert.Equal(t, story.Investigate, m.engine.CurrentScene().Key)

	m = press(t, m, "f")
	assert.ErrorIs(t, m.err, state.ErrAtEnd)
}

func TestConsoleUI_PlayToReport(t *testing.T) {
	m := started(t)
	for _, next := range []story.SceneKey{story.Investigate, story.Board, story.CrystalStudy} {
		require.NoError(t, m.engine.Choose(next))
	}
	m.startReveal()
	m.finishReveal()
	assert.Equal(t, display.Ending, m.revealed[len(m.revealed)-1].Kind)

	m = press(t, m, "enter")
	assert.True(t, m.showReport)
	assert.Contains(t, renderReport(m.engine.Report(), 60), "Final Outcome: Bio-Tech Symbiosis Pioneer")

	m = press(t, m, "r")
	assert.False(t, m.showReport)
	assert.Equal(t, story.Start, m.engine.CurrentScene().Key)
	assert.Empty(t, m.engine.ChoiceLog())
}

func TestConsoleUI_Stop(t *testing.T) {
	m := started(t)
	m = press(t, m, "s")
	assert.True(t, m.showReport)
	assert.Equal(t, state.Ended, m.engine.Status())

	ending, ok := m.engine.FinalEnding()
	assert.True(t, ok)
	assert.Equal(t, state.TerminatedEnding, ending)
}

func TestConsoleUI_QuitModal(t *testing.T) {
	m := started(t)
	m = press(t, m, "q")
	assert.True(t, m.showQuitModal)

	m = press(t, m, "n")
	assert.False(t, m.showQuitModal)

	m = press(t, m, "q")
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRenderProgressBar(t *testing.T) {
	assert.Equal(t, separatorStyle.Render("████░░░░"), renderProgressBar(4, 8, 8))
	assert.Equal(t, separatorStyle.Render("████████"), renderProgressBar(20, 8, 8))
	assert.Equal(t, separatorStyle.Render("░░░░"), renderProgressBar(1, 0, 4))
}
