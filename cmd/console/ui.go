package main

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/voyage-engine/internal/storage"
	"github.com/jwebster45206/voyage-engine/pkg/display"
	"github.com/jwebster45206/voyage-engine/pkg/engine"
	"github.com/jwebster45206/voyage-engine/pkg/report"
	"github.com/jwebster45206/voyage-engine/pkg/state"
	"github.com/jwebster45206/voyage-engine/pkg/story"
	"github.com/muesli/reflow/wordwrap"
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Choose  key.Binding
	Back    key.Binding
	Forward key.Binding
	Stop    key.Binding
	Restart key.Binding
	Copy    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "previous choice")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "next choice")),
	Choose:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "choose / skip")),
	Back:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "back")),
	Forward: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "forward")),
	Stop:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop mission")),
	Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
	Copy:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy report")),
	Quit:    key.NewBinding(key.WithKeys("ctrl+c", "esc", "q"), key.WithHelp("q", "quit")),
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	library      *storage.Library
	engine       *engine.Engine
	storyFile    string
	storyVp      viewport.Model
	metaViewport viewport.Model
	ready        bool
	width        int
	height       int
	err          error
	status       string

	// Story selection state
	showStoryModal bool
	stories        []string
	storyMap       map[string]string
	selectedStory  int
	loadingStories bool

	// Quit confirmation state
	showQuitModal bool

	// Typewriter state: events are pulled one per tick
	revealed   []display.Event
	next       func() (display.Event, bool)
	stopReveal func()
	revealing  bool
	revealGen  int
	selected   int
	showReport bool
}

type storiesLoadedMsg struct {
	stories  []string
	storyMap map[string]string
	err      error
}

type storyLoadedMsg struct {
	file  string
	graph *story.Graph
	err   error
}

type revealTickMsg struct {
	gen int
}

var (
	storyPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	sceneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	endingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // green
			Bold(true)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	selectedChoiceStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("39")).
				Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, library *storage.Library) ConsoleUI {
	storyVp := viewport.New(50, 20)
	storyVp.MouseWheelEnabled = true

	return ConsoleUI{
		config:         cfg,
		library:        library,
		storyVp:        storyVp,
		metaViewport:   viewport.New(20, 20),
		showStoryModal: true,
		loadingStories: true,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.config.Story != "" {
		return m.loadStory(m.config.Story)
	}
	return m.loadStories()
}

func (m ConsoleUI) loadStories() tea.Cmd {
	return func() tea.Msg {
		names, storyMap, err := listStories(m.library)
		return storiesLoadedMsg{names, storyMap, err}
	}
}

func (m ConsoleUI) loadStory(file string) tea.Cmd {
	return func() tea.Msg {
		g, err := m.library.Get(context.Background(), file)
		return storyLoadedMsg{file: file, graph: g, err: err}
	}
}

func revealTick(gen int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return revealTickMsg{gen: gen}
	})
}

// startReveal begins typing out the current scene.
func (m *ConsoleUI) startReveal() tea.Cmd {
	if m.stopReveal != nil {
		m.stopReveal()
	}
	view := m.engine.CurrentScene()
	scene, _ := m.engine.Graph().Scene(view.Key)
	ending, _ := m.engine.FinalEnding()

	var seq iter.Seq[display.Event] = display.Scene(scene, ending)
	m.next, m.stopReveal = iter.Pull(seq)
	m.revealed = nil
	m.revealing = true
	m.selected = 0
	m.revealGen++

	m.advanceReveal()
	m.writeStoryContent()
	return revealTick(m.revealGen, m.config.RevealDelay)
}

// advanceReveal shows the next event. It reports false once the scene is
// fully shown.
func (m *ConsoleUI) advanceReveal() bool {
	if !m.revealing {
		return false
	}
	ev, ok := m.next()
	if !ok {
		m.revealing = false
		m.stopReveal()
		return false
	}
	m.revealed = append(m.revealed, ev)
	return true
}

func (m *ConsoleUI) finishReveal() {
	for m.advanceReveal() {
	}
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showStoryModal {
		return m.updateStoryModal(msg)
	}

	var vpCmd tea.Cmd

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.storyVp, vpCmd = m.storyVp.Update(msg)
		return m, vpCmd

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.writeStoryContent()

	case revealTickMsg:
		if msg.gen != m.revealGen || !m.revealing {
			return m, nil
		}
		m.advanceReveal()
		m.writeStoryContent()
		if m.revealing {
			return m, revealTick(m.revealGen, m.config.RevealDelay)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	m.storyVp, vpCmd = m.storyVp.Update(msg)
	return m, vpCmd
}

func (m ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	m.err = nil

	switch {
	case key.Matches(msg, keys.Quit):
		m.showQuitModal = true
		return m, nil

	case key.Matches(msg, keys.Restart):
		m.engine.Restart()
		m.showReport = false
		if err := m.engine.Start(); err != nil {
			m.err = err
			return m, nil
		}
		cmd := m.startReveal()
		return m, cmd

	case m.showReport:
		if key.Matches(msg, keys.Copy) {
			m.copyReport()
		}
		m.writeStoryContent()
		return m, nil

	case key.Matches(msg, keys.Choose) && m.revealing:
		m.finishReveal()

	case key.Matches(msg, keys.Choose) && m.engine.IsTerminal():
		m.showReport = true

	case key.Matches(msg, keys.Choose):
		return m.choose(m.selected)

	case key.Matches(msg, keys.Up):
		if m.selected > 0 {
			m.selected--
		}

	case key.Matches(msg, keys.Down):
		if m.selected < len(m.engine.CurrentScene().Choices)-1 {
			m.selected++
		}

	case key.Matches(msg, keys.Back):
		if _, err := m.engine.Back(); err != nil {
			m.err = err
			break
		}
		cmd := m.startReveal()
		return m, cmd

	case key.Matches(msg, keys.Forward):
		if _, err := m.engine.Forward(); err != nil {
			m.err = err
			break
		}
		cmd := m.startReveal()
		return m, cmd

	case key.Matches(msg, keys.Stop):
		if err := m.engine.Stop(); err != nil {
			m.err = err
			break
		}
		m.showReport = true

	default:
		if n := msg.String(); len(n) == 1 && n[0] >= '1' && n[0] <= '9' && !m.revealing {
			return m.choose(int(n[0] - '1'))
		}
	}

	m.writeStoryContent()
	return m, nil
}

func (m ConsoleUI) choose(index int) (tea.Model, tea.Cmd) {
	choices := m.engine.CurrentScene().Choices
	if index < 0 || index >= len(choices) {
		return m, nil
	}
	if err := m.engine.Choose(choices[index].Next); err != nil {
		m.err = err
		m.writeStoryContent()
		return m, nil
	}
	cmd := m.startReveal()
	return m, cmd
}

func (m *ConsoleUI) copyReport() {
	text := report.ShareText(m.engine.Report())
	if err := clipboard.WriteAll(text); err != nil {
		m.err = fmt.Errorf("copy failed: %w", err)
		return
	}
	m.status = "Mission report copied to clipboard"
}

func (m *ConsoleUI) resize(width, height int) {
	m.width = width
	m.height = height

	storyWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - storyWidth - 6

	m.storyVp.Width = storyWidth - 2
	m.storyVp.Height = m.height - 5
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
}

func (m *ConsoleUI) writeStoryContent() {
	if m.engine == nil {
		return
	}
	width := max(m.storyVp.Width-6, 20)

	var content strings.Builder
	content.WriteString(titleStyle.Render(strings.ToUpper(m.engine.Graph().Title())) + "\n\n")

	if m.showReport {
		content.WriteString(renderReport(m.engine.Report(), width))
	} else {
		content.WriteString(m.renderScene(width))
	}

	if m.err != nil {
		content.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	if m.status != "" {
		content.WriteString("\n" + loadingStyle.Render(m.status) + "\n")
	}

	m.storyVp.SetContent(content.String())
	m.storyVp.GotoBottom()
	m.metaViewport.SetContent(writeMetadata(m.engine, m.storyFile))
}

func (m ConsoleUI) renderScene(width int) string {
	var content strings.Builder
	view := m.engine.CurrentScene()
	if view.Name != "" {
		content.WriteString(sceneStyle.Render(view.Name) + "\n")
	}
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	for _, ev := range m.revealed {
		switch ev.Kind {
		case display.Paragraph:
			content.WriteString(wordwrap.String(ev.Text, width) + "\n\n")
		case display.Choice:
			label := fmt.Sprintf("%d. %s", ev.Index+1, ev.Text)
			if !m.revealing && ev.Index == m.selected {
				content.WriteString(selectedChoiceStyle.Render("▶ "+label) + "\n")
			} else {
				content.WriteString(choiceStyle.Render("  "+label) + "\n")
			}
		case display.Ending:
			content.WriteString(endingStyle.Render("MISSION COMPLETE: "+ev.Text) + "\n\n")
			content.WriteString(promptStyle.Render("Press Enter for your mission report") + "\n")
		}
	}
	if m.revealing {
		content.WriteString(promptStyle.Render("…") + "\n")
	}
	return content.String()
}

func renderReport(r report.Report, width int) string {
	var content strings.Builder
	content.WriteString(sceneStyle.Render(r.Heading) + "\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	content.WriteString(endingStyle.Render("Final Outcome: "+r.Outcome) + "\n")
	if d := r.Duration(); d > 0 {
		content.WriteString(fmt.Sprintf("Mission Duration: %s\n", d.Round(time.Second)))
	}
	content.WriteString(fmt.Sprintf("Mission Progress: %d/%d\n\n", r.Progress, r.MaxProgress))

	content.WriteString(titleStyle.Render("Summary") + "\n")
	content.WriteString(wordwrap.String(r.Summary, width) + "\n\n")

	if len(r.Decisions) > 0 {
		content.WriteString(titleStyle.Render("Decision Walkthrough") + "\n")
		for _, d := range r.Decisions {
			content.WriteString(fmt.Sprintf("%d. %s: %s\n", d.Number, d.SceneName, d.Choice))
			content.WriteString(promptStyle.Render(wordwrap.String("   "+d.Description+" → "+d.LedTo, width)) + "\n")
		}
		content.WriteString("\n")
	}

	content.WriteString(titleStyle.Render("Statistics") + "\n")
	content.WriteString(fmt.Sprintf("Path Type: %s\n", r.Stats.PathArchetype))
	content.WriteString(fmt.Sprintf("Risk Level: %s\n", r.Stats.RiskLevel.Label()))
	content.WriteString(fmt.Sprintf("Exploration Style: %s\n\n", r.Stats.ExplorationStyle))

	if len(r.Stats.Achievements) > 0 {
		content.WriteString(titleStyle.Render("Achievements") + "\n")
		for _, a := range r.Stats.Achievements {
			content.WriteString(fmt.Sprintf("• %s - %s\n", a.Title, a.Description))
		}
		content.WriteString("\n")
	}

	content.WriteString(titleStyle.Render("Assessment") + "\n")
	content.WriteString(wordwrap.String(r.Assessment, width) + "\n\n")
	content.WriteString(promptStyle.Render("c: copy report  r: new mission  q: quit") + "\n")
	return content.String()
}

func writeMetadata(e *engine.Engine, storyFile string) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("MISSION") + "\n\n")

	content.WriteString("Session:\n")
	content.WriteString(e.Session().ID.String()[:8] + "...\n\n")

	content.WriteString("Story:\n")
	content.WriteString(storyFile + "\n\n")

	p := e.Progress()
	content.WriteString("Progress:\n")
	content.WriteString(renderProgressBar(p.Current, p.Max, 16) + fmt.Sprintf(" %d/%d\n\n", p.Current, p.Max))

	snap := e.StatisticsSnapshot()
	content.WriteString("Path:\n" + string(snap.PathArchetype) + "\n\n")
	content.WriteString("Risk:\n" + snap.RiskLevel.String() + "\n\n")
	content.WriteString(fmt.Sprintf("Decisions:\n%d\n\n", snap.Decisions))

	nav := e.NavigationAffordances()
	content.WriteString("Commands:\n")
	content.WriteString("• ↑/↓ 1-9: Choose\n")
	if nav.CanGoBack {
		content.WriteString("• b: Back\n")
	}
	if nav.CanGoForward {
		content.WriteString("• f: Forward\n")
	}
	if e.Status() == state.InProgress {
		content.WriteString("• s: Stop mission\n")
	}
	content.WriteString("• r: Restart\n")
	content.WriteString("• q: Quit\n")

	return content.String()
}

// renderProgressBar draws current/max as a fixed-width bar.
func renderProgressBar(current, maximum, width int) string {
	filled := 0
	if maximum > 0 {
		filled = min(current*width/maximum, width)
	}
	return separatorStyle.Render(strings.Repeat("█", filled) + strings.Repeat("░", width-filled))
}

func (m ConsoleUI) updateStoryModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case storiesLoadedMsg:
		m.loadingStories = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.stories = msg.stories
			m.storyMap = msg.storyMap
		}

	case storyLoadedMsg:
		m.loadingStories = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.engine = engine.New(msg.graph)
		m.engine.Session().Story = msg.file
		m.storyFile = msg.file
		if err := m.engine.Start(); err != nil {
			m.err = err
			return m, nil
		}
		m.showStoryModal = false
		m.ready = true
		if m.width > 0 && m.height > 0 {
			m.resize(m.width, m.height)
		}
		cmd := m.startReveal()
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			if m.loadingStories {
				return m, tea.Quit
			}
			m.showQuitModal = true
			return m, nil
		}
		if m.loadingStories || m.err != nil {
			return m, nil
		}

		switch msg.Type {
		case tea.KeyUp:
			if m.selectedStory > 0 {
				m.selectedStory--
			}
		case tea.KeyDown:
			if m.selectedStory < len(m.stories)-1 {
				m.selectedStory++
			}
		case tea.KeyEnter:
			if len(m.stories) > 0 {
				m.loadingStories = true
				return m, m.loadStory(m.storyMap[m.stories[m.selectedStory]])
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Abort Mission?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave the voyage?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderStoryModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(wordwrap.String(fmt.Sprintf("Failed to load stories: %v", m.err), 54)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loadingStories:
		content.WriteString(modalTitleStyle.Render("Loading Stories..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while the story library loads..."))
	default:
		content.WriteString(modalTitleStyle.Render("Select a Story"))
		content.WriteString("\n\n")

		for i, name := range m.stories {
			if i == m.selectedStory {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", name)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.showStoryModal {
		return m.renderStoryModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	storyWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - storyWidth - 6

	storyPanel := storyPanelStyle.Width(storyWidth).Height(m.height - 3).Render(m.storyVp.View())
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(m.metaViewport.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, storyPanel, metaPanel)
}
