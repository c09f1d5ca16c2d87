// Package report composes the end-of-mission report from a session. It picks
// the report's content; laying it out is up to the shell.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/jwebster45206/voyage-engine/pkg/state"
	"github.com/jwebster45206/voyage-engine/pkg/stats"
	"github.com/jwebster45206/voyage-engine/pkg/story"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Decision is one entry of the decision walkthrough.
type Decision struct {
	Number      int    `json:"number"`
	SceneName   string `json:"scene_name"`
	Choice      string `json:"choice"`
	Description string `json:"description"`
	LedTo       string `json:"led_to"`
}

// Report is everything a shell needs to show the mission report.
type Report struct {
	Title       string         `json:"title"`
	Heading     string         `json:"heading"`
	Outcome     string         `json:"outcome"`
	Summary     string         `json:"summary"`
	Decisions   []Decision     `json:"decisions"`
	Stats       stats.Snapshot `json:"stats"`
	Progress    int            `json:"progress"`
	MaxProgress int            `json:"max_progress"`
	Assessment  string         `json:"assessment"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	EndedAt     *time.Time     `json:"ended_at,omitempty"`
}

// Duration returns the play time, or zero while the session is open.
func (r Report) Duration() time.Duration {
	if r.StartedAt == nil || r.EndedAt == nil {
		return 0
	}
	return r.EndedAt.Sub(*r.StartedAt)
}

// Compose builds the report for a session played on g.
func Compose(s *state.Session, g *story.Graph) Report {
	snap := stats.Compute(stats.Input{
		Choices:     s.Choices,
		FinalEnding: s.FinalEnding,
		Completed:   s.Completed(),
	})

	title := s.StoryTitle
	if title == "" {
		title = g.Title()
	}

	decisions := make([]Decision, 0, len(s.ChoiceDetails))
	for i, d := range s.ChoiceDetails {
		decisions = append(decisions, Decision{
			Number:      i + 1,
			SceneName:   d.SceneName,
			Choice:      d.ChoiceLabel,
			Description: d.Description,
			LedTo:       g.SceneName(d.NextScene),
		})
	}

	return Report{
		Title:       title,
		Heading:     Heading(title),
		Outcome:     s.FinalEnding,
		Summary:     Summary(snap.PathArchetype, s.FinalEnding, len(s.ChoiceDetails)),
		Decisions:   decisions,
		Stats:       snap,
		Progress:    s.DisplayProgress(),
		MaxProgress: s.MaxProgress,
		Assessment:  Assessment(snap.PathArchetype, snap.RiskLevel, s.FinalEnding, len(s.ChoiceDetails)),
		StartedAt:   s.StartedAt,
		EndedAt:     s.EndedAt,
	}
}

// Heading returns the report heading for a story title.
func Heading(title string) string {
	if title == "" {
		return "MISSION REPORT"
	}
	return cases.Upper(language.English).String(title) + " - MISSION REPORT"
}

var pathSummaries = map[stats.Archetype]string{
	stats.BoldExplorer:      "You chose the path of direct action, investigating signals immediately and taking bold risks.",
	stats.DiplomaticPioneer: "You chose the diplomatic path, prioritizing communication and peaceful contact with alien entities.",
	stats.CautiousScientist: "You chose the scientific approach, carefully analyzing situations before taking action.",
	stats.BalancedApproach:  "You took a balanced approach, mixing caution with boldness as situations demanded.",
}

// endingSummaries are checked in order against the final ending.
var endingSummaries = []struct {
	word, text string
}{
	{"Crystal", "Your journey led you to discover ancient crystal technology and form a symbiotic relationship with living bio-tech."},
	{"Knowledge", "Your mission culminated in receiving vast ancient knowledge that will benefit all of humanity."},
	{"Consciousness", "You achieved a transcendent state by merging with cosmic consciousness technology."},
	{"Terminated", "You chose to end the mission early, prioritizing safety over discovery."},
}

// Summary tells the story of the run in three sentences.
func Summary(path stats.Archetype, finalEnding string, decisions int) string {
	if decisions == 0 {
		return "Mission was terminated before any major decisions were made."
	}

	var b strings.Builder
	b.WriteString("You began as a space explorer who detected a mysterious signal from deep space. ")
	b.WriteString(pathSummaries[path])
	b.WriteString(" ")

	ending := "Your unique path led to an extraordinary outcome that will shape the future of space exploration."
	for _, e := range endingSummaries {
		if strings.Contains(finalEnding, e.word) {
			ending = e.text
			break
		}
	}
	b.WriteString(ending)
	return b.String()
}

var pathAssessments = map[stats.Archetype]string{
	stats.BoldExplorer:      "Your bold and decisive approach led to remarkable discoveries. You have the courage needed for deep space exploration and aren't afraid to take calculated risks for the sake of knowledge.",
	stats.DiplomaticPioneer: "Your diplomatic skills and peaceful approach opened doors that force never could. You have the wisdom to build bridges between species and create lasting alliances across the galaxy.",
	stats.CautiousScientist: "Your methodical and scientific approach ensured safe exploration while still achieving significant discoveries. You balance curiosity with wisdom, making you an ideal deep space researcher.",
	stats.BalancedApproach:  "Your balanced approach shows adaptability and good judgment. You know when to be bold and when to be cautious, making you a well-rounded space explorer.",
}

// Assessment is the closing verdict on the run.
func Assessment(path stats.Archetype, risk stats.RiskLevel, finalEnding string, decisions int) string {
	switch {
	case strings.Contains(finalEnding, "Terminated"):
		return "While your mission was cut short, you demonstrated good judgment in knowing when to prioritize safety. Sometimes the wisest choice is knowing when to stop."
	case decisions == 0:
		return "Your journey ended before any major decisions were made. Consider exploring the story further to discover the mysteries that await!"
	}

	text := pathAssessments[path]
	switch risk {
	case stats.HighRisk:
		text += " Your willingness to take risks led to extraordinary outcomes that more cautious explorers might never achieve."
	case stats.LowRisk:
		text += " Your careful approach ensured your safety while still making meaningful discoveries."
	}
	return text
}

// ShareText is the short brag the player can paste elsewhere.
func ShareText(r Report) string {
	title := r.Title
	if title == "" {
		title = "the mission"
	}
	tag := strings.ReplaceAll(cases.Title(language.English).String(title), " ", "")
	return fmt.Sprintf(`I just completed %s!

Final Outcome: %s
Decisions Made: %d
Path Type: %s
Risk Level: %s

#%s #SpaceAdventure #InteractiveStory`,
		title, r.Outcome, len(r.Decisions), r.Stats.PathArchetype, r.Stats.RiskLevel.Label(), tag)
}
