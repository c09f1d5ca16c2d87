// Package stats derives play-style classifications from a choice log. Every
// function is pure and recomputes from its input on each call.
package stats

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jwebster45206/voyage-engine/pkg/story"
)

// Archetype is the overall play style of a path.
type Archetype string

const (
	BoldExplorer      Archetype = "Bold Explorer"
	DiplomaticPioneer Archetype = "Diplomatic Pioneer"
	CautiousScientist Archetype = "Cautious Scientist"
	BalancedApproach  Archetype = "Balanced Approach"
)

// archetypeRules are checked in order; the first rule with a matching
// choice decides the archetype.
var archetypeRules = []struct {
	archetype Archetype
	keys      []story.SceneKey
}{
	{BoldExplorer, []story.SceneKey{story.Investigate, story.Board}},
	{DiplomaticPioneer, []story.SceneKey{story.Communicate, story.Peaceful}},
	{CautiousScientist, []story.SceneKey{story.Scan, story.Defensive}},
}

// PathArchetype classifies a choice log. Bold choices outrank diplomatic
// ones, which outrank cautious ones, regardless of order.
func PathArchetype(choices []story.SceneKey) Archetype {
	for _, rule := range archetypeRules {
		if containsAny(choices, rule.keys...) {
			return rule.archetype
		}
	}
	return BalancedApproach
}

var (
	riskKeys    = []story.SceneKey{story.Investigate, story.Board, story.ExploreEnding}
	cautionKeys = []story.SceneKey{story.Scan, story.Defensive, story.Communicate}
)

// RiskLevel is a three-tier measure of how many risky choices were made.
type RiskLevel int

const (
	LowRisk RiskLevel = iota
	ModerateRisk
	HighRisk
)

func (r RiskLevel) String() string {
	switch r {
	case HighRisk:
		return "High Risk"
	case ModerateRisk:
		return "Moderate Risk"
	default:
		return "Low Risk"
	}
}

// Description is the player-facing epithet that goes with the level.
func (r RiskLevel) Description() string {
	switch r {
	case HighRisk:
		return "Bold Adventurer"
	case ModerateRisk:
		return "Calculated Explorer"
	default:
		return "Safety-Conscious Scientist"
	}
}

// Label joins the level and its epithet, e.g. "High Risk - Bold Adventurer".
func (r RiskLevel) Label() string {
	return r.String() + " - " + r.Description()
}

func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *RiskLevel) UnmarshalText(text []byte) error {
	for _, level := range []RiskLevel{LowRisk, ModerateRisk, HighRisk} {
		if string(text) == level.String() {
			*r = level
			return nil
		}
	}
	return fmt.Errorf("unknown risk level %q", text)
}

// Risk counts high-risk choices: two or more is high, one is moderate.
func Risk(choices []story.SceneKey) RiskLevel {
	switch n := count(choices, riskKeys); {
	case n >= 2:
		return HighRisk
	case n == 1:
		return ModerateRisk
	default:
		return LowRisk
	}
}

// Style describes the balance between risky and cautious choices.
type Style string

const (
	RiskTakingPioneer    Style = "Risk-Taking Pioneer"
	MethodicalResearcher Style = "Methodical Researcher"
	AdaptiveExplorer     Style = "Adaptive Explorer"
)

// ExplorationStyle compares risky against cautious choices; a strict
// majority wins and a tie is adaptive.
func ExplorationStyle(choices []story.SceneKey) Style {
	risk, caution := count(choices, riskKeys), count(choices, cautionKeys)
	switch {
	case risk > caution:
		return RiskTakingPioneer
	case caution > risk:
		return MethodicalResearcher
	default:
		return AdaptiveExplorer
	}
}

// Input is everything classification looks at.
type Input struct {
	Choices     []story.SceneKey
	FinalEnding string
	Completed   bool // an ending scene was reached, not a user stop
}

// Snapshot is the full set of derived statistics for one choice log.
type Snapshot struct {
	PathArchetype    Archetype     `json:"path_archetype"`
	RiskLevel        RiskLevel     `json:"risk_level"`
	ExplorationStyle Style         `json:"exploration_style"`
	Achievements     []Achievement `json:"achievements"`
	Decisions        int           `json:"decisions"`
}

// Compute derives a fresh snapshot. Nothing is cached.
func Compute(in Input) Snapshot {
	return Snapshot{
		PathArchetype:    PathArchetype(in.Choices),
		RiskLevel:        Risk(in.Choices),
		ExplorationStyle: ExplorationStyle(in.Choices),
		Achievements:     Achievements(in),
		Decisions:        len(in.Choices),
	}
}

func containsAny(choices []story.SceneKey, keys ...story.SceneKey) bool {
	return slices.ContainsFunc(choices, func(c story.SceneKey) bool {
		return slices.Contains(keys, c)
	})
}

func count(choices []story.SceneKey, keys []story.SceneKey) int {
	n := 0
	for _, c := range choices {
		if slices.Contains(keys, c) {
			n++
		}
	}
	return n
}

func endingMentions(ending, word string) bool {
	return strings.Contains(ending, word)
}
