package stats

import "github.com/jwebster45206/voyage-engine/pkg/story"

// Achievement is an unlocked badge.
type Achievement struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DecisionMasterThreshold is the number of decisions that earns Decision Master.
const DecisionMasterThreshold = 3

type achievementRule struct {
	Achievement
	unlocked func(Input) bool
}

func madeChoice(key story.SceneKey) func(Input) bool {
	return func(in Input) bool { return containsAny(in.Choices, key) }
}

func onPath(a Archetype) func(Input) bool {
	return func(in Input) bool { return PathArchetype(in.Choices) == a }
}

func endedIn(word string) func(Input) bool {
	return func(in Input) bool { return endingMentions(in.FinalEnding, word) }
}

// achievementRules are all evaluated; every match unlocks.
var achievementRules = []achievementRule{
	// path
	{Achievement{"Fearless Pioneer", "Chose direct action over caution"}, onPath(BoldExplorer)},
	{Achievement{"Galactic Diplomat", "Prioritized peaceful communication"}, onPath(DiplomaticPioneer)},
	{Achievement{"Methodical Researcher", "Applied scientific approach"}, onPath(CautiousScientist)},

	// specific choices
	{Achievement{"Quick Decision Maker", "Investigated signal immediately"}, madeChoice(story.Investigate)},
	{Achievement{"First Contact Specialist", "Attempted alien communication"}, madeChoice(story.Communicate)},
	{Achievement{"Peace Ambassador", "Extended peaceful greetings"}, madeChoice(story.Peaceful)},
	{Achievement{"Safety First", "Prioritized caution and analysis"}, madeChoice(story.Scan)},

	// ending
	{Achievement{"Bio-Tech Symbiosis", "Merged with living crystal technology"}, endedIn("Crystal")},
	{Achievement{"Cosmic Scholar", "Acquired ancient galactic knowledge"}, endedIn("Knowledge")},
	{Achievement{"Transcendent Being", "Achieved cosmic consciousness"}, endedIn("Consciousness")},

	// completion
	{Achievement{"Mission Complete", "Reached a story conclusion"}, func(in Input) bool { return in.Completed }},
	{Achievement{"Decision Master", "Made multiple critical choices"}, func(in Input) bool {
		return len(in.Choices) >= DecisionMasterThreshold
	}},
}

// Achievements returns every achievement the input unlocks, in rule order.
// The result is never nil.
func Achievements(in Input) []Achievement {
	out := []Achievement{}
	for _, rule := range achievementRules {
		if rule.unlocked(in) {
			out = append(out, rule.Achievement)
		}
	}
	return out
}
