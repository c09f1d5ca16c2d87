package story

// SceneKey identifies a scene within a story graph.
type SceneKey string

// Well-known scene keys of the bundled Voyage Aeon story. Classification rules
// in pkg/stats are written against these keys.
const (
	Start               SceneKey = "start"
	Investigate         SceneKey = "investigate"
	Scan                SceneKey = "scan"
	Board               SceneKey = "board"
	Communicate         SceneKey = "communicate"
	Peaceful            SceneKey = "peaceful"
	Defensive           SceneKey = "defensive"
	CrystalStudy        SceneKey = "crystalStudy"
	BlueCorridorExplore SceneKey = "blueCorridorExplore"
	CrystalTechEnding   SceneKey = "crystalTechEnding"
	KnowledgeEnding     SceneKey = "knowledgeEnding"
	CivilizationEnding  SceneKey = "civilizationEnding"

	// ExploreEnding has no scene in the bundled story but still counts as a
	// high-risk choice for stories that define it.
	ExploreEnding SceneKey = "exploreEnding"
)

// UnknownEnding is the ending title used for terminal scenes without one.
const UnknownEnding = "Unknown Ending"

// Choice is a labeled edge from one scene to another.
type Choice struct {
	Label string   `json:"label" yaml:"label" validate:"required"`
	Next  SceneKey `json:"next" yaml:"next" validate:"required"`
}

// Scene is a narrative node with its outgoing choices.
type Scene struct {
	Key         SceneKey `json:"key" yaml:"-"`                                       // Also the key in the graph
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`               // Display name for reports
	Text        string   `json:"text" yaml:"text" validate:"required"`               // One or more paragraphs separated by blank lines
	Choices     []Choice `json:"choices" yaml:"choices" validate:"dive"`             // Zero choices marks an ending
	Ending      string   `json:"ending,omitempty" yaml:"ending,omitempty"`           // Ending title, terminal scenes only
	Description string   `json:"description,omitempty" yaml:"description,omitempty"` // What choosing this scene means
	Continue    bool     `json:"continue,omitempty" yaml:"continue,omitempty"`       // Follow the single choice without waiting for the player
}

// IsTerminal reports whether the scene ends the story.
func (s Scene) IsTerminal() bool {
	return len(s.Choices) == 0
}

// Targets returns the keys the scene's choices lead to, in order.
func (s Scene) Targets() []SceneKey {
	targets := make([]SceneKey, 0, len(s.Choices))
	for _, c := range s.Choices {
		targets = append(targets, c.Next)
	}
	return targets
}

// Offers reports whether one of the scene's choices leads to next.
func (s Scene) Offers(next SceneKey) (Choice, bool) {
	for _, c := range s.Choices {
		if c.Next == next {
			return c, true
		}
	}
	return Choice{}, false
}

// Labels returns the display labels of the scene's choices.
func (s Scene) Labels() []string {
	labels := make([]string, 0, len(s.Choices))
	for _, c := range s.Choices {
		labels = append(labels, c.Label)
	}
	return labels
}
