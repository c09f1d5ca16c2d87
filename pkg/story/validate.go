package story

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind classifies why a scene or choice was refused.
type Kind int

const (
	EmptyKey Kind = iota + 1
	SessionNotLoaded
	UnknownScene
	UnknownCurrentScene
	NoChoicesAvailable
	ChoiceNotOffered
	DanglingTarget
	SelfTransition
	MalformedScene
)

var kindNames = map[Kind]string{
	EmptyKey:            "EmptyKey",
	SessionNotLoaded:    "SessionNotLoaded",
	UnknownScene:        "UnknownScene",
	UnknownCurrentScene: "UnknownCurrentScene",
	NoChoicesAvailable:  "NoChoicesAvailable",
	ChoiceNotOffered:    "ChoiceNotOffered",
	DanglingTarget:      "DanglingTarget",
	SelfTransition:      "SelfTransition",
	MalformedScene:      "MalformedScene",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText renders the kind by name so it reads well in JSON.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ValidationError is a refused scene or transition. Key is the scene the
// problem was found on, when there is one.
type ValidationError struct {
	Kind    Kind
	Key     SceneKey
	Message string
}

func (e *ValidationError) Error() string {
	return e.Kind.String() + ": " + e.Message
}

func newError(kind Kind, key SceneKey, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Key: key, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *ValidationError in err's tree.
func KindOf(err error) (Kind, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return 0, false
}

// IsKind reports whether err holds a *ValidationError of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkScene applies the schema rules every scene must satisfy.
func checkScene(s Scene) error {
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", strings.TrimPrefix(fe.Namespace(), "Scene."), fe.Tag()))
			}
			return newError(MalformedScene, s.Key, "scene %q is malformed: %s", s.Key, strings.Join(fields, ", "))
		}
		return newError(MalformedScene, s.Key, "scene %q is malformed: %v", s.Key, err)
	}
	if strings.TrimSpace(s.Text) == "" {
		return newError(MalformedScene, s.Key, "scene %q has no text", s.Key)
	}
	if s.Continue && len(s.Choices) != 1 {
		return newError(MalformedScene, s.Key, "continue scene %q must have exactly one choice, has %d", s.Key, len(s.Choices))
	}
	return nil
}

// ValidateScene checks that key names a well-formed scene in g. A nil graph
// refuses every key with SessionNotLoaded.
func (g *Graph) ValidateScene(key SceneKey) error {
	if key == "" {
		return newError(EmptyKey, "", "scene key is empty")
	}
	if g == nil {
		return newError(SessionNotLoaded, key, "no story is loaded")
	}
	s, ok := g.scenes[key]
	if !ok {
		return newError(UnknownScene, key, "scene %q not found", key)
	}
	return checkScene(s)
}

// ValidateChoice checks that moving from current to next is a legal
// transition. Checks run in a fixed order and the first failure is returned:
// EmptyKey, SessionNotLoaded, UnknownCurrentScene, SelfTransition,
// NoChoicesAvailable, ChoiceNotOffered, DanglingTarget.
func (g *Graph) ValidateChoice(next, current SceneKey) error {
	if next == "" {
		return newError(EmptyKey, current, "choice key is empty")
	}
	if current == "" {
		return newError(EmptyKey, "", "current scene key is empty")
	}
	if g == nil {
		return newError(SessionNotLoaded, current, "no story is loaded")
	}
	s, ok := g.scenes[current]
	if !ok {
		return newError(UnknownCurrentScene, current, "current scene %q not found", current)
	}
	if next == current {
		return newError(SelfTransition, current, "scene %q cannot transition to itself", current)
	}
	if s.IsTerminal() {
		return newError(NoChoicesAvailable, current, "scene %q is an ending and offers no choices", current)
	}
	if _, offered := s.Offers(next); !offered {
		valid := make([]string, 0, len(s.Choices))
		for _, t := range s.Targets() {
			valid = append(valid, string(t))
		}
		return newError(ChoiceNotOffered, current, "scene %q does not offer %q; valid choices: %s",
			current, next, strings.Join(valid, ", "))
	}
	if _, ok := g.scenes[next]; !ok {
		return newError(DanglingTarget, current, "scene %q offers %q, which is not in the story", current, next)
	}
	return nil
}
