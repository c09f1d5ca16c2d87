// Package display turns scene content into a paced sequence of display
// events. Shells pull events at their own speed; nothing here touches the
// session.
package display

import (
	"iter"
	"strings"

	"github.com/jwebster45206/voyage-engine/pkg/story"
)

// Kind tells a shell what an event carries.
type Kind int

const (
	Paragraph Kind = iota
	Choice
	Ending
)

// Event is one unit of display.
type Event struct {
	Kind  Kind
	Index int    // position among events of the same kind
	Text  string // paragraph text, choice label or ending title
	Next  story.SceneKey
	Last  bool // last event of its kind
}

// Paragraphs lazily yields the paragraphs of text, split on blank lines
// with surrounding space trimmed and runs of whitespace collapsed.
func Paragraphs(text string) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		paras := split(text)
		for i, p := range paras {
			if !yield(Event{Kind: Paragraph, Index: i, Text: p, Last: i == len(paras)-1}) {
				return
			}
		}
	}
}

// Choices lazily yields one event per choice of the scene.
func Choices(scene story.Scene) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for i, c := range scene.Choices {
			if !yield(Event{Kind: Choice, Index: i, Text: c.Label, Next: c.Next, Last: i == len(scene.Choices)-1}) {
				return
			}
		}
	}
}

// Scene yields the scene's paragraphs, then its choices, or for an ending
// the ending title.
func Scene(scene story.Scene, endingTitle string) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for e := range Paragraphs(scene.Text) {
			if !yield(e) {
				return
			}
		}
		if scene.IsTerminal() {
			yield(Event{Kind: Ending, Text: endingTitle, Last: true})
			return
		}
		for e := range Choices(scene) {
			if !yield(e) {
				return
			}
		}
	}
}

// Split returns all paragraphs of text at once.
func Split(text string) []string {
	return split(text)
}

func split(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		if p := strings.Join(strings.Fields(block), " "); p != "" {
			out = append(out, p)
		}
	}
	return out
}
