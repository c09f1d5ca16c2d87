package story

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the file name the bundled story is published under.
const DefaultFile = "voyage_aeon.yaml"

//go:embed stories/voyage_aeon.yaml
var defaultStory []byte

// Format is a story file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension. Unknown extensions are
// treated as YAML, which also accepts JSON documents.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// document is the on-disk shape of a story file.
type document struct {
	Title       string             `json:"title" yaml:"title"`
	Start       SceneKey           `json:"start" yaml:"start"`
	MaxProgress int                `json:"max_progress,omitempty" yaml:"max_progress,omitempty"`
	Scenes      map[SceneKey]Scene `json:"scenes" yaml:"scenes"`
}

// Parse decodes and builds a story graph.
func Parse(data []byte, format Format) (*Graph, error) {
	var doc document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse story JSON: %w", err)
		}
	case FormatYAML, "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse story YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported story format %q", format)
	}

	scenes := make([]Scene, 0, len(doc.Scenes))
	for key, s := range doc.Scenes {
		s.Key = key
		scenes = append(scenes, s)
	}
	return New(doc.Title, doc.Start, scenes, WithMaxProgress(doc.MaxProgress))
}

// LoadFile reads and builds the story graph stored at path.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read story file %s: %w", path, err)
	}
	g, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return g, nil
}

// DefaultSource returns the raw YAML of the bundled story.
func DefaultSource() []byte {
	return bytes.Clone(defaultStory)
}

// Default builds the bundled Voyage Aeon story.
func Default() (*Graph, error) {
	return Parse(defaultStory, FormatYAML)
}
