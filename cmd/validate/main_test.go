package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jwebster45206/voyage-engine/pkg/story"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const unreachableStory = `title: Side Door
start: start
scenes:
  start:
    name: Start
    text: A door.
    choices:
      - label: Open it
        next: open
  open:
    name: Open
    description: Opened the door
    text: It opens.
    ending: Through the Door
  attic:
    name: Attic
    description: Went upstairs
    text: Nobody comes here.
    ending: Forgotten
`

const danglingStory = `title: Broken
start: start
scenes:
  start:
    text: A door.
    choices:
      - label: Open it
        next: nowhere
`

func writeStory(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestValidate_BundledStory(t *testing.T) {
	path := writeStory(t, story.DefaultFile, string(story.DefaultSource()))

	out, _, err := run(t, path)
	require.NoError(t, err)
	assert.Contains(t, out, "Story file is valid!")

	out, _, err = run(t, "lint", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Story file is valid!")
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{name: "extension", file: "story.txt", content: unreachableStory, wantErr: "extension"},
		{name: "filename case", file: "Side-Door.yaml", content: unreachableStory, wantErr: "snake_case"},
		{name: "dangling target", file: "broken.yaml", content: danglingStory, wantErr: "nowhere"},
		{name: "bad yaml", file: "bad.yaml", content: "title: [", wantErr: "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, err := run(t, writeStory(t, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, errOut, "Validation failed")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_Warnings(t *testing.T) {
	path := writeStory(t, "side_door.yaml", unreachableStory)

	out, _, err := run(t, path)
	require.NoError(t, err)
	assert.Contains(t, out, "warning:")
	assert.Contains(t, out, "'attic' cannot be reached")

	_, errOut, err := run(t, "lint", "--strict", path)
	require.Error(t, err)
	assert.Contains(t, errOut, "attic")
}

func TestValidate_ExperimentalPrefix(t *testing.T) {
	assert.True(t, isValidStoryFilename("x.side_door"))
	assert.False(t, isValidStoryFilename("side_door_"))
	assert.True(t, isValidID("crystalStudy"))
	assert.True(t, isValidID("deep_field"))
	assert.False(t, isValidID("Deep"))
	assert.False(t, isValidID("deep-field"))
}

func TestPaths(t *testing.T) {
	path := writeStory(t, story.DefaultFile, string(story.DefaultSource()))

	out, _, err := run(t, "paths", path)
	require.NoError(t, err)
	assert.Contains(t, out, "start > investigate > board > crystalStudy > crystalTechEnding => Bio-Tech Symbiosis Pioneer")
	assert.Contains(t, out, "paths to")
	assert.NotContains(t, out, "Unreachable")

	out, _, err = run(t, "paths", path, "start", "investigate", "board", "crystalStudy", "crystalTechEnding")
	require.NoError(t, err)
	assert.Contains(t, out, `ends at "Bio-Tech Symbiosis Pioneer"`)

	_, errOut, err := run(t, "paths", path, "start", "board")
	require.Error(t, err)
	assert.Contains(t, errOut, "Illegal path")
	assert.True(t, story.IsKind(err, story.ChoiceNotOffered))

	out, _, err = run(t, "paths", "--max-depth", "2", path)
	require.NoError(t, err)
	assert.Contains(t, out, "0 paths")
}

func TestPaths_Unreachable(t *testing.T) {
	path := writeStory(t, "side_door.yaml", unreachableStory)

	out, _, err := run(t, "paths", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 paths to 2 endings")
	assert.Contains(t, out, "Unreachable scenes: [attic]")
}
