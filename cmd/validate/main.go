package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/jwebster45206/voyage-engine/pkg/story"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var strict bool

	rootCmd := &cobra.Command{
		Use:   "validate <story file>",
		Short: "Check story files before they are published",
		Long: `validate loads a story file the way the engine does and reports
problems a story author should fix. Warnings do not fail the run unless
--strict is given.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], strict)
		},
	}
	rootCmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")

	lintCmd := &cobra.Command{
		Use:   "lint <story file>",
		Short: "Validate a story file (same as running validate with a file)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], strict)
		},
	}
	lintCmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")

	var maxDepth int
	pathsCmd := &cobra.Command{
		Use:   "paths <story file> [scene...]",
		Short: "List every path from the start scene to an ending",
		Long: `paths prints each playthrough of the story, shortest first. Given a
list of scenes it instead checks that they form a legal playthrough.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPaths(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], args[1:], maxDepth)
		},
	}
	pathsCmd.Flags().IntVar(&maxDepth, "max-depth", story.DefaultMaxDepth, "longest path to follow, in scenes")

	rootCmd.AddCommand(lintCmd, pathsCmd)
	return rootCmd
}

func runLint(out, errOut io.Writer, filename string, strict bool) error {
	fmt.Fprintf(out, "Validating %s...\n", filename)

	v := &StoryValidator{}
	if err := v.validateFile(filename); err != nil {
		fmt.Fprintf(errOut, "Validation failed: %v\n", err)
		return err
	}

	for _, w := range v.warnings {
		fmt.Fprintln(out, "warning: "+w)
	}
	if len(v.errors) > 0 || (strict && len(v.warnings) > 0) {
		problems := slices.Concat(v.errors, v.warnings)
		err := fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(problems, "\n"))
		fmt.Fprintf(errOut, "Validation failed: %v\n", err)
		return err
	}

	fmt.Fprintln(out, "Story file is valid!")
	return nil
}

func runPaths(out, errOut io.Writer, filename string, scenes []string, maxDepth int) error {
	g, err := story.LoadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "Failed to load story: %v\n", err)
		return err
	}

	if len(scenes) > 0 {
		path := make(story.Path, 0, len(scenes))
		for _, s := range scenes {
			path = append(path, story.SceneKey(s))
		}
		if err := g.CheckPath(path); err != nil {
			fmt.Fprintf(errOut, "Illegal path: %v\n", err)
			return err
		}
		last := path[len(path)-1]
		if g.IsTerminal(last) {
			fmt.Fprintf(out, "Path is legal and ends at %q\n", g.EndingName(last))
		} else {
			fmt.Fprintln(out, "Path is legal")
		}
		return nil
	}

	paths := g.Paths(maxDepth)
	for i, p := range paths {
		keys := make([]string, 0, len(p))
		for _, k := range p {
			keys = append(keys, string(k))
		}
		fmt.Fprintf(out, "%3d. %s => %s\n", i+1, strings.Join(keys, " > "), g.EndingName(p[len(p)-1]))
	}
	fmt.Fprintf(out, "%d paths to %d endings\n", len(paths), len(g.Terminals()))

	if unreachable := g.Unreachable(); len(unreachable) > 0 {
		fmt.Fprintf(out, "Unreachable scenes: %v\n", unreachable)
	}
	return nil
}

type StoryValidator struct {
	errors   []string
	warnings []string
}

// validateFile returns an error when the file cannot be used at all. Problems
// an author can fix in place are collected instead.
func (v *StoryValidator) validateFile(filename string) error {
	baseName := filepath.Base(filename)
	ext := filepath.Ext(baseName)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml", ".json":
	default:
		return fmt.Errorf("story file must have a .yaml, .yml or .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ext)
	if !isValidStoryFilename(nameWithoutExt) {
		return fmt.Errorf("story filename '%s' must be lowercase snake_case (e.g., deep_field.yaml, not deep-field.yaml or DeepField.yaml)", baseName)
	}

	g, err := story.LoadFile(filename)
	if err != nil {
		return err
	}

	v.errors = nil
	v.warnings = nil
	v.validateGraph(g)
	return nil
}

func (v *StoryValidator) validateGraph(g *story.Graph) {
	if g.Title() == "" {
		v.addWarning("story has no title")
	}

	for _, key := range g.Keys() {
		scene, _ := g.Scene(key)
		v.validateIDFormat("scene key", string(key))

		if scene.Name == "" {
			v.addWarning(fmt.Sprintf("scene '%s' has no name; reports will show the key", key))
		}
		if scene.IsTerminal() && scene.Ending == "" {
			v.addWarning(fmt.Sprintf("ending '%s' has no ending title; reports will show %q", key, story.UnknownEnding))
		}
		if !scene.IsTerminal() && scene.Ending != "" {
			v.addWarning(fmt.Sprintf("scene '%s' has an ending title but offers choices", key))
		}
		if key != g.Start() && scene.Description == "" {
			v.addWarning(fmt.Sprintf("scene '%s' has no description; the decision log will show the key", key))
		}
	}

	for _, key := range g.Unreachable() {
		v.addWarning(fmt.Sprintf("scene '%s' cannot be reached from '%s'", key, g.Start()))
	}

	if len(g.Paths(story.DefaultMaxDepth)) == 0 {
		v.addError(fmt.Sprintf("no ending can be reached from '%s'", g.Start()))
	}
}

func (v *StoryValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}

	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should start with a lowercase letter and contain only letters, digits and underscores", fieldName, id))
	}
}

func (v *StoryValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *StoryValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, "  - "+msg)
}

var (
	validIDRegex       = regexp.MustCompile(`^[a-z][a-zA-Z0-9_]*$`)
	validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

func isValidStoryFilename(name string) bool {
	// Allow 'x.' prefix for experimental stories
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
