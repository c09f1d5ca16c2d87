package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/voyage-engine/internal/handlers"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner plays scripted playthroughs against a running voyage-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
	StoryOverride     string // If set, overrides the story for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 10 * time.Second},
		Timeout:           30 * time.Second,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite plays a complete test suite on a fresh session
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	storyFile := suite.Story
	if r.StoryOverride != "" {
		storyFile = r.StoryOverride
	}
	session, err := CreateSession(ctx, r.Client, r.BaseURL, storyFile)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Session = session.ID
	defer func() {
		if err := DeleteSession(context.Background(), r.Client, r.BaseURL, session.ID); err != nil {
			r.Logger("    Warning: failed to delete session %s: %v", session.ID, err)
		}
	}()

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, session.ID, step)
		stepResult.TestName = suite.Name
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep sends the step's intent and checks expectations against the
// response, or against the refusal when one is expected.
func (r *Runner) runStep(ctx context.Context, id uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{StepName: step.Name}
	finish := func(err error) TestResult {
		result.Error = err
		result.Success = err == nil
		result.Duration = time.Since(start)
		return result
	}

	if step.Action == ActionReport {
		rep, err := GetReport(ctx, r.Client, r.BaseURL, id)
		if err != nil {
			return finish(err)
		}
		return finish(checkReport(step.Expectations, rep))
	}

	var (
		view *handlers.SessionResponse
		err  error
	)
	switch step.Action {
	case ActionGet:
		view, err = GetSession(ctx, r.Client, r.BaseURL, id)
	case ActionChoice:
		view, err = PostAction(ctx, r.Client, r.BaseURL, id, step.Action, map[string]string{"next": step.Next})
	case ActionBack, ActionForward, ActionStop, ActionRestart:
		view, err = PostAction(ctx, r.Client, r.BaseURL, id, step.Action, nil)
	default:
		return finish(fmt.Errorf("unknown action %q", step.Action))
	}

	if err := checkRefusal(step.Expectations, err); err != nil {
		return finish(err)
	}
	if view == nil {
		// Refused as expected; the session must be unchanged, so check it.
		view, err = GetSession(ctx, r.Client, r.BaseURL, id)
		if err != nil {
			return finish(fmt.Errorf("failed to get session after refusal: %w", err))
		}
	}

	return finish(checkExpectations(step.Expectations, view))
}

// checkRefusal matches a request error against the expected status code and
// error kind. A nil return means the outcome was the expected one.
func checkRefusal(exp Expectations, err error) error {
	var apiErr *apiError
	if err != nil && !errors.As(err, &apiErr) {
		return err
	}

	want := http.StatusOK
	if exp.StatusCode != nil {
		want = *exp.StatusCode
	}
	got := http.StatusOK
	if apiErr != nil {
		got = apiErr.StatusCode
	}
	if got != want {
		if apiErr != nil {
			return fmt.Errorf("expected status %d, got %w", want, apiErr)
		}
		return fmt.Errorf("expected status %d, got %d", want, got)
	}

	if exp.ErrorKind != "" {
		if apiErr == nil || apiErr.Body.Kind != exp.ErrorKind {
			return fmt.Errorf("expected error kind %s, got %v", exp.ErrorKind, err)
		}
	}
	return nil
}

// checkExpectations validates the expectations against a session view
func checkExpectations(exp Expectations, view *handlers.SessionResponse) error {
	if exp.Scene != nil && string(view.Scene.Key) != *exp.Scene {
		return fmt.Errorf("expected scene %s, got %s", *exp.Scene, view.Scene.Key)
	}

	if exp.Status != nil && string(view.Status) != *exp.Status {
		return fmt.Errorf("expected status %s, got %s", *exp.Status, view.Status)
	}

	if exp.Progress != nil && view.Progress.Current != *exp.Progress {
		return fmt.Errorf("expected progress %d, got %d", *exp.Progress, view.Progress.Current)
	}

	if exp.FinalEnding != nil && view.FinalEnding != *exp.FinalEnding {
		return fmt.Errorf("expected final ending '%s', got '%s'", *exp.FinalEnding, view.FinalEnding)
	}

	if exp.Choices != nil {
		got := make([]string, 0, len(view.Scene.Choices))
		for _, c := range view.Scene.Choices {
			got = append(got, string(c.Next))
		}
		if !slices.Equal(got, exp.Choices) {
			return fmt.Errorf("expected choices %v, got %v", exp.Choices, got)
		}
	}

	if exp.CanGoBack != nil && view.Navigation.CanGoBack != *exp.CanGoBack {
		return fmt.Errorf("expected can_go_back to be %t, got %t", *exp.CanGoBack, view.Navigation.CanGoBack)
	}

	if exp.CanGoForward != nil && view.Navigation.CanGoForward != *exp.CanGoForward {
		return fmt.Errorf("expected can_go_forward to be %t, got %t", *exp.CanGoForward, view.Navigation.CanGoForward)
	}

	if exp.Decisions != nil && len(view.ChoiceLog) != *exp.Decisions {
		return fmt.Errorf("expected %d decisions, got %d", *exp.Decisions, len(view.ChoiceLog))
	}

	if exp.PathArchetype != nil && string(view.Stats.PathArchetype) != *exp.PathArchetype {
		return fmt.Errorf("expected path archetype %s, got %s", *exp.PathArchetype, view.Stats.PathArchetype)
	}

	if exp.RiskLevel != nil && view.Stats.RiskLevel.String() != *exp.RiskLevel {
		return fmt.Errorf("expected risk level %s, got %s", *exp.RiskLevel, view.Stats.RiskLevel)
	}

	if len(exp.Achievements) > 0 {
		awarded := make(map[string]bool, len(view.Stats.Achievements))
		for _, a := range view.Stats.Achievements {
			awarded[a.Title] = true
		}
		for _, want := range exp.Achievements {
			if !awarded[want] {
				return fmt.Errorf("expected achievement '%s', got %v", want, view.Stats.Achievements)
			}
		}
	}

	return nil
}

func checkReport(exp Expectations, rep *handlers.ReportResponse) error {
	text := strings.ToLower(rep.Share + "\n" + rep.Summary + "\n" + rep.Assessment)
	for _, want := range exp.ReportContains {
		if !strings.Contains(text, strings.ToLower(want)) {
			return fmt.Errorf("expected report to contain '%s', but it didn't", want)
		}
	}
	if exp.FinalEnding != nil && rep.Outcome != *exp.FinalEnding {
		return fmt.Errorf("expected outcome '%s', got '%s'", *exp.FinalEnding, rep.Outcome)
	}
	return nil
}
