package runner

import (
	"time"

	"github.com/google/uuid"
)

// Step actions. Each maps to a session endpoint except ActionGet.
const (
	ActionChoice  = "choice"
	ActionBack    = "back"
	ActionForward = "forward"
	ActionStop    = "stop"
	ActionRestart = "restart"
	ActionGet     = "get"
	ActionReport  = "report"
)

// TestSuite defines a complete playthrough test
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `json:"name"`
	Story string     `json:"story,omitempty"` // Used for regular tests
	Steps []TestStep `json:"steps,omitempty"` // Used for regular tests
	Cases []string   `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one user intent and what the session should look like after it
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Action       string       `json:"action"`
	Next         string       `json:"next,omitempty"` // Choice target, ActionChoice only
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Refusals
	StatusCode *int   `json:"status_code,omitempty"` // Defaults to 200 for intents
	ErrorKind  string `json:"error_kind,omitempty"`

	// Session view
	Scene        *string  `json:"scene,omitempty"`
	Status       *string  `json:"status,omitempty"`
	Progress     *int     `json:"progress,omitempty"`
	FinalEnding  *string  `json:"final_ending,omitempty"`
	Choices      []string `json:"choices,omitempty"` // Choice targets offered, in order
	CanGoBack    *bool    `json:"can_go_back,omitempty"`
	CanGoForward *bool    `json:"can_go_forward,omitempty"`
	Decisions    *int     `json:"decisions,omitempty"`

	// Statistics
	PathArchetype *string  `json:"path_archetype,omitempty"`
	RiskLevel     *string  `json:"risk_level,omitempty"`
	Achievements  []string `json:"achievements,omitempty"` // Must all be awarded

	// Report, ActionReport only
	ReportContains []string `json:"report_contains,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName string
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID // ID of the session used for this test
}
