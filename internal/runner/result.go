package runner

import "time"

// Result is the outcome of running one script.
type Result struct {
	RunID       string        `json:"run_id"`
	Name        string        `json:"name"`
	Passed      bool          `json:"passed"`
	Error       string        `json:"error,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	Dir         string        `json:"dir,omitempty"`
	TotalSteps  int           `json:"total_steps"`
	Steps       []StepResult  `json:"steps"`
	Screenshots []string      `json:"screenshots"`
	Disposition Disposition   `json:"disposition"`
	Archive     string        `json:"archive,omitempty"`
	Deleted     bool          `json:"deleted,omitempty"`
	// DisposalError is set when packaging or deleting the screenshots failed.
	DisposalError string `json:"disposal_error,omitempty"`
}

// OK reports whether the script passed and its screenshots were disposed of
// without error.
func (r *Result) OK() bool {
	return r.Passed && r.DisposalError == ""
}

// StepResult describes a single executed step.
type StepResult struct {
	Index      int      `json:"index"`
	Command    string   `json:"command"`
	Args       []string `json:"args,omitempty"`
	Output     string   `json:"output,omitempty"`
	Error      string   `json:"error,omitempty"`
	Screenshot string   `json:"screenshot,omitempty"`
}

// Passed reports whether the step succeeded.
func (s StepResult) Passed() bool {
	return s.Error == ""
}
