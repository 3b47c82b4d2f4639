package runner

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shotrec/shotrec/internal/processor"
)

// Report is the JSON document written by FormatJSON.
type Report struct {
	Passed  bool      `json:"passed"`
	Total   int       `json:"total"`
	Failed  int       `json:"failed"`
	Results []*Result `json:"results"`
}

// NewReport summarizes results.
func NewReport(results []*Result) *Report {
	r := &Report{Passed: true, Total: len(results), Results: results}
	if r.Results == nil {
		r.Results = []*Result{}
	}
	for _, res := range results {
		if !res.OK() {
			r.Passed = false
			r.Failed++
		}
	}
	return r
}

// FormatJSON writes the results as compact JSON to the given writer.
func FormatJSON(w io.Writer, results []*Result) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(NewReport(results))
}

// FormatText writes a human-readable summary. Colour is used when w is a
// terminal unless SHOTREC_COLOR or NO_COLOR says otherwise.
func FormatText(w io.Writer, results []*Result) error {
	f, _ := w.(*os.File)
	return formatText(w, results, resolveColor(os.LookupEnv, f))
}

func formatText(w io.Writer, results []*Result, color colorMode) error {
	var sb strings.Builder
	for _, res := range results {
		status := green("PASS", color)
		if !res.OK() {
			status = red("FAIL", color)
		}
		fmt.Fprintf(&sb, "%s %s (%d/%d steps, %d screenshots, %s)\n",
			status, bold(res.Name, color), len(res.Steps), res.TotalSteps,
			len(res.Screenshots), res.Duration.Round(time.Millisecond))
		if res.Error != "" {
			fmt.Fprintf(&sb, "  error: %s\n", res.Error)
		}
		if !res.Passed {
			for _, step := range res.Steps {
				formatStepLine(&sb, step, color)
			}
		}
		switch {
		case res.DisposalError != "":
			fmt.Fprintf(&sb, "  %s: %s\n", red(string(res.Disposition)+" failed", color), res.DisposalError)
		case res.Archive != "":
			fmt.Fprintf(&sb, "  archive: %s\n", res.Archive)
		case res.Deleted:
			sb.WriteString("  screenshots deleted\n")
		case len(res.Screenshots) > 0:
			fmt.Fprintf(&sb, "  screenshots: %s\n", res.Dir)
		}
	}

	rep := NewReport(results)
	fmt.Fprintf(&sb, "\n%d passed, %d failed\n", rep.Total-rep.Failed, rep.Failed)
	_, err := io.WriteString(w, sb.String())
	return err
}

func formatStepLine(sb *strings.Builder, step StepResult, color colorMode) {
	fmt.Fprintf(sb, "  step[%d] %s", step.Index, stepLabel(step))
	if !step.Passed() {
		fmt.Fprintf(sb, " %s %s\n", red("FAILED:", color), step.Error)
		return
	}
	if step.Screenshot != "" {
		fmt.Fprintf(sb, " -> %s", step.Screenshot)
	}
	sb.WriteString("\n")
}

func stepLabel(step StepResult) string {
	return step.Command + " " + processor.FormatArgs(step.Args)
}

// JUnitTestSuites is the root element of JUnit XML output.
type JUnitTestSuites struct {
	XMLName  xml.Name         `xml:"testsuites"`
	Name     string           `xml:"name,attr"`
	Tests    int              `xml:"tests,attr"`
	Failures int              `xml:"failures,attr"`
	Errors   int              `xml:"errors,attr"`
	Time     string           `xml:"time,attr"`
	Suites   []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite holds the steps of one script.
type JUnitTestSuite struct {
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      string          `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr"`
	Cases     []JUnitTestCase `xml:"testcase"`
	SystemOut string          `xml:"system-out,omitempty"`
}

// JUnitTestCase is a single step.
type JUnitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitFailure `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitFailure describes a failed or errored test case.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

// JUnitSkipped marks a step that never ran.
type JUnitSkipped struct {
	Message string `xml:"message,attr"`
}

// FormatJUnit writes the results as JUnit XML, one suite per script and
// one case per step. Recorded screenshots and archives are listed in each
// suite's system-out so CI systems can link them.
func FormatJUnit(w io.Writer, results []*Result) error {
	root := JUnitTestSuites{Name: "shotrec", Suites: []JUnitTestSuite{}}
	var total time.Duration
	for _, res := range results {
		suite := junitSuite(res)
		root.Tests += suite.Tests
		root.Failures += suite.Failures
		root.Errors += suite.Errors
		total += res.Duration
		root.Suites = append(root.Suites, suite)
	}
	root.Time = seconds(total)

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(root); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func junitSuite(res *Result) JUnitTestSuite {
	suite := JUnitTestSuite{
		Name:      res.Name,
		Time:      seconds(res.Duration),
		Timestamp: res.StartedAt.Format(time.RFC3339),
		Cases:     []JUnitTestCase{},
	}

	for _, step := range res.Steps {
		tc := JUnitTestCase{
			Name:      fmt.Sprintf("step[%d]: %s", step.Index, stepLabel(step)),
			Classname: res.Name,
			Time:      "0.000",
		}
		if !step.Passed() {
			suite.Failures++
			tc.Failure = &JUnitFailure{Message: step.Error, Type: "StepFailure", Content: step.Error}
		}
		suite.Cases = append(suite.Cases, tc)
	}
	for i := len(res.Steps); i < res.TotalSteps; i++ {
		suite.Skipped++
		suite.Cases = append(suite.Cases, JUnitTestCase{
			Name:      fmt.Sprintf("step[%d]", i),
			Classname: res.Name,
			Time:      "0.000",
			Skipped:   &JUnitSkipped{Message: "not executed"},
		})
	}

	// Failures outside any step, such as a processor that would not start.
	if !res.Passed && suite.Failures == 0 {
		suite.Errors++
		suite.Cases = append(suite.Cases, JUnitTestCase{
			Name:      "run",
			Classname: res.Name,
			Time:      "0.000",
			Error:     &JUnitFailure{Message: res.Error, Type: "RunError", Content: res.Error},
		})
	}
	if res.DisposalError != "" {
		suite.Errors++
		suite.Cases = append(suite.Cases, JUnitTestCase{
			Name:      string(res.Disposition),
			Classname: res.Name,
			Time:      "0.000",
			Error:     &JUnitFailure{Message: res.DisposalError, Type: "DisposalError", Content: res.DisposalError},
		})
	}
	suite.Tests = len(suite.Cases)

	var out strings.Builder
	for _, s := range res.Screenshots {
		out.WriteString(s + "\n")
	}
	if res.Archive != "" {
		out.WriteString("archive: " + res.Archive + "\n")
	}
	suite.SystemOut = out.String()
	return suite
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
