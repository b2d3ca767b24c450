package importer

// report.go aggregates per-row outcomes into the run summary consumed by
// the CLI and the HTTP surface. Stages build partial reports and merge them
// rather than mutating shared counters across component boundaries.

import (
	"fmt"
	"strings"
	"time"
)

// MaxReportedErrors caps how many row errors the rendered summary shows.
const MaxReportedErrors = 10

// Report is the aggregate outcome of one import run.
type Report struct {
	RunID    string        `json:"runId,omitempty"`
	Module   Module        `json:"module"`
	DryRun   bool          `json:"dryRun,omitempty"`
	Total    int           `json:"total"`    // rows seen after the header
	Blank    int           `json:"blank"`    // skipped: every value blank
	Comments int           `json:"comments"` // skipped: template comment rows
	Created  int           `json:"created"`
	Updated  int           `json:"updated"`
	Skipped  int           `json:"skipped"` // skipped as existing duplicates
	Failed   int           `json:"failed"`
	Errors   []RowError    `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Add merges a partial report produced by a pipeline stage.
func (r *Report) Add(other *Report) {
	if other == nil {
		return
	}
	r.Total += other.Total
	r.Blank += other.Blank
	r.Comments += other.Comments
	r.Created += other.Created
	r.Updated += other.Updated
	r.Skipped += other.Skipped
	r.Failed += other.Failed
	r.Errors = append(r.Errors, other.Errors...)
}

// Fail records a row-level failure.
func (r *Report) Fail(line int, err error) {
	r.Failed++
	r.Errors = append(r.Errors, RowError{Line: line, Err: err})
}

// ErrorMessages renders all recorded errors as strings (for JSON callers).
func (r *Report) ErrorMessages() []string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return msgs
}

// Summary renders the operator-facing text: outcome counts plus the first
// MaxReportedErrors errors with a "+N more" suffix.
func (r *Report) Summary() string {
	var b strings.Builder

	verb := "imported"
	if r.DryRun {
		verb = "validated (dry run)"
	}
	fmt.Fprintf(&b, "%s %s: %d rows, created %d, updated %d, skipped %d, failed %d",
		r.Module, verb, r.Total, r.Created, r.Updated, r.Skipped, r.Failed)
	if r.Blank+r.Comments > 0 {
		fmt.Fprintf(&b, " (ignored %d blank, %d comment rows)", r.Blank, r.Comments)
	}

	if len(r.Errors) > 0 {
		b.WriteString("\nerrors:")
		n := len(r.Errors)
		if n > MaxReportedErrors {
			n = MaxReportedErrors
		}
		for _, e := range r.Errors[:n] {
			fmt.Fprintf(&b, "\n  %s", e.Error())
		}
		if rest := len(r.Errors) - n; rest > 0 {
			fmt.Fprintf(&b, "\n  +%d more", rest)
		}
	}

	return b.String()
}
