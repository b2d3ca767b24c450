package importer

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestReport_Add(t *testing.T) {
	total := &Report{Module: ModuleContract}

	total.Add(&Report{Total: 5, Blank: 1, Created: 3, Failed: 1,
		Errors: []RowError{{Line: 4, Err: errors.New("bad row")}}})
	total.Add(&Report{Total: 2, Comments: 1, Updated: 1})
	total.Add(nil)

	if total.Total != 7 || total.Blank != 1 || total.Comments != 1 {
		t.Errorf("row counts = %d/%d/%d, want 7/1/1", total.Total, total.Blank, total.Comments)
	}
	if total.Created != 3 || total.Updated != 1 || total.Failed != 1 {
		t.Errorf("outcomes = %d/%d/%d, want 3/1/1", total.Created, total.Updated, total.Failed)
	}
	if len(total.Errors) != 1 || total.Errors[0].Line != 4 {
		t.Errorf("Errors = %v", total.Errors)
	}
}

func TestReport_Fail(t *testing.T) {
	r := &Report{}
	r.Fail(7, errors.New("boom"))

	if r.Failed != 1 {
		t.Errorf("Failed = %d, want 1", r.Failed)
	}
	if len(r.Errors) != 1 || r.Errors[0].Line != 7 {
		t.Errorf("Errors = %v", r.Errors)
	}
	if got := r.Errors[0].Error(); got != "line 7: boom" {
		t.Errorf("Error() = %q", got)
	}
}

func TestReport_Summary(t *testing.T) {
	r := &Report{
		Module: ModuleProject,
		Total:  10, Created: 6, Updated: 1, Skipped: 1, Failed: 2,
		Blank: 1, Comments: 1,
	}
	r.Fail(3, errors.New("missing code"))

	got := r.Summary()
	for _, want := range []string{
		"project imported",
		"10 rows",
		"created 6",
		"ignored 1 blank, 1 comment rows",
		"line 3: missing code",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary() = %q, missing %q", got, want)
		}
	}
}

func TestReport_SummaryDryRun(t *testing.T) {
	r := &Report{Module: ModulePayment, DryRun: true, Total: 1}
	if got := r.Summary(); !strings.Contains(got, "validated (dry run)") {
		t.Errorf("Summary() = %q, want dry run marker", got)
	}
}

func TestReport_SummaryTruncatesErrors(t *testing.T) {
	r := &Report{Module: ModuleContract}
	for i := 1; i <= 15; i++ {
		r.Fail(i, fmt.Errorf("error %d", i))
	}

	got := r.Summary()
	if !strings.Contains(got, "line 1: error 1") || !strings.Contains(got, "line 10: error 10") {
		t.Errorf("Summary() = %q, want the first %d errors shown", got, MaxReportedErrors)
	}
	if strings.Contains(got, "line 11: error 11") {
		t.Errorf("Summary() = %q, must not show errors past the cap", got)
	}
	if !strings.Contains(got, "+5 more") {
		t.Errorf("Summary() = %q, want +5 more suffix", got)
	}
}

func TestReport_ErrorMessages(t *testing.T) {
	r := &Report{}
	r.Fail(2, errors.New("a"))
	r.Fail(5, errors.New("b"))

	got := r.ErrorMessages()
	want := []string{"line 2: a", "line 5: b"}
	if len(got) != len(want) {
		t.Fatalf("ErrorMessages() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ErrorMessages()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
