package importer

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestReadFile_CSV(t *testing.T) {
	def, _ := Definition(ModuleProject)
	path := writeTemp(t, "projects.csv",
		"项目编号,项目名称,备注\n"+
			"PJ-001,园区改造,\n"+
			"PJ-002,二期工程,补录\n")

	table, err := ReadFile(path, def, "")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if len(table.Headers) != 3 || table.Headers[0] != colProjectCode {
		t.Errorf("Headers = %v", table.Headers)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("Rows = %d, want 2", len(table.Rows))
	}
	if got := table.Rows[0].Cell(colProjectCode); got != "PJ-001" {
		t.Errorf("row 0 code = %q", got)
	}
	if table.Rows[0].Line != 2 || table.Rows[1].Line != 3 {
		t.Errorf("lines = %d, %d, want 2, 3", table.Rows[0].Line, table.Rows[1].Line)
	}
}

func TestReadFile_HeaderBelowPreamble(t *testing.T) {
	def, _ := Definition(ModuleProject)
	path := writeTemp(t, "projects.csv",
		"某单位项目台账,,\n"+
			"导出时间:2024-06-01,,\n"+
			"项目编号,项目名称,备注\n"+
			"PJ-001,园区改造,\n")

	table, err := ReadFile(path, def, "")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("Rows = %d, want 1", len(table.Rows))
	}
	if table.Rows[0].Line != 4 {
		t.Errorf("Line = %d, want 4 (1-based file position)", table.Rows[0].Line)
	}
}

func TestReadFile_HeaderNotFound(t *testing.T) {
	def, _ := Definition(ModuleProject)
	path := writeTemp(t, "other.csv", "姓名,电话\n张三,123\n")

	_, err := ReadFile(path, def, "")
	if err == nil || !strings.Contains(err.Error(), "header row not found") {
		t.Errorf("ReadFile() error = %v, want header row not found", err)
	}
}

func TestReadFile_RaggedRows(t *testing.T) {
	def, _ := Definition(ModuleProject)
	// Short row: missing trailing cells read as empty. The csv reader must
	// tolerate records of varying width.
	path := writeTemp(t, "projects.csv",
		"项目编号,项目名称,备注\n"+
			"PJ-001\n"+
			"PJ-002,二期工程,备注内容,多余列\n")

	table, err := ReadFile(path, def, "")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("Rows = %d, want 2", len(table.Rows))
	}
	if got := table.Rows[0].Cell(colProjectName); got != "" {
		t.Errorf("short row name = %q, want empty", got)
	}
	if got := table.Rows[1].Cell(colNote); got != "备注内容" {
		t.Errorf("note = %q", got)
	}
}

func TestReadFile_LogsResolvedEncoding(t *testing.T) {
	def, _ := Definition(ModuleProject)
	raw, _, err := transform.Bytes(simplifiedchinese.GB18030.NewEncoder(),
		[]byte("项目编号,项目名称,备注\nPJ-001,园区改造,\n"))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	path := writeTemp(t, "projects.csv", string(raw))

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	table, err := ReadFile(path, def, "")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got := table.Rows[0].Cell(colProjectName); got != "园区改造" {
		t.Errorf("row 0 name = %q, want decoded 园区改造", got)
	}

	// The operator sees which charset the file was decoded as.
	out := buf.String()
	if !strings.Contains(out, "encoding resolved") || !strings.Contains(out, "gb18030") {
		t.Errorf("log output = %q, want a notice naming gb18030", out)
	}
}

func TestReadFile_UTF8BOM(t *testing.T) {
	def, _ := Definition(ModuleProject)
	path := writeTemp(t, "projects.csv",
		"\xEF\xBB\xBF项目编号,项目名称\nPJ-001,园区改造\n")

	table, err := ReadFile(path, def, "")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if table.Headers[0] != colProjectCode {
		t.Errorf("Headers[0] = %q, want BOM stripped header", table.Headers[0])
	}
}

func TestReadFile_ExcelFormulaCells(t *testing.T) {
	def, _ := Definition(ModuleProject)
	path := writeTemp(t, "projects.csv",
		"项目编号,项目名称\n"+
			`="PJ-001",园区改造`+"\n")

	table, err := ReadFile(path, def, "")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got := table.Rows[0].Cell(colProjectCode); got != "PJ-001" {
		t.Errorf("code = %q, want formula prefix stripped", got)
	}
}
