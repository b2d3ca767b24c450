package importer

import "testing"

func TestClassify(t *testing.T) {
	def := ModuleDefinition{
		Module:     ModuleProject,
		NoteColumn: colNote,
		KeyFields:  []string{colProjectCode, colProjectName},
	}

	tests := []struct {
		name string
		row  Row
		want RowClass
	}{
		{
			name: "data row",
			row:  row(2, colProjectCode, "PJ-001", colProjectName, "园区改造"),
			want: RowData,
		},
		{
			name: "fully blank",
			row:  row(3, colProjectCode, "", colProjectName, ""),
			want: RowBlank,
		},
		{
			name: "whitespace only is blank",
			row:  row(4, colProjectCode, "   ", colProjectName, "　"),
			want: RowBlank,
		},
		{
			name: "note with no keys is a template comment",
			row:  row(5, colProjectCode, "", colProjectName, "", colNote, "请按编号规范填写"),
			want: RowComment,
		},
		{
			name: "data row with a note stays data",
			row:  row(6, colProjectCode, "PJ-002", colProjectName, "二期", colNote, "补录"),
			want: RowData,
		},
		{
			name: "non-key content with a note is still a comment",
			row:  row(7, "其他", "x", colNote, "示例行"),
			want: RowComment,
		},
		{
			name: "non-key content without a note is data",
			row:  row(8, "其他", "x"),
			want: RowData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.row, def); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassify_NoNoteColumn(t *testing.T) {
	def := ModuleDefinition{Module: ModulePayment, KeyFields: []string{colContractSeq}}

	if got := Classify(row(2, colContractSeq, "S001"), def); got != RowData {
		t.Errorf("Classify(data) = %v, want RowData", got)
	}
	if got := Classify(row(3, colContractSeq, ""), def); got != RowBlank {
		t.Errorf("Classify(blank) = %v, want RowBlank", got)
	}
}
