package importer

// classify.go separates real data rows from the noise that ships in ledger
// templates: fully blank rows and "how to fill this in" comment rows.
//
// The comment heuristic is deliberately asymmetric: a row is a template
// comment only when the note column is non-blank AND every key identifier
// field is blank. A genuine data row that happens to carry a note is kept.

// RowClass is the classification of a single input row.
type RowClass int

const (
	RowData RowClass = iota
	RowBlank
	RowComment
)

// Classify determines whether a row is data, blank, or a template comment,
// per the module's note-column and key-field configuration.
func Classify(row Row, def ModuleDefinition) RowClass {
	note := ""
	if def.NoteColumn != "" {
		note = CleanCell(row.Cell(def.NoteColumn))
	}

	// Blank check ignores the note column: a row whose only content is a
	// note carries no data either way.
	blank := true
	for name, v := range row.Cells {
		if name == def.NoteColumn {
			continue
		}
		if CleanCell(v) != "" {
			blank = false
			break
		}
	}
	if blank && note == "" {
		return RowBlank
	}

	if note != "" {
		keysBlank := true
		for _, key := range def.KeyFields {
			if CleanCell(row.Cell(key)) != "" {
				keysBlank = false
				break
			}
		}
		if keysBlank {
			return RowComment
		}
	}

	if blank {
		return RowBlank
	}
	return RowData
}
