package importer

// wide.go normalizes legacy wide/periodic tables into long form. A wide
// payment sheet has one row per contract and one column per period; the
// pivot emits one candidate record per non-empty period cell, so a
// 50-contract sheet spanning two years can legitimately produce over a
// thousand candidates.

import (
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// monthPattern matches YYYY + optional separator + month 1-12 +
	// optional 月 suffix, e.g. "2024年1月", "2024-03", "2024.7", "202412".
	monthPattern = regexp.MustCompile(`^(\d{4})[年./-]?(\d{1,2})月?$`)

	// halfYearPattern matches YYYY + 上/下半年, e.g. "2024年上半年".
	halfYearPattern = regexp.MustCompile(`^(\d{4})年?(上|下)半年$`)
)

// PeriodColumn is a recognized periodic column and the date its period
// maps to: monthly columns map to the first day of the month, half-year
// columns to January 1 or July 1.
type PeriodColumn struct {
	Header string
	Date   time.Time
}

// DetectPeriodColumns scans headers for periodic columns, in chronological
// order. Non-periodic headers are left for the caller to treat as
// identifier columns.
func DetectPeriodColumns(headers []string) []PeriodColumn {
	var cols []PeriodColumn
	for _, h := range headers {
		if d, ok := parsePeriod(CleanCell(h)); ok {
			cols = append(cols, PeriodColumn{Header: h, Date: d})
		}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Date.Before(cols[j].Date) })
	return cols
}

func parsePeriod(h string) (time.Time, bool) {
	if m := monthPattern.FindStringSubmatch(h); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
		}
		return time.Time{}, false
	}
	if m := halfYearPattern.FindStringSubmatch(h); m != nil {
		year, _ := strconv.Atoi(m[1])
		month := time.January
		if m[2] == "下" {
			month = time.July
		}
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// WideRecord is one pivoted (identifier, period, value) candidate.
type WideRecord struct {
	Line   int // source row line
	Ident  string
	Period time.Time
	Amount decimal.Decimal
}

// PivotWide turns wide rows into long candidates. Cells that are blank,
// non-numeric, or not strictly positive produce no candidate. identCol
// names the identifier column whose value keys each record.
func PivotWide(rows []Row, identCol string, periods []PeriodColumn) []WideRecord {
	var out []WideRecord
	for _, row := range rows {
		ident := CleanCell(row.Cell(identCol))
		for _, p := range periods {
			raw := row.Cell(p.Header)
			amount, ok := ParseAmount(raw)
			if !ok || !amount.IsPositive() {
				continue
			}
			out = append(out, WideRecord{
				Line:   row.Line,
				Ident:  ident,
				Period: p.Date,
				Amount: amount,
			})
		}
	}
	return out
}
