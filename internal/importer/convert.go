package importer

// convert.go normalizes raw spreadsheet cell values into typed values.
//
// The exports here handle the messy reality of ledger spreadsheets:
//   - Amounts with currency symbols (¥, ￥, $), thousands separators
//     (both ASCII and full-width commas), and accounting-style negatives
//   - Dates in several literal formats, including Chinese 年月日 layouts
//   - Explicit empty-value tokens such as "无" and "-"
//   - Excel formula prefixes (="value") and stray quoting

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// numericRegex validates an amount string after symbol cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// codeRegex bounds the characters allowed in business codes. Anything
// outside letters, digits, CJK, and -_ is rejected before persistence.
var codeRegex = regexp.MustCompile(`^[\p{Han}A-Za-z0-9_-]+$`)

// emptyTokens are cell values that explicitly mean "no value".
var emptyTokens = map[string]bool{
	"-":  true,
	"/":  true,
	"无":  true,
	"暂无": true,
	"未定": true,
}

// dateLayouts are the literal date formats accepted, most common first.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"2006-1-2",
	"2006/1/2",
	"2006.1.2",
	"2006年01月02日",
	"2006年1月2日",
	"20060102",
}

// CleanCell strips common spreadsheet artifacts from a cell value:
// surrounding whitespace (including full-width spaces), the Excel formula
// prefix (="..."), and stray surrounding quotes.
func CleanCell(s string) string {
	s = strings.Trim(s, " \t\r\n 　")

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.Trim(s, " \t 　")
}

// IsEmptyValue reports whether a cleaned cell value carries no data,
// either blank or one of the explicit empty tokens.
func IsEmptyValue(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || emptyTokens[s]
}

// ParseAmount converts a currency/decimal string to a decimal value.
// Returns false for blank values, empty tokens, and malformed numbers.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = CleanCell(s)
	if IsEmptyValue(s) {
		return decimal.Decimal{}, false
	}

	// Accounting-style negative: (123.45)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	} else if strings.HasPrefix(s, "（") && strings.HasSuffix(s, "）") {
		negative = true
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(s, "（"), "）"))
	}

	for _, sym := range []string{"¥", "￥", "$", "元", ",", "，", " "} {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseDate converts a date string to a date-only UTC time.
// Returns false for blank values, empty tokens, and unrecognized formats.
func ParseDate(s string) (time.Time, bool) {
	s = CleanCell(s)
	if IsEmptyValue(s) {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ValidateCode checks that a business code is safe to persist and embed in
// derived codes. Empty codes are the caller's concern.
func ValidateCode(code string) error {
	if code == "" {
		return nil
	}
	if !codeRegex.MatchString(code) {
		return &ValidationError{Field: "", Value: code, Message: "code contains invalid characters"}
	}
	return nil
}
