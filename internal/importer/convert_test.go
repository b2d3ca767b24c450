package importer

import (
	"testing"
	"time"
)

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain value", input: "HT-2024-001", want: "HT-2024-001"},
		{name: "surrounding whitespace", input: "  abc  ", want: "abc"},
		{name: "full-width spaces", input: "　项目甲　", want: "项目甲"},
		{name: "excel formula prefix", input: `="HT-001"`, want: "HT-001"},
		{name: "bare equals prefix", input: "=123", want: "123"},
		{name: "surrounding quotes", input: `"quoted"`, want: "quoted"},
		{name: "empty", input: "", want: ""},
		{name: "tabs and newlines", input: "\tvalue\r\n", want: "value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsEmptyValue(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"-", true},
		{"/", true},
		{"无", true},
		{"暂无", true},
		{"未定", true},
		{"0", false},
		{"有", false},
		{"HT-001", false},
	}

	for _, tt := range tests {
		if got := IsEmptyValue(tt.input); got != tt.want {
			t.Errorf("IsEmptyValue(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantOK  bool
		wantVal string
	}{
		{name: "integer", input: "1000", wantOK: true, wantVal: "1000"},
		{name: "decimal", input: "1234.56", wantOK: true, wantVal: "1234.56"},
		{name: "thousands separators", input: "1,234,567.89", wantOK: true, wantVal: "1234567.89"},
		{name: "full-width separators", input: "1，234，567", wantOK: true, wantVal: "1234567"},
		{name: "yen symbol", input: "¥500.00", wantOK: true, wantVal: "500"},
		{name: "full-width yen", input: "￥1,000", wantOK: true, wantVal: "1000"},
		{name: "dollar symbol", input: "$250", wantOK: true, wantVal: "250"},
		{name: "yuan suffix", input: "300元", wantOK: true, wantVal: "300"},
		{name: "accounting negative", input: "(123.45)", wantOK: true, wantVal: "-123.45"},
		{name: "full-width accounting negative", input: "（88）", wantOK: true, wantVal: "-88"},
		{name: "explicit negative", input: "-42.5", wantOK: true, wantVal: "-42.5"},
		{name: "leading decimal point", input: ".5", wantOK: true, wantVal: "0.5"},
		{name: "excel formula wrapped", input: `="1,000.00"`, wantOK: true, wantVal: "1000"},
		{name: "blank", input: "", wantOK: false},
		{name: "empty token dash", input: "-", wantOK: false},
		{name: "empty token 无", input: "无", wantOK: false},
		{name: "not a number", input: "abc", wantOK: false},
		{name: "mixed digits and text", input: "100万", wantOK: false},
		{name: "double decimal point", input: "1.2.3", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseAmount(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseAmount(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got.String() != tt.wantVal {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got.String(), tt.wantVal)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   time.Time
	}{
		{name: "iso", input: "2024-03-15", wantOK: true, want: date(2024, time.March, 15)},
		{name: "slashes", input: "2024/03/15", wantOK: true, want: date(2024, time.March, 15)},
		{name: "dots", input: "2024.03.15", wantOK: true, want: date(2024, time.March, 15)},
		{name: "unpadded", input: "2024-3-5", wantOK: true, want: date(2024, time.March, 5)},
		{name: "chinese padded", input: "2024年03月15日", wantOK: true, want: date(2024, time.March, 15)},
		{name: "chinese unpadded", input: "2024年3月5日", wantOK: true, want: date(2024, time.March, 5)},
		{name: "compact", input: "20240315", wantOK: true, want: date(2024, time.March, 15)},
		{name: "blank", input: "", wantOK: false},
		{name: "empty token", input: "-", wantOK: false},
		{name: "garbage", input: "yesterday", wantOK: false},
		{name: "month out of range", input: "2024-13-01", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseDate(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateCode(t *testing.T) {
	valid := []string{"", "HT-2024-001", "CG_001", "项目A1", "abc123"}
	for _, code := range valid {
		if err := ValidateCode(code); err != nil {
			t.Errorf("ValidateCode(%q) = %v, want nil", code, err)
		}
	}

	invalid := []string{"HT 001", "a/b", "code;drop", "x\ty", "a.b"}
	for _, code := range invalid {
		if err := ValidateCode(code); err == nil {
			t.Errorf("ValidateCode(%q) = nil, want error", code)
		}
	}
}
