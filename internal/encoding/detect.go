// Package encoding resolves the character encoding of uploaded spreadsheet
// files and converts their contents to UTF-8.
//
// Detection is heuristic: a fixed-size byte prefix is decoded with each
// candidate encoding and the result scored by how much of it reads as
// plausible text (CJK and printable ASCII). The detected encoding is only
// accepted above a confidence threshold; otherwise the caller's default wins.
// Resolution never fails outright.
package encoding

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DetectPrefixSize is how many bytes of the file are inspected for detection.
const DetectPrefixSize = 64 * 1024

// ConfidenceThreshold is the minimum score ratio for a detected encoding to
// override the declared default.
const ConfidenceThreshold = 0.60

// DefaultEncoding is the BOM-aware UTF-8 variant assumed when nothing else
// is declared.
const DefaultEncoding = "utf-8-sig"

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// aliases maps declared encoding names to their canonical form. The
// simplified-Chinese family is folded into gb18030, which is a superset of
// gbk and gb2312.
var aliases = map[string]string{
	"utf8":        "utf-8",
	"utf-8":       "utf-8",
	"utf-8-sig":   "utf-8",
	"utf_8_sig":   "utf-8",
	"gb2312":      "gb18030",
	"gb-2312":     "gb18030",
	"gbk":         "gb18030",
	"cp936":       "gb18030",
	"gb18030":     "gb18030",
	"big5":        "big5",
	"cp950":       "big5",
	"windows1252": "windows-1252",
	"latin1":      "windows-1252",
	"iso-8859-1":  "windows-1252",
}

// byName maps canonical names to their x/text encodings.
var byName = map[string]xencoding.Encoding{
	"utf-8":        xencoding.Nop,
	"gb18030":      simplifiedchinese.GB18030,
	"big5":         traditionalchinese.Big5,
	"windows-1252": charmap.Windows1252,
	"utf-16le":     xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM),
	"utf-16be":     xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM),
}

// Canonical normalizes a declared encoding name. Unknown names are returned
// lowercased so the failure surfaces at decode time with the operator's
// spelling intact.
func Canonical(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "_", "-")
	if c, ok := aliases[key]; ok {
		return c
	}
	return key
}

// Detect inspects raw file bytes and returns the canonical name of the
// encoding to use. fallback is the operator-declared default; it is kept
// whenever no candidate clears the confidence threshold.
func Detect(data []byte, fallback string) string {
	def := Canonical(fallback)
	if def == "" {
		def = Canonical(DefaultEncoding)
	}
	if len(data) == 0 {
		return def
	}

	// BOM wins outright.
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return "utf-8"
	case bytes.HasPrefix(data, bomUTF16LE):
		return "utf-16le"
	case bytes.HasPrefix(data, bomUTF16BE):
		return "utf-16be"
	}

	prefix := data
	if len(prefix) > DetectPrefixSize {
		prefix = prefix[:DetectPrefixSize]
	}

	if utf8.Valid(prefix) {
		return "utf-8"
	}

	best, bestScore := "", 0.0
	for _, name := range []string{"gb18030", "big5", "windows-1252"} {
		decoded, _, err := transform.Bytes(byName[name].NewDecoder(), prefix)
		if err != nil || !utf8.Valid(decoded) {
			continue
		}
		if score := textScore(decoded); score > bestScore {
			best, bestScore = name, score
		}
	}

	if best != "" && bestScore >= ConfidenceThreshold {
		return best
	}
	return def
}

// DecodeToUTF8 converts data from the named encoding to UTF-8, stripping a
// leading byte order mark if present.
func DecodeToUTF8(data []byte, name string) ([]byte, error) {
	canonical := Canonical(name)

	switch canonical {
	case "utf-8":
		return bytes.TrimPrefix(data, bomUTF8), nil
	case "utf-16le":
		data = bytes.TrimPrefix(data, bomUTF16LE)
	case "utf-16be":
		data = bytes.TrimPrefix(data, bomUTF16BE)
	}

	enc, ok := byName[canonical]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", canonical, err)
	}
	return decoded, nil
}

// textScore rates decoded text by the share of runes that look like real
// spreadsheet content: CJK, printable ASCII, whitespace, and common
// full-width punctuation.
func textScore(data []byte) float64 {
	total, good := 0, 0
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		total++
		switch {
		case r == utf8.RuneError:
			// counts against the score
		case unicode.Is(unicode.Han, r),
			r >= 0x20 && r < 0x7F,
			r == '\n' || r == '\r' || r == '\t',
			r >= 0xFF00 && r <= 0xFFEF, // full-width forms
			r == '　' || (r >= '、' && r <= '〿'): // CJK punctuation
			good++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(good) / float64(total)
}
