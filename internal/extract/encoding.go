package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// decodeBytes converts archive member bytes to a UTF-8 string, trying UTF-8,
// Shift_JIS, then EUC-JP. When nothing decodes cleanly the bytes are taken as
// UTF-8 with replacement runes.
func decodeBytes(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	if decoded, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), raw); err == nil && utf8.Valid(decoded) {
		return string(decoded)
	}
	if decoded, _, err := transform.Bytes(japanese.EUCJP.NewDecoder(), raw); err == nil && utf8.Valid(decoded) {
		return string(decoded)
	}
	return string(bytes.ToValidUTF8(raw, []byte("�")))
}

// fullwidth digit and sign normalization for numeric text found in filings.
var numeralReplacer = strings.NewReplacer(
	"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
	"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
	"．", ".", "，", "", ",", "",
	"－", "-", "−", "-", "―", "-", "ー", "-",
	"＋", "+",
)

// normalizeNumeral cleans a numeric string: full-width digits, comma
// separators, and the bookkeeping negatives △/▲.
func normalizeNumeral(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	negative := false
	if strings.HasPrefix(s, "△") || strings.HasPrefix(s, "▲") {
		negative = true
		s = strings.TrimPrefix(strings.TrimPrefix(s, "△"), "▲")
	}
	s = numeralReplacer.Replace(s)
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimPrefix(s, "-")
	}
	if s == "" {
		return "", false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return "", false
		}
	}
	if negative {
		s = "-" + s
	}
	return s, true
}
