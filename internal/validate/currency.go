// Package validate holds the input formatting and format checks shared by
// the catalog, the negotiation engine and the navigation controller.
package validate

import "strings"

// CurrencyPrefix is prepended to every formatted amount.
const CurrencyPrefix = "Rp"

// FormatRupiah keeps only the digits of s and groups them in thousands
// with '.', e.g. "500000" -> "Rp500.000". Input without digits formats
// to "". Applying it to its own output returns the same string.
func FormatRupiah(s string) string {
	digits := DigitsOnly(s)
	if digits == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(CurrencyPrefix) + len(digits) + len(digits)/3)
	b.WriteString(CurrencyPrefix)

	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ValidCurrency reports whether s is a non-empty, already formatted amount.
func ValidCurrency(s string) bool {
	return s != "" && FormatRupiah(s) == s
}

// DigitsOnly drops every character that is not an ASCII digit. Used for
// amounts and for the phone field as it is typed.
func DigitsOnly(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
