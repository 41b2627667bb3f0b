package match

import (
	"strings"
	"unicode"
)

// Normalize folds an element or key name for fuzzy comparison:
// "InvoiceAddRq", "invoice_add_rq" and "INVOICE-ADD-RQ" all become
// "invoiceaddrq".
func Normalize(s string) string {
	return strings.Join(Tokens(s), "")
}

// Tokens splits a name into lowercase words at separators and case
// boundaries. An acronym stays one word: "QBXMLMsgsRq" gives
// ["qbxml", "msgs", "rq"].
func Tokens(s string) []string {
	var (
		tokens  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			flush()

			continue
		}

		if i > 0 && wordStart(runes, i) {
			flush()
		}

		current.WriteRune(r)
	}

	flush()

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.' || r == ':'
}

// wordStart reports whether runes[i] begins a new word: a lower-to-upper
// step ("invoiceRef") or the last capital of an acronym followed by
// lowercase ("XMLParser").
func wordStart(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(r) {
		return false
	}

	if !unicode.IsUpper(prev) && !isSeparator(prev) {
		return true
	}

	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
