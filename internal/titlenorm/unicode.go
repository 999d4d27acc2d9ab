package titlenorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// quoteReplacer maps curly and typographic quote characters to straight ones.
var quoteReplacer = strings.NewReplacer(
	"‘", "'", // left single quotation mark
	"’", "'", // right single quotation mark
	"‚", "'", // single low-9 quotation mark
	"‛", "'", // single high-reversed-9 quotation mark
	"‹", "'", // single left-pointing angle quotation mark
	"›", "'", // single right-pointing angle quotation mark
	"“", `"`, // left double quotation mark
	"”", `"`, // right double quotation mark
	"„", `"`, // double low-9 quotation mark
	"‟", `"`, // double high-reversed-9 quotation mark
	"«", `"`, // left-pointing double angle quotation mark
	"»", `"`, // right-pointing double angle quotation mark
)

// dashReplacer maps every supported dash variant to a plain hyphen.
var dashReplacer = strings.NewReplacer(
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"―", "-", // horizontal bar
	"−", "-", // minus sign
)

// ligatureReplacer resolves characters that canonical decomposition leaves
// structurally intact.
var ligatureReplacer = strings.NewReplacer(
	"æ", "ae", // ae ligature
	"Æ", "AE",
	"œ", "oe", // oe ligature
	"Œ", "OE",
	"ß", "ss", // sharp s
	"ẞ", "SS",
	"ø", "o", // slashed o
	"Ø", "O",
)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeQuotes converts curly and typographic quote characters to their
// straight ASCII equivalents.
func NormalizeQuotes(text string) string {
	return quoteReplacer.Replace(text)
}

// NormalizeDashes converts en dashes, em dashes, horizontal bars, figure
// dashes, and minus signs to plain hyphens.
func NormalizeDashes(text string) string {
	return dashReplacer.Replace(text)
}

// NormalizeAccents decomposes accented Latin characters to their base ASCII
// letters, resolving ligatures that decomposition does not.
func NormalizeAccents(text string) string {
	text = ligatureReplacer.Replace(text)
	stripped, _, err := transform.String(accentStripper, text)
	if err != nil {
		return text
	}
	return stripped
}
