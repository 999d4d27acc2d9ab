package cinema

import (
	"fmt"
	"regexp"
	"strings"
)

// postcodePattern matches UK postcodes such as SW1Y 5AH, M1 1AA, or B33 8TH,
// with or without the separating space. The [0-9R] district position admits
// the handful of central-London codes like W1R.
var postcodePattern = regexp.MustCompile(`\b[A-Z]{1,2}[0-9R][0-9A-Z]?\s?[0-9][A-Z]{2}\b`)

// ExtractPostcode pulls the first UK postcode out of free-text. The result is
// normalized to upper case with a single space before the inward code. An
// input with no recognizable postcode is an error, never a guessed value.
func ExtractPostcode(text string) (string, error) {
	match := postcodePattern.FindString(strings.ToUpper(text))
	if match == "" {
		return "", fmt.Errorf("no UK postcode found in %q", text)
	}
	if !strings.Contains(match, " ") {
		match = match[:len(match)-3] + " " + match[len(match)-3:]
	}
	return match, nil
}
