package titlenorm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrEmptyResult indicates stripping reduced a title to nothing. That is a
// defect in the rule table, not a recoverable runtime condition.
var ErrEmptyResult = errors.New("title normalization produced an empty result")

var (
	punctPattern      = regexp.MustCompile(`[.!,:-]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize maps a raw showtime title to its canonical uppercase matching
// key. The rule table runs twice so a title carrying both a prefix and a
// suffix framing ("Members' Screening: Barry Lyndon - 50th Anniversary")
// still strips down to its core.
func Normalize(title string) (string, error) {
	working := strings.ToUpper(strings.TrimSpace(title))
	if working == "" {
		return "", fmt.Errorf("normalize title: empty input")
	}
	working = NormalizeQuotes(working)
	working = NormalizeDashes(working)
	working = NormalizeAccents(working)

	for pass := 0; pass < 2; pass++ {
		stripped, err := applyRules(working)
		if err != nil {
			return "", err
		}
		working = stripped
	}

	working = punctPattern.ReplaceAllString(working, " ")
	working = strings.ReplaceAll(working, "&", " AND ")
	working = whitespacePattern.ReplaceAllString(working, " ")
	working = strings.TrimSpace(working)
	if working == "" {
		return "", fmt.Errorf("normalize title %q: %w", title, ErrEmptyResult)
	}
	return working, nil
}

// applyRules runs the ordered rule table once; the first matching rule's
// capture group becomes the new working title.
func applyRules(title string) (string, error) {
	for _, rule := range titleRules {
		match := rule.FindStringSubmatch(title)
		if match == nil {
			continue
		}
		return strings.TrimSpace(match[1]), nil
	}
	// Unreachable: the catch-all rule matches everything.
	return "", fmt.Errorf("no normalization rule matched %q", title)
}
