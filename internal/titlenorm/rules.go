package titlenorm

import "regexp"

// titleRules is the ordered strip-rule table. Each rule has exactly one
// capture group holding the core title; the first matching rule wins.
// Order matters: specific prefix and suffix framings must precede the
// catch-all identity rule, which is last and matches anything.
var titleRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Bar Trash: (.*)$`),
	regexp.MustCompile(`(?i)^CAMP CLASSICS presents: (.*)$`),
	regexp.MustCompile(`(?i)^Carers & Babies: (.*)$`),
	regexp.MustCompile(`(?i)^Parent & Baby: (.*)$`),
	regexp.MustCompile(`(?i)^Parent & Baby Screening: (.*)$`),
	regexp.MustCompile(`(?i)^Relaxed Screening: (.*)$`),
	regexp.MustCompile(`(?i)^Senior Community Screening: (.*)$`),
	regexp.MustCompile(`(?i)^Seniors' Free Matinee: (.*)$`),
	regexp.MustCompile(`(?i)^Seniors' Paid Matinee: (.*)$`),
	regexp.MustCompile(`(?i)^Cine-real presents: (.*)$`),
	regexp.MustCompile(`(?i)^Cinematix Escapes Presents: (.*)$`),
	regexp.MustCompile(`(?i)^Classic Matinee: (.*)$`),
	regexp.MustCompile(`(?i)^Member exclusive: (.*)$`),
	regexp.MustCompile(`(?i)^Member Picks: (.*)$`),
	regexp.MustCompile(`(?i)^Members' Screening: (.*)$`),
	regexp.MustCompile(`(?i)^Outdoor Cinema: (.*)$`),
	regexp.MustCompile(`(?i)^Phoenix Classics: *(.*)$`),
	regexp.MustCompile(`(?i)^Family Films: (.*)$`),
	regexp.MustCompile(`(?i)^Funeral Parade Presents '(.*)'$`),
	regexp.MustCompile(`(?i)^SING-A-LONG-A (.*)$`),
	regexp.MustCompile(`(?i)^.* FILM FESTIVAL: (.*)$`),
	regexp.MustCompile(`(?i)^(.*) *\+ intro by .*$`),
	regexp.MustCompile(`(?i)^(.*) *\+ introduction by .*$`),
	regexp.MustCompile(`(?i)^(.*) *plus intro by .*$`),
	regexp.MustCompile(`(?i)^(.*) *with intro by .*$`),
	regexp.MustCompile(`(?i)^(.*) *\+ pre-recorded intro by .*$`),
	regexp.MustCompile(`(?i)^(.*) *\+ Panel discussion\b.*$`),
	regexp.MustCompile(`(?i)^(.*) *plus Panel discussion\b.*$`),
	regexp.MustCompile(`(?i)^(.*) *\+ Q&A\b.*$`),
	regexp.MustCompile(`(?i)^(.*) *plus Q&A\b.*$`),
	regexp.MustCompile(`(?i)^(.*) *\+ recorded Q&A\b.*$`),
	regexp.MustCompile(`(?i)^(.*) *plus recorded Q&A\b.*$`),
	regexp.MustCompile(`(?i)^(.*) *\+ director Q&A\b.*$`),
	regexp.MustCompile(`(?i)^(.*) *plus director Q&A\b.*$`),
	regexp.MustCompile(`(?i)^(.*) \(\d\dth anniversary\)$`),
	regexp.MustCompile(`(?i)^(.*) *- *\d\dth anniversary$`),
	regexp.MustCompile(`(?i)^(.*) *\(Subtitled\) *$`),
	regexp.MustCompile(`(?i)^(.*) *\[Subtitled\] *$`),
	regexp.MustCompile(`(?i)^(.*) *\(IMAX\) *$`),
	regexp.MustCompile(`(?i)^(.*) *Classics Presented in 35mm$`),
	regexp.MustCompile(`(?i)^(.*)$`),
}
