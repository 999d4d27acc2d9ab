// Package titlenorm converts raw, human-authored showtime titles into
// canonical uppercase matching keys. Cinemas wrap the same film in shifting
// promotional framing ("Members' Screening: ...", "... + Q&A"); stripping
// that framing keeps one film from fragmenting into several identities.
package titlenorm
