// Package textnorm cleans text scraped from rendered pages: it strips
// invisible formatting characters, collapses whitespace and filters body
// paragraphs before they are stored.
package textnorm

import (
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

// invisible lists the directional and formatting characters removed by
// Normalize.
var invisible = strings.NewReplacer(
	"\u200c", "",
	"\u200f", "",
	"\u202a", "",
	"\u202b", "",
	"\u202c", "",
	"\u202d", "",
	"\u202e", "",
	"\ufeff", "",
)

// DefaultBlocklist holds substrings that mark boilerplate paragraphs on the
// harvested site (channel promotions, market widgets, separators).
var DefaultBlocklist = []string{
	"ما را در کانال تلگرامی",
	"بازار",
	"* * *",
}

// DefaultMinLength is the shortest paragraph, in characters, that Clean keeps.
const DefaultMinLength = 2

// Normalize removes invisible formatting characters, turns line breaks into
// spaces, collapses whitespace runs to a single space and trims the result.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = invisible.Replace(s)
	// strings.Fields splits on every unicode space, \r and \n included
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeLines normalizes each line of s on its own and drops blank lines,
// keeping the newline structure of already-cleaned body text.
func NormalizeLines(s string) string {
	lines := lo.Map(strings.Split(s, "\n"), func(line string, _ int) string {
		return Normalize(line)
	})
	return strings.Join(lo.Compact(lines), "\n")
}

// Cleaner filters and deduplicates body paragraphs.
type Cleaner struct {
	Blocklist []string
	MinLength int
}

// NewCleaner returns a cleaner with the default blocklist and minimum length.
func NewCleaner() *Cleaner {
	return &Cleaner{
		Blocklist: DefaultBlocklist,
		MinLength: DefaultMinLength,
	}
}

// Clean normalizes every paragraph, drops empty, blocklisted and too short
// ones, removes duplicates keeping the first occurrence and joins the
// survivors with newlines.
func (c *Cleaner) Clean(paragraphs []string) string {
	normalized := lo.Map(paragraphs, func(p string, _ int) string {
		return Normalize(p)
	})

	kept := lo.Filter(normalized, func(p string, _ int) bool {
		if p == "" {
			return false
		}
		if c.blocked(p) {
			return false
		}
		return utf8.RuneCountInString(p) >= c.MinLength
	})

	return strings.Join(lo.Uniq(kept), "\n")
}

func (c *Cleaner) blocked(p string) bool {
	return lo.ContainsBy(c.Blocklist, func(snippet string) bool {
		return snippet != "" && strings.Contains(p, snippet)
	})
}
