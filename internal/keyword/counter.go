package keyword

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"keywordanalyzer/internal/model"
)

// Counter counts case-insensitive whole-word occurrences of a fixed keyword list.
type Counter struct {
	keywords []string
	patterns []*regexp.Regexp
}

func NewCounter(keywords []string) *Counter {
	c := &Counter{
		keywords: append([]string(nil), keywords...),
		patterns: make([]*regexp.Regexp, len(keywords)),
	}
	for i, kw := range keywords {
		if kw == "" {
			continue
		}
		c.patterns[i] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(kw))
	}
	return c
}

func (c *Counter) Keywords() []string {
	return c.keywords
}

// Count returns one entry per keyword, in keyword order.
func (c *Counter) Count(text string) []model.KeywordCount {
	counts := make([]model.KeywordCount, len(c.keywords))
	for i, kw := range c.keywords {
		counts[i] = model.KeywordCount{Keyword: kw, Count: countWord(c.patterns[i], text)}
	}
	return counts
}

// CountWord counts non-overlapping case-insensitive matches of keyword in text that
// are not adjacent to a word character.
func CountWord(keyword, text string) int {
	if keyword == "" {
		return 0
	}
	return countWord(regexp.MustCompile(`(?i)`+regexp.QuoteMeta(keyword)), text)
}

// countWord resumes one rune past a rejected candidate so that a match
// overlapping it is still found.
func countWord(re *regexp.Regexp, text string) int {
	if re == nil {
		return 0
	}
	count := 0
	pos := 0
	for pos <= len(text) {
		loc := re.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end == start {
			break
		}
		if isBoundary(text, start, end) {
			count++
			pos = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + size
	}
	return count
}

func isBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
