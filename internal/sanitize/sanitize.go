// Package sanitize redacts direct identifiers from applicant documents before
// they leave the machine.
package sanitize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Absent is the sentinel for a missing document. It is never redacted.
const Absent = "None"

const (
	FirstToken = "[FIRST]"
	LastToken  = "[LAST]"
	EmailToken = "[EMAIL]"
	PhoneToken = "[PHONE]"
)

var (
	placeholderRe = regexp.MustCompile(`\[(?:FIRST|LAST|EMAIL|PHONE)\]`)
	emailRe       = regexp.MustCompile(`(?i)[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}`)
	phoneRe       = regexp.MustCompile(`(?:\+?\d{1,3}[\s.-]?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`)
)

type span struct {
	start, end int
	token      string
	rank       int
}

func (s span) overlaps(o span) bool {
	return s.start < o.end && o.start < s.end
}

// Text redacts the applicant's first and last name, email addresses and phone
// numbers from text. key is the applicant key in First-Last form.
//
// Existing placeholder tokens are never matched again and overlapping matches
// resolve to the longest one, so an email address containing the applicant's
// name becomes a single [EMAIL]. Passes repeat until the text stops changing:
// a redaction can turn its neighbour into a whole word.
func Text(text, key string) string {
	if text == Absent {
		return Absent
	}

	first, last := splitKey(key)
	for {
		next := redact(text, first, last)
		if next == text {
			return text
		}
		text = next
	}
}

// redact replaces every match located on text in a single pass. Each
// replacement consumes input outside the existing placeholders, so repeated
// passes terminate.
func redact(text, first, last string) string {
	placeholders := findSpans(placeholderRe, text, "", -1)

	var candidates []span
	if first != "" {
		candidates = append(candidates, findWords(text, first, FirstToken, 0)...)
	}
	if last != "" {
		candidates = append(candidates, findWords(text, last, LastToken, 1)...)
	}
	candidates = append(candidates, findSpans(emailRe, text, EmailToken, 2)...)
	candidates = append(candidates, findSpans(phoneRe, text, PhoneToken, 3)...)

	if len(candidates) == 0 {
		return text
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		li := candidates[i].end - candidates[i].start
		lj := candidates[j].end - candidates[j].start
		if li != lj {
			return li > lj
		}
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank < candidates[j].rank
		}
		return candidates[i].start < candidates[j].start
	})

	accepted := make([]span, 0, len(candidates))
	claimed := append([]span(nil), placeholders...)
	for _, c := range candidates {
		if overlapsAny(c, claimed) {
			continue
		}
		accepted = append(accepted, c)
		claimed = append(claimed, c)
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].start < accepted[j].start })

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, s := range accepted {
		b.WriteString(text[pos:s.start])
		b.WriteString(s.token)
		pos = s.end
	}
	b.WriteString(text[pos:])
	return b.String()
}

// splitKey returns the name pieces to redact. A well-formed key has exactly two
// hyphen-separated parts; a key without a hyphen is treated as a first name
// only, and for longer keys the first and last non-empty pieces are used.
func splitKey(key string) (string, string) {
	var pieces []string
	for _, p := range strings.Split(strings.TrimSpace(key), "-") {
		if p = strings.TrimSpace(p); p != "" {
			pieces = append(pieces, p)
		}
	}

	switch len(pieces) {
	case 0:
		return "", ""
	case 1:
		return pieces[0], ""
	default:
		return pieces[0], pieces[len(pieces)-1]
	}
}

// Wellformed reports whether key splits into exactly two non-empty names.
func Wellformed(key string) bool {
	parts := strings.Split(key, "-")
	return len(parts) == 2 && strings.TrimSpace(parts[0]) != "" && strings.TrimSpace(parts[1]) != ""
}

func findSpans(re *regexp.Regexp, text, token string, rank int) []span {
	matches := re.FindAllStringIndex(text, -1)
	spans := make([]span, 0, len(matches))
	for _, m := range matches {
		spans = append(spans, span{start: m[0], end: m[1], token: token, rank: rank})
	}
	return spans
}

// findWords returns case-insensitive whole-word occurrences of name. Brackets
// of a neighbouring placeholder token are word boundaries like any other
// punctuation.
func findWords(text, name, token string, rank int) []span {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(name))

	var spans []span
	pos := 0
	for pos < len(text) {
		loc := re.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end == start {
			break
		}

		if wordBoundary(text, start, end) {
			spans = append(spans, span{start: start, end: end, token: token, rank: rank})
			pos = end
			continue
		}

		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + size
	}
	return spans
}

func wordBoundary(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func overlapsAny(s span, spans []span) bool {
	for _, o := range spans {
		if s.overlaps(o) {
			return true
		}
	}
	return false
}
