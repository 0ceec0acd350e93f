package resolver

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const monthPattern = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

// dateExpr covers calendar dates (and the preposition in front of them) so
// their digits are never read as quantities.
var dateExpr = regexp.MustCompile(`(?i)(?:\b(?:by|before|on|until|no later than)\s+)?(?:\b(?:mon|tue|wed|thu|fri|sat|sun)[a-z]*,?\s+)?(?:\b` +
	monthPattern + `\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b|\b\d{4}-\d{2}-\d{2}\b)`)

var unitWords = []string{"sheets of", "sheet of", "reams of", "ream of", "packets of", "packet of", "of"}

// RequestedItem is one "quantity phrase" fragment of a request. ItemName is
// empty when the phrase did not resolve.
type RequestedItem struct {
	Phrase   string  `json:"phrase"`
	Quantity int     `json:"quantity"`
	ItemName string  `json:"item_name,omitempty"`
	Score    float64 `json:"score"`
}

type fragment struct {
	start       int // quantity
	phraseStart int
	phraseEnd   int // trailing whitespace excluded
	quantity    string
}

func (f fragment) phrase(text string) string {
	return text[f.phraseStart:f.phraseEnd]
}

// NormalizeRequest rewrites every resolvable item phrase to its catalog
// name, keeping the quantity and unit words verbatim. Applying it twice is
// the same as applying it once.
func (r *Resolver) NormalizeRequest(text string) string {
	frags := scanFragments(text)
	if len(frags) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, f := range frags {
		name, _, ok := r.Resolve(f.phrase(text), DefaultThreshold)
		if !ok {
			continue
		}
		b.WriteString(text[last:f.phraseStart])
		b.WriteString(name)
		last = f.phraseEnd
	}
	b.WriteString(text[last:])
	return b.String()
}

// ExtractItems returns the requested (phrase, quantity) pairs in request
// order. Only fragments whose phrase has no letters are skipped; a zero
// quantity is kept so the quote can reject it, and unresolved phrases are
// kept with an empty ItemName.
func (r *Resolver) ExtractItems(text string) []RequestedItem {
	var items []RequestedItem
	for _, f := range scanFragments(text) {
		phrase := collapse(f.phrase(text))
		if !hasLetter(phrase) {
			continue
		}
		qty, err := strconv.Atoi(f.quantity)
		if err != nil {
			continue
		}
		item := RequestedItem{Phrase: phrase, Quantity: qty}
		if name, score, ok := r.Resolve(phrase, DefaultThreshold); ok {
			item.ItemName = name
			item.Score = score
		}
		items = append(items, item)
	}
	return items
}

func scanFragments(text string) []fragment {
	masked := maskDates(text)
	var out []fragment
	for i := 0; i < len(masked); {
		if f, ok := matchFragment(masked, i); ok {
			out = append(out, f)
			i = f.phraseEnd
			continue
		}
		i++
	}
	return out
}

// maskDates blanks date expressions without shifting offsets. The leading
// comma ends any phrase that runs into a date.
func maskDates(text string) string {
	locs := dateExpr.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}
	b := []byte(text)
	for _, loc := range locs {
		b[loc[0]] = ','
		for i := loc[0] + 1; i < loc[1]; i++ {
			b[i] = ' '
		}
	}
	return string(b)
}

// matchFragment reads: quantity, whitespace, optional unit word, phrase up
// to a newline, comma, period, " and ", or end of text.
func matchFragment(s string, i int) (fragment, bool) {
	if !isDigit(s[i]) || (i > 0 && isAlnum(s[i-1])) {
		return fragment{}, false
	}

	j := i
	for j < len(s) && (isDigit(s[j]) || (s[j] == ',' && j+1 < len(s) && isDigit(s[j+1]))) {
		j++
	}
	qty := strings.ReplaceAll(s[i:j], ",", "")

	k := skipSpace(s, j)
	if k == j {
		return fragment{}, false
	}
	if n := unitWordLen(s[k:]); n > 0 {
		k = skipSpace(s, k+n)
	}

	p, e := k, k
	for {
		if e > p && atTerminator(s, e) {
			break
		}
		if e >= len(s) || !inPhraseSet(s[e]) {
			return fragment{}, false
		}
		e++
	}

	end := p + len(strings.TrimRight(s[p:e], " \t\r\n"))
	if end == p {
		return fragment{}, false
	}
	return fragment{start: i, phraseStart: p, phraseEnd: end, quantity: qty}, true
}

func unitWordLen(s string) int {
	for _, u := range unitWords {
		if len(s) > len(u) && strings.EqualFold(s[:len(u)], u) && isSpace(s[len(u)]) {
			return len(u)
		}
	}
	return 0
}

func atTerminator(s string, e int) bool {
	if e >= len(s) {
		return true
	}
	switch s[e] {
	case '\n', ',', '.':
		return true
	}
	if !isSpace(s[e]) {
		return false
	}
	k := skipSpace(s, e)
	if len(s)-k < 4 || !strings.EqualFold(s[k:k+3], "and") {
		return false
	}
	return isSpace(s[k+3])
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

// inPhraseSet also admits every non-ASCII byte so accented names and
// typographic punctuation stay inside the phrase.
func inPhraseSet(c byte) bool {
	return isAlnum(c) || isSpace(c) || c >= utf8.RuneSelf || strings.IndexByte(`()'"-&/+`, c) >= 0
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlnum(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func hasLetter(s string) bool {
	for _, c := range s {
		if unicode.IsLetter(c) {
			return true
		}
	}
	return false
}
