// Package resolver maps free-text item phrases onto catalog names using
// TF-IDF cosine similarity over the catalog.
package resolver

import (
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

const DefaultThreshold = 0.3

var (
	tokenPattern       = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)
	parentheticalRegex = regexp.MustCompile(`\([\w\s-]+\)`)
	qualifierRegex     = regexp.MustCompile(`(?i)\b(high-quality|heavy|white|assorted colors|various colors|standard|printer)\b`)
	spaceRun           = regexp.MustCompile(`\s+`)
)

type vector map[int]float64

// Resolver is immutable after New and safe for concurrent use.
type Resolver struct {
	names   []string
	vocab   map[string]int
	idf     []float64
	vectors []vector
}

// New fits the vectorizer over names. Order matters: on equal scores the
// earliest name wins.
func New(names []string) *Resolver {
	r := &Resolver{
		names: append([]string(nil), names...),
		vocab: make(map[string]int),
	}

	docs := make([][]string, len(names))
	var df []int
	for i, name := range names {
		docs[i] = tokenize(name)
		seen := make(map[int]bool)
		for _, tok := range docs[i] {
			idx, ok := r.vocab[tok]
			if !ok {
				idx = len(df)
				r.vocab[tok] = idx
				df = append(df, 0)
			}
			if !seen[idx] {
				seen[idx] = true
				df[idx]++
			}
		}
	}

	n := float64(len(names))
	r.idf = make([]float64, len(df))
	for i, d := range df {
		r.idf[i] = math.Log((1+n)/(1+float64(d))) + 1
	}

	r.vectors = make([]vector, len(names))
	for i, toks := range docs {
		r.vectors[i] = r.weigh(toks)
	}
	return r
}

// Names returns the catalog names in fit order.
func (r *Resolver) Names() []string {
	return append([]string(nil), r.names...)
}

// Resolve returns the best catalog match for phrase when its score reaches
// threshold. An exact (case-insensitive) catalog name always resolves to
// itself with score 1.
func (r *Resolver) Resolve(phrase string, threshold float64) (string, float64, bool) {
	trimmed := collapse(phrase)
	for _, name := range r.names {
		if strings.EqualFold(trimmed, name) {
			return name, 1, true
		}
	}

	cleaned := CleanPhrase(phrase)
	if cleaned == "" {
		return "", 0, false
	}
	idx, score := r.best(cleaned)
	if idx < 0 || score < threshold {
		return "", 0, false
	}
	return r.names[idx], score, true
}

// Score is the raw cosine similarity between phrase and the catalog entry
// at index i, without cleaning.
func (r *Resolver) Score(phrase string, i int) float64 {
	if i < 0 || i >= len(r.vectors) {
		return 0
	}
	return dot(r.weigh(tokenize(phrase)), r.vectors[i])
}

func (r *Resolver) best(phrase string) (int, float64) {
	q := r.weigh(tokenize(phrase))
	if len(q) == 0 {
		return -1, 0
	}
	bestIdx, bestScore := -1, 0.0
	for i, v := range r.vectors {
		if s := dot(q, v); s > bestScore {
			bestIdx, bestScore = i, s
		}
	}
	return bestIdx, bestScore
}

// weigh builds an l2-normalized tf-idf vector; tokens outside the fitted
// vocabulary are ignored.
func (r *Resolver) weigh(tokens []string) vector {
	v := make(vector)
	for _, tok := range tokens {
		if idx, ok := r.vocab[tok]; ok {
			v[idx]++
		}
	}
	var norm float64
	for idx, tf := range v {
		w := tf * r.idf[idx]
		v[idx] = w
		norm += w * w
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	for idx := range v {
		v[idx] /= norm
	}
	return v
}

func dot(a, b vector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var s float64
	for idx, w := range a {
		s += w * b[idx]
	}
	return s
}

func tokenize(s string) []string {
	folded := cases.Fold().String(s)
	raw := tokenPattern.FindAllString(folded, -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, stop := englishStopWords[tok]; !stop {
			out = append(out, tok)
		}
	}
	return out
}

// CleanPhrase drops parenthetical qualifiers and quality adjectives that
// would otherwise skew matching.
func CleanPhrase(phrase string) string {
	s := parentheticalRegex.ReplaceAllString(phrase, "")
	s = qualifierRegex.ReplaceAllString(s, "")
	return collapse(s)
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}
