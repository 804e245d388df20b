// Package search ranks a fixed set of short documents against a free-text
// query. It backs the keyword filter on the curated example roasts.
//
// The index is immutable after construction and safe for concurrent use.
// Scoring is Jaccard similarity between the query token set and each
// document's token set: score = |Q ∩ D| / |Q ∪ D|. Ties keep input order.
package search

import (
	"regexp"
	"sort"
	"strings"
)

// Result points at a matching document by its position in the input slice.
type Result struct {
	Pos   int
	Score float64
}

// Index ranks documents for a query.
type Index interface {
	TopK(query string, k int) []Result
}

// Option tunes index construction.
type Option func(*config)

type config struct {
	stopwords map[string]struct{}
}

// WithStopwords drops the given words from both documents and queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// DefaultStopwords are filler words that carry no signal in a roast query.
var DefaultStopwords = []string{
	"a", "an", "and", "the", "of", "to", "in", "on", "for", "is", "it", "my", "your", "with", "www", "com", "https", "http",
}

type doc struct {
	tokens map[string]struct{}
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an Index over docs. Positions in results refer to docs.
func NewIndex(docs []string, opts ...Option) Index {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	ix := &index{cfg: cfg, docs: make([]doc, len(docs))}
	for i, d := range docs {
		ix.docs[i] = doc{tokens: tokenize(d, cfg.stopwords)}
	}
	return ix
}

// TopK returns up to k documents with a non-zero score, best first. k <= 0
// means all matches.
func (i *index) TopK(q string, k int) []Result {
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 || len(i.docs) == 0 {
		return nil
	}

	var out []Result
	for pos, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(len(qTokens) + len(d.tokens) - over)
		out = append(out, Result{Pos: pos, Score: float64(over) / union})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })

	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
