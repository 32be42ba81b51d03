// SPDX-License-Identifier: Apache-2.0

// Package mapping resolves free-form template placeholders to the canonical
// keys of a document-type schema. An exact pass over the normalised alias
// table runs first; placeholders left over go through a fuzzy pass bounded by
// a minimum similarity. A canonical key is claimed at most once per run.
package mapping

import (
	"github.com/notariaproj/notaria-mcp/internal/schema"
	"github.com/notariaproj/notaria-mcp/internal/similarity"
)

// DefaultMinSimilarity is the lowest fuzzy score accepted as a mapping.
const DefaultMinSimilarity = 0.75

// Method tells how a placeholder was resolved.
type Method string

const (
	ExactAlias Method = "exact_alias"
	Fuzzy      Method = "fuzzy"
	Unmapped   Method = "unmapped"
)

// Resolution is the mapping outcome of one placeholder.
type Resolution struct {
	Placeholder string  `json:"placeholder"`
	Normalized  string  `json:"normalized"`
	Key         string  `json:"key,omitempty"`
	Method      Method  `json:"method"`
	Score       float64 `json:"score"`
	// BestCandidate and BestScore describe the closest rejected key of an
	// unmapped placeholder, for human review.
	BestCandidate string  `json:"best_candidate,omitempty"`
	BestScore     float64 `json:"best_score,omitempty"`
	// DuplicateOf is the index of an earlier placeholder with the same
	// normalised form, or -1.
	DuplicateOf int `json:"duplicate_of"`
}

// Mapped reports whether the placeholder claimed a canonical key.
func (r Resolution) Mapped() bool {
	return r.Method == ExactAlias || r.Method == Fuzzy
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithScorer replaces the edit-distance scorer used by the fuzzy pass.
func WithScorer(s similarity.Scorer) Option {
	return func(m *Mapper) {
		if s != nil {
			m.scorer = s
		}
	}
}

// WithMinSimilarity sets the fuzzy acceptance threshold.
func WithMinSimilarity(v float64) Option {
	return func(m *Mapper) {
		m.minSimilarity = similarity.Clamp(v)
	}
}

// Mapper is safe for concurrent use; every call allocates its own state.
type Mapper struct {
	scorer        similarity.Scorer
	minSimilarity float64
}

// New creates a Mapper with the Levenshtein scorer and DefaultMinSimilarity
// unless overridden.
func New(opts ...Option) *Mapper {
	m := &Mapper{
		scorer:        similarity.NewLevenshtein(),
		minSimilarity: DefaultMinSimilarity,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MinSimilarity returns the configured fuzzy threshold.
func (m *Mapper) MinSimilarity() float64 {
	return m.minSimilarity
}

// MapPlaceholders returns one Resolution per placeholder, in input order.
// Placeholders are processed in that order in both passes, so earlier
// placeholders win contested keys.
func (m *Mapper) MapPlaceholders(placeholders []string, s *schema.DocumentTypeSchema) []Resolution {
	results := make([]Resolution, len(placeholders))
	firstSeen := make(map[string]int, len(placeholders))
	for i, p := range placeholders {
		n := similarity.Normalize(p)
		results[i] = Resolution{Placeholder: p, Normalized: n, Method: Unmapped, DuplicateOf: -1}
		if n == "" {
			continue
		}
		if j, ok := firstSeen[n]; ok {
			results[i].DuplicateOf = j
			continue
		}
		firstSeen[n] = i
	}
	if s == nil {
		return results
	}

	claimed := make([]bool, len(s.Fields))

	// Exact pass.
	for i := range results {
		r := &results[i]
		if r.Normalized == "" || r.DuplicateOf >= 0 {
			continue
		}
		best := -1
		for f := range s.Fields {
			if claimed[f] || !containsForm(s.MatchForms(f), r.Normalized) {
				continue
			}
			if best < 0 || s.Fields[f].Key < s.Fields[best].Key {
				best = f
			}
		}
		if best >= 0 {
			claimed[best] = true
			r.Key = s.Fields[best].Key
			r.Method = ExactAlias
			r.Score = 1
		}
	}

	// Fuzzy pass.
	for i := range results {
		r := &results[i]
		if r.Normalized == "" || r.DuplicateOf >= 0 || r.Mapped() {
			continue
		}
		best, bestScore := -1, 0.0
		for f := range s.Fields {
			if claimed[f] {
				continue
			}
			score := 0.0
			for _, form := range s.MatchForms(f) {
				score = max(score, m.scorer.Score(r.Normalized, form))
			}
			if best < 0 || score > bestScore || (score == bestScore && s.Fields[f].Key < s.Fields[best].Key) {
				best, bestScore = f, score
			}
		}
		if best < 0 {
			continue
		}
		if bestScore >= m.minSimilarity {
			claimed[best] = true
			r.Key = s.Fields[best].Key
			r.Method = Fuzzy
			r.Score = bestScore
			continue
		}
		r.BestCandidate = s.Fields[best].Key
		r.BestScore = bestScore
	}
	return results
}

func containsForm(forms []string, n string) bool {
	for _, f := range forms {
		if f == n {
			return true
		}
	}
	return false
}

// CanonicalKeys lists the claimed keys in placeholder order. It is the key
// list handed to the extraction collaborator.
func CanonicalKeys(results []Resolution) []string {
	keys := make([]string, 0, len(results))
	for _, r := range results {
		if r.Mapped() {
			keys = append(keys, r.Key)
		}
	}
	return keys
}
