// SPDX-License-Identifier: Apache-2.0

// Package similarity holds the string primitives shared by the mapper and the
// field validator: a normalisation that folds case, diacritics and separators,
// a pluggable Scorer, and a fuzzy containment search over longer text.
package similarity

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agext/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Scorer returns how similar two already-normalised strings are, in [0,1].
type Scorer interface {
	Score(a, b string) float64
}

// Levenshtein scores by edit distance relative to the longer string.
type Levenshtein struct{}

// NewLevenshtein creates the default Scorer.
func NewLevenshtein() Levenshtein {
	return Levenshtein{}
}

func (Levenshtein) Score(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	d := levenshtein.Distance(a, b, nil)
	return Clamp(1 - float64(d)/float64(longest))
}

// Normalize lower-cases s, strips diacritics and collapses every run of
// non-alphanumeric characters (spaces, underscores, hyphens, braces) into a
// single space. "{{Fecha_Escritura}}" and "fecha  escritura" both become
// "fecha escritura".
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	// Chained transformers keep internal buffers, so one is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// Containment returns the best similarity between needle and any window of
// consecutive tokens in haystack. Window widths range over the needle's token
// count plus or minus one so OCR splits and merges still line up. A haystack
// shorter than the narrowest window is scored whole. Both inputs are
// normalised first; an empty needle or haystack scores 0.
func Containment(scorer Scorer, needle, haystack string) float64 {
	needle = Normalize(needle)
	haystack = Normalize(haystack)
	if needle == "" || haystack == "" {
		return 0
	}
	if strings.Contains(" "+haystack+" ", " "+needle+" ") {
		return 1
	}

	tokens := strings.Fields(haystack)
	n := len(strings.Fields(needle))
	if len(tokens) < max(1, n-1) {
		return scorer.Score(haystack, needle)
	}
	best := 0.0
	for w := max(1, n-1); w <= n+1 && w <= len(tokens); w++ {
		for i := 0; i+w <= len(tokens); i++ {
			s := scorer.Score(strings.Join(tokens[i:i+w], " "), needle)
			if s > best {
				best = s
				if best >= 1 {
					return 1
				}
			}
		}
	}
	return best
}

// Clamp bounds v to [0,1].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
