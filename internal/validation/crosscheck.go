// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/notariaproj/notaria-mcp/internal/similarity"
)

var (
	// sourceAmounts finds figures with comma, dot or blank thousands grouping
	// and an optional decimal part.
	sourceAmounts = regexp.MustCompile(`\d{1,3}(?:[ ,.]\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,]\d+)?`)
	// sourceNumericDates finds day-first and ISO dates, tolerating blanks
	// that OCR inserts around separators.
	sourceNumericDates = regexp.MustCompile(`\b\d{1,2}\s*[/.-]\s*\d{1,2}\s*[/.-]\s*\d{4}\b|\b\d{4}\s*[/-]\s*\d{2}\s*[/-]\s*\d{2}\b`)
)

// typedScan looks for a parsed date or amount in the source text. found
// reports the same value in any rendering. Otherwise masked is the source
// with every span that reads as a different value of the same kind blanked,
// so the fuzzy fallback cannot settle on a neighbouring date or price.
type typedScan func(sourceText string) (found bool, masked string)

func sameDate(d time.Time) typedScan {
	return func(sourceText string) (bool, string) {
		raw := []byte(sourceText)
		for _, loc := range sourceNumericDates.FindAllStringIndex(sourceText, -1) {
			got, ok := parseDate(strings.Join(strings.Fields(sourceText[loc[0]:loc[1]]), ""))
			if !ok {
				continue
			}
			if got.Equal(d) {
				return true, ""
			}
			blank(raw, loc)
		}

		n := []byte(similarity.Normalize(string(raw)))
		for _, loc := range textualDate.FindAllSubmatchIndex(n, -1) {
			got, ok := textualToDate(string(n[loc[2]:loc[3]]), string(n[loc[4]:loc[5]]), string(n[loc[6]:loc[7]]))
			if !ok {
				continue
			}
			if got.Equal(d) {
				return true, ""
			}
			blank(n, loc)
		}
		return false, string(n)
	}
}

func sameAmount(a decimal.Decimal) typedScan {
	return func(sourceText string) (bool, string) {
		raw := []byte(sourceText)
		for _, loc := range sourceAmounts.FindAllStringIndex(sourceText, -1) {
			got, ok := ParseAmount(strings.ReplaceAll(sourceText[loc[0]:loc[1]], " ", ""))
			if !ok {
				continue
			}
			if got.Equal(a) {
				return true, ""
			}
			// A figure glued to letters is half of an OCR-garbled number,
			// as in "1,5OO,000.00"; keep it for the fuzzy pass.
			if !touchesLetter(sourceText, loc[0], loc[1]) {
				blank(raw, loc)
			}
		}
		return false, string(raw)
	}
}

func blank(b []byte, loc []int) {
	for i := loc[0]; i < loc[1]; i++ {
		b[i] = ' '
	}
}

// touchesLetter reports whether s[start:end] borders a letter, looking past
// one grouping separator on either side.
func touchesLetter(s string, start, end int) bool {
	before, after := s[:start], s[end:]
	if strings.HasSuffix(before, ".") || strings.HasSuffix(before, ",") {
		before = before[:len(before)-1]
	}
	if strings.HasPrefix(after, ".") || strings.HasPrefix(after, ",") {
		after = after[1:]
	}
	r, _ := utf8.DecodeLastRuneInString(before)
	next, _ := utf8.DecodeRuneInString(after)
	return unicode.IsLetter(r) || unicode.IsLetter(next)
}

// sourceScore measures how plausibly value appears in sourceText. Parsed
// dates and amounts count as present when the source carries the same value
// in any rendering; failing that they are scored by fuzzy containment like
// everything else, against the source with the other dates or amounts
// blanked, so OCR-garbled renderings of the right value are still found.
func (v *Validator) sourceScore(value string, scan typedScan, sourceText string) float64 {
	if scan != nil {
		found, masked := scan(sourceText)
		if found {
			return 1
		}
		sourceText = masked
	}
	return similarity.Containment(v.scorer, value, sourceText)
}
