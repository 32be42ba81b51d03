// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/notariaproj/notaria-mcp/internal/schema"
	"github.com/notariaproj/notaria-mcp/internal/similarity"
)

// Identifier shapes. Only the shape is checked; check digits and catalogue
// codes are left to the issuing authority.
var (
	curpPattern         = regexp.MustCompile(`^[A-Z]{4}\d{6}[HMX][A-Z]{5}[A-Z0-9]\d$`)
	rfcFisicaPattern    = regexp.MustCompile(`^[A-ZÑ&]{4}\d{6}[A-Z0-9]{3}$`)
	rfcMoralPattern     = regexp.MustCompile(`^[A-ZÑ&]{3}\d{6}[A-Z0-9]{3}$`)
	claveElectorPattern = regexp.MustCompile(`^[A-Z]{6}\d{8}[HM]\d{3}$`)
)

var idCleaner = strings.NewReplacer(" ", "", "-", "", ".", "")

// normalizeID upper-cases value, drops separators and checks it against the
// shape of kind. IDKindAny accepts any known shape.
func normalizeID(value string, kind schema.IDKind) (string, bool) {
	id := strings.ToUpper(idCleaner.Replace(value))
	var ok bool
	switch kind {
	case schema.IDKindCURP:
		ok = curpPattern.MatchString(id)
	case schema.IDKindRFC:
		ok = rfcFisicaPattern.MatchString(id) || rfcMoralPattern.MatchString(id)
	case schema.IDKindClaveElector:
		ok = claveElectorPattern.MatchString(id)
	default:
		ok = curpPattern.MatchString(id) ||
			rfcFisicaPattern.MatchString(id) ||
			rfcMoralPattern.MatchString(id) ||
			claveElectorPattern.MatchString(id)
	}
	return id, ok
}

// Numeric date layouts, day first as written in Mexican documents.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2006-01-02",
	"2006/01/02",
	time.RFC3339,
}

var months = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"setiembre":  time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

// textualDate matches a normalised "15 de marzo de 2024" or "1 marzo del 2024".
var textualDate = regexp.MustCompile(`\b(\d{1,2}) (?:de )?([a-z]+) (?:de |del )?(\d{4})\b`)

// parseDate accepts the numeric layouts and the Spanish textual form.
func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, value); err == nil {
			return d, true
		}
	}

	n := similarity.Normalize(value)
	loc := textualDate.FindStringSubmatchIndex(n)
	if loc == nil || loc[0] != 0 || loc[1] != len(n) {
		return time.Time{}, false
	}
	return textualToDate(n[loc[2]:loc[3]], n[loc[4]:loc[5]], n[loc[6]:loc[7]])
}

func textualToDate(dayText, monthText, yearText string) (time.Time, bool) {
	month, ok := months[monthText]
	if !ok {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(dayText)
	year, _ := strconv.Atoi(yearText)
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date rolls 31 de febrero into March.
	if d.Day() != day || d.Month() != month {
		return time.Time{}, false
	}
	return d, true
}

// currencyNoise strips currency symbols, words and blanks. Longer words come
// first so "m.n." is removed whole.
var currencyNoise = strings.NewReplacer(
	"moneda nacional", "",
	"m.n.", "",
	"m.n", "",
	"pesos", "",
	"peso", "",
	"mxn", "",
	"$", "",
	" ", "",
)

// ParseAmount reduces a currency string to a non-negative decimal. The last
// separator is the decimal point when both '.' and ',' occur; a lone ','
// followed by three digits, or any repeated separator, groups thousands.
func ParseAmount(value string) (decimal.Decimal, bool) {
	s := strings.ToLower(value)
	// Notarial text follows the figure with the amount in words, as in
	// "$1,500,000.00 (UN MILLON QUINIENTOS MIL PESOS 00/100 M.N.)".
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	s = currencyNoise.Replace(strings.TrimSpace(s))
	if s == "" || strings.HasPrefix(s, "-") {
		return decimal.Decimal{}, false
	}
	s = strings.TrimPrefix(s, "+")
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			return decimal.Decimal{}, false
		}
	}

	s, ok := normalizeSeparators(s)
	if !ok {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Decimal{}, false
	}
	return d, true
}

func normalizeSeparators(s string) (string, bool) {
	last := strings.LastIndexAny(s, ".,")
	if last < 0 {
		return s, true
	}
	if last == 0 || last == len(s)-1 {
		return "", false
	}
	dec := s[last]
	other := byte(',')
	if dec == ',' {
		other = '.'
	}

	if strings.IndexByte(s, other) >= 0 {
		// Both kinds: the last one is the decimal point.
		if strings.Count(s, string(dec)) > 1 {
			return "", false
		}
		return strings.ReplaceAll(s[:last], string(other), "") + "." + s[last+1:], true
	}
	if strings.Count(s, string(dec)) > 1 {
		return strings.ReplaceAll(s, string(dec), ""), true
	}
	if dec == ',' && len(s)-last-1 == 3 {
		return s[:last] + s[last+1:], true
	}
	return s[:last] + "." + s[last+1:], true
}
