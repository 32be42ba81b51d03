// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"sort"

	"github.com/notariaproj/notaria-mcp/internal/schema"
)

// StatusCounts tallies field statuses in a report.
type StatusCounts struct {
	Valid        int `json:"valid"`
	Suspicious   int `json:"suspicious"`
	Invalid      int `json:"invalid"`
	NotValidated int `json:"not_validated"`
}

// Report is the outcome of one extraction pass. RunID is left for the caller
// to stamp.
type Report struct {
	RunID        string              `json:"run_id,omitempty"`
	DocumentType schema.DocumentType `json:"document_type"`
	Fields       []FieldValidation   `json:"fields"`
	Counts       StatusCounts        `json:"counts"`
	// OverallConfidence is the mean confidence of the fields whose status is
	// not not_validated, or 0 when there are none.
	OverallConfidence float64 `json:"overall_confidence"`
	ValidatedCount    int     `json:"validated_count"`
}

// NeedsReview reports whether a human should look at the extraction: any
// invalid or suspicious field, or an overall confidence under minConfidence.
func (r Report) NeedsReview(minConfidence float64) bool {
	if r.Counts.Invalid > 0 || r.Counts.Suspicious > 0 {
		return true
	}
	return r.ValidatedCount > 0 && r.OverallConfidence < minConfidence
}

// ValidateExtraction validates every extracted value. Fields follow the
// schema's declaration order; keys the schema does not know come last,
// sorted, and are checked as plain text. A malformed value never stops the
// other fields from being checked.
func (v *Validator) ValidateExtraction(s *schema.DocumentTypeSchema, values map[string]string, sourceText string) Report {
	r := Report{Fields: make([]FieldValidation, 0, len(values))}

	known := make(map[string]struct{}, len(values))
	if s != nil {
		r.DocumentType = s.Type
		for _, f := range s.Fields {
			value, ok := values[f.Key]
			if !ok {
				continue
			}
			known[f.Key] = struct{}{}
			r.Fields = append(r.Fields, v.ValidateField(f, value, sourceText))
		}
	}

	extra := make([]string, 0, len(values)-len(known))
	for k := range values {
		if _, ok := known[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		r.Fields = append(r.Fields, v.Validate(k, values[k], schema.Text, sourceText))
	}

	total := 0.0
	for _, f := range r.Fields {
		switch f.Status {
		case Valid:
			r.Counts.Valid++
		case Suspicious:
			r.Counts.Suspicious++
		case Invalid:
			r.Counts.Invalid++
		case NotValidated:
			r.Counts.NotValidated++
			continue
		}
		r.ValidatedCount++
		total += f.Confidence
	}
	if r.ValidatedCount > 0 {
		r.OverallConfidence = total / float64(r.ValidatedCount)
	}
	return r
}
