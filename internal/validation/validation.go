// SPDX-License-Identifier: Apache-2.0

// Package validation checks AI-extracted field values before they reach a
// contract. Each value gets a structural check keyed by its semantic type and,
// when OCR text is available, a fuzzy cross-check against that text so values
// the model invented are flagged even when they are well formed.
package validation

import (
	"strings"
	"time"

	"github.com/notariaproj/notaria-mcp/internal/schema"
	"github.com/notariaproj/notaria-mcp/internal/similarity"
)

// Status is the verdict on one field.
type Status string

const (
	Valid        Status = "valid"
	Suspicious   Status = "suspicious"
	Invalid      Status = "invalid"
	NotValidated Status = "not_validated"
)

// IssueCode names one finding on a field. Issues are data, never errors.
type IssueCode string

const (
	FormatInvalid    IssueCode = "format_invalid"
	OutOfRange       IssueCode = "out_of_range"
	NotFoundInSource IssueCode = "not_found_in_source"
	LowConfidence    IssueCode = "low_confidence"
)

// FieldValidation is the immutable verdict on one extracted value.
type FieldValidation struct {
	Key        string              `json:"key"`
	Value      string              `json:"value"`
	Type       schema.SemanticType `json:"type"`
	Status     Status              `json:"status"`
	Confidence float64             `json:"confidence"`
	Issues     []IssueCode         `json:"issues"`
	// Normalized is the canonical rendering of a structurally valid value:
	// ISO date, two-decimal amount or upper-case identifier.
	Normalized string `json:"normalized,omitempty"`
	// SourceScore is how plausibly the value appears in the source text. It
	// is only meaningful when SourceChecked is set.
	SourceScore   float64 `json:"source_score"`
	SourceChecked bool    `json:"source_checked"`
}

// HasIssue reports whether code was raised on the field.
func (f FieldValidation) HasIssue(code IssueCode) bool {
	for _, c := range f.Issues {
		if c == code {
			return true
		}
	}
	return false
}

// Settings holds the tunable scoring constants.
type Settings struct {
	// PresenceThreshold is the containment score below which a value is
	// considered absent from the source text.
	PresenceThreshold float64
	// CrossCheckPenalty multiplies the confidence of a value not found in
	// the source text.
	CrossCheckPenalty float64
	// OutOfRangePenalty multiplies the confidence of an implausible date.
	OutOfRangePenalty float64
	// StructuralCap is the highest confidence a malformed value keeps.
	StructuralCap float64
	// LowConfidence is the mark below which low_confidence is raised.
	LowConfidence float64
	// MaxAgeYears bounds how far in the past a date may lie.
	MaxAgeYears int
}

// DefaultSettings returns the starting values. They are defaults awaiting
// empirical tuning, not calibrated constants.
func DefaultSettings() Settings {
	return Settings{
		PresenceThreshold: 0.6,
		CrossCheckPenalty: 0.5,
		OutOfRangePenalty: 0.7,
		StructuralCap:     0.3,
		LowConfidence:     0.5,
		MaxAgeYears:       120,
	}
}

// Option configures a Validator.
type Option func(*Validator)

// WithSettings replaces the scoring constants.
func WithSettings(s Settings) Option {
	return func(v *Validator) { v.settings = s }
}

// WithScorer replaces the similarity used by the cross-check.
func WithScorer(s similarity.Scorer) Option {
	return func(v *Validator) {
		if s != nil {
			v.scorer = s
		}
	}
}

// WithClock fixes "now" for the date range check.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		if now != nil {
			v.now = now
		}
	}
}

// Validator is stateless after construction and safe for concurrent use.
type Validator struct {
	settings Settings
	scorer   similarity.Scorer
	now      func() time.Time
}

// New creates a Validator with DefaultSettings unless overridden.
func New(opts ...Option) *Validator {
	v := &Validator{
		settings: DefaultSettings(),
		scorer:   similarity.NewLevenshtein(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Settings returns the scoring constants in use.
func (v *Validator) Settings() Settings {
	return v.settings
}

// Validate checks value as a field of type t. An empty sourceText means no
// OCR text was supplied.
func (v *Validator) Validate(key, value string, t schema.SemanticType, sourceText string) FieldValidation {
	return v.ValidateField(schema.FieldDescriptor{Key: key, Type: t}, value, sourceText)
}

// ValidateField checks value against the descriptor's semantic type and, when
// sourceText is non-empty, against the source. It never fails: every value
// ends in one of the four statuses. A blank value is malformed for the
// structured types and absent from any source text; it is not_validated only
// when neither check applies.
func (v *Validator) ValidateField(f schema.FieldDescriptor, value, sourceText string) FieldValidation {
	out := FieldValidation{
		Key:    f.Key,
		Value:  value,
		Type:   f.Type,
		Status: NotValidated,
		Issues: []IssueCode{},
	}
	trimmed := strings.TrimSpace(value)

	var (
		checked bool
		scan    typedScan
	)
	switch f.Type {
	case schema.IDDocumentNumber:
		checked = true
		if id, ok := normalizeID(trimmed, f.IDKind); ok {
			out.Normalized = id
		} else {
			out.Issues = append(out.Issues, FormatInvalid)
		}
	case schema.Date:
		checked = true
		d, ok := parseDate(trimmed)
		if !ok {
			out.Issues = append(out.Issues, FormatInvalid)
			break
		}
		out.Normalized = d.Format(time.DateOnly)
		scan = sameDate(d)
		if !v.dateInRange(d, f.AllowFuture) {
			out.Issues = append(out.Issues, OutOfRange)
		}
	case schema.Currency:
		checked = true
		a, ok := ParseAmount(trimmed)
		if !ok {
			out.Issues = append(out.Issues, FormatInvalid)
			break
		}
		out.Normalized = a.StringFixed(2)
		scan = sameAmount(a)
	}

	hasSource := strings.TrimSpace(sourceText) != ""
	if !checked && !hasSource {
		return out
	}
	if hasSource {
		out.SourceChecked = true
		out.SourceScore = v.sourceScore(trimmed, scan, sourceText)
		if out.SourceScore < v.settings.PresenceThreshold {
			out.Issues = append(out.Issues, NotFoundInSource)
		}
	}

	out.Status, out.Confidence = v.score(out.Issues)
	if out.Confidence < v.settings.LowConfidence {
		out.Issues = append(out.Issues, LowConfidence)
	}
	return out
}

// score derives status and confidence from the issues raised so far.
// Penalties compound multiplicatively.
func (v *Validator) score(issues []IssueCode) (Status, float64) {
	status := Valid
	confidence := 1.0
	for _, issue := range issues {
		switch issue {
		case FormatInvalid:
			status = Invalid
			confidence = min(confidence, v.settings.StructuralCap)
		case OutOfRange:
			if status != Invalid {
				status = Suspicious
			}
			confidence *= v.settings.OutOfRangePenalty
		case NotFoundInSource:
			if status != Invalid {
				status = Suspicious
			}
			confidence *= v.settings.CrossCheckPenalty
		}
	}
	return status, similarity.Clamp(confidence)
}

func (v *Validator) dateInRange(d time.Time, allowFuture bool) bool {
	now := v.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !allowFuture && d.After(today) {
		return false
	}
	return !d.Before(today.AddDate(-v.settings.MaxAgeYears, 0, 0))
}
