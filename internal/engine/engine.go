// SPDX-License-Identifier: Apache-2.0

// Package engine wires the registry, classifier, mapper, validator and UIF
// evaluator into the operations the adapters expose. It stamps run ids, logs
// one event per operation and feeds the metrics; the decisions themselves
// stay in the component packages.
package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/notariaproj/notaria-mcp/internal/classify"
	"github.com/notariaproj/notaria-mcp/internal/common"
	"github.com/notariaproj/notaria-mcp/internal/extraction"
	"github.com/notariaproj/notaria-mcp/internal/mapping"
	"github.com/notariaproj/notaria-mcp/internal/metrics"
	"github.com/notariaproj/notaria-mcp/internal/schema"
	"github.com/notariaproj/notaria-mcp/internal/uif"
	"github.com/notariaproj/notaria-mcp/internal/validation"
)

// DefaultReviewConfidence is the overall report confidence under which an
// extraction goes to manual review.
const DefaultReviewConfidence = 0.7

// Engine is immutable after New and safe for concurrent use.
type Engine struct {
	registry   *schema.Registry
	classifier *classify.Classifier
	mapper     *mapping.Mapper
	validator  *validation.Validator
	evaluator  *uif.Evaluator
	metrics    *metrics.Metrics
	logger     *zap.Logger

	maxUnmappedRatio float64
	reviewConfidence float64
	newRunID         func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics sink. nil disables metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithMapper replaces the default mapper.
func WithMapper(m *mapping.Mapper) Option {
	return func(e *Engine) {
		if m != nil {
			e.mapper = m
		}
	}
}

// WithValidator replaces the default validator.
func WithValidator(v *validation.Validator) Option {
	return func(e *Engine) {
		if v != nil {
			e.validator = v
		}
	}
}

// WithEvaluator replaces the default UIF evaluator.
func WithEvaluator(ev *uif.Evaluator) Option {
	return func(e *Engine) {
		if ev != nil {
			e.evaluator = ev
		}
	}
}

// WithReviewThresholds sets when mapping and validation results are flagged
// for manual review.
func WithReviewThresholds(maxUnmappedRatio, reviewConfidence float64) Option {
	return func(e *Engine) {
		e.maxUnmappedRatio = maxUnmappedRatio
		e.reviewConfidence = reviewConfidence
	}
}

// WithRunIDs replaces the uuid run id generator.
func WithRunIDs(next func() string) Option {
	return func(e *Engine) {
		if next != nil {
			e.newRunID = next
		}
	}
}

// New builds an Engine over registry. It fails when the registry has no
// usable default schema, since every fallback path depends on it.
func New(registry *schema.Registry, opts ...Option) (*Engine, error) {
	if registry == nil {
		return nil, common.NewConfigurationError("engine", "registry is required", nil)
	}
	if _, err := registry.SchemaFor(string(registry.DefaultType())); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	e := &Engine{
		registry:         registry,
		classifier:       classify.New(registry),
		mapper:           mapping.New(),
		validator:        validation.New(),
		evaluator:        uif.New(),
		logger:           zap.NewNop(),
		maxUnmappedRatio: mapping.DefaultMaxUnmappedRatio,
		reviewConfidence: DefaultReviewConfidence,
		newRunID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Registry returns the schema registry the engine was built with.
func (e *Engine) Registry() *schema.Registry {
	return e.registry
}

// Classify picks the document type of a template without mapping it.
func (e *Engine) Classify(placeholders []string, templateName string) classify.Result {
	c := e.classifier.Classify(placeholders, templateName)
	e.metrics.IncrementClassification(string(c.Type))
	e.logger.Info("engine.template.classified",
		zap.String("template", templateName),
		zap.String("document_type", string(c.Type)),
		zap.Int("score", c.Score),
	)
	return c
}

// TemplateRequest describes one template instance.
type TemplateRequest struct {
	Placeholders []string
	TemplateName string
	// DocumentType skips classification when set.
	DocumentType string
}

// TemplateResolution is the outcome of ResolveTemplate.
type TemplateResolution struct {
	RunID        string
	DocumentType schema.DocumentType
	// Classification is nil when the document type was given.
	Classification *classify.Result
	Resolutions    []mapping.Resolution
	Quality        mapping.Quality
	// CanonicalKeys is the key list for the extraction collaborator.
	CanonicalKeys []string
	NeedsReview   bool
}

// ResolveTemplate classifies the template unless its type is given and maps
// its placeholders onto that type's schema. An unknown given type resolves to
// the default schema.
func (e *Engine) ResolveTemplate(req TemplateRequest) (TemplateResolution, error) {
	res := TemplateResolution{RunID: e.newRunID()}

	docType := req.DocumentType
	if docType == "" {
		c := e.classifier.Classify(req.Placeholders, req.TemplateName)
		res.Classification = &c
		docType = string(c.Type)
		e.metrics.IncrementClassification(docType)
	}
	s, err := e.registry.SchemaFor(docType)
	if err != nil {
		return TemplateResolution{}, err
	}
	res.DocumentType = s.Type

	res.Resolutions = e.mapper.MapPlaceholders(req.Placeholders, s)
	res.Quality = mapping.QualityOf(res.Resolutions)
	res.CanonicalKeys = mapping.CanonicalKeys(res.Resolutions)
	res.NeedsReview = res.Quality.NeedsReview(e.maxUnmappedRatio)
	for _, r := range res.Resolutions {
		if r.DuplicateOf < 0 {
			e.metrics.IncrementResolution(string(r.Method))
		}
	}

	e.logger.Info("engine.template.resolved",
		zap.String("run_id", res.RunID),
		zap.String("template", req.TemplateName),
		zap.String("document_type", string(res.DocumentType)),
		zap.Bool("classified", res.Classification != nil),
		zap.Int("placeholders", len(req.Placeholders)),
		zap.Int("mapped", res.Quality.MappedCount),
		zap.Int("unmapped", res.Quality.UnmappedCount),
		zap.Float64("average_score", res.Quality.AverageScore),
		zap.Bool("needs_review", res.NeedsReview),
	)
	return res, nil
}

// ExtractionValidation is the outcome of ValidateExtraction.
type ExtractionValidation struct {
	Report      validation.Report
	NeedsReview bool
	// Dropped and Coerced are filled by ValidateExtractionJSON.
	Dropped []string
	Coerced []string
}

// ValidateExtraction validates extracted values for documentType against
// sourceText, the joined OCR text ("" when none is available).
func (e *Engine) ValidateExtraction(documentType string, values map[string]string, sourceText string) (ExtractionValidation, error) {
	s, err := e.registry.SchemaFor(documentType)
	if err != nil {
		return ExtractionValidation{}, err
	}

	start := time.Now()
	report := e.validator.ValidateExtraction(s, values, sourceText)
	e.metrics.ObserveValidateLatency(time.Since(start))
	report.RunID = e.newRunID()
	for _, f := range report.Fields {
		e.metrics.IncrementFieldStatus(string(f.Status), string(f.Type))
	}

	out := ExtractionValidation{
		Report:      report,
		NeedsReview: report.NeedsReview(e.reviewConfidence),
	}
	e.logger.Info("engine.extraction.validated",
		zap.String("run_id", report.RunID),
		zap.String("document_type", string(report.DocumentType)),
		zap.Int("fields", len(report.Fields)),
		zap.Int("valid", report.Counts.Valid),
		zap.Int("suspicious", report.Counts.Suspicious),
		zap.Int("invalid", report.Counts.Invalid),
		zap.Int("not_validated", report.Counts.NotValidated),
		zap.Float64("overall_confidence", report.OverallConfidence),
		zap.Bool("source_text", sourceText != ""),
		zap.Bool("needs_review", out.NeedsReview),
	)
	return out, nil
}

// ValidateExtractionJSON decodes the raw reply of the extraction collaborator
// for keys (every schema field when empty) and validates it. A reply that is
// not a JSON object or breaks the extraction schema is an error; nothing is
// validated in that case.
func (e *Engine) ValidateExtractionJSON(documentType string, keys []string, raw []byte, sourceText string) (ExtractionValidation, error) {
	s, err := e.registry.SchemaFor(documentType)
	if err != nil {
		return ExtractionValidation{}, err
	}
	payload, err := extraction.DecodePayload(raw, s, keys)
	if err != nil {
		e.logger.Warn("engine.extraction.rejected",
			zap.String("document_type", string(s.Type)),
			zap.Error(err),
		)
		return ExtractionValidation{}, err
	}
	if len(payload.Dropped) > 0 {
		e.logger.Debug("engine.extraction.dropped_keys",
			zap.String("document_type", string(s.Type)),
			zap.Strings("keys", payload.Dropped),
		)
	}

	out, err := e.ValidateExtraction(string(s.Type), payload.Values, sourceText)
	if err != nil {
		return ExtractionValidation{}, err
	}
	out.Dropped = payload.Dropped
	out.Coerced = payload.Coerced
	return out, nil
}

// ExtractionSchema returns the JSON Schema to constrain the extraction
// collaborator with for keys of documentType.
func (e *Engine) ExtractionSchema(documentType string, keys []string) (map[string]any, error) {
	s, err := e.registry.SchemaFor(documentType)
	if err != nil {
		return nil, err
	}
	return extraction.BuildJSONSchema(s, keys), nil
}

// EvaluateOperation classifies amount for operationType.
func (e *Engine) EvaluateOperation(operationType string, amount decimal.Decimal) uif.Evaluation {
	ev := e.evaluator.Evaluate(operationType, amount)
	e.metrics.IncrementRiskTier(string(ev.RiskLevel))
	e.logger.Info("engine.operation.evaluated",
		zap.String("tipo_operacion", operationType),
		zap.String("monto", amount.String()),
		zap.String("umbral_aplicado", ev.Threshold.String()),
		zap.String("nivel_riesgo", string(ev.RiskLevel)),
		zap.Bool("es_vulnerable", ev.Vulnerable),
	)
	return ev
}

// EvaluateOperationText parses amount the way currency fields are parsed,
// so "$682,399.60 M.N." is accepted, and evaluates it.
func (e *Engine) EvaluateOperationText(operationType, amount string) (uif.Evaluation, error) {
	a, ok := validation.ParseAmount(amount)
	if !ok {
		return uif.Evaluation{}, fmt.Errorf("amount %q is not a non-negative amount", amount)
	}
	return e.EvaluateOperation(operationType, a), nil
}
