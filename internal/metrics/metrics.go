// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the resolution engine. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	// Classified templates by winning document type
	Classifications *prometheus.CounterVec

	// Placeholder resolutions by method: exact_alias, fuzzy, unmapped
	Resolutions *prometheus.CounterVec

	// Validated fields by status and semantic type
	FieldStatus *prometheus.CounterVec

	// UIF evaluations by risk tier
	RiskTiers *prometheus.CounterVec

	// Duration of a full extraction validation pass
	ValidateLatency prometheus.Histogram
}

// New registers the engine metrics on reg. Passing a fresh registry keeps
// tests and multiple engines from colliding on the default one.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Classifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notaria_classifications_total",
			Help: "Total template classifications by document type",
		}, []string{"document_type"}),

		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notaria_placeholder_resolutions_total",
			Help: "Total placeholder resolutions by method",
		}, []string{"method"}),

		FieldStatus: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notaria_field_validations_total",
			Help: "Total validated fields by status and semantic type",
		}, []string{"status", "type"}),

		RiskTiers: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notaria_uif_evaluations_total",
			Help: "Total UIF evaluations by risk tier",
		}, []string{"nivel_riesgo"}),

		ValidateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "notaria_validate_duration_seconds",
			Help:    "Duration of extraction validation including source cross-checks",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

// IncrementClassification records the type a template was classified as.
func (m *Metrics) IncrementClassification(documentType string) {
	if m != nil {
		m.Classifications.WithLabelValues(documentType).Inc()
	}
}

// IncrementResolution records how one placeholder was resolved.
func (m *Metrics) IncrementResolution(method string) {
	if m != nil {
		m.Resolutions.WithLabelValues(method).Inc()
	}
}

// IncrementFieldStatus records the verdict on one field.
func (m *Metrics) IncrementFieldStatus(status, semanticType string) {
	if m != nil {
		m.FieldStatus.WithLabelValues(status, semanticType).Inc()
	}
}

// IncrementRiskTier records the tier of one UIF evaluation.
func (m *Metrics) IncrementRiskTier(level string) {
	if m != nil {
		m.RiskTiers.WithLabelValues(level).Inc()
	}
}

// ObserveValidateLatency records the duration of one validation pass.
func (m *Metrics) ObserveValidateLatency(d time.Duration) {
	if m != nil {
		m.ValidateLatency.Observe(d.Seconds())
	}
}
