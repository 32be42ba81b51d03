// SPDX-License-Identifier: Apache-2.0

// Package uif classifies operation amounts against the anti-money-laundering
// (UIF/PLD) notice thresholds of each operation type.
//
// Evaluate is pure domain logic: no I/O, no side effects, no error path.
package uif

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/notariaproj/notaria-mcp/internal/similarity"
)

// RiskLevel is the tier an amount falls into.
type RiskLevel string

const (
	Bajo    RiskLevel = "bajo"
	Medio   RiskLevel = "medio"
	Alto    RiskLevel = "alto"
	Critico RiskLevel = "critico"
)

// Rank orders tiers from bajo (0) to critico (3).
func (l RiskLevel) Rank() int {
	switch l {
	case Medio:
		return 1
	case Alto:
		return 2
	case Critico:
		return 3
	default:
		return 0
	}
}

// Evaluation is the verdict on one operation.
type Evaluation struct {
	OperationType string          `json:"tipo_operacion"`
	Amount        decimal.Decimal `json:"monto"`
	Threshold     decimal.Decimal `json:"umbral_aplicado"`
	RiskLevel     RiskLevel       `json:"nivel_riesgo"`
	// Vulnerable is set when the amount reaches the threshold.
	Vulnerable bool `json:"es_vulnerable"`
	// NoticeRequired mirrors Vulnerable under the current policy.
	NoticeRequired bool `json:"requiere_aviso"`
	// GenericThreshold is set when the operation type was not recognised.
	GenericThreshold bool `json:"umbral_generico"`
}

type step struct {
	multiplier decimal.Decimal
	level      RiskLevel
}

// ladder is walked from the highest multiplier down; the first step the
// amount reaches decides the tier.
var ladder = []step{
	{multiplier: decimal.NewFromInt(3), level: Critico},
	{multiplier: decimal.NewFromInt(2), level: Alto},
	{multiplier: decimal.NewFromInt(1), level: Medio},
}

// DefaultThresholds returns the notice threshold in MXN per operation type.
func DefaultThresholds() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"compraventa": decimal.RequireFromString("682399.60"),
		"donacion":    decimal.RequireFromString("341199.80"),
		"sociedad":    decimal.RequireFromString("682399.60"),
		"poder":       decimal.RequireFromString("341199.80"),
		"cancelacion": decimal.RequireFromString("170599.90"),
		"testamento":  decimal.RequireFromString("682399.60"),
	}
}

// DefaultGenericThreshold applies to operation types missing from the table.
var DefaultGenericThreshold = decimal.RequireFromString("341199.80")

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithThreshold sets or overrides the threshold of one operation type.
func WithThreshold(operationType string, threshold decimal.Decimal) Option {
	return func(e *Evaluator) {
		e.thresholds[normalizeType(operationType)] = threshold
	}
}

// WithGenericThreshold replaces the fallback threshold.
func WithGenericThreshold(threshold decimal.Decimal) Option {
	return func(e *Evaluator) { e.generic = threshold }
}

// Evaluator holds an immutable threshold table.
type Evaluator struct {
	thresholds map[string]decimal.Decimal
	generic    decimal.Decimal
}

// New creates an Evaluator over DefaultThresholds.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		thresholds: DefaultThresholds(),
		generic:    DefaultGenericThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Threshold returns the threshold applied to operationType and whether the
// type has its own entry.
func (e *Evaluator) Threshold(operationType string) (decimal.Decimal, bool) {
	if t, ok := e.thresholds[normalizeType(operationType)]; ok {
		return t, true
	}
	return e.generic, false
}

// Evaluate classifies amount for operationType. The operation type is matched
// case- and accent-insensitively.
func (e *Evaluator) Evaluate(operationType string, amount decimal.Decimal) Evaluation {
	threshold, known := e.Threshold(operationType)
	ev := Evaluation{
		OperationType:    operationType,
		Amount:           amount,
		Threshold:        threshold,
		RiskLevel:        Bajo,
		GenericThreshold: !known,
	}
	for _, s := range ladder {
		if amount.GreaterThanOrEqual(threshold.Mul(s.multiplier)) {
			ev.RiskLevel = s.level
			break
		}
	}
	ev.Vulnerable = amount.GreaterThanOrEqual(threshold)
	ev.NoticeRequired = ev.Vulnerable
	return ev
}

func normalizeType(operationType string) string {
	return strings.ReplaceAll(similarity.Normalize(operationType), " ", "_")
}
