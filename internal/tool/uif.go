// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notariaproj/notaria-mcp/internal/uif"
)

// MetadataEvaluateOperation describes the evaluate_operation tool.
var MetadataEvaluateOperation = &mcp.Tool{
	Name: "evaluate_operation",
	Description: "Classify the amount of a notarial operation against its UIF/PLD anti-money-laundering " +
		"notice threshold. Amounts below the threshold are bajo; from 1x, 2x and 3x the threshold they " +
		"are medio, alto and critico. Reaching the threshold makes the operation vulnerable and " +
		"requires a notice. Unknown operation types use the generic threshold and are flagged.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"tipo_operacion", "monto"},
		"properties": map[string]interface{}{
			"tipo_operacion": stringProperty("Operation type, e.g. compraventa, donacion, poder"),
			"monto":          stringProperty("Non-negative amount in MXN, e.g. 1500000.00 or \"$1,500,000.00 M.N.\""),
		},
	},
}

// InputEvaluateOperation is the input for the EvaluateOperation tool.
type InputEvaluateOperation struct {
	OperationType string `json:"tipo_operacion"`
	Amount        string `json:"monto"`
}

// OutputEvaluateOperation is the output for the EvaluateOperation tool.
// Amounts are decimal strings with two places.
type OutputEvaluateOperation struct {
	OperationType    string        `json:"tipo_operacion"`
	Amount           string        `json:"monto"`
	Threshold        string        `json:"umbral_aplicado"`
	RiskLevel        uif.RiskLevel `json:"nivel_riesgo"`
	Vulnerable       bool          `json:"es_vulnerable"`
	NoticeRequired   bool          `json:"requiere_aviso"`
	GenericThreshold bool          `json:"umbral_generico"`
}

// EvaluateOperation applies the UIF threshold ladder to one operation.
func (t *Tools) EvaluateOperation(ctx context.Context, _ *mcp.CallToolRequest, input InputEvaluateOperation) (*mcp.CallToolResult, OutputEvaluateOperation, error) {
	start := time.Now()
	out, err := t.evaluateOperation(input)
	t.observe(ctx, MetadataEvaluateOperation.Name, start, err)
	if err != nil {
		return nil, OutputEvaluateOperation{}, err
	}
	return nil, out, nil
}

func (t *Tools) evaluateOperation(input InputEvaluateOperation) (OutputEvaluateOperation, error) {
	if input.OperationType == "" {
		return OutputEvaluateOperation{}, fmt.Errorf("tipo_operacion is required")
	}
	if input.Amount == "" {
		return OutputEvaluateOperation{}, fmt.Errorf("monto is required")
	}

	ev, err := t.engine.EvaluateOperationText(input.OperationType, input.Amount)
	if err != nil {
		return OutputEvaluateOperation{}, err
	}
	return OutputEvaluateOperation{
		OperationType:    ev.OperationType,
		Amount:           ev.Amount.StringFixed(2),
		Threshold:        ev.Threshold.StringFixed(2),
		RiskLevel:        ev.RiskLevel,
		Vulnerable:       ev.Vulnerable,
		NoticeRequired:   ev.NoticeRequired,
		GenericThreshold: ev.GenericThreshold,
	}, nil
}
