// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notariaproj/notaria-mcp/internal/engine"
	"github.com/notariaproj/notaria-mcp/internal/validation"
)

// MetadataValidateExtraction describes the validate_extraction tool.
var MetadataValidateExtraction = &mcp.Tool{
	Name: "validate_extraction",
	Description: "Validate values an AI model extracted from a notarial source document before they " +
		"are used to fill a contract. Each value is checked structurally by its semantic type " +
		"(dates, amounts in MXN, CURP, RFC, clave de elector) and, when source_text is given, " +
		"cross-checked against the OCR text so invented values are flagged even when well formed. " +
		"Pass either values (an object of canonical key to string) or raw_reply (the model's JSON " +
		"reply, decoded leniently). Every field ends as valid, suspicious, invalid or not_validated " +
		"with a confidence in [0,1] and issue codes; needs_review is set when any field is " +
		"suspicious or invalid, or the overall confidence is low.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"document_type"},
		"properties": map[string]interface{}{
			"document_type": stringProperty("Document type of the template; unknown types use the default schema"),
			"values": map[string]interface{}{
				"type":                 "object",
				"additionalProperties": map[string]interface{}{"type": "string"},
				"description":          "Extracted values keyed by canonical field key",
			},
			"raw_reply":   stringProperty("Raw JSON reply of the extraction model; used instead of values"),
			"keys":        stringListProperty("Canonical keys requested from the model; only used with raw_reply. Empty means every schema field."),
			"source_text": stringProperty("Joined OCR text of the source document. Without it fields are checked structurally only."),
		},
	},
}

// InputValidateExtraction is the input for the ValidateExtraction tool.
type InputValidateExtraction struct {
	DocumentType string            `json:"document_type"`
	Values       map[string]string `json:"values"`
	RawReply     string            `json:"raw_reply"`
	Keys         []string          `json:"keys"`
	SourceText   string            `json:"source_text"`
}

// OutputValidateExtraction is the output for the ValidateExtraction tool.
type OutputValidateExtraction struct {
	Report      validation.Report `json:"report"`
	NeedsReview bool              `json:"needs_review"`
	// Dropped lists reply keys outside the requested schema.
	Dropped []string `json:"dropped"`
	// Coerced lists reply keys whose non-string values were converted.
	Coerced []string `json:"coerced"`
}

// ValidateExtraction checks extracted values and reports per-field verdicts.
func (t *Tools) ValidateExtraction(ctx context.Context, _ *mcp.CallToolRequest, input InputValidateExtraction) (*mcp.CallToolResult, OutputValidateExtraction, error) {
	start := time.Now()
	out, err := t.validateExtraction(input)
	t.observe(ctx, MetadataValidateExtraction.Name, start, err)
	if err != nil {
		return nil, OutputValidateExtraction{}, err
	}
	return nil, out, nil
}

func (t *Tools) validateExtraction(input InputValidateExtraction) (OutputValidateExtraction, error) {
	if input.DocumentType == "" {
		return OutputValidateExtraction{}, fmt.Errorf("document_type is required")
	}
	if input.RawReply != "" && len(input.Values) > 0 {
		return OutputValidateExtraction{}, fmt.Errorf("values and raw_reply are mutually exclusive")
	}

	var (
		res engine.ExtractionValidation
		err error
	)
	if input.RawReply != "" {
		res, err = t.engine.ValidateExtractionJSON(input.DocumentType, input.Keys, []byte(input.RawReply), input.SourceText)
	} else {
		res, err = t.engine.ValidateExtraction(input.DocumentType, input.Values, input.SourceText)
	}
	if err != nil {
		return OutputValidateExtraction{}, err
	}

	out := OutputValidateExtraction{
		Report:      res.Report,
		NeedsReview: res.NeedsReview,
		Dropped:     res.Dropped,
		Coerced:     res.Coerced,
	}
	if out.Dropped == nil {
		out.Dropped = []string{}
	}
	if out.Coerced == nil {
		out.Coerced = []string{}
	}
	return out, nil
}
