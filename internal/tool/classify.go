// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notariaproj/notaria-mcp/internal/classify"
	"github.com/notariaproj/notaria-mcp/internal/schema"
)

// MetadataClassifyTemplate describes the classify_template tool.
var MetadataClassifyTemplate = &mcp.Tool{
	Name: "classify_template",
	Description: "Determine the notarial document type of a template (compraventa, donacion, " +
		"testamento, poder, sociedad, cancelacion) from the keywords carried by its placeholders " +
		"and file name. A placeholder hit weighs 2, a file-name hit weighs 1. Templates with no " +
		"evidence resolve to the default type with score 0; ties go to the type declared first.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"placeholders":  stringListProperty("Placeholder names found in the template, e.g. Vendedor_Nombre"),
			"template_name": stringProperty("Optional template file name, e.g. compraventa_casa.docx"),
		},
	},
}

// InputClassifyTemplate is the input for the ClassifyTemplate tool.
type InputClassifyTemplate struct {
	Placeholders []string `json:"placeholders"`
	TemplateName string   `json:"template_name"`
}

// OutputClassifyTemplate is the output for the ClassifyTemplate tool.
type OutputClassifyTemplate struct {
	DocumentType schema.DocumentType `json:"document_type"`
	Score        int                 `json:"score"`
	// Scores is the breakdown for every declared type in registry order.
	Scores []classify.TypeScore `json:"scores"`
}

// ClassifyTemplate scores the template against every document type.
func (t *Tools) ClassifyTemplate(ctx context.Context, _ *mcp.CallToolRequest, input InputClassifyTemplate) (*mcp.CallToolResult, OutputClassifyTemplate, error) {
	start := time.Now()
	if len(input.Placeholders) == 0 && input.TemplateName == "" {
		err := fmt.Errorf("placeholders or template_name is required")
		t.observe(ctx, MetadataClassifyTemplate.Name, start, err)
		return nil, OutputClassifyTemplate{}, err
	}

	c := t.engine.Classify(input.Placeholders, input.TemplateName)
	t.observe(ctx, MetadataClassifyTemplate.Name, start, nil)
	return nil, OutputClassifyTemplate{
		DocumentType: c.Type,
		Score:        c.Score,
		Scores:       c.Scores,
	}, nil
}
