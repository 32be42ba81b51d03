// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notariaproj/notaria-mcp/internal/engine"
	"github.com/notariaproj/notaria-mcp/internal/mapping"
	"github.com/notariaproj/notaria-mcp/internal/schema"
)

// MetadataMapPlaceholders describes the map_placeholders tool.
var MetadataMapPlaceholders = &mcp.Tool{
	Name: "map_placeholders",
	Description: "Resolve the free-form placeholders of a template to the canonical field keys of " +
		"its document type. The type is classified from the placeholders unless document_type is " +
		"given. Each placeholder is resolved by exact alias match first, then by fuzzy similarity " +
		"above the configured minimum; each canonical key is claimed at most once. Unmapped " +
		"placeholders carry their closest rejected candidate for human review. The response " +
		"includes the JSON Schema to give the extraction model for the mapped keys.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"placeholders"},
		"properties": map[string]interface{}{
			"placeholders":  stringListProperty("Placeholder names in template order"),
			"template_name": stringProperty("Optional template file name, used for classification"),
			"document_type": stringProperty("Optional document type; skips classification. Unknown types resolve to the default schema."),
		},
	},
}

// InputMapPlaceholders is the input for the MapPlaceholders tool.
type InputMapPlaceholders struct {
	Placeholders []string `json:"placeholders"`
	TemplateName string   `json:"template_name"`
	DocumentType string   `json:"document_type"`
}

// OutputMapPlaceholders is the output for the MapPlaceholders tool.
type OutputMapPlaceholders struct {
	RunID        string              `json:"run_id"`
	DocumentType schema.DocumentType `json:"document_type"`
	// ClassificationScore is -1 when the document type was given.
	ClassificationScore int                  `json:"classification_score"`
	Resolutions         []mapping.Resolution `json:"resolutions"`
	Quality             mapping.Quality      `json:"quality"`
	CanonicalKeys       []string             `json:"canonical_keys"`
	ExtractionSchema    map[string]any       `json:"extraction_schema,omitempty"`
	NeedsReview         bool                 `json:"needs_review"`
}

// MapPlaceholders classifies the template when needed and maps its placeholders.
func (t *Tools) MapPlaceholders(ctx context.Context, _ *mcp.CallToolRequest, input InputMapPlaceholders) (*mcp.CallToolResult, OutputMapPlaceholders, error) {
	start := time.Now()
	out, err := t.mapPlaceholders(input)
	t.observe(ctx, MetadataMapPlaceholders.Name, start, err)
	if err != nil {
		return nil, OutputMapPlaceholders{}, err
	}
	return nil, out, nil
}

func (t *Tools) mapPlaceholders(input InputMapPlaceholders) (OutputMapPlaceholders, error) {
	if len(input.Placeholders) == 0 {
		return OutputMapPlaceholders{}, fmt.Errorf("placeholders is required")
	}

	res, err := t.engine.ResolveTemplate(engine.TemplateRequest{
		Placeholders: input.Placeholders,
		TemplateName: input.TemplateName,
		DocumentType: input.DocumentType,
	})
	if err != nil {
		return OutputMapPlaceholders{}, err
	}

	out := OutputMapPlaceholders{
		RunID:               res.RunID,
		DocumentType:        res.DocumentType,
		ClassificationScore: -1,
		Resolutions:         res.Resolutions,
		Quality:             res.Quality,
		CanonicalKeys:       res.CanonicalKeys,
		NeedsReview:         res.NeedsReview,
	}
	if res.Classification != nil {
		out.ClassificationScore = res.Classification.Score
	}
	if out.CanonicalKeys == nil {
		out.CanonicalKeys = []string{}
	}
	// With nothing mapped there is nothing to ask the model for; an empty key
	// list would otherwise widen the schema to every field.
	if len(out.CanonicalKeys) > 0 {
		out.ExtractionSchema, err = t.engine.ExtractionSchema(string(res.DocumentType), out.CanonicalKeys)
		if err != nil {
			return OutputMapPlaceholders{}, err
		}
	}
	return out, nil
}
