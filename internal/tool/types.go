// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/notariaproj/notaria-mcp/internal/schema"
)

// MetadataListDocumentTypes describes the list_document_types tool.
var MetadataListDocumentTypes = &mcp.Tool{
	Name: "list_document_types",
	Description: "List the notarial document types the engine knows, in declaration order, " +
		"with their canonical fields. The default type is the fallback for templates " +
		"that carry no classification evidence.",
	InputSchema: map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	},
}

// InputListDocumentTypes is the input for the ListDocumentTypes tool.
type InputListDocumentTypes struct{}

// DocumentTypeSummary describes one registered document type.
type DocumentTypeSummary struct {
	Type     schema.DocumentType      `json:"type"`
	Label    string                   `json:"label"`
	Keywords []string                 `json:"keywords"`
	Fields   []schema.FieldDescriptor `json:"fields"`
}

// OutputListDocumentTypes is the output for the ListDocumentTypes tool.
type OutputListDocumentTypes struct {
	DefaultType schema.DocumentType   `json:"default_type"`
	Types       []DocumentTypeSummary `json:"types"`
}

// ListDocumentTypes returns every schema of the registry.
func (t *Tools) ListDocumentTypes(ctx context.Context, _ *mcp.CallToolRequest, _ InputListDocumentTypes) (*mcp.CallToolResult, OutputListDocumentTypes, error) {
	start := time.Now()
	out, err := t.listDocumentTypes()
	t.observe(ctx, MetadataListDocumentTypes.Name, start, err)
	if err != nil {
		return nil, OutputListDocumentTypes{}, err
	}
	return nil, out, nil
}

func (t *Tools) listDocumentTypes() (OutputListDocumentTypes, error) {
	reg := t.engine.Registry()
	out := OutputListDocumentTypes{DefaultType: reg.DefaultType()}
	for _, dt := range reg.AllTypes() {
		s, err := reg.SchemaFor(string(dt))
		if err != nil {
			return OutputListDocumentTypes{}, err
		}
		out.Types = append(out.Types, DocumentTypeSummary{
			Type:     s.Type,
			Label:    s.Label,
			Keywords: s.Keywords,
			Fields:   s.Fields,
		})
	}
	return out, nil
}
