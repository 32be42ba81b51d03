// SPDX-License-Identifier: Apache-2.0

// Package classify picks the document type of a template from the keywords
// its placeholders and file name carry.
package classify

import (
	"strings"

	"github.com/notariaproj/notaria-mcp/internal/schema"
)

const (
	placeholderWeight  = 2
	templateNameWeight = 1
)

// TypeScore is the keyword score one document type collected.
type TypeScore struct {
	Type  schema.DocumentType `json:"type"`
	Score int                 `json:"score"`
}

// Result is the outcome of a classification. Scores lists every declared type
// in registry order.
type Result struct {
	Type   schema.DocumentType `json:"type"`
	Score  int                 `json:"score"`
	Scores []TypeScore         `json:"scores"`
}

// Classifier scores placeholders against the keyword table of each type.
type Classifier struct {
	registry *schema.Registry
}

// New creates a Classifier over registry.
func New(registry *schema.Registry) *Classifier {
	return &Classifier{registry: registry}
}

// Classify never fails: without any keyword hit it returns the registry's
// default type with score 0. Ties go to the type declared first.
func (c *Classifier) Classify(placeholders []string, templateName string) Result {
	text := strings.ToLower(strings.Join(placeholders, " "))
	name := strings.ToLower(templateName)

	types := c.registry.AllTypes()
	res := Result{
		Type:   c.registry.DefaultType(),
		Scores: make([]TypeScore, 0, len(types)),
	}
	for _, t := range types {
		s, err := c.registry.SchemaFor(string(t))
		if err != nil || s.Type != t {
			continue
		}
		score := 0
		for _, kw := range s.Keywords {
			if strings.Contains(text, kw) {
				score += placeholderWeight
			}
			if name != "" && strings.Contains(name, kw) {
				score += templateNameWeight
			}
		}
		res.Scores = append(res.Scores, TypeScore{Type: t, Score: score})
		if score > res.Score {
			res.Type = t
			res.Score = score
		}
	}
	return res
}
