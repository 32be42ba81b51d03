// SPDX-License-Identifier: Apache-2.0

// Package extraction defines the contract with the AI extraction
// collaborator: the JSON Schema it is constrained with, and the lenient
// decoding of its reply into canonical key/value pairs.
package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/notariaproj/notaria-mcp/internal/schema"
)

// ErrInvalidPayload is wrapped by every DecodePayload failure.
var ErrInvalidPayload = errors.New("invalid extraction payload")

const (
	maxShortValue = 512
	maxLongValue  = 8192
)

var typeHints = map[schema.SemanticType]string{
	schema.Text:             "texto tal como aparece en el documento",
	schema.Date:             "fecha tal como aparece en el documento, p. ej. 15/03/2024",
	schema.Currency:         "importe con cifras, p. ej. $1,500,000.00",
	schema.PersonName:       "nombre completo de la persona",
	schema.IDDocumentNumber: "identificador oficial (CURP, RFC o clave de elector) sin espacios",
	schema.FreeTextLong:     "texto completo del apartado",
}

// BuildJSONSchema returns a JSON Schema (draft 2020-12 subset) as a generic
// map for the given canonical keys. Keys the schema does not declare are
// skipped; an empty keys slice selects every field. Every property accepts a
// string or null so the collaborator can report values it could not find.
func BuildJSONSchema(s *schema.DocumentTypeSchema, keys []string) map[string]any {
	props := map[string]any{}
	for _, f := range selectFields(s, keys) {
		maxLen := maxShortValue
		if f.Type == schema.FreeTextLong {
			maxLen = maxLongValue
		}
		props[f.Key] = map[string]any{
			"type":        []string{"string", "null"},
			"maxLength":   maxLen,
			"description": f.Label + ": " + typeHints[f.Type],
		}
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
}

// Payload is a decoded extraction reply.
type Payload struct {
	// Values maps canonical keys to raw strings; null becomes "".
	Values map[string]string
	// Dropped lists keys that were not requested or whose value could not be
	// turned into a string, sorted.
	Dropped []string
	// Coerced lists keys whose non-string value was rendered as a string, sorted.
	Coerced []string
}

// DecodePayload decodes raw leniently and validates the result against
// BuildJSONSchema(s, keys). Numbers keep their literal digits.
func DecodePayload(raw []byte, s *schema.DocumentTypeSchema, keys []string) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return Payload{}, fmt.Errorf("%w: decode: %v", ErrInvalidPayload, err)
	}
	if doc == nil {
		return Payload{}, fmt.Errorf("%w: expected a JSON object", ErrInvalidPayload)
	}

	allowed := make(map[string]struct{})
	for _, f := range selectFields(s, keys) {
		allowed[f.Key] = struct{}{}
	}

	p := Payload{Values: make(map[string]string, len(doc)), Dropped: []string{}, Coerced: []string{}}
	clean := make(map[string]any, len(doc))
	for k, v := range doc {
		if _, ok := allowed[k]; !ok {
			p.Dropped = append(p.Dropped, k)
			continue
		}
		var value string
		switch t := v.(type) {
		case nil:
			clean[k] = nil
		case string:
			value = strings.TrimSpace(t)
			clean[k] = value
		case json.Number:
			value = t.String()
			clean[k] = value
			p.Coerced = append(p.Coerced, k)
		case bool:
			value = strconv.FormatBool(t)
			clean[k] = value
			p.Coerced = append(p.Coerced, k)
		default:
			p.Dropped = append(p.Dropped, k)
			continue
		}
		p.Values[k] = value
	}
	sort.Strings(p.Dropped)
	sort.Strings(p.Coerced)

	if err := validate(BuildJSONSchema(s, keys), clean); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return p, nil
}

func validate(schemaMap map[string]any, doc map[string]any) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("extraction.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	compiled, err := compiler.Compile("extraction.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := compiled.Validate(doc); err != nil {
		return fmt.Errorf("payload does not match schema: %w", err)
	}
	return nil
}

func selectFields(s *schema.DocumentTypeSchema, keys []string) []schema.FieldDescriptor {
	if s == nil {
		return nil
	}
	if len(keys) == 0 {
		return s.Fields
	}
	out := make([]schema.FieldDescriptor, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		if f, ok := s.Field(k); ok {
			seen[k] = struct{}{}
			out = append(out, f)
		}
	}
	return out
}
