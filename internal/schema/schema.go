// SPDX-License-Identifier: Apache-2.0

// Package schema holds the immutable registry of document-type schemas: for
// every notarial document type, the ordered canonical fields a contract needs
// and the alias spellings those fields take in real templates.
package schema

import (
	"slices"

	"github.com/notariaproj/notaria-mcp/internal/similarity"
)

// DocumentType identifies one notarial instrument family.
type DocumentType string

const (
	Compraventa DocumentType = "compraventa"
	Donacion    DocumentType = "donacion"
	Testamento  DocumentType = "testamento"
	Poder       DocumentType = "poder"
	Sociedad    DocumentType = "sociedad"
	Cancelacion DocumentType = "cancelacion"
	Default     DocumentType = "default"
)

var knownTypes = []DocumentType{
	Compraventa,
	Donacion,
	Testamento,
	Poder,
	Sociedad,
	Cancelacion,
	Default,
}

// Valid reports whether t belongs to the closed set of document types.
func (t DocumentType) Valid() bool {
	return slices.Contains(knownTypes, t)
}

// SemanticType selects the structural validator applied to a field's value.
type SemanticType string

const (
	Text             SemanticType = "text"
	Date             SemanticType = "date"
	Currency         SemanticType = "currency"
	PersonName       SemanticType = "person-name"
	IDDocumentNumber SemanticType = "id-document-number"
	FreeTextLong     SemanticType = "free-text-long"
)

// IDKind narrows an id-document-number field to one identifier shape.
type IDKind string

const (
	IDKindAny          IDKind = ""
	IDKindCURP         IDKind = "curp"
	IDKindRFC          IDKind = "rfc"
	IDKindClaveElector IDKind = "clave_elector"
)

// FieldDescriptor describes one canonical slot of a schema.
type FieldDescriptor struct {
	Key         string       `yaml:"key" json:"key"`
	Label       string       `yaml:"label" json:"label"`
	Type        SemanticType `yaml:"type" json:"type"`
	IDKind      IDKind       `yaml:"id_kind,omitempty" json:"id_kind,omitempty"`
	AllowFuture bool         `yaml:"allow_future,omitempty" json:"allow_future,omitempty"`
	Aliases     []string     `yaml:"aliases,omitempty" json:"aliases,omitempty"`
}

// MatchForms returns the normalised strings a placeholder may equal to claim
// this field: the canonical key, the label and every alias, deduplicated in
// that order.
func (f FieldDescriptor) MatchForms() []string {
	forms := make([]string, 0, len(f.Aliases)+2)
	seen := make(map[string]struct{}, len(f.Aliases)+2)
	add := func(s string) {
		n := similarity.Normalize(s)
		if n == "" {
			return
		}
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		forms = append(forms, n)
	}
	add(f.Key)
	add(f.Label)
	for _, a := range f.Aliases {
		add(a)
	}
	return forms
}

// DocumentTypeSchema is the resolved field list of one document type. It is
// shared read-only between requests once the registry is built.
type DocumentTypeSchema struct {
	Type     DocumentType
	Label    string
	Keywords []string
	Fields   []FieldDescriptor

	index map[string]int
	forms [][]string
}

func newDocumentTypeSchema(t DocumentType, label string, keywords []string, fields []FieldDescriptor) *DocumentTypeSchema {
	s := &DocumentTypeSchema{
		Type:     t,
		Label:    label,
		Keywords: keywords,
		Fields:   fields,
		index:    make(map[string]int, len(fields)),
		forms:    make([][]string, len(fields)),
	}
	for i, f := range fields {
		s.index[f.Key] = i
		s.forms[i] = f.MatchForms()
	}
	return s
}

// Field looks up a descriptor by canonical key.
func (s *DocumentTypeSchema) Field(key string) (FieldDescriptor, bool) {
	i, ok := s.index[key]
	if !ok {
		return FieldDescriptor{}, false
	}
	return s.Fields[i], true
}

// Keys returns the canonical keys in declaration order.
func (s *DocumentTypeSchema) Keys() []string {
	keys := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		keys[i] = f.Key
	}
	return keys
}

// MatchForms returns the precomputed normalised forms of the field at index i.
func (s *DocumentTypeSchema) MatchForms(i int) []string {
	return s.forms[i]
}
