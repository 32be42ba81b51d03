// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"strings"

	"github.com/notariaproj/notaria-mcp/internal/common"
	"github.com/notariaproj/notaria-mcp/internal/similarity"
)

// Registry is the immutable set of document-type schemas. Build it once at
// startup with Load, LoadFile or LoadDefault and pass it to every component.
type Registry struct {
	schemas     map[DocumentType]*DocumentTypeSchema
	order       []DocumentType
	defaultType DocumentType
}

// SchemaFor returns the schema of docType, falling back to the default schema
// when the type is unknown. It fails only if no default schema exists.
func (r *Registry) SchemaFor(docType string) (*DocumentTypeSchema, error) {
	if r != nil {
		t := DocumentType(strings.ToLower(strings.TrimSpace(docType)))
		if s, ok := r.schemas[t]; ok {
			return s, nil
		}
		if s, ok := r.schemas[r.defaultType]; ok {
			return s, nil
		}
	}
	return nil, &common.UnknownSchemaError{DocumentType: docType}
}

// AllTypes returns the supported document types in declaration order.
func (r *Registry) AllTypes() []DocumentType {
	if r == nil {
		return nil
	}
	out := make([]DocumentType, len(r.order))
	copy(out, r.order)
	return out
}

// DefaultType is the type returned when classification finds no evidence.
func (r *Registry) DefaultType() DocumentType {
	return r.defaultType
}

// Definition is the declarative form of one document type, as read from the
// registry file before base fields are merged in.
type Definition struct {
	ID       DocumentType      `yaml:"id"`
	Label    string            `yaml:"label"`
	Keywords []string          `yaml:"keywords"`
	Fields   []FieldDescriptor `yaml:"fields"`
}

// New builds a Registry from definitions. Every schema receives baseFields
// ahead of its own fields. It enforces the invariants the mapper and
// classifier rely on and reports violations as a ConfigurationError.
func New(source string, defaultType DocumentType, baseFields []FieldDescriptor, defs []Definition) (*Registry, error) {
	r := &Registry{
		schemas:     make(map[DocumentType]*DocumentTypeSchema, len(defs)),
		order:       make([]DocumentType, 0, len(defs)),
		defaultType: defaultType,
	}

	for _, d := range defs {
		if !d.ID.Valid() {
			return nil, common.NewConfigurationError(source, "unknown document type "+string(d.ID), nil)
		}
		if _, dup := r.schemas[d.ID]; dup {
			return nil, common.NewConfigurationError(source, "document type declared twice: "+string(d.ID), nil)
		}

		fields := make([]FieldDescriptor, 0, len(baseFields)+len(d.Fields))
		fields = append(fields, baseFields...)
		fields = append(fields, d.Fields...)
		if err := checkFields(source, d.ID, fields); err != nil {
			return nil, err
		}

		keywords := make([]string, 0, len(d.Keywords))
		for _, kw := range d.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				keywords = append(keywords, kw)
			}
		}

		r.schemas[d.ID] = newDocumentTypeSchema(d.ID, d.Label, keywords, fields)
		r.order = append(r.order, d.ID)
	}

	if !defaultType.Valid() {
		return nil, common.NewConfigurationError(source, "default_type is not a known document type: "+string(defaultType), nil)
	}
	if _, ok := r.schemas[defaultType]; !ok {
		return nil, common.NewConfigurationError(source, "default_type "+string(defaultType)+" has no schema", nil)
	}
	return r, nil
}

func checkFields(source string, t DocumentType, fields []FieldDescriptor) error {
	keys := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Key == "" {
			return common.NewConfigurationError(source, string(t)+": field with empty key", nil)
		}
		if _, dup := keys[f.Key]; dup {
			return common.NewConfigurationError(source, string(t)+": duplicate canonical key "+f.Key, nil)
		}
		keys[f.Key] = struct{}{}

		switch f.Type {
		case Text, Date, Currency, PersonName, IDDocumentNumber, FreeTextLong:
		default:
			return common.NewConfigurationError(source, string(t)+"."+f.Key+": unknown semantic type "+string(f.Type), nil)
		}
		if f.IDKind != IDKindAny && f.Type != IDDocumentNumber {
			return common.NewConfigurationError(source, string(t)+"."+f.Key+": id_kind only applies to id-document-number fields", nil)
		}
		if f.AllowFuture && f.Type != Date {
			return common.NewConfigurationError(source, string(t)+"."+f.Key+": allow_future only applies to date fields", nil)
		}
	}

	// An alias equal to another field's canonical key would let that alias
	// steal the key in the exact pass.
	canonical := make(map[string]string, len(fields))
	for _, f := range fields {
		canonical[similarity.Normalize(f.Key)] = f.Key
	}
	for _, f := range fields {
		for _, form := range f.MatchForms() {
			if owner, ok := canonical[form]; ok && owner != f.Key {
				return common.NewConfigurationError(source, string(t)+"."+f.Key+": alias "+form+" collides with canonical key "+owner, nil)
			}
		}
	}
	return nil
}
