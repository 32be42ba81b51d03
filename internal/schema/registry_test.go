// SPDX-License-Identifier: Apache-2.0

package schema_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notariaproj/notaria-mcp/internal/common"
	"github.com/notariaproj/notaria-mcp/internal/schema"
)

// ---------------------------------------------------------------------------
// Embedded registry
// ---------------------------------------------------------------------------

func TestLoadDefault(t *testing.T) {
	reg, err := schema.LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, []schema.DocumentType{
		schema.Compraventa,
		schema.Donacion,
		schema.Testamento,
		schema.Poder,
		schema.Sociedad,
		schema.Cancelacion,
		schema.Default,
	}, reg.AllTypes())
	assert.Equal(t, schema.Default, reg.DefaultType())
}

func TestRegistry_SchemaFor(t *testing.T) {
	reg, err := schema.LoadDefault()
	require.NoError(t, err)

	s, err := reg.SchemaFor("compraventa")
	require.NoError(t, err)
	assert.Equal(t, schema.Compraventa, s.Type)

	keys := s.Keys()
	assert.Equal(t, "fecha_instrumento", keys[0], "base fields come first")
	assert.Contains(t, keys, "precio_venta")

	f, ok := s.Field("vendedor_curp")
	require.True(t, ok)
	assert.Equal(t, schema.IDDocumentNumber, f.Type)
	assert.Equal(t, schema.IDKindCURP, f.IDKind)

	t.Run("case and whitespace are ignored", func(t *testing.T) {
		s, err := reg.SchemaFor("  Poder ")
		require.NoError(t, err)
		assert.Equal(t, schema.Poder, s.Type)
	})

	t.Run("unknown type falls back to default", func(t *testing.T) {
		s, err := reg.SchemaFor("arrendamiento")
		require.NoError(t, err)
		assert.Equal(t, schema.Default, s.Type)
		assert.Contains(t, s.Keys(), "fecha_instrumento")
	})

	t.Run("nil registry reports unknown schema", func(t *testing.T) {
		var empty *schema.Registry
		_, err := empty.SchemaFor("compraventa")
		var unknown *common.UnknownSchemaError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "compraventa", unknown.DocumentType)
	})
}

func TestRegistry_AllTypesIsACopy(t *testing.T) {
	reg, err := schema.LoadDefault()
	require.NoError(t, err)

	types := reg.AllTypes()
	types[0] = "tampered"
	assert.Equal(t, schema.Compraventa, reg.AllTypes()[0])
}

func TestFieldDescriptor_MatchForms(t *testing.T) {
	f := schema.FieldDescriptor{
		Key:     "fecha_instrumento",
		Label:   "Fecha del instrumento",
		Aliases: []string{"Fecha_Escritura", "fecha escritura", "FECHA FIRMA"},
	}
	assert.Equal(t, []string{
		"fecha instrumento",
		"fecha del instrumento",
		"fecha escritura",
		"fecha firma",
	}, f.MatchForms())
}

// ---------------------------------------------------------------------------
// Load validation
// ---------------------------------------------------------------------------

const minimalRegistry = `
default_type: default
base_fields:
  - key: fecha_instrumento
    label: Fecha
    type: date
types:
  - id: poder
    label: Poder
    keywords: [Poder, apoderado]
    fields:
      - key: apoderado_nombre
        label: Apoderado
        type: person-name
        aliases: [apoderado]
  - id: default
    label: Generico
    keywords: []
    fields: []
`

func TestLoad_Minimal(t *testing.T) {
	reg, err := schema.Load([]byte(minimalRegistry), "test")
	require.NoError(t, err)

	s, err := reg.SchemaFor("poder")
	require.NoError(t, err)
	assert.Equal(t, []string{"fecha_instrumento", "apoderado_nombre"}, s.Keys())
	assert.Equal(t, []string{"poder", "apoderado"}, s.Keywords, "keywords are lower-cased")
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name        string
		doc         string
		errContains string
	}{
		{
			name:        "not yaml",
			doc:         "types: [unclosed",
			errContains: "decode registry yaml",
		},
		{
			name:        "empty document",
			doc:         "",
			errContains: "#Registry",
		},
		{
			name: "unknown document type",
			doc: `
default_type: default
base_fields: []
types:
  - id: arrendamiento
    label: Arrendamiento
    keywords: []
    fields: []
`,
			errContains: "#Registry",
		},
		{
			name: "unknown semantic type",
			doc: `
default_type: default
base_fields:
  - key: fecha_instrumento
    label: Fecha
    type: timestamp
types:
  - id: default
    label: Generico
    keywords: []
    fields: []
`,
			errContains: "#Registry",
		},
		{
			name: "unexpected key",
			doc: `
default_type: default
base_fields: []
types:
  - id: default
    label: Generico
    keywords: []
    fields: []
    priority: 3
`,
			errContains: "#Registry",
		},
		{
			name: "default schema missing",
			doc: `
default_type: default
base_fields: []
types:
  - id: poder
    label: Poder
    keywords: [poder]
    fields: []
`,
			errContains: "has no schema",
		},
		{
			name: "duplicate canonical key",
			doc: `
default_type: default
base_fields:
  - key: fecha_instrumento
    label: Fecha
    type: date
types:
  - id: default
    label: Generico
    keywords: []
    fields:
      - key: fecha_instrumento
        label: Otra fecha
        type: date
`,
			errContains: "duplicate canonical key",
		},
		{
			name: "duplicate document type",
			doc: `
default_type: default
base_fields: []
types:
  - id: default
    label: Generico
    keywords: []
    fields: []
  - id: default
    label: Generico otra vez
    keywords: []
    fields: []
`,
			errContains: "declared twice",
		},
		{
			name: "alias collides with another canonical key",
			doc: `
default_type: default
base_fields: []
types:
  - id: default
    label: Generico
    keywords: []
    fields:
      - key: vendedor_nombre
        label: Vendedor
        type: person-name
      - key: comprador_nombre
        label: Comprador
        type: person-name
        aliases: [Vendedor Nombre]
`,
			errContains: "collides with canonical key vendedor_nombre",
		},
		{
			name: "id_kind on a text field",
			doc: `
default_type: default
base_fields: []
types:
  - id: default
    label: Generico
    keywords: []
    fields:
      - key: folio_real
        label: Folio
        type: text
        id_kind: curp
`,
			errContains: "id_kind only applies",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.Load([]byte(tt.doc), "test.yaml")
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalRegistry), 0o600))

	reg, err := schema.LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, reg.AllTypes(), 2)

	_, err = schema.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}
