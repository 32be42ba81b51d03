// SPDX-License-Identifier: Apache-2.0

package extraction_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notariaproj/notaria-mcp/internal/extraction"
	"github.com/notariaproj/notaria-mcp/internal/schema"
)

func compraventa(t *testing.T) *schema.DocumentTypeSchema {
	t.Helper()
	reg, err := schema.LoadDefault()
	require.NoError(t, err)
	s, err := reg.SchemaFor("compraventa")
	require.NoError(t, err)
	return s
}

func TestBuildJSONSchema(t *testing.T) {
	s := compraventa(t)

	t.Run("selected keys", func(t *testing.T) {
		got := extraction.BuildJSONSchema(s, []string{"vendedor_nombre", "precio_venta", "no_existe", "vendedor_nombre"})
		assert.Equal(t, "object", got["type"])
		assert.Equal(t, false, got["additionalProperties"])

		props, ok := got["properties"].(map[string]any)
		require.True(t, ok)
		assert.Len(t, props, 2)
		assert.Contains(t, props, "vendedor_nombre")
		assert.Contains(t, props, "precio_venta")

		prop := props["precio_venta"].(map[string]any)
		assert.Equal(t, []string{"string", "null"}, prop["type"])
		assert.Contains(t, prop["description"], "Precio de venta")
	})

	t.Run("no keys selects every field", func(t *testing.T) {
		got := extraction.BuildJSONSchema(s, nil)
		props := got["properties"].(map[string]any)
		assert.Len(t, props, len(s.Fields))
	})
}

func TestDecodePayload(t *testing.T) {
	s := compraventa(t)
	keys := []string{"vendedor_nombre", "precio_venta", "vendedor_curp", "fecha_instrumento"}

	tests := []struct {
		name        string
		raw         string
		wantValues  map[string]string
		wantDropped []string
		wantCoerced []string
		wantErr     bool
		errContains string
	}{
		{
			name: "lenient coercion",
			raw: `{
				"vendedor_nombre": "  Juan Pérez López ",
				"precio_venta": 1500000.50,
				"vendedor_curp": null,
				"comentario": "no solicitado"
			}`,
			wantValues: map[string]string{
				"vendedor_nombre": "Juan Pérez López",
				"precio_venta":    "1500000.50",
				"vendedor_curp":   "",
			},
			wantDropped: []string{"comentario"},
			wantCoerced: []string{"precio_venta"},
		},
		{
			name:        "structured value is dropped",
			raw:         `{"fecha_instrumento": {"dia": 15}, "vendedor_nombre": "Juan"}`,
			wantValues:  map[string]string{"vendedor_nombre": "Juan"},
			wantDropped: []string{"fecha_instrumento"},
			wantCoerced: []string{},
		},
		{
			name:        "not json",
			raw:         `vendedor: Juan`,
			wantErr:     true,
			errContains: "decode",
		},
		{
			name:        "array instead of object",
			raw:         `["Juan"]`,
			wantErr:     true,
			errContains: "decode",
		},
		{
			name:        "null document",
			raw:         `null`,
			wantErr:     true,
			errContains: "expected a JSON object",
		},
		{
			name:        "value longer than allowed",
			raw:         `{"vendedor_nombre": "` + strings.Repeat("a", 600) + `"}`,
			wantErr:     true,
			errContains: "does not match schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extraction.DecodePayload([]byte(tt.raw), s, keys)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, extraction.ErrInvalidPayload)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantValues, got.Values)
			assert.Equal(t, tt.wantDropped, got.Dropped)
			assert.Equal(t, tt.wantCoerced, got.Coerced)
		})
	}
}
