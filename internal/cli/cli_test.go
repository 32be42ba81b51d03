// SPDX-License-Identifier: Apache-2.0

package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notariaproj/notaria-mcp/internal/cli"
	"github.com/notariaproj/notaria-mcp/internal/common"
)

// run executes the root command with args and returns what it printed.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := cli.NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	return out.String(), err
}

func decode(t *testing.T, out string) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	return got
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestUIFCommand(t *testing.T) {
	out, err := run(t, "", "uif", "compraventa", "$1,500,000.00 M.N.")
	require.NoError(t, err)

	got := decode(t, out)
	assert.Equal(t, "alto", got["nivel_riesgo"])
	assert.Equal(t, "1500000.00", got["monto"])
	assert.Equal(t, "682399.60", got["umbral_aplicado"])
	assert.Equal(t, true, got["requiere_aviso"])

	_, err = run(t, "", "uif", "compraventa")
	require.Error(t, err)
}

func TestClassifyCommand_FromStdin(t *testing.T) {
	out, err := run(t, "Testador_Nombre\n\nAlbacea_Nombre\nHeredero\n", "classify", "--from", "-")
	require.NoError(t, err)

	got := decode(t, out)
	assert.Equal(t, "testamento", got["document_type"])
}

func TestMapCommand(t *testing.T) {
	out, err := run(t, "", "map", "--type", "compraventa", "Vendedor_Nombre", "Fech_Instrumnto", "Clausula_Penal")
	require.NoError(t, err)

	got := decode(t, out)
	assert.Equal(t, "compraventa", got["document_type"])
	assert.Equal(t, []any{"vendedor_nombre", "fecha_instrumento"}, got["canonical_keys"])
	assert.Equal(t, true, got["needs_review"], "one unmapped placeholder in three")
}

func TestMapCommand_MinSimilarityFlag(t *testing.T) {
	out, err := run(t, "", "map", "--type", "compraventa", "--min-similarity", "0.99", "Fech_Instrumnto")
	require.NoError(t, err)

	got := decode(t, out)
	assert.Equal(t, []any{}, got["canonical_keys"])
}

func TestValidateCommand(t *testing.T) {
	source := writeFile(t, "ocr.txt", "Comparece JUAN PÉREZ LÓPEZ y vende por $1,500,000.00 M.N.")
	values := writeFile(t, "values.json", `{"vendedor_nombre": "Juan Pérez López", "precio_venta": 1500000, "notas": "x"}`)

	out, err := run(t, "", "validate", "--type", "compraventa", "--values", values, "--source", source)
	require.NoError(t, err)

	got := decode(t, out)
	assert.Equal(t, false, got["needs_review"])
	assert.Equal(t, []any{"notas"}, got["dropped"])
	report := got["report"].(map[string]any)
	assert.Equal(t, float64(2), report["counts"].(map[string]any)["valid"])
}

func TestValidateCommand_FailOnReview(t *testing.T) {
	source := writeFile(t, "ocr.txt", "Comparece JUAN PÉREZ LÓPEZ y vende por $1,500,000.00 M.N.")

	out, err := run(t, `{"precio_venta": "$2,750,000.00"}`,
		"validate", "--type", "compraventa", "--source", source, "--fail-on-review")
	require.ErrorIs(t, err, cli.ErrNeedsReview)
	assert.Equal(t, true, decode(t, out)["needs_review"], "the report is printed before failing")
}

func TestValidateCommand_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{name: "missing type", stdin: `{}`, args: []string{"validate"}},
		{name: "empty input", stdin: "  ", args: []string{"validate", "--type", "poder"}},
		{name: "not json", stdin: "vendedor: Juan", args: []string{"validate", "--type", "poder"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.stdin, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestTypesCommand(t *testing.T) {
	out, err := run(t, "", "types")
	require.NoError(t, err)
	assert.Contains(t, out, "compraventa")
	assert.Contains(t, out, "default (default)")

	out, err = run(t, "", "types", "poder")
	require.NoError(t, err)
	assert.Contains(t, out, "poderdante_curp")
	assert.Contains(t, out, "id-document-number/curp")

	_, err = run(t, "", "types", "arrendamiento")
	require.Error(t, err)
}

func TestConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "similarity out of range", args: []string{"uif", "poder", "1", "--min-similarity", "1.5"}},
		{name: "missing registry file", args: []string{"uif", "poder", "1", "--registry", filepath.Join(t.TempDir(), "none.yaml")}},
		{name: "bad registry file", args: []string{"uif", "poder", "1", "--registry", writeFile(t, "registry.yaml", "types: 3")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "", tt.args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrConfiguration)
		})
	}
}
