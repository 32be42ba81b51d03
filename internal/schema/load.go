// SPDX-License-Identifier: Apache-2.0

package schema

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/goccy/go-yaml"

	"github.com/notariaproj/notaria-mcp/internal/common"
)

//go:embed registry.yaml
var defaultRegistryYAML []byte

//go:embed registry.cue
var registryCUE string

// registryFile is the on-disk layout of a registry document.
type registryFile struct {
	DefaultType DocumentType      `yaml:"default_type"`
	BaseFields  []FieldDescriptor `yaml:"base_fields"`
	Types       []Definition      `yaml:"types"`
}

// LoadDefault builds the registry shipped with the binary.
func LoadDefault() (*Registry, error) {
	return Load(defaultRegistryYAML, "embedded registry.yaml")
}

// LoadFile builds a registry from an external YAML file.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.NewConfigurationError(path, "read registry", err)
	}
	return Load(data, path)
}

// Load decodes a registry document, checks it against the #Registry CUE
// definition and builds the Registry. source names the document in errors.
func Load(data []byte, source string) (*Registry, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, common.NewConfigurationError(source, "decode registry yaml", err)
	}
	if err := checkShape(raw); err != nil {
		return nil, common.NewConfigurationError(source, "registry does not match #Registry", err)
	}

	var doc registryFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, common.NewConfigurationError(source, "decode registry yaml", err)
	}
	return New(source, doc.DefaultType, doc.BaseFields, doc.Types)
}

// checkShape unifies the decoded document with the closed #Registry
// definition, so unknown keys, wrong types and out-of-set enums fail here
// instead of during a request.
func checkShape(raw map[string]any) error {
	if raw == nil {
		return fmt.Errorf("empty document")
	}
	ctx := cuecontext.New()
	def := ctx.CompileString(registryCUE, cue.Filename("registry.cue"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("compile registry.cue: %w", err)
	}
	registry := def.LookupPath(cue.ParsePath("#Registry"))
	if err := registry.Err(); err != nil {
		return fmt.Errorf("lookup #Registry: %w", err)
	}
	value := ctx.Encode(raw)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return registry.Unify(value).Validate(cue.Concrete(true))
}
