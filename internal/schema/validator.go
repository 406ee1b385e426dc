package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed definitions.schema.yaml
var definitionsSchema []byte

const definitionsSchemaURL = "nthflow://schemas/definitions.schema.json"

// Validator checks decoded definition files against a JSON schema
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the built-in definitions schema
func NewValidator() (*Validator, error) {
	schema, err := compile(definitionsSchemaURL, definitionsSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile definitions schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// NewValidatorFromFile compiles a schema file (JSON or YAML) in place of the built-in one
func NewValidatorFromFile(path string) (*Validator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	schema, err := compile("nthflow://schemas/custom/"+filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", path, err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks a decoded YAML document
func (v *Validator) Validate(doc interface{}) error {
	if v.schema == nil {
		return fmt.Errorf("definitions schema not loaded")
	}

	// Round-trip through JSON so the validator only sees JSON value types
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to convert document for validation: %w", err)
	}
	var normalized interface{}
	if err := json.Unmarshal(data, &normalized); err != nil {
		return fmt.Errorf("failed to convert document for validation: %w", err)
	}

	return v.schema.Validate(normalized)
}

// compile loads a schema (JSON or YAML) under the given URL
func compile(url string, data []byte) (*jsonschema.Schema, error) {
	// Parse YAML to interface{} (supports both YAML and JSON)
	var schemaData interface{}
	if err := yaml.Unmarshal(data, &schemaData); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	jsonData, err := json.Marshal(schemaData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, strings.NewReader(string(jsonData))); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}
