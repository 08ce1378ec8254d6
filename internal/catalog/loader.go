package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.schema.json
var catalogSchemaJSON []byte

const catalogSchemaURL = "schema://timestables/catalog.json"

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// document is the on-disk catalog shape.
type document struct {
	FactSets []FactSet `yaml:"fact_sets"`
}

// Load reads a YAML (or JSON) catalog file, validates it against the
// catalog JSON schema and builds the catalog.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(raw)
}

// Parse builds a catalog from YAML or JSON bytes.
func Parse(raw []byte) (*Catalog, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := validateDocument(generic); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(doc.FactSets)
}

// validateDocument checks a decoded YAML value against the catalog schema.
func validateDocument(v any) error {
	schema, err := catalogSchema()
	if err != nil {
		return fmt.Errorf("compile catalog schema: %w", err)
	}

	// The schema validator expects JSON-shaped values (float64 numbers,
	// string-keyed maps), so round-trip the YAML value through JSON.
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("normalize catalog: %w", err)
	}
	var normalized any
	if err := json.Unmarshal(b, &normalized); err != nil {
		return fmt.Errorf("normalize catalog: %w", err)
	}

	if err := schema.Validate(normalized); err != nil {
		return fmt.Errorf("catalog does not match schema: %w", err)
	}
	return nil
}

func catalogSchema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		var def any
		if err := json.Unmarshal(catalogSchemaJSON, &def); err != nil {
			compileErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(catalogSchemaURL, def); err != nil {
			compileErr = err
			return
		}
		compiledSchema, compileErr = c.Compile(catalogSchemaURL)
	})
	return compiledSchema, compileErr
}
