package config

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	errs "github.com/c360/retrywrap/errors"
)

//go:embed schema/retryrun.schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// Schema returns the JSON schema configuration documents are checked against
func Schema() []byte {
	return append([]byte(nil), schemaJSON...)
}

// ValidateDocument checks a decoded YAML or JSON document against the schema.
// Every violation is reported in one error.
func ValidateDocument(doc map[string]any) error {
	schema, err := compiledSchema()
	if err != nil {
		return errs.WrapFatal(err, "config", "ValidateDocument", "compile embedded schema")
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return errs.WrapInvalid(fmt.Errorf("%w: %v", errs.ErrInvalidConfig, err),
			"config", "ValidateDocument", "validate document")
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return errs.WrapInvalid(
		fmt.Errorf("%w: schema validation failed: %s", errs.ErrInvalidConfig, strings.Join(problems, "; ")),
		"config", "ValidateDocument", "validate document")
}
