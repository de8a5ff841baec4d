package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"filing-backend/internal/fields"
	"filing-backend/internal/shared/apperr"
)

var (
	schemaMu    sync.Mutex
	schemaCache = map[fields.DocType]*jsonschema.Schema{}
)

// ResponseSchema returns the JSON schema a model response for t must satisfy:
// exactly the closed field list, each value nullable.
func ResponseSchema(t fields.DocType) map[string]any {
	props := map[string]any{}
	for _, f := range fields.ExpectedFields(t) {
		props[f] = propertySchema(f)
	}
	return map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
}

func propertySchema(field string) map[string]any {
	switch fields.FieldKind(field) {
	case fields.KindNumber:
		return map[string]any{"type": []string{"number", "string", "null"}}
	case fields.KindObject:
		return map[string]any{"type": []string{"object", "null"}}
	case fields.KindList:
		return map[string]any{
			"type":  []string{"array", "null"},
			"items": map[string]any{"type": "object"},
		}
	}
	if field == "taxYear" {
		return map[string]any{"type": []string{"string", "integer", "null"}}
	}
	return map[string]any{"type": []string{"string", "null"}}
}

func compiledSchema(t fields.DocType) (*jsonschema.Schema, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()
	if s, ok := schemaCache[t]; ok {
		return s, nil
	}
	b, err := json.Marshal(ResponseSchema(t))
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	name := "llm-" + string(t) + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	schemaCache[t] = s
	return s, nil
}

// ValidateResponse checks a decoded model object against the schema for t.
func ValidateResponse(t fields.DocType, obj map[string]any) error {
	s, err := compiledSchema(t)
	if err != nil {
		return err
	}
	if err := s.Validate(map[string]any(obj)); err != nil {
		return apperr.Extraction("llm.validate", fmt.Errorf("model json does not match schema: %w", err))
	}
	return nil
}
