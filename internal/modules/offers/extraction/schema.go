package extraction

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const groupsSchemaDoc = `{
  "type": "object",
  "properties": {
    "document_title": { "type": ["string", "null"] },
    "groups": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "group_no": { "type": ["string", "null"] },
          "title": { "type": "string" },
          "page_from": { "type": ["integer", "null"] },
          "page_to": { "type": ["integer", "null"] }
        },
        "required": ["title"]
      }
    }
  },
  "required": ["groups"]
}`

const variantsSchemaDoc = `{
  "type": "object",
  "properties": {
    "variants": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "variant_no": { "type": ["string", "null"] },
          "title": { "type": "string" },
          "page_from": { "type": ["integer", "null"] },
          "page_to": { "type": ["integer", "null"] },
          "text": { "type": ["string", "null"] }
        },
        "required": ["title"]
      }
    }
  },
  "required": ["variants"]
}`

const componentsSchemaDoc = `{
  "type": "object",
  "properties": {
    "components": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "component_description": { "type": "string" },
          "variant_nos": { "type": "array", "items": { "type": "string" } }
        },
        "required": ["component_description", "variant_nos"]
      }
    }
  },
  "required": ["components"]
}`

type schemas struct {
	groups     *jsonschema.Schema
	variants   *jsonschema.Schema
	components *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	compiler := jsonschema.NewCompiler()
	docs := map[string]string{
		"groups.json":     groupsSchemaDoc,
		"variants.json":   variantsSchemaDoc,
		"components.json": componentsSchemaDoc,
	}
	for name, doc := range docs {
		if err := compiler.AddResource(name, strings.NewReader(doc)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}
	out := &schemas{}
	var err error
	if out.groups, err = compiler.Compile("groups.json"); err != nil {
		return nil, fmt.Errorf("compile groups schema: %w", err)
	}
	if out.variants, err = compiler.Compile("variants.json"); err != nil {
		return nil, fmt.Errorf("compile variants schema: %w", err)
	}
	if out.components, err = compiler.Compile("components.json"); err != nil {
		return nil, fmt.Errorf("compile components schema: %w", err)
	}
	return out, nil
}
