// Package schema implements the pure-function Schema Splitter: partitioning
// a JSON Schema into per-page and full-document sub-schemas by top-level
// property name.
package schema

import (
	"github.com/adverant/zerox/internal/pipelineerr"
)

// Split partitions schema into perPageSchema and fullDocSchema according to
// extractPerPage (the set of top-level property names treated as per-page).
// Either return value is nil when its subset of properties is empty. When
// extractPerPage is empty, every property is full-document.
func Split(schema map[string]interface{}, extractPerPage []string) (perPage, fullDoc map[string]interface{}, err error) {
	if schema == nil {
		return nil, nil, pipelineerr.NewSchemaError("schema must be a non-nil object")
	}

	properties, _ := schema["properties"].(map[string]interface{})
	if properties == nil {
		return nil, nil, pipelineerr.NewSchemaError("schema.properties must be an object")
	}

	perPageSet := make(map[string]bool, len(extractPerPage))
	for _, name := range extractPerPage {
		perPageSet[name] = true
	}

	perPageProps := map[string]interface{}{}
	fullDocProps := map[string]interface{}{}
	for name, def := range properties {
		if perPageSet[name] {
			perPageProps[name] = def
		} else {
			fullDocProps[name] = def
		}
	}

	requiredList, _ := schema["required"].([]interface{})

	if len(perPageProps) > 0 {
		perPage = buildSubSchema(schema, perPageProps, requiredList)
	}
	if len(fullDocProps) > 0 {
		fullDoc = buildSubSchema(schema, fullDocProps, requiredList)
	}
	return perPage, fullDoc, nil
}

func buildSubSchema(original map[string]interface{}, props map[string]interface{}, required []interface{}) map[string]interface{} {
	sub := map[string]interface{}{
		"type":       stringOr(original["type"], "object"),
		"properties": props,
	}

	var satisfiable []interface{}
	for _, r := range required {
		name, ok := r.(string)
		if !ok {
			continue
		}
		if _, present := props[name]; present {
			satisfiable = append(satisfiable, r)
		}
	}
	if len(satisfiable) > 0 {
		sub["required"] = satisfiable
	}
	return sub
}

func stringOr(v interface{}, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}
