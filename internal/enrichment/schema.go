package enrichment

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const salarySchemaJSON = `{
	"type": "object",
	"required": ["period"],
	"properties": {
		"min": {"type": ["number", "null"], "minimum": 0},
		"max": {"type": ["number", "null"], "minimum": 0},
		"currency": {"type": ["string", "null"]},
		"period": {"type": "string"}
	}
}`

const skillsSchemaJSON = `{
	"type": "array",
	"items": {"type": "string"}
}`

var (
	salarySchema = mustSchema(salarySchemaJSON)
	skillsSchema = mustSchema(skillsSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("enrichment: invalid schema: %v", err))
	}
	return s
}

// checkShape validates a model answer against schema before decoding.
func checkShape(schema *gojsonschema.Schema, doc string) error {
	res, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("malformed json: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		field := e.Field()
		if field == "" {
			field = "(root)"
		}
		msgs = append(msgs, field+": "+e.Description())
	}
	return fmt.Errorf("unexpected shape: %s", strings.Join(msgs, "; "))
}
