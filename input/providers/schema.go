package providers

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/gradreader/readerpack/core"
	"github.com/gradreader/readerpack/input/story"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

var outputSchema struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

func compiledOutputSchema() (*jsonschema.Schema, error) {
	outputSchema.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("story.json", strings.NewReader(story.OutputSchema)); err != nil {
			outputSchema.err = err
			return
		}
		outputSchema.schema, outputSchema.err = compiler.Compile("story.json")
	})
	return outputSchema.schema, outputSchema.err
}

// ValidateOutput checks the JSON response of a model against the schema
// for stories.
func ValidateOutput(payload []byte) error {
	schema, err := compiledOutputSchema()
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot compile story schema")
	}
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return core.WrapError(err, core.EINVALID, "Model response was not valid JSON.")
	}
	if err := schema.Validate(doc); err != nil {
		return core.WrapError(err, core.EINVALID, "model response does not match the story schema")
	}
	return nil
}

// extractJSON returns the JSON object of a model response, stripping code
// fences and text around it.
func extractJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end < start {
		return trimmed
	}
	return trimmed[start : end+1]
}
