package resume

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// resumeDataSchema is the shape every saved resume document must satisfy.
// Section entries are free-form objects; only the skeleton is enforced so
// template changes don't invalidate stored resumes.
const resumeDataSchema = `{
	"type": "object",
	"required": ["personal"],
	"properties": {
		"personal": {
			"type": "object",
			"required": ["full_name"],
			"properties": {
				"full_name": {"type": "string", "minLength": 1},
				"headline": {"type": "string"},
				"email": {"type": "string"},
				"phone": {"type": "string"},
				"location": {"type": "string"}
			}
		},
		"summary": {"type": "string"},
		"experience": {
			"type": "array",
			"items": {"type": "object"}
		},
		"education": {
			"type": "array",
			"items": {"type": "object"}
		},
		"skills": {
			"type": "array",
			"items": {"type": "string"}
		},
		"projects": {
			"type": "array",
			"items": {"type": "object"}
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(resumeDataSchema)

// ValidateResumeData checks the resume document against the schema and
// returns a single error describing every violation.
func ValidateResumeData(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("resume_data must be provided")
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("resume_data is not valid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("resume_data is invalid: %s", strings.Join(problems, "; "))
}
