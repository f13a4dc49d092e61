package resume

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"ResumeForge-backend/internal/model"
)

// renderResumeHTML executes the template's HTML document with the stored
// resume data.
func renderResumeHTML(tmpl model.ResumeTemplate, data []byte) (string, error) {
	parsed, err := template.New(tmpl.Slug).Parse(tmpl.HTML)
	if err != nil {
		return "", fmt.Errorf("template %q is broken: %w", tmpl.Slug, err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("stored resume data is not valid JSON: %w", err)
	}

	var buf bytes.Buffer
	if err := parsed.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("failed to render resume: %w", err)
	}
	return buf.String(), nil
}
