package templates

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// RenderTemplateBody renders a text template body with the provided data.
// Missing keys are errors.
func RenderTemplateBody(bodyTemplate string, data map[string]any) (string, error) {
	funcs := template.FuncMap{
		"title": func(s string) string {
			words := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
			for i, w := range words {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
			return strings.Join(words, " ")
		},
	}

	tpl, err := template.New("body").Funcs(funcs).Option("missingkey=error").Parse(bodyTemplate)
	if err != nil {
		return "", fmt.Errorf("parse template body: %w", err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template body: %w", err)
	}
	return buf.String(), nil
}
