// Package render expands {{name}}-style placeholders in dynamic task
// fields against a variable map. Every dynamic field of a mail task is
// passed through a Renderer before use, so recipient lists, subjects and
// attachment URIs may all reference task variables.
package render

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

// Renderer expands a template string against a variable map.
type Renderer interface {
	// Render returns tmpl with every placeholder substituted from vars.
	// It fails with UndefinedVariableError when a referenced variable is
	// not present in vars.
	Render(tmpl string, vars map[string]any) (string, error)
}

// UndefinedVariableError is returned when a template references a
// variable that is missing from the render context.
type UndefinedVariableError struct {
	Name  string
	Cause error
}

func (e *UndefinedVariableError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("undefined variable %q", e.Name)
	}
	return "undefined variable"
}

func (e *UndefinedVariableError) Unwrap() error { return e.Cause }

// placeholderPattern matches {{name}} and {{a.b.c}} placeholders with bare
// identifiers. Expressions that already use template syntax ({{.Field}},
// {{if ...}}) are left untouched.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*\}\}`)

// missingKeyPattern extracts the variable name from text/template's
// missingkey=error execution failure.
var missingKeyPattern = regexp.MustCompile(`no entry for key "([^"]+)"`)

// TemplateRenderer renders placeholders using text/template with strict
// missing-key handling.
type TemplateRenderer struct{}

// NewTemplateRenderer creates a TemplateRenderer.
func NewTemplateRenderer() *TemplateRenderer { return &TemplateRenderer{} }

// Render implements Renderer.
func (r *TemplateRenderer) Render(tmpl string, vars map[string]any) (string, error) {
	// Fast path: nothing to expand.
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}
	if vars == nil {
		vars = map[string]any{}
	}

	normalized := placeholderPattern.ReplaceAllString(tmpl, "{{.$1}}")

	t, err := template.New("field").Option("missingkey=error").Parse(normalized)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf strings.Builder
	if err := t.Execute(&buf, vars); err != nil {
		if m := missingKeyPattern.FindStringSubmatch(err.Error()); m != nil {
			return "", &UndefinedVariableError{Name: m[1], Cause: err}
		}
		return "", fmt.Errorf("rendering template: %w", err)
	}
	return buf.String(), nil
}
