// Package templates bundles the HTML mail templates shipped with the
// binary and expands them against task variables.
package templates

import (
	"embed"
	"fmt"
	"path"

	"github.com/flowmail/mailtask/internal/render"
)

//go:embed templates
var templatesFS embed.FS

// TemplateNotFoundError is returned when no bundled template matches the
// requested URI.
type TemplateNotFoundError struct {
	URI string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("mail template %q not found", e.URI)
}

// TemplateRenderError is returned when a located template fails to expand,
// typically because a referenced variable is undefined.
type TemplateRenderError struct {
	URI   string
	Cause error
}

func (e *TemplateRenderError) Error() string {
	return fmt.Sprintf("rendering mail template %q: %v", e.URI, e.Cause)
}

func (e *TemplateRenderError) Unwrap() error { return e.Cause }

// Expander loads bundled HTML templates and expands them with a Renderer.
type Expander struct {
	renderer render.Renderer
}

// NewExpander creates an Expander using the given renderer.
func NewExpander(renderer render.Renderer) *Expander {
	return &Expander{renderer: renderer}
}

// Expand loads the named bundled template as UTF-8 text and substitutes
// its placeholders from vars. An empty templateURI expands to an empty
// string. The template is re-read and re-expanded on every call; render
// frequency is low and the resources are small, so no caching is done.
func (e *Expander) Expand(templateURI string, vars map[string]any) (string, error) {
	if templateURI == "" {
		return "", nil
	}

	raw, err := templatesFS.ReadFile(path.Join("templates", templateURI))
	if err != nil {
		return "", &TemplateNotFoundError{URI: templateURI}
	}

	out, err := e.renderer.Render(string(raw), vars)
	if err != nil {
		return "", &TemplateRenderError{URI: templateURI, Cause: err}
	}
	return out, nil
}
