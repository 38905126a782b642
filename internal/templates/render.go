// Package templates renders the HTML fragments patched into the viewer over
// Datastar SSE.
package templates

import (
	"bytes"
	"html/template"
	"io/fs"
	"sync"

	"github.com/rotisserie/eris"
)

// FragmentsPattern matches the fragment templates inside a web filesystem.
const FragmentsPattern = "templates/fragments/*.html"

// funcMap provides common template functions.
var funcMap = template.FuncMap{
	// dict creates a map from key-value pairs, useful for passing multiple values to nested templates
	"dict": func(values ...any) map[string]any {
		if len(values)%2 != 0 {
			return nil
		}
		m := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			m[key] = values[i+1]
		}
		return m
	},
	// safeCSS lets a legend colour through into a style attribute.
	"safeCSS": func(s string) template.CSS {
		return template.CSS(s)
	},
}

// Renderer manages HTML fragment templates.
type Renderer struct {
	fsys      fs.FS
	templates *template.Template
	mu        sync.RWMutex
}

// New parses the fragment templates found in fsys.
func New(fsys fs.FS) (*Renderer, error) {
	tmpl, err := parse(fsys)
	if err != nil {
		return nil, err
	}
	return &Renderer{fsys: fsys, templates: tmpl}, nil
}

func parse(fsys fs.FS) (*template.Template, error) {
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(fsys, FragmentsPattern)
	if err != nil {
		return nil, eris.Wrap(err, "parse fragment templates")
	}
	return tmpl, nil
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToBuffer(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer renders a named template to a buffer.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.templates.ExecuteTemplate(buf, name, data); err != nil {
		return eris.Wrapf(err, "render %q", name)
	}
	return nil
}

// Reload re-parses the templates (useful with an on-disk web dir during
// development).
func (r *Renderer) Reload() error {
	tmpl, err := parse(r.fsys)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}
