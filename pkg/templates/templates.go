// Package templates holds the allow-list of pre-approved workflow
// templates that gate spawn requests arriving through introspection
// surfaces. Anything not declared here is denied.
package templates

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Template is one pre-approved spawn declaration.
type Template struct {
	// Name identifies the template; spawn requests reference it.
	Name string `yaml:"name" validate:"required"`
	// Description is shown on introspection surfaces.
	Description string `yaml:"description"`
	// Params lists the parameter keys a spawn request may provide.
	// Requests carrying any other key are denied.
	Params []string `yaml:"params"`
}

type file struct {
	Templates []Template `yaml:"templates"`
}

// Registry is the immutable-after-load lookup of approved templates.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry creates an empty registry (deny everything).
func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]Template)}
}

// Load reads and validates a YAML template file:
//
//	templates:
//	  - name: summarize
//	    description: Summarize a document
//	    params: [url, max_words]
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("templates: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse builds a registry from raw YAML.
func Parse(raw []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("templates: invalid yaml: %w", err)
	}

	validate := validator.New()
	r := NewRegistry()
	for _, t := range f.Templates {
		if err := validate.Struct(t); err != nil {
			return nil, fmt.Errorf("templates: invalid template %q: %w", t.Name, err)
		}
		if _, exists := r.templates[t.Name]; exists {
			return nil, fmt.Errorf("templates: duplicate template %q", t.Name)
		}
		r.templates[t.Name] = t
	}
	return r, nil
}

// Register adds a template programmatically.
func (r *Registry) Register(t Template) error {
	if t.Name == "" {
		return fmt.Errorf("templates: template name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.Name] = t
	return nil
}

// Lookup returns the template with the given name.
func (r *Registry) Lookup(name string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[name]
	return t, ok
}

// Names returns every approved template name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	return names
}

// Authorize rejects a spawn request unless its template is approved and
// every provided parameter key is in the template's allow-list.
func (r *Registry) Authorize(name string, params map[string]any) error {
	t, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("templates: %q is not an approved template", name)
	}
	allowed := make(map[string]struct{}, len(t.Params))
	for _, p := range t.Params {
		allowed[p] = struct{}{}
	}
	for key := range params {
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("templates: parameter %q is not allowed for template %q", key, name)
		}
	}
	return nil
}
