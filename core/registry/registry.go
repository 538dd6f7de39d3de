// Package registry maps (document type, template id) pairs to renderers.
//
// A registry is built explicitly at startup and passed to whoever renders
// documents. Registering a key twice keeps the last renderer. Resolving an
// unknown key returns ErrTemplateNotFound.
//
//	reg := registry.New[bill.Bill]()
//	reg.Register("fuel", "template1", renderer, registry.WithName("Standard Fuel Bill"), registry.AsDefault())
//
//	tpl, err := reg.Resolve("fuel", "template1")
//	component := tpl.Render(doc)
package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/a-h/templ"
)

var (
	ErrTemplateNotFound = errors.New("registry: template not found")
	ErrNoDefault        = errors.New("registry: no default template for document type")
)

// Renderer turns document data into rendered output.
type Renderer[D any] interface {
	Render(data D) templ.Component
}

// RendererFunc adapts a function to Renderer.
type RendererFunc[D any] func(data D) templ.Component

func (f RendererFunc[D]) Render(data D) templ.Component { return f(data) }

// Template is a registered renderer with its descriptor.
type Template[D any] struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Default     bool   `json:"default"`

	renderer Renderer[D]
}

// Render renders data with the template's renderer.
func (t Template[D]) Render(data D) templ.Component {
	return t.renderer.Render(data)
}

// Key returns the registry key of the template.
func (t Template[D]) Key() string {
	return key(t.Type, t.ID)
}

// Option configures a template at registration.
type Option func(*options)

type options struct {
	name        string
	description string
	isDefault   bool
}

// WithName sets the display name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithDescription sets the display description.
func WithDescription(desc string) Option {
	return func(o *options) { o.description = desc }
}

// AsDefault marks the template as the fallback for its document type.
func AsDefault() Option {
	return func(o *options) { o.isDefault = true }
}

// Registry is safe for concurrent use.
type Registry[D any] struct {
	mu        sync.RWMutex
	templates map[tkey]Template[D]
	defaults  map[string]string
}

// New creates an empty registry.
func New[D any]() *Registry[D] {
	return &Registry[D]{
		templates: make(map[tkey]Template[D]),
		defaults:  make(map[string]string),
	}
}

// Register adds or replaces the renderer for (docType, templateID).
func (r *Registry[D]) Register(docType, templateID string, renderer Renderer[D], opts ...Option) {
	o := options{name: templateID}
	for _, opt := range opts {
		opt(&o)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.templates[tkey{docType, templateID}] = Template[D]{
		Type:        docType,
		ID:          templateID,
		Name:        o.name,
		Description: o.description,
		renderer:    renderer,
	}
	if o.isDefault {
		r.defaults[docType] = templateID
	}
}

// Resolve returns the template registered under (docType, templateID).
func (r *Registry[D]) Resolve(docType, templateID string) (Template[D], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(docType, templateID)
}

// ResolveOrDefault resolves templateID and falls back to the document type's
// default when it is empty or unknown. The boolean reports a fallback.
func (r *Registry[D]) ResolveOrDefault(docType, templateID string) (Template[D], bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if templateID != "" {
		if t, err := r.resolve(docType, templateID); err == nil {
			return t, false, nil
		}
	}

	id, ok := r.defaults[docType]
	if !ok {
		return Template[D]{}, false, fmt.Errorf("%w: %s", ErrNoDefault, docType)
	}
	t, err := r.resolve(docType, id)
	if err != nil {
		return Template[D]{}, false, err
	}
	return t, true, nil
}

// SetDefault marks an already registered template as its type's default.
func (r *Registry[D]) SetDefault(docType, templateID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.templates[tkey{docType, templateID}]; !ok {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, key(docType, templateID))
	}
	r.defaults[docType] = templateID
	return nil
}

// Templates lists the templates of a document type ordered by id.
func (r *Registry[D]) Templates(docType string) []Template[D] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Template[D], 0)
	for k, t := range r.templates {
		if k.docType == docType {
			t.Default = r.defaults[docType] == t.ID
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b Template[D]) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func (r *Registry[D]) resolve(docType, templateID string) (Template[D], error) {
	t, ok := r.templates[tkey{docType, templateID}]
	if !ok {
		return Template[D]{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, key(docType, templateID))
	}
	t.Default = r.defaults[docType] == t.ID
	return t, nil
}

type tkey struct {
	docType    string
	templateID string
}

func key(docType, templateID string) string {
	return docType + "-" + templateID
}
