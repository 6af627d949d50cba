// Package extension holds the owned registry through which document
// components, node renderers and transform hooks are composed.
package extension

import (
	"fmt"
	"sync"

	"ubreader/internal/document"
	"ubreader/internal/reference"
)

// Slot is a place in a rendered page that a component can fill.
type Slot int

const (
	SlotDocumentHeader Slot = iota
	SlotTableOfContents
	SlotContentRenderer
	SlotNodeRenderer
)

// String implements fmt.Stringer.
func (s Slot) String() string {
	switch s {
	case SlotDocumentHeader:
		return "document-header"
	case SlotTableOfContents:
		return "table-of-contents"
	case SlotContentRenderer:
		return "content-renderer"
	case SlotNodeRenderer:
		return "node-renderer"
	}
	return fmt.Sprintf("slot(%d)", int(s))
}

// HookType identifies a point in the pipeline where hooks run.
type HookType int

const (
	HookAfterTransform HookType = iota
	HookBeforeIndex
)

// String implements fmt.Stringer.
func (h HookType) String() string {
	switch h {
	case HookAfterTransform:
		return "after-transform"
	case HookBeforeIndex:
		return "before-index"
	}
	return fmt.Sprintf("hook(%d)", int(h))
}

// Component renders a page fragment for one document.
type Component interface {
	Slot() Slot
	Render(doc *document.TransformedDocument) string
}

// Hook mutates a document in place.
type Hook func(doc *document.TransformedDocument)

// Extension groups related components and hooks under a unique name.
type Extension struct {
	Name          string
	Components    []Component
	NodeRenderers map[document.NodeType]document.NodeRenderFunc
	Hooks         map[HookType][]Hook
	// Linker, when set, links citations found in rendered text runs.
	Linker *reference.Linker
}

// Registry is an explicitly owned set of extensions. Lookups return
// registrations in registration order.
type Registry struct {
	mu    sync.RWMutex
	exts  map[string]*Extension
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{exts: make(map[string]*Extension)}
}

// Register adds ext. Names must be unique and non-empty.
func (r *Registry) Register(ext *Extension) error {
	if ext == nil || ext.Name == "" {
		return fmt.Errorf("extension name is required")
	}
	for _, c := range ext.Components {
		if c.Slot() == SlotNodeRenderer {
			return fmt.Errorf("extension %s: node renderers are registered by node type, not as components", ext.Name)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.exts[ext.Name]; exists {
		return fmt.Errorf("extension %s already registered", ext.Name)
	}
	r.exts[ext.Name] = ext
	r.order = append(r.order, ext.Name)
	return nil
}

// Unregister removes the named extension and reports whether it existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.exts[name]; !exists {
		return false
	}
	delete(r.exts, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Extensions returns the registered extension names in order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// ComponentsBySlot returns every component registered for slot.
func (r *Registry) ComponentsBySlot(slot Slot) []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Component
	for _, name := range r.order {
		for _, c := range r.exts[name].Components {
			if c.Slot() == slot {
				out = append(out, c)
			}
		}
	}
	return out
}

// NodeRenderer returns the most recently registered renderer for t.
func (r *Registry) NodeRenderer(t document.NodeType) (document.NodeRenderFunc, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		if fn, ok := r.exts[r.order[i]].NodeRenderers[t]; ok {
			return fn, true
		}
	}
	return nil, false
}

// Linker returns the most recently registered reference linker, or nil.
func (r *Registry) Linker() *reference.Linker {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.order) - 1; i >= 0; i-- {
		if l := r.exts[r.order[i]].Linker; l != nil {
			return l
		}
	}
	return nil
}

// HooksByType returns every hook registered for t.
func (r *Registry) HooksByType(t HookType) []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Hook
	for _, name := range r.order {
		out = append(out, r.exts[name].Hooks[t]...)
	}
	return out
}

// RunHooks applies the hooks of type t to doc. A nil registry is a no-op.
func (r *Registry) RunHooks(t HookType, doc *document.TransformedDocument) {
	if r == nil || doc == nil {
		return
	}
	for _, h := range r.HooksByType(t) {
		h(doc)
	}
}

// RenderOptions returns canonical-tree render options backed by the
// registry's node renderers.
func (r *Registry) RenderOptions() document.RenderOptions {
	if r == nil {
		return document.RenderOptions{}
	}
	opts := document.RenderOptions{Override: r.NodeRenderer}
	if l := r.Linker(); l != nil {
		opts.Text = l.LinkText
	}
	return opts
}
