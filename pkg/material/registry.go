package material

import "github.com/df07/go-progressive-acoustics/pkg/core"

// Handle is a weak reference to a registered material
type Handle = core.Handle

// Provider resolves material handles. A stale handle resolves to false.
type Provider interface {
	Lookup(h Handle) (*AcousticMaterial, bool)
}

// Registry owns acoustic materials and hands out weak handles to them
type Registry struct {
	materials *core.Registry[*AcousticMaterial]
}

// NewRegistry creates an empty material registry
func NewRegistry() *Registry {
	return &Registry{materials: core.NewRegistry[*AcousticMaterial]()}
}

// Register stores a clamped copy of m
func (r *Registry) Register(m *AcousticMaterial) Handle {
	c := m.Clone()
	c.ApplyClamp()
	return r.materials.Insert(c)
}

// Lookup implements Provider
func (r *Registry) Lookup(h Handle) (*AcousticMaterial, bool) {
	return r.materials.Get(h)
}

// Unregister drops a material; outstanding handles go stale
func (r *Registry) Unregister(h Handle) bool {
	return r.materials.Remove(h)
}

// Len returns the number of registered materials
func (r *Registry) Len() int {
	return r.materials.Len()
}
