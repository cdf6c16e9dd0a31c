// Package frames maps named coordinate frames into the controller's fixed
// working frame. Placement and trajectory requests may express points in
// their own frames; the transport layer resolves them here before anything
// reaches the transition engine.
package frames

import (
	"sync"

	"github.com/viewnav/go-camview/internal/log"
	"github.com/viewnav/go-camview/pkg/geom"
)

// FixedFrame is the name of the engine's working frame. Points carrying no
// frame id are assumed to already be expressed in it.
const FixedFrame = "fixed"

// Registry holds rigid transforms from named frames to the fixed frame.
// Safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	transforms map[string]geom.Transform
}

// NewRegistry returns a registry containing only the fixed frame.
func NewRegistry() *Registry {
	return &Registry{
		transforms: map[string]geom.Transform{
			FixedFrame: geom.IdentityTransform(),
		},
	}
}

// Set registers or replaces the transform from name to the fixed frame.
func (r *Registry) Set(name string, tf geom.Transform) {
	if name == "" || name == FixedFrame {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms[name] = tf
}

// Lookup returns the transform for name. Unknown frames resolve to the
// identity so a request is still served; the mismatch is logged once per
// lookup rather than failing the request.
func (r *Registry) Lookup(name string) geom.Transform {
	if name == "" || name == FixedFrame {
		return geom.IdentityTransform()
	}

	r.mu.RLock()
	tf, ok := r.transforms[name]
	r.mu.RUnlock()

	if !ok {
		log.Warn("unknown coordinate frame, assuming fixed", "frame", name)
		return geom.IdentityTransform()
	}
	return tf
}

// ToFixed transforms a point expressed in frame name into the fixed frame.
func (r *Registry) ToFixed(name string, p geom.Vec3) geom.Vec3 {
	return r.Lookup(name).Apply(p)
}

// DirectionToFixed transforms a direction (rotation only, no translation).
func (r *Registry) DirectionToFixed(name string, v geom.Vec3) geom.Vec3 {
	return r.Lookup(name).ApplyVector(v)
}

// Known reports whether name is a registered frame.
func (r *Registry) Known(name string) bool {
	if name == "" || name == FixedFrame {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.transforms[name]
	return ok
}
