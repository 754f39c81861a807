package source

import "context"

// Registry holds the enabled sources in their configured run order.
// The order is load-bearing: the deduplicator is order-sensitive, so the
// registry guarantees native sources come before OCR sources and OCR
// sources keep their configured relative order. Built once at startup and
// treated as immutable afterward.
type Registry struct {
	sources []Source
}

// NewRegistry creates a registry from sources already in run order.
func NewRegistry(sources ...Source) *Registry {
	ordered := make([]Source, 0, len(sources))
	for _, role := range []Role{RoleNative, RoleOCR, RoleDetector} {
		for _, s := range sources {
			if s.Role() == role {
				ordered = append(ordered, s)
			}
		}
	}
	return &Registry{sources: ordered}
}

// All returns the sources in run order.
func (r *Registry) All() []Source {
	return r.sources
}

// Names returns the source names in run order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	return names
}

// Health probes each source that supports a health check. Sources without
// one are reported as available: they either run in-process or fail soft
// at extraction time.
func (r *Registry) Health(ctx context.Context) map[string]bool {
	status := make(map[string]bool, len(r.sources))
	for _, s := range r.sources {
		if hc, ok := s.(HealthChecker); ok {
			status[s.Name()] = hc.Healthy(ctx) == nil
			continue
		}
		status[s.Name()] = true
	}
	return status
}
