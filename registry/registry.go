// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package registry implements the server-side object registry of
// spec.md §4.4: a map from a 16-bit object id to a live object, plus a
// name→id binding table used by the well-known resolver object at id 0.
package registry

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MaxID is the largest id Register can hand out. Object id 0 is
// reserved for the resolver and never allocated by Register, so the
// registry holds at most MaxID additional objects (spec.md §3 "Maximum
// population: 65 536").
const MaxID uint16 = 65535

// ResolverID is the well-known object id of the server's name resolver.
const ResolverID uint16 = 0

var (
	// ErrObjectLimitExceeded reports that the registry cannot allocate
	// any more ids.
	ErrObjectLimitExceeded = errors.New("registry: object limit exceeded")
	// ErrUnknownObject reports a lookup for an id with no live object.
	ErrUnknownObject = errors.New("registry: unknown object id")
	// ErrUnknownName reports a resolve for a name with no binding.
	ErrUnknownName = errors.New("registry: unknown name")
)

// Registry is the server-side id→object and name→id mapping. All
// operations are atomic under a single mutex (spec.md §4.4).
type Registry struct {
	mu      sync.Mutex
	nextID  uint32
	freeIDs map[uint16]struct{}
	objects map[uint16]any
	names   map[string]uint16
	metrics registryMetrics
}

type registryMetrics struct {
	population prometheus.Gauge
	limitHits  prometheus.Counter
}

// Option configures a Registry at construction.
type Option func(*Registry)

// WithMetrics registers population/limit-exceeded metrics on reg,
// collected under the given Prometheus registerer.
func WithMetrics(reg prometheus.Registerer, namespace string) Option {
	return func(r *Registry) {
		r.metrics.population = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_objects",
			Help:      "Number of objects currently held by the registry.",
		})
		r.metrics.limitHits = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_limit_exceeded_total",
			Help:      "Number of Register calls that failed with ErrObjectLimitExceeded.",
		})
		if reg != nil {
			reg.MustRegister(r.metrics.population, r.metrics.limitHits)
		}
	}
}

// New creates an empty Registry. id 0 is reserved for the resolver and
// is never handed out by Register; callers install their resolver
// object there with RegisterResolver.
func New(opts ...Option) *Registry {
	r := &Registry{
		nextID:  uint32(ResolverID) + 1,
		freeIDs: make(map[uint16]struct{}),
		objects: make(map[uint16]any),
		names:   make(map[string]uint16),
	}
	for _, fn := range opts {
		fn(r)
	}
	return r
}

// RegisterResolver registers obj at the reserved id 0. It must be
// called at most once, before any other registrations.
func (r *Registry) RegisterResolver(obj any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[ResolverID] = obj
	r.observePopulation()
}

// Register assigns obj a fresh id and returns it, or
// ErrObjectLimitExceeded if the registry is full.
//
// DESIGN.md records an intentional reference-compatible quirk here: an
// id popped from freeIDs still consumes one unit of the nextID budget,
// matching the base design's Resolve_Server.register (spec.md §9(a)).
// Since Unregister never populates freeIDs in this implementation
// either, the path is unreachable in practice but is preserved rather
// than silently corrected.
func (r *Registry) Register(obj any) (uint16, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var id uint16
	switch {
	case r.nextID <= uint32(MaxID):
		id = uint16(r.nextID)
		r.nextID++
	case len(r.freeIDs) > 0:
		for candidate := range r.freeIDs {
			id = candidate
			break
		}
		delete(r.freeIDs, id)
		r.nextID++
	default:
		if r.metrics.limitHits != nil {
			r.metrics.limitHits.Inc()
		}
		return 0, ErrObjectLimitExceeded
	}

	r.objects[id] = obj
	r.observePopulation()
	return id, nil
}

// Unregister removes obj by identity. Per spec.md §4.4/§9, the freed id
// is deliberately not returned to freeIDs: this keeps stale remote
// handles dangling (they resolve to ErrUnknownObject) rather than
// silently aliasing a new object.
func (r *Registry) Unregister(obj any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, v := range r.objects {
		if v == obj {
			delete(r.objects, id)
			r.observePopulation()
			return
		}
	}
}

// UnregisterID removes whatever object (if any) is bound to id,
// without requiring the caller to hold a reference to it.
func (r *Registry) UnregisterID(id uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.objects[id]; ok {
		delete(r.objects, id)
		r.observePopulation()
	}
}

// Get returns the object registered at id, if any.
func (r *Registry) Get(id uint16) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[id]
	return obj, ok
}

// LookupID returns the id obj is registered under, if any. Used by
// dispatch's return-value shaping (spec.md §4.5) to decide whether a
// returned value must be replaced with an ObjectReference.
func (r *Registry) LookupID(obj any) (uint16, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, v := range r.objects {
		if v == obj {
			return id, true
		}
	}
	return 0, false
}

// Bind associates name with id, for later Resolve.
func (r *Registry) Bind(name string, id uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[name] = id
}

// Resolve returns the id bound to name, if any.
func (r *Registry) Resolve(name string) (uint16, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.names[name]
	return id, ok
}

// Len returns the current number of live registered objects.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.objects)
}

func (r *Registry) observePopulation() {
	if r.metrics.population != nil {
		r.metrics.population.Set(float64(len(r.objects)))
	}
}
