package plot

import (
	"sync"
	"time"

	"github.com/StudioSol/set"
)

// Instance is the live chart handle bound to one canvas slot. It is
// created by the renderer and owned by the registry until it is
// disposed in favor of a replacement.
type Instance struct {
	slot      string
	runID     uint64
	doc       *ChartDoc
	createdAt time.Time
	disposed  bool
}

// Slot returns the canvas slot this instance is bound to.
func (i *Instance) Slot() string {
	return i.slot
}

// RunID returns the id of the submission that produced this instance.
func (i *Instance) RunID() uint64 {
	return i.runID
}

// Doc returns the chart document this instance draws.
func (i *Instance) Doc() *ChartDoc {
	return i.doc
}

// Disposed reports whether the instance has been released.
func (i *Instance) Disposed() bool {
	return i.disposed
}

// Dispose releases the instance. Safe to call more than once.
func (i *Instance) Dispose() {
	i.disposed = true
}

// Registry tracks at most one live chart instance per canvas slot for
// the lifetime of the process. A slot may hold nil, meaning a
// placeholder is painted there and no chart object exists.
type Registry struct {
	mu        sync.Mutex
	slots     *set.LinkedHashSetString
	instances map[string]*Instance
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		slots:     set.NewLinkedHashSetString(),
		instances: make(map[string]*Instance),
	}
}

// GetOrNull returns the instance bound to the slot, or nil.
func (r *Registry) GetOrNull(slot string) *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instances[slot]
}

// Set binds an instance (or nil, for a placeholder) to the slot. Any
// previously bound instance must already have been disposed; Set
// enforces that by disposing it, so a stray replace cannot leak.
func (r *Registry) Set(slot string, instance *Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev := r.instances[slot]; prev != nil {
		prev.Dispose()
	}

	r.slots.Add(slot)
	r.instances[slot] = instance
}

// DisposeIfPresent disposes and unbinds the slot's instance, if any.
func (r *Registry) DisposeIfPresent(slot string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if instance := r.instances[slot]; instance != nil {
		instance.Dispose()
		r.instances[slot] = nil
	}
}

// Slots returns all slots ever bound, in first-bind order.
func (r *Registry) Slots() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	slots := make([]string, 0, len(r.instances))
	for slot := range r.slots.Iter() {
		slots = append(slots, slot)
	}
	return slots
}
