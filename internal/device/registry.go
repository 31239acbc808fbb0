package device

import (
	"sync"

	"github.com/junco466/animatronics-bridge/internal/infrastructure/config"
)

// Registry is the canonical in-memory table of devices and their presence
// state. It is the single writer for Connected/LastSeen; all other
// components read it or request mutations through its methods.
//
// The device set is fixed at construction from the catalog. Catalog
// insertion order is preserved by All and Replay-style consumers.
//
// All public methods are thread-safe; one mutex covers every read and
// write, which also makes the command router's read-then-publish admission
// check consistent with concurrent presence updates.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	devices map[string]*Device
}

// NewRegistry creates a registry from the configured catalog.
// Every device starts disconnected with no last-seen timestamp.
func NewRegistry(catalog []config.CatalogEntry) *Registry {
	r := &Registry{
		order:   make([]string, 0, len(catalog)),
		devices: make(map[string]*Device, len(catalog)),
	}
	for _, entry := range catalog {
		if _, exists := r.devices[entry.ID]; exists {
			continue // config validation rejects duplicates; last line of defence
		}
		r.order = append(r.order, entry.ID)
		r.devices[entry.ID] = &Device{
			ID:   entry.ID,
			Name: entry.Name,
			Icon: entry.Icon,
		}
	}
	return r
}

// Get returns a copy of the device with the given id.
func (r *Registry) Get(id string) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	if !ok {
		return Device{}, false
	}
	return d.Copy(), true
}

// All returns copies of every device in catalog insertion order.
func (r *Registry) All() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Device, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.devices[id].Copy())
	}
	return out
}

// Snapshot returns the full device table as an id-keyed map of copies.
func (r *Registry) Snapshot() map[string]Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Device, len(r.devices))
	for id, d := range r.devices {
		out[id] = d.Copy()
	}
	return out
}

// SetConnected updates the connected flag of a device.
//
// Connecting — including re-connecting an already-connected device —
// refreshes LastSeen to atMillis. Disconnecting never touches LastSeen, so
// a timeout demotion preserves when the device was last heard from.
//
// Returns the previous state, whether the connected flag actually changed,
// and whether the id was known. Unknown ids are a no-op: the catalog never
// grows, so the caller logs and drops.
func (r *Registry) SetConnected(id string, connected bool, atMillis int64) (prev Device, changed, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, found := r.devices[id]
	if !found {
		return Device{}, false, false
	}

	prev = d.Copy()
	changed = d.Connected != connected
	d.Connected = connected
	if connected {
		ts := atMillis
		d.LastSeen = &ts
	}
	return prev, changed, true
}

// TouchLastSeen refreshes LastSeen without altering the connected flag.
// Used for response signals, which prove the device spoke but are not a
// presence claim. Returns false for unknown ids.
func (r *Registry) TouchLastSeen(id string, atMillis int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, found := r.devices[id]
	if !found {
		return false
	}
	ts := atMillis
	d.LastSeen = &ts
	return true
}

// Count returns the catalog size.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// ConnectedCount returns the number of currently connected devices.
func (r *Registry) ConnectedCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, d := range r.devices {
		if d.Connected {
			n++
		}
	}
	return n
}
