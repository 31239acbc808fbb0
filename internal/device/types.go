package device

// Device is one animatronic in the fixed catalog.
//
// Identity fields (ID, Name, Icon) come from the catalog and never change
// at runtime. Connected and LastSeen are the only mutable state, owned by
// the Registry.
type Device struct {
	// ID is the stable short identifier, e.g. "1".."6".
	ID string `json:"id"`

	// Name is the display name shown to operators.
	Name string `json:"name"`

	// Icon is the display icon (emoji) for the front-end.
	Icon string `json:"icon"`

	// Connected reports whether the device is currently considered online.
	Connected bool `json:"connected"`

	// LastSeen is the wall-clock epoch in milliseconds of the last signal
	// from the device, nil until it has been seen connected at least once.
	// Invariant: Connected implies LastSeen != nil.
	LastSeen *int64 `json:"last_seen"`
}

// Copy returns a value copy of the device with its own LastSeen pointer,
// safe to hand outside the registry.
func (d Device) Copy() Device {
	out := d
	if d.LastSeen != nil {
		ts := *d.LastSeen
		out.LastSeen = &ts
	}
	return out
}
