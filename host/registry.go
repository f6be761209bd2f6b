package host

// DaemonID identifies a daemon by its slot index in a Registry.
type DaemonID int

// Registry is the growable pool of daemon slots with a parallel occupancy
// bitmap that spec.md §4.5 describes: allocation is first-fit-in-pool,
// growing geometrically when full. The reference implementation backs its
// interpreter-instance pool and daemon-info pool with the identical
// scheme; in Go, both of those are just fields on the *Daemon a slot
// already holds; Go's allocator and garbage collector make a second and
// third copy of the same pooling logic pure overhead; see DESIGN.md.
type Registry struct {
	slots    []*Daemon
	occupied []bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) grow() int {
	old := len(r.slots)
	newCap := old * 2
	if newCap == 0 {
		newCap = 4
	}
	slots := make([]*Daemon, newCap)
	copy(slots, r.slots)
	occ := make([]bool, newCap)
	copy(occ, r.occupied)
	r.slots, r.occupied = slots, occ
	return old
}

// Add places d in the first free slot, growing the pool if none is free,
// and stamps d.ID with that slot's index.
func (r *Registry) Add(d *Daemon) DaemonID {
	for i, occ := range r.occupied {
		if !occ {
			r.slots[i] = d
			r.occupied[i] = true
			d.ID = DaemonID(i)
			return d.ID
		}
	}
	i := r.grow()
	r.slots[i] = d
	r.occupied[i] = true
	d.ID = DaemonID(i)
	return d.ID
}

// Remove frees id's slot. Removing an already-free or out-of-range id is a
// no-op.
func (r *Registry) Remove(id DaemonID) {
	if int(id) < 0 || int(id) >= len(r.slots) {
		return
	}
	r.slots[id] = nil
	r.occupied[id] = false
}

// Get returns the daemon at id, or false if the slot is unoccupied or
// out of range.
func (r *Registry) Get(id DaemonID) (*Daemon, bool) {
	if int(id) < 0 || int(id) >= len(r.slots) || !r.occupied[id] {
		return nil, false
	}
	return r.slots[id], true
}

// Each calls fn for every occupied slot in ascending (registry) order,
// which is the order the scheduler tick and the router's candidate scan
// both use.
func (r *Registry) Each(fn func(*Daemon)) {
	for i, occ := range r.occupied {
		if occ {
			fn(r.slots[i])
		}
	}
}

// Len reports how many daemons are currently registered.
func (r *Registry) Len() int {
	n := 0
	for _, occ := range r.occupied {
		if occ {
			n++
		}
	}
	return n
}
