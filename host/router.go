package host

import "sort"

// Router owns every Interlink currently in effect and is the only thing
// that pairs one daemon's declared Interface against another's.
type Router struct {
	Interlinks []Interlink
}

// NewRouter returns an empty router.
func NewRouter() *Router { return &Router{} }

// Register scans reg for every other daemon's Interface with the opposite
// direction and an identical name/type/format, then picks a winner by
// the documented tiebreak (lowest daemon id). Per spec.md §4.6, candidates
// are gathered in full before a winner is picked, rather than short-
// circuiting on the first match, so the tiebreak stays a separate,
// swappable step.
func (rt *Router) Register(reg *Registry, iface Interface) {
	var candidates []DaemonID
	reg.Each(func(d *Daemon) {
		if d.ID == iface.Owner {
			return
		}
		for _, other := range d.Interfaces {
			if other.Direction == iface.Direction.opposite() &&
				other.Name == iface.Name && other.Type == iface.Type && other.Format == iface.Format {
				candidates = append(candidates, d.ID)
				return
			}
		}
	})
	if len(candidates) == 0 {
		return
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })
	winner := candidates[0]

	link := Interlink{Name: iface.Name, Type: iface.Type, Format: iface.Format}
	if iface.Direction == Out {
		link.Producer, link.Consumer = iface.Owner, winner
	} else {
		link.Producer, link.Consumer = winner, iface.Owner
	}
	rt.Interlinks = append(rt.Interlinks, link)
}

// Unlink drops every Interlink touching id, called when a daemon dies.
func (rt *Router) Unlink(id DaemonID) {
	kept := rt.Interlinks[:0]
	for _, link := range rt.Interlinks {
		if link.Producer != id && link.Consumer != id {
			kept = append(kept, link)
		}
	}
	rt.Interlinks = kept
}

// Outgoing returns every Interlink whose producer is id, in the order
// they were registered.
func (rt *Router) Outgoing(id DaemonID) []Interlink {
	var out []Interlink
	for _, link := range rt.Interlinks {
		if link.Producer == id {
			out = append(out, link)
		}
	}
	return out
}
