package host

import "testing"

func TestRouterPairsOppositeDirections(t *testing.T) {
	reg := NewRegistry()
	rt := NewRouter()
	producer := &Daemon{}
	consumer := &Daemon{}
	pid := reg.Add(producer)
	cid := reg.Add(consumer)

	consumer.Interfaces = []Interface{{Name: "p", Type: "t", Format: "f", Direction: In, Owner: cid}}
	out := Interface{Name: "p", Type: "t", Format: "f", Direction: Out, Owner: pid}
	rt.Register(reg, out)

	if len(rt.Interlinks) != 1 {
		t.Fatalf("got %d interlinks, want 1", len(rt.Interlinks))
	}
	link := rt.Interlinks[0]
	if link.Producer != pid || link.Consumer != cid {
		t.Errorf("link = %+v, want producer=%d consumer=%d", link, pid, cid)
	}
}

func TestRouterTiebreaksByLowestDaemonID(t *testing.T) {
	reg := NewRegistry()
	rt := NewRouter()
	hi := &Daemon{}
	lo := &Daemon{}
	hiID := reg.Add(hi)
	loID := reg.Add(lo)
	// Force lo to have the lower id and hi the higher, so the test doesn't
	// depend on registration order producing the tiebreak coincidentally.
	if loID > hiID {
		hi, lo = lo, hi
		hiID, loID = loID, hiID
	}
	hi.Interfaces = []Interface{{Name: "p", Type: "t", Format: "f", Direction: In, Owner: hiID}}
	lo.Interfaces = []Interface{{Name: "p", Type: "t", Format: "f", Direction: In, Owner: loID}}

	producer := &Daemon{}
	pid := reg.Add(producer)
	rt.Register(reg, Interface{Name: "p", Type: "t", Format: "f", Direction: Out, Owner: pid})

	if len(rt.Interlinks) != 1 {
		t.Fatalf("got %d interlinks, want 1", len(rt.Interlinks))
	}
	if rt.Interlinks[0].Consumer != loID {
		t.Errorf("consumer = %d, want the lowest id %d", rt.Interlinks[0].Consumer, loID)
	}
}

func TestRouterNoMatchRegistersNothing(t *testing.T) {
	reg := NewRegistry()
	rt := NewRouter()
	pid := reg.Add(&Daemon{})
	rt.Register(reg, Interface{Name: "p", Type: "t", Format: "f", Direction: Out, Owner: pid})
	if len(rt.Interlinks) != 0 {
		t.Errorf("expected no interlinks with no candidate, got %d", len(rt.Interlinks))
	}
}

func TestRouterUnlinkRemovesBothEndpoints(t *testing.T) {
	reg := NewRegistry()
	rt := NewRouter()
	producer := &Daemon{}
	consumer := &Daemon{}
	pid := reg.Add(producer)
	cid := reg.Add(consumer)
	consumer.Interfaces = []Interface{{Name: "p", Type: "t", Format: "f", Direction: In, Owner: cid}}
	rt.Register(reg, Interface{Name: "p", Type: "t", Format: "f", Direction: Out, Owner: pid})

	rt.Unlink(pid)
	if len(rt.Interlinks) != 0 {
		t.Errorf("Unlink(producer) should drop the interlink, got %d left", len(rt.Interlinks))
	}
}

func TestRouterOutgoing(t *testing.T) {
	reg := NewRegistry()
	rt := NewRouter()
	producer := &Daemon{}
	consumer := &Daemon{}
	pid := reg.Add(producer)
	cid := reg.Add(consumer)
	consumer.Interfaces = []Interface{{Name: "p", Type: "t", Format: "f", Direction: In, Owner: cid}}
	rt.Register(reg, Interface{Name: "p", Type: "t", Format: "f", Direction: Out, Owner: pid})

	out := rt.Outgoing(pid)
	if len(out) != 1 || out[0].Consumer != cid {
		t.Errorf("Outgoing(producer) = %+v", out)
	}
	if out := rt.Outgoing(cid); len(out) != 0 {
		t.Errorf("Outgoing(consumer) should be empty, got %+v", out)
	}
}
