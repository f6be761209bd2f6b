package host

import "testing"

func TestRegistryAddGetRemove(t *testing.T) {
	r := NewRegistry()
	a := &Daemon{}
	b := &Daemon{}
	idA := r.Add(a)
	idB := r.Add(b)
	if idA == idB {
		t.Fatal("two daemons must not share a slot")
	}
	if got, ok := r.Get(idA); !ok || got != a {
		t.Errorf("Get(idA) = %v, %v", got, ok)
	}
	r.Remove(idA)
	if _, ok := r.Get(idA); ok {
		t.Error("Get should miss after Remove")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestRegistryReusesFreedSlot(t *testing.T) {
	r := NewRegistry()
	a := &Daemon{}
	idA := r.Add(a)
	r.Remove(idA)
	b := &Daemon{}
	idB := r.Add(b)
	if idB != idA {
		t.Errorf("Add after Remove should reuse the freed slot: got %d, want %d", idB, idA)
	}
}

func TestRegistryGrows(t *testing.T) {
	r := NewRegistry()
	var ids []DaemonID
	for i := 0; i < 20; i++ {
		ids = append(ids, r.Add(&Daemon{}))
	}
	if r.Len() != 20 {
		t.Errorf("Len = %d, want 20", r.Len())
	}
	seen := map[DaemonID]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
}

func TestRegistryEachAscendingOrder(t *testing.T) {
	r := NewRegistry()
	var order []DaemonID
	for i := 0; i < 5; i++ {
		r.Add(&Daemon{})
	}
	r.Each(func(d *Daemon) { order = append(order, d.ID) })
	for i := 1; i < len(order); i++ {
		if order[i] <= order[i-1] {
			t.Fatalf("Each did not visit in ascending order: %v", order)
		}
	}
}
