package lisp

import "testing"

func TestInternAtomDedupes(t *testing.T) {
	h := NewHeap(64)
	a := h.InternAtom("shared")
	b := h.InternAtom("shared")
	if a != b {
		t.Error("InternAtom should return the same Value for the same name")
	}
}

func TestNewStringDoesNotIntern(t *testing.T) {
	h := NewHeap(64)
	a := h.NewString("dup")
	b := h.NewString("dup")
	if a == b {
		t.Error("NewString must allocate a fresh cell each call")
	}
	if h.AtomName(a) != h.AtomName(b) {
		t.Error("two NewString(\"dup\") calls should still read back the same content")
	}
}

func TestConsFirstRest(t *testing.T) {
	h := NewHeap(64)
	p := h.Cons(Num(1), Num(2))
	first, err := h.First(p)
	if err != nil {
		t.Fatal(err)
	}
	rest, err := h.Rest(p)
	if err != nil {
		t.Fatal(err)
	}
	if Float(first) != 1 || Float(rest) != 2 {
		t.Errorf("Cons/First/Rest = (%v . %v)", Float(first), Float(rest))
	}
}

func TestFirstRestOnNonPairIsNotAPair(t *testing.T) {
	h := NewHeap(64)
	_, err := h.First(Num(1))
	lerr, ok := err.(*Error)
	if !ok || lerr.Code != NotAPair {
		t.Fatalf("expected NotAPair, got %v", err)
	}
}

func TestSetFirstSetRestMutateInPlace(t *testing.T) {
	h := NewHeap(64)
	p := h.Cons(Num(1), Num(2))
	if err := h.SetFirst(p, Num(9)); err != nil {
		t.Fatal(err)
	}
	if err := h.SetRest(p, Num(8)); err != nil {
		t.Fatal(err)
	}
	first, _ := h.First(p)
	rest, _ := h.Rest(p)
	if Float(first) != 9 || Float(rest) != 8 {
		t.Errorf("after mutation, (%v . %v)", Float(first), Float(rest))
	}
}

func TestEnvPairShape(t *testing.T) {
	h := NewHeap(64)
	x := h.InternAtom("x")
	env := h.EnvPair(x, Num(5), Nil)
	frame, err := h.First(env)
	if err != nil {
		t.Fatal(err)
	}
	name, err := h.First(frame)
	if err != nil {
		t.Fatal(err)
	}
	if name != x {
		t.Error("EnvPair's frame car should be the bound name")
	}
	val, err := h.Rest(frame)
	if err != nil {
		t.Fatal(err)
	}
	if Float(val) != 5 {
		t.Errorf("EnvPair's frame cdr = %v, want 5", Float(val))
	}
	rest, err := h.Rest(env)
	if err != nil {
		t.Fatal(err)
	}
	if !IsNil(rest) {
		t.Error("EnvPair should chain onto the given outer environment")
	}
}

func TestMakeClosureNilCapturesGlobal(t *testing.T) {
	h := NewHeap(64)
	global := Nil
	params := h.Cons(h.InternAtom("x"), Nil)
	body := h.Cons(h.InternAtom("x"), Nil)
	clo := h.MakeClosure(params, body, global, global)
	if !IsClosure(clo) {
		t.Fatal("MakeClosure should return a CLOSURE value")
	}
}

func TestRootRegistryUnwind(t *testing.T) {
	h := NewHeap(64)
	base := h.RootCount()
	var a, b Value
	h.RegisterRoot(&a)
	h.RegisterRoot(&b)
	if h.RootCount() != base+2 {
		t.Fatalf("RootCount = %d, want %d", h.RootCount(), base+2)
	}
	h.Unwind(base)
	if h.RootCount() != base {
		t.Errorf("RootCount after Unwind = %d, want %d", h.RootCount(), base)
	}
}
