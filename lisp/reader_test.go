package lisp

import "testing"

func readString(t *testing.T, h *Heap, src string) Value {
	t.Helper()
	r := NewReader([]byte(src))
	v, err := r.ReadOne(h)
	if err != nil {
		t.Fatalf("ReadOne(%q): %v", src, err)
	}
	return v
}

func TestReadNumbers(t *testing.T) {
	h := NewHeap(256)
	cases := map[string]float64{
		"42":   42,
		"-3.5": -3.5,
		"+2":   2,
		"inf":  posInf,
		"-inf": negInf,
		"+inf": posInf,
		"NAN":  nanValue,
	}
	for src, want := range cases {
		v := readString(t, h, src)
		if !IsNumber(v) {
			t.Fatalf("%q did not parse as a number: %#v", src, v)
		}
		got := Float(v)
		if want != want { // NaN
			if got == got {
				t.Errorf("%q parsed to %v, want NaN", src, got)
			}
			continue
		}
		if got != want {
			t.Errorf("%q parsed to %v, want %v", src, got, want)
		}
	}
}

func TestReadAtomAndString(t *testing.T) {
	h := NewHeap(256)
	atom := readString(t, h, "hello-world")
	if !IsAtom(atom) || h.AtomName(atom) != "hello-world" {
		t.Errorf("atom read as %#v", atom)
	}
	str := readString(t, h, `"a\nb"`)
	if !IsString(str) || h.AtomName(str) != "a\nb" {
		t.Errorf("string read as %q", h.AtomName(str))
	}
}

func TestReadListAndDottedPair(t *testing.T) {
	h := NewHeap(256)
	list := readString(t, h, "(1 2 3)")
	var got []float64
	for IsPair(list) {
		f, err := h.First(list)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, Float(f))
		list, err = h.Rest(list)
		if err != nil {
			t.Fatal(err)
		}
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("got %v", got)
	}

	dotted := readString(t, h, "(1 . 2)")
	first, err := h.First(dotted)
	if err != nil {
		t.Fatal(err)
	}
	rest, err := h.Rest(dotted)
	if err != nil {
		t.Fatal(err)
	}
	if Float(first) != 1 || Float(rest) != 2 {
		t.Errorf("dotted pair = (%v . %v)", Float(first), Float(rest))
	}
}

func TestReadQuoteAndQuasiquote(t *testing.T) {
	h := NewHeap(256)
	q := readString(t, h, "'x")
	op, err := h.First(q)
	if err != nil {
		t.Fatal(err)
	}
	if h.AtomName(op) != "quote" {
		t.Errorf("'x should read as (quote x), op = %q", h.AtomName(op))
	}

	qq := readString(t, h, "`(1 ,x 3)")
	qqOp, err := h.First(qq)
	if err != nil {
		t.Fatal(err)
	}
	if h.AtomName(qqOp) != "list" {
		t.Errorf("`(1 ,x 3) should read as (list ...), op = %q", h.AtomName(qqOp))
	}
}

func TestReaderExhausted(t *testing.T) {
	h := NewHeap(64)
	r := NewReader([]byte("   "))
	if _, err := r.ReadOne(h); err != ErrExhausted {
		t.Fatalf("expected ErrExhausted on blank input, got %v", err)
	}
}

func TestReaderPushPopGosubDepth(t *testing.T) {
	r := NewReader([]byte("(a)"))
	for i := 0; i < MaxGosubRecurse; i++ {
		r.Push([]byte("(b)"))
	}
	depthAtCap := r.Depth()
	r.Push([]byte("(c)")) // should be a silent no-op past the cap
	if r.Depth() != depthAtCap {
		t.Errorf("Push past MaxGosubRecurse grew depth to %d, want %d", r.Depth(), depthAtCap)
	}
}

func TestUnterminatedStringIsSyntaxError(t *testing.T) {
	h := NewHeap(64)
	r := NewReader([]byte(`"unterminated`))
	_, err := r.ReadOne(h)
	lerr, ok := err.(*Error)
	if !ok || lerr.Code != Syntax {
		t.Fatalf("expected Syntax error, got %v", err)
	}
}
