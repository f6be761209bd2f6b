package lisp

import "github.com/zephyrtronium/contains"

// Assoc looks up sym in environment env, an association list of (name .
// value) pairs extended on the front by each binding form. An atom whose
// name is empty always resolves to Nil (the reference implementation's
// convention for the unnamed binding produced by a dotted lambda list with
// no extra actuals). A miss raises UnboundSymbol, naming the atom if sym is
// one.
//
// The chain walk guards against a cyclic environment with a contains.Set,
// the same idiom the teacher's GetSlot/IsKindOf use to guard a cyclic proto
// chain: letrec mutates a binding's cdr in place, and a sufficiently
// pathological macro could in principle splice an environment frame into
// its own tail, which would otherwise loop forever instead of raising
// UnboundSymbol.
func (h *Heap) Assoc(sym, env Value) (Value, error) {
	if IsAtom(sym) && h.AtomName(sym) == "" {
		return Nil, nil
	}
	seen := contains.Set{}
	e := env
	for IsPair(e) {
		if !seen.Add(uintptr(Ord(e))) {
			break
		}
		frame, err := h.First(e)
		if err != nil {
			return Nil, err
		}
		name, err := h.First(frame)
		if err != nil {
			return Nil, err
		}
		if name == sym {
			return h.Rest(frame)
		}
		e, err = h.Rest(e)
		if err != nil {
			return Nil, err
		}
	}
	if IsAtom(sym) {
		return Nil, raise(UnboundSymbol, h.AtomName(sym))
	}
	return Nil, raise(UnboundSymbol, "")
}

// SetVar changes the value bound to sym in the nearest enclosing frame of
// env, in place. It's used by both the `define` global-overwrite path and
// `setq`; a miss raises UnboundSymbol just like Assoc.
func (h *Heap) SetVar(sym, env, x Value) error {
	seen := contains.Set{}
	e := env
	for IsPair(e) {
		if !seen.Add(uintptr(Ord(e))) {
			break
		}
		frame, err := h.First(e)
		if err != nil {
			return err
		}
		name, err := h.First(frame)
		if err != nil {
			return err
		}
		if name == sym {
			return h.SetRest(frame, x)
		}
		e, err = h.Rest(e)
		if err != nil {
			return err
		}
	}
	if IsAtom(sym) {
		return raise(UnboundSymbol, h.AtomName(sym))
	}
	return raise(UnboundSymbol, "")
}
