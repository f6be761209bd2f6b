package lisp

import "encoding/binary"

// Collect runs the semispace copying collector (component §4.2) if
// allocation pressure warrants it, or unconditionally when force is true.
// extra is an additional Value the caller needs moved along with every
// registered root (e.g. a cell that was just built and isn't reachable from
// any root yet); Collect returns its possibly-updated copy. Every reachable
// root is rewritten in place so no caller retains a stale offset, per the
// invariant in spec §3.
func (h *Heap) Collect(force bool, extra Value) (Value, error) {
	if !force && !h.pressure() {
		return extra, nil
	}
	h.active = 1 - h.active
	h.hp = 0
	h.sp = h.words

	for _, slot := range h.roots {
		*slot = h.move(*slot)
	}
	extra = h.move(extra)

	// Scan every moved cell that hasn't been scanned yet: the newly active
	// region's cell area runs from sp (exclusive of the boundary already
	// passed) up to words, so walking down from the top rescans cells as
	// they're discovered, same as the reference implementation's `while
	// (--i >= sp)` loop re-reading h.sp on every iteration.
	for i := h.words; i > h.sp; i-- {
		idx := i - 1
		setWord(h.cur(), idx, h.move(getWord(h.cur(), idx)))
	}

	if h.pressure() {
		return Nil, raise(OutOfMemory, "")
	}
	return extra, nil
}

// move copies whatever x refers to from the idle ("from") region into the
// active ("to") region, leaving a forwarding marker behind so a value
// reached by more than one root or cell is only ever copied once. Numbers
// and unreserved tags pass through unchanged.
func (h *Heap) move(x Value) Value {
	t := tagOf(x)
	switch {
	case t == tagAtom || t == tagString:
		return h.moveBytes(t, x)
	case t == tagPair || t == tagClosure || t == tagMacro:
		return h.movePair(t, x)
	default:
		return x
	}
}

func (h *Heap) moveBytes(t Tag, x Value) Value {
	off := Ord(x)
	j := off - sizePrefix
	from := h.from()
	n := int32(binary.LittleEndian.Uint32(from[j:]))
	if n < 0 {
		return box(t, uint64(-n))
	}
	data := from[j+sizePrefix : j+sizePrefix+uint64(n)]
	newOff := h.allocBytes(t, data)
	binary.LittleEndian.PutUint32(from[j:], uint32(-int32(Ord(newOff))))
	return newOff
}

func (h *Heap) movePair(t Tag, x Value) Value {
	i := Ord(x)
	from := h.from()
	restWord := getWord(from, i)
	if tagOf(restWord) == tagForw {
		return box(t, Ord(restWord))
	}
	firstWord := getWord(from, i+1)
	newIdx := h.consRaw(firstWord, restWord)
	setWord(from, i, box(tagForw, newIdx))
	return box(t, newIdx)
}
