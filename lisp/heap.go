package lisp

import "encoding/binary"

// sizePrefix is the width, in bytes, of the length field stored ahead of
// every ATOM/STRING on the byte-addressed side of a heap region. The
// reference implementation calls this W and uses sizeof(int); a 32-bit
// prefix is exact here and keeps small-object overhead fixed.
const sizePrefix = 4

// Heap is the Value & Heap component: two equal-sized, word-addressable
// regions, one active ("to" space) and one idle ("from" space). Byte
// objects (atoms, strings) grow up from the low end of the active region;
// cons-like cells (pairs, closures, macros) grow down from the high end as
// pairs of consecutive 8-byte words. Heap also owns the GC root registry,
// per the component contract in spec §4.1.
type Heap struct {
	region [2][]byte
	active int
	words  uint64 // capacity of each region, in 8-byte words

	hp uint64 // next free byte offset in the active region, growing up
	sp uint64 // next free word index in the active region, growing down

	roots []*Value

	tru Value // the symbolic constant #t, seeded once at construction
}

// NewHeap allocates two regions of the given cell capacity (in 8-byte
// words) and seeds the #t atom.
func NewHeap(cells uint64) *Heap {
	if cells < 2 {
		cells = 2
	}
	h := &Heap{words: cells}
	h.region[0] = make([]byte, cells*8)
	h.region[1] = make([]byte, cells*8)
	h.sp = cells
	h.tru = h.InternAtom("#t")
	return h
}

func (h *Heap) cur() []byte  { return h.region[h.active] }
func (h *Heap) from() []byte { return h.region[1-h.active] }

func getWord(region []byte, i uint64) Value {
	return Value(binary.LittleEndian.Uint64(region[i*8 : i*8+8]))
}

func setWord(region []byte, i uint64, v Value) {
	binary.LittleEndian.PutUint64(region[i*8:i*8+8], uint64(v))
}

// Tru returns the interned #t atom, the evaluator's canonical "true" value.
func (h *Heap) Tru() Value { return h.tru }

// pressure reports whether the byte allocator and the cell allocator have
// collided (or come within two words of doing so, matching the reference
// check), meaning a collection is due.
func (h *Heap) pressure() bool {
	return h.sp < 2 || h.hp > (h.sp-2)*8
}

// RegisterRoot pushes slot onto the GC root registry. The value at *slot
// will be rewritten in place across every collection until the matching
// UnregisterRoot/Unwind. This replaces the reference implementation's
// VARP-tagged root list (spec §9's REDESIGN note) with a plain Go slice of
// pointers: Go's own GC already tracks *Value safely, so the root registry
// only needs to know which slots to rewrite, not where they live.
func (h *Heap) RegisterRoot(slot *Value) {
	h.roots = append(h.roots, slot)
}

// RootCount returns the number of currently registered roots, i.e. the
// snapshot a catch frame saves and later unwinds to.
func (h *Heap) RootCount() int { return len(h.roots) }

// UnregisterRoot pops the most recently registered root.
func (h *Heap) UnregisterRoot() {
	if n := len(h.roots); n > 0 {
		h.roots = h.roots[:n-1]
	}
}

// Unwind truncates the root registry back to n entries, releasing every
// root registered since. catch uses this to restore reachability after an
// exception; outer error recovery uses it to reset to the minimal set.
func (h *Heap) Unwind(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(h.roots) {
		h.roots = h.roots[:n]
	}
}

// allocBytes reserves space for a sizePrefix-byte length field followed by
// data, in the active region, and returns a Value of tag t pointing past
// the size field. It does not trigger a collection, and neither do its
// callers InternAtom and NewStringBytes; ConsGC is the only allocation path
// that checks pressure and collects.
func (h *Heap) allocBytes(t Tag, data []byte) Value {
	region := h.cur()
	n := int32(len(data))
	binary.LittleEndian.PutUint32(region[h.hp:], uint32(n))
	copy(region[h.hp+sizePrefix:], data)
	off := h.hp + sizePrefix
	h.hp += sizePrefix + uint64(len(data))
	return box(t, off)
}

// InternAtom returns the ATOM for name, reusing an existing entry if one
// has already been copied into the active region's byte heap (linear scan,
// as spec §4.1 requires), else allocating a fresh one.
func (h *Heap) InternAtom(name string) Value {
	region := h.cur()
	var i uint64
	for i < h.hp {
		n := int32(binary.LittleEndian.Uint32(region[i:]))
		if string(region[i+sizePrefix:i+sizePrefix+uint64(n)]) == name {
			return box(tagAtom, i+sizePrefix)
		}
		i += sizePrefix + uint64(n)
	}
	return h.allocBytes(tagAtom, []byte(name))
}

// NewStringBytes allocates a fresh STRING from raw bytes, without interning.
func (h *Heap) NewStringBytes(b []byte) Value {
	return h.allocBytes(tagString, b)
}

// NewString allocates a fresh STRING from a Go string.
func (h *Heap) NewString(s string) Value { return h.NewStringBytes([]byte(s)) }

// Bytes returns the raw bytes backing an ATOM or STRING value.
func (h *Heap) Bytes(v Value) []byte {
	off := Ord(v)
	n := int32(binary.LittleEndian.Uint32(h.cur()[off-sizePrefix:]))
	return h.cur()[off : off+uint64(n)]
}

// AtomName returns the text of an ATOM or STRING value.
func (h *Heap) AtomName(v Value) string { return string(h.Bytes(v)) }

// push writes v into the next free word from the high end of the active
// region and returns its word index.
func (h *Heap) push(v Value) uint64 {
	h.sp--
	setWord(h.cur(), h.sp, v)
	return h.sp
}

// consRaw allocates a two-word cell (first, rest) without triggering a
// collection and returns its word index. The reference implementation
// pushes first then rest, so rest ends up at the lower index: Rest(p) =
// cell[ord(p)], First(p) = cell[ord(p)+1].
func (h *Heap) consRaw(first, rest Value) uint64 {
	h.push(first)
	return h.push(rest)
}

// Cons constructs a PAIR from first and rest.
func (h *Heap) Cons(first, rest Value) Value {
	return box(tagPair, h.consRaw(first, rest))
}

// ConsGC conses first and rest, then runs a collection if the allocator is
// under pressure, returning the cell's possibly-relocated Value. Any other
// Value the caller needs to survive a collection triggered here must already
// be registered as a root: Collect only rewrites what RegisterRoot knows
// about.
func (h *Heap) ConsGC(first, rest Value) (Value, error) {
	cell := h.Cons(first, rest)
	return h.Collect(false, cell)
}

// First returns the car of a pair-like value (pair, closure, or macro), or
// a NotAPair error if p isn't one.
func (h *Heap) First(p Value) (Value, error) {
	if !IsPairlike(p) {
		return Nil, raise(NotAPair, "")
	}
	return getWord(h.cur(), Ord(p)+1), nil
}

// Rest returns the cdr of a pair-like value, or a NotAPair error.
func (h *Heap) Rest(p Value) (Value, error) {
	if !IsPairlike(p) {
		return Nil, raise(NotAPair, "")
	}
	return getWord(h.cur(), Ord(p)), nil
}

// SetFirst mutates the car of a pair-like value in place.
func (h *Heap) SetFirst(p, x Value) error {
	if !IsPairlike(p) {
		return raise(NotAPair, "")
	}
	setWord(h.cur(), Ord(p)+1, x)
	return nil
}

// SetRest mutates the cdr of a pair-like value in place. letrec's
// recursive bindings and setq both rely on this mutating the shared cell
// rather than rebuilding the list.
func (h *Heap) SetRest(p, x Value) error {
	if !IsPairlike(p) {
		return raise(NotAPair, "")
	}
	setWord(h.cur(), Ord(p), x)
	return nil
}

// EnvPair constructs ((v . x) . e), the shape every environment-extending
// form builds: a new frame consed onto the front of e.
func (h *Heap) EnvPair(v, x, e Value) Value {
	p := h.Cons(v, x)
	return h.Cons(p, e)
}

// MakeClosure builds a CLOSURE from formal parameters, a body, and the
// environment captured at construction. If env is the same Value as
// globalEnv, the closure stores Nil instead: at call time a Nil captured
// environment means "use whatever the global environment is then",
// matching the reference implementation's closure() helper exactly.
func (h *Heap) MakeClosure(params, body, env, globalEnv Value) Value {
	capture := env
	if env == globalEnv {
		capture = Nil
	}
	return box(tagClosure, Ord(h.EnvPair(params, body, capture)))
}

// MakeMacro builds a MACRO from formal parameters and an unevaluated body.
// Macros never capture an environment: their body always evaluates against
// the global environment extended with the (unevaluated) actuals.
func (h *Heap) MakeMacro(params, body Value) Value {
	return box(tagMacro, h.consRaw(params, body))
}
