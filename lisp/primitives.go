package lisp

import "strings"

// primFunc implements a primitive bound in the global environment: args is
// the heap list of its already-evaluated operands, built by evalArgs.
type primFunc func(ip *Interp, args Value) (Value, error)

type primEntry struct {
	name string
	fn   primFunc
}

// primitiveTable is indexed by a PRIMITIVE Value's payload (Bootstrap
// assigns the index at the moment it interns the name), so Eval's
// generic-application path can dispatch in O(1) once the operator has been
// looked up by name.
var primitiveTable = []primEntry{
	{"type", primType},
	{"pair", primPair},
	{"first", primFirst},
	{"next", primNext},
	{"eq?", primEqP},
	{"not", primNot},
	{"+", primAdd},
	{"-", primSub},
	{"*", primMul},
	{"/", primDiv},
	{"int", primInt},
	{"<", primLt},
	{"list", primList},
	{"assoc", primAssoc},
	{"read", primRead},
	{"print", primPrint},
	{"println", primPrintln},
	{"write", primWrite},
	{"string", primString},
	{"register-interface", primRegisterInterface},
	{"evoke", primEvoke},
	{"yield", primYield},
	{"output", primOutput},
	{"input", primInput},
}

// Bootstrap binds every primitive's name to a PRIMITIVE Value carrying its
// table index, then binds #t to itself, extending Global with one frame
// per name.
func (ip *Interp) Bootstrap() {
	h := ip.Heap
	for i, p := range primitiveTable {
		name := h.InternAtom(p.name)
		ip.Global = h.EnvPair(name, box(tagPrimitive, uint64(i)), ip.Global)
	}
	ip.Global = h.EnvPair(h.InternAtom("#t"), h.tru, ip.Global)
}

func (ip *Interp) callPrimitive(f, args Value) (Value, error) {
	idx := int(Ord(f))
	if idx < 0 || idx >= len(primitiveTable) {
		return Nil, raise(CannotApply, "")
	}
	return primitiveTable[idx].fn(ip, args)
}

// argAt fetches the n-th element (0-based) of an evaluated-args list.
func argAt(h *Heap, args Value, n int) (Value, error) {
	for i := 0; i < n; i++ {
		rest, err := h.Rest(args)
		if err != nil {
			return Nil, err
		}
		args = rest
	}
	return h.First(args)
}

func argCount(h *Heap, args Value) int {
	n := 0
	for IsPair(args) {
		n++
		next, err := h.Rest(args)
		if err != nil {
			break
		}
		args = next
	}
	return n
}

func primType(ip *Interp, args Value) (Value, error) {
	a, err := argAt(ip.Heap, args, 0)
	if err != nil {
		return Nil, err
	}
	return Num(TypeOrdinal(a)), nil
}

// primPair implements `pair(x, y)`: construct a fresh cons cell (x . y).
// Type-testing a value as a pair is done with `(type x)`, not this form.
func primPair(ip *Interp, args Value) (Value, error) {
	h := ip.Heap
	a, err := argAt(h, args, 0)
	if err != nil {
		return Nil, err
	}
	b, err := argAt(h, args, 1)
	if err != nil {
		return Nil, err
	}
	return h.ConsGC(a, b)
}

func primFirst(ip *Interp, args Value) (Value, error) {
	a, err := argAt(ip.Heap, args, 0)
	if err != nil {
		return Nil, err
	}
	return ip.Heap.First(a)
}

func primNext(ip *Interp, args Value) (Value, error) {
	a, err := argAt(ip.Heap, args, 0)
	if err != nil {
		return Nil, err
	}
	return ip.Heap.Rest(a)
}

func primEqP(ip *Interp, args Value) (Value, error) {
	h := ip.Heap
	a, err := argAt(h, args, 0)
	if err != nil {
		return Nil, err
	}
	b, err := argAt(h, args, 1)
	if err != nil {
		return Nil, err
	}
	return h.Bool(h.Eq(a, b)), nil
}

func primNot(ip *Interp, args Value) (Value, error) {
	a, err := argAt(ip.Heap, args, 0)
	if err != nil {
		return Nil, err
	}
	return ip.Heap.Bool(!Truthy(a)), nil
}

func eachNumber(h *Heap, args Value, fn func(float64)) error {
	for IsPair(args) {
		a, err := h.First(args)
		if err != nil {
			return err
		}
		if !IsNumber(a) {
			return raise(Arguments, "expected a number")
		}
		fn(Float(a))
		args, err = h.Rest(args)
		if err != nil {
			return err
		}
	}
	return nil
}

func primAdd(ip *Interp, args Value) (Value, error) {
	sum := 0.0
	if err := eachNumber(ip.Heap, args, func(f float64) { sum += f }); err != nil {
		return Nil, err
	}
	return Num(sum), nil
}

func primMul(ip *Interp, args Value) (Value, error) {
	if argCount(ip.Heap, args) == 0 {
		return Nil, raise(Arguments, "*")
	}
	product := 1.0
	if err := eachNumber(ip.Heap, args, func(f float64) { product *= f }); err != nil {
		return Nil, err
	}
	return Num(product), nil
}

func primSub(ip *Interp, args Value) (Value, error) {
	h := ip.Heap
	n := argCount(h, args)
	if n == 0 {
		return Nil, raise(Arguments, "-")
	}
	first, err := argAt(h, args, 0)
	if err != nil {
		return Nil, err
	}
	if !IsNumber(first) {
		return Nil, raise(Arguments, "-")
	}
	if n == 1 {
		return Num(-Float(first)), nil
	}
	rest, err := h.Rest(args)
	if err != nil {
		return Nil, err
	}
	acc := Float(first)
	if err := eachNumber(h, rest, func(f float64) { acc -= f }); err != nil {
		return Nil, err
	}
	return Num(acc), nil
}

func primDiv(ip *Interp, args Value) (Value, error) {
	h := ip.Heap
	n := argCount(h, args)
	if n == 0 {
		return Nil, raise(Arguments, "/")
	}
	first, err := argAt(h, args, 0)
	if err != nil {
		return Nil, err
	}
	if !IsNumber(first) {
		return Nil, raise(Arguments, "/")
	}
	if n == 1 {
		return Num(1 / Float(first)), nil
	}
	rest, err := h.Rest(args)
	if err != nil {
		return Nil, err
	}
	acc := Float(first)
	if err := eachNumber(h, rest, func(f float64) { acc /= f }); err != nil {
		return Nil, err
	}
	return Num(acc), nil
}

func primInt(ip *Interp, args Value) (Value, error) {
	a, err := argAt(ip.Heap, args, 0)
	if err != nil {
		return Nil, err
	}
	if !IsNumber(a) {
		return Nil, raise(Arguments, "int")
	}
	f := Float(a)
	return Num(float64(int64(f))), nil
}

// primLt implements `<`: numbers compare by value, ATOM and STRING compare
// lexicographically by content, and anything else falls back to comparing
// TypeOrdinal so heterogeneous values still sort into a total order good
// enough for a generic sort to use without special-casing its comparator.
func primLt(ip *Interp, args Value) (Value, error) {
	h := ip.Heap
	a, err := argAt(h, args, 0)
	if err != nil {
		return Nil, err
	}
	b, err := argAt(h, args, 1)
	if err != nil {
		return Nil, err
	}
	return h.Bool(lessThan(h, a, b)), nil
}

func lessThan(h *Heap, a, b Value) bool {
	if IsNumber(a) && IsNumber(b) {
		return Float(a) < Float(b)
	}
	aName, aOk := atomOrStringName(h, a)
	bName, bOk := atomOrStringName(h, b)
	if aOk && bOk {
		return aName < bName
	}
	return TypeOrdinal(a) < TypeOrdinal(b)
}

func atomOrStringName(h *Heap, v Value) (string, bool) {
	if IsAtom(v) || IsString(v) {
		return h.AtomName(v), true
	}
	return "", false
}

// primList is the identity on its already-evaluated args list: evalArgs
// has already done the consing `list` exists to expose to scripts.
func primList(ip *Interp, args Value) (Value, error) { return args, nil }

func primAssoc(ip *Interp, args Value) (Value, error) {
	h := ip.Heap
	sym, err := argAt(h, args, 0)
	if err != nil {
		return Nil, err
	}
	env, err := argAt(h, args, 1)
	if err != nil {
		return Nil, err
	}
	return h.Assoc(sym, env)
}

// primRead implements the sandbox-backed `read`: its one argument names a
// file relative to the sandbox root, which is read whole and parsed as a
// single top-level form.
func primRead(ip *Interp, args Value) (Value, error) {
	h := ip.Heap
	a, err := argAt(h, args, 0)
	if err != nil {
		return Nil, err
	}
	if !IsString(a) && !IsAtom(a) {
		return Nil, raise(Arguments, "read")
	}
	if ip.Files == nil {
		return Nil, raise(Arguments, "read: no sandbox attached")
	}
	data, err := ip.Files.ReadAll(h.AtomName(a))
	if err != nil {
		return Nil, raise(Arguments, err.Error())
	}
	r := NewReader(data)
	v, err := r.ReadOne(h)
	if err == ErrExhausted {
		return Nil, nil
	}
	return v, err
}

func primPrint(ip *Interp, args Value) (Value, error) {
	h := ip.Heap
	var last Value
	for a := args; IsPair(a); {
		v, err := h.First(a)
		if err != nil {
			return Nil, err
		}
		if err := ip.emit(h.Print(v)); err != nil {
			return Nil, err
		}
		last = v
		a, err = h.Rest(a)
		if err != nil {
			return Nil, err
		}
	}
	return last, nil
}

func primPrintln(ip *Interp, args Value) (Value, error) {
	v, err := primPrint(ip, args)
	if err != nil {
		return Nil, err
	}
	if err := ip.emit("\n"); err != nil {
		return Nil, err
	}
	return v, nil
}

func primWrite(ip *Interp, args Value) (Value, error) {
	h := ip.Heap
	var last Value
	for a := args; IsPair(a); {
		v, err := h.First(a)
		if err != nil {
			return Nil, err
		}
		if err := ip.emit(h.Write(v)); err != nil {
			return Nil, err
		}
		last = v
		a, err = h.Rest(a)
		if err != nil {
			return Nil, err
		}
	}
	return last, nil
}

func primString(ip *Interp, args Value) (Value, error) {
	h := ip.Heap
	var out []byte
	for a := args; IsPair(a); {
		v, err := h.First(a)
		if err != nil {
			return Nil, err
		}
		out = append(out, []byte(h.Print(v))...)
		a, err = h.Rest(a)
		if err != nil {
			return Nil, err
		}
	}
	return h.NewStringBytes(out), nil
}

// primRegisterInterface implements `register-interface(name, type, format,
// closure, direction, triggering)`: it declares the interface with the
// host, then installs closure in the global environment under name the
// same way `define` does, so a later `(name payload...)` invokes it.
// Re-registering the same name is idempotent: the closure is simply
// overwritten.
func primRegisterInterface(ip *Interp, args Value) (Value, error) {
	if ip.Host == nil {
		return Nil, raise(CannotApply, "no host")
	}
	h := ip.Heap
	name, err := argAt(h, args, 0)
	if err != nil {
		return Nil, err
	}
	typ, err := argAt(h, args, 1)
	if err != nil {
		return Nil, err
	}
	format, err := argAt(h, args, 2)
	if err != nil {
		return Nil, err
	}
	closure, err := argAt(h, args, 3)
	if err != nil {
		return Nil, err
	}
	dir, err := argAt(h, args, 4)
	if err != nil {
		return Nil, err
	}
	trig, err := argAt(h, args, 5)
	if err != nil {
		return Nil, err
	}
	// direction and triggering are 0/1 flags, as in a manifest's interface:
	// line: a number counts as set only when non-zero.
	flag := func(v Value) bool {
		if IsNumber(v) {
			return Float(v) != 0
		}
		return Truthy(v)
	}
	if err := ip.Host.RegisterInterface(h.Print(name), h.Print(typ), h.Print(format), flag(dir), flag(trig)); err != nil {
		return Nil, err
	}
	// The closure is installed under the ATOM matching name's printed
	// text, not under name itself: a router-delivered invocation reads
	// its port as a bare symbol, so a STRING-valued name argument (the
	// common case, e.g. "ping") must still resolve to the same binding.
	symbol := h.InternAtom(h.Print(name))
	if err := h.SetVar(symbol, ip.Global, closure); err != nil {
		ip.Global = h.EnvPair(symbol, closure, ip.Global)
	}
	return symbol, nil
}

// primEvoke implements `evoke(script-name, language)`: asks the host to
// create a sibling daemon, returning its new id or Nil on failure.
func primEvoke(ip *Interp, args Value) (Value, error) {
	if ip.Host == nil {
		return Nil, raise(CannotApply, "no host")
	}
	h := ip.Heap
	script, err := argAt(h, args, 0)
	if err != nil {
		return Nil, err
	}
	language, err := argAt(h, args, 1)
	if err != nil {
		language = Nil
	}
	return ip.Host.Evoke(h.Print(script), h.Print(language))
}

func primYield(ip *Interp, args Value) (Value, error) {
	if ip.Host == nil {
		return Nil, raise(CannotApply, "no host")
	}
	return Nil, ip.Host.Yield()
}

// primOutput implements `output(name, payload)`: payload is stringified if
// it's a STRING, else byte-materialized from a list of numeric chars,
// matching spec.md §4.4 and the Open Question (a) note that this channel
// is unified into one byte-payload representation rather than kept split.
func primOutput(ip *Interp, args Value) (Value, error) {
	if ip.Host == nil {
		return Nil, raise(CannotApply, "no host")
	}
	h := ip.Heap
	name, err := argAt(h, args, 0)
	if err != nil {
		return Nil, err
	}
	payload, err := argAt(h, args, 1)
	if err != nil {
		return Nil, err
	}
	n, err := ip.Host.SetOutput(h.Print(name), payload)
	if err != nil {
		return Nil, err
	}
	return Num(float64(n)), nil
}

// primInput implements `input`: one newline-terminated line from Stdin,
// truncated at a 1024-byte buffer, matching spec.md §6.
func primInput(ip *Interp, args Value) (Value, error) {
	if ip.Stdin == nil {
		return ip.Heap.NewString(""), nil
	}
	const maxLine = 1024
	line, err := ip.Stdin.ReadString('\n')
	if err != nil && line == "" {
		return Nil, err
	}
	line = strings.TrimRight(line, "\r\n")
	if len(line) > maxLine {
		line = line[:maxLine]
	}
	return ip.Heap.NewString(line), nil
}
