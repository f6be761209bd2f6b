package lisp

// Host is the interpreter's only window onto anything outside its own
// heap and its own console streams: the daemon registry and router that
// give `register-interface`, `evoke`, `yield`, and `output` meaning. An
// Interp with a nil Host can still evaluate pure LISP and do console I/O
// through Stdin/Stdout; those four forms fail with CannotApply until a
// Host is attached, which is what lets the evaluator be tested in
// isolation from a running daemon registry.
type Host interface {
	// RegisterInterface declares one of the calling daemon's named
	// interfaces, as the `register-interface` form and a manifest's
	// interface: lines both eventually do. The bound handler closure is
	// installed in the global environment by the caller, not here.
	RegisterInterface(name, typ, format string, direction bool, trigger bool) error

	// Evoke asks the host to create a sibling daemon running script under
	// language, returning its new identifier, or Nil on failure.
	Evoke(script, language string) (Value, error)

	// Yield cooperatively suspends the calling daemon for the rest of the
	// current scheduling tick.
	Yield() error

	// SetOutput records payload on the named pending-output slot for
	// delivery by the router at the end of this tick, returning the
	// number of bytes recorded (0 if name isn't a declared OUT port).
	SetOutput(name string, payload Value) (int, error)
}

// FileReader is the sandbox façade's contract as seen by `read`: resolve a
// name inside one sandbox root and return the whole file. A real
// implementation lives in the sandbox package; this interface only exists
// so lisp doesn't need to import it.
type FileReader interface {
	ReadAll(name string) ([]byte, error)
}
