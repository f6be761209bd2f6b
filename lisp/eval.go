package lisp

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Interp is one daemon's interpreter: its heap, its current program reader,
// its console streams, and the host hooks that give its script a way to
// talk to anything other than its own data. Spec §9's design note calls
// for collecting the reference implementation's scattered global
// interpreter state into a single context value; Interp is that value.
type Interp struct {
	Heap   *Heap
	Reader *Reader
	Host   Host
	Files  FileReader
	Global Value // the global environment, an association list

	// Trace is the tracing level `trace` sets: 0 is off, 1 prints every
	// evaluated expression and its value, 2 additionally waits for a
	// keypress on Stdin between steps.
	Trace  int
	traceN int

	// Stdout receives print/println/write output; Stdin backs input. Both
	// default to a discard/empty stream when nil, so an Interp is usable
	// standalone without a Host or a running process.
	Stdout io.Writer
	Stdin  *bufio.Reader

	// Transcript mirrors everything ever written to Stdout, independent of
	// whether Stdout is set: a daemon under test can inspect its own
	// console output without wiring up a real stream.
	Transcript strings.Builder
}

// NewInterp creates an interpreter over a fresh heap of the given cell
// capacity, reading source as its main program, with the primitive table
// already bound into its global environment.
func NewInterp(cells uint64, source []byte) *Interp {
	h := NewHeap(cells)
	ip := &Interp{
		Heap:   h,
		Reader: NewReader(source),
		Global: Nil,
	}
	ip.Bootstrap()
	return ip
}

// emit writes text to Stdout (if set) and to the transcript.
// print/println/write all funnel through this.
func (ip *Interp) emit(text string) error {
	ip.Transcript.WriteString(text)
	if ip.Stdout != nil {
		_, err := io.WriteString(ip.Stdout, text)
		return err
	}
	return nil
}

// Step reads and evaluates exactly one top-level form from the
// interpreter's main program, which is how a host scheduler gives a
// daemon its one tick of work (spec §4.5). It returns ErrExhausted once
// the program has no forms left; that is not a failure, just idleness.
func (ip *Interp) Step() (Value, error) {
	x, err := ip.Reader.ReadOne(ip.Heap)
	if err != nil {
		return Nil, err
	}
	return ip.Eval(x, ip.Global)
}

// Eval evaluates expr in env. When Trace is 0 (the default) this is exactly
// evalStep; when a script has called `trace`, every evaluation — including
// every nested subexpression, since evalStep calls back into Eval rather
// than itself — prints its expression and resulting value, mirroring the
// reference implementation's eval() wrapping every call to step() the same
// way. Level 2 additionally blocks for a keypress on Stdin after each line.
func (ip *Interp) Eval(expr, env Value) (Value, error) {
	if ip.Trace == 0 {
		return ip.evalStep(expr, env)
	}
	v, err := ip.evalStep(expr, env)
	if err != nil {
		return v, err
	}
	ip.traceN++
	ip.emit(fmt.Sprintf("%4d: %s => %s\n", ip.traceN, ip.Heap.Print(expr), ip.Heap.Print(v)))
	if ip.Trace > 1 {
		ip.waitForKeypress()
	}
	return v, nil
}

// waitForKeypress blocks on Stdin until a control character (or EOF) is
// read, the same `while (getchar() >= ' ') continue;` gate the reference
// implementation's level-2 trace uses to single-step a script by hand. A
// daemon with no Stdin attached can't single-step, so this is a no-op then.
func (ip *Interp) waitForKeypress() {
	if ip.Stdin == nil {
		return
	}
	for {
		b, err := ip.Stdin.ReadByte()
		if err != nil || b < ' ' {
			return
		}
	}
}

// evalStep is the trampolining step loop: it runs loops, cond chains, and
// tail calls in bounded root-registry depth regardless of how many times
// they iterate (the testable property in spec §8). Exactly five root slots
// are registered for the lifetime of this call and reused across every
// tail iteration, mirroring the reference implementation's single
// var(5, x, e, f, v, d) covering its whole step() rather than growing per
// iteration.
func (ip *Interp) evalStep(expr, env Value) (Value, error) {
	h := ip.Heap
	base := h.RootCount()
	var x, e, f, v, d Value
	x, e = expr, env
	h.RegisterRoot(&x)
	h.RegisterRoot(&e)
	h.RegisterRoot(&f)
	h.RegisterRoot(&v)
	h.RegisterRoot(&d)
	defer h.Unwind(base)

	for {
		switch {
		case IsAtom(x):
			return h.Assoc(x, e)
		case !IsPair(x):
			return x, nil
		}

		op, err := h.First(x)
		if err != nil {
			return Nil, err
		}
		args, err := h.Rest(x)
		if err != nil {
			return Nil, err
		}

		if IsAtom(op) {
			switch h.AtomName(op) {
			case "quote":
				return h.First(args)

			case "if":
				c, err := h.First(args)
				if err != nil {
					return Nil, err
				}
				rest, err := h.Rest(args)
				if err != nil {
					return Nil, err
				}
				then, err := h.First(rest)
				if err != nil {
					return Nil, err
				}
				d, err = ip.Eval(c, e)
				if err != nil {
					return Nil, err
				}
				if Truthy(d) {
					x = then
				} else if elseRest, err := h.Rest(rest); err == nil && IsPair(elseRest) {
					x, err = h.First(elseRest)
					if err != nil {
						return Nil, err
					}
				} else {
					return Nil, nil
				}
				continue

			case "cond":
				clause, err := ip.findCondClause(args, e)
				if err != nil {
					return Nil, err
				}
				if IsNil(clause) {
					return Nil, nil
				}
				x = h.Cons(h.InternAtom("begin"), clause)
				continue

			case "begin":
				if IsNil(args) {
					return Nil, nil
				}
				for {
					rest, err := h.Rest(args)
					if err != nil {
						return Nil, err
					}
					if IsNil(rest) {
						x, err = h.First(args)
						if err != nil {
							return Nil, err
						}
						break
					}
					form, err := h.First(args)
					if err != nil {
						return Nil, err
					}
					if _, err := ip.Eval(form, e); err != nil {
						return Nil, err
					}
					args = rest
				}
				continue

			case "and":
				result := h.tru
				for IsPair(args) {
					form, err := h.First(args)
					if err != nil {
						return Nil, err
					}
					result, err = ip.Eval(form, e)
					if err != nil {
						return Nil, err
					}
					if !Truthy(result) {
						return Nil, nil
					}
					args, err = h.Rest(args)
					if err != nil {
						return Nil, err
					}
				}
				return result, nil

			case "or":
				for IsPair(args) {
					form, err := h.First(args)
					if err != nil {
						return Nil, err
					}
					result, err := ip.Eval(form, e)
					if err != nil {
						return Nil, err
					}
					if Truthy(result) {
						return result, nil
					}
					args, err = h.Rest(args)
					if err != nil {
						return Nil, err
					}
				}
				return Nil, nil

			case "while":
				cond, err := h.First(args)
				if err != nil {
					return Nil, err
				}
				body, err := h.Rest(args)
				if err != nil {
					return Nil, err
				}
				var last Value
				for {
					d, err = ip.Eval(cond, e)
					if err != nil {
						return Nil, err
					}
					if !Truthy(d) {
						return last, nil
					}
					last, err = ip.evalBody(body, e)
					if err != nil {
						return Nil, err
					}
				}

			case "lambda":
				params, err := h.First(args)
				if err != nil {
					return Nil, err
				}
				body, err := h.Rest(args)
				if err != nil {
					return Nil, err
				}
				return h.MakeClosure(params, body, e, ip.Global), nil

			case "macro":
				params, err := h.First(args)
				if err != nil {
					return Nil, err
				}
				body, err := h.Rest(args)
				if err != nil {
					return Nil, err
				}
				return h.MakeMacro(params, body), nil

			case "define":
				name, err := h.First(args)
				if err != nil {
					return Nil, err
				}
				rest, err := h.Rest(args)
				if err != nil {
					return Nil, err
				}
				body, err := h.First(rest)
				if err != nil {
					return Nil, err
				}
				v, err = ip.Eval(body, e)
				if err != nil {
					return Nil, err
				}
				if err := h.SetVar(name, ip.Global, v); err != nil {
					ip.Global = h.EnvPair(name, v, ip.Global)
				}
				return v, nil

			case "setq":
				name, err := h.First(args)
				if err != nil {
					return Nil, err
				}
				rest, err := h.Rest(args)
				if err != nil {
					return Nil, err
				}
				body, err := h.First(rest)
				if err != nil {
					return Nil, err
				}
				v, err = ip.Eval(body, e)
				if err != nil {
					return Nil, err
				}
				if err := h.SetVar(name, e, v); err != nil {
					return Nil, err
				}
				return v, nil

			case "let", "let*":
				bindings, err := h.First(args)
				if err != nil {
					return Nil, err
				}
				body, err := h.Rest(args)
				if err != nil {
					return Nil, err
				}
				newEnv := e
				evalEnv := e
				if h.AtomName(op) == "let*" {
					evalEnv = newEnv // each binding sees the ones before it
				}
				for IsPair(bindings) {
					bind, err := h.First(bindings)
					if err != nil {
						return Nil, err
					}
					name, err := h.First(bind)
					if err != nil {
						return Nil, err
					}
					rest, err := h.Rest(bind)
					if err != nil {
						return Nil, err
					}
					init, err := h.First(rest)
					if err != nil {
						return Nil, err
					}
					val, err := ip.Eval(init, evalEnv)
					if err != nil {
						return Nil, err
					}
					newEnv = h.EnvPair(name, val, newEnv)
					if h.AtomName(op) == "let*" {
						evalEnv = newEnv
					}
					bindings, err = h.Rest(bindings)
					if err != nil {
						return Nil, err
					}
				}
				e = newEnv
				var err2 error
				x, err2 = ip.beginOf(body)
				if err2 != nil {
					return Nil, err2
				}
				continue

			case "letrec", "letrec*":
				// Both forms bind sequentially: every name is pre-bound to
				// Nil, then each init runs against the fully-extended
				// frame and patches its own slot in binding order.
				bindings, err := h.First(args)
				if err != nil {
					return Nil, err
				}
				body, err := h.Rest(args)
				if err != nil {
					return Nil, err
				}
				newEnv := e
				frames := []Value{}
				for b := bindings; IsPair(b); {
					bind, err := h.First(b)
					if err != nil {
						return Nil, err
					}
					name, err := h.First(bind)
					if err != nil {
						return Nil, err
					}
					newEnv = h.EnvPair(name, Nil, newEnv)
					frame, err := h.First(newEnv)
					if err != nil {
						return Nil, err
					}
					frames = append(frames, frame)
					b, err = h.Rest(b)
					if err != nil {
						return Nil, err
					}
				}
				i := 0
				for b := bindings; IsPair(b); {
					bind, err := h.First(b)
					if err != nil {
						return Nil, err
					}
					rest, err := h.Rest(bind)
					if err != nil {
						return Nil, err
					}
					init, err := h.First(rest)
					if err != nil {
						return Nil, err
					}
					val, err := ip.Eval(init, newEnv)
					if err != nil {
						return Nil, err
					}
					if err := h.SetRest(frames[i], val); err != nil {
						return Nil, err
					}
					i++
					b, err = h.Rest(b)
					if err != nil {
						return Nil, err
					}
				}
				e = newEnv
				var err2 error
				x, err2 = ip.beginOf(body)
				if err2 != nil {
					return Nil, err2
				}
				continue

			case "set-first!":
				target, err := h.First(args)
				if err != nil {
					return Nil, err
				}
				rest, err := h.Rest(args)
				if err != nil {
					return Nil, err
				}
				newVal, err := h.First(rest)
				if err != nil {
					return Nil, err
				}
				f, err = ip.Eval(target, e)
				if err != nil {
					return Nil, err
				}
				v, err = ip.Eval(newVal, e)
				if err != nil {
					return Nil, err
				}
				if err := h.SetFirst(f, v); err != nil {
					return Nil, err
				}
				return v, nil

			case "set-next!":
				target, err := h.First(args)
				if err != nil {
					return Nil, err
				}
				rest, err := h.Rest(args)
				if err != nil {
					return Nil, err
				}
				newVal, err := h.First(rest)
				if err != nil {
					return Nil, err
				}
				f, err = ip.Eval(target, e)
				if err != nil {
					return Nil, err
				}
				v, err = ip.Eval(newVal, e)
				if err != nil {
					return Nil, err
				}
				if err := h.SetRest(f, v); err != nil {
					return Nil, err
				}
				return v, nil

			case "catch":
				snapshot := h.RootCount()
				body, err := h.First(args)
				if err != nil {
					return Nil, err
				}
				result, evalErr := ip.Eval(body, e)
				if evalErr == nil {
					return result, nil
				}
				lerr, ok := evalErr.(*Error)
				if !ok {
					return Nil, evalErr
				}
				h.Unwind(snapshot)
				return h.Cons(h.InternAtom("ERR"), Num(float64(lerr.Code))), nil

			case "gosub":
				parts := make([]Value, 0, 4)
				for a := args; IsPair(a); {
					el, err := h.First(a)
					if err != nil {
						return Nil, err
					}
					val, err := ip.Eval(el, e)
					if err != nil {
						return Nil, err
					}
					parts = append(parts, val)
					a, err = h.Rest(a)
					if err != nil {
						return Nil, err
					}
				}
				var sb []byte
				for _, p := range parts {
					sb = append(sb, []byte(h.Print(p))...)
					sb = append(sb, ' ')
				}
				ip.Reader.Push(sb)
				sub, err := ip.Reader.ReadOne(h)
				ip.Reader.Pop()
				if err == ErrExhausted {
					return Nil, nil
				}
				if err != nil {
					return Nil, err
				}
				x = sub
				continue

			case "env":
				return e, nil

			// (trace) sets level 1; (trace n) sets level n; (trace n expr)
			// evaluates expr at level n and restores the prior level
			// afterward, returning expr's value instead of the level.
			case "trace":
				level := 1
				if IsPair(args) {
					levelExpr, err := h.First(args)
					if err != nil {
						return Nil, err
					}
					d, err = ip.Eval(levelExpr, e)
					if err != nil {
						return Nil, err
					}
					if IsNumber(d) {
						level = int(Float(d))
					} else if IsNil(d) {
						level = 0
					}
					rest, err := h.Rest(args)
					if err != nil {
						return Nil, err
					}
					if IsPair(rest) {
						body, err := h.First(rest)
						if err != nil {
							return Nil, err
						}
						saved := ip.Trace
						ip.Trace = level
						v, err = ip.Eval(body, e)
						ip.Trace = saved
						if err != nil {
							return Nil, err
						}
						return v, nil
					}
				}
				ip.Trace = level
				return Num(float64(ip.Trace)), nil

			case "throw":
				codeExpr, err := h.First(args)
				if err != nil {
					return Nil, err
				}
				d, err = ip.Eval(codeExpr, e)
				if err != nil {
					return Nil, err
				}
				if !IsNumber(d) {
					return Nil, raise(Arguments, "throw")
				}
				return Nil, raise(Code(int(Float(d))), "")

			case "quit":
				return Nil, ErrQuit

			case "eval":
				form, err := h.First(args)
				if err != nil {
					return Nil, err
				}
				v, err = ip.Eval(form, e)
				if err != nil {
					return Nil, err
				}
				x = v
				continue
			}
		}

		// Generic application: evaluate the operator, then the operands
		// left to right, then apply.
		fv, err := ip.Eval(op, e)
		if err != nil {
			return Nil, err
		}
		f = fv

		evaluated, err := ip.evalArgs(args, e)
		if err != nil {
			return Nil, err
		}
		v = evaluated

		switch {
		case IsPrimitive(f):
			result, err := ip.callPrimitive(f, v)
			return result, err
		case IsClosure(f):
			params, body, closureEnv, err := ip.openClosure(f)
			if err != nil {
				return Nil, err
			}
			newEnv, err := bindParams(h, params, v, closureEnv)
			if err != nil {
				return Nil, err
			}
			e = newEnv
			x, err = ip.beginOf(body)
			if err != nil {
				return Nil, err
			}
			continue
		case IsMacro(f):
			params, body, err := ip.openMacro(f)
			if err != nil {
				return Nil, err
			}
			newEnv, err := bindParams(h, params, args, ip.Global)
			if err != nil {
				return Nil, err
			}
			expanded, err := ip.Eval(mustBeginOf(h, body), newEnv)
			if err != nil {
				return Nil, err
			}
			x = expanded
			continue
		default:
			return Nil, raise(CannotApply, "")
		}
	}
}

// evalBody evaluates a sequence of forms left to right in env and returns
// the last result, used by while where a trampolined tail position isn't
// available (the loop condition must be re-checked after every pass).
func (ip *Interp) evalBody(body, env Value) (Value, error) {
	h := ip.Heap
	var last Value
	for IsPair(body) {
		form, err := h.First(body)
		if err != nil {
			return Nil, err
		}
		last, err = ip.Eval(form, env)
		if err != nil {
			return Nil, err
		}
		body, err = h.Rest(body)
		if err != nil {
			return Nil, err
		}
	}
	return last, nil
}

// beginOf wraps a body (a list of one or more forms) as (begin ...) so it
// can be assigned to the tail position, unless it's already a single form.
func (ip *Interp) beginOf(body Value) (Value, error) {
	h := ip.Heap
	rest, err := h.Rest(body)
	if err != nil {
		return Nil, err
	}
	if IsNil(rest) {
		return h.First(body)
	}
	return h.Cons(h.InternAtom("begin"), body), nil
}

func mustBeginOf(h *Heap, body Value) Value {
	rest, err := h.Rest(body)
	if err == nil && IsNil(rest) {
		if f, err := h.First(body); err == nil {
			return f
		}
	}
	return h.Cons(h.InternAtom("begin"), body)
}

// findCondClause returns the first clause of a cond form whose test is
// truthy (or whose test is the #t-bound "else" marker handled just like
// any other truthy atom), or Nil if none matched.
func (ip *Interp) findCondClause(clauses, env Value) (Value, error) {
	h := ip.Heap
	for IsPair(clauses) {
		clause, err := h.First(clauses)
		if err != nil {
			return Nil, err
		}
		test, err := h.First(clause)
		if err != nil {
			return Nil, err
		}
		result, err := ip.Eval(test, env)
		if err != nil {
			return Nil, err
		}
		if Truthy(result) {
			body, err := h.Rest(clause)
			if err != nil {
				return Nil, err
			}
			return body, nil
		}
		clauses, err = h.Rest(clauses)
		if err != nil {
			return Nil, err
		}
	}
	return Nil, nil
}

// evalArgs evaluates each element of an operand list in env, left to
// right, building the result as a heap list so every intermediate value
// stays reachable through the ordinary root-rewriting a collection does,
// rather than through a Go slice the collector knows nothing about.
func (ip *Interp) evalArgs(list, env Value) (Value, error) {
	h := ip.Heap
	var head, tail Value = Nil, Nil
	base := h.RootCount()
	h.RegisterRoot(&head)
	h.RegisterRoot(&tail)
	h.RegisterRoot(&list)
	defer h.Unwind(base)

	for IsPair(list) {
		elem, err := h.First(list)
		if err != nil {
			return Nil, err
		}
		val, err := ip.Eval(elem, env)
		if err != nil {
			return Nil, err
		}
		cell, err := h.ConsGC(val, Nil)
		if err != nil {
			return Nil, err
		}
		if IsPair(tail) {
			if err := h.SetRest(tail, cell); err != nil {
				return Nil, err
			}
		} else {
			head = cell
		}
		tail = cell
		list, err = h.Rest(list)
		if err != nil {
			return Nil, err
		}
	}
	return head, nil
}

// openClosure returns a closure's parameter list, body, and the
// environment it should run in: its own capture, or the global
// environment if it captured Nil (meaning "whatever global is now"),
// matching Heap.MakeClosure's optimization.
func (ip *Interp) openClosure(f Value) (params, body, env Value, err error) {
	h := ip.Heap
	binding, err := h.First(f)
	if err != nil {
		return Nil, Nil, Nil, err
	}
	capture, err := h.Rest(f)
	if err != nil {
		return Nil, Nil, Nil, err
	}
	params, err = h.First(binding)
	if err != nil {
		return Nil, Nil, Nil, err
	}
	body, err = h.Rest(binding)
	if err != nil {
		return Nil, Nil, Nil, err
	}
	if IsNil(capture) {
		capture = ip.Global
	}
	return params, body, capture, nil
}

func (ip *Interp) openMacro(f Value) (params, body Value, err error) {
	h := ip.Heap
	params, err = h.First(f)
	if err != nil {
		return Nil, Nil, err
	}
	body, err = h.Rest(f)
	return params, body, err
}

// bindParams extends env with one new frame per formal, binding a plain
// atom formal to the whole remaining actuals list (the dialect's variadic
// form). A shortage of actuals against a fixed formal raises Arguments,
// per spec.md §4.4.
func bindParams(h *Heap, params, actuals, env Value) (Value, error) {
	newEnv := env
	for IsPair(params) {
		name, err := h.First(params)
		if err != nil {
			return Nil, err
		}
		if !IsPair(actuals) {
			return Nil, raise(Arguments, "")
		}
		val, err := h.First(actuals)
		if err != nil {
			return Nil, err
		}
		actuals, err = h.Rest(actuals)
		if err != nil {
			return Nil, err
		}
		newEnv = h.EnvPair(name, val, newEnv)
		params, err = h.Rest(params)
		if err != nil {
			return Nil, err
		}
	}
	if IsAtom(params) && h.AtomName(params) != "" {
		newEnv = h.EnvPair(params, actuals, newEnv)
	}
	return newEnv, nil
}
