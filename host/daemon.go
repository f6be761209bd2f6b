package host

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stingpie/dollhouse/lisp"
)

// DaemonInfo is what a manifest tells the host before any interpreter
// instance exists for it: per spec.md §4.6, this stays a distinct value
// from the live Daemon so routing can reason about declared interfaces
// before a script has run a single form.
type DaemonInfo struct {
	Manifest *Manifest
	Language string
}

// PendingOutput is a daemon's one-slot outbox: the wire-ready source text
// for the most recent `output` call on a given port, plus its reported
// byte length. Overwriting an unread slot is permitted (spec.md §4.5).
type PendingOutput struct {
	Port   string
	Source string // e.g. `"hello"` or `(list 1 2 3)`, unwrapped in a port form
	Len    int
}

// Daemon is a live, running agent: its declared info, its interpreter, its
// interfaces, and its scheduling state.
type Daemon struct {
	ID         DaemonID
	Info       *DaemonInfo
	Interp     *lisp.Interp
	Interfaces []Interface
	Pending    *PendingOutput
	Yielded    bool

	host *daemonHost
}

// Name returns the daemon's manifest-declared human name.
func (d *Daemon) Name() string {
	if d.Info == nil || d.Info.Manifest == nil {
		return ""
	}
	return d.Info.Manifest.Name
}

// daemonHost implements lisp.Host for exactly one Daemon, closing over the
// Runtime so register-interface/evoke/output can reach the registry and
// router without the lisp package ever importing host.
type daemonHost struct {
	d  *Daemon
	rt *Runtime
}

func (dh *daemonHost) RegisterInterface(name, typ, format string, direction, trigger bool) error {
	dir := In
	if direction {
		dir = Out
	}
	iface := Interface{Name: name, Type: typ, Format: format, Direction: dir, Trigger: trigger, Owner: dh.d.ID}
	for _, existing := range dh.d.Interfaces {
		if existing == iface {
			return nil
		}
	}
	dh.d.Interfaces = append(dh.d.Interfaces, iface)
	dh.rt.Router.Register(dh.rt.Registry, iface)
	if dh.rt.Logger != nil {
		dh.rt.Logger.Logf("daemon %d (%s) registered interface %s/%s/%s dir=%v", dh.d.ID, dh.d.Name(), name, typ, format, dir)
	}
	return nil
}

func (dh *daemonHost) Evoke(script, language string) (lisp.Value, error) {
	id, err := dh.rt.Spawn(script, language)
	if err != nil {
		return lisp.Nil, nil
	}
	return lisp.Num(float64(id)), nil
}

func (dh *daemonHost) Yield() error {
	dh.d.Yielded = true
	return nil
}

func (dh *daemonHost) SetOutput(name string, payload lisp.Value) (int, error) {
	declared := false
	for _, iface := range dh.d.Interfaces {
		if iface.Direction == Out && iface.Name == name {
			declared = true
			break
		}
	}
	if !declared {
		return 0, nil
	}
	source, n := wireForm(dh.d.Interp.Heap, payload)
	dh.d.Pending = &PendingOutput{Port: name, Source: source, Len: n}
	return n, nil
}

// wireForm renders payload the way the router's delivery wire format
// (spec.md §6) requires: a STRING becomes an escaped `"..."` literal; a
// list of numeric chars becomes `(list n1 n2 ...)`; anything else falls
// back to its printed form quoted as a string.
func wireForm(h *lisp.Heap, payload lisp.Value) (string, int) {
	if lisp.IsString(payload) {
		text := h.AtomName(payload)
		return `"` + escapeWire(text) + `"`, len(text)
	}
	if lisp.IsPair(payload) || lisp.IsNil(payload) {
		var nums []string
		n := 0
		for cur := payload; lisp.IsPair(cur); {
			elem, err := h.First(cur)
			if err != nil {
				break
			}
			if lisp.IsNumber(elem) {
				nums = append(nums, strconv.FormatFloat(lisp.Float(elem), 'g', -1, 64))
				n++
			}
			next, err := h.Rest(cur)
			if err != nil {
				break
			}
			cur = next
		}
		return "(list " + strings.Join(nums, " ") + ")", n
	}
	text := h.Print(payload)
	return `"` + escapeWire(text) + `"`, len(text)
}

func escapeWire(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b == '"' || b == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

// invocationSource builds the full synthetic-invocation source text for a
// delivery: `(<port> <wire-form>)`.
func invocationSource(port *PendingOutput) string {
	return fmt.Sprintf("(%s %s)", port.Port, port.Source)
}
