package host

import "github.com/stingpie/dollhouse/lisp"

// defaultCells is the heap size, in 8-byte words, given to every spawned
// daemon's interpreter when BootstrapConfig doesn't say otherwise. It
// comfortably clears the ≥8192-cell floor spec.md §8's S4 scenario names.
const defaultCells = 1 << 16

// Runtime is the whole running host: every daemon, the router pairing
// their interfaces, the sandbox they read scripts and manifests through,
// and the lifecycle logger. cmd/dollhouse builds one of these and drives
// its Tick in a loop.
type Runtime struct {
	Registry *Registry
	Router   *Router
	Sandbox  lisp.FileReader
	Logger   *Logger
	Cells    uint64

	// Halted is set once some daemon evaluates `quit`; cmd/dollhouse's
	// main loop checks it after every Tick and exits status 0 when set.
	Halted bool
}

// NewRuntime constructs an empty Runtime over sandbox and logger.
func NewRuntime(sandbox lisp.FileReader, logger *Logger) *Runtime {
	return &Runtime{
		Registry: NewRegistry(),
		Router:   NewRouter(),
		Sandbox:  sandbox,
		Logger:   logger,
		Cells:    defaultCells,
	}
}

// SpawnManifest reads manifestPath and its declared script through the
// sandbox, creates a daemon, and registers every interface the manifest
// declares, matching them against the router immediately.
func (rt *Runtime) SpawnManifest(manifestPath string) (DaemonID, error) {
	data, err := rt.Sandbox.ReadAll(manifestPath)
	if err != nil {
		return 0, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return 0, err
	}
	script, err := rt.Sandbox.ReadAll(m.Filename)
	if err != nil {
		return 0, err
	}
	return rt.spawn(script, "lisp", &DaemonInfo{Manifest: m, Language: "lisp"}, m.Interfaces)
}

// Spawn implements the `evoke` primitive's host side: create a daemon
// running script directly, with no manifest and no pre-declared
// interfaces (the new daemon must call register-interface itself).
func (rt *Runtime) Spawn(script, language string) (DaemonID, error) {
	data, err := rt.Sandbox.ReadAll(script)
	if err != nil {
		return 0, err
	}
	return rt.spawn(data, language, &DaemonInfo{Language: language}, nil)
}

func (rt *Runtime) spawn(source []byte, language string, info *DaemonInfo, declared []ManifestInterface) (DaemonID, error) {
	ip := lisp.NewInterp(rt.Cells, source)
	ip.Files = rt.Sandbox
	d := &Daemon{Info: info}
	dh := &daemonHost{d: d, rt: rt}
	d.host = dh
	ip.Host = dh
	d.Interp = ip
	id := rt.Registry.Add(d)
	for _, decl := range declared {
		_ = dh.RegisterInterface(decl.Name, decl.Type, decl.Format, decl.Direction, decl.Trigger)
	}
	if rt.Logger != nil {
		rt.Logger.Logf("daemon %d (%s) evoked, language=%s", id, d.Name(), language)
	}
	return id, nil
}

// Kill removes a daemon and every Interlink touching it.
func (rt *Runtime) Kill(id DaemonID) {
	rt.Router.Unlink(id)
	rt.Registry.Remove(id)
	if rt.Logger != nil {
		rt.Logger.Logf("daemon %d killed", id)
	}
}

// Tick is one scheduling cycle: spec.md §4.5/§7. Every occupied daemon
// slot gets exactly one top-level form evaluated, except that once a daemon
// quits, the daemons after it in this cycle are skipped; a daemon that yielded
// has its flag cleared and its delivery step skipped for this cycle;
// otherwise every outgoing Interlink whose pending-output port matches is
// delivered as a synthetic invocation on its consumer.
func (rt *Runtime) Tick() {
	rt.Registry.Each(func(d *Daemon) {
		if rt.Halted {
			return
		}
		_, err := d.Interp.Step()
		if err != nil {
			if err == lisp.ErrExhausted {
				return
			}
			if err == lisp.ErrQuit {
				rt.Halted = true
				if rt.Logger != nil {
					rt.Logger.Logf("daemon %d (%s) quit", d.ID, d.Name())
				}
				return
			}
			if rt.Logger != nil {
				rt.Logger.Logf("daemon %d (%s) fault: %s", d.ID, d.Name(), err.Error())
			}
			return
		}
		if d.Yielded {
			d.Yielded = false
			return
		}
		rt.deliver(d)
	})
}

func (rt *Runtime) deliver(d *Daemon) {
	if d.Pending == nil {
		return
	}
	for _, link := range rt.Router.Outgoing(d.ID) {
		if d.Pending.Port != link.Name {
			continue
		}
		consumer, ok := rt.Registry.Get(link.Consumer)
		if !ok {
			continue
		}
		src := []byte(invocationSource(d.Pending))
		consumer.Interp.Reader.Push(src)
		form, err := consumer.Interp.Reader.ReadOne(consumer.Interp.Heap)
		consumer.Interp.Reader.Pop()
		if err != nil {
			if rt.Logger != nil {
				rt.Logger.Logf("delivery %d -> %d on %s failed to parse: %s", d.ID, consumer.ID, link.Name, err)
			}
			continue
		}
		if _, err := consumer.Interp.Eval(form, consumer.Interp.Global); err != nil {
			if rt.Logger != nil {
				rt.Logger.Logf("delivery %d -> %d on %s: handler error: %s", d.ID, consumer.ID, link.Name, err)
			}
		}
	}
	d.Pending = nil
}
