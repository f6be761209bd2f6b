package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stingpie/dollhouse/lisp"
	"github.com/stingpie/dollhouse/sandbox"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestRuntimeDeliversAcrossInterlink spawns a producer and a consumer from
// manifests, ticks the scheduler, and checks that the producer's `output`
// call arrives as a synthetic invocation on the consumer.
func TestRuntimeDeliversAcrossInterlink(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "producer.proc", "name: producer\nfilename: producer.lisp\n")
	writeFile(t, dir, "producer.lisp", `(register-interface "ping" "text" "line" (lambda (x) x) 1 0) (output "ping" "hello")`)
	writeFile(t, dir, "consumer.proc", "name: consumer\nfilename: consumer.lisp\n")
	writeFile(t, dir, "consumer.lisp", `(define received ()) (register-interface "ping" "text" "line" (lambda (x) (setq received x)) 0 1)`)

	root, err := sandbox.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	rt := NewRuntime(root, nil)

	if _, err := rt.SpawnManifest("consumer.proc"); err != nil {
		t.Fatalf("spawning consumer: %v", err)
	}
	if _, err := rt.SpawnManifest("producer.proc"); err != nil {
		t.Fatalf("spawning producer: %v", err)
	}

	// Two ticks: the first evaluates the consumer's define and the producer's
	// register-interface; the second evaluates the consumer's
	// register-interface (creating the interlink) and then the producer's
	// output, which is delivered in that same tick.
	rt.Tick()
	rt.Tick()

	var consumer *Daemon
	rt.Registry.Each(func(d *Daemon) {
		if d.Name() == "consumer" {
			consumer = d
		}
	})
	if consumer == nil {
		t.Fatal("consumer daemon not found")
	}

	h := consumer.Interp.Heap
	received, err := h.Assoc(h.InternAtom("received"), consumer.Interp.Global)
	if err != nil {
		t.Fatalf("assoc received: %v", err)
	}
	if !lisp.IsString(received) || h.AtomName(received) != "hello" {
		t.Errorf("received = %q, want %q", h.Print(received), "hello")
	}
}

// TestRuntimeQuitHaltsScheduling checks that a daemon evaluating `quit` sets
// Runtime.Halted, which is what tells cmd/dollhouse's main loop to stop and
// exit 0 instead of continuing to tick.
func TestRuntimeQuitHaltsScheduling(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.proc", "name: a\nfilename: a.lisp\n")
	writeFile(t, dir, "a.lisp", `(quit)`)

	root, err := sandbox.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	rt := NewRuntime(root, nil)
	if _, err := rt.SpawnManifest("a.proc"); err != nil {
		t.Fatal(err)
	}
	if rt.Halted {
		t.Fatal("Halted should not be set before any tick runs")
	}
	rt.Tick()
	if !rt.Halted {
		t.Error("quit should set Runtime.Halted")
	}
}

func TestRuntimeKillUnlinksInterfaces(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.proc", "name: a\nfilename: a.lisp\n")
	writeFile(t, dir, "a.lisp", `(register-interface "p" "t" "f" (lambda (x) x) 1 0)`)
	writeFile(t, dir, "b.proc", "name: b\nfilename: b.lisp\n")
	writeFile(t, dir, "b.lisp", `(register-interface "p" "t" "f" (lambda (x) x) 0 1)`)

	root, err := sandbox.New(dir)
	if err != nil {
		t.Fatal(err)
	}
	rt := NewRuntime(root, nil)
	idB, err := rt.SpawnManifest("b.proc")
	if err != nil {
		t.Fatal(err)
	}
	idA, err := rt.SpawnManifest("a.proc")
	if err != nil {
		t.Fatal(err)
	}
	rt.Tick()

	if len(rt.Router.Outgoing(idA)) == 0 {
		t.Fatal("expected an interlink to exist before Kill")
	}
	rt.Kill(idB)
	if len(rt.Router.Outgoing(idA)) != 0 {
		t.Error("Kill should have unlinked every interlink touching the killed daemon")
	}
	if _, ok := rt.Registry.Get(idB); ok {
		t.Error("Kill should free the daemon's registry slot")
	}
}
