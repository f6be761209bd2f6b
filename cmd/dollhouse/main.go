// Command dollhouse launches a Dollhouse host: it loads a bootstrap
// config, registers every daemon its manifests name, and drives the
// cooperative scheduler until a daemon quits, the configured tick limit is
// reached, or no daemon is registered.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/stingpie/dollhouse/host"
	"github.com/stingpie/dollhouse/sandbox"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("dollhouse", flag.ContinueOnError)
	configPath := fs.String("config", "dollhouse.yaml", "path to the bootstrap config")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := host.LoadBootstrapConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dollhouse: loading config: %v\n", err)
		return 1
	}

	root, err := sandbox.New(cfg.SandboxRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dollhouse: opening sandbox root: %v\n", err)
		return 1
	}

	logger := host.NewLogger(os.Stderr)
	rt := host.NewRuntime(root, logger)
	if cfg.CellsPerVM != 0 {
		rt.Cells = cfg.CellsPerVM
	}

	for _, manifest := range cfg.Manifests {
		if _, err := rt.SpawnManifest(manifest); err != nil {
			fmt.Fprintf(os.Stderr, "dollhouse: registering %s: %v\n", manifest, err)
			return 1
		}
	}

	ticks := 0
	for {
		if cfg.MaxTicks > 0 && ticks >= cfg.MaxTicks {
			break
		}
		if rt.Registry.Len() == 0 {
			break
		}
		rt.Tick()
		ticks++
		if rt.Halted {
			return 0
		}
	}
	return 0
}
