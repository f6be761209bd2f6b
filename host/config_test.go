package host

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBootstrapConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dollhouse.yaml")
	src := "sandbox_root: ./daemons\nmanifests:\n  - a.proc\n  - b.proc\nmax_ticks: 100\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadBootstrapConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SandboxRoot != "./daemons" {
		t.Errorf("SandboxRoot = %q", cfg.SandboxRoot)
	}
	if len(cfg.Manifests) != 2 || cfg.Manifests[0] != "a.proc" || cfg.Manifests[1] != "b.proc" {
		t.Errorf("Manifests = %v", cfg.Manifests)
	}
	if cfg.MaxTicks != 100 {
		t.Errorf("MaxTicks = %d", cfg.MaxTicks)
	}
}

func TestLoadBootstrapConfigDefaultsCells(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dollhouse.yaml")
	if err := os.WriteFile(path, []byte("sandbox_root: .\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadBootstrapConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CellsPerVM != defaultCells {
		t.Errorf("CellsPerVM = %d, want default %d", cfg.CellsPerVM, defaultCells)
	}
}

func TestLoadBootstrapConfigMissingFile(t *testing.T) {
	if _, err := LoadBootstrapConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}
